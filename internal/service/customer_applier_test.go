package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type customerRepoStub struct {
	customers map[string]*models.Customer
	codes     map[string]string
	seq       int
}

func newCustomerRepoStub() *customerRepoStub {
	return &customerRepoStub{customers: make(map[string]*models.Customer), codes: make(map[string]string)}
}

func (s *customerRepoStub) Create(ctx context.Context, customer *models.Customer) error {
	s.seq++
	customer.ID = "c-" + string(rune('0'+s.seq))
	s.customers[customer.ID] = customer
	s.codes[customer.Code] = customer.ID
	return nil
}

func (s *customerRepoStub) Update(ctx context.Context, customer *models.Customer) error {
	if _, ok := s.customers[customer.ID]; !ok {
		return sql.ErrNoRows
	}
	s.customers[customer.ID] = customer
	return nil
}

func (s *customerRepoStub) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	if customer, ok := s.customers[id]; ok {
		copy := *customer
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *customerRepoStub) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	id, ok := s.codes[code]
	return ok && id != excludeID, nil
}

func TestCustomerApplierCreate(t *testing.T) {
	repo := newCustomerRepoStub()
	applier := NewCustomerApplier(repo, nil)

	snapshot, err := applier.Apply(context.Background(), &models.ChangeSet{
		Entity:    models.EntityCustomer,
		Operation: models.OperationCreate,
		Payload:   []byte(`{"code":"C-1","name":"Acme","phone":"0812","address":"Jl. Melati 1"}`),
		ActorID:   "admin-1",
	})
	require.NoError(t, err)

	var created models.Customer
	require.NoError(t, json.Unmarshal(snapshot, &created))
	require.Equal(t, "C-1", created.Code)
	require.Equal(t, "Acme", created.Name)
	require.True(t, created.Active)
	require.Len(t, repo.customers, 1)
}

func TestCustomerApplierCreateRequiresCodeAndName(t *testing.T) {
	applier := NewCustomerApplier(newCustomerRepoStub(), nil)

	_, err := applier.Apply(context.Background(), &models.ChangeSet{
		Entity:    models.EntityCustomer,
		Operation: models.OperationCreate,
		Payload:   []byte(`{"phone":"0812"}`),
	})
	require.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCustomerApplierCreateDuplicateCode(t *testing.T) {
	repo := newCustomerRepoStub()
	applier := NewCustomerApplier(repo, nil)

	_, err := applier.Apply(context.Background(), &models.ChangeSet{
		Operation: models.OperationCreate,
		Payload:   []byte(`{"code":"C-1","name":"Acme"}`),
	})
	require.NoError(t, err)

	_, err = applier.Apply(context.Background(), &models.ChangeSet{
		Operation: models.OperationCreate,
		Payload:   []byte(`{"code":"C-1","name":"Other"}`),
	})
	require.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestCustomerApplierUpdate(t *testing.T) {
	repo := newCustomerRepoStub()
	applier := NewCustomerApplier(repo, nil)

	_, err := applier.Apply(context.Background(), &models.ChangeSet{
		Operation: models.OperationCreate,
		Payload:   []byte(`{"code":"C-1","name":"Acme"}`),
	})
	require.NoError(t, err)

	snapshot, err := applier.Apply(context.Background(), &models.ChangeSet{
		Operation: models.OperationUpdate,
		EntityID:  "c-1",
		Payload:   []byte(`{"name":"Acme Land","active":false}`),
	})
	require.NoError(t, err)

	var updated models.Customer
	require.NoError(t, json.Unmarshal(snapshot, &updated))
	require.Equal(t, "Acme Land", updated.Name)
	require.False(t, updated.Active)
	require.Equal(t, "C-1", updated.Code, "untouched fields keep their value")
}

func TestCustomerApplierUpdateUnknownFieldOnly(t *testing.T) {
	repo := newCustomerRepoStub()
	applier := NewCustomerApplier(repo, nil)

	_, err := applier.Apply(context.Background(), &models.ChangeSet{
		Operation: models.OperationCreate,
		Payload:   []byte(`{"code":"C-1","name":"Acme"}`),
	})
	require.NoError(t, err)

	_, err = applier.Apply(context.Background(), &models.ChangeSet{
		Operation: models.OperationUpdate,
		EntityID:  "c-1",
		Payload:   []byte(`{"favourite_colour":"green"}`),
	})
	require.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCustomerApplierUpdateMissingRecord(t *testing.T) {
	applier := NewCustomerApplier(newCustomerRepoStub(), nil)

	_, err := applier.Apply(context.Background(), &models.ChangeSet{
		Operation: models.OperationUpdate,
		EntityID:  "missing",
		Payload:   []byte(`{"name":"Acme"}`),
	})
	require.True(t, errors.Is(err, appErrors.ErrNotFound))
}
