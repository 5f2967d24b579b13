package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/terra-erp-api/internal/dto"
	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

func newDispatchFixture(applied *int) (*DispatchService, *approvalRepoStub) {
	repo := newApprovalRepoStub()
	audit := &auditStub{}
	appliers := map[models.ApprovalEntity]ChangeApplier{
		models.EntityCustomer: ChangeApplierFunc(func(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
			if applied != nil {
				*applied++
			}
			return []byte(`{"id":"c-1"}`), nil
		}),
	}
	approvals := NewApprovalService(repo, audit, nil, WithAppliers(appliers))
	return NewDispatchService(appliers, approvals, audit, nil), repo
}

func TestDispatchAdminGoesDirect(t *testing.T) {
	applied := 0
	svc, repo := newDispatchFixture(&applied)

	result, err := svc.Dispatch(context.Background(), dto.MutationInput{
		Entity:    models.EntityCustomer,
		Operation: models.OperationCreate,
		Payload:   []byte(`{"code":"C-1","name":"Acme"}`),
	}, adminClaims("admin-1"))
	require.NoError(t, err)
	require.Equal(t, dto.DispatchModeDirect, result.Mode)
	require.JSONEq(t, `{"id":"c-1"}`, string(result.Result))
	require.Nil(t, result.Request)
	require.Equal(t, 1, applied)
	require.Empty(t, repo.requests, "direct writes must not queue approval requests")
}

func TestDispatchOperatorIsDeferred(t *testing.T) {
	applied := 0
	svc, repo := newDispatchFixture(&applied)

	result, err := svc.Dispatch(context.Background(), dto.MutationInput{
		Entity:    models.EntityCustomer,
		Operation: models.OperationCreate,
		Reason:    "new buyer",
		Payload:   []byte(`{"code":"C-1","name":"Acme"}`),
	}, operatorClaims("op-1"))
	require.NoError(t, err)
	require.Equal(t, dto.DispatchModeDeferred, result.Mode)
	require.NotNil(t, result.Request)
	require.Equal(t, models.ApprovalStatusPending, result.Request.Status)
	require.Equal(t, "new buyer", result.Request.Reason)
	require.Nil(t, result.Result)
	require.Zero(t, applied, "deferred writes must not touch the domain record")
	require.Len(t, repo.requests, 1)
}

func TestDispatchSuperAdminGoesDirect(t *testing.T) {
	applied := 0
	svc, _ := newDispatchFixture(&applied)

	result, err := svc.Dispatch(context.Background(), dto.MutationInput{
		Entity:    models.EntityCustomer,
		Operation: models.OperationCreate,
		Payload:   []byte(`{"code":"C-2","name":"Beta"}`),
	}, &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin})
	require.NoError(t, err)
	require.Equal(t, dto.DispatchModeDirect, result.Mode)
	require.Equal(t, 1, applied)
}

func TestDispatchValidatesInput(t *testing.T) {
	svc, _ := newDispatchFixture(nil)

	_, err := svc.Dispatch(context.Background(), dto.MutationInput{
		Entity:    "widget",
		Operation: models.OperationCreate,
		Payload:   []byte(`{}`),
	}, adminClaims("admin-1"))
	require.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Dispatch(context.Background(), dto.MutationInput{
		Entity:    models.EntityCustomer,
		Operation: models.OperationUpdate,
		Payload:   []byte(`{}`),
	}, adminClaims("admin-1"))
	require.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestDispatchRequiresActor(t *testing.T) {
	svc, _ := newDispatchFixture(nil)

	_, err := svc.Dispatch(context.Background(), dto.MutationInput{
		Entity:    models.EntityCustomer,
		Operation: models.OperationCreate,
		Payload:   []byte(`{}`),
	}, nil)
	require.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
