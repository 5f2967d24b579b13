package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/terra-erp-api/internal/dto"
	"github.com/noah-isme/terra-erp-api/internal/models"
	"github.com/noah-isme/terra-erp-api/internal/repository"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type approvalRepoStub struct {
	requests map[string]*models.ApprovalRequest
	filter   models.ApprovalFilter
	reverted []string
	seq      int
}

func newApprovalRepoStub() *approvalRepoStub {
	return &approvalRepoStub{requests: make(map[string]*models.ApprovalRequest)}
}

func (s *approvalRepoStub) Create(ctx context.Context, request *models.ApprovalRequest) error {
	if request.ID == "" {
		s.seq++
		request.ID = "req-" + string(rune('0'+s.seq))
	}
	s.requests[request.ID] = request
	return nil
}

func (s *approvalRepoStub) GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	if req, ok := s.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *approvalRepoStub) List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	s.filter = filter
	result := make([]models.ApprovalRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if filter.RequestedBy != "" && req.RequestedBy != filter.RequestedBy {
			continue
		}
		result = append(result, *req)
	}
	return result, nil
}

func (s *approvalRepoStub) MarkReviewed(ctx context.Context, params repository.ReviewParams) error {
	req, ok := s.requests[params.ID]
	if !ok || req.Status != models.ApprovalStatusPending {
		return sql.ErrNoRows
	}
	req.Status = params.Status
	req.ReviewedBy = &params.ReviewedBy
	req.ReviewedAt = &params.ReviewedAt
	req.AdminNote = params.AdminNote
	return nil
}

func (s *approvalRepoStub) RevertReview(ctx context.Context, id string) error {
	req, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	req.Status = models.ApprovalStatusPending
	req.ReviewedBy = nil
	req.ReviewedAt = nil
	req.AdminNote = nil
	s.reverted = append(s.reverted, id)
	return nil
}

func (s *approvalRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.requests[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.requests, id)
	return nil
}

func (s *approvalRepoStub) CountByStatus(ctx context.Context) (models.ApprovalStats, error) {
	stats := models.ApprovalStats{}
	for _, req := range s.requests {
		switch req.Status {
		case models.ApprovalStatusPending:
			stats.Pending++
		case models.ApprovalStatusApproved:
			stats.Approved++
		case models.ApprovalStatusRejected:
			stats.Rejected++
		}
		stats.Total++
	}
	return stats, nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func operatorClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleOperator}
}

func adminClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleAdmin}
}

func pendingRequest(id, requestedBy string) *models.ApprovalRequest {
	return &models.ApprovalRequest{
		ID:            id,
		Entity:        models.EntityCustomer,
		Operation:     models.OperationCreate,
		Payload:       []byte(`{"code":"C-1","name":"Acme"}`),
		Status:        models.ApprovalStatusPending,
		RequestedBy:   requestedBy,
		RequesterRole: models.RoleOperator,
	}
}

func staticApplier(snapshot []byte, err error) map[models.ApprovalEntity]ChangeApplier {
	return map[models.ApprovalEntity]ChangeApplier{
		models.EntityCustomer: ChangeApplierFunc(func(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
			return snapshot, err
		}),
	}
}

func TestApprovalServiceSubmit(t *testing.T) {
	repo := newApprovalRepoStub()
	audit := &auditStub{}
	svc := NewApprovalService(repo, audit, nil)

	req := dto.SubmitApprovalRequest{
		Entity:    models.EntityCustomer,
		Operation: models.OperationCreate,
		Payload:   []byte(`{"code":"C-1","name":"Acme"}`),
	}
	request, err := svc.Submit(context.Background(), req, operatorClaims("op-1"))
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusPending, request.Status)
	require.Equal(t, "op-1", request.RequestedBy)
	require.Equal(t, models.RoleOperator, request.RequesterRole)
	require.Len(t, audit.logs, 1)
}

func TestApprovalServiceSubmitRejectsPrivileged(t *testing.T) {
	svc := NewApprovalService(newApprovalRepoStub(), &auditStub{}, nil)

	_, err := svc.Submit(context.Background(), dto.SubmitApprovalRequest{
		Entity:    models.EntityCustomer,
		Operation: models.OperationCreate,
		Payload:   []byte(`{}`),
	}, adminClaims("admin-1"))
	require.Error(t, err)
	require.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestApprovalServiceSubmitValidation(t *testing.T) {
	svc := NewApprovalService(newApprovalRepoStub(), &auditStub{}, nil)
	actor := operatorClaims("op-1")

	cases := []struct {
		name string
		req  dto.SubmitApprovalRequest
	}{
		{"unknown entity", dto.SubmitApprovalRequest{Entity: "widget", Operation: models.OperationCreate, Payload: []byte(`{}`)}},
		{"update without entity id", dto.SubmitApprovalRequest{Entity: models.EntityCustomer, Operation: models.OperationUpdate, Payload: []byte(`{}`)}},
		{"create with entity id", dto.SubmitApprovalRequest{Entity: models.EntityCustomer, Operation: models.OperationCreate, EntityID: "c-1", Payload: []byte(`{}`)}},
		{"missing payload", dto.SubmitApprovalRequest{Entity: models.EntityCustomer, Operation: models.OperationCreate}},
		{"invalid payload", dto.SubmitApprovalRequest{Entity: models.EntityCustomer, Operation: models.OperationCreate, Payload: []byte(`{`)}},
		{"unknown operation", dto.SubmitApprovalRequest{Entity: models.EntityCustomer, Operation: "DELETE", Payload: []byte(`{}`)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.req, actor)
			require.Error(t, err)
			require.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestApprovalServiceApprove(t *testing.T) {
	repo := newApprovalRepoStub()
	audit := &auditStub{}
	repo.requests["req-1"] = pendingRequest("req-1", "op-1")
	svc := NewApprovalService(repo, audit, nil, WithAppliers(staticApplier([]byte(`{"id":"c-1"}`), nil)))

	request, err := svc.Approve(context.Background(), "req-1", adminClaims("admin-1"), "looks good")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusApproved, request.Status)
	require.NotNil(t, request.ReviewedBy)
	require.Equal(t, "admin-1", *request.ReviewedBy)
	require.NotNil(t, request.ReviewedAt)
	require.Equal(t, models.ApprovalStatusApproved, repo.requests["req-1"].Status)
	require.Len(t, audit.logs, 1)
}

func TestApprovalServiceApproveRequiresPrivilege(t *testing.T) {
	repo := newApprovalRepoStub()
	repo.requests["req-1"] = pendingRequest("req-1", "op-1")
	svc := NewApprovalService(repo, &auditStub{}, nil, WithAppliers(staticApplier(nil, nil)))

	_, err := svc.Approve(context.Background(), "req-1", operatorClaims("op-1"), "")
	require.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestApprovalServiceApproveAlreadyReviewed(t *testing.T) {
	repo := newApprovalRepoStub()
	reviewed := pendingRequest("req-1", "op-1")
	reviewed.Status = models.ApprovalStatusRejected
	repo.requests["req-1"] = reviewed
	svc := NewApprovalService(repo, &auditStub{}, nil, WithAppliers(staticApplier(nil, nil)))

	_, err := svc.Approve(context.Background(), "req-1", adminClaims("admin-1"), "")
	require.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestApprovalServiceApproveRaceLosesWithConflict(t *testing.T) {
	repo := newApprovalRepoStub()
	repo.requests["req-1"] = pendingRequest("req-1", "op-1")
	svc := NewApprovalService(repo, &auditStub{}, nil, WithAppliers(staticApplier([]byte(`{}`), nil)))

	_, err := svc.Approve(context.Background(), "req-1", adminClaims("admin-1"), "")
	require.NoError(t, err)

	// Second reviewer raced in after the first load but the conditional
	// update only flips a PENDING row.
	_, err = svc.Reject(context.Background(), "req-1", adminClaims("admin-2"), "no")
	require.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestApprovalServiceApproveApplyFailureStaysPending(t *testing.T) {
	repo := newApprovalRepoStub()
	repo.requests["req-1"] = pendingRequest("req-1", "op-1")
	svc := NewApprovalService(repo, &auditStub{}, nil,
		WithAppliers(staticApplier(nil, errors.New("constraint violation"))))

	_, err := svc.Approve(context.Background(), "req-1", adminClaims("admin-1"), "")
	require.Error(t, err)
	require.True(t, errors.Is(err, appErrors.ErrApplyFailed))
	require.Equal(t, []string{"req-1"}, repo.reverted)
	require.Equal(t, models.ApprovalStatusPending, repo.requests["req-1"].Status)
	require.Nil(t, repo.requests["req-1"].ReviewedBy)
}

func TestApprovalServiceRejectRequiresNote(t *testing.T) {
	repo := newApprovalRepoStub()
	repo.requests["req-1"] = pendingRequest("req-1", "op-1")
	svc := NewApprovalService(repo, &auditStub{}, nil)

	_, err := svc.Reject(context.Background(), "req-1", adminClaims("admin-1"), "   ")
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	require.Equal(t, models.ApprovalStatusPending, repo.requests["req-1"].Status)
}

func TestApprovalServiceReject(t *testing.T) {
	repo := newApprovalRepoStub()
	audit := &auditStub{}
	repo.requests["req-1"] = pendingRequest("req-1", "op-1")
	svc := NewApprovalService(repo, audit, nil)

	request, err := svc.Reject(context.Background(), "req-1", adminClaims("admin-1"), "wrong account")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusRejected, request.Status)
	require.NotNil(t, request.AdminNote)
	require.Equal(t, "wrong account", *request.AdminNote)
	require.Len(t, audit.logs, 1)
}

func TestApprovalServiceDeleteRules(t *testing.T) {
	repo := newApprovalRepoStub()
	repo.requests["req-1"] = pendingRequest("req-1", "op-1")
	svc := NewApprovalService(repo, &auditStub{}, nil)

	err := svc.Delete(context.Background(), "req-1", operatorClaims("op-2"))
	require.True(t, errors.Is(err, appErrors.ErrForbidden))

	approved := pendingRequest("req-2", "op-1")
	approved.Status = models.ApprovalStatusApproved
	repo.requests["req-2"] = approved
	err = svc.Delete(context.Background(), "req-2", operatorClaims("op-1"))
	require.True(t, errors.Is(err, appErrors.ErrForbidden))

	err = svc.Delete(context.Background(), "req-1", operatorClaims("op-1"))
	require.NoError(t, err)
	_, ok := repo.requests["req-1"]
	require.False(t, ok)
}

func TestApprovalServiceListScopesOperators(t *testing.T) {
	repo := newApprovalRepoStub()
	repo.requests["req-1"] = pendingRequest("req-1", "op-1")
	repo.requests["req-2"] = pendingRequest("req-2", "op-2")
	svc := NewApprovalService(repo, &auditStub{}, nil)

	own, err := svc.List(context.Background(), dto.ApprovalQuery{}, operatorClaims("op-1"))
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, "op-1", repo.filter.RequestedBy)

	all, err := svc.List(context.Background(), dto.ApprovalQuery{}, adminClaims("admin-1"))
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Empty(t, repo.filter.RequestedBy)
}

func TestApprovalServiceGetScopesOperators(t *testing.T) {
	repo := newApprovalRepoStub()
	repo.requests["req-1"] = pendingRequest("req-1", "op-1")
	svc := NewApprovalService(repo, &auditStub{}, nil)

	_, err := svc.Get(context.Background(), "req-1", operatorClaims("op-2"))
	require.True(t, errors.Is(err, appErrors.ErrForbidden))

	request, err := svc.Get(context.Background(), "req-1", operatorClaims("op-1"))
	require.NoError(t, err)
	require.Equal(t, "req-1", request.ID)
}

func TestApprovalServiceStats(t *testing.T) {
	repo := newApprovalRepoStub()
	repo.requests["req-1"] = pendingRequest("req-1", "op-1")
	approved := pendingRequest("req-2", "op-1")
	approved.Status = models.ApprovalStatusApproved
	repo.requests["req-2"] = approved
	svc := NewApprovalService(repo, &auditStub{}, nil)

	_, err := svc.Stats(context.Background(), operatorClaims("op-1"))
	require.True(t, errors.Is(err, appErrors.ErrForbidden))

	stats, err := svc.Stats(context.Background(), adminClaims("admin-1"))
	require.NoError(t, err)
	require.Equal(t, 1, stats.Pending)
	require.Equal(t, 1, stats.Approved)
	require.Equal(t, 2, stats.Total)
}

func TestApprovalWorkflowOperatorSubmitAdminApprove(t *testing.T) {
	repo := newApprovalRepoStub()
	audit := &auditStub{}
	applied := 0
	appliers := map[models.ApprovalEntity]ChangeApplier{
		models.EntityCustomer: ChangeApplierFunc(func(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
			applied++
			require.Equal(t, models.OperationCreate, change.Operation)
			require.Equal(t, "admin-1", change.ActorID)
			return []byte(`{"id":"c-9"}`), nil
		}),
	}
	svc := NewApprovalService(repo, audit, nil, WithAppliers(appliers))

	request, err := svc.Submit(context.Background(), dto.SubmitApprovalRequest{
		Entity:    models.EntityCustomer,
		Operation: models.OperationCreate,
		Payload:   []byte(`{"code":"C-9","name":"Nine"}`),
	}, operatorClaims("op-1"))
	require.NoError(t, err)

	reviewed, err := svc.Approve(context.Background(), request.ID, adminClaims("admin-1"), "")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusApproved, reviewed.Status)
	require.Equal(t, 1, applied)
}
