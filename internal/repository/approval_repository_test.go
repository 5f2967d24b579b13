package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/terra-erp-api/internal/models"
)

func newApprovalRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApprovalRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO approval_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.ApprovalRequest{
		Entity:        models.EntityCustomer,
		Operation:     models.OperationCreate,
		Payload:       []byte(`{"code":"C-1","name":"Acme"}`),
		Reason:        "new buyer",
		RequestedBy:   "op-1",
		RequesterRole: models.RoleOperator,
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.ApprovalStatusPending, request.Status)
	require.False(t, request.RequestedAt.IsZero())

	rows := sqlmock.NewRows([]string{"id", "entity", "operation", "entity_id", "payload", "status", "reason", "requested_by", "requester_role", "reviewed_by", "requested_at", "reviewed_at", "admin_note"}).
		AddRow(request.ID, "customer", "CREATE", nil, `{"code":"C-1","name":"Acme"}`, "PENDING", "new buyer", "op-1", "OPERATOR", nil, time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entity, operation, entity_id")).
		WithArgs(request.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, request.ID, found.ID)
	require.Equal(t, models.ApprovalStatusPending, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	rows := sqlmock.NewRows([]string{"id", "entity", "operation", "entity_id", "payload", "status", "reason", "requested_by", "requester_role", "reviewed_by", "requested_at", "reviewed_at", "admin_note"}).
		AddRow("req-1", "plot", "UPDATE", "plot-9", `{"status":"SOLD"}`, "PENDING", "mark sold", "op-1", "OPERATOR", nil, time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entity, operation, entity_id")).
		WithArgs("PENDING", "plot", "op-1").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ApprovalFilter{
		Status:      []models.ApprovalStatus{models.ApprovalStatusPending},
		Entity:      models.EntityPlot,
		RequestedBy: "op-1",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "req-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryMarkReviewed(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkReviewed(context.Background(), ReviewParams{
		ID:         "req-1",
		Status:     models.ApprovalStatusApproved,
		ReviewedBy: "admin-1",
		ReviewedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryMarkReviewedAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	note := "duplicate request"
	err := repo.MarkReviewed(context.Background(), ReviewParams{
		ID:         "req-1",
		Status:     models.ApprovalStatusRejected,
		ReviewedBy: "admin-2",
		ReviewedAt: time.Now(),
		AdminNote:  &note,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryRevertReview(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_requests")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RevertReview(context.Background(), "req-1"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_requests")).
		WithArgs("req-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RevertReview(context.Background(), "req-2")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM approval_requests")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "req-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM approval_requests")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("PENDING", 3).
		AddRow("APPROVED", 5).
		AddRow("REJECTED", 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*)")).
		WillReturnRows(rows)

	stats, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, stats.Pending)
	require.Equal(t, 5, stats.Approved)
	require.Equal(t, 2, stats.Rejected)
	require.Equal(t, 10, stats.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}
