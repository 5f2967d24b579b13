package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/terra-erp-api/internal/models"
)

// ApprovalRepository persists approval workflow data.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs the repository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create inserts a new approval request row.
func (r *ApprovalRepository) Create(ctx context.Context, request *models.ApprovalRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.ApprovalStatusPending
	}
	if request.RequestedAt.IsZero() {
		request.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO approval_requests
	(id, entity, operation, entity_id, payload, status, reason, requested_by, requester_role, reviewed_by, requested_at, reviewed_at, admin_note)
	VALUES (:id, :entity, :operation, :entity_id, :payload, :status, :reason, :requested_by, :requester_role, :reviewed_by, :requested_at, :reviewed_at, :admin_note)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create approval request: %w", err)
	}
	return nil
}

// GetByID fetches an approval request by identifier.
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	const query = `SELECT id, entity, operation, entity_id, payload, status, reason,
       requested_by, requester_role, reviewed_by, requested_at, reviewed_at, admin_note
	FROM approval_requests WHERE id = $1`
	var request models.ApprovalRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns approval requests matching the filter, newest first with id as
// the deterministic tie-break.
func (r *ApprovalRepository) List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT id, entity, operation, entity_id, payload, status, reason,
       requested_by, requester_role, reviewed_by, requested_at, reviewed_at, admin_note FROM approval_requests`)

	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Entity != "" {
		args = append(args, filter.Entity)
		conditions = append(conditions, fmt.Sprintf("entity = $%d", len(args)))
	}
	if filter.Operation != "" {
		args = append(args, filter.Operation)
		conditions = append(conditions, fmt.Sprintf("operation = $%d", len(args)))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("requested_by = $%d", len(args)))
	}
	if filter.ReviewerID != "" {
		args = append(args, filter.ReviewerID)
		conditions = append(conditions, fmt.Sprintf("reviewed_by = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY requested_at DESC, id ASC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.ApprovalRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list approval requests: %w", err)
	}
	return requests, nil
}

// ReviewParams groups the columns stamped when a request leaves PENDING.
type ReviewParams struct {
	ID         string
	Status     models.ApprovalStatus
	ReviewedBy string
	ReviewedAt time.Time
	AdminNote  *string
}

// MarkReviewed transitions PENDING to the given terminal status. The status
// guard in the WHERE clause serializes concurrent reviewers; the loser sees
// sql.ErrNoRows.
func (r *ApprovalRepository) MarkReviewed(ctx context.Context, params ReviewParams) error {
	query := fmt.Sprintf(`UPDATE approval_requests
	SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at, admin_note = :admin_note
	WHERE id = :id AND status = '%s'`, models.ApprovalStatusPending)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"reviewed_by": params.ReviewedBy,
		"reviewed_at": params.ReviewedAt,
		"admin_note":  params.AdminNote,
	})
	if err != nil {
		return fmt.Errorf("mark approval reviewed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RevertReview returns an APPROVED request to PENDING, clearing reviewer
// columns. Used as compensation when the applier fails after the claim.
func (r *ApprovalRepository) RevertReview(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE approval_requests
	SET status = '%s', reviewed_by = NULL, reviewed_at = NULL, admin_note = NULL
	WHERE id = $1 AND status = '%s'`, models.ApprovalStatusPending, models.ApprovalStatusApproved)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revert approval review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval revert rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a request row.
func (r *ApprovalRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM approval_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete approval request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus aggregates request counts for the stats endpoint.
func (r *ApprovalRepository) CountByStatus(ctx context.Context) (models.ApprovalStats, error) {
	const query = `SELECT status, COUNT(*) AS count FROM approval_requests GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return models.ApprovalStats{}, fmt.Errorf("count approvals: %w", err)
	}
	defer rows.Close()

	var stats models.ApprovalStats
	for rows.Next() {
		var status models.ApprovalStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return models.ApprovalStats{}, fmt.Errorf("scan approval count: %w", err)
		}
		switch status {
		case models.ApprovalStatusPending:
			stats.Pending = count
		case models.ApprovalStatusApproved:
			stats.Approved = count
		case models.ApprovalStatusRejected:
			stats.Rejected = count
		}
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return models.ApprovalStats{}, fmt.Errorf("iterate approval counts: %w", err)
	}
	return stats, nil
}
