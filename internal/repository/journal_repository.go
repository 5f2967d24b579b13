package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/terra-erp-api/internal/models"
)

// JournalRepository persists journal entries and their lines.
type JournalRepository struct {
	db *sqlx.DB
}

// NewJournalRepository constructs the repository.
func NewJournalRepository(db *sqlx.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Create inserts the entry header and all lines in a single transaction so a
// partially persisted entry can never exist.
func (r *JournalRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = models.JournalStatusPosted
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const headerQuery = `INSERT INTO journal_entries
	(id, entry_date, reference, description, status, created_by, created_at)
	VALUES (:id, :entry_date, :reference, :description, :status, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, headerQuery, entry); err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	const lineQuery = `INSERT INTO journal_lines
	(id, entry_id, line_no, account_code, debit, credit, memo)
	VALUES (:id, :entry_id, :line_no, :account_code, :debit, :credit, :memo)`
	for i := range entry.Lines {
		line := &entry.Lines[i]
		if line.ID == "" {
			line.ID = uuid.NewString()
		}
		line.EntryID = entry.ID
		line.LineNo = i + 1
		if _, err := tx.NamedExecContext(ctx, lineQuery, line); err != nil {
			return fmt.Errorf("insert journal line %d: %w", line.LineNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal tx: %w", err)
	}
	return nil
}

// GetByID fetches an entry with its lines.
func (r *JournalRepository) GetByID(ctx context.Context, id string) (*models.JournalEntry, error) {
	const entryQuery = `SELECT id, entry_date, reference, description, status, created_by, created_at
	FROM journal_entries WHERE id = $1`
	var entry models.JournalEntry
	if err := r.db.GetContext(ctx, &entry, entryQuery, id); err != nil {
		return nil, err
	}

	const linesQuery = `SELECT id, entry_id, line_no, account_code, debit, credit, memo
	FROM journal_lines WHERE entry_id = $1 ORDER BY line_no ASC`
	if err := r.db.SelectContext(ctx, &entry.Lines, linesQuery, id); err != nil {
		return nil, fmt.Errorf("load journal lines: %w", err)
	}
	return &entry, nil
}

// List returns entry headers matching the filter, newest first.
func (r *JournalRepository) List(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(`SELECT id, entry_date, reference, description, status, created_by, created_at
	FROM journal_entries`)

	conditions := make([]string, 0, 3)
	if filter.Reference != "" {
		args = append(args, filter.Reference)
		conditions = append(conditions, fmt.Sprintf("reference = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("entry_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("entry_date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY entry_date DESC, id ASC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var entries []models.JournalEntry
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return entries, nil
}
