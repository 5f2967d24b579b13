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

// InvoiceRepository provides database access for sales invoices.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs the repository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.SalesInvoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now
	const query = `INSERT INTO sales_invoices (id, invoice_no, customer_id, plot_id, amount, invoice_date, memo, created_by, created_at, updated_at)
	VALUES (:id, :invoice_no, :customer_id, :plot_id, :amount, :invoice_date, :memo, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("create sales invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) Update(ctx context.Context, invoice *models.SalesInvoice) error {
	invoice.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sales_invoices SET invoice_no = :invoice_no, customer_id = :customer_id, plot_id = :plot_id, amount = :amount, invoice_date = :invoice_date, memo = :memo, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("update sales invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*models.SalesInvoice, error) {
	const query = `SELECT id, invoice_no, customer_id, plot_id, amount, invoice_date, memo, created_by, created_at, updated_at FROM sales_invoices WHERE id = $1 LIMIT 1`
	var invoice models.SalesInvoice
	if err := r.db.GetContext(ctx, &invoice, query, id); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ExistsByInvoiceNo reports whether the invoice number is taken.
func (r *InvoiceRepository) ExistsByInvoiceNo(ctx context.Context, invoiceNo, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM sales_invoices WHERE invoice_no = $1 AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, invoiceNo, excludeID); err != nil {
		return false, fmt.Errorf("check invoice number: %w", err)
	}
	return exists, nil
}

func (r *InvoiceRepository) List(ctx context.Context, customerID string, limit, offset int) ([]models.SalesInvoice, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 1)
	builder.WriteString(`SELECT id, invoice_no, customer_id, plot_id, amount, invoice_date, memo, created_by, created_at, updated_at FROM sales_invoices`)
	if customerID != "" {
		args = append(args, customerID)
		builder.WriteString(" WHERE customer_id = $1")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" ORDER BY invoice_date DESC, id ASC LIMIT %d OFFSET %d", limit, offset))

	var invoices []models.SalesInvoice
	if err := r.db.SelectContext(ctx, &invoices, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list sales invoices: %w", err)
	}
	return invoices, nil
}
