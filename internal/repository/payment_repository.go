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

// PaymentRepository provides database access for cash and bank payment
// vouchers. Both kinds share one table, distinguished by the kind column.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	const query = `INSERT INTO payments (id, kind, voucher_no, paid_to, account_code, amount, payment_date, memo, created_by, created_at, updated_at)
	VALUES (:id, :kind, :voucher_no, :paid_to, :account_code, :amount, :payment_date, :memo, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	payment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE payments SET voucher_no = :voucher_no, paid_to = :paid_to, account_code = :account_code, amount = :amount, payment_date = :payment_date, memo = :memo, updated_at = :updated_at WHERE id = :id AND kind = :kind`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, kind, voucher_no, paid_to, account_code, amount, payment_date, memo, created_by, created_at, updated_at FROM payments WHERE id = $1 LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ExistsByVoucherNo reports whether the voucher number is taken for a kind.
func (r *PaymentRepository) ExistsByVoucherNo(ctx context.Context, kind models.PaymentKind, voucherNo, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM payments WHERE kind = $1 AND voucher_no = $2 AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, kind, voucherNo, excludeID); err != nil {
		return false, fmt.Errorf("check payment voucher: %w", err)
	}
	return exists, nil
}

func (r *PaymentRepository) List(ctx context.Context, kind models.PaymentKind, limit, offset int) ([]models.Payment, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 1)
	builder.WriteString(`SELECT id, kind, voucher_no, paid_to, account_code, amount, payment_date, memo, created_by, created_at, updated_at FROM payments`)
	if kind != "" {
		args = append(args, kind)
		builder.WriteString(" WHERE kind = $1")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" ORDER BY payment_date DESC, id ASC LIMIT %d OFFSET %d", limit, offset))

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
