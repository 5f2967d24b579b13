package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentKind distinguishes cash and bank vouchers.
type PaymentKind string

const (
	PaymentKindCash PaymentKind = "CASH"
	PaymentKindBank PaymentKind = "BANK"
)

// Payment is a cash or bank payment voucher.
type Payment struct {
	ID          string          `db:"id" json:"id"`
	Kind        PaymentKind     `db:"kind" json:"kind"`
	VoucherNo   string          `db:"voucher_no" json:"voucher_no"`
	PaidTo      string          `db:"paid_to" json:"paid_to"`
	AccountCode string          `db:"account_code" json:"account_code"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate time.Time       `db:"payment_date" json:"payment_date"`
	Memo        string          `db:"memo" json:"memo"`
	CreatedBy   string          `db:"created_by" json:"created_by"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
