package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesInvoice bills a customer for a plot sale.
type SalesInvoice struct {
	ID          string          `db:"id" json:"id"`
	InvoiceNo   string          `db:"invoice_no" json:"invoice_no"`
	CustomerID  string          `db:"customer_id" json:"customer_id"`
	PlotID      *string         `db:"plot_id" json:"plot_id,omitempty"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	InvoiceDate time.Time       `db:"invoice_date" json:"invoice_date"`
	Memo        string          `db:"memo" json:"memo"`
	CreatedBy   string          `db:"created_by" json:"created_by"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
