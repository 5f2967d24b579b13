package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	JournalStatusPosted JournalStatus = "POSTED"
)

// JournalEntry represents a single balanced financial event.
type JournalEntry struct {
	ID          string        `db:"id" json:"id"`
	EntryDate   time.Time     `db:"entry_date" json:"entryDate"`
	Reference   string        `db:"reference" json:"reference"`
	Description string        `db:"description" json:"description"`
	Status      JournalStatus `db:"status" json:"status"`
	CreatedBy   string        `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	Lines       []JournalLine `db:"-" json:"lines"`
}

// JournalLine is one debit/credit leg of a journal entry. Amounts are
// decimals; exactly one side is expected to be positive per line.
type JournalLine struct {
	ID          string          `db:"id" json:"id"`
	EntryID     string          `db:"entry_id" json:"entryId"`
	LineNo      int             `db:"line_no" json:"lineNo"`
	AccountCode string          `db:"account_code" json:"accountCode"`
	Debit       decimal.Decimal `db:"debit" json:"debit"`
	Credit      decimal.Decimal `db:"credit" json:"credit"`
	Memo        string          `db:"memo" json:"memo"`
}

// BalanceResult is the outcome of the double-entry balance check.
type BalanceResult struct {
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Difference  decimal.Decimal `json:"difference"`
	Balanced    bool            `json:"isBalanced"`
}

// JournalFilter constrains journal listing queries.
type JournalFilter struct {
	Reference string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
