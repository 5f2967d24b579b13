package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalLineInput is one debit/credit leg in a journal submission.
type JournalLineInput struct {
	AccountCode string          `json:"accountCode" validate:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo"`
}

// CreateJournalEntryRequest posts a new journal entry.
type CreateJournalEntryRequest struct {
	EntryDate   time.Time          `json:"entryDate" validate:"required"`
	Reference   string             `json:"reference"`
	Description string             `json:"description"`
	Lines       []JournalLineInput `json:"lines" validate:"required"`
}

// CheckBalanceRequest previews the balance of a set of lines without posting.
type CheckBalanceRequest struct {
	Lines []JournalLineInput `json:"lines" validate:"required"`
}
