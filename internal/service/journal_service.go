package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/terra-erp-api/internal/dto"
	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type journalStore interface {
	Create(ctx context.Context, entry *models.JournalEntry) error
	GetByID(ctx context.Context, id string) (*models.JournalEntry, error)
	List(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, error)
}

// JournalService validates and persists double-entry journal entries. Every
// entry must carry at least two lines and balance to within the configured
// tolerance before it is stored.
type JournalService struct {
	repo      journalStore
	audit     auditLogger
	tolerance decimal.Decimal
	metrics   *MetricsService
	logger    *zap.Logger
}

// DefaultBalanceTolerance is the absolute debit/credit difference still
// considered balanced, absorbing rounding on tax and discount splits.
var DefaultBalanceTolerance = decimal.NewFromFloat(0.01)

// NewJournalService constructs the service. An empty tolerance string falls
// back to the default of 0.01.
func NewJournalService(repo journalStore, audit auditLogger, tolerance string, metrics *MetricsService, logger *zap.Logger) (*JournalService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tol := DefaultBalanceTolerance
	if strings.TrimSpace(tolerance) != "" {
		parsed, err := decimal.NewFromString(tolerance)
		if err != nil {
			return nil, fmt.Errorf("parse balance tolerance %q: %w", tolerance, err)
		}
		if parsed.IsNegative() {
			return nil, fmt.Errorf("balance tolerance must not be negative: %s", tolerance)
		}
		tol = parsed
	}
	return &JournalService{
		repo:      repo,
		audit:     audit,
		tolerance: tol,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// CheckBalance sums the debit and credit columns and reports whether their
// absolute difference stays within the tolerance. It performs no IO.
func (s *JournalService) CheckBalance(lines []dto.JournalLineInput) models.BalanceResult {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range lines {
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	difference := totalDebit.Sub(totalCredit).Abs()
	result := models.BalanceResult{
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Difference:  difference,
		Balanced:    difference.LessThanOrEqual(s.tolerance),
	}
	s.metrics.RecordBalanceCheck(result.Balanced)
	return result
}

// Create validates and stores a journal entry together with its lines.
func (s *JournalService) Create(ctx context.Context, req dto.CreateJournalEntryRequest, actor *models.JWTClaims) (*models.JournalEntry, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}
	result := s.CheckBalance(req.Lines)
	if !result.Balanced {
		return nil, appErrors.Clone(appErrors.ErrUnbalanced,
			fmt.Sprintf("entry is out of balance by %s (debit %s, credit %s)",
				result.Difference.StringFixed(2), result.TotalDebit.StringFixed(2), result.TotalCredit.StringFixed(2)))
	}

	entry := &models.JournalEntry{
		EntryDate:   req.EntryDate,
		Description: strings.TrimSpace(req.Description),
		Reference:   strings.TrimSpace(req.Reference),
		CreatedBy:   actor.UserID,
		Lines:       make([]models.JournalLine, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		entry.Lines = append(entry.Lines, models.JournalLine{
			AccountCode: strings.TrimSpace(line.AccountCode),
			Debit:       line.Debit,
			Credit:      line.Credit,
			Memo:        strings.TrimSpace(line.Memo),
		})
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store journal entry")
	}

	s.emitAudit(ctx, actor, entry)
	return entry, nil
}

// Get loads a single journal entry with its lines.
func (s *JournalService) Get(ctx context.Context, id string) (*models.JournalEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load journal entry")
	}
	return entry, nil
}

// List returns journal entry headers matching the filter.
func (s *JournalService) List(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list journal entries")
	}
	return entries, nil
}

func (s *JournalService) emitAudit(ctx context.Context, actor *models.JWTClaims, entry *models.JournalEntry) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionJournalPost,
		Resource:   "journal_entry",
		ResourceID: &entry.ID,
		IPAddress:  "system",
		UserAgent:  "journal-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func validateLines(lines []dto.JournalLineInput) error {
	if len(lines) < 2 {
		return appErrors.Clone(appErrors.ErrValidation, "a journal entry requires at least two lines")
	}
	for i, line := range lines {
		if strings.TrimSpace(line.AccountCode) == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("line %d: accountCode is required", i+1))
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("line %d: amounts must not be negative", i+1))
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("line %d: a line may carry a debit or a credit, not both", i+1))
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("line %d: a line must carry a debit or a credit amount", i+1))
		}
	}
	return nil
}
