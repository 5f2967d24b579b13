package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/terra-erp-api/internal/dto"
	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type journalRepoStub struct {
	entries map[string]*models.JournalEntry
	seq     int
}

func newJournalRepoStub() *journalRepoStub {
	return &journalRepoStub{entries: make(map[string]*models.JournalEntry)}
}

func (s *journalRepoStub) Create(ctx context.Context, entry *models.JournalEntry) error {
	s.seq++
	entry.ID = "je-" + string(rune('0'+s.seq))
	s.entries[entry.ID] = entry
	return nil
}

func (s *journalRepoStub) GetByID(ctx context.Context, id string) (*models.JournalEntry, error) {
	if entry, ok := s.entries[id]; ok {
		copy := *entry
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *journalRepoStub) List(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, error) {
	result := make([]models.JournalEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		result = append(result, *entry)
	}
	return result, nil
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestJournalService(t *testing.T) (*JournalService, *journalRepoStub) {
	t.Helper()
	repo := newJournalRepoStub()
	svc, err := NewJournalService(repo, &auditStub{}, "", nil, nil)
	require.NoError(t, err)
	return svc, repo
}

func TestJournalServiceCheckBalance(t *testing.T) {
	svc, _ := newTestJournalService(t)

	cases := []struct {
		name     string
		lines    []dto.JournalLineInput
		balanced bool
		diff     string
	}{
		{
			name: "exact",
			lines: []dto.JournalLineInput{
				{AccountCode: "1100", Debit: dec("250.00")},
				{AccountCode: "4000", Credit: dec("250.00")},
			},
			balanced: true,
			diff:     "0",
		},
		{
			name: "within tolerance",
			lines: []dto.JournalLineInput{
				{AccountCode: "1100", Debit: dec("100.00")},
				{AccountCode: "4000", Credit: dec("99.99")},
			},
			balanced: true,
			diff:     "0.01",
		},
		{
			name: "just over tolerance",
			lines: []dto.JournalLineInput{
				{AccountCode: "1100", Debit: dec("100.00")},
				{AccountCode: "4000", Credit: dec("99.989")},
			},
			balanced: false,
			diff:     "0.011",
		},
		{
			name: "rounding split",
			lines: []dto.JournalLineInput{
				{AccountCode: "1100", Debit: dec("33.33")},
				{AccountCode: "1100", Debit: dec("33.33")},
				{AccountCode: "1100", Debit: dec("33.34")},
				{AccountCode: "4000", Credit: dec("100.00")},
			},
			balanced: true,
			diff:     "0",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := svc.CheckBalance(tc.lines)
			require.Equal(t, tc.balanced, result.Balanced)
			require.True(t, result.Difference.Equal(dec(tc.diff)),
				"difference %s, want %s", result.Difference, tc.diff)
		})
	}
}

func TestJournalServiceCreate(t *testing.T) {
	svc, repo := newTestJournalService(t)

	entry, err := svc.Create(context.Background(), dto.CreateJournalEntryRequest{
		EntryDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "plot sale",
		Lines: []dto.JournalLineInput{
			{AccountCode: "1100", Debit: dec("5000.00")},
			{AccountCode: "4000", Credit: dec("5000.00")},
		},
	}, adminClaims("admin-1"))
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	require.Len(t, entry.Lines, 2)
	require.Equal(t, "admin-1", entry.CreatedBy)
	require.Len(t, repo.entries, 1)
}

func TestJournalServiceCreateRejectsSingleLine(t *testing.T) {
	svc, repo := newTestJournalService(t)

	_, err := svc.Create(context.Background(), dto.CreateJournalEntryRequest{
		EntryDate: time.Now(),
		Lines: []dto.JournalLineInput{
			{AccountCode: "1100", Debit: dec("100.00")},
		},
	}, adminClaims("admin-1"))
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	require.Empty(t, repo.entries)
}

func TestJournalServiceCreateRejectsUnbalanced(t *testing.T) {
	svc, repo := newTestJournalService(t)

	_, err := svc.Create(context.Background(), dto.CreateJournalEntryRequest{
		EntryDate: time.Now(),
		Lines: []dto.JournalLineInput{
			{AccountCode: "1100", Debit: dec("100.00")},
			{AccountCode: "4000", Credit: dec("90.00")},
		},
	}, adminClaims("admin-1"))
	require.True(t, errors.Is(err, appErrors.ErrUnbalanced))
	require.Empty(t, repo.entries)
}

func TestJournalServiceCreateLineValidation(t *testing.T) {
	svc, _ := newTestJournalService(t)
	actor := adminClaims("admin-1")

	cases := []struct {
		name  string
		lines []dto.JournalLineInput
	}{
		{
			name: "missing account code",
			lines: []dto.JournalLineInput{
				{AccountCode: "", Debit: dec("10")},
				{AccountCode: "4000", Credit: dec("10")},
			},
		},
		{
			name: "negative amount",
			lines: []dto.JournalLineInput{
				{AccountCode: "1100", Debit: dec("-10")},
				{AccountCode: "4000", Credit: dec("-10")},
			},
		},
		{
			name: "both sides set",
			lines: []dto.JournalLineInput{
				{AccountCode: "1100", Debit: dec("10"), Credit: dec("10")},
				{AccountCode: "4000", Credit: dec("0")},
			},
		},
		{
			name: "empty line",
			lines: []dto.JournalLineInput{
				{AccountCode: "1100"},
				{AccountCode: "4000", Credit: dec("0")},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), dto.CreateJournalEntryRequest{
				EntryDate: time.Now(),
				Lines:     tc.lines,
			}, actor)
			require.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestJournalServiceCustomTolerance(t *testing.T) {
	repo := newJournalRepoStub()
	svc, err := NewJournalService(repo, &auditStub{}, "0.05", nil, nil)
	require.NoError(t, err)

	result := svc.CheckBalance([]dto.JournalLineInput{
		{AccountCode: "1100", Debit: dec("100.00")},
		{AccountCode: "4000", Credit: dec("99.96")},
	})
	require.True(t, result.Balanced)

	_, err = NewJournalService(repo, &auditStub{}, "not-a-number", nil, nil)
	require.Error(t, err)

	_, err = NewJournalService(repo, &auditStub{}, "-0.01", nil, nil)
	require.Error(t, err)
}
