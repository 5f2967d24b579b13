package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/terra-erp-api/internal/models"
)

func newJournalRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestJournalRepositoryCreateTransactional(t *testing.T) {
	db, mock, cleanup := newJournalRepoMock(t)
	defer cleanup()

	repo := NewJournalRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO journal_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO journal_lines")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO journal_lines")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := &models.JournalEntry{
		EntryDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Reference:   "INV-001",
		Description: "plot sale",
		CreatedBy:   "admin-1",
		Lines: []models.JournalLine{
			{AccountCode: "1100", Debit: decimal.NewFromInt(5000)},
			{AccountCode: "4000", Credit: decimal.NewFromInt(5000)},
		},
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.Equal(t, models.JournalStatusPosted, entry.Status)
	require.Equal(t, entry.ID, entry.Lines[0].EntryID)
	require.Equal(t, 1, entry.Lines[0].LineNo)
	require.Equal(t, 2, entry.Lines[1].LineNo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepositoryCreateRollsBackOnLineFailure(t *testing.T) {
	db, mock, cleanup := newJournalRepoMock(t)
	defer cleanup()

	repo := NewJournalRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO journal_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO journal_lines")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	entry := &models.JournalEntry{
		EntryDate: time.Now(),
		CreatedBy: "admin-1",
		Lines: []models.JournalLine{
			{AccountCode: "1100", Debit: decimal.NewFromInt(100)},
			{AccountCode: "4000", Credit: decimal.NewFromInt(100)},
		},
	}
	err := repo.Create(context.Background(), entry)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepositoryGetByIDLoadsLines(t *testing.T) {
	db, mock, cleanup := newJournalRepoMock(t)
	defer cleanup()

	repo := NewJournalRepository(db)
	entryRows := sqlmock.NewRows([]string{"id", "entry_date", "reference", "description", "status", "created_by", "created_at"}).
		AddRow("je-1", time.Now(), "INV-001", "plot sale", "POSTED", "admin-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entry_date, reference")).
		WithArgs("je-1").
		WillReturnRows(entryRows)

	lineRows := sqlmock.NewRows([]string{"id", "entry_id", "line_no", "account_code", "debit", "credit", "memo"}).
		AddRow("jl-1", "je-1", 1, "1100", "5000", "0", "").
		AddRow("jl-2", "je-1", 2, "4000", "0", "5000", "")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entry_id, line_no")).
		WithArgs("je-1").
		WillReturnRows(lineRows)

	entry, err := repo.GetByID(context.Background(), "je-1")
	require.NoError(t, err)
	require.Len(t, entry.Lines, 2)
	require.Equal(t, "1100", entry.Lines[0].AccountCode)
	require.True(t, entry.Lines[0].Debit.Equal(decimal.NewFromInt(5000)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newJournalRepoMock(t)
	defer cleanup()

	repo := NewJournalRepository(db)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "entry_date", "reference", "description", "status", "created_by", "created_at"}).
		AddRow("je-1", time.Now(), "INV-001", "plot sale", "POSTED", "admin-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entry_date, reference")).
		WithArgs("INV-001", from).
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.JournalFilter{
		Reference: "INV-001",
		From:      &from,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "je-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
