// Command journal_audit scans posted journal entries and reports any whose
// debit and credit totals drift beyond the allowed tolerance. Intended as a
// periodic integrity check against direct database edits; exits non-zero when
// drift is found.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type entryTotals struct {
	ID        string          `db:"id"`
	Reference string          `db:"reference"`
	EntryDate time.Time       `db:"entry_date"`
	Debit     decimal.Decimal `db:"total_debit"`
	Credit    decimal.Decimal `db:"total_credit"`
	LineCount int             `db:"line_count"`
}

func main() {
	var (
		dsn       string
		tolerance string
		timeout   time.Duration
	)

	flag.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN (defaults to DATABASE_URL)")
	flag.StringVar(&tolerance, "tolerance", "0.01", "Maximum allowed |debit - credit| per entry")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Query timeout")
	flag.Parse()

	if dsn == "" {
		log.Fatal("no DSN: pass -dsn or set DATABASE_URL")
	}
	maxDrift, err := decimal.NewFromString(tolerance)
	if err != nil || maxDrift.IsNegative() {
		log.Fatalf("invalid tolerance %q", tolerance)
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	const query = `SELECT e.id, e.reference, e.entry_date,
       COALESCE(SUM(l.debit), 0) AS total_debit,
       COALESCE(SUM(l.credit), 0) AS total_credit,
       COUNT(l.id) AS line_count
	FROM journal_entries e
	LEFT JOIN journal_lines l ON l.entry_id = e.id
	GROUP BY e.id, e.reference, e.entry_date
	ORDER BY e.entry_date ASC`

	var entries []entryTotals
	if err := db.SelectContext(ctx, &entries, query); err != nil {
		log.Fatalf("query entries: %v", err)
	}

	var unbalanced, degenerate int
	for _, entry := range entries {
		drift := entry.Debit.Sub(entry.Credit).Abs()
		switch {
		case entry.LineCount < 2:
			degenerate++
			fmt.Printf("DEGENERATE %s ref=%q date=%s lines=%d\n",
				entry.ID, entry.Reference, entry.EntryDate.Format("2006-01-02"), entry.LineCount)
		case drift.GreaterThan(maxDrift):
			unbalanced++
			fmt.Printf("UNBALANCED %s ref=%q date=%s debit=%s credit=%s drift=%s\n",
				entry.ID, entry.Reference, entry.EntryDate.Format("2006-01-02"),
				entry.Debit.StringFixed(2), entry.Credit.StringFixed(2), drift.StringFixed(2))
		}
	}

	fmt.Printf("checked %d entries: %d unbalanced, %d degenerate\n", len(entries), unbalanced, degenerate)
	if unbalanced > 0 || degenerate > 0 {
		os.Exit(1)
	}
}
