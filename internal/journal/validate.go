package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/model"
)

// Invariant numbers reported by Validate.
const (
	InvariantBalanced     = 1
	InvariantOneSide      = 2
	InvariantKnownAccount = 3
	InvariantNonNegative  = 4
	InvariantUniqueLine   = 5
	InvariantTwoDecimals  = 6
	InvariantHasLines     = 7
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	EntryID     int64
	EntryNumber string
	LineID      int64
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.EntryNumber, e.Description)
}

// AccountChecker tests whether an account ID exists in the chart of accounts.
type AccountChecker interface {
	Exists(id int64) bool
}

// Validate checks entries against the double-entry invariants. Nothing here
// blocks reporting: callers decide whether a violation is an anomaly or an
// error.
func Validate(entries []model.PostedEntry, accounts AccountChecker) []ValidationError {
	var errs []ValidationError
	hundred := decimal.NewFromInt(100)

	for _, pe := range entries {
		e := pe.Entry
		fail := func(inv int, lineID int64, format string, args ...any) {
			errs = append(errs, ValidationError{
				Invariant:   inv,
				EntryID:     e.ID,
				EntryNumber: e.EntryNumber,
				LineID:      lineID,
				Description: fmt.Sprintf(format, args...),
			})
		}

		if len(pe.Lines) == 0 {
			fail(InvariantHasLines, 0, "entry has no lines")
			continue
		}

		// Invariant 1: sum(debits) == sum(credits) per entry.
		totalDebit := decimal.Zero
		totalCredit := decimal.Zero
		for _, l := range pe.Lines {
			totalDebit = totalDebit.Add(l.DebitAmount)
			totalCredit = totalCredit.Add(l.CreditAmount)
		}
		if !totalDebit.Equal(totalCredit) {
			fail(InvariantBalanced, 0, "debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2))
		}

		seen := make(map[int]bool, len(pe.Lines))
		for _, l := range pe.Lines {
			hasDebit := !l.DebitAmount.IsZero()
			hasCredit := !l.CreditAmount.IsZero()
			if hasDebit == hasCredit {
				fail(InvariantOneSide, l.ID, "line %d must have exactly one of debit or credit", l.LineNumber)
			}

			if !accounts.Exists(l.AccountID) {
				fail(InvariantKnownAccount, l.ID, "line %d references unknown account %d", l.LineNumber, l.AccountID)
			}

			if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
				fail(InvariantNonNegative, l.ID, "line %d has a negative amount", l.LineNumber)
			}

			if seen[l.LineNumber] {
				fail(InvariantUniqueLine, l.ID, "duplicate line number %d", l.LineNumber)
			}
			seen[l.LineNumber] = true

			for _, amt := range []decimal.Decimal{l.DebitAmount, l.CreditAmount} {
				if !amt.IsZero() && !amt.Mul(hundred).Equal(amt.Mul(hundred).Floor()) {
					fail(InvariantTwoDecimals, l.ID, "line %d amount %s has more than 2 decimal places", l.LineNumber, amt)
				}
			}
		}
	}
	return errs
}
