// Package balance computes signed per-account balances from posted lines.
package balance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/journal"
	"github.com/cleared-dev/glengine/internal/model"
)

// Catalog is the account lookup the calculator needs.
type Catalog interface {
	All() []model.Account
	Get(id int64) (model.Account, bool)
}

// Result holds one balance per catalog account plus anything skipped.
type Result struct {
	Balances  map[int64]decimal.Decimal
	Anomalies []model.Anomaly
}

// Get returns the balance of an account; unknown ids are zero.
func (r *Result) Get(accountID int64) decimal.Decimal {
	return r.Balances[accountID]
}

// List returns balances in catalog order.
func (r *Result) List(catalog Catalog) []model.AccountBalance {
	accts := catalog.All()
	out := make([]model.AccountBalance, 0, len(accts))
	for _, a := range accts {
		out = append(out, model.AccountBalance{AccountID: a.ID, Balance: r.Get(a.ID)})
	}
	return out
}

// Signed applies the sign convention: debit-normal types (asset, expense)
// are debits minus credits, everything else credits minus debits.
func Signed(t model.AccountType, debits, credits decimal.Decimal) decimal.Decimal {
	if t.DebitNormal() {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

// FromLines sums the lines of posted entries per account. Entries in any
// other status are ignored.
func FromLines(catalog Catalog, entries []model.PostedEntry) *Result {
	totals := make(map[int64]journal.AccountTotals)
	var anomalies []model.Anomaly
	for _, pe := range entries {
		if pe.Entry.Status != model.StatusPosted {
			continue
		}
		for _, l := range pe.Lines {
			if _, ok := catalog.Get(l.AccountID); !ok {
				anomalies = append(anomalies, model.Anomaly{
					Kind:        model.AnomalyMissingAccount,
					EntryID:     pe.Entry.ID,
					EntryNumber: pe.Entry.EntryNumber,
					LineID:      l.ID,
					AccountID:   l.AccountID,
					Detail:      fmt.Sprintf("line %d references unknown account %d", l.LineNumber, l.AccountID),
				})
				continue
			}
			t := totals[l.AccountID]
			t.Debits = t.Debits.Add(l.DebitAmount)
			t.Credits = t.Credits.Add(l.CreditAmount)
			totals[l.AccountID] = t
		}
	}
	r := FromTotals(catalog, totals)
	r.Anomalies = append(anomalies, r.Anomalies...)
	return r
}

// FromTotals applies the sign convention to pre-grouped totals, such as the
// output of journal.LoadAccountTotals. Totals for accounts missing from the
// catalog are reported as anomalies, in account id order.
func FromTotals(catalog Catalog, totals map[int64]journal.AccountTotals) *Result {
	accts := catalog.All()
	r := &Result{Balances: make(map[int64]decimal.Decimal, len(accts))}
	for _, a := range accts {
		t := totals[a.ID]
		r.Balances[a.ID] = Signed(a.Type, t.Debits, t.Credits)
	}

	var unknown []int64
	for acctID := range totals {
		if _, ok := catalog.Get(acctID); !ok {
			unknown = append(unknown, acctID)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	for _, acctID := range unknown {
		t := totals[acctID]
		r.Anomalies = append(r.Anomalies, model.Anomaly{
			Kind:      model.AnomalyMissingAccount,
			AccountID: acctID,
			Detail:    fmt.Sprintf("postings to unknown account %d (debits %s, credits %s)", acctID, t.Debits.StringFixed(2), t.Credits.StringFixed(2)),
		})
	}
	return r
}

// SumByType totals the balances of every catalog account of the given type.
func (r *Result) SumByType(catalog Catalog, t model.AccountType) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range catalog.All() {
		if a.Type == t {
			sum = sum.Add(r.Get(a.ID))
		}
	}
	return sum
}
