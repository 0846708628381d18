// Package txfeed flattens posted journal lines into a signed transaction feed
// with a running balance.
package txfeed

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/journal"
	"github.com/cleared-dev/glengine/internal/model"
)

// Lookup resolves account ids.
type Lookup interface {
	Get(id int64) (model.Account, bool)
}

// Feed is the derived transaction sequence, newest first.
type Feed struct {
	Transactions []model.DerivedTransaction `json:"transactions"`
	Anomalies    []model.Anomaly            `json:"anomalies,omitempty"`
}

// Last returns the final transaction of the feed.
func (f Feed) Last() (model.DerivedTransaction, bool) {
	if len(f.Transactions) == 0 {
		return model.DerivedTransaction{}, false
	}
	return f.Transactions[len(f.Transactions)-1], true
}

// Derive walks posted entries newest first and lines by line number, emitting
// one transaction per non-zero line. The running balance is a single
// accumulator over the whole walk: credits add, debits subtract. The input is
// not modified.
func Derive(catalog Lookup, entries []model.PostedEntry) Feed {
	ordered := make([]model.PostedEntry, 0, len(entries))
	for _, pe := range entries {
		if pe.Entry.Status != model.StatusPosted {
			continue
		}
		lines := make([]model.JournalEntryLine, len(pe.Lines))
		copy(lines, pe.Lines)
		ordered = append(ordered, model.PostedEntry{Entry: pe.Entry, Lines: lines})
	}
	journal.SortNewestFirst(ordered)

	var feed Feed
	running := decimal.Zero
	for _, pe := range ordered {
		for _, l := range pe.Lines {
			amount := l.Amount()
			if amount.IsZero() {
				continue
			}

			dir := model.DirectionDebit
			if l.CreditAmount.IsPositive() {
				dir = model.DirectionCredit
				running = running.Add(amount)
			} else {
				running = running.Sub(amount)
			}

			category := model.CategoryOther
			if acct, ok := catalog.Get(l.AccountID); ok {
				category = model.CategoryFor(acct)
			} else {
				feed.Anomalies = append(feed.Anomalies, model.Anomaly{
					Kind:        model.AnomalyMissingAccount,
					EntryID:     pe.Entry.ID,
					EntryNumber: pe.Entry.EntryNumber,
					LineID:      l.ID,
					AccountID:   l.AccountID,
					Detail:      fmt.Sprintf("transaction from line %d uses unknown account %d", l.LineNumber, l.AccountID),
				})
			}

			desc := l.Description
			if desc == "" {
				desc = pe.Entry.Description
			}
			feed.Transactions = append(feed.Transactions, model.DerivedTransaction{
				SourceLineID:   l.ID,
				EntryID:        pe.Entry.ID,
				EntryNumber:    pe.Entry.EntryNumber,
				AccountID:      l.AccountID,
				Date:           pe.Entry.EntryDate,
				Description:    desc,
				Category:       category,
				Direction:      dir,
				Amount:         amount,
				RunningBalance: running,
				Reference:      pe.Entry.Reference,
			})
		}
	}
	return feed
}
