// Package journal is the read-only projection of journal entries and their
// lines, loaded through a row source.
package journal

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/id"
	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/rowsource"
)

// lineBatchSize caps the number of entry ids in one IN list.
const lineBatchSize = 500

// AccountTotals are the summed debits and credits posted to one account.
type AccountTotals struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

// LoadPosted returns the scope's posted entries newest-first, each with its
// lines in line-number order.
func LoadPosted(ctx context.Context, r rowsource.Reader, scope rowsource.Scope) ([]model.PostedEntry, error) {
	return Load(ctx, r, scope, model.StatusPosted)
}

// Load returns entries in the given statuses (all statuses when none are
// given) newest-first, each with its lines.
func Load(ctx context.Context, r rowsource.Reader, scope rowsource.Scope, statuses ...model.EntryStatus) ([]model.PostedEntry, error) {
	cond, scoped, err := scope.TenantCond(rowsource.TableEntries)
	if err != nil {
		return nil, err
	}
	q := rowsource.Query{OrderBy: "entry_date desc, id desc"}
	if scoped {
		q.Where = append(q.Where, cond)
	}
	switch len(statuses) {
	case 0:
	case 1:
		q.Where = append(q.Where, rowsource.Eq("status", string(statuses[0])))
	default:
		vals := make([]any, len(statuses))
		for i, s := range statuses {
			vals[i] = string(s)
		}
		q.Where = append(q.Where, rowsource.In("status", vals...))
	}

	rows, err := r.Select(ctx, rowsource.TableEntries, q)
	if err != nil {
		return nil, fmt.Errorf("selecting journal entries: %w", err)
	}
	entries := make([]model.PostedEntry, 0, len(rows))
	index := make(map[int64]int, len(rows))
	for i, row := range rows {
		e, err := EntryFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("journal entry row %d: %w", i+1, err)
		}
		index[e.ID] = len(entries)
		entries = append(entries, model.PostedEntry{Entry: e})
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]any, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Entry.ID)
	}
	for start := 0; start < len(ids); start += lineBatchSize {
		end := min(start+lineBatchSize, len(ids))
		lineRows, err := r.Select(ctx, rowsource.TableLines, rowsource.Query{
			Where:   []rowsource.Cond{rowsource.In("entry_id", ids[start:end]...)},
			OrderBy: "entry_id, line_number",
		})
		if err != nil {
			return nil, fmt.Errorf("selecting journal lines: %w", err)
		}
		for i, row := range lineRows {
			l, err := LineFromRow(row)
			if err != nil {
				return nil, fmt.Errorf("journal line row %d: %w", i+1, err)
			}
			if pos, ok := index[l.EntryID]; ok {
				entries[pos].Lines = append(entries[pos].Lines, l)
			}
		}
	}

	SortNewestFirst(entries)
	return entries, nil
}

// SortNewestFirst orders entries by entry date descending, breaking ties by
// entry number then id (both descending), and each entry's lines by line
// number ascending.
func SortNewestFirst(entries []model.PostedEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Entry, entries[j].Entry
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.After(b.EntryDate)
		}
		if c := id.CompareEntryNumbers(a.EntryNumber, b.EntryNumber); c != 0 {
			return c > 0
		}
		return a.ID > b.ID
	})
	for _, e := range entries {
		sort.SliceStable(e.Lines, func(i, j int) bool {
			if e.Lines[i].LineNumber != e.Lines[j].LineNumber {
				return e.Lines[i].LineNumber < e.Lines[j].LineNumber
			}
			return e.Lines[i].ID < e.Lines[j].ID
		})
	}
}

// totalsQuery sums posted debits and credits per account in one pass.
const totalsQuery = `SELECT l.account_id AS account_id,
	SUM(l.debit_amount) AS total_debits,
	SUM(l.credit_amount) AS total_credits
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status = ?%s
GROUP BY l.account_id
ORDER BY l.account_id`

// LoadAccountTotals runs the grouped aggregation over posted lines. Sources
// without SQL support yield an error wrapping rowsource.ErrRawQueryUnsupported.
func LoadAccountTotals(ctx context.Context, r rowsource.Reader, scope rowsource.Scope) (map[int64]AccountTotals, error) {
	cond, scoped, err := scope.TenantCond(rowsource.TableEntries)
	if err != nil {
		return nil, err
	}
	params := []any{string(model.StatusPosted)}
	tenantClause := ""
	if scoped {
		tenantClause = "\n\tAND e." + cond.Column + " = ?"
		params = append(params, cond.Value)
	}

	rows, err := r.RawQuery(ctx, fmt.Sprintf(totalsQuery, tenantClause), params...)
	if err != nil {
		return nil, fmt.Errorf("aggregating account totals: %w", err)
	}
	totals := make(map[int64]AccountTotals, len(rows))
	for _, row := range rows {
		acctID, err := row.Int64("account_id")
		if err != nil {
			return nil, err
		}
		debits, err := row.Decimal("total_debits")
		if err != nil {
			return nil, err
		}
		credits, err := row.Decimal("total_credits")
		if err != nil {
			return nil, err
		}
		totals[acctID] = AccountTotals{Debits: debits, Credits: credits}
	}
	return totals, nil
}

// EntryFromRow maps a journal_entries row.
func EntryFromRow(row rowsource.Row) (model.JournalEntry, error) {
	entryID, err := row.Int64("id")
	if err != nil {
		return model.JournalEntry{}, err
	}
	date, err := row.Time("entry_date")
	if err != nil {
		return model.JournalEntry{}, err
	}
	return model.JournalEntry{
		ID:          entryID,
		EntryNumber: row.String("entry_number"),
		EntryDate:   date,
		Reference:   row.String("reference"),
		Status:      model.EntryStatus(row.String("status")),
		Description: row.String("description"),
	}, nil
}

// LineFromRow maps a journal_entry_lines row.
func LineFromRow(row rowsource.Row) (model.JournalEntryLine, error) {
	var l model.JournalEntryLine
	var err error
	if l.ID, err = row.Int64("id"); err != nil {
		return l, err
	}
	if l.EntryID, err = row.Int64("entry_id"); err != nil {
		return l, err
	}
	lineNumber, err := row.Int64("line_number")
	if err != nil {
		return l, err
	}
	l.LineNumber = int(lineNumber)
	if l.AccountID, err = row.Int64("account_id"); err != nil {
		return l, err
	}
	if l.DebitAmount, err = row.Decimal("debit_amount"); err != nil {
		return l, err
	}
	if l.CreditAmount, err = row.Decimal("credit_amount"); err != nil {
		return l, err
	}
	l.Description = row.String("description")
	return l, nil
}
