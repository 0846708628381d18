package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/glengine/internal/model"
)

// EntryHeader lists the journal_entries.csv columns.
var EntryHeader = []string{"id", "tenant_id", "entry_number", "entry_date", "reference", "status", "description"}

// LineHeader lists the journal_entry_lines.csv columns.
var LineHeader = []string{"id", "entry_id", "line_number", "account_id", "debit_amount", "credit_amount", "description"}

const dateFormat = "2006-01-02"

// WriteEntries writes journal_entries.csv (including header) with every
// entry owned by tenant.
func WriteEntries(w io.Writer, tenant string, entries []model.PostedEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(EntryHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, pe := range entries {
		if err := cw.Write(MarshalEntry(tenant, pe.Entry)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// WriteLines writes journal_entry_lines.csv (including header) for every
// line of entries.
func WriteLines(w io.Writer, entries []model.PostedEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(LineHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	row := 2
	for _, pe := range entries {
		for _, l := range pe.Lines {
			if err := cw.Write(MarshalLine(l)); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}
	return cw.Error()
}

// MarshalEntry converts a JournalEntry to a CSV row.
func MarshalEntry(tenant string, e model.JournalEntry) []string {
	return []string{
		strconv.FormatInt(e.ID, 10),
		tenant,
		e.EntryNumber,
		e.EntryDate.Format(dateFormat),
		e.Reference,
		string(e.Status),
		e.Description,
	}
}

// MarshalLine converts a JournalEntryLine to a CSV row. The zero side is
// written as an empty cell.
func MarshalLine(l model.JournalEntryLine) []string {
	row := []string{
		strconv.FormatInt(l.ID, 10),
		strconv.FormatInt(l.EntryID, 10),
		strconv.Itoa(l.LineNumber),
		strconv.FormatInt(l.AccountID, 10),
		"",
		"",
		l.Description,
	}
	if !l.DebitAmount.IsZero() {
		row[4] = l.DebitAmount.StringFixed(2)
	}
	if !l.CreditAmount.IsZero() {
		row[5] = l.CreditAmount.StringFixed(2)
	}
	return row
}
