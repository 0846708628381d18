package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusDraft    EntryStatus = "draft"
	StatusPosted   EntryStatus = "posted"
	StatusReversed EntryStatus = "reversed"
)

// JournalEntry is the header of a dated, multi-line financial event.
type JournalEntry struct {
	ID          int64
	EntryNumber string
	EntryDate   time.Time
	Reference   string
	Status      EntryStatus
	Description string
}

// JournalEntryLine is one side of a double-entry posting.
type JournalEntryLine struct {
	ID           int64
	EntryID      int64
	LineNumber   int
	AccountID    int64
	DebitAmount  decimal.Decimal // zero if credit side
	CreditAmount decimal.Decimal // zero if debit side
	Description  string
}

// Amount returns the non-zero side of the line.
func (l JournalEntryLine) Amount() decimal.Decimal {
	if l.CreditAmount.GreaterThan(l.DebitAmount) {
		return l.CreditAmount
	}
	return l.DebitAmount
}

// PostedEntry is an entry together with its lines ordered by line number.
type PostedEntry struct {
	Entry JournalEntry
	Lines []JournalEntryLine
}
