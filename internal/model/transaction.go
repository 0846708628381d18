package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the reporting bucket of a derived transaction.
type Category string

const (
	CategoryRevenue           Category = "Revenue"
	CategoryOperatingExpenses Category = "OperatingExpenses"
	CategoryPayroll           Category = "Payroll"
	CategoryOther             Category = "Other"
)

// CategoryFor maps an account to its transaction category.
func CategoryFor(acct Account) Category {
	switch acct.Type {
	case AccountTypeRevenue:
		return CategoryRevenue
	case AccountTypeExpense:
		if acct.Subtype == SubtypePayroll {
			return CategoryPayroll
		}
		return CategoryOperatingExpenses
	default:
		return CategoryOther
	}
}

// Direction is the side of the ledger a transaction hits.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// DerivedTransaction is one signed line of the transaction feed.
type DerivedTransaction struct {
	SourceLineID   int64           `json:"source_line_id"`
	EntryID        int64           `json:"entry_id"`
	EntryNumber    string          `json:"entry_number"`
	AccountID      int64           `json:"account_id"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	Category       Category        `json:"category"`
	Direction      Direction       `json:"direction"`
	Amount         decimal.Decimal `json:"amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	Reference      string          `json:"reference"`
}

// AccountBalance is the signed balance of one account.
type AccountBalance struct {
	AccountID int64           `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// Job is a job-costing row supplied by the job-costing collaborator.
type Job struct {
	ID           int64            `json:"id"`
	JobNumber    string           `json:"job_number"`
	Title        string           `json:"title"`
	Budget       decimal.Decimal  `json:"budget"`
	ActualCost   decimal.Decimal  `json:"actual_cost"`
	ProfitMargin *decimal.Decimal `json:"profit_margin"`
	Status       string           `json:"status"`
}
