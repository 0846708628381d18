// Package period aggregates the transaction feed into monthly figures.
package period

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/model"
)

// ErrBadMonth is returned for a month that is not YYYY-MM.
var ErrBadMonth = errors.New("month must be YYYY-MM")

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// Of returns the month containing t, in t's location.
func Of(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrBadMonth, s)
	}
	return Of(t), nil
}

// Contains reports whether t falls in the month.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Summary holds the monthly dashboard figures.
type Summary struct {
	Month           string          `json:"month"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	TotalBalance    decimal.Decimal `json:"total_balance"`
}

// Summarize filters txns to the month. Income is the sum of credits to
// revenue lines, expenses the sum of debits to operating-expense and payroll
// lines; the balancing side of each entry is not counted. TotalBalance is the
// running balance of the last transaction of the whole, unfiltered sequence.
func Summarize(txns []model.DerivedTransaction, m Month) Summary {
	s := Summary{
		Month:           m.String(),
		MonthlyIncome:   decimal.Zero,
		MonthlyExpenses: decimal.Zero,
		TotalBalance:    decimal.Zero,
	}
	for _, tx := range txns {
		if !m.Contains(tx.Date) {
			continue
		}
		switch {
		case tx.Direction == model.DirectionCredit && tx.Category == model.CategoryRevenue:
			s.MonthlyIncome = s.MonthlyIncome.Add(tx.Amount)
		case tx.Direction == model.DirectionDebit && isExpense(tx.Category):
			s.MonthlyExpenses = s.MonthlyExpenses.Add(tx.Amount)
		}
	}
	s.NetProfit = s.MonthlyIncome.Sub(s.MonthlyExpenses)
	if n := len(txns); n > 0 {
		s.TotalBalance = txns[n-1].RunningBalance
	}
	return s
}

func isExpense(c model.Category) bool {
	return c == model.CategoryOperatingExpenses || c == model.CategoryPayroll
}
