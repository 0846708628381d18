// Package report derives the financial statements from computed balances.
// Every generator is a pure function of its inputs.
package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/model"
)

// Catalog lists the chart of accounts in display order.
type Catalog interface {
	All() []model.Account
	ByType(t model.AccountType) []model.Account
}

// Balances resolves the signed balance of an account.
type Balances interface {
	Get(accountID int64) decimal.Decimal
}

// TrialBalanceRow is one account of the trial balance.
type TrialBalanceRow struct {
	AccountID   int64             `json:"account_id"`
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	AccountType model.AccountType `json:"type"`
	Balance     decimal.Decimal   `json:"balance"`
}

// AccountAmount is an account with its balance inside a statement section.
type AccountAmount struct {
	AccountID int64           `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

// BalanceSheet groups the permanent accounts.
type BalanceSheet struct {
	Assets           []AccountAmount `json:"assets"`
	Liabilities      []AccountAmount `json:"liabilities"`
	Equity           []AccountAmount `json:"equity"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
}

// ProfitAndLoss groups the temporary accounts.
type ProfitAndLoss struct {
	Revenue       []AccountAmount `json:"revenue"`
	Expenses      []AccountAmount `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
}

// CashFlow lists the cash and bank accounts.
type CashFlow struct {
	Accounts []AccountAmount `json:"accounts"`
	Total    decimal.Decimal `json:"total"`
}

// JobProfitabilityRow is one job with its computed profit.
type JobProfitabilityRow struct {
	JobID        int64            `json:"job_id"`
	JobNumber    string           `json:"job_number"`
	Title        string           `json:"title"`
	Budget       decimal.Decimal  `json:"budget"`
	ActualCost   decimal.Decimal  `json:"actual_cost"`
	Profit       decimal.Decimal  `json:"profit"`
	ProfitMargin *decimal.Decimal `json:"profit_margin"`
	Status       string           `json:"status"`
}

// TrialBalance lists every catalog account, including zero balances.
func TrialBalance(catalog Catalog, balances Balances) []TrialBalanceRow {
	accts := catalog.All()
	rows := make([]TrialBalanceRow, 0, len(accts))
	for _, a := range accts {
		rows = append(rows, TrialBalanceRow{
			AccountID:   a.ID,
			Code:        a.Code,
			Name:        a.Name,
			AccountType: a.Type,
			Balance:     balances.Get(a.ID),
		})
	}
	return rows
}

// section collects the accounts of one type that pass keep, and their total.
func section(catalog Catalog, balances Balances, t model.AccountType, keep func(model.Account) bool) ([]AccountAmount, decimal.Decimal) {
	out := []AccountAmount{}
	total := decimal.Zero
	for _, a := range catalog.ByType(t) {
		if keep != nil && !keep(a) {
			continue
		}
		b := balances.Get(a.ID)
		out = append(out, AccountAmount{AccountID: a.ID, Code: a.Code, Name: a.Name, Balance: b})
		total = total.Add(b)
	}
	return out, total
}

// BuildBalanceSheet splits assets, liabilities and equity. Each total is
// the sum of that section's balances.
func BuildBalanceSheet(catalog Catalog, balances Balances) BalanceSheet {
	var bs BalanceSheet
	bs.Assets, bs.TotalAssets = section(catalog, balances, model.AccountTypeAsset, nil)
	bs.Liabilities, bs.TotalLiabilities = section(catalog, balances, model.AccountTypeLiability, nil)
	bs.Equity, bs.TotalEquity = section(catalog, balances, model.AccountTypeEquity, nil)
	return bs
}

// BuildProfitAndLoss compares revenue with expenses.
func BuildProfitAndLoss(catalog Catalog, balances Balances) ProfitAndLoss {
	var pl ProfitAndLoss
	pl.Revenue, pl.TotalRevenue = section(catalog, balances, model.AccountTypeRevenue, nil)
	pl.Expenses, pl.TotalExpenses = section(catalog, balances, model.AccountTypeExpense, nil)
	pl.NetIncome = pl.TotalRevenue.Sub(pl.TotalExpenses)
	return pl
}

// IsCashAccount reports whether an asset account holds cash, judged by a
// case-insensitive "cash" or "bank" in its name.
func IsCashAccount(a model.Account) bool {
	if a.Type != model.AccountTypeAsset {
		return false
	}
	name := strings.ToLower(a.Name)
	return strings.Contains(name, "cash") || strings.Contains(name, "bank")
}

// BuildCashFlow sums the cash and bank accounts.
func BuildCashFlow(catalog Catalog, balances Balances) CashFlow {
	var cf CashFlow
	cf.Accounts, cf.Total = section(catalog, balances, model.AccountTypeAsset, IsCashAccount)
	return cf
}

// JobProfitability computes budget minus actual cost per job. Margin and
// status pass through unchanged.
func JobProfitability(jobs []model.Job) []JobProfitabilityRow {
	rows := make([]JobProfitabilityRow, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, JobProfitabilityRow{
			JobID:        j.ID,
			JobNumber:    j.JobNumber,
			Title:        j.Title,
			Budget:       j.Budget,
			ActualCost:   j.ActualCost,
			Profit:       j.Budget.Sub(j.ActualCost),
			ProfitMargin: j.ProfitMargin,
			Status:       j.Status,
		})
	}
	return rows
}
