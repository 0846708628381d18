package accounts

import "github.com/cleared-dev/glengine/internal/model"

// DefaultChart returns the starter chart of accounts for a services business.
func DefaultChart() []model.Account {
	return []model.Account{
		{ID: 1000, Code: "1000", Name: "Cash on Hand", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 1010, Code: "1010", Name: "Operating Bank Account", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 1200, Code: "1200", Name: "Accounts Receivable", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 2000, Code: "2000", Name: "Accounts Payable", Type: model.AccountTypeLiability, IsActive: true},
		{ID: 2100, Code: "2100", Name: "Payroll Liabilities", Type: model.AccountTypeLiability, IsActive: true},
		{ID: 3000, Code: "3000", Name: "Owner's Equity", Type: model.AccountTypeEquity, IsActive: true},
		{ID: 4000, Code: "4000", Name: "Service Revenue", Type: model.AccountTypeRevenue, IsActive: true},
		{ID: 4100, Code: "4100", Name: "Project Revenue", Type: model.AccountTypeRevenue, IsActive: true},
		{ID: 5000, Code: "5000", Name: "Office Expenses", Type: model.AccountTypeExpense, IsActive: true},
		{ID: 5100, Code: "5100", Name: "Salaries & Wages", Type: model.AccountTypeExpense, Subtype: model.SubtypePayroll, IsActive: true},
		{ID: 5200, Code: "5200", Name: "Rent", Type: model.AccountTypeExpense, IsActive: true},
		{ID: 5300, Code: "5300", Name: "Software & SaaS", Type: model.AccountTypeExpense, IsActive: true},
	}
}
