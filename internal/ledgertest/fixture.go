// Package ledgertest builds in-memory ledgers for tests.
package ledgertest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/rowsource"
)

// Column sets of the tenant-scoped schema.
var (
	AccountColumns = []string{"id", rowsource.ColTenant, "code", "name", "type", "subtype", "is_active"}
	EntryColumns   = []string{"id", rowsource.ColTenant, "entry_number", "entry_date", "reference", "status", "description"}
	LineColumns    = []string{"id", "entry_id", "line_number", "account_id", "debit_amount", "credit_amount", "description"}
	JobColumns     = []string{"id", rowsource.ColTenant, "job_number", "title", "budget", "actual_cost", "profit_margin", "status"}
)

// Fixture is an in-memory ledger owned by one tenant.
type Fixture struct {
	t        testing.TB
	Src      *rowsource.Memory
	Tenant   string
	nextLine int64
}

// New creates a fixture with all four tables carrying a tenant column.
func New(t testing.TB, tenant string) *Fixture {
	t.Helper()
	m := rowsource.NewMemory()
	m.CreateTable(rowsource.TableAccounts, AccountColumns...)
	m.CreateTable(rowsource.TableEntries, EntryColumns...)
	m.CreateTable(rowsource.TableLines, LineColumns...)
	m.CreateTable(rowsource.TableJobs, JobColumns...)
	return &Fixture{t: t, Src: m, Tenant: tenant}
}

// Scope returns a strict scope for the fixture's tenant with every tenant
// column present.
func (f *Fixture) Scope() rowsource.Scope {
	return rowsource.Scope{
		Tenant: f.Tenant,
		Schema: rowsource.Schema{
			AccountsTenantColumn: true,
			EntriesTenantColumn:  true,
			JobsTenantColumn:     true,
		},
		Filtering: rowsource.TenantStrict,
	}
}

// Account inserts an active account whose code is its id.
func (f *Fixture) Account(id int64, name string, typ model.AccountType) *Fixture {
	return f.AccountRow(rowsource.Row{
		"id": id, "code": decimal.NewFromInt(id).String(), "name": name,
		"type": string(typ), "is_active": true,
	})
}

// AccountRow inserts a raw account row, defaulting the tenant.
func (f *Fixture) AccountRow(row rowsource.Row) *Fixture {
	f.t.Helper()
	if _, ok := row[rowsource.ColTenant]; !ok {
		row[rowsource.ColTenant] = f.Tenant
	}
	require.NoError(f.t, f.Src.Insert(rowsource.TableAccounts, row))
	return f
}

// Line is one side of a fixture entry.
type Line struct {
	Account int64
	Debit   string
	Credit  string
}

// Dr builds a debit line.
func Dr(account int64, amount string) Line { return Line{Account: account, Debit: amount} }

// Cr builds a credit line.
func Cr(account int64, amount string) Line { return Line{Account: account, Credit: amount} }

// Entry inserts an entry dated "YYYY-MM-DD" and its lines numbered from 1.
func (f *Fixture) Entry(id int64, number, date string, status model.EntryStatus, lines ...Line) *Fixture {
	return f.TenantEntry(f.Tenant, id, number, date, status, lines...)
}

// TenantEntry is Entry for an explicit tenant.
func (f *Fixture) TenantEntry(tenant string, id int64, number, date string, status model.EntryStatus, lines ...Line) *Fixture {
	f.t.Helper()
	require.NoError(f.t, f.Src.Insert(rowsource.TableEntries, rowsource.Row{
		"id": id, rowsource.ColTenant: tenant, "entry_number": number,
		"entry_date": date, "status": string(status), "description": number,
	}))
	for i, l := range lines {
		f.nextLine++
		row := rowsource.Row{
			"id": f.nextLine, "entry_id": id, "line_number": int64(i + 1),
			"account_id": l.Account, "description": number,
		}
		if l.Debit != "" {
			row["debit_amount"] = l.Debit
		}
		if l.Credit != "" {
			row["credit_amount"] = l.Credit
		}
		require.NoError(f.t, f.Src.Insert(rowsource.TableLines, row))
	}
	return f
}

// Job inserts a job-costing row. margin may be empty.
func (f *Fixture) Job(id int64, number, title, budget, actual, margin, status string) *Fixture {
	f.t.Helper()
	row := rowsource.Row{
		"id": id, rowsource.ColTenant: f.Tenant, "job_number": number, "title": title,
		"budget": budget, "actual_cost": actual, "status": status,
	}
	if margin != "" {
		row["profit_margin"] = margin
	}
	require.NoError(f.t, f.Src.Insert(rowsource.TableJobs, row))
	return f
}

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Standard account ids used across tests.
const (
	Cash     int64 = 1000
	Bank     int64 = 1010
	Payable  int64 = 2000
	Equity   int64 = 3000
	Revenue  int64 = 4000
	Expense  int64 = 5000
	Payroll  int64 = 5100
	Unlisted int64 = 9999
)

// Standard seeds the standard chart.
func (f *Fixture) Standard() *Fixture {
	f.Account(Cash, "Cash", model.AccountTypeAsset)
	f.Account(Bank, "Operating Bank", model.AccountTypeAsset)
	f.Account(Payable, "Accounts Payable", model.AccountTypeLiability)
	f.Account(Equity, "Owner's Equity", model.AccountTypeEquity)
	f.Account(Revenue, "Service Revenue", model.AccountTypeRevenue)
	f.Account(Expense, "Office Expenses", model.AccountTypeExpense)
	f.AccountRow(rowsource.Row{
		"id": Payroll, "code": "5100", "name": "Salaries", "type": "expense",
		"subtype": string(model.SubtypePayroll), "is_active": true,
	})
	return f
}

// January2024 seeds the two-entry scenario: cash sale of 500 on the 5th and a
// 200 cash expense on the 10th.
func (f *Fixture) January2024() *Fixture {
	f.Entry(1, "JE-2024-01-001", "2024-01-05", model.StatusPosted, Dr(Cash, "500"), Cr(Revenue, "500"))
	f.Entry(2, "JE-2024-01-002", "2024-01-10", model.StatusPosted, Dr(Expense, "200"), Cr(Cash, "200"))
	return f
}
