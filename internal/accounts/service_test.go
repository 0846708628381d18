package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/rowsource"
)

func TestNewService(t *testing.T) {
	chart := DefaultChart()
	svc := NewService(chart)

	assert.Len(t, svc.All(), len(chart))
}

func TestGetExists(t *testing.T) {
	svc := NewService(DefaultChart())

	acct, ok := svc.Get(1010)
	assert.True(t, ok)
	assert.Equal(t, "Operating Bank Account", acct.Name)

	_, ok = svc.Get(9999)
	assert.False(t, ok)

	assert.True(t, svc.Exists(1010))
	assert.False(t, svc.Exists(9999))
}

func TestByType(t *testing.T) {
	svc := NewService(DefaultChart())

	assets := svc.ByType(model.AccountTypeAsset)
	assert.Len(t, assets, 3)
	for _, a := range assets {
		assert.Equal(t, model.AccountTypeAsset, a.Type)
	}

	expenses := svc.ByType(model.AccountTypeExpense)
	assert.Len(t, expenses, 4)
}

func TestDefaultChart(t *testing.T) {
	chart := DefaultChart()
	require.NotEmpty(t, chart)

	types := make(map[model.AccountType]bool)
	codes := make(map[string]bool)
	for _, acct := range chart {
		assert.NotEmpty(t, acct.Name, "account %d missing name", acct.ID)
		assert.True(t, acct.Type.Valid(), "account %d has type %q", acct.ID, acct.Type)
		assert.False(t, codes[acct.Code], "duplicate code %s", acct.Code)
		codes[acct.Code] = true
		types[acct.Type] = true
	}
	assert.Len(t, types, len(model.AccountTypes), "default chart spans every account type")
}

func accountsTable(t *testing.T, withTenant bool) *rowsource.Memory {
	t.Helper()
	m := rowsource.NewMemory()
	cols := []string{"id", "code", "name", "type", "subtype", "is_active"}
	if withTenant {
		cols = append(cols, rowsource.ColTenant)
	}
	m.CreateTable(rowsource.TableAccounts, cols...)
	rows := []rowsource.Row{
		{"id": "1000", "code": "1000", "name": "Cash", "type": "Asset", "is_active": "true"},
		{"id": "4000", "code": "4000", "name": "Sales", "type": "revenue", "is_active": "true"},
		{"id": "5900", "code": "5900", "name": "Old Expense", "type": "expense", "is_active": "false"},
	}
	if withTenant {
		rows[0][rowsource.ColTenant] = "acme"
		rows[1][rowsource.ColTenant] = "other"
		rows[2][rowsource.ColTenant] = "acme"
	}
	require.NoError(t, m.Insert(rowsource.TableAccounts, rows...))
	return m
}

func TestLoad_TenantScoped(t *testing.T) {
	m := accountsTable(t, true)
	scope := rowsource.Scope{
		Tenant:    "acme",
		Schema:    rowsource.Schema{AccountsTenantColumn: true},
		Filtering: rowsource.TenantStrict,
	}

	svc, err := Load(context.Background(), m, scope)
	require.NoError(t, err)
	require.Len(t, svc.All(), 2, "tenant rows include inactive accounts")
	assert.True(t, svc.Exists(1000))
	assert.True(t, svc.Exists(5900))
	assert.False(t, svc.Exists(4000))

	cash, _ := svc.Get(1000)
	assert.Equal(t, model.AccountTypeAsset, cash.Type)
}

func TestLoad_FallbackToGlobalActive(t *testing.T) {
	m := accountsTable(t, false)
	scope := rowsource.Scope{Tenant: "acme", Filtering: rowsource.TenantFallbackToGlobal}

	svc, err := Load(context.Background(), m, scope)
	require.NoError(t, err)
	assert.Len(t, svc.All(), 2)
	assert.False(t, svc.Exists(5900), "inactive accounts are excluded from the global fallback")
}

func TestLoad_StrictWithoutTenantColumn(t *testing.T) {
	m := accountsTable(t, false)
	scope := rowsource.Scope{Tenant: "acme", Filtering: rowsource.TenantStrict}

	_, err := Load(context.Background(), m, scope)
	assert.ErrorIs(t, err, rowsource.ErrSchemaMismatch)
}

func TestFromRow_UnknownType(t *testing.T) {
	_, err := FromRow(rowsource.Row{"id": int64(1), "type": "income"})
	assert.Error(t, err)
}

func TestFromRow_DefaultsActive(t *testing.T) {
	acct, err := FromRow(rowsource.Row{"id": int64(7), "code": "7", "name": "Petty Cash", "type": "asset"})
	require.NoError(t, err)
	assert.True(t, acct.IsActive)
	assert.Equal(t, model.SubtypeNone, acct.Subtype)
}
