package rowsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntriesTable(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	m.CreateTable(TableEntries, "id", "tenant_id", "entry_date", "status")
	require.NoError(t, m.Insert(TableEntries,
		Row{"id": int64(1), "tenant_id": "acme", "entry_date": "2024-01-05", "status": "posted"},
		Row{"id": int64(2), "tenant_id": "acme", "entry_date": "2024-01-10", "status": "posted"},
		Row{"id": int64(3), "tenant_id": "acme", "entry_date": "2024-01-07", "status": "draft"},
		Row{"id": int64(10), "tenant_id": "other", "entry_date": "2024-01-10", "status": "posted"},
	))
	return m
}

func ids(t *testing.T, rows []Row) []int64 {
	t.Helper()
	out := make([]int64, len(rows))
	for i, r := range rows {
		id, err := r.Int64("id")
		require.NoError(t, err)
		out[i] = id
	}
	return out
}

func TestMemorySelect_FilterAndOrder(t *testing.T) {
	m := newEntriesTable(t)
	rows, err := m.Select(context.Background(), TableEntries, Query{
		Where:   []Cond{Eq("tenant_id", "acme"), Eq("status", "posted")},
		OrderBy: "entry_date desc",
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids(t, rows))
}

func TestMemorySelect_NumericOrderAndIn(t *testing.T) {
	m := newEntriesTable(t)
	rows, err := m.Select(context.Background(), TableEntries, Query{
		Where:   []Cond{In("id", int64(10), "2", 3)},
		OrderBy: "id",
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 10}, ids(t, rows), "ids compare numerically, not as text")
}

func TestMemorySelect_NeAndLimit(t *testing.T) {
	m := newEntriesTable(t)
	rows, err := m.Select(context.Background(), TableEntries, Query{
		Where:   []Cond{Ne("status", "draft")},
		OrderBy: "entry_date desc, id desc",
		Limit:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 2}, ids(t, rows))
}

func TestMemorySelect_UndefinedColumn(t *testing.T) {
	m := NewMemory()
	m.CreateTable(TableAccounts, "id", "name")
	_, err := m.Select(context.Background(), TableAccounts, Query{Where: []Cond{Eq(ColTenant, "acme")}})
	require.Error(t, err)
	assert.True(t, m.IsUndefinedColumn(err))
	assert.ErrorIs(t, err, ErrUndefinedColumn)
}

func TestMemorySelect_UnknownTable(t *testing.T) {
	m := NewMemory()
	_, err := m.Select(context.Background(), "nope", Query{})
	assert.ErrorIs(t, err, ErrUnknownTable)
	assert.False(t, m.IsUndefinedColumn(err))
}

func TestMemory_RawQueryUnsupported(t *testing.T) {
	_, err := NewMemory().RawQuery(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrRawQueryUnsupported)
}

func TestMemory_SelectReturnsCopies(t *testing.T) {
	m := newEntriesTable(t)
	rows, err := m.Select(context.Background(), TableEntries, Query{Where: []Cond{Eq("id", 1)}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	rows[0]["status"] = "reversed"

	again, err := m.Select(context.Background(), TableEntries, Query{Where: []Cond{Eq("id", 1)}})
	require.NoError(t, err)
	assert.Equal(t, "posted", again[0].String("status"))
}

func TestMemory_Snapshot(t *testing.T) {
	m := newEntriesTable(t)
	var count int
	err := m.Snapshot(context.Background(), func(r Reader) error {
		rows, err := r.Select(context.Background(), TableEntries, Query{})
		count = len(rows)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestMemory_Update(t *testing.T) {
	m := newEntriesTable(t)
	n, err := m.Update(TableEntries, func(r Row) bool { return r.String("id") == "3" }, "status", "posted")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := m.Select(context.Background(), TableEntries, Query{Where: []Cond{Eq("status", "draft")}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestProbeSchema(t *testing.T) {
	m := NewMemory()
	m.CreateTable(TableAccounts, "id", "name", "is_active")
	m.CreateTable(TableEntries, "id", "tenant_id")

	s, err := ProbeSchema(context.Background(), m)
	require.NoError(t, err)
	assert.False(t, s.AccountsTenantColumn)
	assert.True(t, s.EntriesTenantColumn)
	assert.True(t, s.JobsTenantColumn, "missing jobs table stays scoped")
}

func TestMemorySelect_TenantMatchIsExact(t *testing.T) {
	m := NewMemory()
	m.CreateTable(TableAccounts, "id", ColTenant, "code")
	require.NoError(t, m.Insert(TableAccounts,
		Row{"id": "1", ColTenant: "100", "code": "1000"},
		Row{"id": "2", ColTenant: "0100", "code": "1000"},
	))

	for tenant, want := range map[string][]int64{
		"100":   {1},
		"0100":  {2},
		"100.0": nil,
		"1e2":   nil,
	} {
		rows, err := m.Select(context.Background(), TableAccounts, Query{Where: []Cond{Eq(ColTenant, tenant)}})
		require.NoError(t, err)
		assert.Equal(t, len(want), len(rows), "tenant %q", tenant)
		if len(want) > 0 {
			assert.Equal(t, want, ids(t, rows), "tenant %q", tenant)
		}
	}

	rows, err := m.Select(context.Background(), TableAccounts, Query{Where: []Cond{Ne(ColTenant, "100")}})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(t, rows))

	rows, err = m.Select(context.Background(), TableAccounts, Query{Where: []Cond{In(ColTenant, "1e2", "0100")}})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(t, rows))
}

func TestMemorySelect_BoolFilter(t *testing.T) {
	m := NewMemory()
	m.CreateTable(TableAccounts, "id", "is_active")
	require.NoError(t, m.Insert(TableAccounts,
		Row{"id": "1", "is_active": "TRUE"},
		Row{"id": "2", "is_active": "false"},
		Row{"id": "3", "is_active": nil},
	))

	rows, err := m.Select(context.Background(), TableAccounts, Query{Where: []Cond{Eq("is_active", true)}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(t, rows))
}

func TestMemorySelect_Columns(t *testing.T) {
	m := newEntriesTable(t)
	rows, err := m.Select(context.Background(), TableEntries, Query{Columns: []string{ColTenant}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{ColTenant: "acme"}, rows[0])

	_, err = m.Select(context.Background(), TableEntries, Query{Columns: []string{"code"}})
	assert.ErrorIs(t, err, ErrUndefinedColumn)
}

func TestProbeSchema_MissingLedgerTable(t *testing.T) {
	m := NewMemory()
	_, err := ProbeSchema(context.Background(), m)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestLoadCSVDir(t *testing.T) {
	dir := t.TempDir()
	content := "id,code,name,type,is_active\n1,1000,Cash,asset,true\n2,4000,Sales,revenue,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	m, err := LoadCSVDir(dir)
	require.NoError(t, err)

	rows, err := m.Select(context.Background(), "accounts", Query{OrderBy: "id desc"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sales", rows[0].String("name"))
	assert.False(t, rows[0].Has("is_active"))

	active, err := rows[1].Bool("is_active")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestLoadCSV_MissingHeader(t *testing.T) {
	err := NewMemory().LoadCSV("empty", strings.NewReader(""))
	require.Error(t, err)
}

func TestScopeTenantCond(t *testing.T) {
	scoped := Scope{Tenant: "acme", Schema: Schema{AccountsTenantColumn: true}, Filtering: TenantStrict}
	cond, ok, err := scoped.TenantCond(TableAccounts)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Eq(ColTenant, "acme"), cond)

	_, _, err = scoped.TenantCond(TableEntries)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	fallback := Scope{Tenant: "acme", Filtering: TenantFallbackToGlobal}
	_, ok, err = fallback.TenantCond(TableEntries)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = fallback.TenantCond("payroll")
	assert.ErrorIs(t, err, ErrUnknownTable)
}
