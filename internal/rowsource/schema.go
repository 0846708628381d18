package rowsource

import (
	"context"
	"fmt"
)

// Table and column names shared by every source.
const (
	TableAccounts = "accounts"
	TableEntries  = "journal_entries"
	TableLines    = "journal_entry_lines"
	TableJobs     = "jobs"

	ColTenant = "tenant_id"
)

// Schema records which tenant-scoped tables actually carry a tenant column.
// It is resolved once when a source is opened.
type Schema struct {
	AccountsTenantColumn bool
	EntriesTenantColumn  bool
	JobsTenantColumn     bool
}

// ProbeSchema selects the tenant column of each scoped table, with no value
// predicate so the column's type never matters, and classifies
// the outcome with the source's undefined-column check. Any other error on a
// ledger table is returned unchanged. The jobs table belongs to an optional
// collaborator, so other errors there leave it marked as tenant-scoped and
// the failure resurfaces, isolated, when jobs are read.
func ProbeSchema(ctx context.Context, src Source) (Schema, error) {
	var s Schema
	probes := []struct {
		table    string
		dst      *bool
		optional bool
	}{
		{TableAccounts, &s.AccountsTenantColumn, false},
		{TableEntries, &s.EntriesTenantColumn, false},
		{TableJobs, &s.JobsTenantColumn, true},
	}
	for _, p := range probes {
		_, err := src.Select(ctx, p.table, Query{Columns: []string{ColTenant}, Limit: 1})
		switch {
		case err == nil:
			*p.dst = true
		case src.IsUndefinedColumn(err):
			*p.dst = false
		case p.optional:
			*p.dst = true
		default:
			return Schema{}, fmt.Errorf("probing %s.%s: %w", p.table, ColTenant, err)
		}
	}
	return s, nil
}
