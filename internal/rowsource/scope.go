package rowsource

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch reports a tenant-scoped read against a table that has no
// tenant column while strict filtering is configured.
var ErrSchemaMismatch = errors.New("schema mismatch")

// TenantFiltering selects what happens when a table lacks the tenant column.
type TenantFiltering string

const (
	TenantStrict           TenantFiltering = "strict"
	TenantFallbackToGlobal TenantFiltering = "fallback_to_global"
)

// Scope carries the tenant of one request plus the startup-resolved schema.
type Scope struct {
	Tenant    string
	Schema    Schema
	Filtering TenantFiltering
}

// TenantCond returns the condition restricting table to the scope's tenant.
// scoped is false when the table has no tenant column and filtering falls
// back to global rows; the caller then applies its own unscoped filter.
func (s Scope) TenantCond(table string) (cond Cond, scoped bool, err error) {
	var has bool
	switch table {
	case TableAccounts:
		has = s.Schema.AccountsTenantColumn
	case TableEntries:
		has = s.Schema.EntriesTenantColumn
	case TableJobs:
		has = s.Schema.JobsTenantColumn
	default:
		return Cond{}, false, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if has {
		return Eq(ColTenant, s.Tenant), true, nil
	}
	if s.Filtering == TenantFallbackToGlobal {
		return Cond{}, false, nil
	}
	return Cond{}, false, fmt.Errorf("%w: %s has no %s column", ErrSchemaMismatch, table, ColTenant)
}
