package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/rowsource"
)

// JobSource supplies job-costing rows for a tenant.
type JobSource interface {
	Jobs(ctx context.Context, tenant string) ([]model.Job, error)
}

// TableJobs reads the jobs table through a row source.
type TableJobs struct {
	r         rowsource.Reader
	schema    rowsource.Schema
	filtering rowsource.TenantFiltering
}

// NewTableJobs returns a JobSource over the jobs table.
func NewTableJobs(r rowsource.Reader, schema rowsource.Schema, filtering rowsource.TenantFiltering) *TableJobs {
	return &TableJobs{r: r, schema: schema, filtering: filtering}
}

// Jobs returns the tenant's jobs ordered by job number.
func (j *TableJobs) Jobs(ctx context.Context, tenant string) ([]model.Job, error) {
	scope := rowsource.Scope{Tenant: tenant, Schema: j.schema, Filtering: j.filtering}
	cond, scoped, err := scope.TenantCond(rowsource.TableJobs)
	if err != nil {
		return nil, err
	}
	q := rowsource.Query{OrderBy: "job_number, id"}
	if scoped {
		q.Where = []rowsource.Cond{cond}
	}
	rows, err := j.r.Select(ctx, rowsource.TableJobs, q)
	if err != nil {
		return nil, fmt.Errorf("selecting jobs: %w", err)
	}
	jobs := make([]model.Job, 0, len(rows))
	for i, row := range rows {
		job, err := JobFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("job row %d: %w", i+1, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// JobFromRow maps a jobs row. An empty profit_margin stays nil.
func JobFromRow(row rowsource.Row) (model.Job, error) {
	var job model.Job
	var err error
	if job.ID, err = row.Int64("id"); err != nil {
		return job, err
	}
	if job.Budget, err = row.Decimal("budget"); err != nil {
		return job, err
	}
	if job.ActualCost, err = row.Decimal("actual_cost"); err != nil {
		return job, err
	}
	if job.ProfitMargin, err = row.NullDecimal("profit_margin"); err != nil {
		return job, err
	}
	job.JobNumber = row.String("job_number")
	job.Title = row.String("title")
	job.Status = row.String("status")
	return job, nil
}

// JobHeader lists the jobs.csv columns.
var JobHeader = []string{"id", "tenant_id", "job_number", "title", "budget", "actual_cost", "profit_margin", "status"}

// WriteJobs writes jobs.csv (including header) with every job owned by
// tenant.
func WriteJobs(w io.Writer, tenant string, jobs []model.Job) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(JobHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, j := range jobs {
		margin := ""
		if j.ProfitMargin != nil {
			margin = j.ProfitMargin.String()
		}
		rec := []string{
			strconv.FormatInt(j.ID, 10), tenant, j.JobNumber, j.Title,
			j.Budget.StringFixed(2), j.ActualCost.StringFixed(2), margin, j.Status,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
