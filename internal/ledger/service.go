// Package ledger answers balance, feed and report requests for one tenant
// from a consistent read of the row source.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/glengine/internal/accounts"
	"github.com/cleared-dev/glengine/internal/balance"
	"github.com/cleared-dev/glengine/internal/journal"
	"github.com/cleared-dev/glengine/internal/logging"
	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/period"
	"github.com/cleared-dev/glengine/internal/report"
	"github.com/cleared-dev/glengine/internal/rowsource"
	"github.com/cleared-dev/glengine/internal/txfeed"
)

// Service is stateless apart from its configuration; every method performs
// a full recomputation.
type Service struct {
	src       rowsource.Source
	schema    rowsource.Schema
	filtering rowsource.TenantFiltering
	jobs      JobSource
	log       logrus.FieldLogger
	now       func() time.Time
	runID     func() string
	grouped   bool
}

// Option configures a Service.
type Option func(*Service)

// WithJobSource replaces the default jobs-table reader.
func WithJobSource(j JobSource) Option { return func(s *Service) { s.jobs = j } }

// WithLogger sets the logger for anomalies and collaborator failures.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }

// WithClock sets the clock used for the default month and report stamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithRunIDs sets the generator of report batch ids.
func WithRunIDs(f func() string) Option { return func(s *Service) { s.runID = f } }

// WithGroupedTotals toggles the GROUP BY fast path for Balances.
func WithGroupedTotals(on bool) Option { return func(s *Service) { s.grouped = on } }

// New builds a Service for an already-probed schema.
func New(src rowsource.Source, schema rowsource.Schema, filtering rowsource.TenantFiltering, opts ...Option) *Service {
	s := &Service{
		src:       src,
		schema:    schema,
		filtering: filtering,
		log:       logrus.StandardLogger(),
		now:       time.Now,
		runID:     uuid.NewString,
		grouped:   true,
	}
	for _, o := range opts {
		o(s)
	}
	if s.jobs == nil {
		s.jobs = NewTableJobs(src, schema, filtering)
	}
	return s
}

// Open probes the schema once and builds the Service. Strict filtering over
// a schema without tenant columns fails here rather than on every request.
func Open(ctx context.Context, src rowsource.Source, filtering rowsource.TenantFiltering, opts ...Option) (*Service, error) {
	schema, err := rowsource.ProbeSchema(ctx, src)
	if err != nil {
		return nil, sourceError("schema", err)
	}
	if filtering == rowsource.TenantStrict && !(schema.AccountsTenantColumn && schema.EntriesTenantColumn) {
		return nil, &SourceError{Op: "schema", Err: fmt.Errorf("%w: strict tenant filtering needs %s on %s and %s",
			ErrSchemaMismatch, rowsource.ColTenant, rowsource.TableAccounts, rowsource.TableEntries)}
	}
	return New(src, schema, filtering, opts...), nil
}

// Schema returns the probed schema capabilities.
func (s *Service) Schema() rowsource.Schema { return s.schema }

func (s *Service) scope(tenant string) rowsource.Scope {
	return rowsource.Scope{Tenant: tenant, Schema: s.schema, Filtering: s.filtering}
}

// snapshot is one consistent read of a tenant's ledger.
type snapshot struct {
	catalog *accounts.Service
	entries []model.PostedEntry
}

// posted filters the snapshot's entries down to posted ones.
func (sn *snapshot) posted() []model.PostedEntry {
	out := make([]model.PostedEntry, 0, len(sn.entries))
	for _, pe := range sn.entries {
		if pe.Entry.Status == model.StatusPosted {
			out = append(out, pe)
		}
	}
	return out
}

// read loads the catalog and entries inside one snapshot. allStatuses also
// loads draft and reversed entries.
func (s *Service) read(ctx context.Context, tenant string, allStatuses bool) (*snapshot, error) {
	scope := s.scope(tenant)
	sn := &snapshot{}
	err := s.src.Snapshot(ctx, func(r rowsource.Reader) error {
		catalog, err := accounts.Load(ctx, r, scope)
		if err != nil {
			return sourceError("accounts", err)
		}
		sn.catalog = catalog

		if allStatuses {
			sn.entries, err = journal.Load(ctx, r, scope)
		} else {
			sn.entries, err = journal.LoadPosted(ctx, r, scope)
		}
		if err != nil {
			return sourceError("entries", err)
		}
		return nil
	})
	if err != nil {
		return nil, sourceError("snapshot", err)
	}
	return sn, nil
}

// BalanceReport is the per-account balance listing for a tenant. Totals
// sums the balances of each account type.
type BalanceReport struct {
	Tenant    string                                `json:"tenant"`
	Balances  []model.AccountBalance                `json:"balances"`
	Totals    map[model.AccountType]decimal.Decimal `json:"totals"`
	Anomalies []model.Anomaly                       `json:"anomalies,omitempty"`
}

// Balances computes every account's signed balance. The grouped SQL
// aggregation is used when the source supports it; otherwise lines are
// summed one by one with the same result.
func (s *Service) Balances(ctx context.Context, tenant string) (*BalanceReport, error) {
	scope := s.scope(tenant)
	var catalog *accounts.Service
	var result *balance.Result

	err := s.src.Snapshot(ctx, func(r rowsource.Reader) error {
		var err error
		if catalog, err = accounts.Load(ctx, r, scope); err != nil {
			return sourceError("accounts", err)
		}

		if s.grouped {
			totals, err := journal.LoadAccountTotals(ctx, r, scope)
			switch {
			case err == nil:
				result = balance.FromTotals(catalog, totals)
				return nil
			case !errors.Is(err, rowsource.ErrRawQueryUnsupported):
				return sourceError("totals", err)
			}
			s.log.WithField("tenant", tenant).Debug("grouped totals unsupported, summing lines")
		}

		entries, err := journal.LoadPosted(ctx, r, scope)
		if err != nil {
			return sourceError("lines", err)
		}
		result = balance.FromLines(catalog, entries)
		return nil
	})
	if err != nil {
		return nil, sourceError("snapshot", err)
	}

	s.logAnomalies(tenant, result.Anomalies)
	totals := make(map[model.AccountType]decimal.Decimal, len(model.AccountTypes))
	for _, t := range model.AccountTypes {
		totals[t] = result.SumByType(catalog, t)
	}
	return &BalanceReport{
		Tenant:    tenant,
		Balances:  result.List(catalog),
		Totals:    totals,
		Anomalies: result.Anomalies,
	}, nil
}

// Transactions derives the tenant's transaction feed, newest first.
func (s *Service) Transactions(ctx context.Context, tenant string) (txfeed.Feed, error) {
	sn, err := s.read(ctx, tenant, false)
	if err != nil {
		return txfeed.Feed{}, err
	}
	feed := txfeed.Derive(sn.catalog, sn.entries)
	s.logAnomalies(tenant, feed.Anomalies)
	return feed, nil
}

// month resolves an optional month against the clock.
func (s *Service) month(m *period.Month) period.Month {
	if m != nil {
		return *m
	}
	return period.Of(s.now())
}

// Summary aggregates one month of the feed. A nil month means the current
// one.
func (s *Service) Summary(ctx context.Context, tenant string, m *period.Month) (period.Summary, error) {
	feed, err := s.Transactions(ctx, tenant)
	if err != nil {
		return period.Summary{}, err
	}
	return period.Summarize(feed.Transactions, s.month(m)), nil
}

// computed is everything derived from one snapshot.
type computed struct {
	snap     *snapshot
	posted   []model.PostedEntry
	balances *balance.Result
	feed     txfeed.Feed
	batch    *report.Batch
}

func (s *Service) compute(ctx context.Context, tenant string, m *period.Month, allStatuses bool) (*computed, error) {
	sn, err := s.read(ctx, tenant, allStatuses)
	if err != nil {
		return nil, err
	}
	c := &computed{snap: sn, posted: sn.posted()}
	c.balances = balance.FromLines(sn.catalog, c.posted)
	c.feed = txfeed.Derive(sn.catalog, c.posted)
	summary := period.Summarize(c.feed.Transactions, s.month(m))

	// Jobs are read after the snapshot closes so a missing or failing jobs
	// table cannot poison the ledger transaction.
	jobs, jobsErr := s.jobs.Jobs(ctx, tenant)
	if jobsErr != nil {
		logging.LogError(s.log, "ledger", "Reports", "loading jobs", logrus.Fields{"tenant": tenant}, jobsErr)
	}

	c.batch = report.Build(report.Inputs{
		Catalog:  sn.catalog,
		Balances: c.balances,
		Summary:  summary,
		Jobs:     jobs,
		JobsErr:  jobsErr,
	})
	c.batch.RunID = s.runID()
	c.batch.Tenant = tenant
	c.batch.GeneratedAt = s.now().UTC()
	c.batch.Anomalies = append(c.batch.Anomalies, c.balances.Anomalies...)
	c.batch.Anomalies = append(c.batch.Anomalies, ValidationAnomalies(journal.Validate(c.posted, sn.catalog))...)
	s.logAnomalies(tenant, c.batch.Anomalies)
	return c, nil
}

// Reports builds every report for the tenant from one snapshot. A nil month
// means the current one.
func (s *Service) Reports(ctx context.Context, tenant string, m *period.Month) (*report.Batch, error) {
	c, err := s.compute(ctx, tenant, m, false)
	if err != nil {
		return nil, err
	}
	return c.batch, nil
}

// Export lays out the full export: chart, journal (every status),
// transactions and all reports.
func (s *Service) Export(ctx context.Context, tenant string, m *period.Month) ([]report.Section, error) {
	c, err := s.compute(ctx, tenant, m, true)
	if err != nil {
		return nil, err
	}
	return report.Sections(report.ExportData{
		Accounts:     c.snap.catalog.All(),
		Balances:     c.balances,
		Entries:      c.snap.entries,
		Transactions: c.feed.Transactions,
		Batch:        c.batch,
	}), nil
}

// Validate checks the tenant's posted entries against the double-entry
// invariants.
func (s *Service) Validate(ctx context.Context, tenant string) ([]journal.ValidationError, error) {
	sn, err := s.read(ctx, tenant, false)
	if err != nil {
		return nil, err
	}
	return journal.Validate(sn.entries, sn.catalog), nil
}

// ValidationAnomalies converts invariant violations into anomalies. Unknown
// accounts are left out; the balance calculator already reports them.
func ValidationAnomalies(errs []journal.ValidationError) []model.Anomaly {
	var out []model.Anomaly
	for _, ve := range errs {
		kind := model.AnomalyInvalidLine
		switch ve.Invariant {
		case journal.InvariantKnownAccount:
			continue
		case journal.InvariantBalanced:
			kind = model.AnomalyUnbalancedEntry
		}
		out = append(out, model.Anomaly{
			Kind:        kind,
			EntryID:     ve.EntryID,
			EntryNumber: ve.EntryNumber,
			LineID:      ve.LineID,
			Detail:      ve.Description,
		})
	}
	return out
}

func (s *Service) logAnomalies(tenant string, anomalies []model.Anomaly) {
	for _, a := range anomalies {
		s.log.WithFields(logrus.Fields{
			"tenant":     tenant,
			"kind":       a.Kind,
			"entry":      a.EntryNumber,
			"line_id":    a.LineID,
			"account_id": a.AccountID,
		}).Warn(a.Detail)
	}
}
