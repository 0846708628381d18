package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/period"
)

// Report names, as used by the CLI and the HTTP API.
const (
	NameTrialBalance     = "trial-balance"
	NameBalanceSheet     = "balance-sheet"
	NameProfitAndLoss    = "profit-loss"
	NameCashFlow         = "cash-flow"
	NameJobProfitability = "job-profitability"
	NameMonthlySummary   = "monthly-summary"
)

// Names lists every report in batch order.
var Names = []string{
	NameTrialBalance,
	NameBalanceSheet,
	NameProfitAndLoss,
	NameCashFlow,
	NameJobProfitability,
	NameMonthlySummary,
}

// ErrUnknownReport is returned by Batch.Get for an unrecognised name.
var ErrUnknownReport = errors.New("unknown report")

// Batch is every report for one tenant, computed from a single snapshot.
type Batch struct {
	RunID            string                `json:"run_id"`
	Tenant           string                `json:"tenant"`
	Month            string                `json:"month"`
	GeneratedAt      time.Time             `json:"generated_at"`
	TrialBalance     []TrialBalanceRow     `json:"trial_balance"`
	BalanceSheet     BalanceSheet          `json:"balance_sheet"`
	ProfitAndLoss    ProfitAndLoss         `json:"profit_loss"`
	CashFlow         CashFlow              `json:"cash_flow"`
	JobProfitability []JobProfitabilityRow `json:"job_profitability"`
	MonthlySummary   period.Summary        `json:"monthly_summary"`
	JobsUnavailable  bool                  `json:"jobs_unavailable,omitempty"`
	Anomalies        []model.Anomaly       `json:"anomalies,omitempty"`
}

// Inputs is what Build needs. A nil Jobs slice with JobsErr set marks the
// job-costing collaborator as failed.
type Inputs struct {
	Catalog  Catalog
	Balances Balances
	Summary  period.Summary
	Jobs     []model.Job
	JobsErr  error
}

// Build runs every generator. A job-costing failure only empties the job
// profitability report.
func Build(in Inputs) *Batch {
	b := &Batch{
		Month:            in.Summary.Month,
		TrialBalance:     TrialBalance(in.Catalog, in.Balances),
		BalanceSheet:     BuildBalanceSheet(in.Catalog, in.Balances),
		ProfitAndLoss:    BuildProfitAndLoss(in.Catalog, in.Balances),
		CashFlow:         BuildCashFlow(in.Catalog, in.Balances),
		JobProfitability: []JobProfitabilityRow{},
		MonthlySummary:   in.Summary,
	}
	if in.JobsErr != nil {
		b.JobsUnavailable = true
	} else {
		b.JobProfitability = JobProfitability(in.Jobs)
	}
	return b
}

// Get returns one report of the batch by name.
func (b *Batch) Get(name string) (any, error) {
	switch name {
	case NameTrialBalance:
		return b.TrialBalance, nil
	case NameBalanceSheet:
		return b.BalanceSheet, nil
	case NameProfitAndLoss:
		return b.ProfitAndLoss, nil
	case NameCashFlow:
		return b.CashFlow, nil
	case NameJobProfitability:
		return b.JobProfitability, nil
	case NameMonthlySummary:
		return b.MonthlySummary, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownReport, name)
}
