package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/glengine/internal/accounts"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/id"
	"github.com/cleared-dev/glengine/internal/journal"
	"github.com/cleared-dev/glengine/internal/ledger"
	"github.com/cleared-dev/glengine/internal/model"
)

const dataDir = "data"

func newInitCommand(opts *globalOptions) *cobra.Command {
	var demo bool
	var chartPath string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a CSV-backed ledger project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			if opts.tenant == "" {
				return errors.New("--tenant is required")
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			chart := accounts.DefaultChart()
			if chartPath != "" {
				if demo {
					return errors.New("--demo seeds the default chart and cannot be combined with --chart")
				}
				if chart, err = readChart(chartPath); err != nil {
					return err
				}
			}

			if err := runInit(absDir, opts.tenant, chart, demo, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger for tenant %q in %s\n", opts.tenant, absDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "seed journal entries and jobs for the current month")
	cmd.Flags().StringVar(&chartPath, "chart", "", "accounts CSV to seed instead of the default chart")

	return cmd
}

// readChart loads a chart of accounts in the accounts.csv layout. Tenant
// cells are ignored; init rewrites them for the new tenant.
func readChart(path string) ([]model.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart: %w", err)
	}
	defer f.Close()

	chart, err := accounts.ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart %s: %w", path, err)
	}
	if len(chart) == 0 {
		return nil, fmt.Errorf("chart %s has no accounts", path)
	}
	seen := make(map[int64]bool, len(chart))
	for _, a := range chart {
		if !a.Type.Valid() {
			return nil, fmt.Errorf("chart %s: account %d has unknown type %q", path, a.ID, a.Type)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("chart %s: duplicate account id %d", path, a.ID)
		}
		seen[a.ID] = true
	}
	return chart, nil
}

func runInit(dir, tenant string, chart []model.Account, demo bool, now time.Time) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	if err := os.MkdirAll(filepath.Join(dir, dataDir), 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dataDir, err)
	}

	if err := config.Save(cfgPath, config.Default(tenant)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	var entries []model.PostedEntry
	var jobs []model.Job
	if demo {
		entries = demoEntries(now)
		jobs = demoJobs()
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"accounts.csv", func(w io.Writer) error {
			return accounts.WriteAccounts(w, tenant, chart)
		}},
		{"journal_entries.csv", func(w io.Writer) error { return journal.WriteEntries(w, tenant, entries) }},
		{"journal_entry_lines.csv", func(w io.Writer) error { return journal.WriteLines(w, entries) }},
		{"jobs.csv", func(w io.Writer) error { return ledger.WriteJobs(w, tenant, jobs) }},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, dataDir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// demoEntries returns a small month of activity against the default chart
// account ids:
// an owner contribution, a paid invoice, a payroll run and a draft bill.
func demoEntries(now time.Time) []model.PostedEntry {
	year, month, _ := now.Date()
	day := func(d int) time.Time { return time.Date(year, month, d, 0, 0, 0, 0, time.UTC) }

	type leg struct {
		account int64
		debit   int64
		credit  int64
	}
	specs := []struct {
		date   time.Time
		ref    string
		status model.EntryStatus
		desc   string
		legs   []leg
	}{
		{day(1), "CAP-1", model.StatusPosted, "Owner contribution", []leg{{1010, 5000, 0}, {3000, 0, 5000}}},
		{day(2), "INV-1001", model.StatusPosted, "Consulting invoice paid", []leg{{1010, 2400, 0}, {4000, 0, 2400}}},
		{day(3), "PAY-1", model.StatusPosted, "Payroll", []leg{{5100, 1500, 0}, {1010, 0, 1500}}},
		{day(4), "BILL-77", model.StatusDraft, "Software subscription", []leg{{5300, 200, 0}, {1010, 0, 200}}},
	}

	entries := make([]model.PostedEntry, 0, len(specs))
	var lineID int64
	for i, s := range specs {
		entryID := int64(i + 1)
		pe := model.PostedEntry{Entry: model.JournalEntry{
			ID:          entryID,
			EntryNumber: id.FormatEntryNumber(year, int(month), i+1),
			EntryDate:   s.date,
			Reference:   s.ref,
			Status:      s.status,
			Description: s.desc,
		}}
		for n, l := range s.legs {
			lineID++
			pe.Lines = append(pe.Lines, model.JournalEntryLine{
				ID:           lineID,
				EntryID:      entryID,
				LineNumber:   n + 1,
				AccountID:    l.account,
				DebitAmount:  decimal.NewFromInt(l.debit),
				CreditAmount: decimal.NewFromInt(l.credit),
			})
		}
		entries = append(entries, pe)
	}
	return entries
}

func demoJobs() []model.Job {
	margin := decimal.RequireFromString("0.25")
	return []model.Job{
		{ID: 1, JobNumber: "J-001", Title: "Website rebuild", Budget: decimal.NewFromInt(10000), ActualCost: decimal.NewFromInt(6500), ProfitMargin: &margin, Status: "active"},
		{ID: 2, JobNumber: "J-002", Title: "Support retainer", Budget: decimal.NewFromInt(3000), ActualCost: decimal.NewFromInt(3400), Status: "completed"},
	}
}
