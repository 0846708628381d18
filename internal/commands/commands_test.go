package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/glengine/internal/accounts"
	"github.com/cleared-dev/glengine/internal/commands"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/ledger"
	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/period"
	"github.com/cleared-dev/glengine/internal/report"
)

// execute runs the root command in-process and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := commands.NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// demoProject initializes a seeded project and returns its config path.
func demoProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := execute(t, "init", dir, "--tenant", "acme", "--demo")
	require.NoError(t, err)
	return filepath.Join(dir, config.FileName)
}

func thisMonth() string {
	return period.Of(time.Now()).String()
}

func TestBalancesCommand(t *testing.T) {
	cfg := demoProject(t)

	out, err := execute(t, "balances", "--config", cfg)
	require.NoError(t, err)

	var rep ledger.BalanceReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "acme", rep.Tenant)

	got := map[int64]string{}
	for _, b := range rep.Balances {
		got[b.AccountID] = b.Balance.String()
	}
	assert.Equal(t, "5900", got[1010])
	assert.Equal(t, "5000", got[3000])
	assert.Equal(t, "2400", got[4000])
	assert.Equal(t, "1500", got[5100])
	assert.Equal(t, "0", got[5300], "draft bill is not posted")
	assert.Empty(t, rep.Anomalies)
	assert.Equal(t, "5900", rep.Totals[model.AccountTypeAsset].String())
	assert.Equal(t, "1500", rep.Totals[model.AccountTypeExpense].String())
}

func TestBalancesCommand_UnknownTenantIsEmpty(t *testing.T) {
	cfg := demoProject(t)

	out, err := execute(t, "balances", "--config", cfg, "--tenant", "other")
	require.NoError(t, err)

	var rep ledger.BalanceReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "other", rep.Tenant)
	assert.Empty(t, rep.Balances)
}

func TestTransactionsCommand(t *testing.T) {
	cfg := demoProject(t)

	out, err := execute(t, "transactions", "--config", cfg)
	require.NoError(t, err)

	var feed struct {
		Transactions []struct {
			EntryID   int64  `json:"entry_id"`
			Category  string `json:"category"`
			Direction string `json:"direction"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &feed))
	require.Len(t, feed.Transactions, 6, "three posted entries with two lines each")
	assert.Equal(t, int64(3), feed.Transactions[0].EntryID, "newest first")
	assert.Equal(t, int64(1), feed.Transactions[5].EntryID)
}

func TestSummaryCommand(t *testing.T) {
	cfg := demoProject(t)

	out, err := execute(t, "summary", "--config", cfg, "--month", thisMonth())
	require.NoError(t, err)

	var sum map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, thisMonth(), sum["month"])
	assert.Equal(t, "2400", sum["monthly_income"])
	assert.Equal(t, "1500", sum["monthly_expenses"])
	assert.Equal(t, "900", sum["net_profit"])
}

func TestSummaryCommand_BadMonth(t *testing.T) {
	cfg := demoProject(t)

	_, err := execute(t, "summary", "--config", cfg, "--month", "2024-13")
	require.Error(t, err)
	assert.ErrorIs(t, err, period.ErrBadMonth)
}

func TestReportCommand_Single(t *testing.T) {
	cfg := demoProject(t)

	out, err := execute(t, "report", report.NameProfitAndLoss, "--config", cfg)
	require.NoError(t, err)

	var pl report.ProfitAndLoss
	require.NoError(t, json.Unmarshal([]byte(out), &pl))
	assert.Equal(t, "2400", pl.TotalRevenue.String())
	assert.Equal(t, "1500", pl.TotalExpenses.String())
	assert.Equal(t, "900", pl.NetIncome.String())
}

func TestReportCommand_All(t *testing.T) {
	cfg := demoProject(t)

	out, err := execute(t, "report", "all", "--config", cfg, "--month", thisMonth())
	require.NoError(t, err)

	var batch report.Batch
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.Equal(t, "acme", batch.Tenant)
	assert.NotEmpty(t, batch.RunID)
	assert.Equal(t, "5900", batch.CashFlow.Total.String())
	assert.False(t, batch.JobsUnavailable)
	require.Len(t, batch.JobProfitability, 2)
	assert.Equal(t, "3500", batch.JobProfitability[0].Profit.String())
	assert.Equal(t, "-400", batch.JobProfitability[1].Profit.String())
	assert.Nil(t, batch.JobProfitability[1].ProfitMargin)
}

func TestReportCommand_Unknown(t *testing.T) {
	cfg := demoProject(t)

	_, err := execute(t, "report", "cash-position", "--config", cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, report.ErrUnknownReport)
}

func TestValidateCommand(t *testing.T) {
	cfg := demoProject(t)

	out, err := execute(t, "validate", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "All journal entries are valid.")
}

func TestValidateCommand_Unbalanced(t *testing.T) {
	cfg := demoProject(t)

	lines := filepath.Join(filepath.Dir(cfg), "data", "journal_entry_lines.csv")
	f, err := os.OpenFile(lines, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("99,2,3,5000,10.00,,stray\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := execute(t, "validate", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation problem")
	assert.Contains(t, out, "invariant 1")
}

func TestExportCommand_CSV(t *testing.T) {
	cfg := demoProject(t)

	out, err := execute(t, "export", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"Chart of Accounts"`)
	assert.Contains(t, out, `"Journal Entries"`)
	assert.Contains(t, out, `"Software subscription"`, "export includes draft entries")
	assert.Contains(t, out, `"Monthly Summary"`)
}

func TestExportCommand_XLSX(t *testing.T) {
	cfg := demoProject(t)
	path := filepath.Join(t.TempDir(), "ledger.xlsx")

	_, err := execute(t, "export", "--config", cfg, "--format", "xlsx", "--out", path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Trial Balance")
	assert.Contains(t, f.GetSheetList(), "Job Profitability")
}

func TestExportCommand_BadFormat(t *testing.T) {
	cfg := demoProject(t)

	_, err := execute(t, "export", "--config", cfg, "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}

func TestCommands_MissingConfig(t *testing.T) {
	_, err := execute(t, "balances", "--config", filepath.Join(t.TempDir(), config.FileName))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestCommands_InvalidConfig(t *testing.T) {
	cfg := demoProject(t)
	c, err := config.Load(cfg)
	require.NoError(t, err)
	c.TenantFiltering = "sometimes"
	require.NoError(t, config.Save(cfg, c))

	_, err = execute(t, "balances", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func writeChart(t *testing.T, chart []model.Account) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chart.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, accounts.WriteAccounts(f, "template", chart))
	require.NoError(t, f.Close())
	return path
}

func TestInitCommand_CustomChart(t *testing.T) {
	chart := writeChart(t, []model.Account{
		{ID: 1, Code: "100", Name: "Till", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 2, Code: "400", Name: "Sales", Type: model.AccountTypeRevenue, IsActive: true},
	})
	dir := t.TempDir()
	_, err := execute(t, "init", dir, "--tenant", "acme", "--chart", chart)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "data", "accounts.csv"))
	require.NoError(t, err)
	defer f.Close()
	got, err := accounts.ReadAccounts(f)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Till", got[0].Name)

	out, err := execute(t, "balances", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	var rep ledger.BalanceReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Len(t, rep.Balances, 2)
	assert.True(t, rep.Totals[model.AccountTypeAsset].IsZero())
}

func TestInitCommand_ChartRejectsUnknownType(t *testing.T) {
	chart := writeChart(t, []model.Account{
		{ID: 1, Code: "100", Name: "Till", Type: model.AccountType("cash"), IsActive: true},
	})
	_, err := execute(t, "init", t.TempDir(), "--tenant", "acme", "--chart", chart)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestInitCommand_ChartAndDemoConflict(t *testing.T) {
	chart := writeChart(t, accounts.DefaultChart())
	_, err := execute(t, "init", t.TempDir(), "--tenant", "acme", "--chart", chart, "--demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--chart")
}

func TestCommands_MalformedDotEnv(t *testing.T) {
	cfg := demoProject(t)
	work := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, ".env"), []byte("THIS LINE HAS NO SEPARATOR\n"), 0o644))
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(work))
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	_, err = execute(t, "balances", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading .env")
}
