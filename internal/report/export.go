package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/model"
)

// Section is one labelled table of an export.
type Section struct {
	Title   string
	Columns []string
	Rows    [][]any
}

// ExportData is everything that goes into a full export.
type ExportData struct {
	Accounts     []model.Account
	Balances     Balances
	Entries      []model.PostedEntry
	Transactions []model.DerivedTransaction
	Batch        *Batch
}

// Sections lays out a full export in a fixed order: chart of accounts,
// journal, transactions, then one section per report.
func Sections(d ExportData) []Section {
	codes := make(map[int64]string, len(d.Accounts))
	for _, a := range d.Accounts {
		codes[a.ID] = a.Code
	}

	out := []Section{
		chartSection(d.Accounts, d.Balances),
		journalSection(d.Entries, codes),
		transactionsSection(d.Transactions, codes),
	}
	if d.Batch != nil {
		out = append(out, batchSections(d.Batch)...)
	}
	return out
}

func chartSection(accts []model.Account, balances Balances) Section {
	s := Section{Title: "Chart of Accounts", Columns: []string{"Code", "Name", "Type", "Subtype", "Active", "Balance"}}
	for _, a := range accts {
		s.Rows = append(s.Rows, []any{a.Code, a.Name, string(a.Type), string(a.Subtype), a.IsActive, balances.Get(a.ID)})
	}
	return s
}

func journalSection(entries []model.PostedEntry, codes map[int64]string) Section {
	s := Section{Title: "Journal Entries", Columns: []string{"Entry", "Date", "Status", "Reference", "Description", "Line", "Account", "Debit", "Credit"}}
	for _, pe := range entries {
		e := pe.Entry
		for _, l := range pe.Lines {
			desc := l.Description
			if desc == "" {
				desc = e.Description
			}
			s.Rows = append(s.Rows, []any{
				e.EntryNumber, e.EntryDate, string(e.Status), e.Reference, desc,
				l.LineNumber, accountLabel(codes, l.AccountID), l.DebitAmount, l.CreditAmount,
			})
		}
	}
	return s
}

func transactionsSection(txns []model.DerivedTransaction, codes map[int64]string) Section {
	s := Section{Title: "Transactions", Columns: []string{"Date", "Entry", "Account", "Description", "Category", "Direction", "Amount", "Running Balance", "Reference"}}
	for _, tx := range txns {
		s.Rows = append(s.Rows, []any{
			tx.Date, tx.EntryNumber, accountLabel(codes, tx.AccountID), tx.Description,
			string(tx.Category), string(tx.Direction), tx.Amount, tx.RunningBalance, tx.Reference,
		})
	}
	return s
}

func accountLabel(codes map[int64]string, id int64) string {
	if c, ok := codes[id]; ok {
		return c
	}
	return strconv.FormatInt(id, 10)
}

func amountRows(kind string, accts []AccountAmount, total decimal.Decimal) [][]any {
	var rows [][]any
	for _, a := range accts {
		rows = append(rows, []any{kind, a.Code, a.Name, a.Balance})
	}
	return append(rows, []any{kind, "", "Total " + kind, total})
}

func batchSections(b *Batch) []Section {
	tb := Section{Title: "Trial Balance", Columns: []string{"Code", "Name", "Type", "Balance"}}
	for _, r := range b.TrialBalance {
		tb.Rows = append(tb.Rows, []any{r.Code, r.Name, string(r.AccountType), r.Balance})
	}

	bs := Section{Title: "Balance Sheet", Columns: []string{"Section", "Code", "Name", "Balance"}}
	bs.Rows = append(bs.Rows, amountRows("Assets", b.BalanceSheet.Assets, b.BalanceSheet.TotalAssets)...)
	bs.Rows = append(bs.Rows, amountRows("Liabilities", b.BalanceSheet.Liabilities, b.BalanceSheet.TotalLiabilities)...)
	bs.Rows = append(bs.Rows, amountRows("Equity", b.BalanceSheet.Equity, b.BalanceSheet.TotalEquity)...)

	pl := Section{Title: "Profit and Loss", Columns: []string{"Section", "Code", "Name", "Balance"}}
	pl.Rows = append(pl.Rows, amountRows("Revenue", b.ProfitAndLoss.Revenue, b.ProfitAndLoss.TotalRevenue)...)
	pl.Rows = append(pl.Rows, amountRows("Expenses", b.ProfitAndLoss.Expenses, b.ProfitAndLoss.TotalExpenses)...)
	pl.Rows = append(pl.Rows, []any{"Net Income", "", "", b.ProfitAndLoss.NetIncome})

	cf := Section{Title: "Cash Flow", Columns: []string{"Section", "Code", "Name", "Balance"}}
	cf.Rows = amountRows("Cash", b.CashFlow.Accounts, b.CashFlow.Total)

	jp := Section{Title: "Job Profitability", Columns: []string{"Job", "Title", "Budget", "Actual Cost", "Profit", "Margin", "Status"}}
	for _, j := range b.JobProfitability {
		jp.Rows = append(jp.Rows, []any{j.JobNumber, j.Title, j.Budget, j.ActualCost, j.Profit, j.ProfitMargin, j.Status})
	}

	ms := b.MonthlySummary
	sum := Section{
		Title:   "Monthly Summary",
		Columns: []string{"Month", "Income", "Expenses", "Net Profit", "Total Balance"},
		Rows:    [][]any{{ms.Month, ms.MonthlyIncome, ms.MonthlyExpenses, ms.NetProfit, ms.TotalBalance}},
	}
	return []Section{tb, bs, pl, cf, jp, sum}
}

// WriteCSV writes the sections as one flat CSV document: a title row, a
// header row and the data rows, with a blank line between sections. Text
// fields are always quoted; numbers never are.
func WriteCSV(w io.Writer, sections []Section) error {
	bw := bufio.NewWriter(w)
	for i, s := range sections {
		if i > 0 {
			bw.WriteString("\n")
		}
		writeRecord(bw, []any{s.Title})
		header := make([]any, len(s.Columns))
		for j, c := range s.Columns {
			header[j] = c
		}
		writeRecord(bw, header)
		for _, row := range s.Rows {
			writeRecord(bw, row)
		}
	}
	return bw.Flush()
}

func writeRecord(bw *bufio.Writer, fields []any) {
	for i, f := range fields {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteString(csvField(f))
	}
	bw.WriteString("\n")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func csvField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return quote(t)
	case time.Time:
		return quote(t.Format("2006-01-02"))
	case decimal.Decimal:
		return t.StringFixed(2)
	case *decimal.Decimal:
		if t == nil {
			return ""
		}
		return t.StringFixed(2)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return quote(fmt.Sprint(t))
	}
}
