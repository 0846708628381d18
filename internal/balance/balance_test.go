package balance

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/glengine/internal/accounts"
	"github.com/cleared-dev/glengine/internal/journal"
	"github.com/cleared-dev/glengine/internal/ledgertest"
	"github.com/cleared-dev/glengine/internal/model"
)

func load(t *testing.T, f *ledgertest.Fixture) (*accounts.Service, []model.PostedEntry) {
	t.Helper()
	catalog, err := accounts.Load(context.Background(), f.Src, f.Scope())
	require.NoError(t, err)
	entries, err := journal.Load(context.Background(), f.Src, f.Scope())
	require.NoError(t, err)
	return catalog, entries
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, ledgertest.Dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestSigned(t *testing.T) {
	debits, credits := ledgertest.Dec("100"), ledgertest.Dec("30")
	assertDec(t, "70", Signed(model.AccountTypeAsset, debits, credits))
	assertDec(t, "70", Signed(model.AccountTypeExpense, debits, credits))
	assertDec(t, "-70", Signed(model.AccountTypeLiability, debits, credits))
	assertDec(t, "-70", Signed(model.AccountTypeEquity, debits, credits))
	assertDec(t, "-70", Signed(model.AccountTypeRevenue, debits, credits))
}

func TestFromLines_AssetDebitNormal(t *testing.T) {
	f := ledgertest.New(t, "acme").Standard()
	f.Entry(1, "JE-1", "2024-01-01", model.StatusPosted, ledgertest.Dr(ledgertest.Cash, "100"), ledgertest.Cr(ledgertest.Equity, "100"))
	f.Entry(2, "JE-2", "2024-01-02", model.StatusPosted, ledgertest.Dr(ledgertest.Expense, "30"), ledgertest.Cr(ledgertest.Cash, "30"))
	catalog, entries := load(t, f)

	r := FromLines(catalog, entries)
	assertDec(t, "70", r.Get(ledgertest.Cash))
	assertDec(t, "100", r.Get(ledgertest.Equity))
	assertDec(t, "30", r.Get(ledgertest.Expense))
	assert.Empty(t, r.Anomalies)
}

func TestFromLines_LiabilityWithSamePostings(t *testing.T) {
	f := ledgertest.New(t, "acme").Standard()
	f.Entry(1, "JE-1", "2024-01-01", model.StatusPosted, ledgertest.Dr(ledgertest.Payable, "100"), ledgertest.Cr(ledgertest.Equity, "100"))
	f.Entry(2, "JE-2", "2024-01-02", model.StatusPosted, ledgertest.Dr(ledgertest.Equity, "30"), ledgertest.Cr(ledgertest.Payable, "30"))
	catalog, entries := load(t, f)

	r := FromLines(catalog, entries)
	assertDec(t, "-70", r.Get(ledgertest.Payable))
	assertDec(t, "70", r.Get(ledgertest.Equity))
}

func TestFromLines_January2024Scenario(t *testing.T) {
	f := ledgertest.New(t, "acme").Standard().January2024()
	catalog, entries := load(t, f)

	r := FromLines(catalog, entries)
	assertDec(t, "300", r.Get(ledgertest.Cash))
	assertDec(t, "500", r.Get(ledgertest.Revenue))
	assertDec(t, "200", r.Get(ledgertest.Expense))
	assertDec(t, "0", r.Get(ledgertest.Bank))
	assert.Len(t, r.Balances, len(catalog.All()), "every account has a balance, including zero")
}

func TestFromLines_DraftAndReversedExcluded(t *testing.T) {
	f := ledgertest.New(t, "acme").Standard().January2024()
	f.Entry(3, "JE-3", "2024-01-12", model.StatusDraft, ledgertest.Dr(ledgertest.Cash, "1000"), ledgertest.Cr(ledgertest.Equity, "1000"))
	f.Entry(4, "JE-4", "2024-01-13", model.StatusReversed, ledgertest.Dr(ledgertest.Cash, "40"), ledgertest.Cr(ledgertest.Revenue, "40"))
	catalog, entries := load(t, f)
	require.Len(t, entries, 4, "load every status; the calculator must filter")

	r := FromLines(catalog, entries)
	assertDec(t, "300", r.Get(ledgertest.Cash))
	assertDec(t, "0", r.Get(ledgertest.Equity))
	assertDec(t, "500", r.Get(ledgertest.Revenue))
}

func TestFromLines_MissingAccountSkipped(t *testing.T) {
	f := ledgertest.New(t, "acme").Standard().January2024()
	f.Entry(3, "JE-3", "2024-01-15", model.StatusPosted, ledgertest.Dr(ledgertest.Unlisted, "75"), ledgertest.Cr(ledgertest.Cash, "75"))
	catalog, entries := load(t, f)

	r := FromLines(catalog, entries)
	assertDec(t, "225", r.Get(ledgertest.Cash), "the valid side still posts")
	_, tracked := r.Balances[ledgertest.Unlisted]
	assert.False(t, tracked)
	require.Len(t, r.Anomalies, 1)
	assert.Equal(t, model.AnomalyMissingAccount, r.Anomalies[0].Kind)
	assert.Equal(t, ledgertest.Unlisted, r.Anomalies[0].AccountID)
	assert.Equal(t, "JE-3", r.Anomalies[0].EntryNumber)
}

func TestFromLines_Idempotent(t *testing.T) {
	f := ledgertest.New(t, "acme").Standard().January2024()
	f.Entry(3, "JE-3", "2024-01-15", model.StatusPosted, ledgertest.Dr(ledgertest.Payroll, "33.33"), ledgertest.Cr(ledgertest.Bank, "33.33"))
	catalog, entries := load(t, f)

	first := FromLines(catalog, entries)
	second := FromLines(catalog, entries)
	require.Equal(t, len(first.Balances), len(second.Balances))
	for id, b := range first.Balances {
		assert.Equal(t, b.String(), second.Balances[id].String(), "account %d", id)
	}
}

func TestFromLines_Empty(t *testing.T) {
	f := ledgertest.New(t, "acme")
	catalog, entries := load(t, f)
	r := FromLines(catalog, entries)
	assert.Empty(t, r.Balances)
	assert.Empty(t, r.Anomalies)
}

func TestFromTotals_MatchesFromLines(t *testing.T) {
	f := ledgertest.New(t, "acme").Standard().January2024()
	f.Entry(3, "JE-3", "2024-01-15", model.StatusPosted, ledgertest.Dr(ledgertest.Unlisted, "75"), ledgertest.Cr(ledgertest.Cash, "75"))
	catalog, entries := load(t, f)

	totals := make(map[int64]journal.AccountTotals)
	for _, pe := range entries {
		for _, l := range pe.Lines {
			tt := totals[l.AccountID]
			tt.Debits = tt.Debits.Add(l.DebitAmount)
			tt.Credits = tt.Credits.Add(l.CreditAmount)
			totals[l.AccountID] = tt
		}
	}

	grouped := FromTotals(catalog, totals)
	perLine := FromLines(catalog, entries)
	for id, b := range perLine.Balances {
		assert.True(t, b.Equal(grouped.Get(id)), "account %d", id)
	}
	require.Len(t, grouped.Anomalies, 1)
	assert.Equal(t, ledgertest.Unlisted, grouped.Anomalies[0].AccountID)
}

func TestSumByTypeAndList(t *testing.T) {
	f := ledgertest.New(t, "acme").Standard().January2024()
	catalog, entries := load(t, f)
	r := FromLines(catalog, entries)

	assertDec(t, "300", r.SumByType(catalog, model.AccountTypeAsset))
	assertDec(t, "200", r.SumByType(catalog, model.AccountTypeExpense))

	list := r.List(catalog)
	require.Len(t, list, len(catalog.All()))
	assert.Equal(t, ledgertest.Cash, list[0].AccountID)
}
