package rowsource

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	got := Rebind("SELECT * FROM t WHERE a = ? AND b = '?' AND c IN (?, ?)")
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = '?' AND c IN ($2, $3)", got)
}

func TestParseOrderBy(t *testing.T) {
	terms, err := ParseOrderBy("entry_date DESC, id")
	require.NoError(t, err)
	assert.Equal(t, []OrderTerm{{Column: "entry_date", Desc: true}, {Column: "id"}}, terms)

	terms, err = ParseOrderBy("")
	require.NoError(t, err)
	assert.Nil(t, terms)

	for _, bad := range []string{"id; drop table x", "id sideways", "a b c", ","} {
		_, err := ParseOrderBy(bad)
		assert.Error(t, err, "ParseOrderBy(%q)", bad)
	}
}

func TestRowConversions(t *testing.T) {
	r := Row{
		"id":       []byte("42"),
		"amount":   []byte("100.25"),
		"float":    float64(1.5),
		"date":     "2024-01-05",
		"ts":       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		"active":   int64(1),
		"flag":     "false",
		"empty":    nil,
		"dec":      decimal.NewFromInt(7),
		"margin":   "",
		"bad_date": "soon",
	}

	id, err := r.Int64("id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	amt, err := r.Decimal("amount")
	require.NoError(t, err)
	assert.Equal(t, "100.25", amt.String())

	f, err := r.Decimal("float")
	require.NoError(t, err)
	assert.Equal(t, "1.5", f.String())

	d, err := r.Decimal("dec")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(7)))

	date, err := r.Time("date")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), date)

	ts, err := r.Time("ts")
	require.NoError(t, err)
	assert.Equal(t, 2, int(ts.Month()))

	_, err = r.Time("bad_date")
	assert.Error(t, err)

	active, err := r.Bool("active")
	require.NoError(t, err)
	assert.True(t, active)

	flag, err := r.Bool("flag")
	require.NoError(t, err)
	assert.False(t, flag)

	zero, err := r.Decimal("empty")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	margin, err := r.NullDecimal("margin")
	require.NoError(t, err)
	assert.Nil(t, margin)

	_, err = Row{"n": "abc"}.Int64("n")
	assert.Error(t, err)
}
