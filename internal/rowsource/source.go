// Package rowsource defines the storage primitives the ledger reads through:
// filtered, ordered selects against a named table and parameterized raw
// queries. Implementations live in this package (Memory) and in the
// sqlsource and gormsource subpackages.
package rowsource

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUndefinedColumn is returned when a query names a column the table lacks.
	ErrUndefinedColumn = errors.New("undefined column")
	// ErrUnknownTable is returned when a query names a table the source lacks.
	ErrUnknownTable = errors.New("unknown table")
	// ErrRawQueryUnsupported is returned by sources that cannot execute SQL.
	ErrRawQueryUnsupported = errors.New("raw query unsupported")
)

// Op is a comparison operator in a where condition.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpIn Op = "in"
)

// Cond is a single (column, op, value) filter. For OpIn, Value is a []any.
type Cond struct {
	Column string
	Op     Op
	Value  any
}

// Eq builds an equality condition.
func Eq(column string, value any) Cond {
	return Cond{Column: column, Op: OpEq, Value: value}
}

// Ne builds an inequality condition.
func Ne(column string, value any) Cond {
	return Cond{Column: column, Op: OpNe, Value: value}
}

// In builds a set-membership condition.
func In(column string, values ...any) Cond {
	return Cond{Column: column, Op: OpIn, Value: values}
}

// Query selects rows matching every condition, ordered by OrderBy
// ("col [asc|desc], ..."). Columns restricts the returned columns; empty
// means all of them. Limit <= 0 means unlimited.
type Query struct {
	Columns []string
	Where   []Cond
	OrderBy string
	Limit   int
}

// Reader is the read surface of a row source.
type Reader interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	RawQuery(ctx context.Context, query string, params ...any) ([]Row, error)
}

// Source is a row source that can hand out a consistent read snapshot.
type Source interface {
	Reader
	// Snapshot runs fn against a reader that observes a single consistent
	// view of the data for its whole duration.
	Snapshot(ctx context.Context, fn func(Reader) error) error
	// IsUndefinedColumn reports whether err is this source's
	// missing-column error.
	IsUndefinedColumn(err error) bool
	Close() error
}

// OrderTerm is one parsed element of an ORDER BY clause.
type OrderTerm struct {
	Column string
	Desc   bool
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether s is safe to splice into SQL as an identifier.
func ValidIdent(s string) bool {
	return identRe.MatchString(s)
}

// ParseOrderBy parses "entry_date desc, id" into order terms.
func ParseOrderBy(s string) ([]OrderTerm, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var terms []OrderTerm
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("invalid order by term %q", part)
		}
		if !ValidIdent(fields[0]) {
			return nil, fmt.Errorf("invalid order by column %q", fields[0])
		}
		term := OrderTerm{Column: fields[0]}
		if len(fields) == 2 {
			switch strings.ToLower(fields[1]) {
			case "asc":
			case "desc":
				term.Desc = true
			default:
				return nil, fmt.Errorf("invalid order by direction %q", fields[1])
			}
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// Rebind rewrites "?" placeholders to "$1", "$2", ... for Postgres-style
// drivers. Question marks inside single-quoted literals are left alone.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			fmt.Fprintf(&b, "$%d", n)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
