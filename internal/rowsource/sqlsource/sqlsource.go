// Package sqlsource implements rowsource.Source on database/sql with the
// Postgres driver.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/cleared-dev/glengine/internal/rowsource"
)

// undefinedColumn is the Postgres SQLSTATE for a missing column.
const undefinedColumn = "42703"

// Options configures the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Source is a Postgres-backed row source.
type Source struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string, opts Options) (*Source, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Source {
	return &Source{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Select implements rowsource.Reader.
func (s *Source) Select(ctx context.Context, table string, q rowsource.Query) ([]rowsource.Row, error) {
	return selectRows(ctx, s.db, table, q)
}

// RawQuery implements rowsource.Reader. Placeholders are written as "?".
func (s *Source) RawQuery(ctx context.Context, query string, params ...any) ([]rowsource.Row, error) {
	return rawQuery(ctx, s.db, query, params...)
}

// Snapshot runs fn inside one read-only REPEATABLE READ transaction so every
// read observes the same committed state.
func (s *Source) Snapshot(ctx context.Context, fn func(rowsource.Reader) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("beginning snapshot: %w", err)
	}
	defer tx.Rollback()

	if err := fn(txReader{tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ending snapshot: %w", err)
	}
	return nil
}

// IsUndefinedColumn implements rowsource.Source.
func (s *Source) IsUndefinedColumn(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == undefinedColumn
	}
	return false
}

// Close closes the pool.
func (s *Source) Close() error {
	return s.db.Close()
}

type txReader struct{ tx *sql.Tx }

func (r txReader) Select(ctx context.Context, table string, q rowsource.Query) ([]rowsource.Row, error) {
	return selectRows(ctx, r.tx, table, q)
}

func (r txReader) RawQuery(ctx context.Context, query string, params ...any) ([]rowsource.Row, error) {
	return rawQuery(ctx, r.tx, query, params...)
}

func selectRows(ctx context.Context, db queryer, table string, q rowsource.Query) ([]rowsource.Row, error) {
	query, args, err := BuildSelect(table, q)
	if err != nil {
		return nil, err
	}
	return rawQuery(ctx, db, query, args...)
}

func rawQuery(ctx context.Context, db queryer, query string, params ...any) ([]rowsource.Row, error) {
	rows, err := db.QueryContext(ctx, rowsource.Rebind(query), params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return ScanRows(rows)
}

// BuildSelect renders a Query as SQL with "?" placeholders.
func BuildSelect(table string, q rowsource.Query) (string, []any, error) {
	if !rowsource.ValidIdent(table) {
		return "", nil, fmt.Errorf("invalid table name %q", table)
	}
	var b strings.Builder
	var args []any
	b.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		b.WriteString("*")
	}
	for i, col := range q.Columns {
		if !rowsource.ValidIdent(col) {
			return "", nil, fmt.Errorf("invalid column name %q", col)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col)
	}
	b.WriteString(" FROM ")
	b.WriteString(table)

	for i, c := range q.Where {
		if !rowsource.ValidIdent(c.Column) {
			return "", nil, fmt.Errorf("invalid column name %q", c.Column)
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		switch c.Op {
		case rowsource.OpEq, rowsource.OpNe:
			fmt.Fprintf(&b, "%s %s ?", c.Column, sqlOp(c.Op))
			args = append(args, c.Value)
		case rowsource.OpIn:
			vals, _ := c.Value.([]any)
			if len(vals) == 0 {
				b.WriteString("1 = 0")
				continue
			}
			marks := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
			fmt.Fprintf(&b, "%s IN (%s)", c.Column, marks)
			args = append(args, vals...)
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
	}

	terms, err := rowsource.ParseOrderBy(q.OrderBy)
	if err != nil {
		return "", nil, err
	}
	for i, t := range terms {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(t.Column)
		if t.Desc {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), args, nil
}

func sqlOp(op rowsource.Op) string {
	if op == rowsource.OpNe {
		return "<>"
	}
	return "="
}

// ScanRows drains rows into column-keyed maps.
func ScanRows(rows *sql.Rows) ([]rowsource.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []rowsource.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(rowsource.Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
