package rowsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Table is an in-memory table: a fixed column set and its rows.
type Table struct {
	Columns []string
	Rows    []Row
}

func (t *Table) hasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Memory is a Source backed by in-memory tables. It is safe for concurrent
// use; Snapshot holds a read lock for the duration of the callback.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*Table)}
}

// CreateTable adds (or replaces) a table with the given columns.
func (m *Memory) CreateTable(name string, columns ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &Table{Columns: append([]string(nil), columns...)}
}

// Insert appends rows to a table. Every key must be a declared column.
func (m *Memory) Insert(table string, rows ...Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	for _, r := range rows {
		for col := range r {
			if !t.hasColumn(col) {
				return fmt.Errorf("%w: %s.%s", ErrUndefinedColumn, table, col)
			}
		}
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		t.Rows = append(t.Rows, cp)
	}
	return nil
}

// Update sets col = value on every row where match is true. It returns the
// number of rows changed.
func (m *Memory) Update(table string, match func(Row) bool, col string, value any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if !t.hasColumn(col) {
		return 0, fmt.Errorf("%w: %s.%s", ErrUndefinedColumn, table, col)
	}
	n := 0
	for _, r := range t.Rows {
		if match(r) {
			r[col] = value
			n++
		}
	}
	return n, nil
}

// Select implements Reader.
func (m *Memory) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectLocked(ctx, table, q)
}

// RawQuery implements Reader. The in-memory source has no SQL engine.
func (m *Memory) RawQuery(context.Context, string, ...any) ([]Row, error) {
	return nil, ErrRawQueryUnsupported
}

// Snapshot implements Source.
func (m *Memory) Snapshot(ctx context.Context, fn func(Reader) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(lockedMemory{m})
}

// IsUndefinedColumn implements Source.
func (m *Memory) IsUndefinedColumn(err error) bool {
	return errors.Is(err, ErrUndefinedColumn)
}

// Close implements Source.
func (m *Memory) Close() error { return nil }

func (m *Memory) selectLocked(ctx context.Context, table string, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	for _, c := range q.Where {
		if !t.hasColumn(c.Column) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUndefinedColumn, table, c.Column)
		}
	}
	for _, col := range q.Columns {
		if !t.hasColumn(col) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUndefinedColumn, table, col)
		}
	}
	terms, err := ParseOrderBy(q.OrderBy)
	if err != nil {
		return nil, err
	}
	for _, term := range terms {
		if !t.hasColumn(term.Column) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUndefinedColumn, table, term.Column)
		}
	}

	var out []Row
	for _, r := range t.Rows {
		if matches(r, q.Where) {
			cp := make(Row, len(r))
			for k, v := range r {
				cp[k] = v
			}
			out = append(out, cp)
		}
	}
	if len(terms) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, term := range terms {
				c := compare(out[i][term.Column], out[j][term.Column])
				if c == 0 {
					continue
				}
				if term.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if len(q.Columns) > 0 {
		for i, r := range out {
			proj := make(Row, len(q.Columns))
			for _, col := range q.Columns {
				proj[col] = r[col]
			}
			out[i] = proj
		}
	}
	return out, nil
}

type lockedMemory struct{ m *Memory }

func (l lockedMemory) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	return l.m.selectLocked(ctx, table, q)
}

func (l lockedMemory) RawQuery(ctx context.Context, query string, params ...any) ([]Row, error) {
	return l.m.RawQuery(ctx, query, params...)
}

func matches(r Row, where []Cond) bool {
	for _, c := range where {
		v := r[c.Column]
		switch c.Op {
		case OpEq:
			if !equal(v, c.Value) {
				return false
			}
		case OpNe:
			if equal(v, c.Value) {
				return false
			}
		case OpIn:
			vals, _ := c.Value.([]any)
			found := false
			for _, want := range vals {
				if equal(v, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// equal reports whether a cell matches a filter value. Numeric filter values
// match numerically so CSV text cells join against parsed ids; any other
// value must match the cell's text exactly.
func equal(cell, want any) bool {
	switch w := want.(type) {
	case int, int32, int64, uint64, float64:
		return compare(cell, w) == 0
	case decimal.Decimal:
		d, err := decimal.NewFromString(strings.TrimSpace(text(cell)))
		return err == nil && d.Equal(w)
	case bool:
		b, err := Row{"v": cell}.Bool("v")
		return err == nil && b == w
	default:
		return cell != nil && text(cell) == text(w)
	}
}

// compare orders two cell values: numerically when both parse as decimals,
// chronologically when both parse as times, textually otherwise.
func compare(a, b any) int {
	as, bs := text(a), text(b)
	if ad, err := decimal.NewFromString(as); err == nil {
		if bd, err := decimal.NewFromString(bs); err == nil {
			return ad.Cmp(bd)
		}
	}
	if at, ok := asTime(a); ok {
		if bt, ok := asTime(b); ok {
			return at.Compare(bt)
		}
	}
	return strings.Compare(as, bs)
}

// LoadCSVDir builds a Memory source from every *.csv file in dir. Each file
// becomes a table named after the file; the header row declares the columns
// and empty cells load as nil.
func LoadCSVDir(dir string) (*Memory, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	m := NewMemory()
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := m.loadCSVFile(name, path); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Memory) loadCSVFile(table, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if err := m.LoadCSV(table, f); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadCSV creates table from CSV data whose first record is the header.
func (m *Memory) LoadCSV(table string, r io.Reader) error {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("table %s: missing header row", table)
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	m.CreateTable(table, header...)

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if rec[i] == "" {
				row[col] = nil
				continue
			}
			row[col] = rec[i]
		}
		rows = append(rows, row)
	}
	return m.Insert(table, rows...)
}
