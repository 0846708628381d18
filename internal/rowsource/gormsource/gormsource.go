// Package gormsource implements rowsource.Source on GORM with the MySQL
// dialect.
package gormsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cleared-dev/glengine/internal/rowsource"
)

// errBadFieldError is MySQL's "Unknown column" error number.
const errBadFieldError = 1054

// Source is a GORM-backed row source.
type Source struct {
	db *gorm.DB
}

// Open connects to MySQL through GORM.
func Open(dsn string) (*Source, error) {
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing GORM handle.
func New(db *gorm.DB) *Source {
	return &Source{db: db}
}

// Select implements rowsource.Reader.
func (s *Source) Select(ctx context.Context, table string, q rowsource.Query) ([]rowsource.Row, error) {
	return selectRows(s.db.WithContext(ctx), table, q)
}

// RawQuery implements rowsource.Reader.
func (s *Source) RawQuery(ctx context.Context, query string, params ...any) ([]rowsource.Row, error) {
	return rawQuery(s.db.WithContext(ctx), query, params...)
}

// Snapshot runs fn inside one read-only REPEATABLE READ transaction.
func (s *Source) Snapshot(ctx context.Context, fn func(rowsource.Reader) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txReader{tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

// IsUndefinedColumn implements rowsource.Source.
func (s *Source) IsUndefinedColumn(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errBadFieldError
	}
	return false
}

// Close closes the underlying pool.
func (s *Source) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

type txReader struct{ tx *gorm.DB }

func (r txReader) Select(ctx context.Context, table string, q rowsource.Query) ([]rowsource.Row, error) {
	return selectRows(r.tx.WithContext(ctx), table, q)
}

func (r txReader) RawQuery(ctx context.Context, query string, params ...any) ([]rowsource.Row, error) {
	return rawQuery(r.tx.WithContext(ctx), query, params...)
}

func selectRows(db *gorm.DB, table string, q rowsource.Query) ([]rowsource.Row, error) {
	if !rowsource.ValidIdent(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	tx := db.Table(table)
	if len(q.Columns) > 0 {
		for _, col := range q.Columns {
			if !rowsource.ValidIdent(col) {
				return nil, fmt.Errorf("invalid column name %q", col)
			}
		}
		tx = tx.Select(q.Columns)
	}
	for _, c := range q.Where {
		if !rowsource.ValidIdent(c.Column) {
			return nil, fmt.Errorf("invalid column name %q", c.Column)
		}
		switch c.Op {
		case rowsource.OpEq:
			tx = tx.Where(c.Column+" = ?", c.Value)
		case rowsource.OpNe:
			tx = tx.Where(c.Column+" <> ?", c.Value)
		case rowsource.OpIn:
			vals, _ := c.Value.([]any)
			if len(vals) == 0 {
				return nil, nil
			}
			tx = tx.Where(c.Column+" IN ?", vals)
		default:
			return nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
	}
	terms, err := rowsource.ParseOrderBy(q.OrderBy)
	if err != nil {
		return nil, err
	}
	for _, t := range terms {
		if t.Desc {
			tx = tx.Order(t.Column + " DESC")
		} else {
			tx = tx.Order(t.Column)
		}
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var results []map[string]any
	if err := tx.Find(&results).Error; err != nil {
		return nil, err
	}
	return toRows(results), nil
}

func rawQuery(db *gorm.DB, query string, params ...any) ([]rowsource.Row, error) {
	var results []map[string]any
	if err := db.Raw(query, params...).Scan(&results).Error; err != nil {
		return nil, err
	}
	return toRows(results), nil
}

func toRows(results []map[string]any) []rowsource.Row {
	rows := make([]rowsource.Row, len(results))
	for i, r := range results {
		rows[i] = rowsource.Row(r)
	}
	return rows
}
