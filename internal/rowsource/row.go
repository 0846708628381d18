package rowsource

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one record keyed by column name. Values are whatever the driver
// produced: string, []byte, int64, float64, bool, time.Time,
// decimal.Decimal or nil.
type Row map[string]any

// Has reports whether the row carries a non-nil value for col.
func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

// String returns the column rendered as text; nil becomes "".
func (r Row) String(col string) string {
	return text(r[col])
}

// Int64 parses the column as an integer; nil becomes 0.
func (r Row) Int64(col string) (int64, error) {
	switch v := r[col].(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		s := strings.TrimSpace(text(v))
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: parsing integer %q: %w", col, s, err)
		}
		return n, nil
	}
}

// Decimal parses the column as a decimal; nil becomes zero.
func (r Row) Decimal(col string) (decimal.Decimal, error) {
	switch v := r[col].(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return v, nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		s := strings.TrimSpace(text(v))
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("column %s: parsing decimal %q: %w", col, s, err)
		}
		return d, nil
	}
}

// NullDecimal is Decimal but returns nil for a missing or empty value.
func (r Row) NullDecimal(col string) (*decimal.Decimal, error) {
	if !r.Has(col) || strings.TrimSpace(r.String(col)) == "" {
		return nil, nil
	}
	d, err := r.Decimal(col)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var timeLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Time parses the column as a date or timestamp; nil becomes the zero time.
func (r Row) Time(col string) (time.Time, error) {
	if t, ok := asTime(r[col]); ok {
		return t, nil
	}
	s := strings.TrimSpace(text(r[col]))
	if s == "" {
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("column %s: parsing time %q", col, s)
}

// Bool parses the column as a boolean; nil becomes false.
func (r Row) Bool(col string) (bool, error) {
	switch v := r[col].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	default:
		s := strings.ToLower(strings.TrimSpace(text(v)))
		switch s {
		case "", "0", "f", "false", "n", "no":
			return false, nil
		case "1", "t", "true", "y", "yes":
			return true, nil
		}
		return false, fmt.Errorf("column %s: parsing bool %q", col, s)
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string, []byte:
		s := strings.TrimSpace(text(t))
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
