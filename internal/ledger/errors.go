package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleared-dev/glengine/internal/rowsource"
)

// ErrSourceUnavailable marks a failed read from the row source.
var ErrSourceUnavailable = errors.New("row source unavailable")

// ErrSchemaMismatch is returned when strict tenant filtering meets a table
// without a tenant column.
var ErrSchemaMismatch = rowsource.ErrSchemaMismatch

// SourceError names the read that failed. It wraps either
// ErrSourceUnavailable or ErrSchemaMismatch together with the cause.
type SourceError struct {
	Op  string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func sourceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, ErrSchemaMismatch) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &SourceError{Op: op, Err: err}
	}
	return &SourceError{Op: op, Err: fmt.Errorf("%w: %w", ErrSourceUnavailable, err)}
}
