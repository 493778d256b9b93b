package duckdb

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var (
	// ErrInvalidArgument is returned for an empty column name or a malformed function name.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMultipleRows is returned by Column.Single when the query yields more than one row.
	ErrMultipleRows = errors.New("query returned more than one row")
)

// Error is raised by the column accessor itself. Errors coming from the
// database driver are returned unchanged and never wrapped in Error.
type Error struct {
	Op     string
	Column string
	Err    error
}

func (e *Error) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("duckdb column %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("duckdb column %q %s: %v", e.Column, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorReporter receives accessor errors before they are returned to the
// caller. The returned error is what the caller sees.
type ErrorReporter interface {
	ReportError(err error) error
}

// LogReporter logs every reported error at warn level and returns it unchanged.
type LogReporter struct {
	Logger zerolog.Logger
}

// ReportError implements ErrorReporter.
func (r LogReporter) ReportError(err error) error {
	var colErr *Error
	if errors.As(err, &colErr) {
		r.Logger.Warn().
			Err(colErr.Err).
			Str("column", colErr.Column).
			Str("op", colErr.Op).
			Msg("Column accessor error")
		return err
	}
	r.Logger.Warn().Err(err).Msg("Column accessor error")
	return err
}

// throw hands err to reporter when one is configured.
func throw(reporter ErrorReporter, err error) error {
	if reporter == nil {
		return err
	}
	return reporter.ReportError(err)
}
