package duckdb

import (
	"github.com/rs/zerolog"
)

// ResultSet pairs a query descriptor with the connection that runs it.
type ResultSet struct {
	db       Execer
	query    *Builder
	reporter ErrorReporter
	quoter   Quoter
	logger   zerolog.Logger

	cursor *Cursor
}

// ResultSetOption configures a ResultSet.
type ResultSetOption func(*ResultSet)

// WithErrorReporter routes accessor errors through r.
func WithErrorReporter(r ErrorReporter) ResultSetOption {
	return func(rs *ResultSet) {
		rs.reporter = r
	}
}

// WithQuoter overrides the quoting used to inline arguments (default DuckDBQuoter).
func WithQuoter(q Quoter) ResultSetOption {
	return func(rs *ResultSet) {
		rs.quoter = q
	}
}

// WithLogger sets the logger used for debug output and cleanup warnings.
func WithLogger(logger zerolog.Logger) ResultSetOption {
	return func(rs *ResultSet) {
		rs.logger = logger
	}
}

// NewResultSet wraps query. The builder is cloned, later changes by the
// caller are not seen by the result set.
func NewResultSet(db Execer, query *Builder, opts ...ResultSetOption) *ResultSet {
	rs := &ResultSet{
		db:     db,
		query:  query.Clone(),
		quoter: DuckDBQuoter{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Query returns a copy of the query descriptor.
func (rs *ResultSet) Query() *Builder {
	return rs.query.Clone()
}

// Search returns a new result set whose query is a modified copy of this one.
func (rs *ResultSet) Search(modify func(*Builder)) *ResultSet {
	q := rs.query.Clone()
	if modify != nil {
		modify(q)
	}
	return &ResultSet{
		db:       rs.db,
		query:    q,
		reporter: rs.reporter,
		quoter:   rs.quoter,
		logger:   rs.logger,
	}
}

// AsQuery returns the SQL text and arguments without executing anything.
func (rs *ResultSet) AsQuery() (string, []interface{}, error) {
	return rs.query.Build()
}

// Cursor returns the result set's cursor, creating it on first use.
func (rs *ResultSet) Cursor() (*Cursor, error) {
	if rs.cursor != nil {
		return rs.cursor, nil
	}
	q, args, err := rs.query.Build()
	if err != nil {
		return nil, err
	}
	rs.cursor = NewCursor(rs.db, q, args)
	return rs.cursor, nil
}

// Column returns an accessor restricted to one column of this result set.
func (rs *ResultSet) Column(name string) (*Column, error) {
	return NewColumn(rs, name)
}

// Quoter returns the value quoter.
func (rs *ResultSet) Quoter() Quoter {
	return rs.quoter
}

// Reporter returns the configured error reporter, or nil.
func (rs *ResultSet) Reporter() ErrorReporter {
	return rs.reporter
}
