package duckdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// pagedValueColumn names the single column of the inner query when an
// aggregate has to be computed over a LIMIT/OFFSET window.
const pagedValueColumn = "col_value"

// Column gives access to a single column of a result set.
//
// Iteration (Next, All, Reset, First) runs one column-restricted query that
// is built on first use and cached. Aggregates (Min, Max, Sum, Count,
// FuncAll, FuncOne) build a fresh query on every call.
type Column struct {
	db       Execer
	parent   *Builder
	name     string
	expr     string
	reporter ErrorReporter
	quoter   Quoter
	logger   zerolog.Logger

	iterQuery *Builder
	cursor    *Cursor
}

// NewColumn creates an accessor for the column called name.
//
// If name matches an output alias of the result set's select list, extra
// columns or prefetched columns, the expression behind that alias is used. Otherwise name is used verbatim.
// The result set's query is cloned and stripped of prefetched and extra
// columns; rs is left untouched.
func NewColumn(rs *ResultSet, name string) (*Column, error) {
	if rs == nil {
		return nil, &Error{Op: "new", Err: fmt.Errorf("%w: result set is required", ErrInvalidArgument)}
	}
	if strings.TrimSpace(name) == "" {
		return nil, throw(rs.reporter, &Error{Op: "new", Err: fmt.Errorf("%w: column name is required", ErrInvalidArgument)})
	}

	// Resolve before stripping: extra and prefetched columns may carry the alias.
	expr, ok := rs.query.ResolveColumn(name)
	if !ok {
		expr = name
	}

	parent := rs.query.Clone().WithoutExtraColumns()

	return &Column{
		db:       rs.db,
		parent:   parent,
		name:     name,
		expr:     expr,
		reporter: rs.reporter,
		quoter:   rs.quoter,
		logger:   rs.logger.With().Str("column", name).Logger(),
	}, nil
}

// Name returns the column name as requested by the caller.
func (c *Column) Name() string {
	return c.name
}

// Expr returns the select expression the column resolves to.
func (c *Column) Expr() string {
	return c.expr
}

// AsQuery returns the SQL and arguments of the column-restricted query.
func (c *Column) AsQuery() (string, []interface{}, error) {
	return c.iterationQuery().Build()
}

// AsSubquery is AsQuery with the SQL parenthesized for embedding.
func (c *Column) AsSubquery() (string, []interface{}, error) {
	q, args, err := c.AsQuery()
	if err != nil {
		return "", nil, err
	}
	return "(" + q + ")", args, nil
}

// AsSQL returns the column query with its arguments inlined. For logging
// only: the quoting is not safe for execution.
func (c *Column) AsSQL() (string, error) {
	q, args, err := c.AsQuery()
	if err != nil {
		return "", err
	}
	return InterpolateQueryWith(c.quoter, q, args), nil
}

// Next returns the next value of the column. ok is false when exhausted.
func (c *Column) Next(ctx context.Context) (interface{}, bool, error) {
	cur, err := c.iterationCursor()
	if err != nil {
		return nil, false, err
	}
	row, ok, err := cur.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	return firstValue(row), true, nil
}

// All returns every value of the column in query order and rewinds the cursor.
func (c *Column) All(ctx context.Context) ([]interface{}, error) {
	cur, err := c.iterationCursor()
	if err != nil {
		return nil, err
	}
	rows, err := cur.All(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, firstValue(row))
	}
	return values, nil
}

// Reset rewinds the cursor so that Next starts from the first value again.
func (c *Column) Reset() *Column {
	if c.cursor == nil {
		return c
	}
	if err := c.cursor.Reset(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close column cursor rows")
	}
	return c
}

// First resets the cursor and returns the first value.
func (c *Column) First(ctx context.Context) (interface{}, bool, error) {
	return c.Reset().Next(ctx)
}

// Single runs the column query on its own and returns its only value.
// It does not touch the cursor. More than one row yields ErrMultipleRows.
func (c *Column) Single(ctx context.Context) (interface{}, bool, error) {
	values, err := c.runValues(ctx, c.iterationQuery(), 2)
	if err != nil {
		return nil, false, err
	}
	switch len(values) {
	case 0:
		return nil, false, nil
	case 1:
		return values[0], true, nil
	default:
		return nil, false, throw(c.reporter, &Error{Op: "single", Column: c.name, Err: ErrMultipleRows})
	}
}

// Min returns the smallest value of the column, nil for an empty result.
func (c *Column) Min(ctx context.Context) (interface{}, error) {
	return c.FuncOne(ctx, "MIN")
}

// Max returns the largest value of the column, nil for an empty result.
func (c *Column) Max(ctx context.Context) (interface{}, error) {
	return c.FuncOne(ctx, "MAX")
}

// Sum returns the sum of the column, nil for an empty result.
func (c *Column) Sum(ctx context.Context) (interface{}, error) {
	return c.FuncOne(ctx, "SUM")
}

// Count returns the number of non-NULL values of the column.
func (c *Column) Count(ctx context.Context) (interface{}, error) {
	return c.FuncOne(ctx, "COUNT")
}

// FuncAll applies the SQL function fn to the column and returns every
// resulting value (one per group when the query is grouped).
func (c *Column) FuncAll(ctx context.Context, fn string) ([]interface{}, error) {
	q, err := c.aggregateQuery(fn)
	if err != nil {
		return nil, err
	}
	return c.runValues(ctx, q, 0)
}

// FuncOne applies the SQL function fn to the column and returns the first
// resulting value, or nil when there is none.
func (c *Column) FuncOne(ctx context.Context, fn string) (interface{}, error) {
	q, err := c.aggregateQuery(fn)
	if err != nil {
		return nil, err
	}
	values, err := c.runValues(ctx, q, 1)
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return values[0], nil
}

// FuncQuery returns the query FuncAll/FuncOne would run, without running it.
func (c *Column) FuncQuery(fn string) (*Builder, error) {
	return c.aggregateQuery(fn)
}

// Close releases the cursor's open rows.
func (c *Column) Close() error {
	if c.cursor == nil {
		return nil
	}
	return c.cursor.Close()
}

// iterationQuery returns the cached column-restricted query, building it on first use.
func (c *Column) iterationQuery() *Builder {
	if c.iterQuery == nil {
		q := c.parent.Clone()
		q.columns = []selectColumn{{expr: c.expr}}
		c.iterQuery = q
	}
	return c.iterQuery
}

func (c *Column) iterationCursor() (*Cursor, error) {
	if c.cursor != nil {
		return c.cursor, nil
	}
	q, args, err := c.iterationQuery().Build()
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("query", InterpolateQueryWith(c.quoter, q, args)).Msg("Opening column cursor")
	c.cursor = NewCursor(c.db, q, args)
	return c.cursor, nil
}

// aggregateQuery builds a new query selecting fn(expr). It is never cached.
func (c *Column) aggregateQuery(fn string) (*Builder, error) {
	if !isIdentifier(fn) {
		return nil, throw(c.reporter, &Error{
			Op:     "func",
			Column: c.name,
			Err:    fmt.Errorf("%w: function name %q", ErrInvalidArgument, fn),
		})
	}
	fn = strings.ToUpper(fn)

	// LIMIT/OFFSET must apply to the rows, not to the aggregated result.
	if c.parent.Paged() {
		inner := c.parent.Clone()
		inner.columns = []selectColumn{{expr: c.expr, alias: pagedValueColumn}}
		q, args, err := inner.Build()
		if err != nil {
			return nil, err
		}
		return NewSubqueryBuilder(q, args, "col_subq").
			Select(fmt.Sprintf("%s(%s)", fn, pagedValueColumn)), nil
	}

	q := c.parent.Clone()
	q.columns = []selectColumn{{expr: fmt.Sprintf("%s(%s)", fn, c.expr)}}
	if !q.Grouped() {
		q.ClearOrderBy()
	}
	return q, nil
}

// runValues executes q and collects the first column of up to max rows (0 = all).
func (c *Column) runValues(ctx context.Context, q *Builder, max int) ([]interface{}, error) {
	sqlText, args, err := q.Build()
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("query", InterpolateQueryWith(c.quoter, sqlText, args)).Msg("Running column query")

	rows, err := c.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var values []interface{}
	for rows.Next() {
		row, err := scanValues(rows)
		if err != nil {
			return nil, err
		}
		values = append(values, firstValue(row))
		if max > 0 && len(values) >= max {
			break
		}
	}
	return values, rows.Err()
}

func firstValue(row []interface{}) interface{} {
	if len(row) == 0 {
		return nil
	}
	return row[0]
}
