package duckdb

import (
	"context"
	"database/sql"
	"fmt"
)

// Cursor is a forward-only iterator over the rows of one query.
//
// The query is executed on the first call to Next and the rows stay open
// until the cursor is exhausted, reset or closed. A Cursor is not safe for
// concurrent use.
type Cursor struct {
	db    Execer
	query string
	args  []interface{}

	rows *sql.Rows
	done bool
}

// NewCursor creates a cursor for query. Nothing is executed yet.
func NewCursor(db Execer, query string, args []interface{}) *Cursor {
	return &Cursor{
		db:    db,
		query: query,
		args:  args,
	}
}

// Query returns the SQL text and arguments the cursor runs.
func (c *Cursor) Query() (string, []interface{}) {
	return c.query, c.args
}

// Next returns the values of the next row. ok is false once the rows are
// exhausted; further calls keep returning false until Reset.
func (c *Cursor) Next(ctx context.Context) ([]interface{}, bool, error) {
	if c.done {
		return nil, false, nil
	}

	if c.rows == nil {
		rows, err := c.db.QueryContext(ctx, c.query, c.args...)
		if err != nil {
			return nil, false, err
		}
		c.rows = rows
	}

	if !c.rows.Next() {
		err := c.rows.Err()
		c.finish()
		return nil, false, err
	}

	values, err := scanValues(c.rows)
	if err != nil {
		c.finish()
		return nil, false, err
	}
	return values, true, nil
}

// All rewinds the cursor and returns every remaining row. The cursor is left
// in its initial state afterwards.
func (c *Cursor) All(ctx context.Context) ([][]interface{}, error) {
	if err := c.Reset(); err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, c.query, c.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out [][]interface{}
	for rows.Next() {
		values, err := scanValues(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, values)
	}
	return out, rows.Err()
}

// Reset closes any open rows so that the next call to Next starts over.
func (c *Cursor) Reset() error {
	c.done = false
	if c.rows == nil {
		return nil
	}
	err := c.rows.Close()
	c.rows = nil
	return err
}

// Close releases the open rows, if any.
func (c *Cursor) Close() error {
	return c.Reset()
}

func (c *Cursor) finish() {
	if c.rows != nil {
		_ = c.rows.Close()
		c.rows = nil
	}
	c.done = true
}

// scanValues scans the current row into a slice of driver values.
func scanValues(rows *sql.Rows) ([]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	return values, nil
}
