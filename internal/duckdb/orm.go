package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/coral-mesh/coltools/internal/retry"
)

// Execer is an interface that matches both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conflictRetry is used by every write; DuckDB reports optimistic
// concurrency failures as transaction conflicts.
var conflictRetry = retry.Config{
	MaxRetries:     10,
	InitialBackoff: 10 * time.Millisecond,
	MaxBackoff:     500 * time.Millisecond,
	Jitter:         0.1,
}

// Table represents a generic database table wrapper for type T.
type Table[T any] struct {
	db              Execer
	tableName       string
	columns         []string
	pkColumns       []string
	immutableFields map[string]bool // Fields that can't be updated
	fieldMap        map[string]int  // Map column name to field index
}

// NewTable creates a new Table[T] instance.
// T must be a struct with `duckdb` tags, e.g. `duckdb:"id,pk"` or `duckdb:"created_at,immutable"`.
func NewTable[T any](db Execer, tableName string) *Table[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic("Table generic type T must be a struct")
	}

	table := &Table[T]{
		db:              db,
		tableName:       tableName,
		immutableFields: make(map[string]bool),
		fieldMap:        make(map[string]int),
	}

	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("duckdb")
		if tag == "" || tag == "-" {
			continue
		}

		parts := strings.Split(tag, ",")
		colName := strings.TrimSpace(parts[0])
		table.columns = append(table.columns, colName)
		table.fieldMap[colName] = i

		for _, p := range parts[1:] {
			switch strings.TrimSpace(p) {
			case "pk":
				table.pkColumns = append(table.pkColumns, colName)
			case "immutable":
				table.immutableFields[colName] = true
			}
		}
	}

	return table
}

// Name returns the table name.
func (t *Table[T]) Name() string {
	return t.tableName
}

// Columns returns the column names in struct field order.
func (t *Table[T]) Columns() []string {
	return append([]string(nil), t.columns...)
}

// ResultSet returns a result set selecting every tagged column of the table.
func (t *Table[T]) ResultSet(opts ...ResultSetOption) *ResultSet {
	return NewResultSet(t.db, NewQueryBuilder(t.tableName).Select(t.columns...), opts...)
}

// Column is a shortcut for t.ResultSet(opts...).Column(name).
func (t *Table[T]) Column(name string, opts ...ResultSetOption) (*Column, error) {
	return t.ResultSet(opts...).Column(name)
}

// convertFieldValue converts a Go value to a DuckDB-compatible parameter.
// The DuckDB Go driver doesn't support Go slices as query parameters,
// so slice types must be converted to DuckDB array literal strings.
func convertFieldValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []int64:
		return Int64ArrayToString(val)
	case []float64:
		return Float64ArrayToString(val)
	default:
		return v
	}
}

func (t *Table[T]) isPK(col string) bool {
	for _, pk := range t.pkColumns {
		if pk == col {
			return true
		}
	}
	return false
}

// updatable reports whether col may appear in an UPDATE SET list.
func (t *Table[T]) updatable(col string) bool {
	return !t.isPK(col) && !t.immutableFields[col]
}

// insertQuery builds INSERT, with an ON CONFLICT clause when upsert is set
// and the table has a primary key.
func (t *Table[T]) insertQuery(upsert bool) string {
	placeholders := make([]string, len(t.columns))
	updates := make([]string, 0, len(t.columns))
	for i, col := range t.columns {
		placeholders[i] = "?"
		if t.updatable(col) {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}

	// #nosec G201 - table and column names are not user input, they come from struct tags
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.tableName,
		strings.Join(t.columns, ", "),
		strings.Join(placeholders, ", "),
	)

	if upsert && len(t.pkColumns) > 0 {
		updateClause := "DO NOTHING"
		if len(updates) > 0 {
			updateClause = fmt.Sprintf("DO UPDATE SET %s", strings.Join(updates, ", "))
		}
		query += fmt.Sprintf(" ON CONFLICT (%s) %s", strings.Join(t.pkColumns, ", "), updateClause)
	}
	return query
}

func (t *Table[T]) values(item *T) []interface{} {
	val := reflect.ValueOf(item).Elem()
	values := make([]interface{}, len(t.columns))
	for i, col := range t.columns {
		values[i] = convertFieldValue(val.Field(t.fieldMap[col]).Interface())
	}
	return values
}

// Upsert inserts or updates an item in the database.
func (t *Table[T]) Upsert(ctx context.Context, item *T) error {
	query := t.insertQuery(true)
	values := t.values(item)
	return retry.Do(ctx, conflictRetry, func() error {
		_, err := t.db.ExecContext(ctx, query, values...)
		return err
	}, isTransactionConflict)
}

// Insert inserts a new item and fails on duplicates.
func (t *Table[T]) Insert(ctx context.Context, item *T) error {
	query := t.insertQuery(false)
	values := t.values(item)
	return retry.Do(ctx, conflictRetry, func() error {
		_, err := t.db.ExecContext(ctx, query, values...)
		return err
	}, isTransactionConflict)
}

// BatchUpsert upserts items in a single transaction with one prepared statement.
func (t *Table[T]) BatchUpsert(ctx context.Context, items []*T) (err error) {
	if len(items) == 0 {
		return nil
	}

	var tx *sql.Tx
	switch d := t.db.(type) {
	case *sql.Tx:
		tx = d
	case *sql.DB:
		tx, err = d.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()
	default:
		return fmt.Errorf("unsupported Execer type for BatchUpsert: %T", t.db)
	}

	stmt, err := tx.PrepareContext(ctx, t.insertQuery(true))
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		if _, err = stmt.ExecContext(ctx, t.values(item)...); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}

	// Commit only if we started the tx.
	if _, started := t.db.(*sql.DB); started {
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}
	return nil
}

// Get retrieves a single item by its value in the first PK column.
func (t *Table[T]) Get(ctx context.Context, id any) (*T, error) {
	if len(t.pkColumns) == 0 {
		return nil, errors.New("no primary key defined for table")
	}

	query, args, err := NewQueryBuilder(t.tableName).
		Select(t.columns...).
		Where(fmt.Sprintf("%s = ?", t.pkColumns[0]), id).
		Build()
	if err != nil {
		return nil, err
	}

	var item T
	if err := t.db.QueryRowContext(ctx, query, args...).Scan(t.scanDest(&item)...); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update rewrites every non-PK, non-immutable field of item.
func (t *Table[T]) Update(ctx context.Context, item *T) error {
	if len(t.pkColumns) == 0 {
		return errors.New("no primary key defined for table")
	}

	val := reflect.ValueOf(item).Elem()
	var setClauses []string
	var values []interface{}
	for _, col := range t.columns {
		if t.updatable(col) {
			setClauses = append(setClauses, fmt.Sprintf("%s = ?", col))
			values = append(values, val.Field(t.fieldMap[col]).Interface())
		}
	}
	if len(setClauses) == 0 {
		return errors.New("no fields to update (all fields are either PK or immutable)")
	}

	var whereClauses []string
	for _, pk := range t.pkColumns {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = ?", pk))
		values = append(values, val.Field(t.fieldMap[pk]).Interface())
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		t.tableName,
		strings.Join(setClauses, ", "),
		strings.Join(whereClauses, " AND "),
	)
	return t.execAffecting(ctx, query, values)
}

// UpdateFields updates specific fields by PK, bypassing immutability checks.
func (t *Table[T]) UpdateFields(ctx context.Context, pk any, fieldUpdates map[string]interface{}) error {
	if len(t.pkColumns) == 0 {
		return errors.New("no primary key defined for table")
	}
	if len(t.pkColumns) > 1 {
		return errors.New("UpdateFields only supports single-column primary keys")
	}
	if len(fieldUpdates) == 0 {
		return errors.New("no fields to update")
	}

	var setClauses []string
	var values []interface{}
	for _, colName := range sortedKeys(fieldUpdates) {
		if _, exists := t.fieldMap[colName]; !exists {
			return fmt.Errorf("column %s does not exist in table %s", colName, t.tableName)
		}
		if colName == t.pkColumns[0] {
			return fmt.Errorf("cannot update primary key column %s", colName)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", colName))
		values = append(values, fieldUpdates[colName])
	}
	values = append(values, pk)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		t.tableName,
		strings.Join(setClauses, ", "),
		t.pkColumns[0],
	)
	return t.execAffecting(ctx, query, values)
}

// Delete removes an item by its value in the first PK column.
func (t *Table[T]) Delete(ctx context.Context, id any) error {
	if len(t.pkColumns) == 0 {
		return errors.New("no primary key defined for table")
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.tableName, t.pkColumns[0])
	_, err := t.db.ExecContext(ctx, query, id)
	return err
}

// List retrieves all items matching simple "column = value" filters.
func (t *Table[T]) List(ctx context.Context, filters map[string]interface{}) ([]*T, error) {
	b := NewQueryBuilder(t.tableName).Select(t.columns...)
	for _, col := range sortedKeys(filters) {
		b.Where(fmt.Sprintf("%s = ?", col), filters[col])
	}
	query, args, err := b.Build()
	if err != nil {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []*T
	for rows.Next() {
		var item T
		if err := rows.Scan(t.scanDest(&item)...); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// execAffecting runs an UPDATE with conflict retries and fails when no row matched.
func (t *Table[T]) execAffecting(ctx context.Context, query string, values []interface{}) error {
	return retry.Do(ctx, conflictRetry, func() error {
		result, err := t.db.ExecContext(ctx, query, values...)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("no rows updated (record may not exist)")
		}
		return nil
	}, isTransactionConflict)
}

// scanDest returns pointers to the tagged fields of item in column order.
func (t *Table[T]) scanDest(item *T) []interface{} {
	val := reflect.ValueOf(item).Elem()
	dest := make([]interface{}, len(t.columns))
	for i, col := range t.columns {
		dest[i] = val.Field(t.fieldMap[col]).Addr().Interface()
	}
	return dest
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	// Detect various DuckDB transaction conflict patterns
	return strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "conflict") ||
		strings.Contains(msg, "transaction") ||
		strings.Contains(msg, "serialization") ||
		strings.Contains(msg, "TransactionContext Error") ||
		(strings.Contains(msg, "PRIMARY KEY") && strings.Contains(msg, "constraint violated"))
}
