package duckdb

import (
	"fmt"
	"strings"
	"time"
)

// Builder is an in-memory SELECT query descriptor with a fluent API.
// It only generates SQL; execution goes through Cursor and ResultSet.
type Builder struct {
	from       string
	fromArgs   []interface{}
	columns    []selectColumn
	extra      []selectColumn // "+columns": appended to the select list
	prefetch   []prefetchClause
	joins      []string
	where      []whereClause
	groupBy    []string
	orderBy    []orderClause
	limit      int
	offset     int
	timeColumn string // Configurable: timestamp, bucket_time, start_time
}

// selectColumn is one entry of the select list.
type selectColumn struct {
	expr  string
	alias string
	raw   string // text as given to Select, rendered verbatim when set
}

// prefetchClause eager-loads a related table: a join plus the columns it contributes.
type prefetchClause struct {
	join    string
	columns []selectColumn
}

// whereClause represents a WHERE condition.
type whereClause struct {
	expr string
	args []interface{}
}

// orderClause represents an ORDER BY clause.
type orderClause struct {
	column string
	desc   bool
}

// NewQueryBuilder creates a new query builder for the specified table.
// The table may carry an alias, e.g. "cds cd".
func NewQueryBuilder(table string) *Builder {
	return &Builder{
		from:       table,
		timeColumn: "timestamp", // default
	}
}

// NewSubqueryBuilder creates a builder selecting from a parenthesized subquery.
// args are bound before any argument added later to the outer query.
func NewSubqueryBuilder(query string, args []interface{}, alias string) *Builder {
	b := NewQueryBuilder(fmt.Sprintf("(%s) AS %s", query, alias))
	b.fromArgs = append([]interface{}(nil), args...)
	return b
}

// Select specifies the columns to retrieve.
// Supports column names, aggregates, and aliases.
// Examples:
//
//	Select("name", "age")
//	Select("SUM(count) as total_count", "MIN(timestamp) as first_seen")
func (b *Builder) Select(columns ...string) *Builder {
	for _, col := range columns {
		b.columns = append(b.columns, parseSelectColumn(col))
	}
	return b
}

// SelectAs adds expr to the select list under alias.
func (b *Builder) SelectAs(expr, alias string) *Builder {
	b.columns = append(b.columns, selectColumn{expr: expr, alias: alias})
	return b
}

// SetColumns replaces the select list.
func (b *Builder) SetColumns(columns ...string) *Builder {
	b.columns = nil
	return b.Select(columns...)
}

// AddColumns appends extra columns on top of the select list.
// They are dropped by WithoutExtraColumns.
func (b *Builder) AddColumns(columns ...string) *Builder {
	for _, col := range columns {
		b.extra = append(b.extra, parseSelectColumn(col))
	}
	return b
}

// Join adds a raw join clause, e.g. "JOIN artists a ON a.id = cd.artist_id".
func (b *Builder) Join(clause string) *Builder {
	b.joins = append(b.joins, clause)
	return b
}

// Prefetch eager-loads a related table: the join is added and its columns
// are fetched alongside the main select list.
func (b *Builder) Prefetch(join string, columns ...string) *Builder {
	p := prefetchClause{join: join}
	for _, col := range columns {
		p.columns = append(p.columns, parseSelectColumn(col))
	}
	b.prefetch = append(b.prefetch, p)
	return b
}

// WithoutExtraColumns removes every setting that fetches columns beyond the
// select list. Prefetch joins are kept as plain joins so that filters
// referencing the joined tables remain valid.
func (b *Builder) WithoutExtraColumns() *Builder {
	for _, p := range b.prefetch {
		b.joins = append(b.joins, p.join)
	}
	b.prefetch = nil
	b.extra = nil
	return b
}

// TimeColumn sets the name of the time column for time range filtering.
// Default is "timestamp". Use this before calling TimeRange().
func (b *Builder) TimeColumn(name string) *Builder {
	b.timeColumn = name
	return b
}

// TimeRange adds a time range filter using the configured time column.
// Generates: WHERE <timeColumn> >= ? AND <timeColumn> <= ?
func (b *Builder) TimeRange(start, end time.Time) *Builder {
	b.where = append(b.where, whereClause{
		expr: fmt.Sprintf("%s >= ? AND %s <= ?", b.timeColumn, b.timeColumn),
		args: []interface{}{start, end},
	})
	return b
}

// Where adds a custom WHERE clause with optional arguments.
// Multiple Where() calls are combined with AND.
func (b *Builder) Where(expr string, args ...interface{}) *Builder {
	b.where = append(b.where, whereClause{
		expr: expr,
		args: args,
	})
	return b
}

// Eq adds an equality filter.
// If value is empty string, the filter is skipped (wildcard behavior).
func (b *Builder) Eq(column string, value interface{}) *Builder {
	if str, ok := value.(string); ok && str == "" {
		return b
	}
	return b.Where(fmt.Sprintf("%s = ?", column), value)
}

// In adds an IN clause. If values is empty, the filter is skipped.
func (b *Builder) In(column string, values ...interface{}) *Builder {
	if len(values) == 0 {
		return b
	}
	placeholders := make([]string, len(values))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	expr := fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", "))
	return b.Where(expr, values...)
}

// Between adds a BETWEEN clause.
func (b *Builder) Between(column string, min, max interface{}) *Builder {
	return b.Where(fmt.Sprintf("%s BETWEEN ? AND ?", column), min, max)
}

// Gte adds a >= comparison.
func (b *Builder) Gte(column string, value interface{}) *Builder {
	return b.Where(fmt.Sprintf("%s >= ?", column), value)
}

// Gt adds a > comparison.
func (b *Builder) Gt(column string, value interface{}) *Builder {
	return b.Where(fmt.Sprintf("%s > ?", column), value)
}

// Lte adds a <= comparison.
func (b *Builder) Lte(column string, value interface{}) *Builder {
	return b.Where(fmt.Sprintf("%s <= ?", column), value)
}

// Lt adds a < comparison.
func (b *Builder) Lt(column string, value interface{}) *Builder {
	return b.Where(fmt.Sprintf("%s < ?", column), value)
}

// GroupBy adds GROUP BY columns.
func (b *Builder) GroupBy(columns ...string) *Builder {
	b.groupBy = append(b.groupBy, columns...)
	return b
}

// OrderBy adds ORDER BY clauses.
// Use "-" prefix for DESC order.
// Examples:
//
//	OrderBy("created_at")        // ASC
//	OrderBy("-created_at")       // DESC
//	OrderBy("name", "-created_at") // name ASC, created_at DESC
func (b *Builder) OrderBy(columns ...string) *Builder {
	for _, col := range columns {
		desc := false
		if strings.HasPrefix(col, "-") {
			desc = true
			col = col[1:]
		}
		b.orderBy = append(b.orderBy, orderClause{
			column: col,
			desc:   desc,
		})
	}
	return b
}

// ClearOrderBy removes all ORDER BY clauses.
func (b *Builder) ClearOrderBy() *Builder {
	b.orderBy = nil
	return b
}

// Limit sets the maximum number of rows to return.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Offset sets the number of rows to skip.
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	return b
}

// Grouped reports whether the query has a GROUP BY clause.
func (b *Builder) Grouped() bool {
	return len(b.groupBy) > 0
}

// Paged reports whether the query is restricted by LIMIT or OFFSET.
func (b *Builder) Paged() bool {
	return b.limit > 0 || b.offset > 0
}

// ResolveColumn looks name up among the output aliases of the rendered
// select list (main columns, then extra columns, then prefetched columns)
// and returns the expression behind it.
func (b *Builder) ResolveColumn(name string) (string, bool) {
	lists := [][]selectColumn{b.columns, b.extra}
	for _, p := range b.prefetch {
		lists = append(lists, p.columns)
	}
	for _, cols := range lists {
		for _, col := range cols {
			if col.outputName() == name {
				return col.expr, true
			}
		}
	}
	return "", false
}

// Clone returns a deep copy of the builder.
func (b *Builder) Clone() *Builder {
	c := *b
	c.fromArgs = append([]interface{}(nil), b.fromArgs...)
	c.columns = append([]selectColumn(nil), b.columns...)
	c.extra = append([]selectColumn(nil), b.extra...)
	c.joins = append([]string(nil), b.joins...)
	c.groupBy = append([]string(nil), b.groupBy...)
	c.orderBy = append([]orderClause(nil), b.orderBy...)

	c.prefetch = make([]prefetchClause, len(b.prefetch))
	for i, p := range b.prefetch {
		c.prefetch[i] = prefetchClause{
			join:    p.join,
			columns: append([]selectColumn(nil), p.columns...),
		}
	}
	if len(b.prefetch) == 0 {
		c.prefetch = nil
	}

	c.where = make([]whereClause, len(b.where))
	for i, w := range b.where {
		c.where[i] = whereClause{expr: w.expr, args: append([]interface{}(nil), w.args...)}
	}
	if len(b.where) == 0 {
		c.where = nil
	}

	return &c
}

// Build constructs the SQL query and returns the query string and arguments.
// Build does not modify the builder and can be called repeatedly.
func (b *Builder) Build() (string, []interface{}, error) {
	if b.from == "" {
		return "", nil, fmt.Errorf("table name is required")
	}

	var query strings.Builder
	args := make([]interface{}, 0, len(b.fromArgs))
	args = append(args, b.fromArgs...)

	// SELECT clause.
	query.WriteString("SELECT ")
	selected := b.selectList()
	if len(selected) == 0 {
		query.WriteString("*")
	} else {
		query.WriteString(strings.Join(selected, ", "))
	}

	// FROM clause.
	query.WriteString(" FROM ")
	query.WriteString(b.from)

	joins := append([]string(nil), b.joins...)
	for _, p := range b.prefetch {
		joins = append(joins, p.join)
	}
	for _, j := range joins {
		query.WriteString(" ")
		query.WriteString(j)
	}

	// WHERE clause.
	if len(b.where) > 0 {
		query.WriteString(" WHERE ")
		exprs := make([]string, len(b.where))
		for i, w := range b.where {
			exprs[i] = w.expr
			args = append(args, w.args...)
		}
		query.WriteString(strings.Join(exprs, " AND "))
	}

	// GROUP BY clause.
	if len(b.groupBy) > 0 {
		query.WriteString(" GROUP BY ")
		query.WriteString(strings.Join(b.groupBy, ", "))
	}

	// ORDER BY clause.
	if len(b.orderBy) > 0 {
		query.WriteString(" ORDER BY ")
		orderParts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			if o.desc {
				orderParts[i] = o.column + " DESC"
			} else {
				orderParts[i] = o.column
			}
		}
		query.WriteString(strings.Join(orderParts, ", "))
	}

	if b.limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, b.limit)
	}
	if b.offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, b.offset)
	}

	return query.String(), args, nil
}

// MustBuild builds the query and panics on error.
// Useful for tests and cases where query construction should never fail.
func (b *Builder) MustBuild() (string, []interface{}) {
	q, args, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q, args
}

func (b *Builder) selectList() []string {
	var out []string
	for _, col := range b.columns {
		out = append(out, col.render())
	}
	for _, col := range b.extra {
		out = append(out, col.render())
	}
	for _, p := range b.prefetch {
		for _, col := range p.columns {
			out = append(out, col.render())
		}
	}
	return out
}

// parseSelectColumn splits "expr AS alias" on the last case-insensitive AS.
func parseSelectColumn(text string) selectColumn {
	col := selectColumn{expr: strings.TrimSpace(text), raw: text}
	lower := strings.ToLower(text)
	if idx := strings.LastIndex(lower, " as "); idx > 0 {
		alias := strings.TrimSpace(text[idx+4:])
		if isIdentifier(alias) {
			col.expr = strings.TrimSpace(text[:idx])
			col.alias = alias
		}
	}
	return col
}

// outputName is the column name exposed to callers: the alias when present,
// otherwise the last segment of a dotted identifier.
func (c selectColumn) outputName() string {
	if c.alias != "" {
		return c.alias
	}
	parts := strings.Split(c.expr, ".")
	last := parts[len(parts)-1]
	for _, p := range parts {
		if !isIdentifier(p) {
			return c.expr
		}
	}
	return last
}

func (c selectColumn) render() string {
	if c.raw != "" {
		return c.raw
	}
	if c.alias != "" {
		return c.expr + " AS " + c.alias
	}
	return c.expr
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
