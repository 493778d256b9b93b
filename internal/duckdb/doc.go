// Package duckdb provides DuckDB query building, cursors and a single-column
// accessor on top of database/sql.
//
// # Query Builder
//
// Builder is a query descriptor: it records the select list (with aliases),
// joins, eager-loaded columns, filters, grouping, ordering and paging, and
// renders them to SQL without executing anything:
//
//	q := duckdb.NewQueryBuilder("cds cd").
//	    SelectAs("cd.year", "year").
//	    Eq("cd.genre", "jazz").
//	    OrderBy("cd.year")
//
// # Column Accessor
//
// A ResultSet binds a Builder to a connection. Column narrows a result set
// to one column and forwards iteration and aggregates to the database:
//
//	rs := duckdb.NewResultSet(db, q)
//	col, err := rs.Column("year")
//	oldest, err := col.Min(ctx)
//	years, err := col.All(ctx)
//
// Aggregates over an empty result return nil. FuncAll returns one value per
// group, FuncOne only the first.
//
// # ORM
//
// The Table type maps structs with `duckdb` tags to a table and offers
// upsert, batch upsert, lookups and a ResultSet over its columns:
//
//	type CD struct {
//	    ID   int64  `duckdb:"id,pk"`
//	    Year int64  `duckdb:"year"`
//	}
//
//	table := duckdb.NewTable[CD](db, "cds")
//	err := table.BatchUpsert(ctx, []*CD{...})
package duckdb
