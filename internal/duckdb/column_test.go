package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/coltools/internal/testutil"
)

type cdRow struct {
	ID       int64   `duckdb:"id,pk"`
	Title    string  `duckdb:"title"`
	Year     int64   `duckdb:"year"`
	Genre    string  `duckdb:"genre"`
	Price    float64 `duckdb:"price"`
	ArtistID int64   `duckdb:"artist_id"`
}

// newCatalog returns a database with four CDs and their artists.
func newCatalog(t *testing.T) *sql.DB {
	t.Helper()

	db := testutil.NewTestDB(t,
		`CREATE TABLE artists (id BIGINT PRIMARY KEY, name VARCHAR)`,
		`INSERT INTO artists VALUES (1, 'Miles Davis'), (2, 'John Coltrane'), (3, 'Joni Mitchell'), (4, 'Michael Jackson')`,
		`CREATE TABLE cds (id BIGINT PRIMARY KEY, title VARCHAR, year BIGINT, genre VARCHAR, price DOUBLE, artist_id BIGINT)`,
	)

	err := NewTable[cdRow](db, "cds").BatchUpsert(context.Background(), []*cdRow{
		{ID: 1, Title: "Kind of Blue", Year: 1959, Genre: "jazz", Price: 9.5, ArtistID: 1},
		{ID: 2, Title: "A Love Supreme", Year: 1965, Genre: "jazz", Price: 12.5, ArtistID: 2},
		{ID: 3, Title: "Blue", Year: 1971, Genre: "folk", Price: 8, ArtistID: 3},
		{ID: 4, Title: "Thriller", Year: 1982, Genre: "pop", Price: 7, ArtistID: 4},
	})
	require.NoError(t, err)

	return db
}

func catalogQuery() *Builder {
	return NewQueryBuilder("cds cd").
		SelectAs("cd.title", "title").
		SelectAs("cd.year", "year").
		OrderBy("cd.year")
}

type recordingReporter struct {
	reported []error
}

func (r *recordingReporter) ReportError(err error) error {
	r.reported = append(r.reported, err)
	return err
}

func TestColumn_AliasResolvesToParentExpression(t *testing.T) {
	rs := NewResultSet(newCatalog(t), catalogQuery())

	col, err := rs.Column("year")
	require.NoError(t, err)
	assert.Equal(t, "cd.year", col.Expr())

	sqlText, err := col.AsSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT cd.year FROM cds cd ORDER BY cd.year", sqlText)
}

func TestColumn_UnknownColumnUsesRawName(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	rs := NewResultSet(newCatalog(t), catalogQuery())

	col, err := rs.Column("price")
	require.NoError(t, err)
	assert.Equal(t, "price", col.Expr())

	q, args, err := col.AsQuery()
	require.NoError(t, err)
	assert.Equal(t, "SELECT price FROM cds cd ORDER BY cd.year", q)
	assert.Empty(t, args)

	values, err := col.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{9.5, 12.5, 8.0, 7.0}, values)
}

func TestColumn_EmptyNameIsInvalid(t *testing.T) {
	reporter := &recordingReporter{}
	rs := NewResultSet(newCatalog(t), catalogQuery(), WithErrorReporter(reporter))

	col, err := rs.Column("  ")

	assert.Nil(t, col)
	require.ErrorIs(t, err, ErrInvalidArgument)
	var colErr *Error
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, "new", colErr.Op)
	require.Len(t, reporter.reported, 1)
	assert.Same(t, err, reporter.reported[0])
}

func TestColumn_ErrorWithoutReporter(t *testing.T) {
	_, err := NewColumn(NewResultSet(newCatalog(t), catalogQuery()), "")

	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "column name is required")
}

func TestColumn_AsSubquery(t *testing.T) {
	rs := NewResultSet(newCatalog(t), catalogQuery().Eq("cd.genre", "jazz"))

	col, err := rs.Column("year")
	require.NoError(t, err)

	q, args, err := col.AsSubquery()
	require.NoError(t, err)
	assert.Equal(t, "(SELECT cd.year FROM cds cd WHERE cd.genre = ? ORDER BY cd.year)", q)
	assert.Equal(t, []interface{}{"jazz"}, args)

	sqlText, err := col.AsSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT cd.year FROM cds cd WHERE cd.genre = 'jazz' ORDER BY cd.year", sqlText)
}

func TestColumn_AsSQLUsesResultSetQuoter(t *testing.T) {
	quoter := QuoterFunc(func(v interface{}) string { return "<redacted>" })
	rs := NewResultSet(newCatalog(t), catalogQuery().Eq("cd.genre", "jazz"), WithQuoter(quoter))

	col, err := rs.Column("title")
	require.NoError(t, err)

	sqlText, err := col.AsSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT cd.title FROM cds cd WHERE cd.genre = <redacted> ORDER BY cd.year", sqlText)
}

func TestColumn_StripsExtraColumnsWithoutTouchingParent(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	q := catalogQuery().
		AddColumns("cd.price").
		Prefetch("JOIN artists a ON a.id = cd.artist_id", "a.name AS artist_name").
		Eq("a.name", "Miles Davis")
	rs := NewResultSet(newCatalog(t), q)
	before, beforeArgs, err := rs.AsQuery()
	require.NoError(t, err)

	col, err := rs.Column("title")
	require.NoError(t, err)

	colQuery, _, err := col.AsQuery()
	require.NoError(t, err)
	assert.Equal(t, "SELECT cd.title FROM cds cd JOIN artists a ON a.id = cd.artist_id WHERE a.name = ? ORDER BY cd.year", colQuery)

	values, err := col.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Kind of Blue"}, values)

	after, afterArgs, err := rs.AsQuery()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, beforeArgs, afterArgs)
	assert.Contains(t, after, "a.name AS artist_name")
	assert.Contains(t, after, "cd.price")
}

func TestColumn_ExtraColumnAliasResolvesToExpression(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	q := catalogQuery().AddColumns("cd.year + 1 AS next_year")
	rs := NewResultSet(newCatalog(t), q)

	col, err := rs.Column("next_year")
	require.NoError(t, err)
	assert.Equal(t, "cd.year + 1", col.Expr())

	sqlText, err := col.AsSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT cd.year + 1 FROM cds cd ORDER BY cd.year", sqlText)

	latest, err := col.Max(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1983, latest)
}

func TestColumn_PrefetchAliasResolvesToExpression(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	q := catalogQuery().
		Prefetch("JOIN artists a ON a.id = cd.artist_id", "a.name AS artist_name").
		Eq("cd.genre", "jazz")
	rs := NewResultSet(newCatalog(t), q)

	col, err := rs.Column("artist_name")
	require.NoError(t, err)
	assert.Equal(t, "a.name", col.Expr())

	sqlText, err := col.AsSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT a.name FROM cds cd JOIN artists a ON a.id = cd.artist_id WHERE cd.genre = 'jazz' ORDER BY cd.year", sqlText)

	values, err := col.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Miles Davis", "John Coltrane"}, values)
}

func TestColumn_NextIteratesUntilExhausted(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	col, err := NewResultSet(newCatalog(t), catalogQuery()).Column("year")
	require.NoError(t, err)
	defer func() { _ = col.Close() }()

	var years []interface{}
	for {
		v, ok, err := col.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		years = append(years, v)
	}
	assert.Equal(t, []interface{}{int64(1959), int64(1965), int64(1971), int64(1982)}, years)

	// Exhausted cursors stay exhausted until reset.
	v, ok, err := col.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestColumn_AllMatchesNextOrder(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	col, err := NewResultSet(newCatalog(t), catalogQuery().OrderBy("-cd.price")).Column("title")
	require.NoError(t, err)
	defer func() { _ = col.Close() }()

	all, err := col.All(ctx)
	require.NoError(t, err)

	var iterated []interface{}
	for {
		v, ok, err := col.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		iterated = append(iterated, v)
	}

	assert.Equal(t, all, iterated)
	assert.Len(t, all, 4)
}

func TestColumn_ResetAndFirst(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	col, err := NewResultSet(newCatalog(t), catalogQuery()).Column("title")
	require.NoError(t, err)
	defer func() { _ = col.Close() }()

	first, ok, err := col.First(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Kind of Blue", first)

	second, ok, err := col.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A Love Supreme", second)

	again, ok, err := col.Reset().Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, again)

	// Resetting twice is the same as resetting once.
	twice, ok, err := col.Reset().Reset().Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, twice)

	viaFirst, _, err := col.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, viaFirst)
}

func TestColumn_Aggregates(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	rs := NewResultSet(newCatalog(t), catalogQuery())

	year, err := rs.Column("year")
	require.NoError(t, err)

	minYear, err := year.Min(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1959), minYear)

	maxYear, err := year.Max(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1982), maxYear)

	count, err := year.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	price, err := rs.Column("price")
	require.NoError(t, err)

	total, err := price.Sum(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 37.0, total, 0.0001)

	avg, err := price.FuncOne(ctx, "avg")
	require.NoError(t, err)
	assert.InDelta(t, 9.25, avg, 0.0001)
}

func TestColumn_AggregatesOnEmptyResultAreNil(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	rs := NewResultSet(newCatalog(t), catalogQuery().Gt("cd.year", 3000))

	col, err := rs.Column("year")
	require.NoError(t, err)

	for name, fn := range map[string]func(context.Context) (interface{}, error){
		"min": col.Min,
		"max": col.Max,
		"sum": col.Sum,
	} {
		t.Run(name, func(t *testing.T) {
			v, err := fn(ctx)
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestColumn_AggregateQueryIsFreshAndUnordered(t *testing.T) {
	col, err := NewResultSet(newCatalog(t), catalogQuery().Eq("cd.genre", "jazz")).Column("year")
	require.NoError(t, err)

	q1, err := col.FuncQuery("min")
	require.NoError(t, err)
	q2, err := col.FuncQuery("min")
	require.NoError(t, err)
	assert.NotSame(t, q1, q2)

	sqlText, args := q1.MustBuild()
	assert.Equal(t, "SELECT MIN(cd.year) FROM cds cd WHERE cd.genre = ?", sqlText)
	assert.Equal(t, []interface{}{"jazz"}, args)

	// The cached iteration query keeps its ordering.
	iter, _, err := col.AsQuery()
	require.NoError(t, err)
	assert.Equal(t, "SELECT cd.year FROM cds cd WHERE cd.genre = ? ORDER BY cd.year", iter)
}

func TestColumn_FuncAllReturnsOneValuePerGroup(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	rs := NewResultSet(newCatalog(t), NewQueryBuilder("cds cd").
		Select("cd.genre", "cd.year").
		GroupBy("cd.genre").
		OrderBy("cd.genre"))

	col, err := rs.Column("year")
	require.NoError(t, err)

	q, err := col.FuncQuery("MAX")
	require.NoError(t, err)
	sqlText, _ := q.MustBuild()
	assert.Equal(t, "SELECT MAX(cd.year) FROM cds cd GROUP BY cd.genre ORDER BY cd.genre", sqlText)

	all, err := col.FuncAll(ctx, "MAX")
	require.NoError(t, err)
	// folk, jazz, pop
	assert.Equal(t, []interface{}{int64(1971), int64(1965), int64(1982)}, all)

	one, err := col.FuncOne(ctx, "MAX")
	require.NoError(t, err)
	assert.Equal(t, int64(1971), one)
}

func TestColumn_AggregateOverPagedQuery(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	rs := NewResultSet(newCatalog(t), catalogQuery().Limit(2))

	col, err := rs.Column("year")
	require.NoError(t, err)

	q, err := col.FuncQuery("max")
	require.NoError(t, err)
	sqlText, args := q.MustBuild()
	assert.Equal(t, "SELECT MAX(col_value) FROM (SELECT cd.year AS col_value FROM cds cd ORDER BY cd.year LIMIT ?) AS col_subq", sqlText)
	assert.Equal(t, []interface{}{2}, args)

	maxYear, err := col.Max(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1965), maxYear)
}

func TestColumn_InvalidFunctionName(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	reporter := &recordingReporter{}
	col, err := NewResultSet(newCatalog(t), catalogQuery(), WithErrorReporter(reporter)).Column("year")
	require.NoError(t, err)

	_, err = col.FuncOne(ctx, "MIN(year); DROP TABLE cds; --")

	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Len(t, reporter.reported, 1)
}

func TestColumn_Single(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	db := newCatalog(t)

	col, err := NewResultSet(db, catalogQuery().Eq("cd.id", 3)).Column("title")
	require.NoError(t, err)
	v, ok, err := col.Single(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Blue", v)

	none, err := NewResultSet(db, catalogQuery().Eq("cd.id", 99)).Column("title")
	require.NoError(t, err)
	v, ok, err = none.Single(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)

	many, err := NewResultSet(db, catalogQuery()).Column("title")
	require.NoError(t, err)
	_, _, err = many.Single(ctx)
	assert.ErrorIs(t, err, ErrMultipleRows)
}

func TestColumn_ExecutionErrorsPropagateUnchanged(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	reporter := &recordingReporter{}
	col, err := NewResultSet(newCatalog(t), NewQueryBuilder("missing_table"), WithErrorReporter(reporter)).Column("year")
	require.NoError(t, err)

	_, err = col.Min(ctx)
	require.Error(t, err)

	var colErr *Error
	assert.False(t, errors.As(err, &colErr))
	assert.Empty(t, reporter.reported)

	_, _, err = col.Next(ctx)
	require.Error(t, err)
}

func TestLogReporter_LogsAndReturnsError(t *testing.T) {
	logger, buf := testutil.NewCapturingLogger(t)
	err := &Error{Op: "func", Column: "year", Err: ErrInvalidArgument}

	got := LogReporter{Logger: logger}.ReportError(err)

	assert.Same(t, err, got)
	assert.Contains(t, buf.String(), `"column":"year"`)
	assert.Contains(t, buf.String(), `"op":"func"`)
}
