package column

import (
	"github.com/spf13/pflag"

	"github.com/coral-mesh/coltools/internal/duckdb"
)

// QueryFlags holds the flags that shape the query a column is read from.
type QueryFlags struct {
	Selects []string
	Joins   []string
	Where   []string
	GroupBy []string
	OrderBy []string
	Limit   int
	Offset  int
}

// AddFlags registers the query flags on flags.
func (f *QueryFlags) AddFlags(flags *pflag.FlagSet) {
	flags.StringArrayVar(&f.Selects, "select", nil, `Select list entry, e.g. "cd.year AS year" (repeatable)`)
	flags.StringArrayVar(&f.Joins, "join", nil, `Join clause, e.g. "JOIN artists a ON a.id = cd.artist_id" (repeatable)`)
	flags.StringArrayVar(&f.Where, "where", nil, "SQL condition (repeatable, combined with AND)")
	flags.StringSliceVar(&f.GroupBy, "group-by", nil, "GROUP BY expressions")
	flags.StringSliceVar(&f.OrderBy, "order-by", nil, `ORDER BY expressions, "-" prefix for descending`)
	flags.IntVar(&f.Limit, "limit", 0, "Maximum number of rows (0 = no limit)")
	flags.IntVar(&f.Offset, "offset", 0, "Number of rows to skip")
}

// Build returns the query over table described by the flags.
func (f *QueryFlags) Build(table string) *duckdb.Builder {
	q := duckdb.NewQueryBuilder(table).Select(f.Selects...)
	for _, j := range f.Joins {
		q.Join(j)
	}
	for _, w := range f.Where {
		q.Where(w)
	}
	return q.GroupBy(f.GroupBy...).
		OrderBy(f.OrderBy...).
		Limit(f.Limit).
		Offset(f.Offset)
}
