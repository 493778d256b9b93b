// Package column implements the command that reads one column of a DuckDB
// table through the column accessor.
package column

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/coltools/internal/cli/helpers"
	"github.com/coral-mesh/coltools/internal/constants"
	"github.com/coral-mesh/coltools/internal/duckdb"
	"github.com/coral-mesh/coltools/internal/errors"
)

type options struct {
	query    QueryFlags
	function string
	sqlOnly  bool
	threads  int
	timeout  time.Duration
	format   string
	logLevel string
}

// valueRow is one value of the column.
type valueRow struct {
	Row   int         `header:"#" json:"row"`
	Value interface{} `header:"VALUE" json:"value"`
}

// aggregateRow is one result of an aggregate, one per group.
type aggregateRow struct {
	Function string      `header:"FUNCTION" json:"function"`
	Value    interface{} `header:"VALUE" json:"value"`
}

// NewColumnCmd creates the column command.
func NewColumnCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "column <database> <table> <column>",
		Short: "Print the values or an aggregate of one column",
		Long: `Print every value of one column of a DuckDB table, or the result of an
SQL function applied to it.

The column may name an alias of the select list given with --select, in
which case the aliased expression is used. Any other name is used verbatim.
With --group-by, --func yields one value per group.`,
		Example: `  # Every year, oldest first
  coltools column catalog.duckdb "cds cd" year --select "cd.year AS year" --order-by cd.year

  # Oldest jazz record
  coltools column catalog.duckdb cds year --where "genre = 'jazz'" --func min

  # Highest price per genre, as JSON
  coltools column catalog.duckdb cds price --group-by genre --func max -o json

  # Show the SQL without running it
  coltools column catalog.duckdb cds price --limit 10 --func sum --sql`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(opts.format, helpers.AllFormats); err != nil {
				return err
			}
			return run(cmd, opts, args[0], args[1], args[2])
		},
	}

	flags := cmd.Flags()
	opts.query.AddFlags(flags)
	flags.StringVar(&opts.function, "func", "", "SQL function to apply (min, max, sum, count, avg, ...)")
	flags.BoolVar(&opts.sqlOnly, "sql", false, "Print the SQL instead of running it")
	flags.IntVar(&opts.threads, "threads", 0, "DuckDB worker threads (0 = DuckDB default)")
	flags.DurationVar(&opts.timeout, "timeout", constants.DefaultQueryTimeout, "Query timeout")
	helpers.AddFormatFlag(cmd, &opts.format, helpers.FormatTable, helpers.AllFormats)
	helpers.AddLogLevelFlag(cmd, &opts.logLevel, "warn")

	return cmd
}

func run(cmd *cobra.Command, opts *options, dsn, table, name string) error {
	logger := helpers.NewLogger(cmd, opts.logLevel, "column")

	var boot []string
	if opts.threads > 0 {
		boot = append(boot, fmt.Sprintf("SET threads TO %d", opts.threads))
	}

	db, err := duckdb.OpenDB(dsn, boot...)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer errors.DeferClose(logger, db, "Failed to close database")

	rs := duckdb.NewResultSet(db, opts.query.Build(table),
		duckdb.WithErrorReporter(duckdb.LogReporter{Logger: logger}),
		duckdb.WithLogger(logger),
	)

	col, err := rs.Column(name)
	if err != nil {
		return err
	}
	defer errors.DeferClose(logger, col, "Failed to close column cursor")

	out := cmd.OutOrStdout()
	if opts.sqlOnly {
		return printSQL(out, col, opts.function)
	}

	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	var rows interface{}
	if opts.function != "" {
		rows, err = aggregate(ctx, col, opts.function)
	} else {
		rows, err = values(ctx, col)
	}
	if err != nil {
		return err
	}

	formatter, err := helpers.NewFormatter(helpers.OutputFormat(opts.format))
	if err != nil {
		return err
	}
	return formatter.Format(rows, out)
}

func printSQL(out io.Writer, col *duckdb.Column, function string) error {
	var (
		text string
		err  error
	)
	if function == "" {
		text, err = col.AsSQL()
	} else {
		var q *duckdb.Builder
		if q, err = col.FuncQuery(function); err == nil {
			var args []interface{}
			if text, args, err = q.Build(); err == nil {
				text = duckdb.InterpolateQuery(text, args)
			}
		}
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

func values(ctx context.Context, col *duckdb.Column) ([]valueRow, error) {
	all, err := col.All(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]valueRow, len(all))
	for i, v := range all {
		rows[i] = valueRow{Row: i + 1, Value: jsonSafe(v)}
	}
	return rows, nil
}

func aggregate(ctx context.Context, col *duckdb.Column, function string) ([]aggregateRow, error) {
	all, err := col.FuncAll(ctx, function)
	if err != nil {
		return nil, err
	}
	rows := make([]aggregateRow, len(all))
	for i, v := range all {
		rows[i] = aggregateRow{Function: function, Value: jsonSafe(v)}
	}
	return rows, nil
}

// jsonSafe converts driver values that do not encode well as JSON.
func jsonSafe(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return helpers.FormatValue(b)
	}
	return v
}
