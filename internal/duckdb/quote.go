package duckdb

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Quoter renders a bound value as an SQL literal.
type Quoter interface {
	Quote(v interface{}) string
}

// QuoterFunc adapts a function to the Quoter interface.
type QuoterFunc func(v interface{}) string

// Quote implements Quoter.
func (f QuoterFunc) Quote(v interface{}) string {
	return f(v)
}

// DuckDBQuoter quotes values the way DuckDB literals are written.
// The output is meant for logs and diagnostics, not for execution.
type DuckDBQuoter struct{}

// Quote implements Quoter.
func (DuckDBQuoter) Quote(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case []byte:
		return "'\\x" + hex.EncodeToString(val) + "'::BLOB"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%v", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case time.Time:
		// Without the monotonic clock reading.
		return "'" + val.Format(time.RFC3339Nano) + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", val), "'", "''") + "'"
	}
}

// InterpolateQuery returns a formatted query for logging. The quoting is
// not safe for execution.
func InterpolateQuery(query string, args []interface{}) string {
	return InterpolateQueryWith(DuckDBQuoter{}, query, args)
}

// InterpolateQueryWith substitutes each ? placeholder, left to right, with the
// quoted form of the matching argument. Placeholders beyond len(args) are kept.
// A literal '?' inside a string constant of the query is not recognized.
func InterpolateQueryWith(q Quoter, query string, args []interface{}) string {
	var out strings.Builder
	out.Grow(len(query))

	next := 0
	for _, r := range query {
		switch {
		case r == '?' && next < len(args):
			out.WriteString(q.Quote(args[next]))
			next++
		case r == '\t', r == '\n':
			out.WriteByte(' ')
		default:
			out.WriteRune(r)
		}
	}

	return out.String()
}
