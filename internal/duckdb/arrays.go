package duckdb

import (
	"strconv"
	"strings"
)

// Int64ArrayToString converts []int64 to a DuckDB list literal.
// Example: [1, 2, 3] -> "[1, 2, 3]"
func Int64ArrayToString(vec []int64) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Float64ArrayToString converts []float64 to a DuckDB list literal.
// Example: [1.0, 2.5] -> "[1.000000, 2.500000]"
// This format is required for casting to DOUBLE[] types in DuckDB.
func Float64ArrayToString(vec []float64) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
