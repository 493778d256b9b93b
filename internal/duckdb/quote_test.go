package duckdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuckDBQuoter_Quote(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{name: "string", value: "Kind of Blue", expected: "'Kind of Blue'"},
		{name: "string with single quote", value: "Rock 'n' Roll", expected: "'Rock ''n'' Roll'"},
		{name: "empty string", value: "", expected: "''"},
		{name: "int", value: 42, expected: "42"},
		{name: "negative int64", value: int64(-100), expected: "-100"},
		{name: "uint8", value: uint8(7), expected: "7"},
		{name: "float64", value: 9.99, expected: "9.99"},
		{name: "true", value: true, expected: "true"},
		{name: "false", value: false, expected: "false"},
		{name: "nil", value: nil, expected: "NULL"},
		{name: "bytes", value: []byte{0xde, 0xad}, expected: "'\\xdead'::BLOB"},
		{
			name:     "timestamp",
			value:    time.Date(2025, 12, 13, 15, 30, 45, 123456789, time.UTC),
			expected: "'2025-12-13T15:30:45.123456789Z'",
		},
		{name: "fallback stringer", value: []string{"a"}, expected: "'[a]'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DuckDBQuoter{}.Quote(tt.value))
		})
	}
}

func TestInterpolateQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		args     []interface{}
		expected string
	}{
		{
			name:     "mixed arguments",
			query:    "SELECT cd.year FROM cds cd WHERE cd.genre = ? AND cd.price < ? LIMIT ?",
			args:     []interface{}{"jazz", 12.5, 10},
			expected: "SELECT cd.year FROM cds cd WHERE cd.genre = 'jazz' AND cd.price < 12.5 LIMIT 10",
		},
		{
			name:     "question mark inside an argument is not substituted",
			query:    "SELECT * FROM cds WHERE title = ? AND year = ?",
			args:     []interface{}{"Why?", 1971},
			expected: "SELECT * FROM cds WHERE title = 'Why?' AND year = 1971",
		},
		{
			name:     "no arguments",
			query:    "SELECT * FROM cds",
			expected: "SELECT * FROM cds",
		},
		{
			name:     "more placeholders than arguments",
			query:    "SELECT * FROM cds WHERE a = ? AND b = ?",
			args:     []interface{}{1},
			expected: "SELECT * FROM cds WHERE a = 1 AND b = ?",
		},
		{
			name:     "tabs and newlines become spaces",
			query:    "SELECT *\n\tFROM cds",
			expected: "SELECT *  FROM cds",
		},
		{
			name:     "multi-line condition keeps words apart",
			query:    "SELECT * FROM cds WHERE year = ?\nAND genre = ?",
			args:     []interface{}{1959, "jazz"},
			expected: "SELECT * FROM cds WHERE year = 1959 AND genre = 'jazz'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InterpolateQuery(tt.query, tt.args))
		})
	}
}

func TestInterpolateQueryWith_CustomQuoter(t *testing.T) {
	q := QuoterFunc(func(v interface{}) string { return "$" })

	got := InterpolateQueryWith(q, "SELECT ? + ?", []interface{}{1, 2})

	assert.Equal(t, "SELECT $ + $", got)
}
