package testutil

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/marcboeker/go-duckdb" // Register the duckdb driver.
)

// NewTestDB opens an in-memory DuckDB database and runs the given setup
// statements. The database is closed when the test completes.
func NewTestDB(t *testing.T, statements ...string) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	for _, stmt := range statements {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("failed to execute %q: %v", stmt, err)
		}
	}

	return db
}
