// Package target owns the per-request connection to the customer's relational
// database: opening it, discovering its schema, and executing the generated
// SQL. PostgreSQL and DuckDB are supported; both expose information_schema, so
// a single introspector serves either engine.
package target

import "time"

const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Table lists columns in the source database's physical ordinal order.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Row maps column name to a normalized value: string, float64/int64, bool or
// nil. Timestamps are normalized to RFC 3339 UTC text before leaving this
// package.
type Row map[string]any

type Result struct {
	Columns  []string
	Rows     []Row
	Duration time.Duration
}
