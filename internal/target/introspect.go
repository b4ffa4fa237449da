package target

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Introspector discovers tables and columns through information_schema.
// Any error is fatal for the current request: the caller already proved
// connectivity by opening the connection, so there is nothing to retry.
type Introspector struct {
	db     *sql.DB
	schema string
}

func NewIntrospector(db *sql.DB, schema string) *Introspector {
	if strings.TrimSpace(schema) == "" {
		schema = "public"
	}
	return &Introspector{db: db, schema: schema}
}

// ListTables returns all base tables in the configured schema, ordered by name.
func (in *Introspector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := in.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name ASC`, in.schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table names: %w", err)
	}
	return names, nil
}

// ListColumns returns the table's columns in physical ordinal order.
func (in *Introspector) ListColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := in.db.QueryContext(ctx, `
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position ASC`, in.schema, table)
	if err != nil {
		return nil, fmt.Errorf("list columns for %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]Column, 0)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, Column{
			Name:     name,
			Type:     dataType,
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}
	return columns, nil
}

// DescribeTables fetches columns for each named table, sequentially and in the
// given order. No fan-out: predictable load on the source database.
func (in *Introspector) DescribeTables(ctx context.Context, names []string) ([]Table, error) {
	tables := make([]Table, 0, len(names))
	for _, name := range names {
		columns, err := in.ListColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, Table{Name: name, Columns: columns})
	}
	return tables, nil
}
