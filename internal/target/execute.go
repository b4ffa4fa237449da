package target

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Execute runs exactly one statement and materializes the full result set with
// normalized values. maxRows > 0 caps how many rows are read; the generator is
// expected to emit a LIMIT, this is the hard backstop.
func Execute(ctx context.Context, db *sql.DB, sqlText string, maxRows int) (Result, error) {
	start := time.Now()

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([]Row, 0)
	for rows.Next() {
		if maxRows > 0 && len(resultRows) >= maxRows {
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	return Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

// normalizeValue keeps rows JSON-friendly: byte slices become text and
// timestamps collapse to one canonical RFC 3339 UTC representation.
func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	case sql.RawBytes:
		return string(typed)
	default:
		return typed
	}
}
