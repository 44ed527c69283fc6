package database

import (
	"context"
	"database/sql"
	"fmt"
)

// QueryResult holds one table's data with its column order preserved.
type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// FetchTable reads an entire table into memory. Only the diagnostic
// surfaces (export) use this; the migration path streams rows instead.
func FetchTable(ctx context.Context, db *sql.DB, dialect Dialect, table string) (*QueryResult, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+dialect.QuoteIdentifier(table))
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan table %s: %w", table, err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = displayValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: %w", table, err)
	}
	return result, nil
}

// displayValue converts driver-native values into JSON/CSV-friendly ones.
// Byte slices holding printable text become strings; anything binary is
// hex-encoded.
func displayValue(v interface{}) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	for _, r := range string(b) {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return fmt.Sprintf("0x%x", b)
		}
	}
	return string(b)
}
