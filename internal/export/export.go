// Package export writes a point-in-time copy of the application store to
// disk, as one JSON document or as one CSV file per table.
package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fetcharr/fetcharrctl/internal/catalog"
	"github.com/fetcharr/fetcharrctl/internal/database"
)

// Snapshot is the JSON document layout.
type Snapshot struct {
	Timestamp string                              `json:"timestamp"`
	Version   string                              `json:"version"`
	Tables    map[string][]map[string]interface{} `json:"tables"`
}

type Exporter struct {
	db      *sql.DB
	dialect database.Dialect
	dir     string
}

// New returns an Exporter that writes into dir, creating it if needed.
func New(db *sql.DB, dialect database.Dialect, dir string) *Exporter {
	return &Exporter{db: db, dialect: dialect, dir: dir}
}

// Run exports every known table and returns the path written. Format is
// "csv" for a directory of per-table files, anything else for a single
// JSON document. Tables missing from the store are logged and skipped.
func (e *Exporter) Run(ctx context.Context, format string) (string, error) {
	results := e.fetchAll(ctx)

	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	if format == "csv" {
		return e.writeCSV(results, timestamp)
	}
	return e.writeJSON(results, timestamp)
}

// fetchAll reads every catalog table concurrently. The store sees only
// reads, so the fetches are safe to overlap.
func (e *Exporter) fetchAll(ctx context.Context) map[string]*database.QueryResult {
	type tableResult struct {
		name string
		data *database.QueryResult
		err  error
	}

	tables := catalog.AllTables()
	results := make(chan tableResult, len(tables))
	var wg sync.WaitGroup

	for _, t := range tables {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			data, err := database.FetchTable(ctx, e.db, e.dialect, name)
			results <- tableResult{name, data, err}
		}(t.Name)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	fetched := make(map[string]*database.QueryResult, len(tables))
	for result := range results {
		if result.err != nil {
			log.Printf("Warning: failed to read table %s: %v", result.name, result.err)
			continue
		}
		fetched[result.name] = result.data
	}
	return fetched
}

func (e *Exporter) writeJSON(results map[string]*database.QueryResult, timestamp string) (string, error) {
	snapshot := Snapshot{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Version:   "1.0",
		Tables:    make(map[string][]map[string]interface{}, len(results)),
	}
	for name, result := range results {
		snapshot.Tables[name] = result.Rows
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("export_%s.json", timestamp))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// writeCSV writes one file per non-empty table. Headers follow the store's
// column order, not an alphabetical one, so a file can be replayed against
// the same schema.
func (e *Exporter) writeCSV(results map[string]*database.QueryResult, timestamp string) (string, error) {
	dir := filepath.Join(e.dir, fmt.Sprintf("export_%s_csv", timestamp))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create CSV directory: %w", err)
	}

	for name, result := range results {
		if len(result.Rows) == 0 {
			continue
		}
		if err := writeTableCSV(filepath.Join(dir, name+".csv"), result); err != nil {
			return "", fmt.Errorf("failed to export table %s: %w", name, err)
		}
	}
	return dir, nil
}

func writeTableCSV(path string, result *database.QueryResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(result.Columns); err != nil {
		return err
	}

	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i, column := range result.Columns {
			record[i] = formatField(row[column])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatField(value interface{}) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}
