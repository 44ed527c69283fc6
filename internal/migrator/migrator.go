// Package migrator copies application data between stores of different
// engines. Column shapes are discovered at run time and rows stream through
// a forward-only cursor. A constraint violation skips the offending row
// without aborting the run.
package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fetcharr/fetcharrctl/internal/catalog"
	"github.com/fetcharr/fetcharrctl/internal/database"
)

// Outcome reports what happened to one table during a copy run.
type Outcome struct {
	Table         string
	RowsRead      int
	RowsCommitted int
	RowsSkipped   int
}

// Migrator streams every catalog table from a source store into a
// destination store. It is strictly sequential: one table at a time, one
// row at a time, with no parallelism between either.
type Migrator struct {
	source    *sql.DB
	sourceDia database.Dialect
	dest      *sql.DB
	destDia   database.Dialect
	tables    []catalog.Table
	out       io.Writer
}

func New(source *sql.DB, sourceDialect database.Dialect, dest *sql.DB, destDialect database.Dialect) *Migrator {
	return &Migrator{
		source:    source,
		sourceDia: sourceDialect,
		dest:      dest,
		destDia:   destDialect,
		tables:    catalog.MigrationTables(),
		out:       os.Stdout,
	}
}

// Run copies every table in catalog order, printing one progress line per
// completed table. On a fatal error the returned outcomes cover the tables
// completed before it.
func (m *Migrator) Run(ctx context.Context) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(m.tables))
	for _, t := range m.tables {
		outcome, err := m.CopyTable(ctx, t.Name)
		if err != nil {
			return outcomes, fmt.Errorf("migrate table %s: %w", t.Name, err)
		}
		outcomes = append(outcomes, outcome)
		fmt.Fprintf(m.out, "Migrated table '%s' from %s to %s\n", t.Name, m.sourceDia.Name(), m.destDia.Name())
	}
	return outcomes, nil
}

// CopyTable streams one table through a forward-only cursor; the whole
// table is never held in memory. Every successfully inserted row is
// committed on its own, so a later row's constraint violation cannot take
// committed rows down with it: the violating row alone is rolled back,
// logged, and counted as skipped. Errors that are not constraint violations
// abort the run.
func (m *Migrator) CopyTable(ctx context.Context, table string) (Outcome, error) {
	outcome := Outcome{Table: table}

	columns, err := IntrospectColumns(ctx, m.source, m.sourceDia, table)
	if err != nil {
		return outcome, err
	}

	insertSQL, err := buildInsert(m.destDia, table, columns)
	if err != nil {
		return outcome, err
	}
	selectSQL, err := selectColumns(m.sourceDia, table, columns)
	if err != nil {
		return outcome, err
	}

	rows, err := m.source.QueryContext(ctx, selectSQL)
	if err != nil {
		return outcome, fmt.Errorf("read table %s: %w", table, err)
	}
	defer rows.Close()

	tx, err := m.dest.BeginTx(ctx, nil)
	if err != nil {
		return outcome, fmt.Errorf("begin transaction: %w", err)
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			tx.Rollback()
			return outcome, fmt.Errorf("scan row from %s: %w", table, err)
		}
		outcome.RowsRead++

		if _, err := tx.ExecContext(ctx, insertSQL, values...); err != nil {
			if !m.destDia.IsConstraintViolation(err) {
				tx.Rollback()
				return outcome, fmt.Errorf("insert into %s: %w", table, err)
			}

			// The violating row is the only uncommitted work; drop it and
			// carry on with a fresh transaction.
			log.Printf("skipping row in table %q due to constraint violation: %v", table, err)
			outcome.RowsSkipped++
			if err := tx.Rollback(); err != nil {
				return outcome, fmt.Errorf("rollback after skipped row in %s: %w", table, err)
			}
			if tx, err = m.dest.BeginTx(ctx, nil); err != nil {
				return outcome, fmt.Errorf("reopen transaction for %s: %w", table, err)
			}
			continue
		}

		// Commit boundary after every successful row: rows inserted before
		// a later failure must survive it.
		if err := tx.Commit(); err != nil {
			return outcome, fmt.Errorf("commit row in %s: %w", table, err)
		}
		outcome.RowsCommitted++
		if tx, err = m.dest.BeginTx(ctx, nil); err != nil {
			return outcome, fmt.Errorf("reopen transaction for %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		tx.Rollback()
		return outcome, fmt.Errorf("read table %s: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return outcome, fmt.Errorf("commit table %s: %w", table, err)
	}
	return outcome, nil
}
