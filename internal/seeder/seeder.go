// Package seeder clears and repopulates a destination store: reset deletes
// every catalog table inside one transaction, seed replays a SQL fixture
// script as a single all-or-nothing unit.
package seeder

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/fetcharr/fetcharrctl/internal/catalog"
	"github.com/fetcharr/fetcharrctl/internal/database"
)

type Seeder struct {
	db      *sql.DB
	dialect database.Dialect
}

func New(db *sql.DB, dialect database.Dialect) *Seeder {
	return &Seeder{db: db, dialect: dialect}
}

// Reset deletes all rows from the given tables and rewinds their
// auto-increment counters, all in one transaction. Tables must be ordered
// children before parents so the deletes succeed with foreign keys
// enforced. Returns the total number of rows deleted.
func (s *Seeder) Reset(ctx context.Context, tables []catalog.Table) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin reset transaction: %w", err)
	}

	var deleted int64
	for _, t := range tables {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+s.dialect.QuoteIdentifier(t.Name))
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to clear table %s: %w", t.Name, err)
		}
		n, _ := res.RowsAffected()
		deleted += n

		// Tables that never had an auto-increment counter are skipped
		// inside ResetAutoIncrement; anything else is fatal.
		if err := s.dialect.ResetAutoIncrement(ctx, tx, t.Name); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to reset auto-increment for %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reset: %w", err)
	}
	return deleted, nil
}

// Seed reads the SQL script at path and executes each statement inside one
// transaction. The first failing statement aborts the whole seed; nothing
// is committed. Returns the number of statements executed.
func (s *Seeder) Seed(ctx context.Context, path string) (int, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed script: %w", err)
	}

	statements := database.SplitStatements(string(script))
	if len(statements) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("seed statement %d failed: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}
	return len(statements), nil
}
