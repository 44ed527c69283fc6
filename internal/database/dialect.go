package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Dialect captures the engine-specific behavior the tooling needs: driver
// selection, placeholder style, identifier quoting, and error
// classification.
type Dialect interface {
	// Name is the human-readable engine name used in progress output.
	Name() string

	// Driver names the database/sql driver connections are opened with.
	Driver() string

	// Placeholder is the positional placeholder style for built statements.
	Placeholder() sq.PlaceholderFormat

	// QuoteIdentifier makes a table or column name safe to interpolate into
	// SQL text. Quoting is not optional here: release is a reserved word on
	// both SQLite and PostgreSQL.
	QuoteIdentifier(name string) string

	// IsConstraintViolation reports whether err is an integrity-constraint
	// violation (foreign key, unique, not-null, check) raised by a single
	// statement, as opposed to a connection or syntax failure.
	IsConstraintViolation(err error) bool

	// ResetAutoIncrement rewinds the table's auto-increment counter inside
	// tx. A table that never had a counter is not an error.
	ResetAutoIncrement(ctx context.Context, tx *sql.Tx, table string) error
}

var (
	SQLite   Dialect = sqliteDialect{}
	Postgres Dialect = postgresDialect{}
	MySQL    Dialect = mysqlDialect{}
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string   { return "SQLite" }
func (sqliteDialect) Driver() string { return "sqlite3" }

func (sqliteDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (sqliteDialect) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

func (sqliteDialect) IsConstraintViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return looksLikeConstraintViolation(err)
}

func (sqliteDialect) ResetAutoIncrement(ctx context.Context, tx *sql.Tx, table string) error {
	// sqlite_sequence only exists once some table uses AUTOINCREMENT; a
	// store without it has nothing to rewind.
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'").Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, "UPDATE sqlite_sequence SET seq = 0 WHERE name = ?", table)
	return err
}

type postgresDialect struct{}

func (postgresDialect) Name() string   { return "PostgreSQL" }
func (postgresDialect) Driver() string { return "pgx" }

func (postgresDialect) Placeholder() sq.PlaceholderFormat { return sq.Dollar }

func (postgresDialect) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

func (postgresDialect) IsConstraintViolation(err error) bool {
	// SQLSTATE class 23 covers every integrity-constraint violation:
	// not-null (23502), foreign key (23503), unique (23505), check (23514).
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return looksLikeConstraintViolation(err)
}

func (d postgresDialect) ResetAutoIncrement(ctx context.Context, tx *sql.Tx, table string) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_name = $1 AND column_default LIKE 'nextval(%'`, table)
	if err != nil {
		return err
	}

	var serials []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			rows.Close()
			return err
		}
		serials = append(serials, col)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, col := range serials {
		var seq sql.NullString
		err := tx.QueryRowContext(ctx,
			"SELECT pg_get_serial_sequence($1, $2)", d.QuoteIdentifier(table), col).Scan(&seq)
		if err != nil {
			return err
		}
		if !seq.Valid {
			// The default references no live sequence; nothing to rewind.
			continue
		}
		if _, err := tx.ExecContext(ctx, "SELECT setval($1, 1, false)", seq.String); err != nil {
			return err
		}
	}
	return nil
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string   { return "MySQL" }
func (mysqlDialect) Driver() string { return "mysql" }

func (mysqlDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (mysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// mysqlConstraintErrnos are the server error numbers raised by integrity
// constraint violations: null columns, duplicate keys, and both directions
// of a foreign-key failure.
var mysqlConstraintErrnos = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry for key
	1216: true, // cannot add child row, no referenced row
	1217: true, // cannot delete parent row, row is referenced
	1451: true, // row is referenced (InnoDB)
	1452: true, // no referenced row (InnoDB)
	1586: true, // duplicate entry with key name
	1761: true, // foreign duplicate key with child info
	1762: true, // foreign duplicate key without child info
}

func (mysqlDialect) IsConstraintViolation(err error) bool {
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return mysqlConstraintErrnos[merr.Number]
	}
	return looksLikeConstraintViolation(err)
}

func (d mysqlDialect) ResetAutoIncrement(ctx context.Context, tx *sql.Tx, table string) error {
	// MySQL runs an implicit commit for ALTER TABLE, so on this engine the
	// wipe is durable from the first counter rewind onward. Tables without
	// an AUTO_INCREMENT column accept the statement as a no-op.
	_, err := tx.ExecContext(ctx,
		fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = 1", d.QuoteIdentifier(table)))
	return err
}

// looksLikeConstraintViolation is the last-resort classifier for error types
// none of the driver checks recognize, e.g. errors re-wrapped by a pooler.
func looksLikeConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "constraint")
}
