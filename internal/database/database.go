// Package database opens connections to the application's stores and
// abstracts the engine differences (placeholders, quoting, error codes)
// behind a small Dialect interface.
package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Detect reports which engine a target string refers to. URLs select a
// server engine by scheme; anything else is a path to a SQLite file.
func Detect(target string) Dialect {
	switch {
	case strings.HasPrefix(target, "postgres://"), strings.HasPrefix(target, "postgresql://"):
		return Postgres
	case strings.HasPrefix(target, "mysql://"):
		return MySQL
	default:
		return SQLite
	}
}

// Open connects to the store identified by target and reports the dialect it
// speaks. SQLite targets must already exist on disk: this tool operates on
// deployed stores and never creates one.
func Open(target string) (*sql.DB, Dialect, error) {
	dialect := Detect(target)

	dsn := target
	switch dialect {
	case SQLite:
		if _, err := os.Stat(target); err != nil {
			return nil, nil, fmt.Errorf("sqlite database %s: %w", target, err)
		}
		// Enforce foreign keys so constraint violations surface the same
		// way they do on the server engines.
		dsn = "file:" + target + "?_foreign_keys=1"
	case MySQL:
		var err error
		if dsn, err = mysqlDSN(target); err != nil {
			return nil, nil, err
		}
	}

	db, err := sql.Open(dialect.Driver(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", dialect.Name(), err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect to %s database: %w", dialect.Name(), err)
	}
	return db, dialect, nil
}

// mysqlDSN rewrites a mysql:// URL into the driver's DSN form.
func mysqlDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse mysql url: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	for key, vals := range u.Query() {
		if len(vals) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[key] = vals[0]
	}
	return cfg.FormatDSN(), nil
}
