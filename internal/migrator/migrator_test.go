package migrator

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fetcharr/fetcharrctl/internal/catalog"
	"github.com/fetcharr/fetcharrctl/internal/database"
)

// openStore opens an isolated SQLite store with foreign keys enforced, the
// same way production connections are opened.
func openStore(t *testing.T, name string) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=1")
	if err != nil {
		t.Fatalf("failed to open store %s: %v", name, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustExec(t *testing.T, db *sql.DB, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup statement failed: %v\n%s", err, stmt)
		}
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	query := "SELECT COUNT(*) FROM " + database.SQLite.QuoteIdentifier(table)
	if err := db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return n
}

func TestIntrospectColumns(t *testing.T) {
	db := openStore(t, "src.db")
	mustExec(t, db, "CREATE TABLE client (id INTEGER PRIMARY KEY, name TEXT, enabled INTEGER)")

	t.Run("returns columns in declared order", func(t *testing.T) {
		columns, err := IntrospectColumns(context.Background(), db, database.SQLite, "client")
		if err != nil {
			t.Fatalf("introspection failed: %v", err)
		}

		want := []string{"id", "name", "enabled"}
		if len(columns) != len(want) {
			t.Fatalf("expected %d columns, got %d", len(want), len(columns))
		}
		for i, name := range want {
			if columns[i].Name != name {
				t.Errorf("column %d: expected %q, got %q", i, name, columns[i].Name)
			}
			if columns[i].Position != i {
				t.Errorf("column %q: expected position %d, got %d", name, i, columns[i].Position)
			}
		}
	})

	t.Run("missing table is an error", func(t *testing.T) {
		if _, err := IntrospectColumns(context.Background(), db, database.SQLite, "ghost"); err == nil {
			t.Error("expected an error for a missing table")
		}
	})
}

func TestBuildInsert(t *testing.T) {
	columns := []Column{{Name: "id", Position: 0}, {Name: "name", Position: 1}, {Name: "enabled", Position: 2}}

	t.Run("question placeholders", func(t *testing.T) {
		text, err := buildInsert(database.SQLite, "client", columns)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		if got := strings.Count(text, "?"); got != len(columns) {
			t.Errorf("expected %d placeholders, got %d in %q", len(columns), got, text)
		}
		if !strings.Contains(text, `"client"`) {
			t.Errorf("table name must be quoted: %q", text)
		}
	})

	t.Run("dollar placeholders", func(t *testing.T) {
		text, err := buildInsert(database.Postgres, "client", columns)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		for i := 1; i <= len(columns); i++ {
			if !strings.Contains(text, fmt.Sprintf("$%d", i)) {
				t.Errorf("expected placeholder $%d in %q", i, text)
			}
		}
		if strings.Contains(text, "?") {
			t.Errorf("dollar statement must not carry question placeholders: %q", text)
		}
	})

	t.Run("column order follows introspection order", func(t *testing.T) {
		text, err := buildInsert(database.SQLite, "client", columns)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		last := -1
		for _, c := range columns {
			idx := strings.Index(text, database.SQLite.QuoteIdentifier(c.Name))
			if idx < 0 {
				t.Fatalf("column %q missing from %q", c.Name, text)
			}
			if idx < last {
				t.Errorf("column %q out of order in %q", c.Name, text)
			}
			last = idx
		}
	})
}

func TestCopyTable(t *testing.T) {
	ctx := context.Background()

	t.Run("copies every row", func(t *testing.T) {
		source := openStore(t, "src.db")
		dest := openStore(t, "dst.db")
		ddl := "CREATE TABLE client (id INTEGER PRIMARY KEY, name TEXT NOT NULL, type TEXT)"
		mustExec(t, source, ddl,
			"INSERT INTO client VALUES (1, 'deluge', 'DELUGE_V2'), (2, 'qbit', 'QBITTORRENT'), (3, 'transmission', 'TRANSMISSION')")
		mustExec(t, dest, ddl)

		m := New(source, database.SQLite, dest, database.SQLite)
		outcome, err := m.CopyTable(ctx, "client")
		if err != nil {
			t.Fatalf("copy failed: %v", err)
		}

		if outcome.RowsRead != 3 || outcome.RowsCommitted != 3 || outcome.RowsSkipped != 0 {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
		if got := countRows(t, dest, "client"); got != 3 {
			t.Errorf("expected 3 destination rows, got %d", got)
		}

		var name string
		if err := dest.QueryRow("SELECT name FROM client WHERE id = 2").Scan(&name); err != nil {
			t.Fatalf("failed to read copied row: %v", err)
		}
		if name != "qbit" {
			t.Errorf("expected name %q, got %q", "qbit", name)
		}
	})

	t.Run("skips the violating row and keeps the rest", func(t *testing.T) {
		source := openStore(t, "src.db")
		dest := openStore(t, "dst.db")
		mustExec(t, source,
			"CREATE TABLE irc_channel (id INTEGER PRIMARY KEY, name TEXT NOT NULL, network_id INTEGER NOT NULL)",
			"INSERT INTO irc_channel VALUES (1, '#a', 1), (2, '#b', 99), (3, '#c', 1)")
		mustExec(t, dest,
			"CREATE TABLE irc_network (id INTEGER PRIMARY KEY, name TEXT)",
			"INSERT INTO irc_network VALUES (1, 'libera')",
			"CREATE TABLE irc_channel (id INTEGER PRIMARY KEY, name TEXT NOT NULL, network_id INTEGER NOT NULL REFERENCES irc_network(id))")

		var logs bytes.Buffer
		prev := log.Writer()
		log.SetOutput(&logs)
		defer log.SetOutput(prev)

		m := New(source, database.SQLite, dest, database.SQLite)
		outcome, err := m.CopyTable(ctx, "irc_channel")
		if err != nil {
			t.Fatalf("copy failed: %v", err)
		}

		if outcome.RowsRead != 3 || outcome.RowsCommitted != 2 || outcome.RowsSkipped != 1 {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
		if got := countRows(t, dest, "irc_channel"); got != 2 {
			t.Errorf("expected 2 destination rows, got %d", got)
		}

		// Row 1 was committed before the failure, row 3 after it.
		for _, id := range []int{1, 3} {
			var n int
			if err := dest.QueryRow("SELECT COUNT(*) FROM irc_channel WHERE id = ?", id).Scan(&n); err != nil || n != 1 {
				t.Errorf("expected row %d to survive, count=%d err=%v", id, n, err)
			}
		}

		skipped := 0
		for _, line := range strings.Split(logs.String(), "\n") {
			if strings.Contains(line, "skipping row") && strings.Contains(line, `"irc_channel"`) {
				skipped++
			}
		}
		if skipped != 1 {
			t.Errorf("expected exactly one skipped-row log line naming the table, got %d", skipped)
		}
	})

	t.Run("re-running skips already-copied rows", func(t *testing.T) {
		source := openStore(t, "src.db")
		dest := openStore(t, "dst.db")
		ddl := "CREATE TABLE api_key (key TEXT PRIMARY KEY, name TEXT)"
		mustExec(t, source, ddl, "INSERT INTO api_key VALUES ('k1', 'ci'), ('k2', 'backup')")
		mustExec(t, dest, ddl)

		prev := log.Writer()
		log.SetOutput(&bytes.Buffer{})
		defer log.SetOutput(prev)

		m := New(source, database.SQLite, dest, database.SQLite)
		if _, err := m.CopyTable(ctx, "api_key"); err != nil {
			t.Fatalf("first copy failed: %v", err)
		}

		outcome, err := m.CopyTable(ctx, "api_key")
		if err != nil {
			t.Fatalf("second copy must not be fatal: %v", err)
		}
		if outcome.RowsCommitted != 0 || outcome.RowsSkipped != 2 {
			t.Errorf("expected duplicates to be skipped, got %+v", outcome)
		}
		if got := countRows(t, dest, "api_key"); got != 2 {
			t.Errorf("expected 2 destination rows, got %d", got)
		}
	})

	t.Run("non-constraint errors abort", func(t *testing.T) {
		source := openStore(t, "src.db")
		dest := openStore(t, "dst.db")
		mustExec(t, source,
			"CREATE TABLE feed (id INTEGER PRIMARY KEY, name TEXT, url TEXT)",
			"INSERT INTO feed VALUES (1, 'nightly', 'https://example.org/rss')")
		// Destination is missing the url column: a schema mismatch, not a
		// constraint violation.
		mustExec(t, dest, "CREATE TABLE feed (id INTEGER PRIMARY KEY, name TEXT)")

		m := New(source, database.SQLite, dest, database.SQLite)
		if _, err := m.CopyTable(ctx, "feed"); err == nil {
			t.Fatal("expected a fatal error on schema mismatch")
		}
		if got := countRows(t, dest, "feed"); got != 0 {
			t.Errorf("expected no destination rows after abort, got %d", got)
		}
	})
}

// appSchema mirrors the application's tables closely enough to exercise the
// full catalog with real foreign keys.
var appSchema = []string{
	`CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT NOT NULL, password TEXT NOT NULL)`,
	`CREATE TABLE indexer (id INTEGER PRIMARY KEY, identifier TEXT NOT NULL, name TEXT)`,
	`CREATE TABLE irc_network (id INTEGER PRIMARY KEY, name TEXT NOT NULL, server TEXT)`,
	`CREATE TABLE irc_channel (id INTEGER PRIMARY KEY, name TEXT NOT NULL, network_id INTEGER NOT NULL REFERENCES irc_network(id))`,
	`CREATE TABLE client (id INTEGER PRIMARY KEY, name TEXT NOT NULL, type TEXT)`,
	`CREATE TABLE filter (id INTEGER PRIMARY KEY, name TEXT NOT NULL, enabled INTEGER)`,
	`CREATE TABLE action (id INTEGER PRIMARY KEY, name TEXT NOT NULL, filter_id INTEGER REFERENCES filter(id), client_id INTEGER REFERENCES client(id))`,
	`CREATE TABLE notification (id INTEGER PRIMARY KEY, name TEXT NOT NULL, type TEXT)`,
	`CREATE TABLE filter_indexer (filter_id INTEGER NOT NULL REFERENCES filter(id), indexer_id INTEGER NOT NULL REFERENCES indexer(id), PRIMARY KEY (filter_id, indexer_id))`,
	`CREATE TABLE "release" (id INTEGER PRIMARY KEY, filter_id INTEGER REFERENCES filter(id), torrent_name TEXT)`,
	`CREATE TABLE release_action_status (id INTEGER PRIMARY KEY, release_id INTEGER NOT NULL REFERENCES "release"(id), status TEXT)`,
	`CREATE TABLE feed (id INTEGER PRIMARY KEY, indexer_id INTEGER REFERENCES indexer(id), name TEXT, url TEXT)`,
	`CREATE TABLE api_key (key TEXT PRIMARY KEY, name TEXT, scopes TEXT)`,
}

var appFixtures = []string{
	`INSERT INTO users VALUES (1, 'admin', 'argon2id$hash')`,
	`INSERT INTO indexer VALUES (1, 'btn', 'BTN'), (2, 'ptp', 'PTP')`,
	`INSERT INTO irc_network VALUES (1, 'libera', 'irc.libera.chat')`,
	`INSERT INTO irc_channel VALUES (1, '#announce', 1)`,
	`INSERT INTO client VALUES (1, 'deluge', 'DELUGE_V2')`,
	`INSERT INTO filter VALUES (1, 'tv-1080p', 1)`,
	`INSERT INTO action VALUES (1, 'download', 1, 1)`,
	`INSERT INTO notification VALUES (1, 'discord', 'DISCORD')`,
	`INSERT INTO filter_indexer VALUES (1, 1), (1, 2)`,
	`INSERT INTO "release" VALUES (1, 1, 'Show.S01E01.1080p'), (2, 1, 'Show.S01E02.1080p')`,
	`INSERT INTO release_action_status VALUES (1, 1, 'PUSH_APPROVED')`,
	`INSERT INTO feed VALUES (1, 1, 'btn-rss', 'https://example.org/rss')`,
	`INSERT INTO api_key VALUES ('k1', 'ci', '*')`,
}

func TestRun(t *testing.T) {
	source := openStore(t, "src.db")
	dest := openStore(t, "dst.db")
	mustExec(t, source, appSchema...)
	mustExec(t, source, appFixtures...)
	mustExec(t, dest, appSchema...)

	m := New(source, database.SQLite, dest, database.SQLite)
	var progress bytes.Buffer
	m.out = &progress

	outcomes, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	tables := catalog.MigrationTables()
	if len(outcomes) != len(tables) {
		t.Fatalf("expected %d outcomes, got %d", len(tables), len(outcomes))
	}
	for i, o := range outcomes {
		if o.Table != tables[i].Name {
			t.Errorf("outcome %d: expected table %q, got %q", i, tables[i].Name, o.Table)
		}
		if o.RowsSkipped != 0 {
			t.Errorf("table %s: expected no skipped rows, got %d", o.Table, o.RowsSkipped)
		}
		if o.RowsCommitted != o.RowsRead {
			t.Errorf("table %s: committed %d of %d read", o.Table, o.RowsCommitted, o.RowsRead)
		}
	}

	for _, table := range []string{"users", "irc_channel", "filter_indexer", "release", "release_action_status"} {
		if src, dst := countRows(t, source, table), countRows(t, dest, table); src != dst {
			t.Errorf("table %s: source has %d rows, destination %d", table, src, dst)
		}
	}

	if !strings.Contains(progress.String(), "Migrated table 'client' from SQLite to SQLite") {
		t.Errorf("missing per-table progress line, got:\n%s", progress.String())
	}
}
