package migrator

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/fetcharr/fetcharrctl/internal/database"
)

// Column describes one column of a source table as reported by the engine's
// result-set metadata.
type Column struct {
	Name     string
	Position int
}

// IntrospectColumns discovers the ordered column list the source engine
// reports for a full select of table. Column shapes are only known at run
// time: deployments add columns through application migrations, and the
// copier must follow whatever shape it finds. Failure here is fatal to the
// whole run.
func IntrospectColumns(ctx context.Context, db *sql.DB, dialect database.Dialect, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", dialect.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("introspect table %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspect table %s: %w", table, err)
	}

	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{Name: name, Position: i}
	}
	return columns, nil
}

// selectColumns builds the read cursor's statement over the introspected
// columns. Selecting them explicitly pins the read order to the insert
// bind order; a bare SELECT * would leave that to chance on two queries.
func selectColumns(dialect database.Dialect, table string, columns []Column) (string, error) {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = dialect.QuoteIdentifier(c.Name)
	}

	text, _, err := sq.Select(names...).From(dialect.QuoteIdentifier(table)).ToSql()
	if err != nil {
		return "", fmt.Errorf("build select for %s: %w", table, err)
	}
	return text, nil
}
