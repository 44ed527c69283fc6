package migrator

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/fetcharr/fetcharrctl/internal/database"
)

// buildInsert renders the parameterized INSERT used for every row of one
// table, in the destination's placeholder style. Values are bound
// positionally, so the rendered column order must match the introspected
// order exactly; a mismatch would silently write values into the wrong
// columns.
func buildInsert(dialect database.Dialect, table string, columns []Column) (string, error) {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = dialect.QuoteIdentifier(c.Name)
	}

	// One placeholder per column; the blank values only drive placeholder
	// generation and are discarded with the returned args.
	blanks := make([]interface{}, len(columns))

	text, _, err := sq.Insert(dialect.QuoteIdentifier(table)).
		Columns(names...).
		Values(blanks...).
		PlaceholderFormat(dialect.Placeholder()).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert for %s: %w", table, err)
	}
	return text, nil
}
