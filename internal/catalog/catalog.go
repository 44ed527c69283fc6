// Package catalog enumerates the application tables the operator tooling is
// allowed to touch. The table names and their order are a compatibility
// contract with existing deployments and must not change between releases.
package catalog

// Table identifies one application table.
type Table struct {
	Name string
}

// migrationOrder lists every migratable table in foreign-key dependency
// order, parents before children. Copying in any other order could insert a
// child row before the parent row it references exists.
var migrationOrder = []Table{
	{Name: "users"},
	{Name: "indexer"},
	{Name: "irc_network"},
	{Name: "irc_channel"},
	{Name: "client"},
	{Name: "filter"},
	{Name: "action"},
	{Name: "notification"},
	{Name: "filter_indexer"},
	{Name: "release"},
	{Name: "release_action_status"},
	{Name: "feed"},
	{Name: "api_key"},
}

// feedCache is wiped on reset but never migrated; its rows are re-derived
// from the feeds themselves.
var feedCache = Table{Name: "feed_cache"}

// MigrationTables returns the tables to copy, parents before children.
func MigrationTables() []Table {
	tables := make([]Table, len(migrationOrder))
	copy(tables, migrationOrder)
	return tables
}

// ResetTables returns the tables to wipe, children before parents, so the
// deletes succeed even when the store enforces foreign keys. The list
// includes feed_cache, which is never migrated.
func ResetTables() []Table {
	tables := make([]Table, 0, len(migrationOrder)+1)
	tables = append(tables, feedCache)
	for i := len(migrationOrder) - 1; i >= 0; i-- {
		tables = append(tables, migrationOrder[i])
	}
	return tables
}

// AllTables returns every known table in parents-first order, feed_cache
// included. Used by operations that read the whole store without caring
// about delete safety, such as exports.
func AllTables() []Table {
	return append(MigrationTables(), feedCache)
}

// Names flattens a table list to its bare names.
func Names(tables []Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}
