package store

import "github.com/compvault/compvault/migrations"

// Migrate applies all pending schema migrations embedded in the migrations
// package against this connection. Only the PostgreSQL server store uses
// goose migrations; the client SQLite schema is bootstrapped at connect
// time instead.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}
