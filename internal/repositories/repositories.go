// package repositories provides the persistence layer for locally stored
// state.
//
// The only entity strum persists is the OAuth session, stored as a single-row
// table in SQLite. The store treats token data as an opaque blob from the
// rest of the application's perspective: the gateway loads it at startup and
// saves it after every successful refresh.
package repositories

import (
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist.
func Migrate(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expiry TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}
