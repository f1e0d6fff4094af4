// Package store provides persistent storage for the orchestrator using SQLite.
//
// # Data Models
//
//   - Thread: one conversation with the orchestrator
//   - Message: individual messages with a role (user, assistant, tool)
//   - Invocation: audit record of one tool run — params, exit code, timing
//
// SQLiteStore implements the Store interface on modernc.org/sqlite with WAL
// mode enabled. The schema is created automatically on open; parent
// directories of the database path are created as needed.
//
// # Failure posture
//
// Only opening the database is fatal to the caller. Write failures during a
// conversation are for the API layer to log and shrug off: losing an audit
// row must never fail a chat turn.
package store
