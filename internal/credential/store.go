// Package credential persists the session token across runs.
//
// The token is the ONLY thing this client persists. Snippets, history, and
// stats always come fresh from the service — caching them locally would just
// invite drift from server truth.
//
// WHY SQLITE FOR ONE ROW?
// A single-file embedded database gives us atomic writes and a schema we can
// grow (the driver is modernc.org/sqlite, pure Go, no C compiler needed).
// A bare token file would work today, but loses atomicity on crash and has
// no room for a second credential if the service ever grows refresh tokens.
package credential

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// Store reads and writes the persisted bearer token.
type Store struct {
	conn  *sql.DB
	clock clockwork.Clock
}

// Open creates or opens the credential database at dbPath.
// Use ":memory:" in tests.
func Open(dbPath string) (*Store, error) {
	return OpenWithClock(dbPath, clockwork.NewRealClock())
}

// OpenWithClock is Open with an injectable clock for tests.
func OpenWithClock(dbPath string, clock clockwork.Clock) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("credential: opening database: %w", err)
	}

	// Force an immediate connection so a bad path surfaces here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("credential: pinging database: %w", err)
	}

	// WAL keeps concurrent invocations of the CLI from tripping over the
	// default whole-file write lock.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("credential: setting WAL mode: %w", err)
	}

	s := &Store{conn: conn, clock: clock}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("credential: running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// migrate creates the credential table. The CHECK constraint pins the table
// to a single row — there is exactly one session per client instance.
func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS credential (
			id       INTEGER PRIMARY KEY CHECK (id = 1),
			token    TEXT NOT NULL,
			saved_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating credential table: %w", err)
	}
	return nil
}

// Token returns the persisted token, or "" when none is stored.
func (s *Store) Token() (string, error) {
	var token string
	err := s.conn.QueryRow(`SELECT token FROM credential WHERE id = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credential: reading token: %w", err)
	}
	return token, nil
}

// Save stores the token, replacing any previous one.
func (s *Store) Save(token string) error {
	if token == "" {
		return fmt.Errorf("credential: refusing to save empty token")
	}
	_, err := s.conn.Exec(`
		INSERT INTO credential (id, token, saved_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at
	`, token, s.clock.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("credential: saving token: %w", err)
	}
	return nil
}

// Clear removes the persisted token. Clearing an empty store is fine —
// logout must be idempotent.
func (s *Store) Clear() error {
	if _, err := s.conn.Exec(`DELETE FROM credential WHERE id = 1`); err != nil {
		return fmt.Errorf("credential: clearing token: %w", err)
	}
	return nil
}
