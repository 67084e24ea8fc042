// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user, friendship and notification persistence with automatic schema creation

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	_ "modernc.org/sqlite"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// timeLayout keeps nanoseconds so stored stamps round-trip exactly
const timeLayout = time.RFC3339Nano

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single in-memory database only exists on one connection
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// connectionPragmas run on every pooled connection, not just the first one.
var connectionPragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// dataSourceName builds a DSN that applies connectionPragmas per connection.
// Transactions take the write lock at BEGIN and wait out busy_timeout there.
func dataSourceName(path string) string {
	params := url.Values{}
	for _, p := range connectionPragmas {
		params.Add("_pragma", p)
	}
	params.Set("_txlock", "immediate")
	return "file:" + path + "?" + params.Encode()
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			key                   TEXT PRIMARY KEY,
			name                  TEXT NOT NULL UNIQUE,
			display_name          TEXT NOT NULL,
			created_at            TEXT NOT NULL,
			last_access_at        TEXT NOT NULL,
			permission_level      TEXT NOT NULL DEFAULT 'User',
			timezone              TEXT NOT NULL DEFAULT 'UTC',
			appear_on_public_list INTEGER NOT NULL DEFAULT 0,
			show_join_date        TEXT NOT NULL DEFAULT 'Public',
			show_online_date      TEXT NOT NULL DEFAULT 'Public',
			show_in_search        TEXT NOT NULL DEFAULT 'Public',
			show_timezone         TEXT NOT NULL DEFAULT 'Private',
			show_profile          TEXT NOT NULL DEFAULT 'Public',
			allow_friend_requests INTEGER NOT NULL DEFAULT 1,
			profile_json          TEXT NOT NULL DEFAULT '{}',

			CHECK (permission_level IN ('User', 'Moderator', 'Administrator', 'Owner'))
		);

		CREATE INDEX IF NOT EXISTS idx_users_public ON users(appear_on_public_list);

		CREATE TABLE IF NOT EXISTS endpoint_usage (
			user_key TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			count    INTEGER NOT NULL,
			PRIMARY KEY (user_key, endpoint),
			FOREIGN KEY (user_key) REFERENCES users(key) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS friend_requests (
			receiver_key TEXT NOT NULL,
			sender_key   TEXT NOT NULL,
			sent_at      TEXT NOT NULL,
			PRIMARY KEY (receiver_key, sender_key),
			FOREIGN KEY (receiver_key) REFERENCES users(key) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS block_list (
			owner_key   TEXT NOT NULL,
			blocked_key TEXT NOT NULL,
			blocked_at  TEXT NOT NULL,
			PRIMARY KEY (owner_key, blocked_key),
			FOREIGN KEY (owner_key) REFERENCES users(key) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_block_list_blocked ON block_list(blocked_key);

		CREATE TABLE IF NOT EXISTS friendships (
			id         TEXT PRIMARY KEY,
			key_a      TEXT NOT NULL,
			key_b      TEXT NOT NULL,
			created_at TEXT NOT NULL,

			CHECK (key_a < key_b)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_friendships_pair ON friendships(key_a, key_b);
		CREATE INDEX IF NOT EXISTS idx_friendships_b ON friendships(key_b);

		CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT PRIMARY KEY,
			kind         TEXT NOT NULL,
			receiver_key TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			payload_json TEXT NOT NULL,

			CHECK (kind IN ('FriendRequestReceived'))
		);

		CREATE INDEX IF NOT EXISTS idx_notifications_receiver ON notifications(receiver_key);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies schema migrations for existing databases
func (s *SQLiteStore) runMigrations() error {
	// Databases created before show_profile existed lack the column.
	// SQLite doesn't support ADD COLUMN IF NOT EXISTS, so we check first
	migrations := []struct {
		check  string // Query to check if migration is needed
		apply  string // Query to apply the migration
		column string // Column name for logging
	}{
		{
			check:  `SELECT 1 FROM pragma_table_info('users') WHERE name = 'show_profile'`,
			apply:  `ALTER TABLE users ADD COLUMN show_profile TEXT NOT NULL DEFAULT 'Public'`,
			column: "show_profile",
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(m.check).Scan(&exists)
		if err == nil {
			// Column already exists, skip
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("checking column %s: %w", m.column, err)
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column: %w", m.column, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", "users")
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
