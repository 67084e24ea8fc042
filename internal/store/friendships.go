// ABOUTME: SQLite persistence for confirmed friendships
// ABOUTME: Pairs are stored in sorted key order so lookups ignore argument order

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lemcom/lemcom-directory/internal/directory"
)

func sortedPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// GetFriendshipByKeys finds the friendship between a and b in either order.
// Returns ErrNotFound if the users are not friends.
func (s *SQLiteStore) GetFriendshipByKeys(ctx context.Context, a, b string) (*directory.Friendship, error) {
	keyA, keyB := sortedPair(a, b)
	query := `SELECT id, key_a, key_b, created_at FROM friendships WHERE key_a = ? AND key_b = ?`

	f, err := scanFriendship(s.db.QueryRowContext(ctx, query, keyA, keyB))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

// ListFriendshipsByKey returns every friendship containing key, oldest insert first.
func (s *SQLiteStore) ListFriendshipsByKey(ctx context.Context, key string) ([]*directory.Friendship, error) {
	query := `
		SELECT id, key_a, key_b, created_at
		FROM friendships
		WHERE key_a = ? OR key_b = ?
		ORDER BY rowid
	`

	rows, err := s.db.QueryContext(ctx, query, key, key)
	if err != nil {
		return nil, fmt.Errorf("querying friendships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var friendships []*directory.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, err
		}
		friendships = append(friendships, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friendship rows: %w", err)
	}

	return friendships, nil
}

// CreateFriendship inserts a friendship.
// Returns ErrDuplicateFriendship if the pair is already linked.
func (s *SQLiteStore) CreateFriendship(ctx context.Context, f *directory.Friendship) error {
	keyA, keyB := sortedPair(f.Keys[0], f.Keys[1])
	query := `INSERT INTO friendships (id, key_a, key_b, created_at) VALUES (?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, f.ID, keyA, keyB, formatTime(f.CreatedAt))
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateFriendship
		}
		return fmt.Errorf("inserting friendship: %w", err)
	}

	s.logger.Debug("created friendship", "id", f.ID, "key_a", keyA, "key_b", keyB)
	return nil
}

// DeleteFriendship removes a friendship by ID.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) DeleteFriendship(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting friendship: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted friendship", "id", id)
	return nil
}

func scanFriendship(row rowScanner) (*directory.Friendship, error) {
	var f directory.Friendship
	var createdAt string

	if err := row.Scan(&f.ID, &f.Keys[0], &f.Keys[1], &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning friendship row: %w", err)
	}

	var err error
	if f.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// Ensure SQLiteStore implements FriendshipStore interface.
var _ FriendshipStore = (*SQLiteStore)(nil)
