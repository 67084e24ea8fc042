// ABOUTME: SQLite persistence for User aggregates
// ABOUTME: A user row plus its usage counters, incoming requests and block list

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lemcom/lemcom-directory/internal/directory"
)

const userColumns = `
	key, name, display_name, created_at, last_access_at, permission_level, timezone,
	appear_on_public_list, show_join_date, show_online_date, show_in_search,
	show_timezone, show_profile, allow_friend_requests, profile_json
`

type rowScanner interface {
	Scan(dest ...any) error
}

// GetUserByKey retrieves a user with all embedded maps.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUserByKey(ctx context.Context, key string) (*directory.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE key = ?`
	return s.getUser(ctx, query, key)
}

// GetUserByName retrieves a user by lower-cased name.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUserByName(ctx context.Context, name string) (*directory.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE name = ?`
	return s.getUser(ctx, query, strings.ToLower(name))
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg string) (*directory.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadUserMaps(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SaveUser upserts a user by key and replaces its usage, request and block rows.
// Returns ErrDuplicateName if another key already owns the name.
func (s *SQLiteStore) SaveUser(ctx context.Context, user *directory.User) error {
	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			display_name = excluded.display_name,
			created_at = excluded.created_at,
			last_access_at = excluded.last_access_at,
			permission_level = excluded.permission_level,
			timezone = excluded.timezone,
			appear_on_public_list = excluded.appear_on_public_list,
			show_join_date = excluded.show_join_date,
			show_online_date = excluded.show_online_date,
			show_in_search = excluded.show_in_search,
			show_timezone = excluded.show_timezone,
			show_profile = excluded.show_profile,
			allow_friend_requests = excluded.allow_friend_requests,
			profile_json = excluded.profile_json
	`
	settings := user.Settings
	_, err = tx.ExecContext(ctx, query,
		user.Key,
		strings.ToLower(user.Name),
		user.DisplayName,
		formatTime(user.CreatedAt),
		formatTime(user.LastAccessAt),
		string(user.PermissionLevel),
		user.Location().String(),
		boolToInt(settings.AppearOnPublicList),
		string(settings.ShowJoinDate),
		string(settings.ShowOnlineDate),
		string(settings.ShowInSearch),
		string(settings.ShowTimezone),
		string(settings.ShowProfile),
		boolToInt(settings.AllowFriendRequests),
		string(profile),
	)
	if err != nil {
		if isConstraintViolation(err) && strings.Contains(err.Error(), "users.name") {
			return ErrDuplicateName
		}
		return fmt.Errorf("upserting user: %w", err)
	}

	if err := replaceUsage(ctx, tx, user); err != nil {
		return err
	}
	if err := replaceStampedKeys(ctx, tx, "friend_requests", "receiver_key", "sender_key", "sent_at", user.Key, user.FriendRequests); err != nil {
		return err
	}
	if err := replaceStampedKeys(ctx, tx, "block_list", "owner_key", "blocked_key", "blocked_at", user.Key, user.BlockList); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user: %w", err)
	}

	s.logger.Debug("saved user",
		"key", user.Key,
		"name", user.Name,
		"friend_requests", len(user.FriendRequests),
		"blocked", len(user.BlockList),
	)
	return nil
}

// ListPublicUsers returns one page of users that appear on the public list.
func (s *SQLiteStore) ListPublicUsers(ctx context.Context, filter PublicUserFilter, offset, limit int) ([]*directory.User, error) {
	where, args := publicUserWhere(filter)
	query := `SELECT ` + userColumns + ` FROM users u WHERE ` + where + ` ORDER BY u.rowid LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying public users: %w", err)
	}

	var users []*directory.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	_ = rows.Close()

	for _, user := range users {
		if err := s.loadUserMaps(ctx, user); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// CountPublicUsers counts every user ListPublicUsers could return.
func (s *SQLiteStore) CountPublicUsers(ctx context.Context, filter PublicUserFilter) (int, error) {
	where, args := publicUserWhere(filter)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u WHERE `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting public users: %w", err)
	}
	return count, nil
}

func publicUserWhere(filter PublicUserFilter) (string, []any) {
	clauses := []string{"u.appear_on_public_list = 1"}
	var args []any

	if len(filter.ExcludeKeys) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.ExcludeKeys)), ",")
		clauses = append(clauses, "u.key NOT IN ("+placeholders+")")
		for _, k := range filter.ExcludeKeys {
			args = append(args, k)
		}
	}
	if filter.ViewerKey != "" {
		clauses = append(clauses, `NOT EXISTS (
			SELECT 1 FROM block_list b WHERE b.owner_key = u.key AND b.blocked_key = ?
		)`)
		args = append(args, filter.ViewerKey)
	}
	return strings.Join(clauses, " AND "), args
}

func scanUser(row rowScanner) (*directory.User, error) {
	var user directory.User
	var createdAt, lastAccessAt, permission, timezone, profile string
	var joinDate, onlineDate, inSearch, showTimezone, showProfile string
	var appearOnPublic, allowRequests int

	err := row.Scan(
		&user.Key,
		&user.Name,
		&user.DisplayName,
		&createdAt,
		&lastAccessAt,
		&permission,
		&timezone,
		&appearOnPublic,
		&joinDate,
		&onlineDate,
		&inSearch,
		&showTimezone,
		&showProfile,
		&allowRequests,
		&profile,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning user row: %w", err)
	}

	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if user.LastAccessAt, err = parseTime("last_access_at", lastAccessAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(profile), &user.Profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}

	user.PermissionLevel = directory.PermissionLevel(permission)
	user.Settings = directory.Settings{
		AppearOnPublicList:  appearOnPublic != 0,
		ShowJoinDate:        directory.PrivacyLevel(joinDate),
		ShowOnlineDate:      directory.PrivacyLevel(onlineDate),
		ShowInSearch:        directory.PrivacyLevel(inSearch),
		ShowTimezone:        directory.PrivacyLevel(showTimezone),
		ShowProfile:         directory.PrivacyLevel(showProfile),
		AllowFriendRequests: allowRequests != 0,
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	user.Timezone = loc

	return &user, nil
}

func (s *SQLiteStore) loadUserMaps(ctx context.Context, user *directory.User) error {
	user.EndpointUsage = make(map[string]uint64)
	rows, err := s.db.QueryContext(ctx, `SELECT endpoint, count FROM endpoint_usage WHERE user_key = ?`, user.Key)
	if err != nil {
		return fmt.Errorf("querying endpoint usage: %w", err)
	}
	for rows.Next() {
		var endpoint string
		var count int64
		if err := rows.Scan(&endpoint, &count); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning endpoint usage: %w", err)
		}
		user.EndpointUsage[endpoint] = uint64(count)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating endpoint usage: %w", err)
	}
	_ = rows.Close()

	user.FriendRequests, err = s.loadStampedKeys(ctx,
		`SELECT sender_key, sent_at FROM friend_requests WHERE receiver_key = ? ORDER BY rowid`, user.Key)
	if err != nil {
		return fmt.Errorf("loading friend requests: %w", err)
	}

	user.BlockList, err = s.loadStampedKeys(ctx,
		`SELECT blocked_key, blocked_at FROM block_list WHERE owner_key = ? ORDER BY rowid`, user.Key)
	if err != nil {
		return fmt.Errorf("loading block list: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadStampedKeys(ctx context.Context, query, key string) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]time.Time)
	for rows.Next() {
		var other, stamp string
		if err := rows.Scan(&other, &stamp); err != nil {
			return nil, err
		}
		t, err := parseTime("timestamp", stamp)
		if err != nil {
			return nil, err
		}
		result[other] = t
	}
	return result, rows.Err()
}

func replaceUsage(ctx context.Context, tx *sql.Tx, user *directory.User) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM endpoint_usage WHERE user_key = ?`, user.Key); err != nil {
		return fmt.Errorf("clearing endpoint usage: %w", err)
	}
	for endpoint, count := range user.EndpointUsage {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO endpoint_usage (user_key, endpoint, count) VALUES (?, ?, ?)`,
			user.Key, endpoint, int64(count))
		if err != nil {
			return fmt.Errorf("inserting endpoint usage: %w", err)
		}
	}
	return nil
}

// replaceStampedKeys rewrites a key -> timestamp map owned by one user.
// Rows that survive keep their rowid, so storage order is stable.
func replaceStampedKeys(ctx context.Context, tx *sql.Tx, table, ownerCol, otherCol, stampCol, owner string, entries map[string]time.Time) error {
	existing := make(map[string]bool)
	rows, err := tx.QueryContext(ctx, `SELECT `+otherCol+` FROM `+table+` WHERE `+ownerCol+` = ?`, owner)
	if err != nil {
		return fmt.Errorf("querying %s: %w", table, err)
	}
	for rows.Next() {
		var other string
		if err := rows.Scan(&other); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning %s: %w", table, err)
		}
		existing[other] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating %s: %w", table, err)
	}
	_ = rows.Close()

	for other := range existing {
		if _, ok := entries[other]; ok {
			continue
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+ownerCol+` = ? AND `+otherCol+` = ?`, owner, other)
		if err != nil {
			return fmt.Errorf("deleting from %s: %w", table, err)
		}
	}

	for other, stamp := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO `+table+` (`+ownerCol+`, `+otherCol+`, `+stampCol+`) VALUES (?, ?, ?)
			ON CONFLICT(`+ownerCol+`, `+otherCol+`) DO UPDATE SET `+stampCol+` = excluded.`+stampCol,
			owner, other, formatTime(stamp))
		if err != nil {
			return fmt.Errorf("writing %s: %w", table, err)
		}
	}
	return nil
}

// Ensure SQLiteStore implements UserStore interface.
var _ UserStore = (*SQLiteStore)(nil)
