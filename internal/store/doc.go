// Package store provides persistent storage for the directory using SQLite.
//
// # Architecture
//
// The store package uses an interface-driven architecture with one interface
// per collection:
//
//   - UserStore: User aggregates with their usage, request and block maps
//   - FriendshipStore: Confirmed friendships between two user keys
//   - NotificationStore: Notifications of every kind, by receiver
//   - UsageStore: Aggregated endpoint usage statistics
//
// SQLiteStore implements all interfaces in a single struct, and Store
// combines them for callers that need everything.
//
// # Data Layout
//
// A User is one row in users plus rows in endpoint_usage, friend_requests and
// block_list. SaveUser rewrites all of them in one transaction, so a save is
// always a full replace of the aggregate. Friendships store their keys in
// sorted order with a unique index on the pair. Notifications keep their
// kind-specific fields in a JSON payload.
//
// Timestamps are stored as RFC 3339 strings in UTC with nanoseconds.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//	PRAGMA busy_timeout=5000;
//
// Database file locations:
//
//   - Production: /var/lib/lemcom/directory.db
//   - Development: ~/.local/share/lemcom/directory.db
//   - Testing: a file under t.TempDir()
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrDuplicateName: Another user already owns the name
//   - ErrDuplicateFriendship: The pair is already linked
//
// Every other error is a storage failure. All methods accept context.Context
// for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests. FailOn injects an error into a single
// method to exercise storage-failure paths:
//
//	s := store.NewMockStore()
//	s.FailOn("SaveUser", errors.New("disk full"))
package store
