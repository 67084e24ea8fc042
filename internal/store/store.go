// ABOUTME: Store interfaces and shared types for lemcom-directory persistence
// ABOUTME: One typed repository per collection: users, friendships, notifications

package store

import (
	"context"
	"errors"

	"github.com/lemcom/lemcom-directory/internal/directory"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateName is returned when saving a user whose name belongs to another key
var ErrDuplicateName = errors.New("user name already taken")

// ErrDuplicateFriendship is returned when a friendship for the pair already exists
var ErrDuplicateFriendship = errors.New("friendship already exists")

// PublicUserFilter selects users for the public list.
// Only users with AppearOnPublicList set are considered.
type PublicUserFilter struct {
	// ViewerKey excludes users who have the viewer on their block list
	ViewerKey string
	// ExcludeKeys are never returned (the viewer and anyone the viewer blocked)
	ExcludeKeys []string
}

// UserStore persists User aggregates, including their request and block maps.
type UserStore interface {
	GetUserByKey(ctx context.Context, key string) (*directory.User, error)
	// GetUserByName matches the lower-cased name.
	GetUserByName(ctx context.Context, name string) (*directory.User, error)
	// SaveUser upserts by key, fully replacing the stored document.
	SaveUser(ctx context.Context, user *directory.User) error
	ListPublicUsers(ctx context.Context, filter PublicUserFilter, offset, limit int) ([]*directory.User, error)
	CountPublicUsers(ctx context.Context, filter PublicUserFilter) (int, error)
}

// FriendshipStore persists confirmed friendships.
type FriendshipStore interface {
	// GetFriendshipByKeys treats the pair as unordered.
	GetFriendshipByKeys(ctx context.Context, a, b string) (*directory.Friendship, error)
	// ListFriendshipsByKey returns every friendship containing key in storage order.
	ListFriendshipsByKey(ctx context.Context, key string) ([]*directory.Friendship, error)
	CreateFriendship(ctx context.Context, f *directory.Friendship) error
	DeleteFriendship(ctx context.Context, id string) error
}

// NotificationStore persists notifications of every kind.
type NotificationStore interface {
	// SaveNotification updates in place when the notification has an ID that
	// is already stored; otherwise it inserts and returns the stored copy.
	SaveNotification(ctx context.Context, n directory.Notification) (directory.Notification, error)
	ListNotificationsByReceiver(ctx context.Context, receiverKey string) ([]directory.Notification, error)
	ClearNotificationsByReceiver(ctx context.Context, receiverKey string) (int64, error)
}

// Store combines every repository the directory needs.
type Store interface {
	UserStore
	FriendshipStore
	NotificationStore
	UsageStore

	// Close releases any resources held by the store
	Close() error
}
