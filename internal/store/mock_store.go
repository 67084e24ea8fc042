// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject storage failures

package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/lemcom/lemcom-directory/internal/directory"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu            sync.RWMutex
	users         map[string]*directory.User // keyed by user key
	userOrder     []string                   // insert order of user keys
	names         map[string]string          // lower-cased name -> user key
	friendships   []*directory.Friendship    // insert order
	notifications []directory.Notification   // insert order
	failures      map[string]error           // method name -> injected error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:    make(map[string]*directory.User),
		names:    make(map[string]string),
		failures: make(map[string]error),
	}
}

// FailOn makes every later call of method return err. A nil err clears it.
func (m *MockStore) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

// DeleteUser removes a user outright, leaving references to it dangling.
func (m *MockStore) DeleteUser(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[key]; ok {
		delete(m.names, u.Name)
		delete(m.users, key)
		m.userOrder = slices.DeleteFunc(m.userOrder, func(k string) bool { return k == key })
	}
}

func (m *MockStore) failure(method string) error {
	return m.failures[method]
}

// GetUserByKey retrieves a copy of a user.
func (m *MockStore) GetUserByKey(ctx context.Context, key string) (*directory.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("GetUserByKey"); err != nil {
		return nil, err
	}
	u, ok := m.users[key]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

// GetUserByName retrieves a copy of a user by lower-cased name.
func (m *MockStore) GetUserByName(ctx context.Context, name string) (*directory.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("GetUserByName"); err != nil {
		return nil, err
	}
	key, ok := m.names[strings.ToLower(name)]
	if !ok {
		return nil, ErrNotFound
	}
	return m.users[key].Clone(), nil
}

// SaveUser upserts a copy of the user.
func (m *MockStore) SaveUser(ctx context.Context, user *directory.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("SaveUser"); err != nil {
		return err
	}

	u := user.Clone()
	u.Name = strings.ToLower(u.Name)
	if owner, ok := m.names[u.Name]; ok && owner != u.Key {
		return ErrDuplicateName
	}

	if prev, ok := m.users[u.Key]; ok {
		delete(m.names, prev.Name)
	} else {
		m.userOrder = append(m.userOrder, u.Key)
	}
	m.users[u.Key] = u
	m.names[u.Name] = u.Key
	return nil
}

func (m *MockStore) publicUsers(filter PublicUserFilter) []*directory.User {
	var result []*directory.User
	for _, key := range m.userOrder {
		u := m.users[key]
		if !u.Settings.AppearOnPublicList {
			continue
		}
		if slices.Contains(filter.ExcludeKeys, u.Key) {
			continue
		}
		if filter.ViewerKey != "" && u.HasBlocked(filter.ViewerKey) {
			continue
		}
		result = append(result, u)
	}
	return result
}

// ListPublicUsers returns one page of users on the public list.
func (m *MockStore) ListPublicUsers(ctx context.Context, filter PublicUserFilter, offset, limit int) ([]*directory.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("ListPublicUsers"); err != nil {
		return nil, err
	}

	all := m.publicUsers(filter)
	if offset < 0 || offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))

	result := make([]*directory.User, 0, end-offset)
	for _, u := range all[offset:end] {
		result = append(result, u.Clone())
	}
	return result, nil
}

// CountPublicUsers counts every user on the public list for the filter.
func (m *MockStore) CountPublicUsers(ctx context.Context, filter PublicUserFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("CountPublicUsers"); err != nil {
		return 0, err
	}
	return len(m.publicUsers(filter)), nil
}

// GetFriendshipByKeys finds the friendship between a and b in either order.
func (m *MockStore) GetFriendshipByKeys(ctx context.Context, a, b string) (*directory.Friendship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("GetFriendshipByKeys"); err != nil {
		return nil, err
	}
	for _, f := range m.friendships {
		if f.Links(a, b) {
			result := *f
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// ListFriendshipsByKey returns friendships containing key in insert order.
func (m *MockStore) ListFriendshipsByKey(ctx context.Context, key string) ([]*directory.Friendship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("ListFriendshipsByKey"); err != nil {
		return nil, err
	}
	var result []*directory.Friendship
	for _, f := range m.friendships {
		if f.Has(key) {
			c := *f
			result = append(result, &c)
		}
	}
	return result, nil
}

// CreateFriendship stores a copy of the friendship.
func (m *MockStore) CreateFriendship(ctx context.Context, f *directory.Friendship) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("CreateFriendship"); err != nil {
		return err
	}
	for _, existing := range m.friendships {
		if existing.Links(f.Keys[0], f.Keys[1]) {
			return ErrDuplicateFriendship
		}
	}
	c := *f
	m.friendships = append(m.friendships, &c)
	return nil
}

// DeleteFriendship removes a friendship by ID.
func (m *MockStore) DeleteFriendship(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("DeleteFriendship"); err != nil {
		return err
	}
	before := len(m.friendships)
	m.friendships = slices.DeleteFunc(m.friendships, func(f *directory.Friendship) bool { return f.ID == id })
	if len(m.friendships) == before {
		return ErrNotFound
	}
	return nil
}

// SaveNotification inserts, or replaces the stored notification with the same ID.
func (m *MockStore) SaveNotification(ctx context.Context, n directory.Notification) (directory.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("SaveNotification"); err != nil {
		return nil, err
	}
	if n.Common().ID == "" {
		n = n.WithID(directory.NewNotificationID())
	} else {
		n = n.WithID(n.Common().ID)
	}

	for i, existing := range m.notifications {
		if existing.Common().ID == n.Common().ID {
			m.notifications[i] = n
			return n, nil
		}
	}
	m.notifications = append(m.notifications, n)
	return n, nil
}

// ListNotificationsByReceiver returns a receiver's notifications in insert order.
func (m *MockStore) ListNotificationsByReceiver(ctx context.Context, receiverKey string) ([]directory.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("ListNotificationsByReceiver"); err != nil {
		return nil, err
	}
	var result []directory.Notification
	for _, n := range m.notifications {
		if n.Common().ReceiverKey == receiverKey {
			result = append(result, n.WithID(n.Common().ID))
		}
	}
	return result, nil
}

// ClearNotificationsByReceiver deletes a receiver's notifications.
func (m *MockStore) ClearNotificationsByReceiver(ctx context.Context, receiverKey string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("ClearNotificationsByReceiver"); err != nil {
		return 0, err
	}
	before := len(m.notifications)
	m.notifications = slices.DeleteFunc(m.notifications, func(n directory.Notification) bool {
		return n.Common().ReceiverKey == receiverKey
	})
	return int64(before - len(m.notifications)), nil
}

// GetUsageStats aggregates the usage maps of stored users.
func (m *MockStore) GetUsageStats(ctx context.Context, filter UsageFilter) (*UsageStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("GetUsageStats"); err != nil {
		return nil, err
	}

	byEndpoint := make(map[string]*EndpointUsage)
	for key, u := range m.users {
		if filter.UserKey != nil && *filter.UserKey != key {
			continue
		}
		for endpoint, count := range u.EndpointUsage {
			if filter.Method != nil && !strings.HasPrefix(endpoint, strings.ToUpper(*filter.Method)+" ") {
				continue
			}
			e, ok := byEndpoint[endpoint]
			if !ok {
				e = &EndpointUsage{Endpoint: endpoint}
				byEndpoint[endpoint] = e
			}
			e.Count += count
			e.Users++
		}
	}

	stats := &UsageStats{Endpoints: []EndpointUsage{}}
	for _, e := range byEndpoint {
		stats.Endpoints = append(stats.Endpoints, *e)
	}
	sort.Slice(stats.Endpoints, func(i, j int) bool {
		a, b := stats.Endpoints[i], stats.Endpoints[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Endpoint < b.Endpoint
	})
	if filter.Limit > 0 && len(stats.Endpoints) > filter.Limit {
		stats.Endpoints = stats.Endpoints[:filter.Limit]
	}
	for _, e := range stats.Endpoints {
		stats.TotalRequests += e.Count
	}
	return stats, nil
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}

// Verify MockStore implements Store interface at compile time.
var _ Store = (*MockStore)(nil)
