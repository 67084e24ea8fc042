// ABOUTME: Friendship record linking two user keys as a confirmed, symmetric relation
// ABOUTME: Key order carries no meaning; lookups treat the pair as unordered

package directory

import (
	"time"

	"github.com/google/uuid"
)

// Friendship is a confirmed relation between exactly two users.
type Friendship struct {
	ID        string
	Keys      [2]string
	CreatedAt time.Time
}

// NewFriendship creates a friendship with a fresh ID.
func NewFriendship(a, b string, now time.Time) *Friendship {
	return &Friendship{
		ID:        uuid.New().String(),
		Keys:      [2]string{a, b},
		CreatedAt: now,
	}
}

// Has reports whether key is one of the two parties.
func (f *Friendship) Has(key string) bool {
	return f.Keys[0] == key || f.Keys[1] == key
}

// Other returns the party that is not key.
func (f *Friendship) Other(key string) string {
	if f.Keys[0] == key {
		return f.Keys[1]
	}
	return f.Keys[0]
}

// Links reports whether the friendship joins a and b in either order.
func (f *Friendship) Links(a, b string) bool {
	return (f.Keys[0] == a && f.Keys[1] == b) || (f.Keys[0] == b && f.Keys[1] == a)
}
