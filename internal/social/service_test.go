// ABOUTME: Test helpers for the social service plus error taxonomy tests
// ABOUTME: Builds a Service over MockStore with a controllable clock

package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/sanitize"
	"github.com/lemcom/lemcom-directory/internal/store"
	"github.com/lemcom/lemcom-directory/internal/timezone"
)

type fixture struct {
	svc   *Service
	store *store.MockStore
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: store.NewMockStore(),
		now:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.store,
		WithClock(func() time.Time { return f.now }),
		WithTimezones(timezone.New([]string{"Europe/Berlin", "Asia/Tokyo"})),
		WithTextCleaner(sanitize.NewProfanityFilter([]string{"darn"})),
	)
	return f
}

func (f *fixture) tick() {
	f.now = f.now.Add(time.Minute)
}

// user creates and stores a user, returning a fresh copy.
func (f *fixture) user(t *testing.T, name string) *directory.User {
	t.Helper()
	u := directory.NewUser("key-"+name, name, name, f.now)
	require.NoError(t, f.store.SaveUser(context.Background(), u))
	return f.reload(t, u)
}

// reload re-reads a user, as a new request would.
func (f *fixture) reload(t *testing.T, u *directory.User) *directory.User {
	t.Helper()
	got, err := f.store.GetUserByKey(context.Background(), u.Key)
	require.NoError(t, err)
	return got
}

func (f *fixture) befriend(t *testing.T, a, b *directory.User) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.SendFriendRequest(ctx, f.reload(t, a), b.Name))
	_, err := f.svc.AcceptFriendRequest(ctx, f.reload(t, b), a.Name)
	require.NoError(t, err)
}

func TestError_Kinds(t *testing.T) {
	err := conflict(reasonSelfRequest)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, reasonSelfRequest, err.Error())
	assert.Equal(t, reasonSelfRequest, Reason(err))

	cause := errors.New("disk on fire")
	fault := storageFault("saving user", cause)
	assert.ErrorIs(t, fault, ErrStorage)
	assert.ErrorIs(t, fault, cause)
	assert.Empty(t, Reason(fault))
}

func TestFindByName_SanitizesInput(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	view, err := f.svc.Search(context.Background(), alice, " B-o-b! ", false)
	require.NoError(t, err)
	assert.Equal(t, bob.Name, view.Name)

	_, err = f.svc.Search(context.Background(), alice, "!!!", false)
	assert.ErrorIs(t, err, ErrNotFound)
}
