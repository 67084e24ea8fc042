// ABOUTME: Tests for search, blocking, settings, profile, timezone and the public list
// ABOUTME: Exercises the privacy disguises that make hidden users look missing

package social

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemcom/lemcom-directory/internal/directory"
)

func TestSearch_BlockedDisguisedAsMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	require.NoError(t, f.svc.Block(ctx, a, "bob"))

	_, missingErr := f.svc.Search(ctx, b, "nobody", false)
	_, blockedErr := f.svc.Search(ctx, b, "alice", false)
	assert.ErrorIs(t, blockedErr, ErrNotFound)
	assert.Equal(t, missingErr.Error(), blockedErr.Error())

	// the blocker cannot find the blocked user either
	_, err := f.svc.Search(ctx, f.reload(t, a), "bob", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch_ShowInSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")
	c := f.user(t, "carol")

	friendsOnly := directory.PrivacyFriends
	_, err := f.svc.UpdateSettings(ctx, b, directory.SettingsEdit{ShowInSearch: &friendsOnly})
	require.NoError(t, err)

	_, err = f.svc.Search(ctx, c, "bob", false)
	assert.ErrorIs(t, err, ErrNotFound)

	f.befriend(t, a, b)
	view, err := f.svc.Search(ctx, f.reload(t, a), "BOB", false)
	require.NoError(t, err)
	assert.Equal(t, "bob", view.Name)

	private := directory.PrivacyPrivate
	_, err = f.svc.UpdateSettings(ctx, f.reload(t, b), directory.SettingsEdit{ShowInSearch: &private})
	require.NoError(t, err)
	_, err = f.svc.Search(ctx, f.reload(t, a), "bob", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch_RendersInViewerTimezone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := f.user(t, "viewer")
	f.user(t, "target")

	_, err := f.svc.SetTimezone(ctx, viewer, "Europe/Berlin")
	require.NoError(t, err)

	view, err := f.svc.Search(ctx, viewer, "target", false)
	require.NoError(t, err)
	require.NotNil(t, view.JoinedDate)
	assert.Equal(t, "2024-01-15 11:00:00.000000000 CET", *view.JoinedDate)
	assert.Nil(t, view.Timezone)
}

func TestBlock_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")
	f.user(t, "carol")

	err := f.svc.Block(ctx, a, "alice")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, reasonSelfBlock, Reason(err))

	assert.ErrorIs(t, f.svc.Block(ctx, a, "nobody"), ErrNotFound)

	f.befriend(t, a, b)
	err = f.svc.Block(ctx, f.reload(t, a), "bob")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, reasonBlockFriend, Reason(err))

	a = f.reload(t, a)
	require.NoError(t, f.svc.Block(ctx, a, "carol"))
	err = f.svc.Block(ctx, a, "carol")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, reasonAlreadyBlocked, Reason(err))
}

func TestBlock_DropsPendingRequestFromBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	require.NoError(t, f.svc.SendFriendRequest(ctx, b, "alice"))
	require.NoError(t, f.svc.Block(ctx, f.reload(t, a), "bob"))

	assert.False(t, f.reload(t, a).HasRequestFrom(b.Key))
}

func TestBlock_DropsOwnOutgoingRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	require.NoError(t, f.svc.SendFriendRequest(ctx, a, "bob"))
	require.NoError(t, f.svc.Block(ctx, f.reload(t, a), "bob"))

	assert.False(t, f.reload(t, b).HasRequestFrom(a.Key))
}

func TestUnblock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	f.user(t, "bob")

	err := f.svc.Unblock(ctx, a, "bob")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, reasonNotBlocked, Reason(err))

	require.NoError(t, f.svc.Block(ctx, a, "bob"))
	require.NoError(t, f.svc.Unblock(ctx, a, "bob"))
	assert.Empty(t, f.reload(t, a).BlockList)
}

func TestUpdateSettings_Partial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")

	no := false
	settings, err := f.svc.UpdateSettings(ctx, a, directory.SettingsEdit{AllowFriendRequests: &no})
	require.NoError(t, err)
	assert.False(t, settings.AllowFriendRequests)
	assert.Equal(t, directory.PrivacyPublic, settings.ShowInSearch)

	stored := f.reload(t, a)
	assert.Equal(t, settings, stored.Settings)
}

func TestUpdateProfile_CleansText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")

	long := make([]rune, 100)
	for i := range long {
		long[i] = 'x'
	}
	mood := string(long)
	bio := "well darn it"

	profile, err := f.svc.UpdateProfile(ctx, a, directory.ProfileEdit{Bio: &bio, Mood: &mood})
	require.NoError(t, err)
	assert.Equal(t, "well **** it", profile.Bio)
	assert.Len(t, profile.Mood, directory.MaxMoodLength)
	assert.Empty(t, profile.Pronouns)

	assert.Equal(t, profile, f.reload(t, a).Profile)
}

func TestSetTimezone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")

	name, err := f.svc.SetTimezone(ctx, a, "EUROPE/BERLIN")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", name)
	assert.Equal(t, "Europe/Berlin", f.reload(t, a).Location().String())

	_, err = f.svc.SetTimezone(ctx, a, "Mars/Olympus")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, reasonTimezoneNotFound, Reason(err))

	assert.Equal(t, []string{"Asia/Tokyo", "Europe/Berlin", "UTC"}, f.svc.Timezones())
}

func TestListPublicUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := f.user(t, "viewer")

	public := func(name string) *directory.User {
		u := f.user(t, name)
		u.Settings.AppearOnPublicList = true
		u.Settings.ShowJoinDate = directory.PrivacyFriends
		require.NoError(t, f.store.SaveUser(ctx, u))
		return u
	}
	friend := public("friend")
	public("stranger")
	blockedByViewer := public("blocked")
	blocker := public("blocker")
	f.user(t, "hidden")

	viewer.Settings.AppearOnPublicList = true
	require.NoError(t, f.store.SaveUser(ctx, viewer))

	f.befriend(t, viewer, friend)
	require.NoError(t, f.svc.Block(ctx, f.reload(t, viewer), blockedByViewer.Name))
	require.NoError(t, f.svc.Block(ctx, f.reload(t, blocker), viewer.Name))

	list, err := f.svc.ListPublicUsers(ctx, f.reload(t, viewer), 1, 10, false)
	require.NoError(t, err)
	require.Len(t, list.Users, 2)
	assert.Equal(t, "friend", list.Users[0].Name)
	assert.NotNil(t, list.Users[0].JoinedDate)
	assert.Equal(t, "stranger", list.Users[1].Name)
	assert.Nil(t, list.Users[1].JoinedDate)
	assert.Equal(t, 2, list.Pagination.Total)
	assert.Equal(t, 2, list.Pagination.Results)

	list, err = f.svc.ListPublicUsers(ctx, f.reload(t, viewer), 2, 1, false)
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "stranger", list.Users[0].Name)
}

func TestListPublicUsers_HugePageIsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := f.user(t, "viewer")
	for _, name := range []string{"a1", "b2", "c3"} {
		u := f.user(t, name)
		u.Settings.AppearOnPublicList = true
		require.NoError(t, f.store.SaveUser(ctx, u))
	}

	// a page past the end must not reach the store
	f.store.FailOn("ListPublicUsers", errors.New("unexpected list call"))

	list, err := f.svc.ListPublicUsers(ctx, viewer, 1<<62, 4, false)
	require.NoError(t, err)
	assert.Empty(t, list.Users)
	assert.Equal(t, 3, list.Pagination.Total)
	assert.Equal(t, 0, list.Pagination.Results)
	assert.GreaterOrEqual(t, list.Pagination.Offset, 0)
}

func TestListPublicUsers_StorageFault(t *testing.T) {
	f := newFixture(t)
	viewer := f.user(t, "viewer")

	f.store.FailOn("CountPublicUsers", errors.New("locked"))
	_, err := f.svc.ListPublicUsers(context.Background(), viewer, 1, 10, false)
	assert.ErrorIs(t, err, ErrStorage)
}
