// ABOUTME: Tests for paginated friend, request and block lists
// ABOUTME: Covers ordering, windowing, dangling references and batch failures

package social

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/pagination"
)

func TestListFriends_SymmetricSince(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")
	f.befriend(t, a, b)

	fromA, err := f.svc.ListFriends(ctx, f.reload(t, a), 1, 10, false)
	require.NoError(t, err)
	fromB, err := f.svc.ListFriends(ctx, f.reload(t, b), 1, 10, false)
	require.NoError(t, err)

	require.Len(t, fromA.Friends, 1)
	require.Len(t, fromB.Friends, 1)
	assert.Equal(t, "bob", fromA.Friends[0].User.Name)
	assert.Equal(t, "alice", fromB.Friends[0].User.Name)
	assert.Equal(t, fromA.Friends[0].SinceDate, fromB.Friends[0].SinceDate)
}

func TestListFriends_UsesFriendVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	b.Settings.ShowJoinDate = directory.PrivacyFriends
	b.Profile.Bio = "bob's bio"
	b.Settings.ShowProfile = directory.PrivacyFriends
	require.NoError(t, f.store.SaveUser(ctx, b))
	f.befriend(t, a, b)

	list, err := f.svc.ListFriends(ctx, f.reload(t, a), 1, 10, true)
	require.NoError(t, err)
	require.Len(t, list.Friends, 1)
	assert.NotNil(t, list.Friends[0].User.JoinedDate)
	require.NotNil(t, list.Friends[0].User.Profile)
	assert.Equal(t, "bob's bio", list.Friends[0].User.Profile.Bio)
}

func TestListFriendRequests_NewestFirstAndStrangerView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")

	for _, name := range []string{"first", "second", "third"} {
		sender := f.user(t, name)
		sender.Settings.ShowJoinDate = directory.PrivacyFriends
		require.NoError(t, f.store.SaveUser(ctx, sender))
		require.NoError(t, f.svc.SendFriendRequest(ctx, sender, "owner"))
		f.tick()
	}

	list, err := f.svc.ListFriendRequests(ctx, f.reload(t, owner), 1, 2, false)
	require.NoError(t, err)
	require.Len(t, list.Requests, 2)
	assert.Equal(t, "third", list.Requests[0].User.Name)
	assert.Equal(t, "second", list.Requests[1].User.Name)
	assert.Nil(t, list.Requests[0].User.JoinedDate)
	assert.Equal(t, pagination.Pagination{Results: 2, Total: 3, Page: 1, PageSize: 2, PagesTotal: 2, Offset: 0}, list.Pagination)

	list, err = f.svc.ListFriendRequests(ctx, f.reload(t, owner), 2, 2, false)
	require.NoError(t, err)
	require.Len(t, list.Requests, 1)
	assert.Equal(t, "first", list.Requests[0].User.Name)
}

func TestListFriends_PaginationBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")

	for i := range 25 {
		other := directory.NewUser(fmt.Sprintf("key-f%02d", i), fmt.Sprintf("friend%02d", i), "", f.now)
		require.NoError(t, f.store.SaveUser(ctx, other))
		require.NoError(t, f.store.CreateFriendship(ctx, directory.NewFriendship(owner.Key, other.Key, f.now)))
	}

	page3, err := f.svc.ListFriends(ctx, owner, 3, 10, false)
	require.NoError(t, err)
	assert.Len(t, page3.Friends, 5)
	assert.Equal(t, pagination.Pagination{Results: 5, Total: 25, Page: 3, PageSize: 10, PagesTotal: 3, Offset: 20}, page3.Pagination)
	assert.Equal(t, "friend20", page3.Friends[0].User.Name)

	page4, err := f.svc.ListFriends(ctx, owner, 4, 10, false)
	require.NoError(t, err)
	assert.Empty(t, page4.Friends)
	assert.NotNil(t, page4.Friends)
	assert.Equal(t, 0, page4.Pagination.Results)
	assert.Equal(t, 3, page4.Pagination.PagesTotal)
}

func TestListFriends_DanglingReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")
	c := f.user(t, "carol")
	f.befriend(t, a, b)
	f.befriend(t, a, c)

	f.store.DeleteUser(b.Key)

	list, err := f.svc.ListFriends(ctx, f.reload(t, a), 1, 10, false)
	require.NoError(t, err)
	require.Len(t, list.Friends, 1)
	assert.Equal(t, "carol", list.Friends[0].User.Name)
	assert.Equal(t, 1, list.Pagination.Results)
	assert.Equal(t, 2, list.Pagination.Total)
}

func TestListFriends_StorageFaultFailsPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")
	f.befriend(t, a, b)
	a = f.reload(t, a)

	f.store.FailOn("GetUserByKey", errors.New("timeout"))
	_, err := f.svc.ListFriends(ctx, a, 1, 10, false)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestListBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	f.user(t, "zed")
	f.user(t, "amy")

	require.NoError(t, f.svc.Block(ctx, owner, "zed"))
	f.tick()
	require.NoError(t, f.svc.Block(ctx, owner, "amy"))

	list, err := f.svc.ListBlocked(ctx, f.reload(t, owner), 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Entries, 2)
	assert.Equal(t, "amy", list.Entries[0].Name)
	assert.Equal(t, "zed", list.Entries[1].Name)
	assert.Equal(t, directory.FormatDate(f.now, time.UTC), list.Entries[0].SinceDate)
}

func TestListBlocked_RendersInOwnerTimezone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	f.user(t, "zed")

	_, err := f.svc.SetTimezone(ctx, owner, "asia/tokyo")
	require.NoError(t, err)
	require.NoError(t, f.svc.Block(ctx, owner, "zed"))

	list, err := f.svc.ListBlocked(ctx, f.reload(t, owner), 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "2024-01-15 19:00:00.000000000 JST", list.Entries[0].SinceDate)
}
