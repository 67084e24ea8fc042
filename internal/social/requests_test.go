// ABOUTME: Tests for the friend-request state machine
// ABOUTME: Covers every guard, the full lifecycle and request-state exclusivity

package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemcom/lemcom-directory/internal/directory"
)

func TestFriendRequest_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	require.NoError(t, f.svc.SendFriendRequest(ctx, a, "bob"))

	friends, err := f.svc.AreFriends(ctx, a.Key, b.Key)
	require.NoError(t, err)
	assert.False(t, friends)

	b = f.reload(t, b)
	requests, err := f.svc.ListFriendRequests(ctx, b, 1, 10, false)
	require.NoError(t, err)
	require.Len(t, requests.Requests, 1)
	assert.Equal(t, "alice", requests.Requests[0].User.Name)

	result, err := f.svc.AcceptFriendRequest(ctx, b, "alice")
	require.NoError(t, err)
	assert.False(t, result.AlreadyFriends)

	friends, err = f.svc.AreFriends(ctx, a.Key, b.Key)
	require.NoError(t, err)
	assert.True(t, friends)

	b = f.reload(t, b)
	assert.False(t, b.HasRequestFrom(a.Key))

	fs, err := f.store.GetFriendshipByKeys(ctx, b.Key, a.Key)
	require.NoError(t, err)
	assert.True(t, fs.Links(a.Key, b.Key))
}

func TestSendFriendRequest_CreatesNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	require.NoError(t, f.svc.SendFriendRequest(ctx, a, "bob"))

	list, err := f.store.ListNotificationsByReceiver(ctx, b.Key)
	require.NoError(t, err)
	require.Len(t, list, 1)
	n, ok := list[0].(*directory.FriendRequestReceived)
	require.True(t, ok)
	assert.Equal(t, a.Key, n.SenderKey)
	assert.Equal(t, f.now, n.Meta.CreatedAt)
}

func TestSendFriendRequest_Guards(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, f *fixture, a, b *directory.User)
		target string
		kind   error
		reason string
	}{
		{
			name:   "missing user",
			target: "nobody",
			kind:   ErrNotFound,
			reason: reasonRequestTargetHidden,
		},
		{
			name:   "self",
			target: "alice",
			kind:   ErrConflict,
			reason: reasonSelfRequest,
		},
		{
			name: "self ignores own allow setting",
			setup: func(t *testing.T, f *fixture, a, b *directory.User) {
				a.Settings.AllowFriendRequests = false
				require.NoError(t, f.store.SaveUser(context.Background(), a))
			},
			target: "alice",
			kind:   ErrConflict,
			reason: reasonSelfRequest,
		},
		{
			name: "requests disabled looks like missing",
			setup: func(t *testing.T, f *fixture, a, b *directory.User) {
				b.Settings.AllowFriendRequests = false
				require.NoError(t, f.store.SaveUser(context.Background(), b))
			},
			target: "bob",
			kind:   ErrNotFound,
			reason: reasonRequestTargetHidden,
		},
		{
			name: "receiver blocked sender looks like missing",
			setup: func(t *testing.T, f *fixture, a, b *directory.User) {
				require.NoError(t, b.Block(a.Key, f.now))
				require.NoError(t, f.store.SaveUser(context.Background(), b))
			},
			target: "bob",
			kind:   ErrNotFound,
			reason: reasonRequestTargetHidden,
		},
		{
			name: "sender blocked receiver",
			setup: func(t *testing.T, f *fixture, a, b *directory.User) {
				require.NoError(t, a.Block(b.Key, f.now))
				require.NoError(t, f.store.SaveUser(context.Background(), a))
			},
			target: "bob",
			kind:   ErrConflict,
			reason: reasonSenderBlocked,
		},
		{
			name: "already friends",
			setup: func(t *testing.T, f *fixture, a, b *directory.User) {
				f.befriend(t, a, b)
			},
			target: "bob",
			kind:   ErrConflict,
			reason: reasonAlreadyFriends,
		},
		{
			name: "already sent",
			setup: func(t *testing.T, f *fixture, a, b *directory.User) {
				require.NoError(t, f.svc.SendFriendRequest(context.Background(), a, "bob"))
			},
			target: "bob",
			kind:   ErrConflict,
			reason: reasonAlreadyRequested,
		},
		{
			name: "reverse request pending",
			setup: func(t *testing.T, f *fixture, a, b *directory.User) {
				require.NoError(t, f.svc.SendFriendRequest(context.Background(), b, "alice"))
			},
			target: "bob",
			kind:   ErrConflict,
			reason: reasonReverseRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.user(t, "alice")
			b := f.user(t, "bob")
			if tt.setup != nil {
				tt.setup(t, f, a, b)
			}

			err := f.svc.SendFriendRequest(context.Background(), f.reload(t, a), tt.target)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.reason, Reason(err))
		})
	}
}

func TestSendFriendRequest_RepeatKeepsOriginalTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	require.NoError(t, f.svc.SendFriendRequest(ctx, a, "bob"))
	sentAt := f.now
	f.tick()
	assert.ErrorIs(t, f.svc.SendFriendRequest(ctx, a, "bob"), ErrConflict)

	b = f.reload(t, b)
	assert.Equal(t, sentAt, b.FriendRequests[a.Key])
}

func TestRetractFriendRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	err := f.svc.RetractFriendRequest(ctx, a, "bob")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, reasonNotRequested, Reason(err))

	require.NoError(t, f.svc.SendFriendRequest(ctx, a, "bob"))
	require.NoError(t, f.svc.RetractFriendRequest(ctx, a, "bob"))
	assert.False(t, f.reload(t, b).HasRequestFrom(a.Key))

	assert.ErrorIs(t, f.svc.RetractFriendRequest(ctx, a, "nobody"), ErrNotFound)
}

func TestDenyFriendRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	err := f.svc.DenyFriendRequest(ctx, b, "alice")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, reasonNoPendingRequest, Reason(err))

	require.NoError(t, f.svc.SendFriendRequest(ctx, a, "bob"))
	b = f.reload(t, b)
	require.NoError(t, f.svc.DenyFriendRequest(ctx, b, "alice"))

	assert.False(t, f.reload(t, b).HasRequestFrom(a.Key))
	friends, err := f.svc.AreFriends(ctx, a.Key, b.Key)
	require.NoError(t, err)
	assert.False(t, friends)

	// the sender is not told; they may ask again
	require.NoError(t, f.svc.SendFriendRequest(ctx, f.reload(t, a), "bob"))
}

func TestAcceptFriendRequest_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.user(t, "bob")
	f.user(t, "alice")

	_, err := f.svc.AcceptFriendRequest(ctx, b, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.AcceptFriendRequest(ctx, b, "alice")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, reasonNoPendingRequest, Reason(err))
}

func TestAcceptFriendRequest_BlockedPair(t *testing.T) {
	tests := []struct {
		name  string
		block func(f *fixture, a, b *directory.User)
	}{
		{
			name:  "receiver blocked sender",
			block: func(f *fixture, a, b *directory.User) { b.BlockList[a.Key] = f.now },
		},
		{
			name:  "sender blocked receiver",
			block: func(f *fixture, a, b *directory.User) { a.BlockList[b.Key] = f.now },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a := f.user(t, "alice")
			b := f.user(t, "bob")
			require.NoError(t, f.svc.SendFriendRequest(ctx, a, "bob"))

			a, b = f.reload(t, a), f.reload(t, b)
			tt.block(f, a, b)
			require.NoError(t, f.store.SaveUser(ctx, a))
			require.NoError(t, f.store.SaveUser(ctx, b))

			_, err := f.svc.AcceptFriendRequest(ctx, f.reload(t, b), "alice")
			assert.ErrorIs(t, err, ErrConflict)
			assert.Equal(t, reasonBlockedPair, Reason(err))

			friends, err := f.svc.AreFriends(ctx, a.Key, b.Key)
			require.NoError(t, err)
			assert.False(t, friends)
		})
	}
}

func TestAcceptFriendRequest_AfterSenderBlocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	require.NoError(t, f.svc.SendFriendRequest(ctx, a, "bob"))
	require.NoError(t, f.svc.Block(ctx, f.reload(t, a), "bob"))

	_, err := f.svc.AcceptFriendRequest(ctx, f.reload(t, b), "alice")
	assert.ErrorIs(t, err, ErrConflict)

	friends, err := f.svc.AreFriends(ctx, a.Key, b.Key)
	require.NoError(t, err)
	assert.False(t, friends)
	assert.True(t, f.reload(t, a).HasBlocked(b.Key))
}

func TestAcceptFriendRequest_AlreadyFriendsIsSatisfied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	require.NoError(t, f.store.CreateFriendship(ctx, directory.NewFriendship(a.Key, b.Key, f.now)))
	b.FriendRequests[a.Key] = f.now
	require.NoError(t, f.store.SaveUser(ctx, b))

	result, err := f.svc.AcceptFriendRequest(ctx, f.reload(t, b), "alice")
	require.NoError(t, err)
	assert.True(t, result.AlreadyFriends)

	list, err := f.store.ListFriendshipsByKey(ctx, a.Key)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAcceptFriendRequest_PartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")
	require.NoError(t, f.svc.SendFriendRequest(ctx, a, "bob"))

	f.store.FailOn("CreateFriendship", errors.New("connection reset"))
	_, err := f.svc.AcceptFriendRequest(ctx, f.reload(t, b), "alice")
	assert.ErrorIs(t, err, ErrStorage)
	assert.Empty(t, Reason(err))

	// request consumed, friendship missing
	assert.False(t, f.reload(t, b).HasRequestFrom(a.Key))
	friends, err := f.svc.AreFriends(ctx, a.Key, b.Key)
	require.NoError(t, err)
	assert.False(t, friends)
}

func TestAcceptFriendRequest_SaveFailureAbortsBeforeFriendship(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")
	require.NoError(t, f.svc.SendFriendRequest(ctx, a, "bob"))

	f.store.FailOn("SaveUser", errors.New("disk full"))
	_, err := f.svc.AcceptFriendRequest(ctx, f.reload(t, b), "alice")
	assert.ErrorIs(t, err, ErrStorage)
	f.store.FailOn("SaveUser", nil)

	friends, err := f.svc.AreFriends(ctx, a.Key, b.Key)
	require.NoError(t, err)
	assert.False(t, friends)
	assert.True(t, f.reload(t, b).HasRequestFrom(a.Key))
}

func TestUnfriend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	err := f.svc.Unfriend(ctx, a, "bob")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, reasonNotFriends, Reason(err))
	assert.ErrorIs(t, f.svc.Unfriend(ctx, a, "nobody"), ErrNotFound)

	f.befriend(t, a, b)
	require.NoError(t, f.svc.Unfriend(ctx, f.reload(t, b), "alice"))

	friends, err := f.svc.AreFriends(ctx, a.Key, b.Key)
	require.NoError(t, err)
	assert.False(t, friends)
}

// relationState captures which of the exclusive states hold for a pair.
func relationState(t *testing.T, f *fixture, a, b *directory.User) (aToB, bToA, friends bool) {
	t.Helper()
	friends, err := f.svc.AreFriends(context.Background(), a.Key, b.Key)
	require.NoError(t, err)
	return f.reload(t, b).HasRequestFrom(a.Key), f.reload(t, a).HasRequestFrom(b.Key), friends
}

func TestRequestStateExclusivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	type step func() error
	send := func(from, to *directory.User) step {
		return func() error { return f.svc.SendFriendRequest(ctx, f.reload(t, from), to.Name) }
	}
	accept := func(by, from *directory.User) step {
		return func() error { _, err := f.svc.AcceptFriendRequest(ctx, f.reload(t, by), from.Name); return err }
	}
	deny := func(by, from *directory.User) step {
		return func() error { return f.svc.DenyFriendRequest(ctx, f.reload(t, by), from.Name) }
	}
	retract := func(from, to *directory.User) step {
		return func() error { return f.svc.RetractFriendRequest(ctx, f.reload(t, from), to.Name) }
	}
	unfriend := func(by, other *directory.User) step {
		return func() error { return f.svc.Unfriend(ctx, f.reload(t, by), other.Name) }
	}

	steps := []step{
		send(a, b), send(b, a), accept(a, b), accept(b, a), send(b, a),
		unfriend(a, b), send(b, a), send(a, b), retract(b, a), send(a, b),
		deny(b, a), deny(a, b), send(b, a), accept(a, b), unfriend(b, a),
		accept(b, a), send(a, b), retract(a, b), retract(a, b),
	}

	for i, s := range steps {
		err := s()
		if err != nil {
			assert.NotErrorIs(t, err, ErrStorage, "step %d", i)
		}
		aToB, bToA, friends := relationState(t, f, a, b)
		held := 0
		for _, v := range []bool{aToB, bToA, friends} {
			if v {
				held++
			}
		}
		assert.LessOrEqual(t, held, 1, "step %d: aToB=%v bToA=%v friends=%v", i, aToB, bToA, friends)
		f.now = f.now.Add(time.Second)
	}
}
