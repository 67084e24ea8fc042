// ABOUTME: Paginated list assembly for friends, pending requests and the block list
// ABOUTME: Resolves a page of user keys concurrently and drops dangling references

package social

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/pagination"
	"github.com/lemcom/lemcom-directory/internal/store"
)

// entry is one (other user, timestamp) pair of a relationship list.
type entry struct {
	key string
	at  time.Time
}

// FriendInfo is one row of a friend list.
type FriendInfo struct {
	User      directory.PublicView `json:"user"`
	SinceDate string               `json:"since_date"`
}

// FriendList is a page of friends.
type FriendList struct {
	Friends    []FriendInfo          `json:"friends"`
	Pagination pagination.Pagination `json:"pagination"`
}

// FriendRequestInfo is one incoming request.
type FriendRequestInfo struct {
	User     directory.PublicView `json:"user"`
	SentDate string               `json:"sent_date"`
}

// FriendRequestList is a page of incoming requests, newest first.
type FriendRequestList struct {
	Requests   []FriendRequestInfo   `json:"requests"`
	Pagination pagination.Pagination `json:"pagination"`
}

// BlockEntry is one row of a block list.
type BlockEntry struct {
	Name      string `json:"name"`
	SinceDate string `json:"since_date"`
}

// BlockList is a page of blocked users.
type BlockList struct {
	Entries    []BlockEntry          `json:"entries"`
	Pagination pagination.Pagination `json:"pagination"`
}

// resolveUsers looks up every key concurrently. Missing users come back as
// nil; any other failure fails the batch.
func (s *Service) resolveUsers(ctx context.Context, keys []string) ([]*directory.User, error) {
	users := make([]*directory.User, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)

	for i, key := range keys {
		g.Go(func() error {
			u, err := s.repo.GetUserByKey(gctx, key)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			users[i] = u
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, storageFault("resolving users", err)
	}
	return users, nil
}

// assemble windows entries, resolves the page and projects each live user.
func assemble[T any](ctx context.Context, s *Service, entries []entry, page, pageSize int, project func(u *directory.User, at time.Time) T) ([]T, pagination.Pagination, error) {
	total := len(entries)
	start, end, ok := pagination.Window(total, page, pageSize)
	if !ok {
		return []T{}, pagination.New(total, page, pageSize, 0), nil
	}

	window := entries[start:end]
	keys := make([]string, len(window))
	for i, e := range window {
		keys[i] = e.key
	}

	users, err := s.resolveUsers(ctx, keys)
	if err != nil {
		return nil, pagination.Pagination{}, err
	}

	out := make([]T, 0, len(window))
	for i, u := range users {
		if u == nil {
			continue
		}
		out = append(out, project(u, window[i].at))
	}
	return out, pagination.New(total, page, pageSize, len(out)), nil
}

// ListFriends pages through owner's friends in storage order.
func (s *Service) ListFriends(ctx context.Context, owner *directory.User, page, pageSize int, includeProfile bool) (*FriendList, error) {
	entries, err := s.friendsOf(ctx, owner.Key)
	if err != nil {
		return nil, err
	}

	loc := owner.Location()
	friends, p, err := assemble(ctx, s, entries, page, pageSize, func(u *directory.User, at time.Time) FriendInfo {
		return FriendInfo{
			User:      u.PublicView(true, includeProfile, loc),
			SinceDate: directory.FormatDate(at, loc),
		}
	})
	if err != nil {
		return nil, err
	}
	return &FriendList{Friends: friends, Pagination: p}, nil
}

// ListFriendRequests pages through owner's incoming requests, newest first.
func (s *Service) ListFriendRequests(ctx context.Context, owner *directory.User, page, pageSize int, includeProfile bool) (*FriendRequestList, error) {
	entries := make([]entry, 0, len(owner.FriendRequests))
	for key, at := range owner.FriendRequests {
		entries = append(entries, entry{key: key, at: at})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].at.Equal(entries[j].at) {
			return entries[i].at.After(entries[j].at)
		}
		return entries[i].key < entries[j].key
	})

	loc := owner.Location()
	requests, p, err := assemble(ctx, s, entries, page, pageSize, func(u *directory.User, at time.Time) FriendRequestInfo {
		return FriendRequestInfo{
			User:     u.PublicView(false, includeProfile, loc),
			SentDate: directory.FormatDate(at, loc),
		}
	})
	if err != nil {
		return nil, err
	}
	return &FriendRequestList{Requests: requests, Pagination: p}, nil
}

// ListBlocked pages through owner's block list. Entries are ordered by key
// so pages stay stable between calls.
func (s *Service) ListBlocked(ctx context.Context, owner *directory.User, page, pageSize int) (*BlockList, error) {
	entries := make([]entry, 0, len(owner.BlockList))
	for key, at := range owner.BlockList {
		entries = append(entries, entry{key: key, at: at})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	loc := owner.Location()
	blocked, p, err := assemble(ctx, s, entries, page, pageSize, func(u *directory.User, at time.Time) BlockEntry {
		return BlockEntry{Name: u.Name, SinceDate: directory.FormatDate(at, loc)}
	})
	if err != nil {
		return nil, err
	}
	return &BlockList{Entries: blocked, Pagination: p}, nil
}
