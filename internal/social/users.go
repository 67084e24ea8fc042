// ABOUTME: User-facing operations: search, blocking, settings, profile and timezone
// ABOUTME: Also assembles the public user list with per-viewer friendship flags

package social

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/pagination"
	"github.com/lemcom/lemcom-directory/internal/store"
)

// Search finds a user by name as seen by viewer. Users who blocked the
// viewer, were blocked by the viewer, or hide from search are reported as
// not found.
func (s *Service) Search(ctx context.Context, viewer *directory.User, name string, includeProfile bool) (*directory.PublicView, error) {
	target, err := s.findByName(ctx, name, reasonUserNotFound)
	if err != nil {
		return nil, err
	}
	if target.HasBlocked(viewer.Key) || viewer.HasBlocked(target.Key) {
		return nil, notFound(reasonUserNotFound)
	}

	isFriend, err := s.AreFriends(ctx, viewer.Key, target.Key)
	if err != nil {
		return nil, err
	}
	if !target.Settings.ShowInSearch.IsVisible(isFriend) {
		return nil, notFound(reasonUserNotFound)
	}

	view := target.PublicView(isFriend, includeProfile, viewer.Location())
	return &view, nil
}

// Block adds the named user to owner's block list. Friends must be removed
// first. Pending requests in either direction are dropped.
func (s *Service) Block(ctx context.Context, owner *directory.User, name string) error {
	target, err := s.findByName(ctx, name, reasonUserNotFound)
	if err != nil {
		return err
	}
	if target.Key == owner.Key {
		return conflict(reasonSelfBlock)
	}

	friends, err := s.AreFriends(ctx, owner.Key, target.Key)
	if err != nil {
		return err
	}
	if friends {
		return conflict(reasonBlockFriend)
	}

	if err := owner.Block(target.Key, s.now()); err != nil {
		if errors.Is(err, directory.ErrAlreadyBlocked) {
			return conflict(reasonAlreadyBlocked)
		}
		return err
	}
	delete(owner.FriendRequests, target.Key)

	if err := s.saveUser(ctx, owner); err != nil {
		return err
	}

	if target.HasRequestFrom(owner.Key) {
		delete(target.FriendRequests, owner.Key)
		if err := s.saveUser(ctx, target); err != nil {
			return err
		}
	}

	s.logger.Info("user blocked", "owner", owner.Key, "blocked", target.Key)
	return nil
}

// Unblock removes the named user from owner's block list.
func (s *Service) Unblock(ctx context.Context, owner *directory.User, name string) error {
	target, err := s.findByName(ctx, name, reasonUserNotFound)
	if err != nil {
		return err
	}

	if err := owner.Unblock(target.Key); err != nil {
		if errors.Is(err, directory.ErrNotBlocked) {
			return conflict(reasonNotBlocked)
		}
		return err
	}

	if err := s.saveUser(ctx, owner); err != nil {
		return err
	}

	s.logger.Info("user unblocked", "owner", owner.Key, "unblocked", target.Key)
	return nil
}

// UpdateSettings applies a partial settings edit and persists it.
func (s *Service) UpdateSettings(ctx context.Context, owner *directory.User, edit directory.SettingsEdit) (directory.Settings, error) {
	owner.Settings.Apply(edit)
	if err := s.saveUser(ctx, owner); err != nil {
		return directory.Settings{}, err
	}
	return owner.Settings, nil
}

// UpdateProfile cleans and applies a partial profile edit and persists it.
func (s *Service) UpdateProfile(ctx context.Context, owner *directory.User, edit directory.ProfileEdit) (directory.Profile, error) {
	owner.Profile.Apply(edit.Map(s.cleaner.Clean))
	if err := s.saveUser(ctx, owner); err != nil {
		return directory.Profile{}, err
	}
	return owner.Profile, nil
}

// Timezones lists every timezone name a user may choose.
func (s *Service) Timezones() []string {
	return s.timezones.Names()
}

// SetTimezone changes owner's timezone by name.
func (s *Service) SetTimezone(ctx context.Context, owner *directory.User, name string) (string, error) {
	loc, ok := s.timezones.Lookup(name)
	if !ok {
		return "", notFound(reasonTimezoneNotFound)
	}
	owner.Timezone = loc
	if err := s.saveUser(ctx, owner); err != nil {
		return "", err
	}
	return loc.String(), nil
}

// PublicUserList is a page of the public user directory.
type PublicUserList struct {
	Users      []directory.PublicView `json:"users"`
	Pagination pagination.Pagination  `json:"pagination"`
}

// ListPublicUsers pages through users who opted into the public list,
// excluding the viewer, anyone the viewer blocked and anyone who blocked
// the viewer.
func (s *Service) ListPublicUsers(ctx context.Context, viewer *directory.User, page, pageSize int, includeProfile bool) (*PublicUserList, error) {
	exclude := make([]string, 0, len(viewer.BlockList)+1)
	exclude = append(exclude, viewer.Key)
	for key := range viewer.BlockList {
		exclude = append(exclude, key)
	}
	filter := store.PublicUserFilter{ViewerKey: viewer.Key, ExcludeKeys: exclude}

	total, err := s.repo.CountPublicUsers(ctx, filter)
	if err != nil {
		return nil, storageFault("counting public users", err)
	}

	var users []*directory.User
	if offset := pagination.Offset(page, pageSize); offset < total {
		users, err = s.repo.ListPublicUsers(ctx, filter, offset, pageSize)
		if err != nil {
			return nil, storageFault("listing public users", err)
		}
	}

	friendFlags := make([]bool, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for i, u := range users {
		g.Go(func() error {
			isFriend, err := s.AreFriends(gctx, viewer.Key, u.Key)
			if err != nil {
				return err
			}
			friendFlags[i] = isFriend
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loc := viewer.Location()
	views := make([]directory.PublicView, 0, len(users))
	for i, u := range users {
		views = append(views, u.PublicView(friendFlags[i], includeProfile, loc))
	}

	return &PublicUserList{
		Users:      views,
		Pagination: pagination.New(total, page, pageSize, len(views)),
	}, nil
}
