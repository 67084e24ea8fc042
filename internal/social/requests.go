// ABOUTME: Friend-request state machine: send, retract, accept, deny and unfriend
// ABOUTME: Guards run in a fixed order so hidden users look identical to missing ones

package social

import (
	"context"
	"errors"

	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/store"
)

// AcceptResult reports how an accept was resolved.
type AcceptResult struct {
	// AlreadyFriends is set when the friendship existed by the time the
	// request was consumed. The accept still succeeds.
	AlreadyFriends bool
}

// SendFriendRequest records a request from owner to the user named target
// and notifies the receiver.
func (s *Service) SendFriendRequest(ctx context.Context, owner *directory.User, target string) error {
	receiver, err := s.findByName(ctx, target, reasonRequestTargetHidden)
	if err != nil {
		return err
	}
	if receiver.Key == owner.Key {
		return conflict(reasonSelfRequest)
	}
	if !receiver.Settings.AllowFriendRequests || receiver.HasBlocked(owner.Key) {
		return notFound(reasonRequestTargetHidden)
	}
	if owner.HasBlocked(receiver.Key) {
		return conflict(reasonSenderBlocked)
	}

	friends, err := s.AreFriends(ctx, owner.Key, receiver.Key)
	if err != nil {
		return err
	}
	if friends {
		return conflict(reasonAlreadyFriends)
	}
	if receiver.HasRequestFrom(owner.Key) {
		return conflict(reasonAlreadyRequested)
	}
	if owner.HasRequestFrom(receiver.Key) {
		return conflict(reasonReverseRequest)
	}

	now := s.now()
	receiver.FriendRequests[owner.Key] = now
	if err := s.saveUser(ctx, receiver); err != nil {
		return err
	}

	n := directory.NewFriendRequestReceived(receiver.Key, owner.Key, now)
	if _, err := s.repo.SaveNotification(ctx, n); err != nil {
		return storageFault("saving notification", err)
	}

	s.logger.Info("friend request sent", "sender", owner.Key, "receiver", receiver.Key)
	return nil
}

// RetractFriendRequest withdraws owner's pending request to target.
func (s *Service) RetractFriendRequest(ctx context.Context, owner *directory.User, target string) error {
	receiver, err := s.findByName(ctx, target, reasonUserNotFound)
	if err != nil {
		return err
	}
	if !receiver.HasRequestFrom(owner.Key) {
		return conflict(reasonNotRequested)
	}

	delete(receiver.FriendRequests, owner.Key)
	if err := s.saveUser(ctx, receiver); err != nil {
		return err
	}

	s.logger.Info("friend request retracted", "sender", owner.Key, "receiver", receiver.Key)
	return nil
}

// AcceptFriendRequest consumes the pending request from target and creates
// the friendship. The request removal and the friendship insert are separate
// writes; a failure between them leaves the request consumed without a
// friendship.
func (s *Service) AcceptFriendRequest(ctx context.Context, owner *directory.User, target string) (AcceptResult, error) {
	sender, err := s.pendingSender(ctx, owner, target)
	if err != nil {
		return AcceptResult{}, err
	}
	if owner.HasBlocked(sender.Key) || sender.HasBlocked(owner.Key) {
		return AcceptResult{}, conflict(reasonBlockedPair)
	}

	delete(owner.FriendRequests, sender.Key)
	if err := s.saveUser(ctx, owner); err != nil {
		return AcceptResult{}, err
	}

	friends, err := s.AreFriends(ctx, owner.Key, sender.Key)
	if err != nil {
		return AcceptResult{}, err
	}
	if friends {
		return AcceptResult{AlreadyFriends: true}, nil
	}

	f := directory.NewFriendship(owner.Key, sender.Key, s.now())
	if err := s.repo.CreateFriendship(ctx, f); err != nil {
		if errors.Is(err, store.ErrDuplicateFriendship) {
			return AcceptResult{AlreadyFriends: true}, nil
		}
		return AcceptResult{}, storageFault("creating friendship", err)
	}

	s.logger.Info("friend request accepted", "receiver", owner.Key, "sender", sender.Key, "friendship", f.ID)
	return AcceptResult{}, nil
}

// DenyFriendRequest drops the pending request from target without telling them.
func (s *Service) DenyFriendRequest(ctx context.Context, owner *directory.User, target string) error {
	sender, err := s.pendingSender(ctx, owner, target)
	if err != nil {
		return err
	}

	delete(owner.FriendRequests, sender.Key)
	if err := s.saveUser(ctx, owner); err != nil {
		return err
	}

	s.logger.Info("friend request denied", "receiver", owner.Key, "sender", sender.Key)
	return nil
}

func (s *Service) pendingSender(ctx context.Context, owner *directory.User, target string) (*directory.User, error) {
	sender, err := s.findByName(ctx, target, reasonUserNotFound)
	if err != nil {
		return nil, err
	}
	if !owner.HasRequestFrom(sender.Key) {
		return nil, conflict(reasonNoPendingRequest)
	}
	return sender, nil
}

// Unfriend deletes the friendship between owner and target.
func (s *Service) Unfriend(ctx context.Context, owner *directory.User, target string) error {
	other, err := s.findByName(ctx, target, reasonUserNotFound)
	if err != nil {
		return err
	}

	f, err := s.repo.GetFriendshipByKeys(ctx, owner.Key, other.Key)
	if errors.Is(err, store.ErrNotFound) {
		return conflict(reasonNotFriends)
	}
	if err != nil {
		return storageFault("finding friendship", err)
	}

	if err := s.repo.DeleteFriendship(ctx, f.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return conflict(reasonNotFriends)
		}
		return storageFault("deleting friendship", err)
	}

	s.logger.Info("friendship removed", "by", owner.Key, "other", other.Key, "friendship", f.ID)
	return nil
}
