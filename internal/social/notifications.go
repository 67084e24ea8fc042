// ABOUTME: Notification listing and clearing for the receiving user
// ABOUTME: Resolves a page's senders in one batch, then renders each kind through a visitor

package social

import (
	"context"
	"time"

	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/pagination"
)

// NotificationView is a rendered notification.
type NotificationView struct {
	Type   string                `json:"type"`
	Sender *directory.PublicView `json:"sender"`
	Date   string                `json:"date"`
}

// NotificationList is a page of rendered notifications.
type NotificationList struct {
	Notifications []NotificationView    `json:"notifications"`
	Pagination    pagination.Pagination `json:"pagination"`
}

// senderCollector gathers the user keys a page of notifications refers to.
type senderCollector struct {
	seen map[string]bool
	keys []string
}

func (c *senderCollector) VisitFriendRequestReceived(n *directory.FriendRequestReceived) error {
	if !c.seen[n.SenderKey] {
		c.seen[n.SenderKey] = true
		c.keys = append(c.keys, n.SenderKey)
	}
	return nil
}

// renderer turns one notification into its view for viewer. Senders are
// resolved beforehand; a missing entry renders without a sender.
type renderer struct {
	senders map[string]*directory.User
	loc     *time.Location
	view    NotificationView
}

func (r *renderer) VisitFriendRequestReceived(n *directory.FriendRequestReceived) error {
	r.view = NotificationView{
		Type: "FriendRequest",
		Date: directory.FormatDate(n.Meta.CreatedAt, r.loc),
	}
	if sender := r.senders[n.SenderKey]; sender != nil {
		view := sender.PublicView(false, false, r.loc)
		r.view.Sender = &view
	}
	return nil
}

// ListNotifications pages through viewer's notifications in storage order.
func (s *Service) ListNotifications(ctx context.Context, viewer *directory.User, page, pageSize int) (*NotificationList, error) {
	all, err := s.repo.ListNotificationsByReceiver(ctx, viewer.Key)
	if err != nil {
		return nil, storageFault("listing notifications", err)
	}

	total := len(all)
	start, end, ok := pagination.Window(total, page, pageSize)
	if !ok {
		return &NotificationList{
			Notifications: []NotificationView{},
			Pagination:    pagination.New(total, page, pageSize, 0),
		}, nil
	}
	window := all[start:end]

	collector := &senderCollector{seen: make(map[string]bool)}
	for _, n := range window {
		if err := n.Accept(collector); err != nil {
			return nil, err
		}
	}
	users, err := s.resolveUsers(ctx, collector.keys)
	if err != nil {
		return nil, err
	}
	senders := make(map[string]*directory.User, len(users))
	for i, u := range users {
		senders[collector.keys[i]] = u
	}

	r := &renderer{senders: senders, loc: viewer.Location()}
	views := make([]NotificationView, 0, len(window))
	for _, n := range window {
		if err := n.Accept(r); err != nil {
			return nil, err
		}
		views = append(views, r.view)
	}

	return &NotificationList{
		Notifications: views,
		Pagination:    pagination.New(total, page, pageSize, len(views)),
	}, nil
}

// ClearNotifications deletes all of viewer's notifications and returns the count.
func (s *Service) ClearNotifications(ctx context.Context, viewer *directory.User) (int64, error) {
	deleted, err := s.repo.ClearNotificationsByReceiver(ctx, viewer.Key)
	if err != nil {
		return 0, storageFault("clearing notifications", err)
	}
	s.logger.Info("notifications cleared", "receiver", viewer.Key, "deleted", deleted)
	return deleted, nil
}
