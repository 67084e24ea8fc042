// ABOUTME: Notification sum type with one variant per event kind
// ABOUTME: Consumers dispatch through NotificationVisitor rather than type switches

package directory

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind tags the variant of a stored notification.
type NotificationKind string

const (
	KindFriendRequestReceived NotificationKind = "FriendRequestReceived"
)

// Common holds the fields every notification carries.
type Common struct {
	ID          string
	CreatedAt   time.Time
	ReceiverKey string
}

// Notification is implemented only by the variants in this package.
type Notification interface {
	Common() Common
	Kind() NotificationKind
	Accept(v NotificationVisitor) error
	// WithID returns a copy of the notification carrying id.
	WithID(id string) Notification
	isNotification()
}

// NotificationVisitor has one method per notification kind.
type NotificationVisitor interface {
	VisitFriendRequestReceived(n *FriendRequestReceived) error
}

// FriendRequestReceived is recorded for the receiver when a request is sent.
type FriendRequestReceived struct {
	Meta      Common
	SenderKey string
}

// NewFriendRequestReceived builds the notification without an ID; the store
// assigns one on insert.
func NewFriendRequestReceived(receiverKey, senderKey string, now time.Time) *FriendRequestReceived {
	return &FriendRequestReceived{
		Meta: Common{
			CreatedAt:   now,
			ReceiverKey: receiverKey,
		},
		SenderKey: senderKey,
	}
}

func (n *FriendRequestReceived) Common() Common         { return n.Meta }
func (n *FriendRequestReceived) Kind() NotificationKind { return KindFriendRequestReceived }
func (n *FriendRequestReceived) isNotification()        {}

// Accept dispatches to the visitor.
func (n *FriendRequestReceived) Accept(v NotificationVisitor) error {
	return v.VisitFriendRequestReceived(n)
}

func (n *FriendRequestReceived) WithID(id string) Notification {
	c := *n
	c.Meta.ID = id
	return &c
}

// NewNotificationID returns a fresh identity for an inserted notification.
func NewNotificationID() string {
	return uuid.New().String()
}
