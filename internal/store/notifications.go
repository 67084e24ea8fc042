// ABOUTME: SQLite persistence for notifications of every kind
// ABOUTME: Kind-specific fields live in a JSON payload column keyed by the kind tag

package store

import (
	"context"
	"fmt"

	"github.com/lemcom/lemcom-directory/internal/directory"
)

type friendRequestPayload struct {
	SenderKey string `json:"sender_key"`
}

// payloadEncoder turns a notification variant into its stored payload.
type payloadEncoder struct {
	payload []byte
}

func (e *payloadEncoder) VisitFriendRequestReceived(n *directory.FriendRequestReceived) error {
	b, err := json.Marshal(friendRequestPayload{SenderKey: n.SenderKey})
	if err != nil {
		return err
	}
	e.payload = b
	return nil
}

func encodePayload(n directory.Notification) ([]byte, error) {
	enc := &payloadEncoder{}
	if err := n.Accept(enc); err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", n.Kind(), err)
	}
	return enc.payload, nil
}

func decodeNotification(kind string, common directory.Common, payload []byte) (directory.Notification, error) {
	switch directory.NotificationKind(kind) {
	case directory.KindFriendRequestReceived:
		var p friendRequestPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
		}
		return &directory.FriendRequestReceived{Meta: common, SenderKey: p.SenderKey}, nil
	}
	return nil, fmt.Errorf("unknown notification kind %q", kind)
}

// SaveNotification inserts a notification, or updates it in place when its ID
// is already stored. Notifications without an ID get a fresh one.
func (s *SQLiteStore) SaveNotification(ctx context.Context, n directory.Notification) (directory.Notification, error) {
	if n.Common().ID == "" {
		n = n.WithID(directory.NewNotificationID())
	}
	common := n.Common()

	payload, err := encodePayload(n)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO notifications (id, kind, receiver_key, created_at, payload_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			receiver_key = excluded.receiver_key,
			created_at = excluded.created_at,
			payload_json = excluded.payload_json
	`
	_, err = s.db.ExecContext(ctx, query,
		common.ID,
		string(n.Kind()),
		common.ReceiverKey,
		formatTime(common.CreatedAt),
		string(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("saving notification: %w", err)
	}

	s.logger.Debug("saved notification", "id", common.ID, "kind", n.Kind(), "receiver", common.ReceiverKey)
	return n, nil
}

// ListNotificationsByReceiver returns a receiver's notifications in insert order.
func (s *SQLiteStore) ListNotificationsByReceiver(ctx context.Context, receiverKey string) ([]directory.Notification, error) {
	query := `
		SELECT id, kind, receiver_key, created_at, payload_json
		FROM notifications
		WHERE receiver_key = ?
		ORDER BY rowid
	`

	rows, err := s.db.QueryContext(ctx, query, receiverKey)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []directory.Notification
	for rows.Next() {
		var common directory.Common
		var kind, createdAt, payload string
		if err := rows.Scan(&common.ID, &kind, &common.ReceiverKey, &createdAt, &payload); err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		if common.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		n, err := decodeNotification(kind, common, []byte(payload))
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rows: %w", err)
	}

	return notifications, nil
}

// ClearNotificationsByReceiver deletes every notification of a receiver and
// returns how many were removed.
func (s *SQLiteStore) ClearNotificationsByReceiver(ctx context.Context, receiverKey string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE receiver_key = ?`, receiverKey)
	if err != nil {
		return 0, fmt.Errorf("clearing notifications: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	s.logger.Debug("cleared notifications", "receiver", receiverKey, "deleted", deleted)
	return deleted, nil
}

// Ensure SQLiteStore implements NotificationStore interface.
var _ NotificationStore = (*SQLiteStore)(nil)
