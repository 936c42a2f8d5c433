package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
)

const notificationColumns = `notification_id, recipient_id, type, correlation_key, payload_json,
	is_read, dismissed_at, created_at`

func scanNotification(row scanner) (models.Notification, error) {
	var (
		n           models.Notification
		kind        string
		payloadJSON string
		isRead      int
		dismissedAt sql.NullInt64
		createdAt   int64
	)
	if err := row.Scan(&n.NotificationID, &n.RecipientID, &kind, &n.CorrelationKey, &payloadJSON,
		&isRead, &dismissedAt, &createdAt); err != nil {
		return models.Notification{}, err
	}
	n.Type = models.NotificationType(kind)
	n.Read = isRead == 1
	n.DismissedAt = fromNullMillis(dismissedAt)
	n.CreatedAt = fromMillis(createdAt)
	if payloadJSON != "" && payloadJSON != "{}" {
		if err := json.Unmarshal([]byte(payloadJSON), &n.Payload); err != nil {
			return models.Notification{}, fmt.Errorf("decode notification payload: %w", err)
		}
	}
	return n, nil
}

func (s *Store) getNotification(ctx context.Context, where string, args ...any) (models.Notification, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE `+where, args...)
	n, err := scanNotification(row)
	if err != nil {
		return models.Notification{}, notFoundOr(err, "get notification")
	}
	return n, nil
}

// GetNotificationByCorrelation returns the row for (recipient, type, correlation key).
func (s *Store) GetNotificationByCorrelation(ctx context.Context, recipientID string, notificationType models.NotificationType, correlationKey string) (models.Notification, error) {
	if err := s.ready(ctx); err != nil {
		return models.Notification{}, err
	}
	return s.getNotification(ctx, `recipient_id = ? AND type = ? AND correlation_key = ?`,
		recipientID, string(notificationType), correlationKey)
}

// PutNotification inserts a row. A correlated duplicate yields storage.ErrConflict.
func (s *Store) PutNotification(ctx context.Context, n models.Notification) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	payloadJSON, err := marshalJSON(n.Payload, "{}")
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO notifications (`+notificationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.NotificationID, n.RecipientID, string(n.Type), n.CorrelationKey, payloadJSON,
		boolToInt(n.Read), toNullMillis(n.DismissedAt), toMillis(n.CreatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

// LatestNotificationOfType returns the newest row of a type, dismissed or not.
func (s *Store) LatestNotificationOfType(ctx context.Context, recipientID string, notificationType models.NotificationType) (models.Notification, error) {
	if err := s.ready(ctx); err != nil {
		return models.Notification{}, err
	}
	return s.getNotification(ctx, `recipient_id = ? AND type = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		recipientID, string(notificationType))
}

func (s *Store) dismissWhere(ctx context.Context, at time.Time, where string, args ...any) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE notifications SET dismissed_at = ? WHERE dismissed_at IS NULL AND `+where,
		append([]any{toMillis(at)}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("dismiss notifications: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("dismiss notifications: %w", err)
	}
	return int(changed), nil
}

// DismissActiveNotifications dismisses every active row of a type for the recipient.
func (s *Store) DismissActiveNotifications(ctx context.Context, recipientID string, notificationType models.NotificationType, at time.Time) (int, error) {
	return s.dismissWhere(ctx, at, `recipient_id = ? AND type = ?`, recipientID, string(notificationType))
}

// DismissCorrelatedNotification dismisses the active correlated row, if any.
func (s *Store) DismissCorrelatedNotification(ctx context.Context, recipientID string, notificationType models.NotificationType, correlationKey string, at time.Time) (int, error) {
	return s.dismissWhere(ctx, at, `recipient_id = ? AND type = ? AND correlation_key = ?`,
		recipientID, string(notificationType), correlationKey)
}

// ListNotifications lists a recipient's rows newest first.
func (s *Store) ListNotifications(ctx context.Context, recipientID string, includeDismissed bool, limit int) ([]models.Notification, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = ?`
	if !includeDismissed {
		query += ` AND dismissed_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.sqlDB.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks one of the recipient's rows read.
func (s *Store) MarkNotificationRead(ctx context.Context, recipientID string, notificationID string) (models.Notification, error) {
	if err := s.ready(ctx); err != nil {
		return models.Notification{}, err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE notification_id = ? AND recipient_id = ?`,
		notificationID, recipientID); err != nil {
		return models.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return s.getNotification(ctx, `notification_id = ? AND recipient_id = ?`, notificationID, recipientID)
}

// DismissNotification dismisses one of the recipient's rows. Dismissing twice keeps the first timestamp.
func (s *Store) DismissNotification(ctx context.Context, recipientID string, notificationID string, at time.Time) (models.Notification, error) {
	if _, err := s.dismissWhere(ctx, at, `notification_id = ? AND recipient_id = ?`, notificationID, recipientID); err != nil {
		return models.Notification{}, err
	}
	return s.getNotification(ctx, `notification_id = ? AND recipient_id = ?`, notificationID, recipientID)
}
