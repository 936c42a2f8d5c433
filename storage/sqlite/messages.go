package sqlite

import (
	"context"
	"fmt"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
)

// PutMessage appends a message to its conversation.
func (s *Store) PutMessage(ctx context.Context, m models.Message) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO messages (message_id, conversation_id, sender_id, recipient_id, content, is_read, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.MessageID, m.ConversationID, m.SenderID, m.RecipientID, m.Content, boolToInt(m.IsRead), toMillis(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("put message: %w", err)
	}
	return nil
}

// ListMessages returns up to limit of the newest messages, oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT message_id, conversation_id, sender_id, recipient_id, content, is_read, created_at FROM (
    SELECT rowid AS seq, * FROM messages WHERE conversation_id = ?
    ORDER BY created_at DESC, seq DESC LIMIT ?
) ORDER BY created_at ASC, seq ASC`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			m         models.Message
			isRead    int
			createdAt int64
		)
		if err := rows.Scan(&m.MessageID, &m.ConversationID, &m.SenderID, &m.RecipientID, &m.Content, &isRead, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.IsRead = isRead == 1
		m.CreatedAt = fromMillis(createdAt)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// MarkMessagesRead flags every unread message addressed to readerID.
func (s *Store) MarkMessagesRead(ctx context.Context, conversationID string, readerID string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE messages SET is_read = 1 WHERE conversation_id = ? AND recipient_id = ? AND is_read = 0`,
		conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return int(changed), nil
}
