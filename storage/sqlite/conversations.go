package sqlite

import (
	"context"
	"fmt"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
)

const conversationColumns = `conversation_id, conversation_key, pair_key, initiator_id, counterpart_id,
	context_subject_id, context_target_id, initiator_sponsor_id, counterpart_sponsor_id, status, created_at`

func scanConversation(row scanner) (models.Conversation, error) {
	var (
		c         models.Conversation
		createdAt int64
	)
	if err := row.Scan(&c.ConversationID, &c.ConversationKey, &c.PairKey, &c.InitiatorID, &c.CounterpartID,
		&c.ContextSubjectID, &c.ContextTargetID, &c.InitiatorSponsorID, &c.CounterpartSponsorID,
		&c.Status, &createdAt); err != nil {
		return models.Conversation{}, err
	}
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}

func (s *Store) getConversationWhere(ctx context.Context, where string, arg string) (models.Conversation, error) {
	if err := s.ready(ctx); err != nil {
		return models.Conversation{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE `+where, arg)
	c, err := scanConversation(row)
	if err != nil {
		return models.Conversation{}, notFoundOr(err, "get conversation")
	}
	return c, nil
}

// GetConversation returns a conversation by id.
func (s *Store) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	return s.getConversationWhere(ctx, "conversation_id = ?", conversationID)
}

// GetConversationByKey returns a conversation by its canonical identity key.
func (s *Store) GetConversationByKey(ctx context.Context, conversationKey string) (models.Conversation, error) {
	return s.getConversationWhere(ctx, "conversation_key = ?", conversationKey)
}

// LatestConversationForPair returns the newest conversation between two participants.
func (s *Store) LatestConversationForPair(ctx context.Context, pairKey string) (models.Conversation, error) {
	return s.getConversationWhere(ctx, "pair_key = ? ORDER BY created_at DESC, rowid DESC LIMIT 1", pairKey)
}

// PutConversation inserts a conversation; a duplicate identity yields storage.ErrConflict.
func (s *Store) PutConversation(ctx context.Context, c models.Conversation) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO conversations (`+conversationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ConversationID, c.ConversationKey, c.PairKey, c.InitiatorID, c.CounterpartID,
		c.ContextSubjectID, c.ContextTargetID, c.InitiatorSponsorID, c.CounterpartSponsorID,
		c.Status, toMillis(c.CreatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put conversation: %w", err)
	}
	return nil
}
