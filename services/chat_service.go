package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leetryscode/matchmakr-vg0-sub001/apperrors"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
	"github.com/leetryscode/matchmakr-vg0-sub001/utils"
)

const maxMessageLength = 4000

type ChatService struct {
	Store         storage.Store
	Conversations *ConversationService
	Matches       *MatchService
	Notifications *NotificationService
	Now           func() time.Time
}

func NewChatService(store storage.Store, conversations *ConversationService, matches *MatchService, notifications *NotificationService, now func() time.Time) *ChatService {
	return &ChatService{
		Store:         store,
		Conversations: conversations,
		Matches:       matches,
		Notifications: notifications,
		Now:           nowOrDefault(now),
	}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.InvalidArg("message content is required")
	}
	if len(content) > maxMessageLength {
		return apperrors.InvalidArg("message content is too long")
	}
	return nil
}

// SendSponsorMessage sends a message between two sponsors about a pair of
// their parties. Without a resolvable context the message falls back to the
// most recent conversation between the sponsors.
func (cs *ChatService) SendSponsorMessage(ctx context.Context, senderSponsorID, recipientSponsorID, content string, explicit ConversationContext) (models.Message, models.Conversation, error) {
	if err := validateContent(content); err != nil {
		return models.Message{}, models.Conversation{}, err
	}

	conversation, err := cs.Conversations.ResolveForSponsors(ctx, senderSponsorID, recipientSponsorID, explicit)
	if apperrors.Is(err, apperrors.CodeContextResolution) && explicit.Empty() {
		log.Printf("⚠️ Warning: no context for %s -> %s, using latest conversation", senderSponsorID, recipientSponsorID)
		latest, latestErr := cs.Conversations.LatestBetween(ctx, senderSponsorID, recipientSponsorID)
		if latestErr != nil {
			return models.Message{}, models.Conversation{}, err
		}
		conversation, err = latest, nil
	}
	if err != nil {
		return models.Message{}, models.Conversation{}, err
	}

	message, err := cs.store(ctx, conversation, senderSponsorID, recipientSponsorID, content)
	if err != nil {
		return models.Message{}, models.Conversation{}, err
	}

	cs.Notifications.Emit(ctx, NotificationRequest{
		RecipientID:    recipientSponsorID,
		Type:           models.NotificationMatchmakrChat,
		CorrelationKey: utils.JoinKey(senderSponsorID, conversation.RepresentedBy(senderSponsorID)),
		Payload: func() map[string]string {
			return map[string]string{
				"conversationId": conversation.ConversationID,
				"senderId":       senderSponsorID,
				"subjectId":      conversation.RepresentedBy(senderSponsorID),
				"targetId":       conversation.RepresentedBy(recipientSponsorID),
			}
		},
	})
	return message, conversation, nil
}

// SendPartyMessage sends a message between two parties whose introduction is live.
func (cs *ChatService) SendPartyMessage(ctx context.Context, senderPartyID, recipientPartyID, content string) (models.Message, models.Conversation, error) {
	if err := validateContent(content); err != nil {
		return models.Message{}, models.Conversation{}, err
	}
	allowed, err := cs.Matches.CanCommunicate(ctx, senderPartyID, recipientPartyID)
	if err != nil {
		return models.Message{}, models.Conversation{}, err
	}
	if !allowed {
		return models.Message{}, models.Conversation{}, apperrors.Authorization("both sponsors must approve before these parties can talk")
	}

	lo, hi := utils.Canonicalize(senderPartyID, recipientPartyID)
	match, err := cs.Store.GetMatch(ctx, lo, hi)
	if err != nil {
		return models.Message{}, models.Conversation{}, fmt.Errorf("failed to fetch match: %w", err)
	}
	sponsorOf := map[string]string{match.PartyAID: match.SponsorAID, match.PartyBID: match.SponsorBID}

	conversation, err := cs.Conversations.GetOrCreate(ctx, senderPartyID, recipientPartyID,
		senderPartyID, recipientPartyID, sponsorOf[senderPartyID], sponsorOf[recipientPartyID])
	if err != nil {
		return models.Message{}, models.Conversation{}, err
	}

	message, err := cs.store(ctx, conversation, senderPartyID, recipientPartyID, content)
	if err != nil {
		return models.Message{}, models.Conversation{}, err
	}
	return message, conversation, nil
}

func (cs *ChatService) store(ctx context.Context, conversation models.Conversation, senderID, recipientID, content string) (models.Message, error) {
	now := cs.Now()
	id := uuid.NewString()
	message := models.Message{
		ConversationID: conversation.ConversationID,
		MessageKey:     utils.TimeOrderedKey(now, id),
		MessageID:      id,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        content,
		CreatedAt:      now,
	}
	log.Printf("📩 Storing message %s in conversation %s", message.MessageID, conversation.ConversationID)
	if err := cs.Store.PutMessage(ctx, message); err != nil {
		log.Printf("❌ Failed to store message: %v", err)
		return models.Message{}, fmt.Errorf("failed to store message: %w", err)
	}
	return message, nil
}

// GetMessages returns up to limit of the newest messages, oldest first.
func (cs *ChatService) GetMessages(ctx context.Context, callerID, conversationID string, limit int) ([]models.Message, error) {
	if _, err := cs.Conversations.Get(ctx, callerID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	log.Printf("🔍 Fetching latest %d messages for conversation %s", limit, conversationID)
	messages, err := cs.Store.ListMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// MarkMessagesAsRead flags every message addressed to the caller as read.
func (cs *ChatService) MarkMessagesAsRead(ctx context.Context, callerID, conversationID string) (int, error) {
	if _, err := cs.Conversations.Get(ctx, callerID, conversationID); err != nil {
		return 0, err
	}
	changed, err := cs.Store.MarkMessagesRead(ctx, conversationID, callerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, apperrors.NotFound("conversation not found")
		}
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	log.Printf("✅ Marked %d messages as read in conversation %s for %s", changed, conversationID, callerID)
	return changed, nil
}
