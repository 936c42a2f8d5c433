// Package storage defines the persistence boundary shared by the SQLite and
// DynamoDB backends. Uniqueness of canonical keys is enforced by the store
// itself; callers translate ErrConflict into a re-read.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write lost against a uniqueness or state condition.
	ErrConflict = errors.New("record conflict")
)

// MatchStore persists Match rows keyed by the canonical party pair.
type MatchStore interface {
	GetMatch(ctx context.Context, partyLo, partyHi string) (models.Match, error)
	// PutMatch inserts a new row. A row for the same pair yields ErrConflict.
	PutMatch(ctx context.Context, match models.Match) error
	// ApproveMatchSide sets one approval flag and, when both flags end up true,
	// stamps approvedAt exactly once. transitioned is true only for the call
	// that stamped it.
	ApproveMatchSide(ctx context.Context, partyLo, partyHi string, side models.MatchSide, at time.Time) (match models.Match, transitioned bool, err error)
	ListMatchesForParty(ctx context.Context, partyID string) ([]models.Match, error)
}

// ConversationStore persists Conversation rows keyed by canonical identity.
type ConversationStore interface {
	GetConversation(ctx context.Context, conversationID string) (models.Conversation, error)
	GetConversationByKey(ctx context.Context, conversationKey string) (models.Conversation, error)
	// PutConversation inserts a new row. A row for the same key yields ErrConflict.
	PutConversation(ctx context.Context, conversation models.Conversation) error
	// LatestConversationForPair returns the most recently created conversation for a pair key.
	LatestConversationForPair(ctx context.Context, pairKey string) (models.Conversation, error)
}

// MessageStore is the append-only message log.
type MessageStore interface {
	PutMessage(ctx context.Context, message models.Message) error
	// ListMessages returns up to limit of the newest messages, oldest first.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	// MarkMessagesRead flags unread messages addressed to readerID and returns how many changed.
	MarkMessagesRead(ctx context.Context, conversationID string, readerID string) (int, error)
}

// SneakPeekStore persists preview requests.
type SneakPeekStore interface {
	PutSneakPeek(ctx context.Context, peek models.SneakPeek) error
	GetSneakPeek(ctx context.Context, sneakPeekID string) (models.SneakPeek, error)
	// CountOpenSneakPeeks counts PENDING previews for a recipient that expire after now.
	CountOpenSneakPeeks(ctx context.Context, recipientPartyID string, now time.Time) (int, error)
	// RespondSneakPeek moves an open preview to status. A preview that is no
	// longer PENDING or has expired yields ErrConflict.
	RespondSneakPeek(ctx context.Context, sneakPeekID string, status models.SneakPeekStatus, at time.Time) (models.SneakPeek, error)
	// ListOpenSneakPeeksForRecipient lists PENDING, unexpired previews oldest first.
	ListOpenSneakPeeksForRecipient(ctx context.Context, recipientPartyID string, now time.Time) ([]models.SneakPeek, error)
	// ListSneakPeeksForSponsor lists open previews plus those responded at or after respondedSince, newest first.
	ListSneakPeeksForSponsor(ctx context.Context, sponsorID string, now time.Time, respondedSince time.Time) ([]models.SneakPeek, error)
	// ExpireSneakPeeks moves every PENDING preview with expiresAt <= now to EXPIRED.
	ExpireSneakPeeks(ctx context.Context, now time.Time) (int, error)
}

// NotificationStore persists notification rows. Correlated rows are unique
// per (recipient, type, correlation key).
type NotificationStore interface {
	GetNotificationByCorrelation(ctx context.Context, recipientID string, notificationType models.NotificationType, correlationKey string) (models.Notification, error)
	// PutNotification inserts a row. A correlated duplicate yields ErrConflict.
	PutNotification(ctx context.Context, notification models.Notification) error
	// LatestNotificationOfType returns the most recently created row of a type, dismissed or not.
	LatestNotificationOfType(ctx context.Context, recipientID string, notificationType models.NotificationType) (models.Notification, error)
	// DismissActiveNotifications dismisses every active row of a type and returns how many changed.
	DismissActiveNotifications(ctx context.Context, recipientID string, notificationType models.NotificationType, at time.Time) (int, error)
	// DismissCorrelatedNotification dismisses the active correlated row, if any.
	DismissCorrelatedNotification(ctx context.Context, recipientID string, notificationType models.NotificationType, correlationKey string, at time.Time) (int, error)
	// ListNotifications lists a recipient's rows newest first.
	ListNotifications(ctx context.Context, recipientID string, includeDismissed bool, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID string, notificationID string) (models.Notification, error)
	DismissNotification(ctx context.Context, recipientID string, notificationID string, at time.Time) (models.Notification, error)
}

// Directory reads the externally owned sponsor relationships and photos.
type Directory interface {
	// SponsorOf returns the party's current sponsor, or "" when it has none.
	// Unknown parties yield ErrNotFound.
	SponsorOf(ctx context.Context, partyID string) (string, error)
	PartiesSponsoredBy(ctx context.Context, sponsorID string) ([]string, error)
	// PhotosOf returns the party's displayable photos in profile order.
	PhotosOf(ctx context.Context, partyID string) ([]string, error)
}

// Store is everything the orchestration services need from one backend.
type Store interface {
	MatchStore
	ConversationStore
	MessageStore
	SneakPeekStore
	NotificationStore
	Directory
	Close() error
}
