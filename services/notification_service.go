package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/leetryscode/matchmakr-vg0-sub001/apperrors"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
	"github.com/leetryscode/matchmakr-vg0-sub001/utils"
)

// EnsureOutcome reports what Ensure decided.
type EnsureOutcome string

const (
	OutcomeCreated        EnsureOutcome = "created"
	OutcomeDuplicate      EnsureOutcome = "duplicate"
	OutcomeCoolingDown    EnsureOutcome = "cooling_down"
	OutcomeDismissedStale EnsureOutcome = "dismissed_stale"
)

// NotificationRequest describes one notification another component wants to exist.
//
// With a CorrelationKey the request is deduplicated per (recipient, type, key)
// for the lifetime of the row. Without one it is a nudge: Condition is
// evaluated first and a false result dismisses stale rows of the type;
// a true result creates a row unless one was created within the cooldown.
type NotificationRequest struct {
	RecipientID    string
	Type           models.NotificationType
	CorrelationKey string
	Payload        func() map[string]string
	Condition      func(ctx context.Context) (bool, error)
}

type NotificationService struct {
	Store    storage.NotificationStore
	Cooldown time.Duration
	Now      func() time.Time
}

func NewNotificationService(store storage.NotificationStore, policy Policy, now func() time.Time) *NotificationService {
	return &NotificationService{Store: store, Cooldown: policy.NotificationCooldown, Now: nowOrDefault(now)}
}

// Ensure applies the issuance policy to req.
func (ns *NotificationService) Ensure(ctx context.Context, req NotificationRequest) (EnsureOutcome, error) {
	if !utils.ValidIdentifier(req.RecipientID) {
		return "", apperrors.InvalidArg("notification recipient is required")
	}
	if req.Type == "" {
		return "", apperrors.InvalidArg("notification type is required")
	}
	if req.CorrelationKey != "" {
		return ns.ensureCorrelated(ctx, req)
	}
	return ns.ensureNudge(ctx, req)
}

func (ns *NotificationService) ensureCorrelated(ctx context.Context, req NotificationRequest) (EnsureOutcome, error) {
	_, err := ns.Store.GetNotificationByCorrelation(ctx, req.RecipientID, req.Type, req.CorrelationKey)
	if err == nil {
		return OutcomeDuplicate, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to look up notification: %w", err)
	}

	err = ns.Store.PutNotification(ctx, ns.build(req))
	if errors.Is(err, storage.ErrConflict) {
		// A concurrent request inserted the same correlated row first.
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to store notification: %w", err)
	}
	log.Printf("🔔 Notification %s created for %s (correlation %s)", req.Type, req.RecipientID, req.CorrelationKey)
	return OutcomeCreated, nil
}

func (ns *NotificationService) ensureNudge(ctx context.Context, req NotificationRequest) (EnsureOutcome, error) {
	now := ns.Now()
	if req.Condition != nil {
		satisfied, err := req.Condition(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to evaluate %s condition: %w", req.Type, err)
		}
		if !satisfied {
			dismissed, err := ns.Store.DismissActiveNotifications(ctx, req.RecipientID, req.Type, now)
			if err != nil {
				return "", fmt.Errorf("failed to dismiss stale notifications: %w", err)
			}
			if dismissed > 0 {
				log.Printf("🧹 Dismissed %d stale %s notifications for %s", dismissed, req.Type, req.RecipientID)
			}
			return OutcomeDismissedStale, nil
		}
	}

	latest, err := ns.Store.LatestNotificationOfType(ctx, req.RecipientID, req.Type)
	switch {
	case err == nil:
		if now.Sub(latest.CreatedAt) < ns.Cooldown {
			return OutcomeCoolingDown, nil
		}
	case !errors.Is(err, storage.ErrNotFound):
		return "", fmt.Errorf("failed to look up latest notification: %w", err)
	}

	if err := ns.Store.PutNotification(ctx, ns.build(req)); err != nil {
		return "", fmt.Errorf("failed to store notification: %w", err)
	}
	log.Printf("🔔 Nudge %s created for %s", req.Type, req.RecipientID)
	return OutcomeCreated, nil
}

func (ns *NotificationService) build(req NotificationRequest) models.Notification {
	now := ns.Now()
	id := uuid.NewString()
	n := models.Notification{
		RecipientID:     req.RecipientID,
		NotificationKey: utils.TimeOrderedKey(now, id),
		NotificationID:  id,
		Type:            req.Type,
		CorrelationKey:  req.CorrelationKey,
		CreatedAt:       now,
	}
	if req.Payload != nil {
		n.Payload = req.Payload()
	}
	return n
}

// Emit runs Ensure and logs any failure instead of returning it, so the
// triggering operation is never failed by notification issuance.
func (ns *NotificationService) Emit(ctx context.Context, req NotificationRequest) EnsureOutcome {
	if ns == nil {
		return ""
	}
	outcome, err := ns.Ensure(ctx, req)
	if err != nil {
		log.Printf("⚠️ Warning: failed to issue %s notification for %s: %v", req.Type, req.RecipientID, err)
		return ""
	}
	return outcome
}

// List returns the recipient's notifications newest first.
func (ns *NotificationService) List(ctx context.Context, recipientID string, includeDismissed bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	notifications, err := ns.Store.ListNotifications(ctx, recipientID, includeDismissed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead marks one of the recipient's notifications read.
func (ns *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) (models.Notification, error) {
	n, err := ns.Store.MarkNotificationRead(ctx, recipientID, notificationID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Notification{}, apperrors.NotFound("notification not found")
	}
	if err != nil {
		return models.Notification{}, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return n, nil
}

// Dismiss hides one of the recipient's notifications. Rows are kept.
func (ns *NotificationService) Dismiss(ctx context.Context, recipientID, notificationID string) (models.Notification, error) {
	n, err := ns.Store.DismissNotification(ctx, recipientID, notificationID, ns.Now())
	if errors.Is(err, storage.ErrNotFound) {
		return models.Notification{}, apperrors.NotFound("notification not found")
	}
	if err != nil {
		return models.Notification{}, fmt.Errorf("failed to dismiss notification: %w", err)
	}
	return n, nil
}
