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

// SneakPeekService runs the preview consent flow.
type SneakPeekService struct {
	Store       storage.Store
	Snapshotter PhotoSnapshotter
	Policy      Policy
	Now         func() time.Time
}

func NewSneakPeekService(store storage.Store, snapshotter PhotoSnapshotter, policy Policy, now func() time.Time) *SneakPeekService {
	if snapshotter == nil {
		snapshotter = PassthroughSnapshotter{}
	}
	return &SneakPeekService{Store: store, Snapshotter: snapshotter, Policy: policy, Now: nowOrDefault(now)}
}

// Send issues a preview of targetPartyID to recipientPartyID. The target's
// first photo is frozen into the preview.
//
// The pending-count check and the insert are separate store calls, so
// concurrent sends to one recipient can overshoot the limit slightly.
func (ss *SneakPeekService) Send(ctx context.Context, issuingSponsorID, recipientPartyID, targetPartyID string) (models.SneakPeek, error) {
	if !utils.ValidIdentifier(issuingSponsorID) {
		return models.SneakPeek{}, apperrors.InvalidArg("issuing sponsor is required")
	}
	if err := validatePair(recipientPartyID, targetPartyID); err != nil {
		return models.SneakPeek{}, err
	}

	if _, err := ss.Store.SponsorOf(ctx, recipientPartyID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.SneakPeek{}, apperrors.NotFound("recipient party not found")
		}
		return models.SneakPeek{}, fmt.Errorf("failed to look up recipient: %w", err)
	}
	photos, err := ss.Store.PhotosOf(ctx, targetPartyID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.SneakPeek{}, apperrors.NotFound("target party not found")
	}
	if err != nil {
		return models.SneakPeek{}, fmt.Errorf("failed to look up target photos: %w", err)
	}
	if len(photos) == 0 {
		return models.SneakPeek{}, apperrors.Precondition("target party has no displayable photo")
	}

	now := ss.Now()
	open, err := ss.Store.CountOpenSneakPeeks(ctx, recipientPartyID, now)
	if err != nil {
		return models.SneakPeek{}, fmt.Errorf("failed to count pending sneak peeks: %w", err)
	}
	if open >= ss.Policy.SneakPeekPendingLimit {
		return models.SneakPeek{}, apperrors.RateLimited(fmt.Sprintf("recipient already has %d pending sneak peeks", open))
	}

	id := uuid.NewString()
	snapshot, err := ss.Snapshotter.Snapshot(ctx, id, photos[0])
	if err != nil {
		log.Printf("⚠️ Warning: photo snapshot failed for sneak peek %s, keeping original reference: %v", id, err)
		snapshot = photos[0]
	}

	peek := models.SneakPeek{
		SneakPeekID:      id,
		RecipientPartyID: recipientPartyID,
		IssuingSponsorID: issuingSponsorID,
		TargetPartyID:    targetPartyID,
		SnapshotPhoto:    snapshot,
		Status:           models.SneakPeekPending,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ss.Policy.SneakPeekTTL),
	}
	if err := ss.Store.PutSneakPeek(ctx, peek); err != nil {
		return models.SneakPeek{}, fmt.Errorf("failed to store sneak peek: %w", err)
	}
	log.Printf("👀 Sneak peek %s sent by %s to %s about %s", id, issuingSponsorID, recipientPartyID, targetPartyID)
	return peek, nil
}

// Respond records the recipient's answer. Only the recipient may respond,
// only once, and only while the preview is pending and unexpired.
func (ss *SneakPeekService) Respond(ctx context.Context, sneakPeekID, respondingPartyID string, status models.SneakPeekStatus) (models.SneakPeek, error) {
	switch {
	case status == models.SneakPeekPending || status == models.SneakPeekExpired:
		return models.SneakPeek{}, apperrors.ForbiddenTransition("status " + string(status) + " is set by the system only")
	case !status.ClientSettable():
		return models.SneakPeek{}, apperrors.InvalidArg("unknown sneak peek status " + string(status))
	}

	peek, err := ss.Store.GetSneakPeek(ctx, sneakPeekID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.SneakPeek{}, apperrors.NotFound("sneak peek not found")
	}
	if err != nil {
		return models.SneakPeek{}, fmt.Errorf("failed to fetch sneak peek: %w", err)
	}
	if peek.RecipientPartyID != respondingPartyID {
		return models.SneakPeek{}, apperrors.Authorization("only the recipient may respond to a sneak peek")
	}
	now := ss.Now()
	if !peek.OpenAt(now) {
		return models.SneakPeek{}, apperrors.InvalidState("sneak peek is no longer pending")
	}

	updated, err := ss.Store.RespondSneakPeek(ctx, sneakPeekID, status, now)
	if errors.Is(err, storage.ErrConflict) {
		return models.SneakPeek{}, apperrors.InvalidState("sneak peek is no longer pending")
	}
	if err != nil {
		return models.SneakPeek{}, fmt.Errorf("failed to respond to sneak peek: %w", err)
	}
	log.Printf("✅ Sneak peek %s answered %s", sneakPeekID, status)
	return updated, nil
}

// ListForRecipient returns the recipient's pending previews, oldest first.
func (ss *SneakPeekService) ListForRecipient(ctx context.Context, recipientPartyID string) ([]models.SneakPeek, error) {
	peeks, err := ss.Store.ListOpenSneakPeeksForRecipient(ctx, recipientPartyID, ss.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list sneak peeks: %w", err)
	}
	if peeks == nil {
		peeks = []models.SneakPeek{}
	}
	return peeks, nil
}

// ListForSponsor returns the sponsor's pending previews and those answered
// within the display window, newest first.
func (ss *SneakPeekService) ListForSponsor(ctx context.Context, sponsorID string) ([]models.SneakPeek, error) {
	now := ss.Now()
	peeks, err := ss.Store.ListSneakPeeksForSponsor(ctx, sponsorID, now, now.Add(-ss.Policy.SneakPeekDisplayWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list sneak peeks: %w", err)
	}
	if peeks == nil {
		peeks = []models.SneakPeek{}
	}
	return peeks, nil
}

// ExpireOverdue moves every overdue pending preview to EXPIRED.
func (ss *SneakPeekService) ExpireOverdue(ctx context.Context) (int, error) {
	expired, err := ss.Store.ExpireSneakPeeks(ctx, ss.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire sneak peeks: %w", err)
	}
	if expired > 0 {
		log.Printf("⌛ Expired %d sneak peeks", expired)
	}
	return expired, nil
}

// PhotoURL returns a displayable URL for the preview's frozen photo. Only
// the recipient and the issuing sponsor may see it.
func (ss *SneakPeekService) PhotoURL(ctx context.Context, callerID, sneakPeekID string) (string, error) {
	peek, err := ss.Store.GetSneakPeek(ctx, sneakPeekID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", apperrors.NotFound("sneak peek not found")
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch sneak peek: %w", err)
	}
	if callerID != peek.RecipientPartyID && callerID != peek.IssuingSponsorID {
		return "", apperrors.Authorization("caller may not view this sneak peek")
	}
	url, err := ss.Snapshotter.URL(ctx, peek.SnapshotPhoto)
	if err != nil {
		return "", fmt.Errorf("failed to build photo url: %w", err)
	}
	return url, nil
}

// RunSweeper expires overdue previews every interval until ctx is done.
// A failed sweep is logged and retried on the next tick.
func (ss *SneakPeekService) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("🧹 Sneak peek sweeper running every %s", interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := ss.ExpireOverdue(ctx); err != nil && ctx.Err() == nil {
				log.Printf("❌ Sneak peek sweep failed: %v", err)
			}
		}
	}
}
