package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/leetryscode/matchmakr-vg0-sub001/apperrors"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
)

// ActivityService turns login signals into nudges.
type ActivityService struct {
	Directory     storage.Directory
	Notifications *NotificationService
}

func NewActivityService(directory storage.Directory, notifications *NotificationService) *ActivityService {
	return &ActivityService{Directory: directory, Notifications: notifications}
}

// ActivityResult lists the decision taken per (recipient, type).
type ActivityResult map[string]EnsureOutcome

// SponsorLoggedIn nudges a sponsor with no parties to invite one and tells
// each sponsored party that their sponsor is active.
func (as *ActivityService) SponsorLoggedIn(ctx context.Context, sponsorID string) (ActivityResult, error) {
	parties, err := as.Directory.PartiesSponsoredBy(ctx, sponsorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sponsored parties: %w", err)
	}

	result := ActivityResult{}
	result[sponsorID+":"+string(models.NotificationNudgeInviteSingle)] = as.Notifications.Emit(ctx, NotificationRequest{
		RecipientID: sponsorID,
		Type:        models.NotificationNudgeInviteSingle,
		Condition: func(ctx context.Context) (bool, error) {
			current, err := as.Directory.PartiesSponsoredBy(ctx, sponsorID)
			return len(current) == 0, err
		},
	})

	for _, partyID := range parties {
		result[partyID+":"+string(models.NotificationSponsorLoggedIn)] = as.Notifications.Emit(ctx, NotificationRequest{
			RecipientID: partyID,
			Type:        models.NotificationSponsorLoggedIn,
			Payload: func() map[string]string {
				return map[string]string{"sponsorId": sponsorID}
			},
			Condition: func(ctx context.Context) (bool, error) {
				current, err := as.Directory.SponsorOf(ctx, partyID)
				return current == sponsorID, err
			},
		})
	}
	return result, nil
}

// SingleLoggedIn nudges a party with no sponsor to invite one, and clears the
// nudge once a sponsor exists.
func (as *ActivityService) SingleLoggedIn(ctx context.Context, partyID string) (ActivityResult, error) {
	if _, err := as.Directory.SponsorOf(ctx, partyID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("party not found")
		}
		return nil, fmt.Errorf("failed to look up sponsor: %w", err)
	}

	result := ActivityResult{}
	result[partyID+":"+string(models.NotificationNudgeInviteSponsor)] = as.Notifications.Emit(ctx, NotificationRequest{
		RecipientID: partyID,
		Type:        models.NotificationNudgeInviteSponsor,
		Condition: func(ctx context.Context) (bool, error) {
			current, err := as.Directory.SponsorOf(ctx, partyID)
			return current == "", err
		},
	})
	return result, nil
}
