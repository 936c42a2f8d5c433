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

// MatchService runs the two-sponsor approval state machine.
type MatchService struct {
	Store         storage.Store
	Notifications *NotificationService
	Now           func() time.Time
}

func NewMatchService(store storage.Store, notifications *NotificationService, now func() time.Time) *MatchService {
	return &MatchService{Store: store, Notifications: notifications, Now: nowOrDefault(now)}
}

func validatePair(partyA, partyB string) error {
	if !utils.ValidIdentifier(partyA) || !utils.ValidIdentifier(partyB) {
		return apperrors.InvalidArg("both party ids are required and may not contain '" + utils.KeySeparator + "'")
	}
	if partyA == partyB {
		return apperrors.InvalidArg("a party cannot be matched with itself")
	}
	return nil
}

// RecordApproval records approvingSponsorID's consent to introduce partyA and
// partyB. requestingSponsorID is the authenticated caller and must equal the
// approving sponsor. Re-approving is a no-op.
func (ms *MatchService) RecordApproval(ctx context.Context, partyA, partyB, approvingSponsorID, requestingSponsorID string) (models.Match, error) {
	if err := validatePair(partyA, partyB); err != nil {
		return models.Match{}, err
	}
	if approvingSponsorID == "" {
		return models.Match{}, apperrors.InvalidState("approving sponsor is missing")
	}
	if requestingSponsorID != approvingSponsorID {
		return models.Match{}, apperrors.Authorization("sponsors may only approve on their own behalf")
	}

	lo, hi := utils.Canonicalize(partyA, partyB)
	log.Printf("🤝 Recording approval by %s for pair %s", approvingSponsorID, utils.PairKey(lo, hi))

	match, err := ms.Store.GetMatch(ctx, lo, hi)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		created, createErr := ms.createMatch(ctx, lo, hi, approvingSponsorID)
		if createErr == nil {
			ms.emitIfLive(ctx, created)
			return created, nil
		}
		if !errors.Is(createErr, storage.ErrConflict) {
			return models.Match{}, createErr
		}
		// Lost the insert race; approve against the row that won.
		match, err = ms.Store.GetMatch(ctx, lo, hi)
		if err != nil {
			return models.Match{}, apperrors.StoreConflict("match insert conflicted but no row is readable", err)
		}
	case err != nil:
		return models.Match{}, fmt.Errorf("failed to fetch match: %w", err)
	}

	result, err := ms.approveExisting(ctx, match, approvingSponsorID)
	if err != nil {
		return models.Match{}, err
	}
	ms.emitIfLive(ctx, result)
	return result, nil
}

func (ms *MatchService) createMatch(ctx context.Context, lo, hi, approvingSponsorID string) (models.Match, error) {
	sponsorA, err := ms.sponsorOf(ctx, lo)
	if err != nil {
		return models.Match{}, err
	}
	sponsorB, err := ms.sponsorOf(ctx, hi)
	if err != nil {
		return models.Match{}, err
	}

	now := ms.Now()
	match := models.Match{
		PairKey:    utils.PairKey(lo, hi),
		MatchID:    uuid.NewString(),
		PartyAID:   lo,
		PartyBID:   hi,
		SponsorAID: sponsorA,
		SponsorBID: sponsorB,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	sides := match.SidesOf(approvingSponsorID)
	if len(sides) == 0 {
		return models.Match{}, apperrors.Authorization("sponsor does not represent either party")
	}
	for _, side := range sides {
		if side == models.SideA {
			match.SponsorAApproved = true
		} else {
			match.SponsorBApproved = true
		}
	}
	if match.FullyApproved() {
		match.ApprovedAt = &now
	}

	if err := ms.Store.PutMatch(ctx, match); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.Match{}, err
		}
		return models.Match{}, fmt.Errorf("failed to create match: %w", err)
	}
	log.Printf("✅ Match %s created for %s", match.MatchID, match.PairKey)
	return match, nil
}

func (ms *MatchService) approveExisting(ctx context.Context, match models.Match, approvingSponsorID string) (models.Match, error) {
	sides := match.SidesOf(approvingSponsorID)
	if len(sides) == 0 {
		return models.Match{}, apperrors.Authorization("sponsor does not represent either party of this match")
	}

	result := match
	for _, side := range sides {
		// A fully approved row missing its stamp goes back to the store to be repaired.
		unstamped := result.FullyApproved() && result.ApprovedAt == nil
		if result.Approved(side) && !unstamped {
			continue
		}
		updated, transitioned, err := ms.Store.ApproveMatchSide(ctx, match.PartyAID, match.PartyBID, side, ms.Now())
		if err != nil {
			return models.Match{}, fmt.Errorf("failed to approve match: %w", err)
		}
		if transitioned {
			log.Printf("🎉 Match %s is now fully approved", updated.MatchID)
		}
		result = updated
	}
	return result, nil
}

func (ms *MatchService) sponsorOf(ctx context.Context, partyID string) (string, error) {
	sponsorID, err := ms.Store.SponsorOf(ctx, partyID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", apperrors.NotFound("party " + partyID + " not found")
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up sponsor: %w", err)
	}
	if sponsorID == "" {
		return "", apperrors.InvalidState("party " + partyID + " has no sponsor")
	}
	return sponsorID, nil
}

// emitIfLive issues the introduction notifications for a fully approved
// match. Correlation on the match id makes repeated calls harmless.
func (ms *MatchService) emitIfLive(ctx context.Context, match models.Match) {
	if !match.Live() {
		return
	}
	payload := func() map[string]string {
		return map[string]string{
			"matchId":  match.MatchID,
			"partyAId": match.PartyAID,
			"partyBId": match.PartyBID,
		}
	}
	for _, sponsorID := range uniqueNonEmpty(match.SponsorAID, match.SponsorBID) {
		ms.Notifications.Emit(ctx, NotificationRequest{
			RecipientID:    sponsorID,
			Type:           models.NotificationIntroductionLive,
			CorrelationKey: match.MatchID,
			Payload:        payload,
		})
	}
	for _, partyID := range []string{match.PartyAID, match.PartyBID} {
		counterpart := match.Counterpart(partyID)
		ms.Notifications.Emit(ctx, NotificationRequest{
			RecipientID:    partyID,
			Type:           models.NotificationSingleNotSeenIntro,
			CorrelationKey: match.MatchID,
			Payload: func() map[string]string {
				return map[string]string{"matchId": match.MatchID, "counterpartId": counterpart}
			},
		})
	}
}

// CanCommunicate reports whether both sponsors have approved the pair.
func (ms *MatchService) CanCommunicate(ctx context.Context, partyA, partyB string) (bool, error) {
	if err := validatePair(partyA, partyB); err != nil {
		return false, err
	}
	lo, hi := utils.Canonicalize(partyA, partyB)
	match, err := ms.Store.GetMatch(ctx, lo, hi)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch match: %w", err)
	}
	return match.Live(), nil
}

// ListMatchesForParty returns the party's matches newest first. A party may
// list its own matches; a sponsor may list the matches of a party it sponsors.
func (ms *MatchService) ListMatchesForParty(ctx context.Context, caller models.Caller, partyID string) ([]models.Match, error) {
	if !utils.ValidIdentifier(partyID) {
		return nil, apperrors.InvalidArg("partyId is required")
	}
	if err := ms.authorizeForParty(ctx, caller, partyID); err != nil {
		return nil, err
	}
	matches, err := ms.Store.ListMatchesForParty(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return matches, nil
}

func (ms *MatchService) authorizeForParty(ctx context.Context, caller models.Caller, partyID string) error {
	if caller.Role == models.RoleSingle {
		if caller.ID != partyID {
			return apperrors.Authorization("parties may only list their own matches")
		}
		return nil
	}
	sponsorID, err := ms.Store.SponsorOf(ctx, partyID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound("party " + partyID + " not found")
	}
	if err != nil {
		return fmt.Errorf("failed to look up sponsor: %w", err)
	}
	if sponsorID != caller.ID {
		return apperrors.Authorization("sponsor does not sponsor this party")
	}
	return nil
}

// MarkIntroductionSeen dismisses the party's "introduction not seen" reminder for a match.
func (ms *MatchService) MarkIntroductionSeen(ctx context.Context, partyID, matchID string) (models.Match, error) {
	matches, err := ms.Store.ListMatchesForParty(ctx, partyID)
	if err != nil {
		return models.Match{}, fmt.Errorf("failed to list matches: %w", err)
	}
	for _, match := range matches {
		if match.MatchID != matchID {
			continue
		}
		if !match.Live() {
			return models.Match{}, apperrors.InvalidState("introduction is not live yet")
		}
		if _, err := ms.Store.DismissCorrelatedNotification(ctx, partyID, models.NotificationSingleNotSeenIntro, matchID, ms.Now()); err != nil {
			return models.Match{}, fmt.Errorf("failed to dismiss introduction reminder: %w", err)
		}
		log.Printf("👀 Party %s has seen introduction %s", partyID, matchID)
		return match, nil
	}
	return models.Match{}, apperrors.NotFound("match not found")
}

func uniqueNonEmpty(values ...string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
