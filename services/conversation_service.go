package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/leetryscode/matchmakr-vg0-sub001/apperrors"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
	"github.com/leetryscode/matchmakr-vg0-sub001/utils"
)

// ConversationContext names the two parties a conversation is about.
type ConversationContext struct {
	SubjectID string `json:"subjectId"`
	TargetID  string `json:"targetId"`
}

// Empty reports whether no context was supplied.
func (c ConversationContext) Empty() bool {
	return c.SubjectID == "" && c.TargetID == ""
}

// ContextSignals is everything known when resolving the context of a
// sponsor-to-sponsor conversation.
type ContextSignals struct {
	Explicit ConversationContext
	// Matches between a party of the first sponsor and a party of the second.
	Matches           []models.Match
	SponsoredByFirst  []string
	SponsoredBySecond []string
}

func (s ContextSignals) sponsoredByFirst(partyID string) bool {
	return slices.Contains(s.SponsoredByFirst, partyID)
}

func (s ContextSignals) sponsoredBySecond(partyID string) bool {
	return slices.Contains(s.SponsoredBySecond, partyID)
}

// orient puts the first sponsor's party in SubjectID.
func (s ContextSignals) orient(a, b string) (ConversationContext, bool) {
	switch {
	case s.sponsoredByFirst(a) && s.sponsoredBySecond(b):
		return ConversationContext{SubjectID: a, TargetID: b}, true
	case s.sponsoredByFirst(b) && s.sponsoredBySecond(a):
		return ConversationContext{SubjectID: b, TargetID: a}, true
	}
	return ConversationContext{}, false
}

// ContextStrategy derives a context from the signals, or reports false.
// A resolved context always has the first sponsor's party as its subject.
type ContextStrategy func(ContextSignals) (ConversationContext, bool)

// ExplicitContext uses a context supplied by the caller when each sponsor
// represents one of its two parties.
func ExplicitContext(s ContextSignals) (ConversationContext, bool) {
	if s.Explicit.SubjectID == "" || s.Explicit.TargetID == "" {
		return ConversationContext{}, false
	}
	return s.orient(s.Explicit.SubjectID, s.Explicit.TargetID)
}

// ContextFromMatch uses the one match linking the two sponsors' parties.
func ContextFromMatch(s ContextSignals) (ConversationContext, bool) {
	if len(s.Matches) != 1 {
		return ConversationContext{}, false
	}
	m := s.Matches[0]
	return s.orient(m.PartyAID, m.PartyBID)
}

// ContextFromSoleParties applies when each sponsor sponsors exactly one party.
func ContextFromSoleParties(s ContextSignals) (ConversationContext, bool) {
	if len(s.SponsoredByFirst) != 1 || len(s.SponsoredBySecond) != 1 {
		return ConversationContext{}, false
	}
	if s.SponsoredByFirst[0] == s.SponsoredBySecond[0] {
		return ConversationContext{}, false
	}
	return ConversationContext{SubjectID: s.SponsoredByFirst[0], TargetID: s.SponsoredBySecond[0]}, true
}

// DefaultContextStrategies are tried in order; the first to resolve wins.
var DefaultContextStrategies = []ContextStrategy{
	ExplicitContext,
	ContextFromMatch,
	ContextFromSoleParties,
}

// ResolveContext runs strategies in order.
func ResolveContext(signals ContextSignals, strategies []ContextStrategy) (ConversationContext, error) {
	for _, strategy := range strategies {
		if resolved, ok := strategy(signals); ok {
			return resolved, nil
		}
	}
	return ConversationContext{}, apperrors.ContextResolution("conversation context could not be determined")
}

// ConversationService guarantees one Conversation per canonical identity.
type ConversationService struct {
	Store      storage.Store
	Strategies []ContextStrategy
	Now        func() time.Time
}

func NewConversationService(store storage.Store, now func() time.Time) *ConversationService {
	return &ConversationService{Store: store, Strategies: DefaultContextStrategies, Now: nowOrDefault(now)}
}

// GetOrCreate returns the conversation for the unordered participant pair,
// creating it on first use. contextSubject is the party partyX represents and
// contextTarget the one partyY represents; both travel with their participant
// into canonical order, so swapping every argument pair names the same
// conversation. Concurrent callers always observe the same conversation id.
func (cs *ConversationService) GetOrCreate(ctx context.Context, partyX, partyY, contextSubject, contextTarget, initiatorSponsorID, counterpartSponsorID string) (models.Conversation, error) {
	if err := validatePair(partyX, partyY); err != nil {
		return models.Conversation{}, err
	}
	if contextSubject == "" || contextTarget == "" {
		return models.Conversation{}, apperrors.ContextResolution("conversation context is required")
	}
	if !utils.ValidIdentifier(contextSubject) || !utils.ValidIdentifier(contextTarget) {
		return models.Conversation{}, apperrors.InvalidArg("context ids may not contain '" + utils.KeySeparator + "'")
	}

	lo, hi := utils.Canonicalize(partyX, partyY)
	if lo != partyX {
		initiatorSponsorID, counterpartSponsorID = counterpartSponsorID, initiatorSponsorID
		contextSubject, contextTarget = contextTarget, contextSubject
	}
	key := utils.JoinKey(lo, hi, contextSubject, contextTarget)

	existing, err := cs.Store.GetConversationByKey(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Conversation{}, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	conversation := models.Conversation{
		ConversationKey:      key,
		ConversationID:       uuid.NewString(),
		PairKey:              utils.JoinKey(lo, hi),
		InitiatorID:          lo,
		CounterpartID:        hi,
		ContextSubjectID:     contextSubject,
		ContextTargetID:      contextTarget,
		InitiatorSponsorID:   initiatorSponsorID,
		CounterpartSponsorID: counterpartSponsorID,
		Status:               models.ConversationStatusActive,
		CreatedAt:            cs.Now(),
	}
	err = cs.Store.PutConversation(ctx, conversation)
	if err == nil {
		log.Printf("💬 Conversation %s created for %s", conversation.ConversationID, key)
		return conversation, nil
	}
	if !errors.Is(err, storage.ErrConflict) {
		return models.Conversation{}, fmt.Errorf("failed to create conversation: %w", err)
	}

	winner, err := cs.Store.GetConversationByKey(ctx, key)
	if err != nil {
		return models.Conversation{}, apperrors.StoreConflict("conversation insert conflicted but no row is readable", err)
	}
	return winner, nil
}

// ResolveForSponsors finds or creates the conversation between two sponsors,
// deriving its context from the configured strategies. An explicit context
// naming parties the two sponsors do not represent fails rather than falling
// through to a derived one.
func (cs *ConversationService) ResolveForSponsors(ctx context.Context, firstSponsorID, secondSponsorID string, explicit ConversationContext) (models.Conversation, error) {
	if err := validatePair(firstSponsorID, secondSponsorID); err != nil {
		return models.Conversation{}, err
	}
	signals, err := cs.gatherSignals(ctx, firstSponsorID, secondSponsorID, explicit)
	if err != nil {
		return models.Conversation{}, err
	}
	if !explicit.Empty() {
		if _, ok := ExplicitContext(signals); !ok {
			return models.Conversation{}, apperrors.ContextResolution("context parties are not represented by these sponsors")
		}
	}
	resolved, err := ResolveContext(signals, cs.Strategies)
	if err != nil {
		return models.Conversation{}, err
	}
	return cs.GetOrCreate(ctx, firstSponsorID, secondSponsorID, resolved.SubjectID, resolved.TargetID, firstSponsorID, secondSponsorID)
}

func (cs *ConversationService) gatherSignals(ctx context.Context, firstSponsorID, secondSponsorID string, explicit ConversationContext) (ContextSignals, error) {
	signals := ContextSignals{Explicit: explicit}
	first, err := cs.Store.PartiesSponsoredBy(ctx, firstSponsorID)
	if err != nil {
		return ContextSignals{}, fmt.Errorf("failed to list sponsored parties: %w", err)
	}
	second, err := cs.Store.PartiesSponsoredBy(ctx, secondSponsorID)
	if err != nil {
		return ContextSignals{}, fmt.Errorf("failed to list sponsored parties: %w", err)
	}
	signals.SponsoredByFirst = first
	signals.SponsoredBySecond = second
	if _, ok := ExplicitContext(signals); ok {
		return signals, nil
	}

	secondSet := make(map[string]bool, len(second))
	for _, id := range second {
		secondSet[id] = true
	}
	for _, partyID := range first {
		matches, err := cs.Store.ListMatchesForParty(ctx, partyID)
		if err != nil {
			return ContextSignals{}, fmt.Errorf("failed to list matches: %w", err)
		}
		for _, m := range matches {
			if secondSet[m.Counterpart(partyID)] {
				signals.Matches = append(signals.Matches, m)
			}
		}
	}
	return signals, nil
}

// LatestBetween is the legacy fallback for messages that carry no context:
// it returns the most recently created conversation for the pair and never
// creates one. Unlike GetOrCreate it only promises "most recent wins".
func (cs *ConversationService) LatestBetween(ctx context.Context, partyX, partyY string) (models.Conversation, error) {
	if err := validatePair(partyX, partyY); err != nil {
		return models.Conversation{}, err
	}
	conversation, err := cs.Store.LatestConversationForPair(ctx, utils.PairKey(partyX, partyY))
	if errors.Is(err, storage.ErrNotFound) {
		return models.Conversation{}, apperrors.NotFound("no conversation exists for this pair")
	}
	if err != nil {
		return models.Conversation{}, fmt.Errorf("failed to fetch latest conversation: %w", err)
	}
	return conversation, nil
}

// Get returns a conversation the caller participates in.
func (cs *ConversationService) Get(ctx context.Context, callerID, conversationID string) (models.Conversation, error) {
	conversation, err := cs.Store.GetConversation(ctx, conversationID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Conversation{}, apperrors.NotFound("conversation not found")
	}
	if err != nil {
		return models.Conversation{}, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	if !conversation.HasParticipant(callerID) {
		return models.Conversation{}, apperrors.Authorization("caller is not a participant of this conversation")
	}
	return conversation, nil
}
