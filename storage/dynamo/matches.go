package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
	"github.com/leetryscode/matchmakr-vg0-sub001/utils"
)

var errNotCanonical = errors.New("match parties must be stored in canonical order")

func matchKey(partyLo, partyHi string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"pairKey": str(utils.JoinKey(partyLo, partyHi))}
}

func (s *Store) GetMatch(ctx context.Context, partyLo, partyHi string) (models.Match, error) {
	var m models.Match
	if err := s.getItem(ctx, models.MatchesTable, matchKey(partyLo, partyHi), &m); err != nil {
		return models.Match{}, err
	}
	return m, nil
}

func (s *Store) PutMatch(ctx context.Context, match models.Match) error {
	if match.PartyAID >= match.PartyBID {
		return errNotCanonical
	}
	match.PairKey = utils.JoinKey(match.PartyAID, match.PartyBID)
	return s.putNew(ctx, models.MatchesTable, "pairKey", match)
}

var (
	errOtherSidePending  = errors.New("other side has not approved")
	errOtherSideApproved = errors.New("other side has approved")
)

const approveAttempts = 3

func sideFlags(side models.MatchSide) (flag, other string) {
	if side == models.SideA {
		return "sponsorAApproved", "sponsorBApproved"
	}
	return "sponsorBApproved", "sponsorAApproved"
}

// ApproveMatchSide sets the side's flag in a single conditional update. When
// the other side has already approved, the same update stamps approvedAt if
// it is unset; otherwise the flag is set on the condition that the other side
// still has not approved. A row can therefore never hold both flags without
// approvedAt. Losing the race between the two shapes retries.
func (s *Store) ApproveMatchSide(ctx context.Context, partyLo, partyHi string, side models.MatchSide, at time.Time) (models.Match, bool, error) {
	log.Printf("🔄 Approving side %s of match %s#%s", side, partyLo, partyHi)
	for attempt := 0; attempt < approveAttempts; attempt++ {
		m, transitioned, err := s.approveCompleting(ctx, partyLo, partyHi, side, at)
		if !errors.Is(err, errOtherSidePending) {
			return m, transitioned, err
		}
		m, err = s.approveAlone(ctx, partyLo, partyHi, side, at)
		if !errors.Is(err, errOtherSideApproved) {
			return m, false, err
		}
	}
	log.Printf("❌ Approval of match %s#%s kept racing", partyLo, partyHi)
	return models.Match{}, false, storage.ErrConflict
}

// approveCompleting applies when the other side has approved: it sets the
// flag and stamps approvedAt (if absent) together.
func (s *Store) approveCompleting(ctx context.Context, partyLo, partyHi string, side models.MatchSide, at time.Time) (models.Match, bool, error) {
	flag, other := sideFlags(side)
	output, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(models.MatchesTable),
		Key:                      matchKey(partyLo, partyHi),
		UpdateExpression:         aws.String("SET #flag = :true, updatedAt = :now, approvedAt = if_not_exists(approvedAt, :now)"),
		ConditionExpression:      aws.String("attribute_exists(pairKey) AND #other = :true"),
		ExpressionAttributeNames: map[string]string{"#flag": flag, "#other": other},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": boolean(true),
			":now":  unixAttr(at),
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if isConditionalCheckFailed(err) {
		return models.Match{}, false, errOtherSidePending
	}
	if err != nil {
		return models.Match{}, false, fmt.Errorf("failed to approve match side: %w", err)
	}

	var m models.Match
	if err := attributevalue.UnmarshalMap(output.Attributes, &m); err != nil {
		return models.Match{}, false, fmt.Errorf("failed to unmarshal match: %w", err)
	}
	stored := time.Unix(at.Unix(), 0).UTC()
	if side == models.SideA {
		m.SponsorAApproved = true
	} else {
		m.SponsorBApproved = true
	}
	m.UpdatedAt = stored
	if m.ApprovedAt != nil {
		return m, false, nil
	}
	m.ApprovedAt = &stored
	return m, true, nil
}

// approveAlone sets only the flag, and only while the other side has not approved.
func (s *Store) approveAlone(ctx context.Context, partyLo, partyHi string, side models.MatchSide, at time.Time) (models.Match, error) {
	flag, other := sideFlags(side)
	output, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(models.MatchesTable),
		Key:                      matchKey(partyLo, partyHi),
		UpdateExpression:         aws.String("SET #flag = :true, updatedAt = :now"),
		ConditionExpression:      aws.String("attribute_exists(pairKey) AND (attribute_not_exists(#other) OR #other = :false)"),
		ExpressionAttributeNames: map[string]string{"#flag": flag, "#other": other},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  boolean(true),
			":false": boolean(false),
			":now":   unixAttr(at),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if isConditionalCheckFailed(err) {
		// Either the row is gone or the other side approved in between.
		if _, getErr := s.GetMatch(ctx, partyLo, partyHi); getErr != nil {
			return models.Match{}, getErr
		}
		return models.Match{}, errOtherSideApproved
	}
	if err != nil {
		return models.Match{}, fmt.Errorf("failed to approve match side: %w", err)
	}

	var m models.Match
	if err := attributevalue.UnmarshalMap(output.Attributes, &m); err != nil {
		return models.Match{}, fmt.Errorf("failed to unmarshal match: %w", err)
	}
	return m, nil
}

// ListMatchesForParty queries both party indexes, newest first.
func (s *Store) ListMatchesForParty(ctx context.Context, partyID string) ([]models.Match, error) {
	var matches []models.Match
	for _, idx := range []struct{ index, attr string }{
		{models.MatchesPartyAIndex, "partyAId"},
		{models.MatchesPartyBIndex, "partyBId"},
	} {
		items, err := s.queryAll(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(models.MatchesTable),
			IndexName:                 aws.String(idx.index),
			KeyConditionExpression:    aws.String("#party = :party"),
			ExpressionAttributeNames:  map[string]string{"#party": idx.attr},
			ExpressionAttributeValues: map[string]types.AttributeValue{":party": str(partyID)},
		}, 0)
		if err != nil {
			return nil, err
		}
		found, err := unmarshalList[models.Match](items)
		if err != nil {
			return nil, err
		}
		matches = append(matches, found...)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}
