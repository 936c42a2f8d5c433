package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
)

func sneakPeekKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"sneakPeekId": str(id)}
}

func (s *Store) PutSneakPeek(ctx context.Context, peek models.SneakPeek) error {
	return s.putNew(ctx, models.SneakPeeksTable, "sneakPeekId", peek)
}

func (s *Store) GetSneakPeek(ctx context.Context, sneakPeekID string) (models.SneakPeek, error) {
	var p models.SneakPeek
	if err := s.getItem(ctx, models.SneakPeeksTable, sneakPeekKey(sneakPeekID), &p); err != nil {
		return models.SneakPeek{}, err
	}
	return p, nil
}

func (s *Store) openForRecipient(ctx context.Context, recipientPartyID string, now time.Time) ([]models.SneakPeek, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(models.SneakPeeksTable),
		IndexName:                aws.String(models.SneakPeeksRecipientIndex),
		KeyConditionExpression:   aws.String("recipientPartyId = :r"),
		FilterExpression:         aws.String("#status = :pending AND expiresAt > :now"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r":       str(recipientPartyID),
			":pending": str(string(models.SneakPeekPending)),
			":now":     unixAttr(now),
		},
		ScanIndexForward: aws.Bool(true),
	}, 0)
	if err != nil {
		return nil, err
	}
	return unmarshalList[models.SneakPeek](items)
}

func (s *Store) CountOpenSneakPeeks(ctx context.Context, recipientPartyID string, now time.Time) (int, error) {
	open, err := s.openForRecipient(ctx, recipientPartyID, now)
	if err != nil {
		return 0, err
	}
	return len(open), nil
}

func (s *Store) ListOpenSneakPeeksForRecipient(ctx context.Context, recipientPartyID string, now time.Time) ([]models.SneakPeek, error) {
	return s.openForRecipient(ctx, recipientPartyID, now)
}

// RespondSneakPeek is a compare-and-swap from PENDING.
func (s *Store) RespondSneakPeek(ctx context.Context, sneakPeekID string, status models.SneakPeekStatus, at time.Time) (models.SneakPeek, error) {
	output, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(models.SneakPeeksTable),
		Key:                      sneakPeekKey(sneakPeekID),
		UpdateExpression:         aws.String("SET #status = :status, respondedAt = :at"),
		ConditionExpression:      aws.String("attribute_exists(sneakPeekId) AND #status = :pending AND expiresAt > :at"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":  str(string(status)),
			":pending": str(string(models.SneakPeekPending)),
			":at":      unixAttr(at),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if isConditionalCheckFailed(err) {
		current, getErr := s.GetSneakPeek(ctx, sneakPeekID)
		if getErr != nil {
			return models.SneakPeek{}, getErr
		}
		return current, storage.ErrConflict
	}
	if err != nil {
		return models.SneakPeek{}, fmt.Errorf("failed to respond to sneak peek: %w", err)
	}
	var p models.SneakPeek
	if err := attributevalue.UnmarshalMap(output.Attributes, &p); err != nil {
		return models.SneakPeek{}, fmt.Errorf("failed to unmarshal sneak peek: %w", err)
	}
	return p, nil
}

func (s *Store) ListSneakPeeksForSponsor(ctx context.Context, sponsorID string, now time.Time, respondedSince time.Time) ([]models.SneakPeek, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(models.SneakPeeksTable),
		IndexName:                aws.String(models.SneakPeeksSponsorIndex),
		KeyConditionExpression:   aws.String("issuingSponsorId = :s"),
		FilterExpression:         aws.String("(#status = :pending AND expiresAt > :now) OR respondedAt >= :since"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s":       str(sponsorID),
			":pending": str(string(models.SneakPeekPending)),
			":now":     unixAttr(now),
			":since":   unixAttr(respondedSince),
		},
		ScanIndexForward: aws.Bool(false),
	}, 0)
	if err != nil {
		return nil, err
	}
	return unmarshalList[models.SneakPeek](items)
}

// ExpireSneakPeeks walks the status index and expires each overdue row with
// its own conditional update, so a concurrent response always wins cleanly.
func (s *Store) ExpireSneakPeeks(ctx context.Context, now time.Time) (int, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(models.SneakPeeksTable),
		IndexName:                aws.String(models.SneakPeeksStatusIndex),
		KeyConditionExpression:   aws.String("#status = :pending AND expiresAt <= :now"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": str(string(models.SneakPeekPending)),
			":now":     unixAttr(now),
		},
	}, 0)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, item := range items {
		_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                aws.String(models.SneakPeeksTable),
			Key:                      map[string]types.AttributeValue{"sneakPeekId": item["sneakPeekId"]},
			UpdateExpression:         aws.String("SET #status = :expired"),
			ConditionExpression:      aws.String("#status = :pending"),
			ExpressionAttributeNames: map[string]string{"#status": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":expired": str(string(models.SneakPeekExpired)),
				":pending": str(string(models.SneakPeekPending)),
			},
		})
		if isConditionalCheckFailed(err) {
			continue
		}
		if err != nil {
			return expired, fmt.Errorf("failed to expire sneak peek: %w", err)
		}
		expired++
	}
	return expired, nil
}
