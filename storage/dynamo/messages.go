package dynamo

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/utils"
)

func (s *Store) PutMessage(ctx context.Context, message models.Message) error {
	if message.MessageKey == "" {
		message.MessageKey = utils.TimeOrderedKey(message.CreatedAt, message.MessageID)
	}
	item, err := attributevalue.MarshalMap(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	log.Printf("📩 Storing message %s", message.MessageID)
	if _, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(models.MessagesTable),
		Item:      item,
	}); err != nil {
		log.Printf("❌ Failed to store message: %v", err)
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// ListMessages reads the newest messages and returns them oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(models.MessagesTable),
		KeyConditionExpression:    aws.String("conversationId = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":c": str(conversationID)},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	}, limit)
	if err != nil {
		return nil, err
	}
	messages, err := unmarshalList[models.Message](items)
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

// MarkMessagesRead updates each unread message addressed to readerID.
func (s *Store) MarkMessagesRead(ctx context.Context, conversationID string, readerID string) (int, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(models.MessagesTable),
		KeyConditionExpression: aws.String("conversationId = :c"),
		FilterExpression:       aws.String("recipientId = :r AND isRead = :false"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c":     str(conversationID),
			":r":     str(readerID),
			":false": boolean(false),
		},
	}, 0)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, item := range items {
		_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(models.MessagesTable),
			Key: map[string]types.AttributeValue{
				"conversationId": item["conversationId"],
				"messageKey":     item["messageKey"],
			},
			UpdateExpression:          aws.String("SET isRead = :true"),
			ExpressionAttributeValues: map[string]types.AttributeValue{":true": boolean(true)},
		})
		if err != nil {
			log.Printf("❌ Failed to update message %s: %v", utils.ExtractString(item, "messageId"), err)
			return updated, fmt.Errorf("failed to mark message read: %w", err)
		}
		updated++
	}
	return updated, nil
}
