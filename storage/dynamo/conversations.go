package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
)

func (s *Store) GetConversationByKey(ctx context.Context, conversationKey string) (models.Conversation, error) {
	var c models.Conversation
	key := map[string]types.AttributeValue{"conversationKey": str(conversationKey)}
	if err := s.getItem(ctx, models.ConversationsTable, key, &c); err != nil {
		return models.Conversation{}, err
	}
	return c, nil
}

func (s *Store) firstConversation(ctx context.Context, input *dynamodb.QueryInput) (models.Conversation, error) {
	items, err := s.queryAll(ctx, input, 1)
	if err != nil {
		return models.Conversation{}, err
	}
	if len(items) == 0 {
		return models.Conversation{}, storage.ErrNotFound
	}
	found, err := unmarshalList[models.Conversation](items)
	if err != nil {
		return models.Conversation{}, err
	}
	return found[0], nil
}

func (s *Store) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	return s.firstConversation(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(models.ConversationsTable),
		IndexName:                 aws.String(models.ConversationsIDIndex),
		KeyConditionExpression:    aws.String("conversationId = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":id": str(conversationID)},
	})
}

// LatestConversationForPair reads the pair index newest first.
func (s *Store) LatestConversationForPair(ctx context.Context, pairKey string) (models.Conversation, error) {
	return s.firstConversation(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(models.ConversationsTable),
		IndexName:                 aws.String(models.ConversationsPairIndex),
		KeyConditionExpression:    aws.String("pairKey = :pair"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":pair": str(pairKey)},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(1),
	})
}

func (s *Store) PutConversation(ctx context.Context, conversation models.Conversation) error {
	return s.putNew(ctx, models.ConversationsTable, "conversationKey", conversation)
}
