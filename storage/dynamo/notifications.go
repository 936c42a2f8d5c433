package dynamo

import (
	"context"
	"errors"
	"fmt"
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

// Notification rows share the recipient partition with correlation guard
// items. Rows sort by time under rowPrefix; a guard's sort key is derived
// from (type, correlation key) so a conditional put makes it unique.
const (
	rowPrefix   = "n#"
	guardPrefix = "c#"
)

func guardKey(notificationType models.NotificationType, correlationKey string) string {
	return guardPrefix + utils.JoinKey(string(notificationType), correlationKey)
}

type correlationGuard struct {
	RecipientID     string `dynamodbav:"recipientId"`
	NotificationKey string `dynamodbav:"notificationKey"`
	RowKey          string `dynamodbav:"rowKey"`
}

func notificationKey(recipientID, key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"recipientId": str(recipientID), "notificationKey": str(key)}
}

func (s *Store) GetNotificationByCorrelation(ctx context.Context, recipientID string, notificationType models.NotificationType, correlationKey string) (models.Notification, error) {
	var guard correlationGuard
	if err := s.getItem(ctx, models.NotificationsTable, notificationKey(recipientID, guardKey(notificationType, correlationKey)), &guard); err != nil {
		return models.Notification{}, err
	}
	var n models.Notification
	if err := s.getItem(ctx, models.NotificationsTable, notificationKey(recipientID, guard.RowKey), &n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// PutNotification writes the row, and for correlated rows its guard in the
// same transaction.
func (s *Store) PutNotification(ctx context.Context, n models.Notification) error {
	n.NotificationKey = rowPrefix + utils.TimeOrderedKey(n.CreatedAt, n.NotificationID)
	row, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if n.CorrelationKey == "" {
		_, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(models.NotificationsTable),
			Item:      row,
		})
		if err != nil {
			return fmt.Errorf("failed to store notification: %w", err)
		}
		return nil
	}

	guard, err := attributevalue.MarshalMap(correlationGuard{
		RecipientID:     n.RecipientID,
		NotificationKey: guardKey(n.Type, n.CorrelationKey),
		RowKey:          n.NotificationKey,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal correlation guard: %w", err)
	}
	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(models.NotificationsTable),
				Item:                guard,
				ConditionExpression: aws.String("attribute_not_exists(notificationKey)"),
			}},
			{Put: &types.Put{
				TableName: aws.String(models.NotificationsTable),
				Item:      row,
			}},
		},
	})
	if isTransactionConditionFailed(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func (s *Store) queryRows(ctx context.Context, recipientID string, filter string, values map[string]types.AttributeValue, names map[string]string, max int) ([]models.Notification, error) {
	exprValues := map[string]types.AttributeValue{
		":r":      str(recipientID),
		":prefix": str(rowPrefix),
	}
	for k, v := range values {
		exprValues[k] = v
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(models.NotificationsTable),
		KeyConditionExpression:    aws.String("recipientId = :r AND begins_with(notificationKey, :prefix)"),
		ExpressionAttributeValues: exprValues,
		ScanIndexForward:          aws.Bool(false),
	}
	if filter != "" {
		input.FilterExpression = aws.String(filter)
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	items, err := s.queryAll(ctx, input, max)
	if err != nil {
		return nil, err
	}
	return unmarshalList[models.Notification](items)
}

func (s *Store) LatestNotificationOfType(ctx context.Context, recipientID string, notificationType models.NotificationType) (models.Notification, error) {
	rows, err := s.queryRows(ctx, recipientID, "#type = :type",
		map[string]types.AttributeValue{":type": str(string(notificationType))},
		map[string]string{"#type": "type"}, 1)
	if err != nil {
		return models.Notification{}, err
	}
	if len(rows) == 0 {
		return models.Notification{}, storage.ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) dismissRows(ctx context.Context, rows []models.Notification, at time.Time) (int, error) {
	dismissed := 0
	for _, n := range rows {
		_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(models.NotificationsTable),
			Key:                       notificationKey(n.RecipientID, n.NotificationKey),
			UpdateExpression:          aws.String("SET dismissedAt = :at"),
			ConditionExpression:       aws.String("attribute_not_exists(dismissedAt)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{":at": unixAttr(at)},
		})
		if isConditionalCheckFailed(err) {
			continue
		}
		if err != nil {
			return dismissed, fmt.Errorf("failed to dismiss notification: %w", err)
		}
		dismissed++
	}
	return dismissed, nil
}

func (s *Store) DismissActiveNotifications(ctx context.Context, recipientID string, notificationType models.NotificationType, at time.Time) (int, error) {
	rows, err := s.queryRows(ctx, recipientID, "#type = :type AND attribute_not_exists(dismissedAt)",
		map[string]types.AttributeValue{":type": str(string(notificationType))},
		map[string]string{"#type": "type"}, 0)
	if err != nil {
		return 0, err
	}
	return s.dismissRows(ctx, rows, at)
}

func (s *Store) DismissCorrelatedNotification(ctx context.Context, recipientID string, notificationType models.NotificationType, correlationKey string, at time.Time) (int, error) {
	n, err := s.GetNotificationByCorrelation(ctx, recipientID, notificationType, correlationKey)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !n.Active() {
		return 0, nil
	}
	return s.dismissRows(ctx, []models.Notification{n}, at)
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string, includeDismissed bool, limit int) ([]models.Notification, error) {
	filter := ""
	if !includeDismissed {
		filter = "attribute_not_exists(dismissedAt)"
	}
	rows, err := s.queryRows(ctx, recipientID, filter, nil, nil, limit)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].NotificationKey > rows[j].NotificationKey
	})
	return rows, nil
}

// findByID resolves a notification id through the id index and checks ownership.
func (s *Store) findByID(ctx context.Context, recipientID, notificationID string) (models.Notification, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(models.NotificationsTable),
		IndexName:                 aws.String(models.NotificationsIDIndex),
		KeyConditionExpression:    aws.String("notificationId = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":id": str(notificationID)},
	}, 1)
	if err != nil {
		return models.Notification{}, err
	}
	if len(items) == 0 || utils.ExtractString(items[0], "recipientId") != recipientID {
		return models.Notification{}, storage.ErrNotFound
	}
	rows, err := unmarshalList[models.Notification](items)
	if err != nil {
		return models.Notification{}, err
	}
	return rows[0], nil
}

func (s *Store) updateOwned(ctx context.Context, recipientID, notificationID, update string, values map[string]types.AttributeValue, names map[string]string) (models.Notification, error) {
	n, err := s.findByID(ctx, recipientID, notificationID)
	if err != nil {
		return models.Notification{}, err
	}
	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(models.NotificationsTable),
		Key:                       notificationKey(n.RecipientID, n.NotificationKey),
		UpdateExpression:          aws.String(update),
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	output, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		return models.Notification{}, fmt.Errorf("failed to update notification: %w", err)
	}
	var updated models.Notification
	if err := attributevalue.UnmarshalMap(output.Attributes, &updated); err != nil {
		return models.Notification{}, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return updated, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, recipientID string, notificationID string) (models.Notification, error) {
	return s.updateOwned(ctx, recipientID, notificationID, "SET #read = :true",
		map[string]types.AttributeValue{":true": boolean(true)},
		map[string]string{"#read": "read"})
}

// DismissNotification keeps the first dismissal time.
func (s *Store) DismissNotification(ctx context.Context, recipientID string, notificationID string, at time.Time) (models.Notification, error) {
	return s.updateOwned(ctx, recipientID, notificationID, "SET dismissedAt = if_not_exists(dismissedAt, :at)",
		map[string]types.AttributeValue{":at": unixAttr(at)}, nil)
}
