package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
	"github.com/leetryscode/matchmakr-vg0-sub001/utils"
)

// The UserProfiles table is owned by the profile service; only the
// sponsor link and photos are read here.

func (s *Store) profileItem(ctx context.Context, partyID string) (map[string]types.AttributeValue, error) {
	output, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(models.UserProfilesTable),
		Key:                  map[string]types.AttributeValue{"userId": str(partyID)},
		ProjectionExpression: aws.String("userId, sponsorId, photos"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	if len(output.Item) == 0 {
		return nil, storage.ErrNotFound
	}
	return output.Item, nil
}

func (s *Store) SponsorOf(ctx context.Context, partyID string) (string, error) {
	item, err := s.profileItem(ctx, partyID)
	if err != nil {
		return "", err
	}
	return utils.ExtractString(item, "sponsorId"), nil
}

func (s *Store) PartiesSponsoredBy(ctx context.Context, sponsorID string) ([]string, error) {
	if sponsorID == "" {
		return nil, nil
	}
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(models.UserProfilesTable),
		IndexName:                 aws.String(models.UserProfilesSponsorIndex),
		KeyConditionExpression:    aws.String("sponsorId = :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":s": str(sponsorID)},
	}, 0)
	if err != nil {
		return nil, err
	}
	parties := make([]string, 0, len(items))
	for _, item := range items {
		if id := utils.ExtractString(item, "userId"); id != "" {
			parties = append(parties, id)
		}
	}
	return parties, nil
}

func (s *Store) PhotosOf(ctx context.Context, partyID string) ([]string, error) {
	item, err := s.profileItem(ctx, partyID)
	if err != nil {
		return nil, err
	}
	return utils.ExtractStringList(item, "photos"), nil
}

// PutPartyProfile writes the directory slice of a profile. Used for seeding
// local tables; production profiles are written by their owning service.
func (s *Store) PutPartyProfile(ctx context.Context, profile models.PartyProfile) error {
	item, err := attributevalue.MarshalMap(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if _, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(models.UserProfilesTable),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}
	return nil
}
