package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
)

type attr struct {
	name string
	kind types.ScalarAttributeType
}

type index struct {
	name      string
	hash      string
	rangeAttr string
}

type tableSpec struct {
	name      string
	hash      string
	rangeAttr string
	attrs     []attr
	indexes   []index
}

// TableSpecs describes every table and index the store reads.
func tableSpecs() []tableSpec {
	s, n := types.ScalarAttributeTypeS, types.ScalarAttributeTypeN
	return []tableSpec{
		{
			name:  models.MatchesTable,
			hash:  "pairKey",
			attrs: []attr{{"pairKey", s}, {"partyAId", s}, {"partyBId", s}},
			indexes: []index{
				{name: models.MatchesPartyAIndex, hash: "partyAId"},
				{name: models.MatchesPartyBIndex, hash: "partyBId"},
			},
		},
		{
			name:  models.ConversationsTable,
			hash:  "conversationKey",
			attrs: []attr{{"conversationKey", s}, {"conversationId", s}, {"pairKey", s}, {"createdAt", n}},
			indexes: []index{
				{name: models.ConversationsIDIndex, hash: "conversationId"},
				{name: models.ConversationsPairIndex, hash: "pairKey", rangeAttr: "createdAt"},
			},
		},
		{
			name:      models.MessagesTable,
			hash:      "conversationId",
			rangeAttr: "messageKey",
			attrs:     []attr{{"conversationId", s}, {"messageKey", s}},
		},
		{
			name: models.SneakPeeksTable,
			hash: "sneakPeekId",
			attrs: []attr{
				{"sneakPeekId", s}, {"recipientPartyId", s}, {"issuingSponsorId", s},
				{"status", s}, {"createdAt", n}, {"expiresAt", n},
			},
			indexes: []index{
				{name: models.SneakPeeksRecipientIndex, hash: "recipientPartyId", rangeAttr: "createdAt"},
				{name: models.SneakPeeksSponsorIndex, hash: "issuingSponsorId", rangeAttr: "createdAt"},
				{name: models.SneakPeeksStatusIndex, hash: "status", rangeAttr: "expiresAt"},
			},
		},
		{
			name:      models.NotificationsTable,
			hash:      "recipientId",
			rangeAttr: "notificationKey",
			attrs:     []attr{{"recipientId", s}, {"notificationKey", s}, {"notificationId", s}},
			indexes: []index{
				{name: models.NotificationsIDIndex, hash: "notificationId"},
			},
		},
		{
			name:  models.UserProfilesTable,
			hash:  "userId",
			attrs: []attr{{"userId", s}, {"sponsorId", s}},
			indexes: []index{
				{name: models.UserProfilesSponsorIndex, hash: "sponsorId"},
			},
		},
	}
}

func keySchema(hash, rangeAttr string) []types.KeySchemaElement {
	schema := []types.KeySchemaElement{{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash}}
	if rangeAttr != "" {
		schema = append(schema, types.KeySchemaElement{AttributeName: aws.String(rangeAttr), KeyType: types.KeyTypeRange})
	}
	return schema
}

func (t tableSpec) createInput() *dynamodb.CreateTableInput {
	input := &dynamodb.CreateTableInput{
		TableName:   aws.String(t.name),
		KeySchema:   keySchema(t.hash, t.rangeAttr),
		BillingMode: types.BillingModePayPerRequest,
	}
	for _, a := range t.attrs {
		input.AttributeDefinitions = append(input.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(a.name),
			AttributeType: a.kind,
		})
	}
	for _, idx := range t.indexes {
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName:  aws.String(idx.name),
			KeySchema:  keySchema(idx.hash, idx.rangeAttr),
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	return input
}

// EnsureTables creates any missing table. Existing tables are left untouched.
func (s *Store) EnsureTables(ctx context.Context) error {
	for _, spec := range tableSpecs() {
		_, err := s.Client.CreateTable(ctx, spec.createInput())
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			log.Printf("ℹ️ Table %s already exists", spec.name)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create table '%s': %w", spec.name, err)
		}
		log.Printf("✅ Created table %s", spec.name)
	}
	return nil
}
