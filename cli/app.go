package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/leetryscode/matchmakr-vg0-sub001/config"
	"github.com/leetryscode/matchmakr-vg0-sub001/routes"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage/dynamo"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage/sqlite"
)

// policyFrom converts the configured thresholds.
func policyFrom(cfg config.Config) services.Policy {
	return services.Policy{
		SneakPeekTTL:           cfg.SneakPeekTTL,
		SneakPeekPendingLimit:  cfg.SneakPeekPendingLimit,
		SneakPeekDisplayWindow: cfg.SneakPeekDisplayWindow,
		NotificationCooldown:   cfg.NotificationCooldown,
	}
}

// openStore opens the configured backend. SQLite migrations run on open.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreDynamoDB:
		log.Println("Initializing DynamoDB client...")
		client, err := dynamo.InitializeDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		log.Println("DynamoDB client initialized.")
		return dynamo.NewStore(client), nil
	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		log.Printf("Opening SQLite store at %s", cfg.SQLitePath)
		return sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// snapshotterFor returns an S3-backed snapshotter when a bucket is configured.
func snapshotterFor(ctx context.Context, cfg config.Config) (services.PhotoSnapshotter, error) {
	if cfg.S3BucketName == "" {
		log.Println("⚠️ Warning: S3_BUCKET_NAME not set, sneak peeks keep raw photo references")
		return services.PassthroughSnapshotter{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return services.NewS3PhotoSnapshotter(s3.NewFromConfig(awsCfg), cfg.S3BucketName), nil
}

// buildServices wires every service over one store.
func buildServices(store storage.Store, snapshotter services.PhotoSnapshotter, policy services.Policy) routes.Services {
	notifications := services.NewNotificationService(store, policy, nil)
	matches := services.NewMatchService(store, notifications, nil)
	conversations := services.NewConversationService(store, nil)
	return routes.Services{
		Matches:       matches,
		Conversations: conversations,
		Chat:          services.NewChatService(store, conversations, matches, notifications, nil),
		SneakPeeks:    services.NewSneakPeekService(store, snapshotter, policy, nil),
		Notifications: notifications,
		Activity:      services.NewActivityService(store, notifications),
	}
}
