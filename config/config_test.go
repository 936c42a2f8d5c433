package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 48*time.Hour, cfg.SneakPeekTTL)
	assert.Equal(t, 5, cfg.SneakPeekPendingLimit)
	assert.Equal(t, 48*time.Hour, cfg.SneakPeekDisplayWindow)
	assert.Equal(t, 24*time.Hour, cfg.NotificationCooldown)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MATCHMAKR_STORE", " DynamoDB ")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("MATCHMAKR_DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("MATCHMAKR_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MATCHMAKR_SNEAK_PEEK_PENDING_LIMIT", "3")
	t.Setenv("MATCHMAKR_NOTIFICATION_COOLDOWN", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDynamoDB, cfg.Store)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDBEndpoint)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 3, cfg.SneakPeekPendingLimit)
	assert.Equal(t, time.Hour, cfg.NotificationCooldown)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown store", "MATCHMAKR_STORE", "postgres"},
		{"zero pending limit", "MATCHMAKR_SNEAK_PEEK_PENDING_LIMIT", "0"},
		{"zero sweep interval", "MATCHMAKR_SWEEP_INTERVAL", "0s"},
		{"malformed duration", "MATCHMAKR_SNEAK_PEEK_TTL", "two days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
