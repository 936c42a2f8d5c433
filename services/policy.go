package services

import (
	"time"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
)

// Policy holds the tunable thresholds of the preview and notification rules.
type Policy struct {
	SneakPeekTTL           time.Duration
	SneakPeekPendingLimit  int
	SneakPeekDisplayWindow time.Duration
	NotificationCooldown   time.Duration
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		SneakPeekTTL:           models.DefaultSneakPeekTTL,
		SneakPeekPendingLimit:  models.DefaultSneakPeekPendingLimit,
		SneakPeekDisplayWindow: models.DefaultSneakPeekDisplayWindow,
		NotificationCooldown:   models.DefaultNotificationCooldown,
	}
}

func nowOrDefault(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return func() time.Time { return time.Now().UTC() }
}
