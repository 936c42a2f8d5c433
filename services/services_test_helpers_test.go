package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage/sqlite"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store         *sqlite.Store
	clock         *testClock
	notifications *NotificationService
	matches       *MatchService
	conversations *ConversationService
	chat          *ChatService
	sneakPeeks    *SneakPeekService
	activity      *ActivityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := newTestClock()
	policy := DefaultPolicy()
	notifications := NewNotificationService(store, policy, clock.Now)
	matches := NewMatchService(store, notifications, clock.Now)
	conversations := NewConversationService(store, clock.Now)
	return &testEnv{
		store:         store,
		clock:         clock,
		notifications: notifications,
		matches:       matches,
		conversations: conversations,
		chat:          NewChatService(store, conversations, matches, notifications, clock.Now),
		sneakPeeks:    NewSneakPeekService(store, PassthroughSnapshotter{}, policy, clock.Now),
		activity:      NewActivityService(store, notifications),
	}
}

// seed registers parties: id -> sponsor id. Every party gets one photo.
func (e *testEnv) seed(t *testing.T, parties map[string]string) {
	t.Helper()
	for partyID, sponsorID := range parties {
		require.NoError(t, e.store.PutPartyProfile(context.Background(), models.PartyProfile{
			UserID:    partyID,
			SponsorID: sponsorID,
			Photos:    []string{"profile-pics/" + partyID + ".jpg"},
		}))
	}
}

func (e *testEnv) notificationsOf(t *testing.T, recipientID string, notificationType models.NotificationType) []models.Notification {
	t.Helper()
	all, err := e.store.ListNotifications(context.Background(), recipientID, true, 100)
	require.NoError(t, err)
	var out []models.Notification
	for _, n := range all {
		if n.Type == notificationType {
			out = append(out, n)
		}
	}
	return out
}
