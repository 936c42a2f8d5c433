package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "matchmakr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open("  ")
	assert.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "matchmakr.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id TEXT);\n", extractUpMigration(content))
	assert.Equal(t, "\nCREATE TABLE a (id TEXT);", extractUpMigration("-- +migrate Up\nCREATE TABLE a (id TEXT);"))
	assert.Equal(t, "SELECT 1;", extractUpMigration("SELECT 1;"))
}

func TestApplyMigrationsToleratesExistingObjects(t *testing.T) {
	t.Parallel()

	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "legacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	ctx := context.Background()

	// Schema created before migrations were tracked.
	_, err = sqlDB.Exec(`CREATE TABLE widgets (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	legacy := fstest.MapFS{
		"001_widgets.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE widgets (id TEXT PRIMARY KEY);\n")},
		"002_color.sql":   {Data: []byte("ALTER TABLE widgets ADD COLUMN color TEXT;")},
		"003_empty.sql":   {Data: []byte("-- +migrate Up\n-- +migrate Down\nDROP TABLE widgets;\n")},
		"notes.txt":       {Data: []byte("ignored")},
	}
	require.NoError(t, applyMigrations(ctx, sqlDB, legacy))
	require.NoError(t, applyMigrations(ctx, sqlDB, legacy))

	applied, err := appliedMigrations(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"001_widgets.sql": true, "002_color.sql": true}, applied)

	broken := fstest.MapFS{"004_broken.sql": {Data: []byte("CREATE TABLE (")}}
	assert.Error(t, applyMigrations(ctx, sqlDB, broken))
}

func newMatch(now time.Time) models.Match {
	return models.Match{
		PairKey:    "p1#p2",
		MatchID:    "m-1",
		PartyAID:   "p1",
		PartyBID:   "p2",
		SponsorAID: "s1",
		SponsorBID: "s2",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestMatchPutGetAndConflict(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.GetMatch(ctx, "p1", "p2")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.PutMatch(ctx, newMatch(now)))
	dup := newMatch(now)
	dup.MatchID = "m-2"
	assert.ErrorIs(t, store.PutMatch(ctx, dup), storage.ErrConflict)

	got, err := store.GetMatch(ctx, "p1", "p2")
	require.NoError(t, err)
	assert.Equal(t, "m-1", got.MatchID)
	assert.Equal(t, "p1#p2", got.PairKey)
	assert.False(t, got.FullyApproved())
	assert.Nil(t, got.ApprovedAt)
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestMatchRejectsNonCanonicalOrder(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	m := newMatch(time.Now())
	m.PartyAID, m.PartyBID = "p2", "p1"
	assert.Error(t, store.PutMatch(context.Background(), m))
}

func TestApproveMatchSideStampsOnce(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.PutMatch(ctx, newMatch(now)))

	m, transitioned, err := store.ApproveMatchSide(ctx, "p1", "p2", models.SideA, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, transitioned)
	assert.True(t, m.SponsorAApproved)
	assert.Nil(t, m.ApprovedAt)

	m, transitioned, err = store.ApproveMatchSide(ctx, "p1", "p2", models.SideB, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, transitioned)
	require.NotNil(t, m.ApprovedAt)
	assert.True(t, m.ApprovedAt.Equal(now.Add(2*time.Minute)))

	m, transitioned, err = store.ApproveMatchSide(ctx, "p1", "p2", models.SideA, now.Add(3*time.Minute))
	require.NoError(t, err)
	assert.False(t, transitioned)
	assert.True(t, m.ApprovedAt.Equal(now.Add(2*time.Minute)))

	_, _, err = store.ApproveMatchSide(ctx, "p1", "p9", models.SideA, now)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestApproveMatchSideConcurrentSingleTransition(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.PutMatch(ctx, newMatch(now)))

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		transitions int
	)
	for i := 0; i < 8; i++ {
		side := models.SideA
		if i%2 == 1 {
			side = models.SideB
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, transitioned, err := store.ApproveMatchSide(ctx, "p1", "p2", side, now)
			assert.NoError(t, err)
			if transitioned {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, transitions)
}

func TestListMatchesForParty(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.PutMatch(ctx, newMatch(now)))
	other := newMatch(now.Add(time.Hour))
	other.MatchID, other.PartyAID, other.PartyBID = "m-2", "p0", "p2"
	require.NoError(t, store.PutMatch(ctx, other))

	matches, err := store.ListMatchesForParty(ctx, "p2")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "m-2", matches[0].MatchID)

	matches, err = store.ListMatchesForParty(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func newConversation(id string, created time.Time) models.Conversation {
	return models.Conversation{
		ConversationKey:  "a#b#s1#s2",
		ConversationID:   id,
		PairKey:          "a#b",
		InitiatorID:      "a",
		CounterpartID:    "b",
		ContextSubjectID: "s1",
		ContextTargetID:  "s2",
		Status:           models.ConversationStatusActive,
		CreatedAt:        created,
	}
}

func TestConversationUniquenessAndLatest(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.PutConversation(ctx, newConversation("c-1", now)))
	assert.ErrorIs(t, store.PutConversation(ctx, newConversation("c-2", now)), storage.ErrConflict)

	later := newConversation("c-3", now.Add(time.Hour))
	later.ConversationKey = "a#b#s1#s3"
	later.ContextTargetID = "s3"
	require.NoError(t, store.PutConversation(ctx, later))

	got, err := store.GetConversationByKey(ctx, "a#b#s1#s2")
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.ConversationID)

	got, err = store.GetConversation(ctx, "c-3")
	require.NoError(t, err)
	assert.Equal(t, "s3", got.ContextTargetID)

	latest, err := store.LatestConversationForPair(ctx, "a#b")
	require.NoError(t, err)
	assert.Equal(t, "c-3", latest.ConversationID)

	_, err = store.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMessagesListAndMarkRead(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.PutConversation(ctx, newConversation("c-1", now)))

	for i, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, store.PutMessage(ctx, models.Message{
			ConversationID: "c-1",
			MessageID:      id,
			SenderID:       "a",
			RecipientID:    "b",
			Content:        "hello " + id,
			CreatedAt:      now.Add(time.Duration(i) * time.Second),
		}))
	}

	messages, err := store.ListMessages(ctx, "c-1", 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m2", messages[0].MessageID)
	assert.Equal(t, "m3", messages[1].MessageID)

	changed, err := store.MarkMessagesRead(ctx, "c-1", "a")
	require.NoError(t, err)
	assert.Zero(t, changed)

	changed, err = store.MarkMessagesRead(ctx, "c-1", "b")
	require.NoError(t, err)
	assert.Equal(t, 3, changed)
}

func TestSneakPeekLifecycle(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	put := func(id string, created time.Time) {
		require.NoError(t, store.PutSneakPeek(ctx, models.SneakPeek{
			SneakPeekID:      id,
			RecipientPartyID: "r1",
			IssuingSponsorID: "s1",
			TargetPartyID:    "t1",
			SnapshotPhoto:    "photos/t1.jpg",
			Status:           models.SneakPeekPending,
			CreatedAt:        created,
			ExpiresAt:        created.Add(48 * time.Hour),
		}))
	}
	put("sp-old", now.Add(-72*time.Hour))
	put("sp-1", now.Add(-time.Hour))
	put("sp-2", now)

	count, err := store.CountOpenSneakPeeks(ctx, "r1", now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	open, err := store.ListOpenSneakPeeksForRecipient(ctx, "r1", now)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "sp-1", open[0].SneakPeekID)

	responded, err := store.RespondSneakPeek(ctx, "sp-1", models.SneakPeekOpenToIt, now)
	require.NoError(t, err)
	assert.Equal(t, models.SneakPeekOpenToIt, responded.Status)
	require.NotNil(t, responded.RespondedAt)

	_, err = store.RespondSneakPeek(ctx, "sp-1", models.SneakPeekDismissed, now)
	assert.ErrorIs(t, err, storage.ErrConflict)
	_, err = store.RespondSneakPeek(ctx, "sp-old", models.SneakPeekDismissed, now)
	assert.ErrorIs(t, err, storage.ErrConflict)
	_, err = store.RespondSneakPeek(ctx, "missing", models.SneakPeekDismissed, now)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	sent, err := store.ListSneakPeeksForSponsor(ctx, "s1", now, now.Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, "sp-2", sent[0].SneakPeekID)
	assert.Equal(t, "sp-1", sent[1].SneakPeekID)

	expired, err := store.ExpireSneakPeeks(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	old, err := store.GetSneakPeek(ctx, "sp-old")
	require.NoError(t, err)
	assert.Equal(t, models.SneakPeekExpired, old.Status)
}

func TestNotificationCorrelationAndDismissal(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	live := models.Notification{
		RecipientID:    "s1",
		NotificationID: "n-1",
		Type:           models.NotificationIntroductionLive,
		CorrelationKey: "m-1",
		Payload:        map[string]string{"matchId": "m-1"},
		CreatedAt:      now,
	}
	require.NoError(t, store.PutNotification(ctx, live))
	live.NotificationID = "n-2"
	assert.ErrorIs(t, store.PutNotification(ctx, live), storage.ErrConflict)

	got, err := store.GetNotificationByCorrelation(ctx, "s1", models.NotificationIntroductionLive, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "n-1", got.NotificationID)
	assert.Equal(t, "m-1", got.Payload["matchId"])

	// Uncorrelated rows are not constrained.
	for i, id := range []string{"n-3", "n-4"} {
		require.NoError(t, store.PutNotification(ctx, models.Notification{
			RecipientID:    "s1",
			NotificationID: id,
			Type:           models.NotificationNudgeInviteSingle,
			CreatedAt:      now.Add(time.Duration(i+1) * time.Minute),
		}))
	}
	latest, err := store.LatestNotificationOfType(ctx, "s1", models.NotificationNudgeInviteSingle)
	require.NoError(t, err)
	assert.Equal(t, "n-4", latest.NotificationID)

	dismissed, err := store.DismissActiveNotifications(ctx, "s1", models.NotificationNudgeInviteSingle, now)
	require.NoError(t, err)
	assert.Equal(t, 2, dismissed)

	active, err := store.ListNotifications(ctx, "s1", false, 10)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "n-1", active[0].NotificationID)

	all, err := store.ListNotifications(ctx, "s1", true, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	read, err := store.MarkNotificationRead(ctx, "s1", "n-1")
	require.NoError(t, err)
	assert.True(t, read.Read)

	_, err = store.MarkNotificationRead(ctx, "s2", "n-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	first, err := store.DismissNotification(ctx, "s1", "n-1", now.Add(time.Hour))
	require.NoError(t, err)
	second, err := store.DismissNotification(ctx, "s1", "n-1", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, first.DismissedAt.Equal(*second.DismissedAt))

	changed, err := store.DismissCorrelatedNotification(ctx, "s1", models.NotificationIntroductionLive, "m-1", now)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestDirectory(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutPartyProfile(ctx, models.PartyProfile{UserID: "p1", SponsorID: "s1", Photos: []string{" ", "a.jpg", "b.jpg"}}))
	require.NoError(t, store.PutPartyProfile(ctx, models.PartyProfile{UserID: "p2", SponsorID: "s1"}))
	require.NoError(t, store.PutPartyProfile(ctx, models.PartyProfile{UserID: "p3"}))

	sponsor, err := store.SponsorOf(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sponsor)

	sponsor, err = store.SponsorOf(ctx, "p3")
	require.NoError(t, err)
	assert.Empty(t, sponsor)

	_, err = store.SponsorOf(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	parties, err := store.PartiesSponsoredBy(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, parties)

	photos, err := store.PhotosOf(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, photos)

	photos, err = store.PhotosOf(ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, photos)

	// Re-seeding moves the party to a new sponsor.
	require.NoError(t, store.PutPartyProfile(ctx, models.PartyProfile{UserID: "p2", SponsorID: "s2"}))
	parties, err = store.PartiesSponsoredBy(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, parties)
}
