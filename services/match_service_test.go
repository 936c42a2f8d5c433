package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetryscode/matchmakr-vg0-sub001/apperrors"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
)

func TestRecordApprovalIsCommutative(t *testing.T) {
	orders := map[string][2]string{
		"sx first": {"sx", "sy"},
		"sy first": {"sy", "sx"},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seed(t, map[string]string{"p1": "sx", "p2": "sy"})
			ctx := context.Background()

			_, err := env.matches.RecordApproval(ctx, "p1", "p2", order[0], order[0])
			require.NoError(t, err)
			m, err := env.matches.RecordApproval(ctx, "p2", "p1", order[1], order[1])
			require.NoError(t, err)

			assert.True(t, m.SponsorAApproved)
			assert.True(t, m.SponsorBApproved)
			require.NotNil(t, m.ApprovedAt)

			ok, err := env.matches.CanCommunicate(ctx, "p2", "p1")
			require.NoError(t, err)
			assert.True(t, ok)

			matches, err := env.store.ListMatchesForParty(ctx, "p1")
			require.NoError(t, err)
			assert.Len(t, matches, 1)
		})
	}
}

func TestRecordApprovalIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, map[string]string{"p1": "sx", "p2": "sy"})
	ctx := context.Background()

	first, err := env.matches.RecordApproval(ctx, "p1", "p2", "sx", "sx")
	require.NoError(t, err)
	second, err := env.matches.RecordApproval(ctx, "p1", "p2", "sx", "sx")
	require.NoError(t, err)
	assert.Equal(t, first.MatchID, second.MatchID)
	assert.Nil(t, second.ApprovedAt)

	live, err := env.matches.RecordApproval(ctx, "p1", "p2", "sy", "sy")
	require.NoError(t, err)
	require.NotNil(t, live.ApprovedAt)
	approvedAt := *live.ApprovedAt

	env.clock.Advance(time.Hour)
	for _, sponsor := range []string{"sx", "sy"} {
		again, err := env.matches.RecordApproval(ctx, "p2", "p1", sponsor, sponsor)
		require.NoError(t, err)
		require.NotNil(t, again.ApprovedAt)
		assert.True(t, again.ApprovedAt.Equal(approvedAt))
	}

	matches, err := env.store.ListMatchesForParty(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRecordApprovalConcurrentSetsApprovedAtOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, map[string]string{"p1": "sx", "p2": "sy"})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		sponsor := "sx"
		partyA, partyB := "p1", "p2"
		if i%2 == 1 {
			sponsor = "sy"
			partyA, partyB = "p2", "p1"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.matches.RecordApproval(ctx, partyA, partyB, sponsor, sponsor)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	m, err := env.store.GetMatch(ctx, "p1", "p2")
	require.NoError(t, err)
	assert.True(t, m.FullyApproved())
	assert.NotNil(t, m.ApprovedAt)
	assert.Len(t, env.notificationsOf(t, "sx", models.NotificationIntroductionLive), 1)
	assert.Len(t, env.notificationsOf(t, "sy", models.NotificationIntroductionLive), 1)
}

func TestIntroductionLiveScenario(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, map[string]string{"p1": "sx", "p2": "sy"})
	ctx := context.Background()

	_, err := env.matches.RecordApproval(ctx, "p1", "p2", "sx", "sx")
	require.NoError(t, err)
	ok, err := env.matches.CanCommunicate(ctx, "p1", "p2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, env.notificationsOf(t, "sx", models.NotificationIntroductionLive))

	// The second approval is retried by the client.
	for i := 0; i < 3; i++ {
		_, err = env.matches.RecordApproval(ctx, "p1", "p2", "sy", "sy")
		require.NoError(t, err)
	}
	ok, err = env.matches.CanCommunicate(ctx, "p1", "p2")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, sponsor := range []string{"sx", "sy"} {
		live := env.notificationsOf(t, sponsor, models.NotificationIntroductionLive)
		require.Len(t, live, 1)
		m, err := env.store.GetMatch(ctx, "p1", "p2")
		require.NoError(t, err)
		assert.Equal(t, m.MatchID, live[0].CorrelationKey)
	}
	assert.Len(t, env.notificationsOf(t, "p1", models.NotificationSingleNotSeenIntro), 1)
	assert.Len(t, env.notificationsOf(t, "p2", models.NotificationSingleNotSeenIntro), 1)
}

func TestRecordApprovalSameSponsorForBothParties(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, map[string]string{"p1": "sx", "p2": "sx"})

	m, err := env.matches.RecordApproval(context.Background(), "p1", "p2", "sx", "sx")
	require.NoError(t, err)
	assert.True(t, m.FullyApproved())
	assert.NotNil(t, m.ApprovedAt)
	assert.Len(t, env.notificationsOf(t, "sx", models.NotificationIntroductionLive), 1)
}

func TestRecordApprovalErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, map[string]string{"p1": "sx", "p2": "sy", "p3": ""})
	ctx := context.Background()

	tests := []struct {
		name                  string
		partyA, partyB        string
		approving, requesting string
		code                  apperrors.Code
	}{
		{name: "on behalf of someone else", partyA: "p1", partyB: "p2", approving: "sx", requesting: "sy", code: apperrors.CodeAuthorization},
		{name: "missing approving sponsor", partyA: "p1", partyB: "p2", approving: "", requesting: "", code: apperrors.CodeInvalidState},
		{name: "party without sponsor", partyA: "p1", partyB: "p3", approving: "sx", requesting: "sx", code: apperrors.CodeInvalidState},
		{name: "sponsor of neither party", partyA: "p1", partyB: "p2", approving: "sz", requesting: "sz", code: apperrors.CodeAuthorization},
		{name: "unknown party", partyA: "p1", partyB: "p9", approving: "sx", requesting: "sx", code: apperrors.CodeNotFound},
		{name: "same party", partyA: "p1", partyB: "p1", approving: "sx", requesting: "sx", code: apperrors.CodeInvalidArgument},
		{name: "separator in id", partyA: "p#1", partyB: "p2", approving: "sx", requesting: "sx", code: apperrors.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.matches.RecordApproval(ctx, tt.partyA, tt.partyB, tt.approving, tt.requesting)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
}

func TestCanCommunicateWithoutMatch(t *testing.T) {
	env := newTestEnv(t)
	ok, err := env.matches.CanCommunicate(context.Background(), "p1", "p2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListMatchesForPartyAuthorization(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, map[string]string{"p1": "sx", "p2": "sy"})
	ctx := context.Background()
	_, err := env.matches.RecordApproval(ctx, "p1", "p2", "sx", "sx")
	require.NoError(t, err)

	matches, err := env.matches.ListMatchesForParty(ctx, models.Caller{ID: "p1", Role: models.RoleSingle}, "p1")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = env.matches.ListMatchesForParty(ctx, models.Caller{ID: "sy", Role: models.RoleSponsor}, "p2")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	_, err = env.matches.ListMatchesForParty(ctx, models.Caller{ID: "p2", Role: models.RoleSingle}, "p1")
	assert.Equal(t, apperrors.CodeAuthorization, apperrors.CodeOf(err))

	_, err = env.matches.ListMatchesForParty(ctx, models.Caller{ID: "sy", Role: models.RoleSponsor}, "p1")
	assert.Equal(t, apperrors.CodeAuthorization, apperrors.CodeOf(err))
}

func TestMarkIntroductionSeen(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, map[string]string{"p1": "sx", "p2": "sy"})
	ctx := context.Background()

	pending, err := env.matches.RecordApproval(ctx, "p1", "p2", "sx", "sx")
	require.NoError(t, err)
	_, err = env.matches.MarkIntroductionSeen(ctx, "p1", pending.MatchID)
	assert.Equal(t, apperrors.CodeInvalidState, apperrors.CodeOf(err))

	live, err := env.matches.RecordApproval(ctx, "p1", "p2", "sy", "sy")
	require.NoError(t, err)

	_, err = env.matches.MarkIntroductionSeen(ctx, "p1", live.MatchID)
	require.NoError(t, err)

	reminders := env.notificationsOf(t, "p1", models.NotificationSingleNotSeenIntro)
	require.Len(t, reminders, 1)
	assert.False(t, reminders[0].Active())

	others := env.notificationsOf(t, "p2", models.NotificationSingleNotSeenIntro)
	require.Len(t, others, 1)
	assert.True(t, others[0].Active())

	_, err = env.matches.MarkIntroductionSeen(ctx, "p1", "unknown")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestRecordApprovalRepairsUnstampedMatch(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, map[string]string{"p1": "sx", "p2": "sy"})
	ctx := context.Background()

	now := env.clock.Now()
	require.NoError(t, env.store.PutMatch(ctx, models.Match{
		PairKey:          "p1#p2",
		MatchID:          "legacy",
		PartyAID:         "p1",
		PartyBID:         "p2",
		SponsorAID:       "sx",
		SponsorBID:       "sy",
		SponsorAApproved: true,
		SponsorBApproved: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}))

	ok, err := env.matches.CanCommunicate(ctx, "p1", "p2")
	require.NoError(t, err)
	assert.False(t, ok, "an unstamped row is not live")

	m, err := env.matches.RecordApproval(ctx, "p1", "p2", "sx", "sx")
	require.NoError(t, err)
	require.NotNil(t, m.ApprovedAt)

	ok, err = env.matches.CanCommunicate(ctx, "p1", "p2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, env.notificationsOf(t, "sy", models.NotificationIntroductionLive), 1)
}
