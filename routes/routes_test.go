package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetryscode/matchmakr-vg0-sub001/helpers"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage/sqlite"
)

func newTestRouter(t *testing.T) (*mux.Router, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "routes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	now := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	policy := services.DefaultPolicy()
	notifications := services.NewNotificationService(store, policy, now)
	matches := services.NewMatchService(store, notifications, now)
	conversations := services.NewConversationService(store, now)
	router := NewRouter(Services{
		Matches:       matches,
		Conversations: conversations,
		Chat:          services.NewChatService(store, conversations, matches, notifications, now),
		SneakPeeks:    services.NewSneakPeekService(store, services.PassthroughSnapshotter{}, policy, now),
		Notifications: notifications,
		Activity:      services.NewActivityService(store, notifications),
	})

	for party, sponsor := range map[string]string{"p1": "s1", "p2": "s2", "p3": "s3"} {
		require.NoError(t, store.PutPartyProfile(context.Background(), models.PartyProfile{
			UserID:    party,
			SponsorID: sponsor,
			Photos:    []string{"profile-pics/" + party + ".jpg"},
		}))
	}
	return router, store
}

func call(t *testing.T, router http.Handler, method, path string, caller models.Caller, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller.ID != "" {
		req.Header.Set(helpers.CallerIDHeader, caller.ID)
		req.Header.Set(helpers.CallerRoleHeader, string(caller.Role))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var (
	s1 = models.Caller{ID: "s1", Role: models.RoleSponsor}
	s2 = models.Caller{ID: "s2", Role: models.RoleSponsor}
	p1 = models.Caller{ID: "p1", Role: models.RoleSingle}
	p2 = models.Caller{ID: "p2", Role: models.RoleSingle}
	p3 = models.Caller{ID: "p3", Role: models.RoleSingle}
)

func TestPublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t)
	assert.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/health", models.Caller{}, nil).Code)
	assert.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/", models.Caller{}, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, router, http.MethodGet, "/api/notifications", models.Caller{}, nil).Code)
}

func TestIntroductionFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	approve := map[string]string{"partyAId": "p2", "partyBId": "p1"}

	rec := call(t, router, http.MethodPost, "/api/matches/approve", p1, approve)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/matches/approve", s1, map[string]string{"partyAId": "p1", "partyBId": "p2", "approvingSponsorId": "s2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/matches/approve", s1, approve)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	match := decode[models.Match](t, rec)
	assert.Equal(t, "p1", match.PartyAID)
	assert.True(t, match.SponsorAApproved)
	assert.Nil(t, match.ApprovedAt)

	rec = call(t, router, http.MethodGet, "/api/matches/can-communicate?partyA=p1&partyB=p2", p1, nil)
	assert.Equal(t, map[string]bool{"canCommunicate": false}, decode[map[string]bool](t, rec))

	rec = call(t, router, http.MethodPost, "/api/chat/message", p1, map[string]string{"recipientPartyId": "p2", "content": "hi"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/matches/approve", s2, approve)
	require.Equal(t, http.StatusOK, rec.Code)
	match = decode[models.Match](t, rec)
	require.NotNil(t, match.ApprovedAt)

	rec = call(t, router, http.MethodGet, "/api/matches/can-communicate?partyA=p2&partyB=p1", p2, nil)
	assert.Equal(t, map[string]bool{"canCommunicate": true}, decode[map[string]bool](t, rec))

	rec = call(t, router, http.MethodPost, "/api/chat/message", p1, map[string]string{"recipientPartyId": "p2", "content": "hi"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sent := decode[struct {
		Message      models.Message      `json:"message"`
		Conversation models.Conversation `json:"conversation"`
	}](t, rec)

	rec = call(t, router, http.MethodGet, "/api/chat/messages?conversationId="+sent.Conversation.ConversationID, p2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Message](t, rec), 1)

	rec = call(t, router, http.MethodGet, "/api/chat/messages?conversationId="+sent.Conversation.ConversationID, p3, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/chat/messages/mark-as-read", p2, map[string]string{"conversationId": sent.Conversation.ConversationID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"updated": 1}, decode[map[string]int](t, rec))

	rec = call(t, router, http.MethodGet, "/api/matches", p1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Match](t, rec), 1)

	rec = call(t, router, http.MethodGet, "/api/matches?partyId=p1", s2, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/matches/"+match.MatchID+"/seen", p1, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotificationInbox(t *testing.T) {
	router, _ := newTestRouter(t)
	approve := map[string]string{"partyAId": "p1", "partyBId": "p2"}
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/matches/approve", s1, approve).Code)
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/matches/approve", s2, approve).Code)

	rec := call(t, router, http.MethodGet, "/api/notifications", s1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decode[[]models.Notification](t, rec)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationIntroductionLive, inbox[0].Type)

	id := inbox[0].NotificationID
	assert.Equal(t, http.StatusNotFound, call(t, router, http.MethodPost, "/api/notifications/"+id+"/read", s2, nil).Code)

	rec = call(t, router, http.MethodPost, "/api/notifications/"+id+"/read", s1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.Notification](t, rec).Read)

	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/notifications/"+id+"/dismiss", s1, nil).Code)
	assert.Empty(t, decode[[]models.Notification](t, call(t, router, http.MethodGet, "/api/notifications", s1, nil)))
	assert.Len(t, decode[[]models.Notification](t, call(t, router, http.MethodGet, "/api/notifications?all=true", s1, nil)), 1)
}

func TestSneakPeekRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := call(t, router, http.MethodPost, "/api/sneak-peeks", p1, map[string]string{"recipientPartyId": "p1", "targetPartyId": "p2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/sneak-peeks", s1, map[string]string{"recipientPartyId": "p1", "targetPartyId": "p2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	peek := decode[models.SneakPeek](t, rec)
	assert.Equal(t, models.SneakPeekPending, peek.Status)

	received := decode[[]models.SneakPeek](t, call(t, router, http.MethodGet, "/api/sneak-peeks/received", p1, nil))
	require.Len(t, received, 1)

	rec = call(t, router, http.MethodPost, "/api/sneak-peeks/"+peek.SneakPeekID+"/respond", p1, map[string]string{"status": "EXPIRED"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/sneak-peeks/"+peek.SneakPeekID+"/respond", p2, map[string]string{"status": "OPEN_TO_IT"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/sneak-peeks/"+peek.SneakPeekID+"/respond", p1, map[string]string{"status": "OPEN_TO_IT"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SneakPeekOpenToIt, decode[models.SneakPeek](t, rec).Status)

	rec = call(t, router, http.MethodPost, "/api/sneak-peeks/"+peek.SneakPeekID+"/respond", p1, map[string]string{"status": "DISMISSED"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	sent := decode[[]models.SneakPeek](t, call(t, router, http.MethodGet, "/api/sneak-peeks/sent", s1, nil))
	require.Len(t, sent, 1)
	assert.Equal(t, models.SneakPeekOpenToIt, sent[0].Status)

	rec = call(t, router, http.MethodGet, "/api/sneak-peeks/"+peek.SneakPeekID+"/photo", s1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "profile-pics/p2.jpg", decode[map[string]string](t, rec)["url"])
	assert.Equal(t, http.StatusForbidden, call(t, router, http.MethodGet, "/api/sneak-peeks/"+peek.SneakPeekID+"/photo", s2, nil).Code)
}

func TestSponsorConversationRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := call(t, router, http.MethodPost, "/api/conversations", s1, map[string]string{"counterpartSponsorId": "s2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	conversation := decode[models.Conversation](t, rec)
	assert.Equal(t, "p1", conversation.ContextSubjectID)
	assert.Equal(t, "p2", conversation.ContextTargetID)

	rec = call(t, router, http.MethodPost, "/api/conversations", s1, map[string]string{
		"counterpartSponsorId": "s2",
		"subjectPartyId":       "p3",
		"targetPartyId":        "p2",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/chat/sponsor-message", s2, map[string]string{"recipientSponsorId": "s1", "content": "thoughts?"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPost, "/api/chat/sponsor-message", p1, map[string]string{"recipientSponsorId": "s1", "content": "hey"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestActivityLogin(t *testing.T) {
	router, store := newTestRouter(t)
	require.NoError(t, store.PutPartyProfile(context.Background(), models.PartyProfile{UserID: "loner"}))

	rec := call(t, router, http.MethodPost, "/api/activity/login", models.Caller{ID: "loner", Role: models.RoleSingle}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[map[string]services.EnsureOutcome](t, rec)
	assert.Equal(t, services.OutcomeCreated, result["loner:"+string(models.NotificationNudgeInviteSponsor)])
}
