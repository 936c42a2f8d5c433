package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetryscode/matchmakr-vg0-sub001/config"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage/sqlite"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range NewRootCommand().Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["sweep"])
	assert.True(t, names["migrate"])
}

func TestMigrateCreatesSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "matchmakr.db")
	t.Setenv("MATCHMAKR_SQLITE_PATH", path)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite store is up to date")
	assert.FileExists(t, path)
}

func TestSweepExpiresOverdue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matchmakr.db")
	t.Setenv("MATCHMAKR_SQLITE_PATH", path)

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.PutPartyProfile(ctx, models.PartyProfile{UserID: "r", SponsorID: "sr"}))
	require.NoError(t, store.PutPartyProfile(ctx, models.PartyProfile{UserID: "t", SponsorID: "st", Photos: []string{"t.jpg"}}))
	past := func() time.Time { return time.Now().UTC().Add(-72 * time.Hour) }
	_, err = services.NewSneakPeekService(store, services.PassthroughSnapshotter{}, services.DefaultPolicy(), past).Send(ctx, "st", "r", "t")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := execute(t, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "expired 1 sneak peeks")
}

func TestLoadFailureStopsCommand(t *testing.T) {
	t.Setenv("MATCHMAKR_STORE", "postgres")
	_, err := execute(t, "sweep")
	assert.Error(t, err)
}

func TestHandlerAllowsIdentityHeaders(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "cors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Config{AllowedOrigins: []string{"https://app.example"}}
	handler := newHandler(cfg, buildServices(store, services.PassthroughSnapshotter{}, services.DefaultPolicy()))

	req := httptest.NewRequest(http.MethodOptions, "/api/notifications", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "x-caller-id,x-caller-role")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
