package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/nexora/go/internal/auth"
	"github.com/mcdev12/nexora/go/internal/config"
	"github.com/mcdev12/nexora/go/internal/focus"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/rpc"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	cfg.Log.Pretty = false
	return &cfg
}

func newTestServices(t *testing.T, cfg *config.Config) *Services {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	services, err := setupServices(ctx, cfg, clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	services.Start(ctx)
	require.NoError(t, services.StartLive(ctx))
	t.Cleanup(func() {
		cancel()
		services.Close()
	})
	return services
}

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *Services) {
	t.Helper()
	services := newTestServices(t, cfg)
	srv := httptest.NewServer(setupServer(cfg, services).Handler)
	t.Cleanup(srv.Close)
	return srv, services
}

func request(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServerPublicRoutes(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	resp := request(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, http.MethodGet, srv.URL+"/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, http.MethodGet, srv.URL+"/routes/resolve?path=/main-dashboard", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res struct {
		Route    struct{ Name string } `json:"route"`
		Redirect bool                  `json:"redirect"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "user-authentication", res.Route.Name)
	assert.True(t, res.Redirect)

	resp = request(t, http.MethodGet, srv.URL+"/ws/stats", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerPrivateRoutesNeedLogin(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	resp := request(t, http.MethodGet, srv.URL+"/focus/modes", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = request(t, http.MethodPost, srv.URL+"/auth/login", "", `{"email":"student@nexora.com","password":"student123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session auth.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	require.NotEmpty(t, session.Token)

	resp = request(t, http.MethodGet, srv.URL+"/focus/modes", session.Token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, http.MethodGet, srv.URL+"/subscription/plans", session.Token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerWithoutAuthGate(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RequireAuth = false
	srv, _ := newTestServer(t, cfg)

	resp := request(t, http.MethodGet, srv.URL+"/progress", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, http.MethodGet, srv.URL+"/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerTimerRPC(t *testing.T) {
	srv, services := newTestServer(t, testConfig())
	client := rpc.NewTimerClient(srv.Client(), srv.URL)
	ctx := context.Background()

	_, err := client.GetState(ctx)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	snap, err := client.Select(ctx, models.FocusModeDeepWork, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 75*60, snap.Remaining)

	mode, err := services.Focus.Selected()
	require.NoError(t, err)
	assert.Equal(t, models.FocusModeDeepWork, mode.Type)
}

func TestLiveState(t *testing.T) {
	services := newTestServices(t, testConfig())
	ctx := context.Background()

	st, err := services.liveState(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.(liveState).Timer)

	mode, err := focus.ModeByType(models.FocusModePomodoro)
	require.NoError(t, err)
	_, err = services.Focus.Select(ctx, mode)
	require.NoError(t, err)

	st, err = services.liveState(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.(liveState).Timer)
	assert.Equal(t, 25*60, st.(liveState).Timer.Remaining)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunTimerStopsOnCancel(t *testing.T) {
	services := newTestServices(t, testConfig())
	mode, err := focus.ValidateCustomMode("Reading", 0, 30)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &syncBuffer{}
	require.NoError(t, runTimer(ctx, out, services.Focus, mode, 1))
	assert.Contains(t, out.String(), "0 focus phase(s) completed")

	_, err = services.Focus.Snapshot()
	assert.ErrorIs(t, err, focus.ErrNoActiveSession)
}
