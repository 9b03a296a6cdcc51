package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/nexora/go/internal/events"
	"github.com/mcdev12/nexora/go/internal/progress"
	"github.com/mcdev12/nexora/go/internal/timer"
)

var now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	manager *ConnectionManager
	clock   *clockwork.FakeClock
	server  *httptest.Server
}

func newTestServer(t *testing.T, state StateProvider) *testServer {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	cm := NewConnectionManager(DefaultConnectionConfig(), clock, state)
	ctx, cancel := context.WithCancel(context.Background())
	go cm.Start(ctx)

	r := mux.NewRouter()
	NewService(cm).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{manager: cm, clock: clock, server: srv}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws/timer"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool {
		return s.manager.Stats().TotalConnections > 0
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestInitialStateAndBroadcast(t *testing.T) {
	state := StateFunc(func(ctx context.Context) (any, error) {
		return map[string]string{"status": "idle"}, nil
	})
	s := newTestServer(t, state)
	conn := s.dial(t)

	msg := read(t, conn)
	assert.Equal(t, TypeState, msg.Type)
	assert.JSONEq(t, `{"status":"idle"}`, string(msg.Data))

	listener := s.manager.TimerListener()
	listener(timer.Event{Type: timer.EventTick, Snapshot: timer.Snapshot{Remaining: 1499, Display: "24:59"}})

	msg = read(t, conn)
	assert.Equal(t, "timer.tick", msg.Type)
	assert.Equal(t, now, msg.Timestamp)
	var snap timer.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, 1499, snap.Remaining)

	s.manager.ProgressSink()(progress.View{})
	assert.Equal(t, TypeProgressRefresh, read(t, conn).Type)

	require.NoError(t, s.manager.Publish(context.Background(), events.Event{
		Type:    events.TypeRewardRedeemed,
		Payload: json.RawMessage(`{"reward_id":1}`),
	}))
	msg = read(t, conn)
	assert.Equal(t, events.TypeRewardRedeemed, msg.Type)
	assert.JSONEq(t, `{"reward_id":1}`, string(msg.Data))

	require.Eventually(t, func() bool {
		return s.manager.Stats().MessagesSent >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNoStateWithoutProvider(t *testing.T) {
	state := StateFunc(func(ctx context.Context) (any, error) {
		return nil, errors.New("no session")
	})
	s := newTestServer(t, state)
	conn := s.dial(t)

	s.manager.Broadcast("timer.started", map[string]int{"remaining_seconds": 1500})
	assert.Equal(t, "timer.started", read(t, conn).Type)
}

func TestDisconnectUnregisters(t *testing.T) {
	s := newTestServer(t, nil)
	conn := s.dial(t)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return s.manager.Stats().TotalConnections == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPingFollowsManagerClock(t *testing.T) {
	s := newTestServer(t, nil)
	conn := s.dial(t)

	pings := make(chan struct{}, 1)
	conn.SetPingHandler(func(string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return nil
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.clock.BlockUntilContext(ctx, 1))

	select {
	case <-pings:
		t.Fatal("ping sent before the interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	s.clock.Advance(DefaultConnectionConfig().PingInterval)
	select {
	case <-pings:
	case <-time.After(2 * time.Second):
		t.Fatal("no ping after advancing the clock")
	}
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	config := DefaultConnectionConfig()
	config.BroadcastBuffer = 1
	cm := NewConnectionManager(config, clockwork.NewFakeClockAt(now), nil)

	cm.Broadcast("a", 1)
	cm.Broadcast("b", 2)

	stats := cm.Stats()
	assert.Equal(t, 1, stats.QueueDepth)
	assert.Equal(t, uint64(1), stats.MessagesDropped)
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.dial(t)

	resp, err := http.Get(s.server.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalConnections)
}

func TestNATSRelayProcessMessage(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), clockwork.NewFakeClockAt(now), nil)
	relay := NewNATSRelay(cm, nil, "")

	require.NoError(t, relay.processMessage("nexora.session.completed", []byte(`{"event_type":"session.completed","payload":{"minutes":25}}`)))
	msg := <-cm.broadcastCh
	assert.Equal(t, events.TypeSessionCompleted, msg.Type)
	assert.JSONEq(t, `{"minutes":25}`, string(msg.Data))

	require.NoError(t, relay.processMessage("nexora.distraction.blocked", []byte(`{"payload":{}}`)))
	assert.Equal(t, events.TypeDistractionBlocked, (<-cm.broadcastCh).Type)

	assert.Error(t, relay.processMessage("nexora.x", []byte(`not json`)))
	assert.NoError(t, relay.Stop())
}
