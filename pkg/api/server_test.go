package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NotCoffee418/p1plus_monitor/pkg/congestion"
	"github.com/NotCoffee418/p1plus_monitor/pkg/congestiondb"
	"github.com/NotCoffee418/p1plus_monitor/pkg/ledstrip"
	"github.com/NotCoffee418/p1plus_monitor/pkg/session"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu       sync.Mutex
	state    session.State
	err      error
	startErr error
	starts   int
	stops    int
}

func (f *fakeSession) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		f.state, f.err = session.Failed, f.startErr
		return f.startErr
	}
	f.state, f.err = session.Reading, nil
	return nil
}

func (f *fakeSession) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.state, f.err = session.Idle, nil
}

func (f *fakeSession) State() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

type fakeEvents struct {
	limit  int
	events []congestiondb.CongestionEvent
}

func (f *fakeEvents) RecentEvents(limit int) ([]congestiondb.CongestionEvent, error) {
	f.limit = limit
	return f.events, nil
}

type fixedIndicator ledstrip.Color

func (i fixedIndicator) Current() ledstrip.Color { return ledstrip.Color(i) }

func newTestServer(t *testing.T, opts Options) (*httptest.Server, Options) {
	t.Helper()
	if opts.Hub == nil {
		opts.Hub = NewHub(zerolog.Nop())
	}
	if opts.Demo == nil {
		opts.Demo = NewDemoFlag(false)
	}
	if opts.Session == nil {
		opts.Session = &fakeSession{}
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.NewRegistry()
	}
	opts.Logger = zerolog.Nop()
	srv := httptest.NewServer(NewHandler(opts))
	t.Cleanup(srv.Close)
	return srv, opts
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func sampleUpdate(currentL1 int64, curtailed bool) session.Update {
	message := "EAN0000000000000;;;;;;"
	if curtailed {
		message = "EAN0000000000000;;20;;;;"
	}
	return session.Update{
		ReceivedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Identifier: "E0000000000000001",
		CurrentL1:  currentL1,
		Limits:     congestion.Parse(message),
		Curtailed:  curtailed,
		Message:    message,
	}
}

func TestLatestBeforeAndAfterUpdate(t *testing.T) {
	srv, opts := newTestServer(t, Options{})

	status, body := do(t, http.MethodGet, srv.URL+"/latest", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No readings available yet", body["error"])

	opts.Hub.Show(sampleUpdate(12, true))

	status, body = do(t, http.MethodGet, srv.URL+"/latest", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(12), body["current_l1"])
	assert.Equal(t, true, body["curtailed"])
	assert.Equal(t, "E0000000000000001", body["identifier"])
	limits := body["limits"].(map[string]any)
	assert.Equal(t, "20", limits["voltage_limit_l2"])
}

func TestSessionRoutes(t *testing.T) {
	fake := &fakeSession{}
	srv, _ := newTestServer(t, Options{Session: fake})

	status, body := do(t, http.MethodGet, srv.URL+"/session", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "idle", body["state"])

	status, body = do(t, http.MethodPost, srv.URL+"/session/start", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "reading", body["state"])

	status, body = do(t, http.MethodPost, srv.URL+"/session/stop", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, 1, fake.starts)
	assert.Equal(t, 1, fake.stops)

	fake.startErr = errors.New("open source: no such device")
	status, body = do(t, http.MethodPost, srv.URL+"/session/start", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "failed", body["state"])
	assert.Equal(t, "open source: no such device", body["error"])
}

func TestDemoToggle(t *testing.T) {
	srv, opts := newTestServer(t, Options{})

	status, body := do(t, http.MethodPut, srv.URL+"/demo", `{"enabled": true}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["enabled"])
	assert.True(t, opts.Demo.DemoEnabled())

	_, body = do(t, http.MethodGet, srv.URL+"/demo", "")
	assert.Equal(t, true, body["enabled"])

	for _, bad := range []string{"", "{}", `{"enabled": "yes"}`} {
		status, _ = do(t, http.MethodPut, srv.URL+"/demo", bad)
		assert.Equal(t, http.StatusBadRequest, status, bad)
	}
	assert.True(t, opts.Demo.DemoEnabled())

	do(t, http.MethodPut, srv.URL+"/demo", `{"enabled": false}`)
	assert.False(t, opts.Demo.DemoEnabled())
}

func TestIndicatorRoute(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	status, _ := do(t, http.MethodGet, srv.URL+"/indicator", "")
	assert.Equal(t, http.StatusNotFound, status)

	srv, _ = newTestServer(t, Options{Indicator: fixedIndicator(ledstrip.Curtailed)})
	status, body := do(t, http.MethodGet, srv.URL+"/indicator", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"r": float64(205), "g": float64(0), "b": float64(255)}, body)
}

func TestCongestionEventsRoute(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	status, _ := do(t, http.MethodGet, srv.URL+"/congestion/events", "")
	assert.Equal(t, http.StatusNotFound, status)

	events := &fakeEvents{events: []congestiondb.CongestionEvent{{ID: 1, State: "curtailed"}}}
	srv, _ = newTestServer(t, Options{Events: events})

	resp, err := http.Get(srv.URL + "/congestion/events?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got []congestiondb.CongestionEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, events.events, got)
	assert.Equal(t, 5, events.limit)

	status, _ = do(t, http.MethodGet, srv.URL+"/congestion/events?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "p1plus_test_total"})
	reg.MustRegister(counter)
	counter.Inc()

	srv, _ := newTestServer(t, Options{Gatherer: reg})
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var sb strings.Builder
	_, err = io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "p1plus_test_total 1")
}

func TestWebSocketBroadcast(t *testing.T) {
	srv, opts := newTestServer(t, Options{})
	opts.Hub.Show(sampleUpdate(3, false))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() session.Update {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var u session.Update
		require.NoError(t, conn.ReadJSON(&u))
		return u
	}

	// The latest update is sent on connect.
	assert.Equal(t, int64(3), read().CurrentL1)

	require.Eventually(t, func() bool { return opts.Hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	opts.Hub.Show(sampleUpdate(9, true))
	got := read()
	assert.Equal(t, int64(9), got.CurrentL1)
	assert.True(t, got.Curtailed)

	conn.Close()
	require.Eventually(t, func() bool { return opts.Hub.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHubDropsStalledClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.WriteWait = 100 * time.Millisecond
	srv, _ := newTestServer(t, Options{Hub: hub})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	// The client never reads, so its socket buffers fill up.
	message := strings.Repeat("x", 64<<10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			hub.Show(session.Update{Message: message})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Show blocked on a client that stopped reading")
	}
	assert.Equal(t, 0, hub.Clients())
	assert.Equal(t, message, hub.Latest().Message)
}

func TestWebSocketUpdatesArriveInOrder(t *testing.T) {
	srv, opts := newTestServer(t, Options{})
	const last = 300

	go func() {
		for i := int64(1); i <= last; i++ {
			opts.Hub.Show(session.Update{CurrentL1: i})
		}
	}()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var previous int64
	for previous < last {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var u session.Update
		require.NoError(t, conn.ReadJSON(&u))
		require.Greater(t, u.CurrentL1, previous, "update %d arrived after %d", u.CurrentL1, previous)
		previous = u.CurrentL1
	}
}
