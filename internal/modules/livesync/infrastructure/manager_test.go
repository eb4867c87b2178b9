package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ventasWs/internal/modules/livesync/application"
	"ventasWs/internal/modules/livesync/domain"
	"ventasWs/internal/modules/realtime/application/usecase"
	realtime "ventasWs/internal/modules/realtime/domain"
	realtimeinfra "ventasWs/internal/modules/realtime/infrastructure"
	realtimehttp "ventasWs/internal/modules/realtime/interface"
)

type failingDialer struct {
	calls atomic.Int32
}

func (d *failingDialer) DialContext(context.Context, string, http.Header) (*websocket.Conn, *http.Response, error) {
	d.calls.Add(1)
	return nil, nil, errors.New("connection refused")
}

type hubServer struct {
	srv      *httptest.Server
	hub      *realtimeinfra.Hub
	notifier *usecase.ChangeNotifier
	echo     *echo.Echo
}

func newHubServer(t *testing.T) *hubServer {
	t.Helper()
	hub := realtimeinfra.NewHub("")
	e := echo.New()
	ws := realtimehttp.NewWebsocketHandler(hub, realtimehttp.WebsocketOptions{SendBuffer: 16})
	e.GET("/ws", ws)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &hubServer{srv: srv, hub: hub, notifier: usecase.NewChangeNotifier(hub, ""), echo: e}
}

func (s *hubServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScheduleBackOffStopsAfterLastDelay(t *testing.T) {
	b := newScheduleBackOff(time.Second, 2*time.Second)
	if got := b.NextBackOff(); got != time.Second {
		t.Fatalf("unexpected first delay: %s", got)
	}
	if got := b.NextBackOff(); got != 2*time.Second {
		t.Fatalf("unexpected second delay: %s", got)
	}
	if got := b.NextBackOff(); got != backoff.Stop {
		t.Fatalf("expected stop, got %s", got)
	}
	b.Reset()
	if got := b.NextBackOff(); got != time.Second {
		t.Fatalf("reset did not rewind: %s", got)
	}
}

func TestManagerBoundedReconnectAttempts(t *testing.T) {
	dialer := &failingDialer{}
	m := NewManager(Options{
		URL:                  "ws://127.0.0.1:1/ws",
		Dialer:               dialer,
		ReconnectDelays:      []time.Duration{},
		ManualRetryDelay:     5 * time.Millisecond,
		MaxReconnectAttempts: 3,
	}, application.NewTopicRegistry())

	var mu sync.Mutex
	var states []domain.ConnectionState
	m.OnStateChange(func(s domain.ConnectionState) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail")
	}
	waitFor(t, "terminal state", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) > 0 && states[len(states)-1] == domain.StateDisconnected
	})

	time.Sleep(50 * time.Millisecond)
	if got := dialer.calls.Load(); got != 4 {
		t.Fatalf("expected 1 start + 3 retries, got %d dials", got)
	}
	if m.IsConnected() || m.State() != domain.StateDisconnected {
		t.Fatalf("unexpected state %s", m.State())
	}

	mu.Lock()
	defer mu.Unlock()
	want := []domain.ConnectionState{domain.StateConnecting, domain.StateReconnecting, domain.StateDisconnected}
	if len(states) != len(want) {
		t.Fatalf("unexpected transitions: %v", states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("unexpected transitions: %v", states)
		}
	}
}

func TestManagerStopCancelsRetries(t *testing.T) {
	dialer := &failingDialer{}
	m := NewManager(Options{
		URL:                  "ws://127.0.0.1:1/ws",
		Dialer:               dialer,
		ManualRetryDelay:     20 * time.Millisecond,
		MaxReconnectAttempts: 50,
	}, application.NewTopicRegistry())

	_ = m.Start(context.Background())
	m.Stop()
	calls := dialer.calls.Load()
	time.Sleep(100 * time.Millisecond)
	if got := dialer.calls.Load(); got != calls {
		t.Fatalf("retries kept running after stop: %d -> %d", calls, got)
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	m := NewManager(Options{URL: "ws://127.0.0.1:1/ws"}, application.NewTopicRegistry())
	m.Stop()
	m.Stop()
	if m.State() != domain.StateDisconnected {
		t.Fatalf("unexpected state %s", m.State())
	}

	s := newHubServer(t)
	live := NewManager(Options{URL: s.wsURL()}, application.NewTopicRegistry())
	if err := live.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "client attached", func() bool { return s.hub.Stats().Clients == 1 })

	live.Stop()
	live.Stop()
	waitFor(t, "client detached", func() bool { return s.hub.Stats().Clients == 0 })
	time.Sleep(50 * time.Millisecond)
	if s.hub.Stats().Clients != 0 || live.IsConnected() {
		t.Fatal("manager reconnected after stop")
	}
}

func TestManagerStartIsIdempotent(t *testing.T) {
	s := newHubServer(t)
	m := NewManager(Options{URL: s.wsURL()}, application.NewTopicRegistry())
	t.Cleanup(m.Stop)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Start(context.Background())
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start when connected: %v", err)
	}
	waitFor(t, "client attached", func() bool { return s.hub.Stats().Clients >= 1 })
	time.Sleep(50 * time.Millisecond)
	if got := s.hub.Stats().Clients; got != 1 {
		t.Fatalf("expected a single connection, got %d", got)
	}
}

func TestManagerJoinsConfiguredGroups(t *testing.T) {
	s := newHubServer(t)
	m := NewManager(Options{URL: s.wsURL(), Groups: []string{" Caja ", ""}}, application.NewTopicRegistry())
	t.Cleanup(m.Stop)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "group join", func() bool { return s.hub.Stats().Groups["Caja"] == 1 })

	if err := m.Join("Inventario"); err != nil {
		t.Fatalf("join: %v", err)
	}
	waitFor(t, "second group join", func() bool { return s.hub.Stats().Groups["Inventario"] == 1 })

	if err := m.Leave("Caja"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	waitFor(t, "group leave", func() bool { return s.hub.Stats().Groups["Caja"] == 0 })
}

func TestManagerReconnectsAfterDrop(t *testing.T) {
	s := newHubServer(t)
	registry := application.NewTopicRegistry()
	received := make(chan realtime.ChangeEvent, 4)
	registry.SubscribeFunc("Producto", func(event realtime.ChangeEvent) error {
		received <- event
		return nil
	})

	m := NewManager(Options{URL: s.wsURL()}, registry)
	t.Cleanup(m.Stop)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "client attached", func() bool { return s.hub.Stats().Clients == 1 })

	s.hub.Close()
	waitFor(t, "reconnect", func() bool { return s.hub.Stats().Clients == 1 && m.IsConnected() })

	s.notifier.Updated(context.Background(), "productos", map[string]any{"idProducto": 7, "stock": 3})
	select {
	case event := <-received:
		if event.EntityType != "Producto" || event.Action != realtime.ActionUpdated {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event after reconnect")
	}
}

func TestManagerIgnoresNonChangeFrames(t *testing.T) {
	registry := application.NewTopicRegistry()
	var calls atomic.Int32
	registry.SubscribeFunc(realtime.WildcardTopic, func(realtime.ChangeEvent) error {
		calls.Add(1)
		return nil
	})
	m := NewManager(Options{URL: "ws://unused"}, registry)

	m.handleFrame(domain.Frame{Event: realtime.EventSystemPong})
	m.handleFrame(domain.Frame{Event: realtime.EventEntityChanged, Data: []byte(`{"entityType":"","action":"created"}`)})
	m.handleFrame(domain.Frame{Event: "Other"})
	m.handleFrame(domain.Frame{Event: realtime.EventEntityChanged, Data: []byte(`{"entityType":"venta","action":"deleted","id":9}`)})

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one dispatched event, got %d", got)
	}
}

type rawServer struct {
	srv         *httptest.Server
	connections atomic.Int32
}

// newRawServer upgrades every request and hands the connection to serve.
func newRawServer(t *testing.T, serve func(n int32, conn *websocket.Conn)) *rawServer {
	t.Helper()
	rs := &rawServer{}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	rs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(rs.connections.Add(1), conn)
	}))
	t.Cleanup(rs.srv.Close)
	return rs
}

func (rs *rawServer) wsURL() string {
	return "ws" + strings.TrimPrefix(rs.srv.URL, "http")
}

func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestManagerSkipsMalformedFrames(t *testing.T) {
	rs := newRawServer(t, func(_ int32, conn *websocket.Conn) {
		frames := []string{
			`{"event":"system.connected","timestamp":"not-a-time"}`,
			`not json`,
			`{"event":"EntityChanged","group":"DataSync","data":{"entityType":"Producto","action":"created","data":{"idProducto":1}}}`,
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		drain(conn)
	})

	registry := application.NewTopicRegistry()
	received := make(chan realtime.ChangeEvent, 1)
	registry.SubscribeFunc("Producto", func(event realtime.ChangeEvent) error {
		received <- event
		return nil
	})
	m := NewManager(Options{URL: rs.wsURL()}, registry)
	t.Cleanup(m.Stop)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case event := <-received:
		if event.Action != realtime.ActionCreated {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame after malformed ones was not delivered")
	}
	if got := rs.connections.Load(); got != 1 || !m.IsConnected() {
		t.Fatalf("malformed frames dropped the connection: connections=%d state=%s", got, m.State())
	}
}

type gatedDialer struct {
	open  atomic.Bool
	calls atomic.Int32
}

func (d *gatedDialer) DialContext(ctx context.Context, url string, h http.Header) (*websocket.Conn, *http.Response, error) {
	d.calls.Add(1)
	if !d.open.Load() {
		return nil, nil, errors.New("connection refused")
	}
	return websocket.DefaultDialer.DialContext(ctx, url, h)
}

func TestManagerLeavesConnectedStateOnDrop(t *testing.T) {
	release := make(chan struct{})
	rs := newRawServer(t, func(n int32, conn *websocket.Conn) {
		if n == 1 {
			<-release
			return
		}
		drain(conn)
	})
	dialer := &gatedDialer{}
	dialer.open.Store(true)

	m := NewManager(Options{
		URL:              rs.wsURL(),
		Dialer:           dialer,
		ReconnectDelays:  []time.Duration{time.Hour},
		ManualRetryDelay: time.Hour,
	}, application.NewTopicRegistry())
	t.Cleanup(m.Stop)

	var sawReconnecting atomic.Bool
	m.OnStateChange(func(s domain.ConnectionState) {
		if s == domain.StateReconnecting {
			sawReconnecting.Store(true)
		}
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	dialer.open.Store(false)
	close(release)
	waitFor(t, "immediate reconnect attempt", func() bool { return dialer.calls.Load() >= 2 })

	if m.IsConnected() || m.State() != domain.StateReconnecting || !sawReconnecting.Load() {
		t.Fatalf("unexpected state after drop: %s", m.State())
	}

	dialer.open.Store(true)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if !m.IsConnected() {
		t.Fatalf("start after drop did not reconnect: state=%s", m.State())
	}
	waitFor(t, "second connection", func() bool { return rs.connections.Load() == 2 })
}

func TestManagerLeaveIgnoresBlankGroup(t *testing.T) {
	commands := make(chan realtime.Command, 4)
	rs := newRawServer(t, func(_ int32, conn *websocket.Conn) {
		for {
			var cmd realtime.Command
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			commands <- cmd
		}
	})
	m := NewManager(Options{URL: rs.wsURL()}, application.NewTopicRegistry())
	t.Cleanup(m.Stop)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Leave("  "); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := m.Leave("Caja"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	select {
	case cmd := <-commands:
		if cmd.Action != "leaveGroup" || cmd.Group != "Caja" {
			t.Fatalf("unexpected first command: %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no command received")
	}
}
