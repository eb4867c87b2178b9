package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"ventasWs/internal/modules/livesync/domain"
	realtime "ventasWs/internal/modules/realtime/domain"
)

// ErrStopped is returned by a connection attempt superseded by Stop or a newer Start.
var ErrStopped = errors.New("connection manager stopped")

const writeWait = 10 * time.Second

// Dialer opens the websocket. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

type Options struct {
	URL    string
	Groups []string
	Header http.Header

	// HandshakeTimeout bounds every connection attempt.
	HandshakeTimeout time.Duration
	// ReconnectDelays are waited between automatic attempts after a drop. The
	// first attempt after a drop is immediate.
	ReconnectDelays []time.Duration
	// ManualRetryDelay and MaxReconnectAttempts drive the fallback retries
	// used once the automatic schedule is spent or a Start fails.
	ManualRetryDelay     time.Duration
	MaxReconnectAttempts int

	Dialer Dialer
}

func (o Options) withDefaults() Options {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.ReconnectDelays == nil {
		o.ReconnectDelays = []time.Duration{2 * time.Second, 10 * time.Second, 30 * time.Second}
	}
	if o.ManualRetryDelay <= 0 {
		o.ManualRetryDelay = 5 * time.Second
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = 5
	}
	if o.Dialer == nil {
		o.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: o.HandshakeTimeout,
		}
	}
	return o
}

type attempt struct {
	done chan struct{}
	err  error
}

// Manager owns one logical websocket connection: it connects, joins the
// configured groups, hands every EntityChanged frame to the dispatcher and
// reconnects on unexpected drops with a bounded number of attempts.
type Manager struct {
	opts       Options
	dispatcher domain.Dispatcher

	mu          sync.Mutex
	state       domain.ConnectionState
	conn        *websocket.Conn
	epoch       uint64
	inflight    *attempt
	cancelRetry context.CancelFunc
	groups      []string
	listeners   []func(domain.ConnectionState)

	writeMu sync.Mutex
}

// NewManager crea el gestor de conexión. No conecta hasta que se llama a Start.
func NewManager(opts Options, dispatcher domain.Dispatcher) *Manager {
	opts = opts.withDefaults()
	groups := make([]string, 0, len(opts.Groups))
	for _, g := range opts.Groups {
		if g = realtime.NormalizeGroup(g); g != "" {
			groups = append(groups, g)
		}
	}
	return &Manager{opts: opts, dispatcher: dispatcher, groups: groups}
}

// OnStateChange registers fn to be called after every state transition.
func (m *Manager) OnStateChange(fn func(domain.ConnectionState)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func (m *Manager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) IsConnected() bool { return m.State() == domain.StateConnected }

// Start connects. It is a no-op when already connected and joins the attempt
// in flight when one exists. A failed Start schedules the fallback retries and
// returns the dial error; calling Start again is always allowed.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state == domain.StateConnected {
		m.mu.Unlock()
		return nil
	}
	if a := m.inflight; a != nil {
		m.mu.Unlock()
		select {
		case <-a.done:
			return a.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	cancel := m.cancelRetry
	m.cancelRetry = nil
	m.epoch++
	epoch := m.epoch
	a := &attempt{done: make(chan struct{})}
	m.inflight = a
	notify := m.setStateLocked(domain.StateConnecting)
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	notify()

	err := m.connect(ctx, epoch)

	m.mu.Lock()
	m.inflight = nil
	a.err = err
	close(a.done)
	m.mu.Unlock()

	if err != nil {
		if !errors.Is(err, ErrStopped) {
			slog.Warn("livesync connect failed", slog.String("url", m.opts.URL), slog.Any("error", err))
			m.scheduleRetries(epoch, false)
		}
		return err
	}
	return nil
}

// Stop closes the connection and cancels pending retries. It is safe to call
// repeatedly and before Start.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.epoch++
	cancel := m.cancelRetry
	m.cancelRetry = nil
	conn := m.conn
	m.conn = nil
	notify := m.setStateLocked(domain.StateDisconnected)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		m.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		m.writeMu.Unlock()
		_ = conn.Close()
	}
	notify()
}

// Join adds group to the joined set, announcing it when connected.
func (m *Manager) Join(group string) error {
	group = realtime.NormalizeGroup(group)
	if group == "" {
		return nil
	}
	m.mu.Lock()
	known := false
	for _, g := range m.groups {
		known = known || g == group
	}
	if !known {
		m.groups = append(m.groups, group)
	}
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return nil
	}
	return m.send(conn, realtime.Command{Action: "joinGroup", Group: group})
}

// Leave removes group from the joined set, announcing it when connected.
func (m *Manager) Leave(group string) error {
	group = realtime.NormalizeGroup(group)
	if group == "" {
		return nil
	}
	m.mu.Lock()
	kept := m.groups[:0]
	for _, g := range m.groups {
		if g != group {
			kept = append(kept, g)
		}
	}
	m.groups = kept
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return nil
	}
	return m.send(conn, realtime.Command{Action: "leaveGroup", Group: group})
}

func (m *Manager) connect(ctx context.Context, epoch uint64) error {
	dialCtx, cancel := context.WithTimeout(ctx, m.opts.HandshakeTimeout)
	conn, resp, err := m.opts.Dialer.DialContext(dialCtx, m.opts.URL, m.opts.Header)
	cancel()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", m.opts.URL, err)
	}

	m.mu.Lock()
	groups := append([]string(nil), m.groups...)
	current := m.epoch == epoch
	m.mu.Unlock()
	if !current {
		_ = conn.Close()
		return ErrStopped
	}

	for _, group := range groups {
		if err := m.send(conn, realtime.Command{Action: "joinGroup", Group: group}); err != nil {
			_ = conn.Close()
			return fmt.Errorf("join group %s: %w", group, err)
		}
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		_ = conn.Close()
		return ErrStopped
	}
	m.conn = conn
	notify := m.setStateLocked(domain.StateConnected)
	m.mu.Unlock()
	notify()

	slog.Info("livesync connected", slog.String("url", m.opts.URL), slog.Any("groups", groups))
	go m.readLoop(conn, epoch)
	return nil
}

func (m *Manager) send(conn *websocket.Conn, cmd realtime.Command) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(cmd)
}

func (m *Manager) readLoop(conn *websocket.Conn, epoch uint64) {
	var readErr error
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		var frame domain.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			slog.Warn("livesync frame skipped", slog.Int("bytes", len(raw)), slog.Any("error", err))
			continue
		}
		m.handleFrame(frame)
	}

	m.mu.Lock()
	if m.epoch != epoch || m.conn != conn {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.epoch++
	next := m.epoch
	notify := m.setStateLocked(domain.StateReconnecting)
	m.mu.Unlock()
	_ = conn.Close()
	notify()

	slog.Warn("livesync connection lost", slog.String("url", m.opts.URL), slog.Any("error", readErr))
	m.scheduleRetries(next, true)
}

func (m *Manager) handleFrame(frame domain.Frame) {
	switch frame.Event {
	case realtime.EventEntityChanged:
		event, err := domain.DecodeChangeEvent(frame.Data)
		if err != nil {
			slog.Warn("livesync event dropped", slog.Any("error", err))
			return
		}
		m.dispatcher.Dispatch(event)
	case realtime.EventSystemError:
		slog.Warn("livesync server error", slog.String("data", string(frame.Data)))
	default:
		if strings.HasPrefix(frame.Event, realtime.SystemEntity+".") {
			slog.Debug("livesync system frame", slog.String("event", frame.Event))
			return
		}
		slog.Debug("livesync frame ignored", slog.String("event", frame.Event), slog.String("group", frame.Group))
	}
}

// scheduleRetries runs the reconnect attempts for epoch in the background.
// After a drop the automatic schedule runs first; the fallback retries follow.
func (m *Manager) scheduleRetries(epoch uint64, automatic bool) {
	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		cancel()
		return
	}
	m.cancelRetry = cancel
	notify := m.setStateLocked(domain.StateReconnecting)
	m.mu.Unlock()
	notify()

	go func() {
		defer cancel()
		connected := false
		if automatic {
			connected = m.retryScheduled(ctx, epoch)
		}
		if !connected {
			connected = m.retryManual(ctx, epoch)
		}
		if connected {
			return
		}

		m.mu.Lock()
		if m.epoch != epoch {
			m.mu.Unlock()
			return
		}
		m.cancelRetry = nil
		notify := m.setStateLocked(domain.StateDisconnected)
		m.mu.Unlock()
		notify()
		slog.Error("livesync reconnect attempts exhausted", slog.String("url", m.opts.URL), slog.Int("maxAttempts", m.opts.MaxReconnectAttempts))
	}()
}

// retryScheduled attempts immediately and then after each ReconnectDelays entry.
func (m *Manager) retryScheduled(ctx context.Context, epoch uint64) bool {
	operation := func() error {
		err := m.connect(ctx, epoch)
		if errors.Is(err, ErrStopped) || ctx.Err() != nil {
			return backoff.Permanent(ErrStopped)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		slog.Info("livesync reconnect failed", slog.Duration("retryIn", wait), slog.Any("error", err))
	}
	b := backoff.WithContext(newScheduleBackOff(m.opts.ReconnectDelays...), ctx)
	return backoff.RetryNotify(operation, b, notify) == nil
}

// retryManual waits ManualRetryDelay before each of MaxReconnectAttempts attempts.
func (m *Manager) retryManual(ctx context.Context, epoch uint64) bool {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(m.opts.ManualRetryDelay), uint64(m.opts.MaxReconnectAttempts)), ctx)
	for attemptNo := 1; ; attemptNo++ {
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return false
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
		err := m.connect(ctx, epoch)
		if err == nil {
			return true
		}
		if errors.Is(err, ErrStopped) {
			return false
		}
		slog.Info("livesync manual reconnect failed", slog.Int("attempt", attemptNo), slog.Int("maxAttempts", m.opts.MaxReconnectAttempts), slog.Any("error", err))
	}
}

// setStateLocked records s and returns the listener notification to run
// once the lock is released.
func (m *Manager) setStateLocked(s domain.ConnectionState) func() {
	if m.state == s {
		return func() {}
	}
	m.state = s
	listeners := slices.Clone(m.listeners)
	return func() {
		for _, fn := range listeners {
			fn(s)
		}
	}
}
