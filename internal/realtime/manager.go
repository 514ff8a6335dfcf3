// Package realtime owns the socket connection to the chat server. It drives
// the connection state machine and republishes validated inbound events on
// the bus under "rt.<event name>".
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/event"
	"github.com/matheus3301/chatterm/internal/logging"
	"github.com/matheus3301/chatterm/internal/sio"
	"github.com/matheus3301/chatterm/internal/status"
)

// ErrNotConnected is returned by Emit while the socket is not connected.
var ErrNotConnected = errors.New("not connected to the chat server")

// ClientIDHeader carries the per-process client id on the handshake.
const ClientIDHeader = "X-Client-Id"

// Options configures the connection.
type Options struct {
	ServerURL string
	UserID    int64
	// SessionCookie is the value of the server's "session" cookie, or a full
	// "name=value" cookie string.
	SessionCookie string
	// Dial overrides the transport options, mostly for tests.
	Dial sio.Options
}

// DisconnectInfo is the payload of bus.KindDisconnected.
type DisconnectInfo struct {
	Err error
}

// Manager keeps the socket alive for the lifetime of the session.
type Manager struct {
	client   *sio.Client
	machine  *status.Machine
	bus      *bus.Bus
	logger   *zap.Logger
	clientID string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a manager. Nothing is dialed until Start.
func New(opts Options, machine *status.Machine, b *bus.Bus, logger *zap.Logger) (*Manager, error) {
	if opts.UserID <= 0 {
		return nil, fmt.Errorf("invalid user id %d", opts.UserID)
	}
	m := &Manager{
		machine:  machine,
		bus:      b,
		clientID: uuid.NewString(),
	}
	m.logger = logging.OrNop(logger).With(zap.String("client_id", m.clientID))

	so := opts.Dial
	so.URL = opts.ServerURL
	q := url.Values{}
	for k, v := range so.Query {
		q[k] = v
	}
	q.Set("user_id", strconv.FormatInt(opts.UserID, 10))
	so.Query = q
	h := http.Header{}
	for k, v := range so.Header {
		h[k] = v
	}
	h.Set(ClientIDHeader, m.clientID)
	if c := cookieHeader(opts.SessionCookie); c != "" {
		h.Set("Cookie", c)
	}
	so.Header = h
	if so.Randomization == 0 {
		so.Randomization = 0.5
	}
	so.Logger = m.logger

	client, err := sio.New(so, sio.Handler{
		OnDial:  m.onDial,
		OnOpen:  m.onOpen,
		OnClose: m.onClose,
		OnEvent: m.onEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("socket client: %w", err)
	}
	m.client = client
	return m, nil
}

func cookieHeader(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.Contains(v, "=") {
		return v
	}
	return "session=" + v
}

// ClientID returns the id sent on every handshake.
func (m *Manager) ClientID() string { return m.clientID }

// State returns the current connection state.
func (m *Manager) State() status.State { return m.machine.Current() }

// Connected reports whether events can be emitted right now.
func (m *Manager) Connected() bool { return m.client.Connected() }

// Start runs the connection loop in the background.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		err := m.client.Run(ctx)
		if ctx.Err() == nil && err != nil {
			m.logger.Warn("socket stopped", zap.Error(err))
			m.bus.Emit(bus.KindNoticeError, "Connection closed: "+err.Error())
		}
		m.transition(status.Closed)
	}()
}

// Stop closes the connection and waits for the loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Emit sends an outbound event on the open socket.
func (m *Manager) Emit(o event.Outbound) error {
	err := m.client.Emit(o.EventName(), event.Payload(o))
	if errors.Is(err, sio.ErrNotConnected) {
		return ErrNotConnected
	}
	if err != nil {
		return fmt.Errorf("emit %s: %w", o.EventName(), err)
	}
	return nil
}

func (m *Manager) onDial(attempt int) {
	if m.machine.Is(status.Connecting) {
		// The previous dial failed before the session opened.
		m.transition(status.Reconnecting)
	}
	m.logger.Debug("dialing", zap.Int("attempt", attempt))
	m.transition(status.Connecting)
}

func (m *Manager) onOpen(h sio.Handshake) {
	m.transition(status.Online)
	if err := m.Emit(event.GetOnlineUsers{}); err != nil {
		m.logger.Warn("request presence snapshot", zap.Error(err))
	}
	m.bus.Emit(bus.KindConnected, h.SID)
}

func (m *Manager) onClose(err error) {
	m.logger.Info("socket disconnected", zap.Error(err))
	m.transition(status.Reconnecting)
	m.bus.Emit(bus.KindDisconnected, DisconnectInfo{Err: err})
}

func (m *Manager) onEvent(name string, data []byte) {
	evt, err := event.Decode(name, data)
	if err != nil {
		m.logger.Warn("dropping inbound event", zap.String("event", name), zap.Error(err))
		return
	}
	m.bus.Emit(bus.Realtime(name), evt)
}

func (m *Manager) transition(to status.State) {
	if m.machine.Is(to) {
		return
	}
	if err := m.machine.Transition(to); err != nil {
		m.logger.Debug("state transition skipped", zap.Error(err))
	}
}
