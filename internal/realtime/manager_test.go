package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/event"
	"github.com/matheus3301/chatterm/internal/sio"
	"github.com/matheus3301/chatterm/internal/status"
)

type handshakeInfo struct {
	userID   string
	cookie   string
	clientID string
}

func startServer(t *testing.T) (*httptest.Server, <-chan *websocket.Conn, <-chan handshakeInfo) {
	t.Helper()
	conns := make(chan *websocket.Conn, 2)
	infos := make(chan handshakeInfo, 2)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		infos <- handshakeInfo{
			userID:   r.URL.Query().Get("user_id"),
			cookie:   r.Header.Get("Cookie"),
			clientID: r.Header.Get(ClientIDHeader),
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`0{"sid":"s1","upgrades":[],"pingInterval":25000,"pingTimeout":20000}`))
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"n1"}`))
		conns <- conn
	}))
	t.Cleanup(srv.Close)
	return srv, conns, infos
}

func waitEvent(t *testing.T, ch <-chan bus.Event, kind string) bus.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Kind == kind {
				return evt
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestManagerLifecycle(t *testing.T) {
	srv, conns, infos := startServer(t)
	b := bus.New()
	machine := status.NewMachine(b)
	events, unsub := b.Subscribe("", 64)
	defer unsub()

	m, err := New(Options{ServerURL: srv.URL, UserID: 7, SessionCookie: "abc123"}, machine, b, zap.NewNop())
	require.NoError(t, err)
	assert.ErrorIs(t, m.Emit(event.Typing{SenderID: 7, ReceiverID: 2}), ErrNotConnected)

	m.Start(context.Background())
	conn := <-conns
	defer conn.Close()

	info := <-infos
	assert.Equal(t, "7", info.userID)
	assert.Equal(t, "session=abc123", info.cookie)
	assert.Equal(t, m.ClientID(), info.clientID)

	waitEvent(t, events, bus.KindConnected)
	assert.Equal(t, status.Online, m.State())

	// The presence snapshot is requested on every connect.
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `42["get_online_users"]`, string(msg))

	// Invalid payloads are dropped; valid ones are republished.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`42["user_online",{}]`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`42["user_online",{"user_id":3}]`)))
	evt := waitEvent(t, events, bus.Realtime(event.NameUserOnline))
	assert.Equal(t, event.Presence{UserID: 3, Status: domain.Online}, evt.Payload)

	require.NoError(t, m.Emit(event.MarkRead{UserID: 7, ContactID: 3}))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `42["mark_read",{"user_id":7,"contact_id":3}]`, string(msg))

	m.Stop()
	assert.Equal(t, status.Closed, m.State())
}

func TestManagerReconnectStates(t *testing.T) {
	srv, conns, _ := startServer(t)
	b := bus.New()
	machine := status.NewMachine(b)
	events, unsub := b.Subscribe(bus.NamespaceConn, 64)
	defer unsub()

	m, err := New(Options{
		ServerURL: srv.URL,
		UserID:    1,
		Dial:      sio.Options{ReconnectDelay: 10 * time.Millisecond},
	}, machine, b, zap.NewNop())
	require.NoError(t, err)
	m.Start(context.Background())
	defer m.Stop()

	conn := <-conns
	waitEvent(t, events, bus.KindConnected)
	conn.Close()

	evt := waitEvent(t, events, bus.KindDisconnected)
	_, ok := evt.Payload.(DisconnectInfo)
	assert.True(t, ok)

	conn2 := <-conns
	defer conn2.Close()
	waitEvent(t, events, bus.KindConnected)
	assert.Equal(t, status.Online, m.State())
}

func TestNewRejectsInvalidUser(t *testing.T) {
	_, err := New(Options{ServerURL: "http://localhost", UserID: 0}, status.NewMachine(nil), bus.New(), zap.NewNop())
	assert.Error(t, err)
}

func TestCookieHeader(t *testing.T) {
	assert.Equal(t, "", cookieHeader(" "))
	assert.Equal(t, "session=x", cookieHeader("x"))
	assert.Equal(t, "session=x; other=y", cookieHeader("session=x; other=y"))
}
