package sio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrNotConnected is returned by Emit while no session is open.
	ErrNotConnected = errors.New("socket not connected")
	// ErrServerDisconnect means the server closed the socket on purpose.
	// The client does not reconnect after it.
	ErrServerDisconnect = errors.New("disconnected by server")
	errEngineClosed     = errors.New("engine closed by server")
)

// ConnectError is a CONNECT_ERROR answer to the namespace connect.
type ConnectError struct {
	Message string
}

func (e *ConnectError) Error() string { return "connect rejected: " + e.Message }

const (
	defaultPath              = "/socket.io/"
	defaultReconnectDelay    = time.Second
	defaultReconnectDelayMax = 5 * time.Second
	defaultRandomization     = 0.5
	defaultHandshakeTimeout  = 10 * time.Second
	writeTimeout             = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	// URL is the http(s) base URL of the server.
	URL    string
	Path   string
	Query  url.Values
	Header http.Header
	Dialer *websocket.Dialer

	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	Randomization     float64
	// NoReconnect makes Run return after the first session ends.
	NoReconnect bool

	HandshakeTimeout time.Duration
	Logger           *zap.Logger
}

// Handler receives session lifecycle callbacks. All fields are optional.
// Callbacks run on the Run goroutine.
type Handler struct {
	OnDial  func(attempt int)
	OnOpen  func(h Handshake)
	OnClose func(err error)
	OnEvent func(name string, data []byte)
}

// Client keeps one Socket.IO session alive and reconnects with backoff.
type Client struct {
	opts   Options
	h      Handler
	wsURL  string
	logger *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	writeMu sync.Mutex
}

// New validates the options and builds a client. It does not dial.
func New(opts Options, h Handler) (*Client, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if opts.Path == "" {
		opts.Path = defaultPath
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(opts.Path, "/")

	q := url.Values{}
	for k, v := range opts.Query {
		q[k] = v
	}
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()

	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.ReconnectDelayMax <= 0 {
		opts.ReconnectDelayMax = defaultReconnectDelayMax
	}
	if opts.Randomization < 0 || opts.Randomization >= 1 {
		opts.Randomization = defaultRandomization
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{opts: opts, h: h, wsURL: u.String(), logger: logger}, nil
}

// Run dials and serves sessions until ctx is cancelled, the server
// disconnects the client, or (with NoReconnect) the first session ends.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	bo := c.newBackOff()
	for {
		if c.h.OnDial != nil {
			c.h.OnDial(attempt)
		}
		opened, err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if opened {
			attempt = 0
			bo.Reset()
		}

		var cerr *ConnectError
		if errors.Is(err, ErrServerDisconnect) || errors.As(err, &cerr) || c.opts.NoReconnect {
			return err
		}

		delay := c.nextDelay(bo)
		attempt++
		c.logger.Info("socket reconnect scheduled",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Emit sends a named event. Payload nil sends the event name alone.
func (c *Client) Emit(name string, payload any) error {
	frame, err := encodeEvent(name, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return c.write(conn, frame)
}

// Connected reports whether a session is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) write(conn *websocket.Conn, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// session runs one connection from dial to close. opened reports whether the
// namespace handshake completed.
func (c *Client) session(ctx context.Context) (opened bool, err error) {
	conn, resp, err := c.opts.Dialer.DialContext(ctx, c.wsURL, c.opts.Header)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return false, fmt.Errorf("dial: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	hs, err := c.handshake(conn)
	if err != nil {
		return false, err
	}

	c.setConn(conn)
	c.logger.Info("socket connected", zap.String("sid", hs.SID))
	if c.h.OnOpen != nil {
		c.h.OnOpen(hs)
	}
	defer func() {
		c.setConn(nil)
		if c.h.OnClose != nil {
			c.h.OnClose(err)
		}
	}()

	idle := time.Duration(hs.PingInterval+hs.PingTimeout) * time.Millisecond
	for {
		if idle > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(idle))
		}
		_, msg, rerr := conn.ReadMessage()
		if rerr != nil {
			return true, fmt.Errorf("read: %w", rerr)
		}
		if herr := c.handleFrame(conn, msg); herr != nil {
			return true, herr
		}
	}
}

// handshake reads the engine open packet and connects the default namespace.
func (c *Client) handshake(conn *websocket.Conn) (Handshake, error) {
	_ = conn.SetReadDeadline(time.Now().Add(c.opts.HandshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return Handshake{}, fmt.Errorf("read open: %w", err)
	}
	hs, err := parseHandshake(msg)
	if err != nil {
		return hs, err
	}
	if err := c.write(conn, []byte{engineMessage, socketConnect}); err != nil {
		return hs, fmt.Errorf("namespace connect: %w", err)
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return hs, fmt.Errorf("read connect: %w", err)
		}
		if len(msg) == 0 {
			continue
		}
		switch msg[0] {
		case enginePing:
			if err := c.write(conn, []byte{enginePong}); err != nil {
				return hs, err
			}
			continue
		case engineClose:
			return hs, errEngineClosed
		case engineMessage:
		default:
			continue
		}
		p, err := parsePacket(msg[1:])
		if err != nil {
			return hs, err
		}
		switch p.Type {
		case socketConnect:
			return hs, nil
		case socketConnectError:
			return hs, &ConnectError{Message: connectErrorMessage(p.Data)}
		}
	}
}

func (c *Client) handleFrame(conn *websocket.Conn, msg []byte) error {
	if len(msg) == 0 {
		return nil
	}
	switch msg[0] {
	case enginePing:
		return c.write(conn, []byte{enginePong})
	case engineClose:
		return errEngineClosed
	case engineMessage:
	default:
		return nil
	}

	p, err := parsePacket(msg[1:])
	if err != nil {
		c.logger.Warn("dropping malformed packet", zap.Error(err))
		return nil
	}
	if p.Namespace != "/" {
		return nil
	}
	switch p.Type {
	case socketDisconnect:
		return ErrServerDisconnect
	case socketEvent:
		name, data, err := eventArgs(p.Data)
		if err != nil {
			c.logger.Warn("dropping malformed event", zap.Error(err))
			return nil
		}
		if c.h.OnEvent != nil {
			c.h.OnEvent(name, data)
		}
	case socketBinaryEvent, socketBinaryAck:
		c.logger.Debug("ignoring binary packet")
	}
	return nil
}

// newBackOff builds the reconnect schedule: the base delay doubled per
// failed attempt, jittered by Randomization, with no overall deadline.
func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.ReconnectDelay
	b.MaxInterval = c.opts.ReconnectDelayMax
	b.RandomizationFactor = c.opts.Randomization
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// nextDelay keeps the jittered delay under the configured max.
func (c *Client) nextDelay(b backoff.BackOff) time.Duration {
	return min(b.NextBackOff(), c.opts.ReconnectDelayMax)
}
