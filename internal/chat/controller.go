// Package chat is the session controller. It owns every piece of mutable
// session state (roster, active pane, composer, typing timer), consumes the
// inbound real-time events, and exposes the operations the views call.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matheus3301/chatterm/internal/api"
	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/composer"
	"github.com/matheus3301/chatterm/internal/conversation"
	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/event"
	"github.com/matheus3301/chatterm/internal/logging"
	"github.com/matheus3301/chatterm/internal/roster"
)

// API is the HTTP surface the controller uses.
type API interface {
	roster.Fetcher
	SearchUsers(ctx context.Context, query string) ([]domain.SearchResult, error)
	AddContact(ctx context.Context, userID int64) error
	CreateGroup(ctx context.Context, name string, members []int64, privacy string) (int64, error)
	LeaveGroup(ctx context.Context, groupID int64) error
	DeleteGroup(ctx context.Context, groupID int64) error
	RemoveMember(ctx context.Context, groupID, memberID int64) error
	GroupMessages(ctx context.Context, groupID int64) ([]domain.Message, error)
	History(ctx context.Context, contactID int64) ([]domain.Message, error)
	DeleteMessage(ctx context.Context, msgID int64) error
	EditMessage(ctx context.Context, msgID int64, content string) error
	Download(ctx context.Context, storedPath, name string, w io.Writer) (int64, error)
	DownloadURL(storedPath, name string) string
}

// Socket is the real-time connection.
type Socket interface {
	Emit(o event.Outbound) error
	Connected() bool
}

// Options holds per-session settings.
type Options struct {
	Self        domain.Identity
	DownloadDir string
}

// Controller coordinates one signed-in session.
type Controller struct {
	self        domain.Identity
	downloadDir string

	api      API
	socket   Socket
	roster   *roster.Store
	view     *conversation.View
	composer *composer.Composer
	typing   *composer.Typing
	bus      *bus.Bus
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// selectMu orders pane switches: the typing flush and the pane flip of
	// one selection complete before the next selection starts.
	selectMu sync.Mutex
}

// New wires a controller from its parts.
func New(
	opts Options,
	client API,
	socket Socket,
	r *roster.Store,
	v *conversation.View,
	c *composer.Composer,
	t *composer.Typing,
	b *bus.Bus,
	logger *zap.Logger,
) *Controller {
	logger = logging.OrNop(logger)
	return &Controller{
		self:        opts.Self,
		downloadDir: opts.DownloadDir,
		api:         client,
		socket:      socket,
		roster:      r,
		view:        v,
		composer:    c,
		typing:      t,
		bus:         b,
		logger:      logger,
	}
}

// Self returns the signed-in user.
func (c *Controller) Self() domain.Identity { return c.self }

// Roster returns the contact and group lists.
func (c *Controller) Roster() *roster.Store { return c.roster }

// View returns the active pane.
func (c *Controller) View() *conversation.View { return c.view }

// Composer returns the composer state.
func (c *Controller) Composer() composer.State { return c.composer.State() }

// Start subscribes to inbound events and triggers the initial load in the
// background. Load failures become notices; nothing here is fatal.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	rt, unsubRT := c.bus.Subscribe(bus.NamespaceRealtime, 256)
	conn, unsubConn := c.bus.Subscribe(bus.KindConnected, 4)

	go func() {
		defer close(c.done)
		defer unsubRT()
		defer unsubConn()
		for {
			select {
			case evt := <-rt:
				c.handleEvent(evt)
			case <-conn:
				c.rejoinGroups()
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		if err := c.Reload(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("initial load incomplete", zap.Error(err))
		}
	}()
}

// Stop ends event processing and clears a live typing signal.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	c.typing.Stop()
	cancel()
	<-done
}

// Reload fetches contacts and groups in parallel.
func (c *Controller) Reload(ctx context.Context) error {
	// One failing list must not cancel the other.
	var g errgroup.Group
	g.Go(func() error { return c.LoadContacts(ctx) })
	g.Go(func() error { return c.LoadGroups(ctx) })
	return g.Wait()
}

// LoadContacts refreshes the contact list.
func (c *Controller) LoadContacts(ctx context.Context) error {
	if err := c.roster.LoadContacts(ctx); err != nil {
		return c.fail("Failed to load contacts", err)
	}
	return nil
}

// LoadGroups refreshes the group list and joins every group room.
func (c *Controller) LoadGroups(ctx context.Context) error {
	if err := c.roster.LoadGroups(ctx); err != nil {
		return c.fail("Failed to load groups", err)
	}
	c.rejoinGroups()
	return nil
}

func (c *Controller) rejoinGroups() {
	if !c.socket.Connected() {
		return
	}
	for _, g := range c.roster.Groups() {
		if err := c.socket.Emit(event.JoinGroup{UserID: c.self.UserID, GroupID: g.GroupID}); err != nil {
			c.logger.Warn("join group room", zap.Int64("group_id", g.GroupID), zap.Error(err))
			return
		}
	}
}

func (c *Controller) info(text string) {
	c.bus.Emit(bus.KindNoticeInfo, text)
}

// fail logs err, shows "<what>: <reason>" as an error notice and returns err
// wrapped with what.
func (c *Controller) fail(what string, err error) error {
	c.logger.Warn(what, zap.Error(err))
	c.bus.Emit(bus.KindNoticeError, fmt.Sprintf("%s: %s", what, reason(err)))
	return fmt.Errorf("%s: %w", what, err)
}

func reason(err error) string {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, api.ErrUnauthenticated):
		return "session expired, update session_cookie in the profile"
	}
	return err.Error()
}
