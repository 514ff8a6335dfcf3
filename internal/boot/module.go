// Package boot composes one signed-in chat session with fx.
package boot

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/chatterm/internal/api"
	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/composer"
	"github.com/matheus3301/chatterm/internal/config"
	"github.com/matheus3301/chatterm/internal/conversation"
	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/lock"
	"github.com/matheus3301/chatterm/internal/profile"
	"github.com/matheus3301/chatterm/internal/realtime"
	"github.com/matheus3301/chatterm/internal/roster"
	"github.com/matheus3301/chatterm/internal/status"
)

// Params holds the resolved profile passed to the fx module.
type Params struct {
	ProfileName string
	Profile     config.Profile
	// Binary is recorded as the owner of the profile lock.
	Binary string
	// SkipLock leaves the profile lock alone; one-shot CLI commands that
	// never open a socket use it.
	SkipLock bool
}

// Module returns the fx module for a session. The logger is supplied by the
// caller so that startup failures are logged where the binary wants them.
func Module(p Params) fx.Option {
	return fx.Module("session",
		fx.Supply(p),
		fx.Provide(
			provideBus,
			provideStateMachine,
			provideRootContext,
			provideLock,
			provideAPI,
			provideRealtime,
			provideRoster,
			provideView,
			provideComposer,
			provideTyping,
			provideController,
		),
		fx.Invoke(registerLifecycle),
	)
}

// rootContext scopes background work (the group-details cache janitor) to
// the fx app's lifetime.
type rootContext struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func provideRootContext() *rootContext {
	ctx, cancel := context.WithCancel(context.Background())
	return &rootContext{ctx: ctx, cancel: cancel}
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func identity(p Params) domain.Identity {
	return domain.Identity{UserID: p.Profile.UserID, Username: p.Profile.Username}
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if p.SkipLock {
		return nil, nil
	}
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName), p.Binary)
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.String("path", l.Path()))
	return l, nil
}

func provideAPI(p Params, logger *zap.Logger) (*api.Client, error) {
	return api.New(api.Options{
		BaseURL:       p.Profile.ServerURL,
		SessionCookie: p.Profile.SessionCookie,
		Timeout:       p.Profile.Timeout(),
		Logger:        logger.Named("api"),
	})
}

func provideRealtime(p Params, m *status.Machine, b *bus.Bus, logger *zap.Logger) (*realtime.Manager, error) {
	return realtime.New(realtime.Options{
		ServerURL:     p.Profile.ServerURL,
		UserID:        p.Profile.UserID,
		SessionCookie: p.Profile.SessionCookie,
	}, m, b, logger.Named("realtime"))
}

func provideRoster(rc *rootContext, client *api.Client, b *bus.Bus, logger *zap.Logger) *roster.Store {
	return roster.New(rc.ctx, client, b, logger.Named("roster"))
}

func provideView(b *bus.Bus) *conversation.View {
	return conversation.New(b)
}

func provideComposer(p Params, client *api.Client, rt *realtime.Manager, b *bus.Bus, logger *zap.Logger) *composer.Composer {
	return composer.New(identity(p), client, rt, b, logger.Named("composer"))
}

func provideTyping(p Params, rt *realtime.Manager, logger *zap.Logger) *composer.Typing {
	return composer.NewTyping(identity(p), rt, composer.TypingTimeout, logger.Named("typing"))
}

func provideController(
	p Params,
	client *api.Client,
	rt *realtime.Manager,
	r *roster.Store,
	v *conversation.View,
	c *composer.Composer,
	t *composer.Typing,
	b *bus.Bus,
	logger *zap.Logger,
) *chat.Controller {
	return chat.New(chat.Options{
		Self:        identity(p),
		DownloadDir: p.Profile.DownloadDir,
	}, client, rt, r, v, c, t, b, logger.Named("chat"))
}

func registerLifecycle(lc fx.Lifecycle, p Params, rc *rootContext, lk *lock.Lock, rt *realtime.Manager, ctl *chat.Controller, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The controller subscribes before the socket dials so the first
			// conn.connected is not missed.
			ctl.Start(rc.ctx)
			rt.Start(rc.ctx)
			logger.Info("session started",
				zap.String("server", p.Profile.ServerURL),
				zap.Int64("user_id", p.Profile.UserID),
				zap.String("client_id", rt.ClientID()),
			)
			return nil
		},
		OnStop: func(_ context.Context) error {
			ctl.Stop()
			rt.Stop()
			rc.cancel()
			if lk != nil {
				if err := lk.Release(); err != nil {
					logger.Warn("error releasing lock", zap.Error(err))
				}
			}
			logger.Info("session stopped")
			return nil
		},
	})
}
