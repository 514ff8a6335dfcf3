// Package composer sends messages: it holds the pending attachment, uploads
// it before the send event goes out, and drives the typing indicator.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/event"
	"github.com/matheus3301/chatterm/internal/media"
)

// ErrTooLarge is returned by Attach for files above the upload limit.
var ErrTooLarge = media.ErrTooLarge

// ErrBusy is returned by Send while a previous send is still in flight.
var ErrBusy = errors.New("a message is already being sent")

// ErrNoTarget is returned when nothing is open to send to.
var ErrNoTarget = errors.New("no conversation selected")

// Uploader stores a local file on the server.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (*domain.FileDescriptor, error)
}

// Emitter sends real-time events.
type Emitter interface {
	Emit(o event.Outbound) error
}

// Target is the conversation a message or typing signal is addressed to.
type Target struct {
	Group bool
	ID    int64
}

// Valid reports whether the target names a conversation.
func (t Target) Valid() bool { return t.ID > 0 }

// State is the payload of bus.KindComposerChanged.
type State struct {
	Pending *media.Info
	Sending bool
}

// Composer sends messages for the signed-in user.
type Composer struct {
	self     domain.Identity
	uploader Uploader
	emitter  Emitter
	bus      *bus.Bus
	logger   *zap.Logger

	mu      sync.Mutex
	pending *media.Info
	sending bool
}

// New creates a composer.
func New(self domain.Identity, up Uploader, em Emitter, b *bus.Bus, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{self: self, uploader: up, emitter: em, bus: b, logger: logger}
}

func (c *Composer) publish() {
	if c.bus != nil {
		c.bus.Emit(bus.KindComposerChanged, c.State())
	}
}

// State returns the pending attachment and whether a send is in flight.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Pending: c.pending, Sending: c.sending}
}

// Attach selects a local file for the next send, replacing any previous
// one. Files above the limit are rejected before anything is uploaded.
func (c *Composer) Attach(path string) (*media.Info, error) {
	info, err := media.Inspect(path)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.pending = info
	c.mu.Unlock()
	c.publish()
	return info, nil
}

// Detach drops the pending attachment.
func (c *Composer) Detach() {
	c.mu.Lock()
	had := c.pending != nil
	c.pending = nil
	c.mu.Unlock()
	if had {
		c.publish()
	}
}

// Pending returns the attachment that will go with the next send, if any.
func (c *Composer) Pending() *media.Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Send sends text (and the pending attachment) to target. Blank text with
// no attachment is a no-op and returns false. On failure nothing is cleared,
// so the caller keeps the typed text and the attachment stays pending.
func (c *Composer) Send(ctx context.Context, to Target, text string) (bool, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	pending := c.pending
	if text == "" && pending == nil {
		c.mu.Unlock()
		return false, nil
	}
	if !to.Valid() {
		c.mu.Unlock()
		return false, ErrNoTarget
	}
	if c.sending {
		c.mu.Unlock()
		return false, ErrBusy
	}
	c.sending = true
	c.mu.Unlock()
	c.publish()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
		c.publish()
	}()

	var att event.Attachment
	if pending != nil {
		fd, err := c.uploader.UploadFile(ctx, pending.Path)
		if err != nil {
			c.logger.Warn("attachment upload failed", zap.String("file", pending.Name), zap.Error(err))
			return false, fmt.Errorf("upload %s: %w", pending.Name, err)
		}
		att = event.AttachmentFrom(fd)
	}

	var out event.Outbound
	if to.Group {
		out = event.SendGroupMessage{SenderID: c.self.UserID, GroupID: to.ID, Content: text, Attachment: att}
	} else {
		out = event.SendMessage{SenderID: c.self.UserID, ReceiverID: to.ID, Content: text, Attachment: att}
	}
	if err := c.emitter.Emit(out); err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.pending == pending {
		c.pending = nil
	}
	c.mu.Unlock()
	c.logger.Debug("message emitted", zap.String("event", out.EventName()), zap.Int64("target", to.ID))
	return true, nil
}
