package composer

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/event"
)

// TypingTimeout is the quiet period after the last keystroke before
// typing=false is sent.
const TypingTimeout = 1000 * time.Millisecond

// Typing debounces typing signals with a single timer: every keystroke sends
// typing=true and pushes the pending typing=false back by the timeout.
type Typing struct {
	self    domain.Identity
	emitter Emitter
	delay   time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	target Target
	active bool
	timer  *time.Timer
	seq    uint64
}

// NewTyping creates a debouncer. delay <= 0 uses TypingTimeout.
func NewTyping(self domain.Identity, em Emitter, delay time.Duration, logger *zap.Logger) *Typing {
	if delay <= 0 {
		delay = TypingTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Typing{self: self, emitter: em, delay: delay, logger: logger}
}

// Keystroke records a keystroke in the composer for target. Switching to a
// different target first sends typing=false to the old one.
func (t *Typing) Keystroke(to Target) {
	if !to.Valid() {
		return
	}
	t.mu.Lock()
	var flush *Target
	if t.active && t.target != to {
		old := t.target
		flush = &old
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.target = to
	t.active = true
	t.seq++
	seq := t.seq
	t.timer = time.AfterFunc(t.delay, func() { t.expire(seq) })
	t.mu.Unlock()

	if flush != nil {
		t.emit(*flush, false)
	}
	t.emit(to, true)
}

// Stop sends typing=false now if a signal is live and cancels the timer.
func (t *Typing) Stop() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.active = false
	t.seq++
	to := t.target
	t.mu.Unlock()

	t.emit(to, false)
}

// Active reports whether typing=true was sent and not yet cleared.
func (t *Typing) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Typing) expire(seq uint64) {
	t.mu.Lock()
	if seq != t.seq || !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.timer = nil
	to := t.target
	t.mu.Unlock()

	t.emit(to, false)
}

func (t *Typing) emit(to Target, typing bool) {
	var out event.Outbound
	if to.Group {
		out = event.GroupTyping{SenderID: t.self.UserID, GroupID: to.ID, SenderUsername: t.self.Username, IsTyping: typing}
	} else {
		out = event.Typing{SenderID: t.self.UserID, ReceiverID: to.ID, IsTyping: typing}
	}
	if err := t.emitter.Emit(out); err != nil {
		t.logger.Debug("typing signal not sent", zap.Bool("typing", typing), zap.Error(err))
	}
}
