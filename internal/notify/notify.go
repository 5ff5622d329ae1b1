// Package notify provides the transient notification capability used by the
// form: a Notifier with warning and success messages, and the toast Center
// that keeps each message alive for a fixed auto-close duration and fans it
// out to subscribers.
//
// Notifications are fire-and-forget. Nothing in this package feeds back into
// contact state.
package notify

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// DefaultAutoClose is how long a toast stays visible.
const DefaultAutoClose = 3 * time.Second

// Level is the severity of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Warn(message string)
	Success(message string)
}

// Toast is one notification.
type Toast struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Remaining returns how long the toast has left at now, never negative.
func (t Toast) Remaining(now time.Time) time.Duration {
	if d := t.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Expired reports whether the toast should no longer be shown at now.
func (t Toast) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Center is a Notifier that keeps recent toasts until they auto-close.
type Center struct {
	mu          sync.Mutex
	toasts      []Toast
	autoClose   time.Duration
	seq         uint64
	now         func() time.Time
	subscribers map[int]func(Toast)
	nextSubID   int
}

// CenterOption configures a Center.
type CenterOption func(*Center)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CenterOption {
	return func(c *Center) {
		c.now = now
	}
}

// NewCenter creates a Center. A non-positive autoClose falls back to
// DefaultAutoClose.
func NewCenter(autoClose time.Duration, opts ...CenterOption) *Center {
	if autoClose <= 0 {
		autoClose = DefaultAutoClose
	}
	c := &Center{
		autoClose:   autoClose,
		now:         time.Now,
		subscribers: make(map[int]func(Toast)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Warn records a warning toast.
func (c *Center) Warn(message string) {
	c.push(LevelWarning, message)
}

// Success records a success toast.
func (c *Center) Success(message string) {
	c.push(LevelSuccess, message)
}

func (c *Center) push(level Level, message string) {
	c.mu.Lock()
	now := c.now()
	c.seq++
	toast := Toast{
		ID:        fmt.Sprintf("toast-%d", c.seq),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.autoClose),
	}
	c.pruneLocked(now)
	c.toasts = append(c.toasts, toast)

	subs := make([]func(Toast), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(toast)
	}
}

// Active returns the toasts that have not yet expired, oldest first.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(c.now())
	return slices.Clone(c.toasts)
}

func (c *Center) pruneLocked(now time.Time) {
	c.toasts = slices.DeleteFunc(c.toasts, func(t Toast) bool {
		return t.Expired(now)
	})
}

// Subscribe registers fn for every future toast and returns a function
// that removes it. fn runs on the goroutine that raised the toast.
func (c *Center) Subscribe(fn func(Toast)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// SetAutoClose changes the duration applied to future toasts.
func (c *Center) SetAutoClose(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoClose = d
}

// AutoClose returns the current auto-close duration.
func (c *Center) AutoClose() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoClose
}

// Now returns the center's clock reading.
func (c *Center) Now() time.Time {
	return c.now()
}

// Message is one notification captured by a Recorder.
type Message struct {
	Level Level
	Text  string
}

// Recorder is a Notifier that only remembers what it was told.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Warn records a warning.
func (r *Recorder) Warn(message string) {
	r.add(LevelWarning, message)
}

// Success records a success message.
func (r *Recorder) Success(message string) {
	r.add(LevelSuccess, message)
}

func (r *Recorder) add(level Level, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: text})
}

// Messages returns everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}
