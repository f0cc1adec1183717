// Package toast keeps short-lived user notifications.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Level is the visual class of a toast.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 3 * time.Second

// Toast is one transient notification.
type Toast struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(level Level, message string)
}

// Center holds the toasts of one page and drops them once they expire.
type Center struct {
	mu       sync.Mutex
	items    []Toast
	duration time.Duration
	now      func() time.Time
	logger   *logrus.Entry
}

// NewCenter creates a toast center. A non-positive duration uses DefaultDuration.
func NewCenter(duration time.Duration, logger *logrus.Entry) *Center {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Center{duration: duration, now: time.Now, logger: logger}
}

// Notify schedules a toast.
func (c *Center) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	t := Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.duration),
	}
	c.items = append(c.pruneLocked(now), t)
	c.logger.WithFields(logrus.Fields{"toast_id": t.ID, "level": level}).Debug(message)
}

// Active returns the toasts that have not expired, oldest first.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = c.pruneLocked(c.now())
	out := make([]Toast, len(c.items))
	copy(out, c.items)
	return out
}

// Dismiss removes a toast before it expires.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range c.items {
		if t.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Center) pruneLocked(now time.Time) []Toast {
	kept := c.items[:0]
	for _, t := range c.items {
		if t.ExpiresAt.After(now) {
			kept = append(kept, t)
		}
	}
	return kept
}
