// Package notifications holds the in-app notification queue and the single
// mapping from API failures to user-facing copy.
package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the notification severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

const (
	maxNotifications = 5
	defaultDuration  = 5 * time.Second
)

// Notification is one queue entry. Non-persistent entries expire after
// Duration; errors are persistent by default.
type Notification struct {
	ID         string
	Level      Level
	Title      string
	Message    string
	Persistent bool
	Duration   time.Duration
	CreatedAt  time.Time
}

func (n Notification) expired(now time.Time) bool {
	return !n.Persistent && now.Sub(n.CreatedAt) >= n.Duration
}

// Option tweaks a pushed notification.
type Option func(*Notification)

// Persistent keeps the notification until dismissed.
func Persistent() Option {
	return func(n *Notification) { n.Persistent = true }
}

// WithDuration overrides the auto-expiry window.
func WithDuration(d time.Duration) Option {
	return func(n *Notification) { n.Duration = d }
}

// Store is a bounded, newest-first notification queue.
type Store struct {
	mu    sync.Mutex
	items []Notification
	max   int
	now   func() time.Time
}

// NewStore creates an empty queue.
func NewStore() *Store {
	return &Store{max: maxNotifications, now: time.Now}
}

// Push queues a notification and returns its id. The queue keeps at most
// five entries; older ones fall off.
func (s *Store) Push(level Level, title, message string, opts ...Option) string {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Message:   message,
		Duration:  defaultDuration,
		CreatedAt: s.now(),
	}
	if level == LevelError {
		n.Persistent = true
	}
	for _, opt := range opts {
		opt(&n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]Notification{n}, s.items...)
	if len(s.items) > s.max {
		s.items = s.items[:s.max]
	}
	return n.ID
}

// Success queues a success notification.
func (s *Store) Success(title, message string, opts ...Option) string {
	return s.Push(LevelSuccess, title, message, opts...)
}

// Error queues a persistent error notification.
func (s *Store) Error(title, message string, opts ...Option) string {
	return s.Push(LevelError, title, message, opts...)
}

// Warning queues a warning notification.
func (s *Store) Warning(title, message string, opts ...Option) string {
	return s.Push(LevelWarning, title, message, opts...)
}

// Info queues an info notification.
func (s *Store) Info(title, message string, opts ...Option) string {
	return s.Push(LevelInfo, title, message, opts...)
}

// Active returns the notifications that have not expired, newest first.
// Expired entries are swept on read; no background timer exists.
func (s *Store) Active() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.items[:0]
	for _, n := range s.items {
		if !n.expired(now) {
			kept = append(kept, n)
		}
	}
	s.items = kept

	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Dismiss removes the notification with id, if present.
func (s *Store) Dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Clear empties the queue.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}
