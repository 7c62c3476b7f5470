package client

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification severities mirror the alert styling tags the original
// interface used.
const (
	SeverityDanger  = "danger"
	SeveritySuccess = "success"
)

// DefaultNotificationTTL is how long a notification stays visible when
// the caller does not pick a duration.
const DefaultNotificationTTL = 5 * time.Second

// Notification is one ephemeral message.
type Notification struct {
	ID       string
	Message  string
	Severity string
}

// Notifier is an insertion-ordered queue of ephemeral notifications.
// Each entry evicts itself when its TTL elapses; eviction of one entry
// never touches another's timer.
type Notifier struct {
	mu      sync.Mutex
	entries []Notification
	timers  map[string]*time.Timer
}

func NewNotifier() *Notifier {
	return &Notifier{
		timers: map[string]*time.Timer{},
	}
}

// Enqueue appends a notification and schedules its removal. ttl <= 0
// falls back to the default.
func (n *Notifier) Enqueue(message, severity string, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}

	id := uuid.NewString()

	n.mu.Lock()
	n.entries = append(n.entries, Notification{
		ID:       id,
		Message:  message,
		Severity: severity,
	})
	n.timers[id] = time.AfterFunc(ttl, func() {
		n.Dismiss(id)
	})
	n.mu.Unlock()

	return id
}

// Dismiss removes a notification by id. Dismissing an already evicted
// id is a no-op, so the TTL timer and a manual dismiss can race freely.
func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if timer, ok := n.timers[id]; ok {
		timer.Stop()
		delete(n.timers, id)
	}

	for i, entry := range n.entries {
		if entry.ID == id {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return
		}
	}
}

// Active returns the live notifications in insertion order.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notification, len(n.entries))
	copy(out, n.entries)
	return out
}

// Close stops every pending timer and drops all entries.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, timer := range n.timers {
		timer.Stop()
		delete(n.timers, id)
	}
	n.entries = nil
}
