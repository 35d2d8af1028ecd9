package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient user-facing message.
type Notification struct {
	ID      string
	Level   Level
	Title   string
	Message string
	Time    time.Time
}

// NewNotification stamps a notification with a fresh id and the current time.
func NewNotification(level Level, title, msg string) Notification {
	return Notification{ID: uuid.NewString(), Level: level, Title: title, Message: msg, Time: time.Now()}
}

// Notifier receives notifications from the Controller. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type Notifier interface {
	Publish(Notification)
}

// noopNotifier is the default; it drops notifications.
type noopNotifier struct{}

func (noopNotifier) Publish(Notification) {}

// defaultKeep is how many notifications MemoryNotifier retains by default.
const defaultKeep = 20

// MemoryNotifier keeps the most recent notifications in memory.
type MemoryNotifier struct {
	mu    sync.Mutex
	keep  int
	items []Notification
}

// NewMemoryNotifier returns a notifier retaining up to keep items (20 if keep <= 0).
func NewMemoryNotifier(keep int) *MemoryNotifier {
	if keep <= 0 {
		keep = defaultKeep
	}
	return &MemoryNotifier{keep: keep}
}

func (p *MemoryNotifier) Publish(n Notification) {
	p.mu.Lock()
	p.items = append(p.items, n)
	if over := len(p.items) - p.keep; over > 0 {
		p.items = append([]Notification(nil), p.items[over:]...)
	}
	p.mu.Unlock()
}

// Recent returns retained notifications, newest last.
func (p *MemoryNotifier) Recent() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Notification, len(p.items))
	copy(out, p.items)
	return out
}

// Dismiss drops the notification with the given id.
func (p *MemoryNotifier) Dismiss(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, n := range p.items {
		if n.ID == id {
			p.items = append(p.items[:i:i], p.items[i+1:]...)
			return true
		}
	}
	return false
}

// multiNotifier fans a notification out to several notifiers.
type multiNotifier []Notifier

func (m multiNotifier) Publish(n Notification) {
	for _, x := range m {
		x.Publish(n)
	}
}

// Multi returns a Notifier publishing to every non-nil notifier in ns.
func Multi(ns ...Notifier) Notifier {
	var out multiNotifier
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
