package ledger

import (
	"slices"
	"sync"
	"time"
)

// DefaultNotifyDuration is how long a notification stays visible.
const DefaultNotifyDuration = 2500 * time.Millisecond

// Level classifies a notification.
type Level int

// Notification levels.
const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient message shown to the user.
type Notification struct {
	At      time.Time
	Message string
	Level   Level
}

// Notifier shows one notification at a time. A new notification replaces
// the current one and restarts the dismissal timer.
type Notifier struct {
	timer     *time.Timer
	current   *Notification
	observers []func(Notification, bool)
	duration  time.Duration
	seq       uint64
	mu        sync.Mutex
	closed    bool
}

// NewNotifier creates a notifier whose messages dismiss after d.
// A non-positive d selects DefaultNotifyDuration.
func NewNotifier(d time.Duration) *Notifier {
	if d <= 0 {
		d = DefaultNotifyDuration
	}
	return &Notifier{duration: d}
}

// OnChange registers fn, called with the new notification and true when one
// is shown, or a zero notification and false when it is dismissed.
func (n *Notifier) OnChange(fn func(Notification, bool)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, fn)
}

// Notify shows msg, replacing whatever is visible.
func (n *Notifier) Notify(level Level, msg string) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.seq++
	seq := n.seq
	note := Notification{Level: level, Message: msg, At: time.Now()}
	n.current = &note
	n.timer = time.AfterFunc(n.duration, func() { n.expire(seq) })
	observers := slices.Clone(n.observers)
	n.mu.Unlock()

	for _, fn := range observers {
		fn(note, true)
	}
}

// Info shows an informational message.
func (n *Notifier) Info(msg string) { n.Notify(LevelInfo, msg) }

// Success shows a success message.
func (n *Notifier) Success(msg string) { n.Notify(LevelSuccess, msg) }

// Error shows an error message.
func (n *Notifier) Error(msg string) { n.Notify(LevelError, msg) }

// Current returns the visible notification, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}

// Dismiss hides the current notification immediately.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	seq := n.seq
	n.mu.Unlock()
	n.expire(seq)
}

func (n *Notifier) expire(seq uint64) {
	n.mu.Lock()
	// a newer notification owns the display
	if seq != n.seq || n.current == nil {
		n.mu.Unlock()
		return
	}
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = nil
	observers := slices.Clone(n.observers)
	n.mu.Unlock()

	for _, fn := range observers {
		fn(Notification{}, false)
	}
}

// Close stops the pending timer. Later calls to Notify are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.closed = true
	n.current = nil
	n.observers = nil
}
