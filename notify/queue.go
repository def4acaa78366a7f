package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DefaultTimeout is how long a notification stays queued when no timeout is given.
const DefaultTimeout = 5000 * time.Millisecond

// IsValid reports whether s is a known severity
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	default:
		return false
	}
}

// Notification is a transient user facing message
type Notification struct {
	ID        string
	Message   string
	Severity  Severity
	CreatedAt time.Time
	Timeout   time.Duration
}

type entryTimer struct {
	timer *time.Timer
}

// Option configures a Queue
type Option func(*Queue)

// WithClock overrides the clock used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithIDGenerator overrides the id source
func WithIDGenerator(fn func() string) Option {
	return func(q *Queue) {
		if fn != nil {
			q.newID = fn
		}
	}
}

// WithDefaultTimeout sets the timeout used when Push receives zero
func WithDefaultTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// Queue is an insertion ordered set of notifications. Each entry owns a
// cancellable timer that removes it when it fires.
type Queue struct {
	mu          sync.Mutex
	items       []Notification
	timers      map[string]*entryTimer
	subscribers map[int]func([]Notification)
	nextSub     int
	closed      bool

	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// NewQueue returns an empty queue
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		timers:      make(map[string]*entryTimer),
		subscribers: make(map[int]func([]Notification)),
		timeout:     DefaultTimeout,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

// Push appends a notification and schedules its removal after timeout.
// A zero or negative timeout uses the queue default.
func (q *Queue) Push(message string, severity Severity, timeout time.Duration) string {
	if !severity.IsValid() {
		severity = SeverityInfo
	}
	if timeout <= 0 {
		timeout = q.timeout
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ""
	}

	n := Notification{
		ID:        q.newID(),
		Message:   message,
		Severity:  severity,
		CreatedAt: q.now(),
		Timeout:   timeout,
	}
	q.items = append(q.items, n)

	et := &entryTimer{}
	et.timer = time.AfterFunc(timeout, func() {
		q.expire(n.ID, et)
	})
	q.timers[n.ID] = et

	snapshot, subs := q.snapshotLocked()
	q.mu.Unlock()

	publish(subs, snapshot)
	return n.ID
}

// Info pushes an info notification with the default timeout
func (q *Queue) Info(message string) string { return q.Push(message, SeverityInfo, 0) }

// Success pushes a success notification with the default timeout
func (q *Queue) Success(message string) string { return q.Push(message, SeveritySuccess, 0) }

// Warning pushes a warning notification with the default timeout
func (q *Queue) Warning(message string) string { return q.Push(message, SeverityWarning, 0) }

// Error pushes an error notification with the default timeout
func (q *Queue) Error(message string) string { return q.Push(message, SeverityError, 0) }

// Remove dismisses the entry with id and cancels its timer. Unknown ids are
// ignored.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	et, ok := q.timers[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	et.timer.Stop()
	q.removeLocked(id)
	snapshot, subs := q.snapshotLocked()
	q.mu.Unlock()

	publish(subs, snapshot)
}

// expire runs from the entry timer. The timer must still be the one
// registered for id, otherwise the entry was already dismissed.
func (q *Queue) expire(id string, et *entryTimer) {
	q.mu.Lock()
	current, ok := q.timers[id]
	if !ok || current != et {
		q.mu.Unlock()
		return
	}
	q.removeLocked(id)
	snapshot, subs := q.snapshotLocked()
	q.mu.Unlock()

	publish(subs, snapshot)
}

func (q *Queue) removeLocked(id string) {
	delete(q.timers, id)
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// List returns the queued notifications, oldest first
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out
}

// Get returns the notification with id
func (q *Queue) Get(id string) (Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, n := range q.items {
		if n.ID == id {
			return n, true
		}
	}
	return Notification{}, false
}

// Len returns the number of queued notifications
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Subscribe registers fn to receive the queue contents after every change.
// The returned function unregisters it.
func (q *Queue) Subscribe(fn func([]Notification)) func() {
	if fn == nil {
		return func() {}
	}
	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subscribers[id] = fn
	q.mu.Unlock()

	return func() {
		q.mu.Lock()
		delete(q.subscribers, id)
		q.mu.Unlock()
	}
}

// Close cancels every pending timer and drops all entries. Pushes after
// Close are ignored.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, et := range q.timers {
		et.timer.Stop()
		delete(q.timers, id)
	}
	q.items = nil
	q.closed = true
}

func (q *Queue) snapshotLocked() ([]Notification, []func([]Notification)) {
	if len(q.subscribers) == 0 {
		return nil, nil
	}
	snapshot := make([]Notification, len(q.items))
	copy(snapshot, q.items)

	subs := make([]func([]Notification), 0, len(q.subscribers))
	for i := 0; i < q.nextSub; i++ {
		if fn, ok := q.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}
	return snapshot, subs
}

func publish(subs []func([]Notification), snapshot []Notification) {
	for _, fn := range subs {
		fn(snapshot)
	}
}
