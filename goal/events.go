package goal

// EventKind identifies a selector decision.
type EventKind string

const (
	EventStarted      EventKind = "started"
	EventStopped      EventKind = "stopped"
	EventPreempted    EventKind = "preempted"
	EventForceStopped EventKind = "force_stopped"
)

// Event records one selector decision. By carries the preempting goal's
// ID for EventPreempted and is empty otherwise.
type Event struct {
	Tick     int
	Kind     EventKind
	GoalID   string
	Priority int
	Result   Result
	By       string
}

// eventQueueLimit bounds the queue for hosts that never drain it.
const eventQueueLimit = 256

// EventQueue is a drain-on-read FIFO of selector events. The selector
// pushes, the host drains once per frame. The engine itself never logs.
type EventQueue struct {
	items []Event
}

// Push appends an event, dropping the oldest once the queue is full.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	if len(q.items) >= eventQueueLimit {
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
	}
	q.items = append(q.items, evt)
}

// Drain returns all pending events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}
