package log

// EventType enumerates all observable selection events.
type EventType int

const (
	EventReconcile EventType = iota
	EventQueryRejected
	EventQueryConsumed
	EventSnapshotRejected
	EventToggle
	EventSelectAll
	EventClear
	EventReset
	EventPersist
	EventPersistFailed
	EventRender
	EventShare
	EventCapacityExceeded
)

func (e EventType) String() string {
	switch e {
	case EventReconcile:
		return "Reconcile"
	case EventQueryRejected:
		return "QueryRejected"
	case EventQueryConsumed:
		return "QueryConsumed"
	case EventSnapshotRejected:
		return "SnapshotRejected"
	case EventToggle:
		return "Toggle"
	case EventSelectAll:
		return "SelectAll"
	case EventClear:
		return "Clear"
	case EventReset:
		return "Reset"
	case EventPersist:
		return "Persist"
	case EventPersistFailed:
		return "PersistFailed"
	case EventRender:
		return "Render"
	case EventShare:
		return "Share"
	case EventCapacityExceeded:
		return "CapacityExceeded"
	default:
		return "Unknown"
	}
}

// Event represents a single observable change in a selection session.
type Event struct {
	Seq     int       // monotonic sequence number
	Type    EventType // event type
	Kind    string    // "xyz" or "fusion" when the event concerns one kind
	Details string    // human-readable detail string
}
