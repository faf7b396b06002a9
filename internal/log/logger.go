package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// EventLogger is the interface for logging selection events.
type EventLogger interface {
	Log(event Event)
	Events() []Event
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	events []Event
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event Event) {
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []Event {
	return l.events
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []Event {
	var result []Event
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() Event {
	if len(l.events) == 0 {
		return Event{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event Event) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- LineLogger: writes lines without keeping events ---

// LineLogger numbers and writes each event but retains nothing, for
// long-lived sessions. It is safe for concurrent use.
type LineLogger struct {
	mu  sync.Mutex
	seq int
	w   io.Writer
}

func NewLineLogger(w io.Writer) *LineLogger {
	return &LineLogger{w: w}
}

func (l *LineLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	event.Seq = l.seq
	fmt.Fprintln(l.w, FormatEvent(event))
}

// Events always returns nil.
func (l *LineLogger) Events() []Event { return nil }

// --- Discard ---

type discard struct{}

func (discard) Log(Event) {}
func (discard) Events() []Event { return nil }

// Discard is an EventLogger that drops every event.
var Discard EventLogger = discard{}

// --- Formatting ---

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e Event) string {
	kind := e.Kind
	// Pad kind to 6 chars for alignment
	for len(kind) < 6 {
		kind += " "
	}
	return fmt.Sprintf("#%-3d %-16s %s| %s", e.Seq, e.Type, kind, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []Event) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

func NewReconcileEvent(source string, xyz, fusion []int) Event {
	return Event{
		Type:    EventReconcile,
		Details: fmt.Sprintf("Selection restored from %s (xyz=%s fusion=%s)", source, joinInts(xyz), joinInts(fusion)),
	}
}

func NewQueryRejectedEvent(reason error) Event {
	return Event{
		Type:    EventQueryRejected,
		Details: fmt.Sprintf("Shared link ignored: %v", reason),
	}
}

func NewQueryConsumedEvent() Event {
	return Event{
		Type:    EventQueryConsumed,
		Details: "Removed xyz/fusion from the location",
	}
}

func NewSnapshotRejectedEvent(reason error) Event {
	return Event{
		Type:    EventSnapshotRejected,
		Details: fmt.Sprintf("Saved selection ignored: %v", reason),
	}
}

func NewToggleEvent(kind string, value int, checked bool) Event {
	state := "off"
	if checked {
		state = "on"
	}
	return Event{
		Type:    EventToggle,
		Kind:    kind,
		Details: fmt.Sprintf("%d toggled %s", value, state),
	}
}

func NewSelectAllEvent(kind string) Event {
	return Event{Type: EventSelectAll, Kind: kind, Details: "All selected"}
}

func NewClearEvent(kind string) Event {
	return Event{Type: EventClear, Kind: kind, Details: "Selection cleared"}
}

func NewResetEvent(kind string, labels []string) Event {
	return Event{
		Type:    EventReset,
		Kind:    kind,
		Details: fmt.Sprintf("Reset to defaults [%s]", strings.Join(labels, ", ")),
	}
}

func NewPersistEvent(key string, value string) Event {
	return Event{
		Type:    EventPersist,
		Details: fmt.Sprintf("%s = %s", key, value),
	}
}

func NewPersistFailedEvent(key string, err error) Event {
	return Event{
		Type:    EventPersistFailed,
		Details: fmt.Sprintf("could not save %s: %v", key, err),
	}
}

func NewRenderEvent(cells int, minOpp, maxOpp, minCards, maxCards int) Event {
	if cells == 0 {
		return Event{Type: EventRender, Details: "No solution"}
	}
	return Event{
		Type: EventRender,
		Details: fmt.Sprintf("%d cells, opponent level %d-%d, cards in play %d-%d",
			cells, minOpp, maxOpp, minCards, maxCards),
	}
}

func NewShareEvent(link string) Event {
	return Event{Type: EventShare, Details: link}
}

func NewCapacityExceededEvent(used, limit int) Event {
	return Event{
		Type:    EventCapacityExceeded,
		Details: fmt.Sprintf("Extra Deck needs %d slots (limit %d)", used, limit),
	}
}
