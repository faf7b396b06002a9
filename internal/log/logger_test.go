package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestMemoryLoggerSequence(t *testing.T) {
	l := NewMemoryLogger()
	l.Log(NewToggleEvent("xyz", 4, true))
	l.Log(NewPersistEvent("edChoices", `{"xyz":[4],"fusion":[]}`))
	l.Log(NewToggleEvent("fusion", 2, false))

	events := l.Events()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Seq != i+1 {
			t.Errorf("Event %d: expected seq %d, got %d", i, i+1, e.Seq)
		}
	}
	if got := len(l.EventsOfType(EventToggle)); got != 2 {
		t.Errorf("Expected 2 toggle events, got %d", got)
	}
	last := l.LastEvent()
	if last.Kind != "fusion" || last.Details != "2 toggled off" {
		t.Errorf("Unexpected last event %+v", last)
	}
}

func TestLastEventEmpty(t *testing.T) {
	if e := NewMemoryLogger().LastEvent(); e.Type != 0 || e.Seq != 0 {
		t.Errorf("Expected a zero event, got %+v", e)
	}
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf)
	l.Log(NewReconcileEvent("shared link", []int{2, 3}, nil))
	l.Log(NewPersistFailedEvent("edChoices", errors.New("disk full")))

	out := buf.String()
	if !strings.Contains(out, "#1   Reconcile") {
		t.Errorf("Expected a numbered reconcile line, got:\n%s", out)
	}
	if !strings.Contains(out, "xyz=2,3 fusion=)") {
		t.Errorf("Expected the restored values, got:\n%s", out)
	}
	if !strings.Contains(out, "could not save edChoices: disk full") {
		t.Errorf("Expected the failure reason, got:\n%s", out)
	}
	if len(l.Events()) != 2 {
		t.Errorf("Expected the text logger to keep events, got %d", len(l.Events()))
	}
}

func TestRenderEventDetails(t *testing.T) {
	if e := NewRenderEvent(0, 0, 0, 0, 0); e.Details != "No solution" {
		t.Errorf("Expected no solution, got %q", e.Details)
	}
	e := NewRenderEvent(4, 4, 6, 7, 10)
	if e.Details != "4 cells, opponent level 4-6, cards in play 7-10" {
		t.Errorf("Unexpected details %q", e.Details)
	}
}

func TestFormatAll(t *testing.T) {
	events := []Event{
		{Seq: 1, Type: EventClear, Kind: "xyz", Details: "Selection cleared"},
		{Seq: 2, Type: EventShare, Details: "http://ed.example/?xyz=&fusion="},
	}
	lines := strings.Split(strings.TrimSuffix(FormatAll(events), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "xyz   | Selection cleared") {
		t.Errorf("Expected the kind padded to 6, got %q", lines[0])
	}
	if Discard.Events() != nil {
		t.Error("Discard must not keep events")
	}
}

func TestLineLoggerDoesNotRetain(t *testing.T) {
	var buf bytes.Buffer
	l := NewLineLogger(&buf)
	l.Log(NewClearEvent("xyz"))
	l.Log(NewSelectAllEvent("fusion"))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "#2 ") {
		t.Errorf("Expected the second line to be numbered 2, got %q", lines[1])
	}
	if l.Events() != nil {
		t.Error("Expected no retained events")
	}
}
