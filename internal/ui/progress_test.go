package ui

import (
	"strings"
	"testing"
	"time"

	"borrowck/internal/driver"
)

func newModel(files ...string) *progressModel {
	ch := make(chan driver.Event)
	close(ch)
	return NewProgressModel("checking", files, ch).(*progressModel)
}

func TestApplyEventUpdatesStatus(t *testing.T) {
	m := newModel("a.bck.json", "b.bck.json")
	m.applyEvent(driver.Event{File: "a.bck.json", Stage: driver.StageCheck, Status: driver.StatusWorking})
	if m.items[0].status != labelChecking {
		t.Fatalf("expected checking, got %q", m.items[0].status)
	}
	if got := m.fraction(); got != 0.25 {
		t.Fatalf("fraction = %v, want 0.25", got)
	}
	m.applyEvent(driver.Event{File: "a.bck.json", Stage: driver.StageCheck, Status: driver.StatusDone, Elapsed: 3 * time.Millisecond})
	m.applyEvent(driver.Event{File: "b.bck.json", Stage: driver.StageCheck, Status: driver.StatusCached})
	if m.fraction() != 1 || m.finished() != 2 {
		t.Fatalf("all files should be finished: %+v", m.items)
	}
	if m.items[0].elapsed != 3*time.Millisecond {
		t.Fatalf("elapsed not recorded")
	}
}

func TestApplyEventIgnoresUnknownFiles(t *testing.T) {
	m := newModel("a.bck.json")
	if cmd := m.applyEvent(driver.Event{File: "other.bck.json", Status: driver.StatusDone}); cmd != nil {
		t.Fatalf("unknown file should not produce a command")
	}
	if cmd := m.applyEvent(driver.Event{Stage: driver.StageCheck, Status: driver.StatusDone}); cmd != nil {
		t.Fatalf("run-level event should not produce a command")
	}
	if m.items[0].status != labelQueued {
		t.Fatalf("status changed: %q", m.items[0].status)
	}
}

func TestListenReportsDoneOnClose(t *testing.T) {
	m := newModel("a.bck.json")
	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Fatalf("closed channel should yield doneMsg")
	}
}

func TestViewListsFiles(t *testing.T) {
	m := newModel("a.bck.json", "b.bck.json")
	m.applyEvent(driver.Event{File: "b.bck.json", Stage: driver.StageCheck, Status: driver.StatusError})
	view := m.View()
	for _, want := range []string{"1/2", "a.bck.json", "b.bck.json", "error"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("internal/very/long/path.bck.json", 10); got != "interna..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
