package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeModule, false},
		{LevelDetail, ScopeModule, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DETAIL")
	if err != nil || lvl != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)

	root := Begin(tr, ScopeDriver, "check", 0)
	unit := Begin(tr, ScopeModule, "unit:a.bck.json", root.ID())
	Begin(tr, ScopeNode, "skipped", unit.ID()).End("")
	unit.WithExtra("functions", "2").End("")
	root.End("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("want 4 events, got %d:\n%s", len(lines), buf.String())
	}
	var ev jsonEvent
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Kind != "end" || ev.Name != "unit:a.bck.json" || ev.Extra["functions"] != "2" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.ParentID != root.ID() {
		t.Fatalf("parent = %d, want %d", ev.ParentID, root.ID())
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(r, ScopeNode, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("want 3 events, got %d", len(snap))
	}
	got := snap[0].Name + snap[1].Name + snap[2].Name
	if got != "cde" {
		t.Fatalf("snapshot order = %q, want cde", got)
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(buf.String(), "* e") {
		t.Fatalf("dump missing last event:\n%s", buf.String())
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop without tracer")
	}
	r := NewRingTracer(8, LevelPhase)
	ctx := WithTracer(context.Background(), r)
	if FromContext(ctx) != Tracer(r) {
		t.Fatalf("tracer not propagated")
	}
	sp := Begin(r, ScopeDriver, "run", 0)
	ctx = WithSpan(ctx, sp)
	if SpanFromContext(ctx) != sp.ID() {
		t.Fatalf("span not propagated")
	}

	inert := Begin(r, ScopeNode, "node", sp.ID())
	if inert.ID() != sp.ID() {
		t.Fatalf("inert span should report parent ID")
	}
	if d := inert.End(""); d != 0 {
		t.Fatalf("inert span duration = %v", d)
	}
}

func TestNewBuildsByMode(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr != Nop {
		t.Fatalf("LevelOff should give Nop, got %v, %v", tr, err)
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	multi, ok := tr.(*MultiTracer)
	if !ok || multi.Ring() == nil {
		t.Fatalf("expected multi tracer with ring, got %T", tr)
	}
	Begin(tr, ScopeDriver, "run", 0).End("")
	if len(multi.Ring().Snapshot()) != 2 || buf.Len() == 0 {
		t.Fatalf("events not fanned out")
	}
	if _, err := New(Config{Level: LevelPhase}); err == nil {
		t.Fatalf("expected error for missing mode")
	}
}

func TestStartNestsUnderContextSpan(t *testing.T) {
	r := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	ctx, outer := Start(ctx, ScopeDriver, "outer")
	inner, innerSpan := Start(ctx, ScopeModule, "inner")
	if SpanFromContext(inner) != innerSpan.ID() || innerSpan.ID() == outer.ID() {
		t.Fatalf("inner span not installed: ctx=%d inner=%d outer=%d", SpanFromContext(inner), innerSpan.ID(), outer.ID())
	}
	innerSpan.End("")
	outer.End("")
	for _, ev := range r.Snapshot() {
		if ev.Name == "inner" && ev.ParentID != outer.ID() {
			t.Fatalf("inner parent = %d, want %d", ev.ParentID, outer.ID())
		}
	}
}
