package trace_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"lumen/internal/trace"
)

func TestStreamTracerStampsSession(t *testing.T) {
	var buf bytes.Buffer
	tr, err := trace.New(trace.Config{Level: trace.LevelPhase, Mode: trace.ModeStream, Format: trace.FormatNDJSON, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	s := trace.Begin(tr, trace.ScopePass, "ssa", 0)
	s.WithExtra("units", "3").End("ok")
	trace.Begin(tr, trace.ScopeUnit, "unit:main", s.ID()).End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d events, want 2 (unit scope is filtered at phase level):\n%s", len(lines), buf.String())
	}
	var ev struct {
		Kind    string            `json:"kind"`
		Session string            `json:"session"`
		Name    string            `json:"name"`
		Extra   map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Kind != "end" || ev.Name != "ssa" || ev.Extra["units"] != "3" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Session == "" || ev.Session != tr.Session() {
		t.Errorf("session = %q, tracer session = %q", ev.Session, tr.Session())
	}
}

func TestRingKeepsNewest(t *testing.T) {
	r := trace.NewRingTracer(3, trace.LevelDebug, "s")
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		trace.Point(r, trace.ScopeNode, name, "", 0)
	}
	var names []string
	for _, ev := range r.Snapshot() {
		names = append(names, ev.Name)
	}
	if strings.Join(names, ",") != "c,d,e" {
		t.Errorf("snapshot = %v", names)
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, trace.FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "• e") {
		t.Errorf("dump = %q", buf.String())
	}
}

func TestLevels(t *testing.T) {
	lvl, err := trace.ParseLevel("DETAIL")
	if err != nil || lvl != trace.LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", lvl, err)
	}
	if !lvl.ShouldEmit(trace.ScopeUnit) || lvl.ShouldEmit(trace.ScopeNode) {
		t.Error("detail level filters scopes wrongly")
	}
	if _, err := trace.ParseLevel("loud"); err == nil {
		t.Error("bad level accepted")
	}
	if tr, _ := trace.New(trace.Config{Level: trace.LevelOff}); tr.Enabled() {
		t.Error("off level produced an enabled tracer")
	}
}

func TestContextPropagation(t *testing.T) {
	r := trace.NewRingTracer(8, trace.LevelDebug, "s")
	ctx := trace.WithTracer(context.Background(), r)
	if trace.FromContext(ctx) != trace.Tracer(r) {
		t.Fatal("tracer lost in context")
	}
	if trace.FromContext(context.Background()).Enabled() {
		t.Error("empty context should give the nop tracer")
	}
	s := trace.Begin(r, trace.ScopeDriver, "run", 0)
	if trace.CurrentSpan(trace.WithSpan(ctx, s)) != s.ID() {
		t.Error("span id lost in context")
	}
}
