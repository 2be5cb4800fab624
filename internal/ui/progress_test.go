package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"lumen/internal/driver"
)

func TestProgressTracksFiles(t *testing.T) {
	events := make(chan driver.PhaseEvent)
	m := NewProgressModel("compiling", []string{"a.lm", "./b.lm"}, events).(*progressModel)
	send := func(ev driver.PhaseEvent) { m.Update(eventMsg(ev)) }

	send(driver.PhaseEvent{Path: "a.lm", Name: "parse", Status: driver.PhaseStart})
	if m.items[0].status != "parsing" || m.items[1].status != "queued" {
		t.Fatalf("statuses = %q %q", m.items[0].status, m.items[1].status)
	}

	send(driver.PhaseEvent{Path: "a.lm", Name: "parse", Status: driver.PhaseEnd})
	if got := m.percent(); got <= 0 || got >= 0.5 {
		t.Fatalf("percent after one phase = %v", got)
	}

	send(driver.PhaseEvent{Path: "a.lm", Status: driver.PhaseDone})
	send(driver.PhaseEvent{Path: "b.lm", Status: driver.PhaseDone, Err: errors.New("failed")})
	if m.items[0].status != "done" || m.items[1].status != "error" {
		t.Fatalf("statuses = %q %q", m.items[0].status, m.items[1].status)
	}
	if got := m.percent(); got != 1 {
		t.Fatalf("percent = %v, want 1", got)
	}

	send(driver.PhaseEvent{Path: "unknown.lm", Status: driver.PhaseDone})

	if _, cmd := m.Update(doneMsg{}); cmd == nil {
		t.Fatal("done must quit")
	}
	if !strings.Contains(m.View(), "done: compiling") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("scripts/main.lm", 40); got != "scripts/main.lm" {
		t.Fatalf("short path changed: %q", got)
	}
	if got := truncate("a/very/long/path/to/script.lm", 10); got != "a/very/..." {
		t.Fatalf("truncate = %q", got)
	}
	for _, w := range []int{2, 4, 10, 17} {
		if got := runewidth.StringWidth(truncate("a/very/long/path/to/script.lm", w)); got != w {
			t.Errorf("truncate to %d columns gave %d", w, got)
		}
	}
}
