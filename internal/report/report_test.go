package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/obfdofus/abcdeob/internal/orchestrator"
)

func TestNewAssignsRunID(t *testing.T) {
	restore := stubNow(t)
	defer restore()

	s := New("movie.swf")
	if s.RunID.String() == "" {
		t.Fatalf("expected a non-empty run id")
	}
	if s.Input != "movie.swf" {
		t.Fatalf("Input = %q, want movie.swf", s.Input)
	}
}

func TestFromOrchestratorCopiesCounters(t *testing.T) {
	restore := stubNow(t)
	defer restore()

	s := New("movie.swf")
	rep := orchestrator.Report{
		ClassesTotal:   40,
		StaticClasses:  2,
		WrapperClasses: 1,
		PacketRoutes:   10,
		TribulleRoutes: 1,
		ClassesRenamed: 5,
		MatcherRenames: 3,
		Warnings:       []string{"no packet handler recognized"},
	}
	s.FromOrchestrator(rep, []string{"packet handler"}, 3)

	if s.ClassesTotal != 40 || s.PacketRoutes != 10 || s.ExitCode != 3 {
		t.Fatalf("counters not copied: %+v", s)
	}
	if len(s.Missing) != 1 || s.Missing[0] != "packet handler" {
		t.Fatalf("Missing not set: %+v", s.Missing)
	}
	if len(s.Warnings) != 1 {
		t.Fatalf("Warnings not copied: %+v", s.Warnings)
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	restore := stubNow(t)
	defer restore()

	s := New("movie.swf")
	s.FromOrchestrator(orchestrator.Report{ClassesTotal: 1}, nil, 0)

	var buf bytes.Buffer
	if err := s.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding written JSON: %v", err)
	}
	if decoded.ClassesTotal != 1 || decoded.Input != "movie.swf" {
		t.Fatalf("round-tripped summary mismatch: %+v", decoded)
	}
}

func stubNow(t *testing.T) func() {
	t.Helper()
	orig := now
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	return func() { now = orig }
}
