package logutil

import (
	"bytes"
	"strings"
	"testing"
)

func TestFromVerbosity(t *testing.T) {
	cases := map[int]Level{
		-1: LevelWarn,
		0:  LevelWarn,
		1:  LevelInfo,
		2:  LevelDebug,
		5:  LevelDebug,
	}
	for in, want := range cases {
		if got := FromVerbosity(in); got != want {
			t.Errorf("FromVerbosity(%d) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Warnf("a warning")
	l.Infof("should not appear")
	l.Debugf("should not appear either")

	out := buf.String()
	if !strings.Contains(out, "a warning") {
		t.Fatalf("expected warning to be logged, got %q", out)
	}
	if strings.Contains(out, "should not appear") {
		t.Fatalf("info/debug leaked through at LevelWarn: %q", out)
	}
}

func TestDebugLevelShowsEverything(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)

	l.Warnf("w")
	l.Infof("i")
	l.Debugf("d")

	out := buf.String()
	for _, want := range []string{"[WARN]", "[INFO]", "[DEBUG]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %q", want, out)
		}
	}
}

func TestCloneSharesDestination(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)
	clone := l.Clone()
	clone.Infof("from clone")

	if !strings.Contains(buf.String(), "from clone") {
		t.Fatalf("clone did not write to the same destination: %q", buf.String())
	}
}

func TestNonFileWriterIsNeverColorized(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	if l.color {
		t.Fatalf("a bytes.Buffer destination should never be colorized")
	}
}
