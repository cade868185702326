package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestEventWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, JSON: true})

	l.Event("TOOL_USED", "player", "Air horn blast")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if line["event"] != "TOOL_USED" || line["actor"] != "player" || line["message"] != "Air horn blast" {
		t.Errorf("unexpected fields: %v", line)
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, JSON: true, Level: "warn"})
	l.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info leaked through a warn logger: %q", buf.String())
	}
	l.Warn("loud")
	if buf.Len() == 0 {
		t.Errorf("warn was dropped")
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop().With("session", "abc")
	l.Info("x")
	l.Event("X", "y", "z")
}
