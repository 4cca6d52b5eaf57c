package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, false, true)
	l.Debug("hidden")
	l.Info("shown", "service", "rdap")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("expected JSON line: %v", err)
	}
	if rec["service"] != "rdap" {
		t.Fatalf("expected service attr, got %v", rec["service"])
	}

	buf.Reset()
	newLogger(&buf, true, false).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("verbose logger should emit debug")
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil) == nil {
		t.Fatalf("expected default logger")
	}
}
