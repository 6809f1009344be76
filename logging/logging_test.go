package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", "warn")

	logger.Info("hidden")
	logger.Warn("expense rejected", "expense_id", "abc")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatal(err)
	}
	if record["msg"] != "expense rejected" || record["expense_id"] != "abc" {
		t.Fatalf("record = %v", record)
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "text", "info").Info("store ready", "driver", "sqlite")

	if !strings.Contains(buf.String(), "store ready") || !strings.Contains(buf.String(), "sqlite") {
		t.Fatalf("output = %q", buf.String())
	}
}
