package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, level, err := New(Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown", zap.String("form_id", "f1"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "shown" || entry["form_id"] != "f1" {
		t.Fatalf("unexpected entry %v", entry)
	}

	level.SetLevel(zapcore.DebugLevel)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("expected level change to apply")
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("hello")
	if !strings.Contains(buf.String(), "INFO") || !strings.Contains(buf.String(), "hello") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
}
