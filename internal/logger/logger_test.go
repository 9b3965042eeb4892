package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}
	return entry
}

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, Options{})

	l.Info("test message", slog.String("key", "value"))

	entry := decodeEntry(t, &buf)
	if entry["msg"] != "test message" {
		t.Errorf("msg = %q, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %q, want %q", entry["key"], "value")
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in JSON log output")
	}
	if entry["service"] != "gymman" {
		t.Errorf("service = %v, want gymman", entry["service"])
	}
}

func TestSetup_IncludesEnv(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, Options{Env: "production"}).Warn("warning test")

	entry := decodeEntry(t, &buf)
	if entry["env"] != "production" {
		t.Errorf("env = %v, want production", entry["env"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %q, want %q", entry["level"], "WARN")
	}
}

func TestSetup_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, Options{Level: slog.LevelWarn})

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info log should be filtered at WARN level: %s", buf.String())
	}
}

func TestSetup_MultipleAttributes(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, Options{}).Info("booking created",
		slog.String("booking_id", "b-1"),
		slog.String("user_id", "u-123"),
		slog.Int("capacity", 20),
	)

	entry := decodeEntry(t, &buf)
	if entry["booking_id"] != "b-1" || entry["user_id"] != "u-123" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["capacity"] != float64(20) {
		t.Errorf("capacity = %v, want 20", entry["capacity"])
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupDefault(&buf, Options{})

	slog.Default().Info("global test", slog.String("test_key", "test_val"))

	entry := decodeEntry(t, &buf)
	if entry["msg"] != "global test" || entry["test_key"] != "test_val" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
