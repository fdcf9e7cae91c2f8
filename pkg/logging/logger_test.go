package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	if logger == nil || logger.Logger == nil {
		t.Fatal("NewLogger() returned an unusable logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected slog.Level
		ok       bool
	}{
		{"debug level", "DEBUG", slog.LevelDebug, true},
		{"info level", "INFO", slog.LevelInfo, true},
		{"warn level", "WARN", slog.LevelWarn, true},
		{"warning level", "WARNING", slog.LevelWarn, true},
		{"error level", "ERROR", slog.LevelError, true},
		{"lowercase debug", "debug", slog.LevelDebug, true},
		{"padded", " Info ", slog.LevelInfo, true},
		{"invalid level", "INVALID", slog.LevelInfo, false},
		{"empty value", "", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ParseLevel(tt.value)
			if level != tt.expected || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.value, level, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestResolveLevel(t *testing.T) {
	t.Setenv(LevelEnvVar, "")
	if got := ResolveLevel("debug"); got != slog.LevelDebug {
		t.Errorf("ResolveLevel(debug) without env = %v, want DEBUG", got)
	}

	t.Setenv(LevelEnvVar, "ERROR")
	if got := ResolveLevel("debug"); got != slog.LevelError {
		t.Errorf("ResolveLevel(debug) with env ERROR = %v, want ERROR", got)
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	ctx := WithTick(WithSessionID(context.Background(), "abc123"), 42)
	logger.Info(ctx, "tick processed", "entities", 4)
	logger.Debug(context.Background(), "no context")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d log lines, want 2", len(entries))
	}
	if entries[0]["session_id"] != "abc123" {
		t.Errorf("session_id = %v, want abc123", entries[0]["session_id"])
	}
	if entries[0]["tick"] != float64(42) {
		t.Errorf("tick = %v, want 42", entries[0]["tick"])
	}
	if entries[0]["entities"] != float64(4) {
		t.Errorf("entities = %v, want 4", entries[0]["entities"])
	}
	if _, ok := entries[1]["tick"]; ok {
		t.Error("tick present without WithTick")
	}
}

func TestLogger_ErrorAddsErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)

	logger.Error(context.Background(), "entity disabled", errors.New("boom"))
	logger.Debug(context.Background(), "filtered out")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d log lines, want 1", len(entries))
	}
	if entries[0]["error"] != "boom" {
		t.Errorf("error = %v, want boom", entries[0]["error"])
	}
	if entries[0]["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entries[0]["level"])
	}
}

func TestSanitizeAttributes(t *testing.T) {
	tests := []struct {
		key      string
		redacted bool
	}{
		{"password", true},
		{"api_token", true},
		{"client_secret", true},
		{"Authorization", true},
		{"entity", false},
		{"tick", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := sanitizeAttributes(nil, slog.String(tt.key, "value"))
			if (got.Value.String() == "[REDACTED]") != tt.redacted {
				t.Errorf("sanitizeAttributes(%q) = %v, redacted want %v", tt.key, got.Value, tt.redacted)
			}
		})
	}
}

func TestSessionID(t *testing.T) {
	id1, id2 := GenerateSessionID(), GenerateSessionID()
	if len(id1) != 16 || id1 == id2 {
		t.Errorf("GenerateSessionID() = %q, %q; want distinct 16-char ids", id1, id2)
	}
	ctx := WithSessionID(context.Background(), "")
	if GetSessionID(ctx) == "" {
		t.Error("WithSessionID() with empty id did not generate one")
	}
	if GetSessionID(context.Background()) != "" {
		t.Error("GetSessionID() on empty context should be empty")
	}
}

func TestWrapError(t *testing.T) {
	base := errors.New("root cause")
	wrapped := WrapError(base, "loading %s", "config.json")
	if !errors.Is(wrapped, base) {
		t.Error("WrapError() lost the original error")
	}
	if wrapped.Error() != "loading config.json: root cause" {
		t.Errorf("WrapError() = %q", wrapped.Error())
	}
	if WrapError(nil, "ignored") != nil {
		t.Error("WrapError(nil) should be nil")
	}
}
