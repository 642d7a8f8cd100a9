package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestInitLogger_ValidLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.level, "text")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			logger := GetLogger()
			if logger == nil {
				t.Fatal("GetLogger() returned nil")
			}
		})
	}
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger("invalid", "text")
	if err == nil {
		t.Error("expected error for invalid log level, got nil")
	}
}

func TestInitLogger_InvalidFormat(t *testing.T) {
	err := InitLogger("info", "xml")
	if err == nil {
		t.Error("expected error for invalid log format, got nil")
	}
}

func TestGetLogger_BeforeInit(t *testing.T) {
	// globalLoggerをリセット
	globalLogger = nil

	logger := GetLogger()
	if logger == nil {
		t.Error("GetLogger() should return default logger when not initialized")
	}

	// デフォルトロガーが返されることを確認
	if logger != slog.Default() {
		t.Error("GetLogger() should return slog.Default() when not initialized")
	}
}

func TestGetLogger_AfterInit(t *testing.T) {
	err := InitLogger("info", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger := GetLogger()
	if logger != globalLogger {
		t.Error("GetLogger() should return the initialized logger")
	}
}

func TestFor_AddsComponent(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := InitLoggerTo(&buf, "debug", "text"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		For("vm").Info("hello", "sid", 7)

		out := buf.String()
		if !strings.Contains(out, "component=vm") || !strings.Contains(out, "sid=7") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := InitLoggerTo(&buf, "info", "json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		For("sequencer").Info("started")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if rec["component"] != "sequencer" {
			t.Errorf("component = %v", rec["component"])
		}
	})

	t.Run("level filter", func(t *testing.T) {
		var buf bytes.Buffer
		if err := InitLoggerTo(&buf, "warn", "text"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		For("vm").Info("dropped")
		if buf.Len() != 0 {
			t.Errorf("info record should be filtered at warn level: %q", buf.String())
		}
	})
}
