package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"bogus", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Level: LogLevelWarn, Output: &buf})

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("low-severity messages not filtered:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("high-severity messages missing:\n%s", out)
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf, Prefix: "test"})

	l.WithComponent("hook").Info("installed")

	out := buf.String()
	if !strings.Contains(out, "component=hook") {
		t.Errorf("component field missing:\n%s", out)
	}
	if !strings.Contains(out, "test: installed") {
		t.Errorf("prefix or message missing:\n%s", out)
	}
}

func TestNullLoggerSilent(t *testing.T) {
	// Must not panic or write anywhere.
	NullLogger.Error("ignored %d", 42)
}
