package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"setlist/internal/services"
)

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger = NewComponentLogger(logger, "session")
	logger.Info("sample identified", String("artist", "Daft Punk"), Int("timestamp", 30))

	line := buf.String()
	for _, want := range []string{"INFO", "session: sample identified", `artist="Daft Punk"`, "timestamp=30"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestConsoleHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info record to be filtered, got %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("expected warn record, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	if fields := ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields from a bare context, got %v", fields)
	}

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithSource(ctx, "set.mp3")

	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := WithContext(ctx, slog.New(newConsoleHandler(&buf, levelVar)))
	logger.Info("starting")

	line := buf.String()
	for _, want := range []string{"run_id=run-1", "source=set.mp3"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestNopLoggerNeverEnabled(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(nil, slog.LevelError) {
		t.Fatal("nop logger should never be enabled")
	}
}
