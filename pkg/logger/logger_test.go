package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("json")); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after json initialization")
	}
}

func TestLoggerUnknownFormat(t *testing.T) {
	if _, err := New(nil, WithFormat("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(slog.LevelDebug, WithFormat("json"), WithOutput(&buf))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	l.Named("store").Info(context.Background(), "select", String("table", "Members"), Int("rows", 3), Error(errors.New("boom")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "select" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["component"] != "store" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["table"] != "Members" {
		t.Errorf("table = %v", entry["table"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
	if src, _ := entry["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source = %v", entry["source"])
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(nil, WithOutput(&buf))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.With(String("request_id", "abc")).Info(context.Background(), "handled")
	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("missing request_id in %q", buf.String())
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(slog.LevelWarn, WithOutput(&buf))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Debug(context.Background(), "hidden")
	l.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	l.Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn output, got %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	for _, lvl := range []string{"debug", "info", "", "warn", "warning", "error", " DEBUG "} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q) returned %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "discarded", String("k", "v"))
	l.Named("x").With(Int("n", 1)).Info(context.Background(), "discarded")
}
