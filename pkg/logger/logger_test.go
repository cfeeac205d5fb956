package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func entryFields(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := bytes.TrimSpace(buf.Bytes())
	fields := map[string]any{}
	if err := json.Unmarshal(line, &fields); err != nil {
		t.Fatalf("entry is not valid JSON: %v; entry=%s", err, line)
	}
	return fields
}

func TestContextFieldsAccumulate(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "gateway", Level: zerolog.DebugLevel, Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithSessionID(ctx, "guest-abc")
	ctx = log.WithOperation(ctx, "cart.add")
	log.Info(ctx, "request.complete")

	fields := entryFields(t, buf)
	if fields["request_id"] != "req-123" || fields["session_id"] != "guest-abc" {
		t.Fatalf("expected context fields in entry, got %v", fields)
	}
	if fields["operation"] != "cart.add" || fields["service"] != "gateway" {
		t.Fatalf("expected operation and service tags, got %v", fields)
	}
}

func TestErrorCarriesStackAndError(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "gateway", Output: buf})

	log.Error(context.Background(), "sync failed", errors.New("backend unreachable"))

	fields := entryFields(t, buf)
	if fields["error"] != "backend unreachable" {
		t.Fatalf("expected error field, got %v", fields)
	}
	if _, ok := fields["stack"]; !ok {
		t.Fatalf("expected stack on error entries, got %v", fields)
	}
}

func TestWarnStackToggle(t *testing.T) {
	quiet := &bytes.Buffer{}
	New(Options{ServiceName: "gateway", Output: quiet}).Warn(context.Background(), "w")
	if fields := entryFields(t, quiet); fields["stack"] != nil {
		t.Fatalf("stack must be absent when WarnStack is off, got %v", fields)
	}

	noisy := &bytes.Buffer{}
	New(Options{ServiceName: "gateway", Output: noisy, WarnStack: true}).Warn(context.Background(), "w")
	if fields := entryFields(t, noisy); fields["stack"] == nil {
		t.Fatalf("stack must be present when WarnStack is on, got %v", fields)
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel(""); got != zerolog.InfoLevel {
		t.Fatalf("empty level should default to info, got %v", got)
	}
	if got := ParseLevel("not-a-level"); got != zerolog.InfoLevel {
		t.Fatalf("unknown level should default to info, got %v", got)
	}
	if got := ParseLevel(" DEBUG "); got != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", got)
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "gateway", Level: zerolog.WarnLevel, Output: buf})
	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "also hidden")
	if buf.Len() != 0 {
		t.Fatalf("entries below warn must be suppressed, got %s", buf.String())
	}
}
