package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestIDRoundTripsThroughContext(t *testing.T) {
	if got := ID(context.Background()); got != "" {
		t.Errorf("ID(empty) = %q", got)
	}
	id := NewID()
	if got := ID(WithID(context.Background(), id)); got != id {
		t.Errorf("ID = %q, want %q", got, id)
	}
	if NewID() == id {
		t.Error("NewID returned a duplicate")
	}
}

func TestHandlerAddsTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

	logger.InfoContext(WithID(context.Background(), "abc"), "traced")
	logger.Info("untraced")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first["trace_id"] != "abc" || first["component"] != "test" {
		t.Errorf("traced record = %v", first)
	}
	if _, ok := second["trace_id"]; ok {
		t.Errorf("untraced record has trace_id: %v", second)
	}
}

func TestNewHandlerDoesNotWrapTwice(t *testing.T) {
	h := NewHandler(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if NewHandler(h) != h {
		t.Error("expected the same handler")
	}
}

func TestMetrics(t *testing.T) {
	var m Metrics
	if s := m.Snapshot(); s.Total != 0 || s.AverageDuration != 0 {
		t.Fatalf("zero snapshot = %+v", s)
	}
	m.Observe(10*time.Millisecond, true)
	m.Observe(30*time.Millisecond, false)

	s := m.Snapshot()
	if s.Total != 2 || s.Failed != 1 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.AverageDuration != 20*time.Millisecond {
		t.Errorf("AverageDuration = %v", s.AverageDuration)
	}
}
