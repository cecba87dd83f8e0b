package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/trace"

	"github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp091.Publishing
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func summary() core.LedgerSummary {
	return core.LedgerSummary{
		Category: "cafe",
		Range:    core.DateRange{Start: core.NewDate(2024, time.June, 1), End: core.NewDate(2024, time.June, 15)},
		Total:    80000,
		Matched:  2,
		Skipped:  1,
	}
}

func TestNewReportMessage(t *testing.T) {
	msg := NewReportMessage(summary())
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", msg)
	}
	if msg.Start != "2024-06-01" || msg.End != "2024-06-15" || msg.Total != 80000 || msg.Matched != 2 || msg.Skipped != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestReportMessage_ToJSON(t *testing.T) {
	data, err := NewReportMessage(summary()).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, want := range []string{`"category":"cafe"`, `"start":"2024-06-01"`, `"total":80000`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in %s", want, data)
		}
	}
	if strings.Contains(string(data), "trace_id") {
		t.Errorf("empty trace id should be omitted: %s", data)
	}
}

func TestClient_PublishReport(t *testing.T) {
	ch := &fakeChannel{}
	c := newClient(ch, "ledgerbot", "reports", nil)

	ctx := trace.WithID(context.Background(), "trace-1")
	if err := c.PublishReport(ctx, summary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.exchange != "ledgerbot" || ch.key != "reports" {
		t.Fatalf("unexpected routing: %q %q", ch.exchange, ch.key)
	}
	if ch.msg.ContentType != "application/json" || ch.msg.DeliveryMode != amqp091.Persistent || ch.msg.MessageId == "" {
		t.Fatalf("unexpected publishing: %+v", ch.msg)
	}
	var decoded ReportMessage
	err := json.Unmarshal(ch.msg.Body, &decoded)
	if err != nil || decoded.Category != "cafe" || decoded.ID != ch.msg.MessageId || decoded.TraceID != "trace-1" {
		t.Fatalf("unexpected body: %+v err=%v", decoded, err)
	}

	if err := c.Close(); err != nil || !ch.closed {
		t.Fatalf("close: err=%v closed=%v", err, ch.closed)
	}
}

func TestClient_PublishReportError(t *testing.T) {
	boom := errors.New("channel closed")
	c := newClient(&fakeChannel{err: boom}, "x", "q", nil)
	if err := c.PublishReport(context.Background(), summary()); !errors.Is(err, boom) {
		t.Fatalf("expected publish error, got %v", err)
	}
}
