// Package trace carries a per-update trace id through contexts and log
// records, and keeps simple handler metrics.
package trace

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ContextKey type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for the trace id
	TraceIDKey ContextKey = "trace_id"

	attrTraceID = "trace_id"
)

// NewID creates a unique trace id.
func NewID() string {
	return uuid.NewString()
}

// WithID returns a context carrying the trace id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}

// ID extracts the trace id from context
func ID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(TraceIDKey).(string); ok {
		return id
	}
	return ""
}

// Handler adds the context's trace id to every record it handles.
type Handler struct {
	next slog.Handler
}

func NewHandler(next slog.Handler) *Handler {
	if h, ok := next.(*Handler); ok {
		return h
	}
	return &Handler{next: next}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id := ID(ctx); id != "" {
		r.AddAttrs(slog.String(attrTraceID, id))
	}
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name)}
}

// Metrics tracks handled updates
type Metrics struct {
	total       atomic.Int64
	failed      atomic.Int64
	totalMicros atomic.Int64
}

// Stats is a point-in-time copy of Metrics.
type Stats struct {
	Total           int64
	Failed          int64
	AverageDuration time.Duration
}

// Observe records one handled update.
func (m *Metrics) Observe(d time.Duration, ok bool) {
	m.total.Add(1)
	if !ok {
		m.failed.Add(1)
	}
	m.totalMicros.Add(d.Microseconds())
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() Stats {
	s := Stats{Total: m.total.Load(), Failed: m.failed.Load()}
	if s.Total > 0 {
		s.AverageDuration = time.Duration(m.totalMicros.Load()/s.Total) * time.Microsecond
	}
	return s
}
