package amqp

import (
	"encoding/json"
	"time"

	"ledgerbot/internal/core"

	"github.com/google/uuid"
)

// ReportMessage announces a completed ledger analysis.
type ReportMessage struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Total     float64   `json:"total"`
	Matched   int       `json:"matched"`
	Skipped   int       `json:"skipped"`
	Timestamp time.Time `json:"timestamp"`
	// TraceID links the event to the update that requested the report.
	TraceID string `json:"trace_id,omitempty"`
}

// NewReportMessage builds a message from a ledger summary.
func NewReportMessage(s core.LedgerSummary) *ReportMessage {
	return &ReportMessage{
		ID:        uuid.NewString(),
		Category:  s.Category,
		Start:     s.Range.Start.Format(time.DateOnly),
		End:       s.Range.End.Format(time.DateOnly),
		Total:     s.Total,
		Matched:   s.Matched,
		Skipped:   s.Skipped,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
