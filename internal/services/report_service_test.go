package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/locale"
	applog "ledgerbot/internal/log"
	"ledgerbot/internal/sheets"
	"ledgerbot/internal/sheets/memory"
)

type fakeGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakePublisher struct {
	published []core.LedgerSummary
	err       error
}

func (f *fakePublisher) PublishReport(_ context.Context, s core.LedgerSummary) error {
	f.published = append(f.published, s)
	return f.err
}

func ledger() *memory.Store {
	return memory.New("Ledger", [][]string{
		{"Date", "Category", "Amount"},
		{"2024-06-01", "cafe", "50.000"},
		{"2024-06-10", "Café", "30.000"},
		{"2024-06-10", "food", "100.000"},
		{"2024-05-31", "cafe", "999.000"},
	})
}

// Saturday 15 June 2024.
func fixedNow() time.Time { return time.Date(2024, time.June, 15, 20, 0, 0, 0, time.UTC) }

func TestReportService_AnalyzeMonth(t *testing.T) {
	store := ledger()
	gen := &fakeGenerator{reply: "Bạn đã chi 80.000 VND cho cafe."}
	pub := &fakePublisher{}
	svc := NewReportService(store, gen, locale.Vietnamese, pub, nil).WithClock(fixedNow)

	rep, err := svc.Analyze(context.Background(), "cafe", "tháng này")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Summary.Total != 80000 || rep.Summary.Matched != 2 {
		t.Fatalf("unexpected summary: %+v", rep.Summary)
	}
	if rep.Text != gen.reply {
		t.Fatalf("unexpected text: %q", rep.Text)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "từ 2024-06-01 đến 2024-06-15 là 80000.00 VND") {
		t.Fatalf("unexpected prompt: %v", gen.prompts)
	}
	if len(pub.published) != 1 || pub.published[0].Total != 80000 {
		t.Fatalf("expected one published report, got %+v", pub.published)
	}
}

func TestReportService_AnalyzeWeek(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc := NewReportService(ledger(), gen, locale.English, nil, nil).WithClock(fixedNow)

	rep, err := svc.Analyze(context.Background(), "cafe", "this week")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Week of Monday 10 June: only the 10 June row counts.
	if rep.Summary.Total != 30000 {
		t.Fatalf("unexpected total: %+v", rep.Summary)
	}
	if !rep.Summary.Range.Start.Equal(core.NewDate(2024, time.June, 10)) {
		t.Fatalf("unexpected start: %v", rep.Summary.Range.Start)
	}
}

func TestReportService_UnknownPeriodSkipsSpreadsheet(t *testing.T) {
	store := ledger()
	gen := &fakeGenerator{}
	svc := NewReportService(store, gen, locale.English, nil, nil).WithClock(fixedNow)

	_, err := svc.Analyze(context.Background(), "foo", "sometime")
	if !errors.Is(err, ErrUnknownPeriod) || !IsUsageError(err) {
		t.Fatalf("expected ErrUnknownPeriod, got %v", err)
	}
	if store.Opens() != 0 || len(gen.prompts) != 0 {
		t.Fatalf("expected no spreadsheet or model access, opens=%d prompts=%d", store.Opens(), len(gen.prompts))
	}
}

func TestReportService_Failures(t *testing.T) {
	t.Run("spreadsheet unreachable", func(t *testing.T) {
		store := ledger()
		store.Fail(errors.New("403 forbidden"))
		svc := NewReportService(store, &fakeGenerator{}, nil, nil, nil).WithClock(fixedNow)
		_, err := svc.Analyze(context.Background(), "cafe", "tuần này")
		if !errors.Is(err, sheets.ErrConfiguration) || IsUsageError(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		store := memory.New("Ledger", [][]string{{"when", "what"}})
		svc := NewReportService(store, &fakeGenerator{}, nil, nil, nil).WithClock(fixedNow)
		_, err := svc.Analyze(context.Background(), "cafe", "tuần này")
		if !errors.Is(err, core.ErrMissingColumn) {
			t.Fatalf("expected missing column, got %v", err)
		}
	})

	t.Run("model failure", func(t *testing.T) {
		boom := errors.New("model down")
		pub := &fakePublisher{}
		svc := NewReportService(ledger(), &fakeGenerator{err: boom}, nil, pub, nil).WithClock(fixedNow)
		rep, err := svc.Analyze(context.Background(), "cafe", "tháng này")
		if !errors.Is(err, boom) {
			t.Fatalf("expected model error, got %v", err)
		}
		if rep.Summary.Total != 80000 || len(pub.published) != 0 {
			t.Fatalf("unexpected report %+v published=%d", rep, len(pub.published))
		}
	})

	t.Run("publish failure is not surfaced", func(t *testing.T) {
		var buf bytes.Buffer
		logger := applog.New(applog.Config{Level: slog.LevelInfo, Format: applog.FormatJSON, Output: &buf})
		pub := &fakePublisher{err: errors.New("broker down")}
		svc := NewReportService(ledger(), &fakeGenerator{reply: "ok"}, nil, pub, logger).WithClock(fixedNow)
		if _, err := svc.Analyze(context.Background(), "cafe", "tháng này"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, want := range []string{`"component":"report"`, `"error":"broker down"`, `"error_type":"transport_error"`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %s in log output %s", want, out)
			}
		}
	})
}

func TestReportService_Summarize(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewReportService(ledger(), gen, nil, nil, nil).WithClock(fixedNow)
	s, err := svc.Summarize(context.Background(), " food ", "tháng này")
	if err != nil || s.Total != 100000 {
		t.Fatalf("unexpected summary %+v err=%v", s, err)
	}
	if len(gen.prompts) != 0 {
		t.Fatalf("Summarize must not call the model")
	}
}
