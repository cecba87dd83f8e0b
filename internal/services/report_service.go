package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/locale"
	applog "ledgerbot/internal/log"
	"ledgerbot/internal/sheets"
)

// ErrUnknownPeriod is returned when a period phrase matches no keyword.
var ErrUnknownPeriod = core.ErrUnknownPeriod

// Generator phrases a prompt with a single model call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ReportPublisher announces completed reports.
type ReportPublisher interface {
	PublishReport(ctx context.Context, s core.LedgerSummary) error
}

// Report is the outcome of one analysis.
type Report struct {
	Summary core.LedgerSummary
	Text    string
}

// ReportService computes ledger totals and asks the model to phrase them.
type ReportService struct {
	opener    sheets.Opener
	generator Generator
	locale    *locale.Locale
	publisher ReportPublisher
	logger    *applog.Logger
	now       func() time.Time
}

func NewReportService(opener sheets.Opener, generator Generator, loc *locale.Locale, publisher ReportPublisher, logger *applog.Logger) *ReportService {
	if loc == nil {
		loc = locale.Vietnamese
	}
	return &ReportService{
		opener:    opener,
		generator: generator,
		locale:    loc,
		publisher: publisher,
		logger:    applog.ForComponent(logger, applog.ComponentReport),
		now:       time.Now,
	}
}

// WithClock replaces the time source used to resolve periods.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Summarize resolves the period and totals the category without calling the
// model. An unrecognized period fails before the spreadsheet is opened.
func (s *ReportService) Summarize(ctx context.Context, category, periodPhrase string) (core.LedgerSummary, error) {
	category = strings.TrimSpace(category)
	period := s.locale.ClassifyPeriod(periodPhrase)
	if period == core.PeriodUnknown {
		return core.LedgerSummary{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, periodPhrase)
	}
	r, err := core.RangeFor(period, s.now())
	if err != nil {
		return core.LedgerSummary{}, err
	}

	ws, err := s.opener.Open(ctx)
	if err != nil {
		return core.LedgerSummary{}, fmt.Errorf("open ledger: %w", err)
	}
	summary, err := core.CalculateTotal(ctx, ws, category, r)
	if err != nil {
		return core.LedgerSummary{}, fmt.Errorf("calculate total: %w", err)
	}

	s.logger.InfoContext(ctx, "Ledger total calculated",
		"worksheet", ws.Title(),
		applog.FieldCategory, category,
		applog.FieldPeriod, period.String(),
		"start", r.Start.Format(time.DateOnly),
		"end", r.End.Format(time.DateOnly),
		"total", summary.Total,
		"matched", summary.Matched,
		"skipped", summary.Skipped)
	return summary, nil
}

// Analyze totals the category over the period and returns the model's
// phrasing of the result. The number itself is never computed by the model.
func (s *ReportService) Analyze(ctx context.Context, category, periodPhrase string) (Report, error) {
	summary, err := s.Summarize(ctx, category, periodPhrase)
	if err != nil {
		return Report{}, err
	}

	text, err := s.generator.Generate(ctx, s.locale.Prompt(summary))
	if err != nil {
		return Report{Summary: summary}, fmt.Errorf("phrase report: %w", err)
	}

	if err := s.publish(ctx, summary); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish report event",
			applog.NewFields().
				WithOperation(applog.OpAnalyze).
				WithError(err, applog.ErrorTypeTransport).
				ToSlice()...)
		// Don't fail the request - the user already has the answer
	}

	return Report{Summary: summary, Text: text}, nil
}

func (s *ReportService) publish(ctx context.Context, summary core.LedgerSummary) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishReport(ctx, summary)
}

// IsUsageError reports whether err should be answered with guidance rather
// than an error message.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrUnknownPeriod)
}
