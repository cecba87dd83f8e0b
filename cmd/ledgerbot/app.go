package main

import (
	"context"
	"fmt"

	"ledgerbot/internal/amqp"
	"ledgerbot/internal/config"
	"ledgerbot/internal/llm"
	applog "ledgerbot/internal/log"
	"ledgerbot/internal/services"
	ports "ledgerbot/internal/sheets"
	gsheet "ledgerbot/internal/sheets/google"
	mem "ledgerbot/internal/sheets/memory"
)

// app holds the adapters shared by the serve and analyze commands.
type app struct {
	cfg       *config.Config
	logger    *applog.Logger
	llm       *llm.Client
	reports   *services.ReportService
	publisher *amqp.Client
}

func newLogger(cfg *config.Config) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = applog.DefaultConfig().Level
	}
	c := applog.DefaultConfig()
	c.Level = level
	c.Format = cfg.LogFormat
	return applog.New(c)
}

// openLedger picks the ledger backend named by DATA_BACKEND.
func openLedger(ctx context.Context, cfg *config.Config, logger *applog.Logger) (ports.Opener, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		store, err := mem.NewFromCSV(cfg.MemoryLedgerFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendSheets:
		client, err := gsheet.New(ctx, cfg.ServiceAccountJSON, cfg.GoogleSheetID, cfg.GoogleWorksheetName, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: unknown data backend %q", ports.ErrConfiguration, cfg.DataBackend)
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*app, error) {
	ledger, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize %s backend: %w", cfg.DataBackend, err)
	}
	logger.Info("Initialized ledger backend", "backend", cfg.DataBackend)

	gemini, err := llm.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize Gemini client: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, llm: gemini}

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var publisher services.ReportPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize AMQP client: %w", err)
		}
		a.publisher = client
		publisher = client
		logger.Info("Report events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Report events disabled - no AMQP_URL provided")
	}

	a.reports = services.NewReportService(ledger, gemini, cfg.Locale(), publisher, logger)
	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("Failed to close AMQP client", applog.FieldError, err)
		}
	}
}
