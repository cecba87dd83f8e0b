package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ledgerbot/internal/config"
	applog "ledgerbot/internal/log"
	"ledgerbot/internal/session"
	"ledgerbot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Long polling timeout, in seconds.
const pollTimeout = 60

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := newLogger(cfg)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Startup failed",
			applog.FieldOperation, applog.OpStartup,
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		return err
	}
	defer a.Close()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to initialize Telegram client",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		return fmt.Errorf("initialize Telegram client: %w", err)
	}

	sessions := session.NewStore(cfg.HistoryLimit, session.DefaultModelConfig(cfg.GeminiModel))
	bot := telegram.New(api, sessions, a.llm, a.reports, telegram.Options{
		Locale:        cfg.Locale(),
		Logger:        logger,
		MaxConcurrent: int64(cfg.MaxConcurrentUpdates),
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := api.GetUpdatesChan(u)

	logger.Info("Starting ledgerbot",
		"bot", api.Self.UserName,
		"backend", cfg.DataBackend,
		applog.FieldModel, a.llm.Model(),
		"language", cfg.Language)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The watcher only returns once gctx is done.
		defer stop()
		return bot.Run(gctx, updates)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
		api.StopReceivingUpdates()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Bot stopped with error", applog.FieldError, err)
		return err
	}

	stats := bot.Stats()
	logger.Info("Bot stopped gracefully",
		"sessions", sessions.Len(),
		"updates_handled", stats.Total,
		"updates_failed", stats.Failed,
		"avg_duration", stats.AverageDuration.String())
	return nil
}
