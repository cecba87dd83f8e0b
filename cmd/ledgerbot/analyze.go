package main

import (
	"fmt"
	"io"
	"strings"

	"ledgerbot/internal/config"
	applog "ledgerbot/internal/log"
	"ledgerbot/internal/services"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <category> <period...>",
		Short: "Total a category over a period and print the report",
		Example: `  ledgerbot analyze cafe tuần này
  BOT_LANGUAGE=en ledgerbot analyze dining this month`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := newLogger(cfg)
			applog.SetDefault(logger)

			if err := cfg.ValidateReporting(); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			period := strings.ToLower(strings.Join(args[1:], " "))
			rep, err := a.reports.Analyze(cmd.Context(), args[0], period)
			if err != nil {
				if services.IsUsageError(err) {
					return fmt.Errorf("%s", cfg.Locale().UnknownPeriod)
				}
				return err
			}
			return printReport(cmd.OutOrStdout(), rep, cfg.Locale().Currency)
		},
	}
}

func printReport(w io.Writer, rep services.Report, currency string) error {
	s := rep.Summary
	_, err := fmt.Fprintf(w, "%s  %s → %s\n%s %s  (%s rows matched, %s skipped)\n\n%s\n",
		s.Category,
		s.Range.Start.Format("2006-01-02"),
		s.Range.End.Format("2006-01-02"),
		humanize.CommafWithDigits(s.Total, 2),
		currency,
		humanize.Comma(int64(s.Matched)),
		humanize.Comma(int64(s.Skipped)),
		strings.TrimSpace(rep.Text))
	return err
}
