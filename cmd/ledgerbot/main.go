package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerbot",
		Short: "Telegram assistant for a Google Sheets spending ledger",
		Long: `ledgerbot relays private Telegram messages to Gemini and answers
/analyze <category> <period> with the total spent, read from a Google Sheets ledger.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAnalyzeCmd())

	return rootCmd
}
