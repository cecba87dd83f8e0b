package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"ledgerbot/internal/config"
	"ledgerbot/internal/core"
	applog "ledgerbot/internal/log"
	"ledgerbot/internal/services"
	ports "ledgerbot/internal/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "analyze"}, names)
	assert.NotNil(t, root.RunE, "bare invocation serves")
}

func TestAnalyzeCmd_RequiresCategoryAndPeriod(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"analyze", "cafe"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 2 arg(s)")
}

func TestOpenLedger_Memory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	csv := "date,category,amount\n2024-06-01,cafe,50.000\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	cfg := &config.Config{DataBackend: config.BackendMemory, MemoryLedgerFile: path}
	opener, err := openLedger(context.Background(), cfg, nil)
	require.NoError(t, err)

	ws, err := opener.Open(context.Background())
	require.NoError(t, err)
	rows, err := ws.AllValues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"date", "category", "amount"},
		{"2024-06-01", "cafe", "50.000"},
	}, rows)
}

func TestOpenLedger_UnknownBackend(t *testing.T) {
	_, err := openLedger(context.Background(), &config.Config{DataBackend: "excel"}, nil)
	assert.ErrorIs(t, err, ports.ErrConfiguration)
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	logger := newLogger(&config.Config{LogLevel: "loud", LogFormat: applog.FormatJSON})
	assert.True(t, logger.Enabled(context.Background(), applog.DefaultConfig().Level))
	assert.False(t, logger.Enabled(context.Background(), applog.DefaultConfig().Level-4))
}

func TestPrintReport(t *testing.T) {
	rep := services.Report{
		Summary: core.LedgerSummary{
			Category: "cafe",
			Range:    core.DateRange{Start: core.NewDate(2024, 6, 1), End: core.NewDate(2024, 6, 15)},
			Total:    1234567.5,
			Matched:  2,
			Skipped:  1,
		},
		Text: "  You spent a lot on cafe.\n",
	}
	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, rep, "VND"))

	out := buf.String()
	assert.Contains(t, out, "cafe  2024-06-01 → 2024-06-15")
	assert.Contains(t, out, "1,234,567.5 VND")
	assert.Contains(t, out, "(2 rows matched, 1 skipped)")
	assert.Contains(t, out, "\n\nYou spent a lot on cafe.\n")
}
