package sheets

import (
	"context"
	"errors"

	"ledgerbot/internal/core"
)

// ErrConfiguration marks failures to authenticate or to locate the
// spreadsheet or worksheet.
var ErrConfiguration = errors.New("spreadsheet configuration error")

// Ports for outbound adapters.
type (
	// Worksheet is an opened ledger worksheet.
	Worksheet interface {
		core.LedgerSource
		Title() string
	}

	// Opener opens the configured worksheet. Implementations do not cache:
	// every call resolves the spreadsheet again.
	Opener interface {
		Open(ctx context.Context) (Worksheet, error)
	}
)
