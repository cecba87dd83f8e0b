package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	applog "ledgerbot/internal/log"
	ports "ledgerbot/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Worksheet title; empty selects the first worksheet.
	worksheet string
	logger    *applog.Logger
}

// Worksheet reads cell values from one worksheet of a spreadsheet.
type Worksheet struct {
	svc              *gsheet.Service
	spreadsheetID    string
	spreadsheetTitle string
	title            string
	logger           *applog.Logger
}

// Ensure interface conformance
var (
	_ ports.Opener    = (*Client)(nil)
	_ ports.Worksheet = (*Worksheet)(nil)
)

// New creates a read-only Sheets client authenticated with a service account.
// credentials is either a path to the key file or the inline JSON key.
func New(ctx context.Context, credentials, spreadsheetID, worksheet string, logger *applog.Logger) (*Client, error) {
	logger = applog.ForComponent(logger, applog.ComponentSheets)
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%w: missing spreadsheet id", ports.ErrConfiguration)
	}
	svc, err := newSheetsService(ctx, credentials, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: sheets service: %w", ports.ErrConfiguration, err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     strings.TrimSpace(worksheet),
		logger:        logger,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, credentials string, logger *applog.Logger) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(credentials)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(credentials string) ([]byte, error) {
	credentials = strings.TrimSpace(credentials)
	switch {
	case credentials == "":
		return nil, errors.New("missing service account credentials")
	case strings.HasPrefix(credentials, "{"):
		return []byte(credentials), nil
	default:
		b, err := os.ReadFile(credentials)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
}

// Open looks the spreadsheet up and returns the configured worksheet.
func (c *Client) Open(ctx context.Context) (ports.Worksheet, error) {
	if c.svc == nil {
		return nil, fmt.Errorf("%w: sheets service not initialized", ports.ErrConfiguration)
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("properties.title,sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: get spreadsheet %s: %w", ports.ErrConfiguration, c.spreadsheetID, err)
	}
	title, err := selectWorksheet(ss, c.worksheet)
	if err != nil {
		return nil, err
	}

	ssTitle := ""
	if ss.Properties != nil {
		ssTitle = ss.Properties.Title
	}
	c.logger.InfoContext(ctx, "Opened Google Sheet", "spreadsheet", ssTitle, "worksheet", title)

	return &Worksheet{
		svc:              c.svc,
		spreadsheetID:    c.spreadsheetID,
		spreadsheetTitle: ssTitle,
		title:            title,
		logger:           c.logger,
	}, nil
}

// selectWorksheet returns the named worksheet title, or the first worksheet
// when name is empty.
func selectWorksheet(ss *gsheet.Spreadsheet, name string) (string, error) {
	var titles []string
	for _, sh := range ss.Sheets {
		if sh == nil || sh.Properties == nil {
			continue
		}
		titles = append(titles, sh.Properties.Title)
	}
	if len(titles) == 0 {
		return "", fmt.Errorf("%w: spreadsheet has no worksheets", ports.ErrConfiguration)
	}
	if name == "" {
		return titles[0], nil
	}
	for _, t := range titles {
		if t == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: worksheet %q not found; got %v", ports.ErrConfiguration, name, titles)
}

func (w *Worksheet) Title() string { return w.title }

// RowValues returns the formatted cells of a single 1-based row.
func (w *Worksheet) RowValues(ctx context.Context, row int) ([]string, error) {
	if row < 1 {
		return nil, fmt.Errorf("invalid row: %d", row)
	}
	rng := rowRange(w.title, row)
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return []string{}, nil
	}
	return toStrings(resp.Values[0]), nil
}

// AllValues returns every row of the worksheet as formatted strings.
func (w *Worksheet) AllValues(ctx context.Context) ([][]string, error) {
	rng := quoteSheetName(w.title)
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	w.logger.DebugContext(ctx, "Read worksheet values",
		"spreadsheet", w.spreadsheetTitle,
		"worksheet", w.title,
		"rows", len(resp.Values))
	return padRows(resp.Values), nil
}
