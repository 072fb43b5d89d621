// Package google exports monthly snapshots to a Google spreadsheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kannadi/internal/core"
	applog "kannadi/internal/log"
	"kannadi/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *applog.Logger

	mu    sync.Mutex
	ready map[string]bool
}

var _ sheets.SnapshotExporter = (*Client)(nil)

// Options configures a Client. CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetBase       string
	CredentialsJSON string
	CredentialsFile string
}

// NewClient builds a Sheets client from service account credentials.
func NewClient(ctx context.Context, opts Options, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newWithService(svc, opts, logger), nil
}

func newWithService(svc *gsheet.Service, opts Options, logger *applog.Logger) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		sheetBase:     opts.SheetBase,
		logger:        logger.WithComponent(applog.ComponentSheets),
		ready:         map[string]bool{},
	}
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case opts.CredentialsFile != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}
}

// ExportSnapshot writes md to its fixed row in the year tab, creating the
// tab and header on first use.
func (c *Client) ExportSnapshot(ctx context.Context, md core.MonthlyData) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := sheets.SheetName(c.sheetBase, md.Month.Year())
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	rng := sheets.RowRange(sheet, md.Month)
	vr := &gsheet.ValueRange{Values: [][]any{sheets.Row(md)}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	c.logger.DebugContext(ctx, "Snapshot exported", applog.FieldMonth, md.Month.String(), "range", rng)
	return nil
}

// ensureSheet adds the tab when the spreadsheet lacks it and writes the
// header. Known tabs are remembered for the client's lifetime.
func (c *Client) ensureSheet(ctx context.Context, sheet string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready[sheet] {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	exists := false
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			exists = true
			break
		}
	}
	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
		}}}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add sheet %s: %w", sheet, err)
		}
		c.logger.InfoContext(ctx, "Created year sheet", "sheet", sheet)
	}

	header := &gsheet.ValueRange{Values: [][]any{sheets.HeaderRow()}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheets.HeaderRange(sheet), header).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header for %s: %w", sheet, err)
	}
	c.ready[sheet] = true
	return nil
}
