// Package export appends ledger data to a Google Sheet: one row per synced
// expense and, for the one-shot export command, a date-range category
// breakdown.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"basil/internal/core"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewFromEnv creates a Sheets client using environment variables and
// Service Account credentials.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Ledger"),
// GOOGLE_SERVICE_ACCOUNT_JSON / GOOGLE_SERVICE_ACCOUNT_FILE /
// GOOGLE_APPLICATION_CREDENTIALS for auth.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Ledger"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendExpense appends one row for a synced expense: date, category name,
// display amount.
func (c *Client) AppendExpense(ctx context.Context, e core.Expense, day core.Day, categoryName string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		fmt.Sprintf("%d-%d-%d", day.Month+1, day.Day, day.Year),
		categoryName,
		core.ToDisplay(e.AmountCents),
	}
	if err := c.appendRows(ctx, [][]any{row}); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Expense exported to sheet",
		"id", e.ID, "sheet", c.sheetName)
	return nil
}

// AppendBreakdown appends a labelled category breakdown: a header row for
// the range, then one row per category with its total and share text.
func (c *Client) AppendBreakdown(ctx context.Context, label string, b core.Breakdown) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows := [][]any{
		{label, "Total", core.ToDisplay(b.GlobalTotalCents)},
	}
	for _, row := range b.Rows {
		share := ""
		if row.ShareKnown {
			share = core.FormatSharePercent(row.TotalCents, b.GlobalTotalCents) + "%"
		}
		rows = append(rows, []any{row.Name, core.ToDisplay(row.TotalCents), share})
	}
	if err := c.appendRows(ctx, rows); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Breakdown exported to sheet",
		"label", label, "categories", len(b.Rows), "sheet", c.sheetName)
	return nil
}

func (c *Client) appendRows(ctx context.Context, rows [][]any) error {
	rng := fmt.Sprintf("%s!A:C", c.sheetName)
	vr := &gsheet.ValueRange{Values: rows}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	return nil
}
