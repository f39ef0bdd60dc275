// Package google implements the sheets ports against the Google Sheets API.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"bollette/internal/core"
	ports "bollette/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	scheduleSheet string
}

// Ensure interface conformance
var (
	_ ports.OccurrenceWriter = (*Client)(nil)
	_ ports.ScheduleDeleter  = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Payments")
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	scheduleSheet := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if scheduleSheet == "" {
		scheduleSheet = "Payments"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		scheduleSheet: scheduleSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
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

	slog.InfoContext(ctx, "Google Sheets service created",
		"scope", gsheet.SpreadsheetsScope)
	return service, nil
}

// WriteSchedule mirrors the bill's occurrences to the schedule sheet. Any rows
// previously written for the same bill are removed first, so re-syncing a
// regenerated schedule never leaves stale rows behind.
func (c *Client) WriteSchedule(ctx context.Context, bill core.Bill, occurrences []core.Occurrence) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	if err := c.DeleteSchedule(ctx, bill.ID); err != nil {
		return err
	}
	if len(occurrences) == 0 {
		return nil
	}

	rng := fmt.Sprintf("%s!A:F", c.scheduleSheet)
	vr := &gsheet.ValueRange{Values: scheduleRows(bill, occurrences)}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append schedule rows to %s: %w", c.scheduleSheet, err)
	}

	slog.InfoContext(ctx, "Mirrored schedule to sheet",
		"bill_id", bill.ID,
		"rows", len(occurrences),
		"sheet", c.scheduleSheet)
	return nil
}

// DeleteSchedule removes every row of the given bill from the schedule sheet.
func (c *Client) DeleteSchedule(ctx context.Context, billID int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", c.scheduleSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}

	rows := matchingRows(resp.Values, billID)
	if len(rows) == 0 {
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	// Delete bottom-up so earlier deletions don't shift pending indexes.
	requests := make([]*gsheet.Request, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		requests = append(requests, &gsheet.Request{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rows[i]),
					EndIndex:   int64(rows[i]) + 1,
				},
			},
		})
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete schedule rows: %w", err)
	}

	slog.InfoContext(ctx, "Deleted mirrored schedule rows",
		"bill_id", billID,
		"rows", len(rows),
		"sheet", c.scheduleSheet)
	return nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.scheduleSheet {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.scheduleSheet)
}

// scheduleRows converts occurrences to the sheet row layout:
// bill id, sequence, description, amount, due date, submission date.
func scheduleRows(bill core.Bill, occurrences []core.Occurrence) [][]any {
	rows := make([][]any, 0, len(occurrences))
	for _, occ := range occurrences {
		rows = append(rows, []any{
			bill.ID,
			occ.Sequence,
			bill.Description,
			float64(occ.AmountDue.Cents) / 100.0,
			occ.DueDate.String(),
			occ.SuggestedSubmissionDate.String(),
		})
	}
	return rows
}

// matchingRows returns the zero-based indexes of rows whose first cell holds
// the given bill id. Header and non-numeric rows are skipped.
func matchingRows(values [][]any, billID int64) []int {
	var out []int
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil {
			continue
		}
		if id == billID {
			out = append(out, i)
		}
	}
	return out
}
