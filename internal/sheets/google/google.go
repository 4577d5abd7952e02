package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"myeconomy/internal/core"
	ports "myeconomy/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetBase is the sheet name used when none is configured. The alert
// year is prefixed to it, e.g. "2025 Limit alerts".
const DefaultSheetBase = "Limit alerts"

var header = []any{"Month", "Email", "Previous status", "Status", "Total", "Limit", "Occurred at", "Event ID"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var (
	_ ports.AlertWriter = (*Client)(nil)
	_ ports.AlertLister = (*Client)(nil)
)

// New creates a Sheets ledger client authenticated with service account
// credentials taken from the environment.
func New(ctx context.Context, spreadsheetID, sheetBase string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, spreadsheetID, sheetBase), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = DefaultSheetBase
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := serviceAccountCredentials(ctx)
	if err != nil {
		return nil, err
	}
	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendAlert writes the alert on the next free row of the year's sheet. A
// header is written first when the sheet is empty. Alerts whose event id is
// already in column H are not written twice.
func (c *Client) AppendAlert(ctx context.Context, a core.LimitAlert) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(a.EventID) == "" {
		return "", errors.New("alert without event id")
	}
	sheet := yearPrefixedName(c.sheetBase, a.Period.Year)

	rng := fmt.Sprintf("%s!A:H", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		cols := toStrings(row)
		if len(cols) >= 8 && cols[7] == a.EventID {
			slog.InfoContext(ctx, "Alert already recorded", "event_id", a.EventID, "sheet", sheet, "row", i+1)
			return rowRef(sheet, i+1), nil
		}
	}

	rows := [][]any{}
	nextRow := len(resp.Values) + 1
	startRow := nextRow
	if len(resp.Values) == 0 {
		rows = append(rows, header)
		nextRow++
	}
	rows = append(rows, alertRow(a))

	dataRange := fmt.Sprintf("%s!A%d:H%d", sheet, startRow, nextRow)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", dataRange, err)
	}
	return rowRef(sheet, nextRow), nil
}

// ListAlerts reads back the alerts recorded in the year's sheet. Rows that do
// not parse, including the header, are skipped.
func (c *Client) ListAlerts(ctx context.Context, year int) ([]core.LimitAlert, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:H", yearPrefixedName(c.sheetBase, year))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([]core.LimitAlert, 0, len(resp.Values))
	for _, row := range resp.Values {
		a, ok := parseAlertRow(toStrings(row))
		if !ok {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// alertRow renders one ledger row. The month and timestamp carry a leading
// apostrophe so USER_ENTERED keeps them as text.
func alertRow(a core.LimitAlert) []any {
	return []any{
		"'" + a.Period.String(),
		a.Email,
		string(a.PreviousStatus),
		string(a.Status),
		a.Total.String(),
		a.Limit.String(),
		"'" + a.OccurredAt.UTC().Format(time.RFC3339),
		a.EventID,
	}
}

func parseAlertRow(cols []string) (core.LimitAlert, bool) {
	if len(cols) < 8 {
		return core.LimitAlert{}, false
	}
	d, err := core.ParseDate(strings.TrimPrefix(cols[0], "'") + "-01")
	if err != nil {
		return core.LimitAlert{}, false
	}
	total, err := core.ParseDecimalToCents(cols[4])
	if err != nil {
		return core.LimitAlert{}, false
	}
	limit, err := core.ParseDecimalToCents(cols[5])
	if err != nil {
		return core.LimitAlert{}, false
	}
	at, err := time.Parse(time.RFC3339, strings.TrimPrefix(cols[6], "'"))
	if err != nil {
		return core.LimitAlert{}, false
	}
	a := core.LimitAlert{
		EventID:        cols[7],
		Email:          cols[1],
		Period:         d.Period(),
		PreviousStatus: core.LimitStatus(cols[2]),
		Status:         core.LimitStatus(cols[3]),
		Total:          core.Money{Cents: total},
		Limit:          core.Money{Cents: limit},
		OccurredAt:     at,
	}
	if !a.Status.IsValid() || !a.PreviousStatus.IsValid() {
		return core.LimitAlert{}, false
	}
	return a, true
}

func rowRef(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
