package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"myeconomy/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the two Values endpoints the client uses, keeping one
// sheet's rows in memory.
type fakeSheets struct {
	mu      sync.Mutex
	rows    [][]any
	ranges  []string
	updates int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, rng, ok := strings.Cut(r.URL.Path, "/values/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	f.ranges = append(f.ranges, r.Method+" "+rng)
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "majorDimension": "ROWS", "values": f.rows})
	case http.MethodPut:
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		f.updates++
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng, "updatedRows": len(vr.Values)})
	default:
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return newClient(svc, "sheet-id", "")
}

func testAlert(id string) core.LimitAlert {
	return core.LimitAlert{
		EventID:        id,
		Email:          "ana@example.com",
		Period:         core.Period{Month: 3, Year: 2025},
		PreviousStatus: core.StatusBelowLimit,
		Status:         core.StatusAboveLimit,
		Total:          core.Money{Cents: 12050},
		Limit:          core.Money{Cents: 10000},
		OccurredAt:     time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestYearPrefixedName(t *testing.T) {
	cases := []struct {
		base string
		year int
		want string
	}{
		{"Limit alerts", 2025, "2025 Limit alerts"},
		{" Limit alerts ", 2024, "2024 Limit alerts"},
		{"2023 Limit alerts", 2025, "2023 Limit alerts"},
		{"", 2025, ""},
		{"123 Sheet", 2025, "2025 123 Sheet"},
	}
	for _, c := range cases {
		if got := yearPrefixedName(c.base, c.year); got != c.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", c.base, c.year, got, c.want)
		}
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "")
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendAlert_WritesHeaderOnEmptySheet(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.AppendAlert(context.Background(), testAlert("evt-1"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "2025 Limit alerts!A2:H2" {
		t.Errorf("ref = %q", ref)
	}
	if len(fake.rows) != 2 {
		t.Fatalf("rows = %d, want header + alert", len(fake.rows))
	}
	if fake.rows[0][0] != "Month" {
		t.Errorf("header = %v", fake.rows[0])
	}
	got := toStrings(fake.rows[1])
	want := []string{"'2025-03", "ana@example.com", "below_limit", "above_limit", "120.50", "100.00", "'2025-03-15T10:30:00Z", "evt-1"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("col %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !strings.HasPrefix(fake.ranges[0], "GET 2025 Limit alerts!A:H") {
		t.Errorf("first call = %q", fake.ranges[0])
	}
	if !strings.HasPrefix(fake.ranges[1], "PUT 2025 Limit alerts!A1:H2") {
		t.Errorf("second call = %q", fake.ranges[1])
	}
}

func TestAppendAlert_SkipsRecordedEvent(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if _, err := c.AppendAlert(ctx, testAlert("evt-1")); err != nil {
		t.Fatalf("append: %v", err)
	}
	ref, err := c.AppendAlert(ctx, testAlert("evt-1"))
	if err != nil {
		t.Fatalf("append again: %v", err)
	}
	if ref != "2025 Limit alerts!A2:H2" {
		t.Errorf("ref = %q", ref)
	}
	if fake.updates != 1 {
		t.Errorf("updates = %d, want 1", fake.updates)
	}

	ref, err = c.AppendAlert(ctx, testAlert("evt-2"))
	if err != nil {
		t.Fatalf("append second event: %v", err)
	}
	if ref != "2025 Limit alerts!A3:H3" {
		t.Errorf("ref = %q", ref)
	}
}

func TestAppendAlert_RequiresEventID(t *testing.T) {
	c := newTestClient(t, &fakeSheets{})
	if _, err := c.AppendAlert(context.Background(), testAlert("")); err == nil {
		t.Fatal("expected error for alert without event id")
	}
}

func TestListAlerts_ParsesRows(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{
		header,
		{"2025-03", "ana@example.com", "no_limit", "below_limit", "10,00", "100", "2025-03-01T08:00:00Z", "evt-1"},
		{"garbage"},
		{"2025-03", "ana@example.com", "below_limit", "bogus", "1", "1", "2025-03-01T08:00:00Z", "evt-2"},
	}}
	c := newTestClient(t, fake)

	alerts, err := c.ListAlerts(context.Background(), 2025)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %+v", alerts)
	}
	a := alerts[0]
	if a.EventID != "evt-1" || a.Total.Cents != 1000 || a.Limit.Cents != 10000 || a.Status != core.StatusBelowLimit {
		t.Errorf("alert = %+v", a)
	}
	if a.Period != (core.Period{Month: 3, Year: 2025}) {
		t.Errorf("period = %v", a.Period)
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.AppendAlert(context.Background(), testAlert("evt-1")); err == nil {
		t.Fatal("expected error without service")
	}
	if _, err := c.ListAlerts(context.Background(), 2025); err == nil {
		t.Fatal("expected error without service")
	}
}
