package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kannadi/internal/core"
	applog "kannadi/internal/log"
)

type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	added   []string
	updates map[string][][]any
	gets    int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/spreadsheets/sheet-1"):
		f.gets++
		var sheets []map[string]any
		for _, t := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1", "sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, q := range req.Requests {
			if q.AddSheet != nil {
				f.added = append(f.added, q.AddSheet.Properties.Title)
				f.titles = append(f.titles, q.AddSheet.Properties.Title)
			}
		}
		io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/values/"):
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		rng := r.URL.Path[strings.Index(r.URL.Path, "/values/")+len("/values/"):]
		f.updates[rng] = vr.Values
		io.WriteString(w, `{}`)
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
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
		t.Fatalf("NewService: %v", err)
	}
	return newWithService(svc, Options{SpreadsheetID: "sheet-1", SheetBase: "Monthly"}, applog.New(applog.Config{Output: io.Discard}))
}

func TestExportSnapshotCreatesSheetOnce(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Sheet1"}, updates: map[string][][]any{}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	for _, m := range []time.Month{time.January, time.February} {
		md := core.MonthlyData{Month: core.NewMonth(2024, m), Income: 2000, Needs: 1000, Wants: 400, Expenses: 1400, Savings: 600}
		if err := c.ExportSnapshot(ctx, md); err != nil {
			t.Fatalf("ExportSnapshot(%v): %v", m, err)
		}
	}

	if len(fake.added) != 1 || fake.added[0] != "2024 Monthly" {
		t.Errorf("added sheets = %v", fake.added)
	}
	if fake.gets != 1 {
		t.Errorf("spreadsheet read %d times, want 1", fake.gets)
	}
	header, ok := fake.updates["2024 Monthly!A1:H1"]
	if !ok || header[0][0] != "Month" {
		t.Errorf("header not written: %v", fake.updates)
	}
	row, ok := fake.updates["2024 Monthly!A3:H3"]
	if !ok || row[0][0] != "2024-02" || row[0][7] != 30.0 {
		t.Errorf("february row = %v", row)
	}
}

func TestExportSnapshotSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t, &fakeSheets{updates: map[string][][]any{}})
	c.spreadsheetID = "missing"

	err := c.ExportSnapshot(context.Background(), core.MonthlyData{Month: core.NewMonth(2024, time.May)})
	if err == nil || !strings.Contains(err.Error(), "read spreadsheet") {
		t.Fatalf("err = %v", err)
	}
}

func TestCredentials(t *testing.T) {
	if _, err := credentials(Options{}); err == nil {
		t.Error("expected error without credentials")
	}
	if b, err := credentials(Options{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "/nope"}); err != nil || !strings.Contains(string(b), "service_account") {
		t.Errorf("inline JSON should win: %s, %v", b, err)
	}
	if _, err := credentials(Options{CredentialsFile: "/nonexistent/creds.json"}); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := NewClient(context.Background(), Options{}, applog.New(applog.Config{Output: io.Discard})); err == nil {
		t.Error("expected error without spreadsheet id")
	}
}
