package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Omgitskie/gsc-dashboard/internal/db"
	"github.com/Omgitskie/gsc-dashboard/internal/gsc"
	"github.com/Omgitskie/gsc-dashboard/internal/ingest"
	"github.com/Omgitskie/gsc-dashboard/internal/metrics"
	"github.com/Omgitskie/gsc-dashboard/internal/overrides"
	"github.com/Omgitskie/gsc-dashboard/internal/web"
)

type fakeClient struct {
	rows []gsc.Row
	err  error
}

func (f *fakeClient) Query(ctx context.Context, start, end string) ([]gsc.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []gsc.Row
	for _, r := range f.rows {
		if r.Date >= start && r.Date <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeClient) Truncated(rows []gsc.Row) bool { return false }

func newTestApp(t *testing.T, client ingest.TelemetryClient) (*App, *overrides.Store) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	if err := db.Migrate(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	ovs := overrides.New(d)
	svc := ingest.NewService(client, ovs, time.Hour)
	ovs.OnWrite(svc.Invalidate)
	tmpl, err := web.LoadTemplates()
	if err != nil {
		t.Fatal(err)
	}
	a := &App{
		Svc:  svc,
		Ovs:  ovs,
		Tmpl: tmpl,
		Met:  metrics.New(ovs),
		Now:  func() time.Time { return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC) },
	}
	return a, ovs
}

func sampleRows() []gsc.Row {
	return []gsc.Row{
		{Query: "pulse and cocktail", Date: "2026-08-01", Clicks: 40, Impressions: 400, CTR: 0.1, Position: 1.2},
		{Query: "sex shop leeds", Date: "2026-08-02", Clicks: 12, Impressions: 300, CTR: 0.04, Position: 3.4},
		{Query: "sex shop near me", Date: "2026-08-03", Clicks: 8, Impressions: 200, CTR: 0.04, Position: 5.0},
		{Query: "vibrating widget", Date: "2026-08-04", Clicks: 2, Impressions: 150, CTR: 0.013, Position: 9.1},
		{Query: "pulse gym", Date: "2026-08-05", Clicks: 1, Impressions: 50, CTR: 0.02, Position: 2.0},
		// previous comparison window
		{Query: "pulse and cocktail", Date: "2026-03-10", Clicks: 30, Impressions: 350, CTR: 0.086, Position: 1.4},
		{Query: "sex shop leeds", Date: "2026-03-11", Clicks: 20, Impressions: 280, CTR: 0.071, Position: 2.9},
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPagesRender(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{rows: sampleRows()})
	h := a.Router()

	for _, path := range []string{
		"/", "/winners", "/newlost", "/brand", "/stores", "/online", "/explorer", "/admin",
	} {
		rec := get(t, h, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Search Dashboard") {
			t.Fatalf("%s: body missing layout", path)
		}
	}
}

func TestOverviewShowsBrandQuery(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{rows: sampleRows()})
	rec := get(t, a.Router(), "/?range=Last+3+months")
	body := rec.Body.String()
	if !strings.Contains(body, "Brand (Pure)") {
		t.Fatalf("segment table missing brand row:\n%s", body)
	}
	// Noise never reaches a report page.
	if strings.Contains(body, "pulse gym") {
		t.Fatal("noise query leaked into overview")
	}
}

func TestProviderErrorRendersUnavailable(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{err: context.DeadlineExceeded})
	rec := get(t, a.Router(), "/")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Data unavailable") {
		t.Fatal("unavailable page not rendered")
	}
}

func TestExplorerCSVDownload(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{rows: sampleRows()})
	rec := get(t, a.Router(), "/explorer.csv?range=Last+3+months")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "gsc_queries_") {
		t.Fatalf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if !strings.HasPrefix(rec.Body.String(), "query,segment,store,clicks,impressions,ctr,position") {
		t.Fatalf("csv header wrong:\n%s", rec.Body.String())
	}
}

func TestAdminSaveAppliesOverride(t *testing.T) {
	a, ovs := newTestApp(t, &fakeClient{rows: sampleRows()})
	h := a.Router()

	form := url.Values{
		"query":   {"vibrating widget"},
		"segment": {"Product"},
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/save", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}

	manual := ovs.LoadAll(context.Background())
	if manual["vibrating widget"].Segment != "Product" {
		t.Fatalf("override not persisted: %#v", manual)
	}

	// The override-invalidated cache reclassifies on the next page load.
	body := get(t, h, "/explorer?range=Last+3+months&seg=Product").Body.String()
	if !strings.Contains(body, "vibrating widget") {
		t.Fatal("override not applied to explorer view")
	}
}

func TestAdminSaveRejectsUnknownSegment(t *testing.T) {
	a, ovs := newTestApp(t, &fakeClient{rows: sampleRows()})

	form := url.Values{"query": {"abc"}, "segment": {"Nonsense"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/save", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Location"), "invalid") {
		t.Fatalf("expected rejection flash, got %q", rec.Header().Get("Location"))
	}
	if n, _ := ovs.Count(context.Background()); n != 0 {
		t.Fatalf("invalid segment was stored, count=%d", n)
	}
}

func TestAdminDelete(t *testing.T) {
	a, ovs := newTestApp(t, &fakeClient{rows: sampleRows()})
	if err := ovs.Upsert(context.Background(), "abc", "Product", ""); err != nil {
		t.Fatal(err)
	}

	form := url.Values{"query": {"abc"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/delete", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if n, _ := ovs.Count(context.Background()); n != 0 {
		t.Fatalf("override not deleted, count=%d", n)
	}
}

func TestAdminExportStagesUnclassified(t *testing.T) {
	a, ovs := newTestApp(t, &fakeClient{rows: sampleRows()})

	req := httptest.NewRequest(http.MethodPost, "/admin/export?range=Last+3+months", nil)
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}

	// "vibrating widget" is the only Other-segment query in the window; it
	// lands as a blank staging row, invisible to LoadAll.
	manual := ovs.LoadAll(context.Background())
	if len(manual) != 0 {
		t.Fatalf("blank rows leaked into the override map: %#v", manual)
	}
	if !strings.Contains(rec.Header().Get("Location"), "staged+1") {
		t.Fatalf("flash = %q", rec.Header().Get("Location"))
	}
}

func TestOverridesCSV(t *testing.T) {
	a, ovs := newTestApp(t, &fakeClient{rows: sampleRows()})
	if err := ovs.Upsert(context.Background(), "abc", "Category", ""); err != nil {
		t.Fatal(err)
	}

	rec := get(t, a.Router(), "/admin/overrides.csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "abc,Category,") {
		t.Fatalf("csv missing entry:\n%s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{rows: sampleRows()})

	rec := get(t, a.Router(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
