package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Omgitskie/gsc-dashboard/internal/classify"
	"github.com/Omgitskie/gsc-dashboard/internal/ingest"
	"github.com/Omgitskie/gsc-dashboard/internal/metrics"
	"github.com/Omgitskie/gsc-dashboard/internal/overrides"
	"github.com/Omgitskie/gsc-dashboard/internal/report"
	"github.com/Omgitskie/gsc-dashboard/internal/web"
)

type App struct {
	Svc  *ingest.Service
	Ovs  *overrides.Store
	Tmpl *web.Templates
	Met  *metrics.Collector
	Now  func() time.Time
}

type Config struct {
	Addr string
}

func (a *App) Router() http.Handler {
	r := chi.NewRouter()

	// report pages
	r.Get("/", a.handleOverview)
	r.Get("/winners", a.handleWinners)
	r.Get("/newlost", a.handleNewLost)
	r.Get("/brand", a.handleBrand)
	r.Get("/stores", a.handleStores)
	r.Get("/online", a.handleOnline)
	r.Get("/explorer", a.handleExplorer)
	r.Get("/explorer.csv", a.handleExplorerCSV)

	// admin & classifications
	r.Get("/admin", a.handleAdmin)
	r.Post("/admin/save", a.handleAdminSave)
	r.Post("/admin/delete", a.handleAdminDelete)
	r.Post("/admin/export", a.handleAdminExport)
	r.Get("/admin/overrides.csv", a.handleOverridesCSV)

	// metrics (refresh on scrape)
	r.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		_ = a.Met.Refresh(r.Context())
		promhttp.Handler().ServeHTTP(w, r)
	})
	return r
}

// view captures the shared sidebar state: date range, comparison window and
// segment/store filters, all parsed from query parameters.
type view struct {
	RangeLabel string
	Range      report.DateRange
	Prev       report.DateRange
	Filter     report.Filter
}

func (a *App) parseView(r *http.Request) view {
	q := r.URL.Query()

	label := q.Get("range")
	if label == "" {
		label = "Last 3 months"
	}
	var dr report.DateRange
	if label == "Custom" {
		start, err1 := time.Parse("2006-01-02", q.Get("start"))
		end, err2 := time.Parse("2006-01-02", q.Get("end"))
		if err1 != nil || err2 != nil || end.Before(start) {
			label = "Last 3 months"
			dr = report.ResolvePreset(label, a.now())
		} else {
			dr = report.DateRange{Start: start, End: end}
		}
	} else {
		dr = report.ResolvePreset(label, a.now())
	}

	f := report.Filter{Store: q.Get("store")}
	for _, raw := range q["seg"] {
		if seg := classify.Segment(raw); classify.Valid(seg) {
			f.Segments = append(f.Segments, seg)
		}
	}
	if len(f.Segments) == 0 {
		f.Segments = report.DefaultSegments()
	}

	return view{RangeLabel: label, Range: dr, Prev: dr.Previous(), Filter: f}
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// loadPeriods fetches and filters both comparison windows. A provider error
// renders the unavailable page and returns ok=false; callers must not
// aggregate after that.
func (a *App) loadPeriods(w http.ResponseWriter, r *http.Request, v view) (curr, prev []ingest.Record, ok bool) {
	currRaw, err := a.Svc.FetchRange(r.Context(), v.Range.StartStr(), v.Range.EndStr())
	if err != nil {
		a.renderUnavailable(w, v, err)
		return nil, nil, false
	}
	prevRaw, err := a.Svc.FetchRange(r.Context(), v.Prev.StartStr(), v.Prev.EndStr())
	if err != nil {
		a.renderUnavailable(w, v, err)
		return nil, nil, false
	}
	return report.Apply(currRaw, v.Filter), report.Apply(prevRaw, v.Filter), true
}

func (a *App) renderUnavailable(w http.ResponseWriter, v view, err error) {
	w.WriteHeader(http.StatusBadGateway)
	a.Tmpl.Render(w, "unavailable", map[string]any{
		"View":  v,
		"Error": err.Error(),
	})
}

// sidebar is the template state every page shares.
func (a *App) sidebar(v view, active string) map[string]any {
	selected := make(map[classify.Segment]bool, len(v.Filter.Segments))
	for _, s := range v.Filter.Segments {
		selected[s] = true
	}
	return map[string]any{
		"Active":      active,
		"View":        v,
		"Presets":     report.Presets,
		"AllSegments": classify.AllSegments,
		"Selected":    selected,
		"Stores":      classify.StoreLabels(),
	}
}

func Run(ctx context.Context, svc *ingest.Service, ovs *overrides.Store, tmpl *web.Templates, cfg Config) error {
	met := metrics.New(ovs)
	met.Register(prometheus.DefaultRegisterer)
	svc.SetObserver(met)

	// Override writes drop cached fetches so a reclassification shows up on
	// the next render, not after the cache TTL.
	ovs.OnWrite(svc.Invalidate)

	a := &App{Svc: svc, Ovs: ovs, Tmpl: tmpl, Met: met}
	srv := &http.Server{Addr: cfg.Addr, Handler: a.Router()}

	go func() {
		<-ctx.Done()
		cctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(cctx)
	}()

	return srv.ListenAndServe()
}
