package app

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Omgitskie/gsc-dashboard/internal/classify"
	"github.com/Omgitskie/gsc-dashboard/internal/report"
)

// adminFetch loads the current window without segment filtering so the work
// queue can see Other-segment queries the report pages hide.
func (a *App) adminFetch(w http.ResponseWriter, r *http.Request, v view) ([]report.QueryStat, bool) {
	records, err := a.Svc.FetchRange(r.Context(), v.Range.StartStr(), v.Range.EndStr())
	if err != nil {
		a.renderUnavailable(w, v, err)
		return nil, false
	}
	return report.Unclassified(records), true
}

func (a *App) handleAdmin(w http.ResponseWriter, r *http.Request) {
	v := a.parseView(r)
	queue, ok := a.adminFetch(w, r, v)
	if !ok {
		return
	}

	entries, err := a.Ovs.Entries(r.Context())
	if err != nil {
		http.Error(w, "override listing failed", http.StatusInternalServerError)
		return
	}

	data := a.sidebar(v, "admin")
	data["Queue"] = queue
	data["Entries"] = entries
	data["Flash"] = r.URL.Query().Get("msg")
	a.Tmpl.Render(w, "admin", data)
}

func (a *App) handleAdminSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	query := strings.TrimSpace(r.PostFormValue("query"))
	segment := classify.Segment(r.PostFormValue("segment"))
	store := strings.TrimSpace(r.PostFormValue("store"))

	if query == "" || !classify.Valid(segment) {
		redirectAdmin(w, r, "invalid query or segment")
		return
	}
	if err := a.Ovs.Upsert(r.Context(), query, segment, store); err != nil {
		redirectAdmin(w, r, "save failed")
		return
	}
	redirectAdmin(w, r, "saved "+query)
}

func (a *App) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	query := r.PostFormValue("query")
	found, err := a.Ovs.Remove(r.Context(), query)
	switch {
	case err != nil:
		redirectAdmin(w, r, "delete failed")
	case !found:
		redirectAdmin(w, r, "no override for "+query)
	default:
		redirectAdmin(w, r, "deleted "+query)
	}
}

// handleAdminExport stages every unclassified query from the current window
// as a blank override row to be filled in later.
func (a *App) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	v := a.parseView(r)
	records, err := a.Svc.FetchRange(r.Context(), v.Range.StartStr(), v.Range.EndStr())
	if err != nil {
		redirectAdmin(w, r, "telemetry fetch failed")
		return
	}
	queue := report.Unclassified(records)
	queries := make([]string, 0, len(queue))
	for _, s := range queue {
		queries = append(queries, s.Query)
	}
	n, err := a.Ovs.ExportBlank(r.Context(), queries)
	if err != nil {
		redirectAdmin(w, r, "export failed")
		return
	}
	redirectAdmin(w, r, "staged "+strconv.Itoa(n)+" queries")
}

func (a *App) handleOverridesCSV(w http.ResponseWriter, r *http.Request) {
	entries, err := a.Ovs.Entries(r.Context())
	if err != nil {
		http.Error(w, "override listing failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="classifications.csv"`)
	if err := report.WriteOverridesCSV(w, entries); err != nil {
		http.Error(w, "csv write failed", http.StatusInternalServerError)
	}
}

// redirectAdmin bounces back to /admin keeping the current range/filter
// parameters and attaching a flash message.
func redirectAdmin(w http.ResponseWriter, r *http.Request, msg string) {
	q := r.URL.Query()
	q.Set("msg", msg)
	http.Redirect(w, r, "/admin?"+q.Encode(), http.StatusSeeOther)
}
