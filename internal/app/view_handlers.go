package app

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Omgitskie/gsc-dashboard/internal/classify"
	"github.com/Omgitskie/gsc-dashboard/internal/report"
)

func (a *App) handleOverview(w http.ResponseWriter, r *http.Request) {
	v := a.parseView(r)
	curr, prev, ok := a.loadPeriods(w, r, v)
	if !ok {
		return
	}

	currTotals := report.Sum(curr)
	prevTotals := report.Sum(prev)

	data := a.sidebar(v, "overview")
	data["Totals"] = currTotals
	data["PrevTotals"] = prevTotals
	data["ClickChange"] = report.Change(float64(currTotals.Clicks), float64(prevTotals.Clicks))
	data["ImprChange"] = report.Change(float64(currTotals.Impressions), float64(prevTotals.Impressions))
	data["CTRChange"] = report.Change(currTotals.CTR, prevTotals.CTR)
	// Position improves as the number falls, so the delta is inverted.
	data["PosChange"] = report.Change(prevTotals.Position, currTotals.Position)
	data["Weekly"] = report.WeeklySeries(curr)
	data["Segments"] = report.SegmentBreakdown(curr, prev)
	a.Tmpl.Render(w, "overview", data)
}

func (a *App) handleWinners(w http.ResponseWriter, r *http.Request) {
	v := a.parseView(r)
	curr, prev, ok := a.loadPeriods(w, r, v)
	if !ok {
		return
	}

	rows := report.CompareQueries(curr, prev)
	stats := report.RollupByQuery(curr)

	data := a.sidebar(v, "winners")
	data["Winners"] = report.Winners(rows, 20)
	data["Losers"] = report.Losers(rows, 20)
	data["Improvers"] = report.PositionImprovers(rows, 20)
	data["CTROpps"] = report.CTROpportunities(stats, 50, 5.0, 25)
	a.Tmpl.Render(w, "winners", data)
}

func (a *App) handleNewLost(w http.ResponseWriter, r *http.Request) {
	v := a.parseView(r)
	curr, prev, ok := a.loadPeriods(w, r, v)
	if !ok {
		return
	}

	data := a.sidebar(v, "newlost")
	data["New"] = report.NewQueries(curr, prev)
	data["Lost"] = report.LostQueries(curr, prev)
	a.Tmpl.Render(w, "newlost", data)
}

func (a *App) handleBrand(w http.ResponseWriter, r *http.Request) {
	v := a.parseView(r)
	curr, prev, ok := a.loadPeriods(w, r, v)
	if !ok {
		return
	}

	brandCurr := report.OnlySegments(curr, classify.SegBrandPure, classify.SegBrandLocation)
	brandPrev := report.OnlySegments(prev, classify.SegBrandPure, classify.SegBrandLocation)

	data := a.sidebar(v, "brand")
	data["Totals"] = report.Sum(brandCurr)
	data["PrevTotals"] = report.Sum(brandPrev)
	data["Weekly"] = report.WeeklySeries(brandCurr)
	data["PureQueries"] = report.RollupByQuery(report.OnlySegments(curr, classify.SegBrandPure))
	data["Stores"] = report.StoreBreakdown(report.OnlySegments(curr, classify.SegBrandLocation))
	a.Tmpl.Render(w, "brand", data)
}

func (a *App) handleStores(w http.ResponseWriter, r *http.Request) {
	v := a.parseView(r)
	curr, _, ok := a.loadPeriods(w, r, v)
	if !ok {
		return
	}

	local := report.OnlySegments(curr, classify.SegStoreLocal, classify.SegBrandLocation)
	nearMe := report.OnlySegments(curr, classify.SegNearMe)

	data := a.sidebar(v, "stores")
	data["Stores"] = report.StoreBreakdown(local)
	data["NearMe"] = report.RollupByQuery(nearMe)
	data["NearMeTotals"] = report.Sum(nearMe)
	a.Tmpl.Render(w, "stores", data)
}

func (a *App) handleOnline(w http.ResponseWriter, r *http.Request) {
	v := a.parseView(r)
	curr, prev, ok := a.loadPeriods(w, r, v)
	if !ok {
		return
	}

	onlineCurr := report.OnlySegments(curr, classify.SegOnlineNational, classify.SegGenericShop)
	onlinePrev := report.OnlySegments(prev, classify.SegOnlineNational, classify.SegGenericShop)
	stats := report.RollupByQuery(onlineCurr)

	// Ranking opportunities: seen a lot, ranked off the first screen.
	var opps []report.QueryStat
	for _, s := range stats {
		if s.Impressions > 100 && s.Position > 5 {
			opps = append(opps, s)
		}
	}
	report.SortByImpressions(opps)
	if len(opps) > 25 {
		opps = opps[:25]
	}

	data := a.sidebar(v, "online")
	data["Totals"] = report.Sum(onlineCurr)
	data["PrevTotals"] = report.Sum(onlinePrev)
	data["Queries"] = stats
	data["Opportunities"] = opps
	a.Tmpl.Render(w, "online", data)
}

func parseExplorerFilter(r *http.Request) report.ExplorerFilter {
	q := r.URL.Query()
	atoi := func(key string) int64 {
		n, _ := strconv.ParseInt(q.Get(key), 10, 64)
		return n
	}
	atof := func(key string) float64 {
		f, _ := strconv.ParseFloat(q.Get(key), 64)
		return f
	}
	return report.ExplorerFilter{
		MinClicks:      atoi("min_clicks"),
		MinImpressions: atoi("min_impressions"),
		MinPosition:    atof("min_pos"),
		MaxPosition:    atof("max_pos"),
		Contains:       q.Get("contains"),
	}
}

func (a *App) handleExplorer(w http.ResponseWriter, r *http.Request) {
	v := a.parseView(r)
	curr, _, ok := a.loadPeriods(w, r, v)
	if !ok {
		return
	}

	ef := parseExplorerFilter(r)
	data := a.sidebar(v, "explorer")
	data["Explorer"] = ef
	data["RawQuery"] = r.URL.RawQuery
	data["Queries"] = report.Explore(report.RollupByQuery(curr), ef)
	a.Tmpl.Render(w, "explorer", data)
}

func (a *App) handleExplorerCSV(w http.ResponseWriter, r *http.Request) {
	v := a.parseView(r)
	currRaw, err := a.Svc.FetchRange(r.Context(), v.Range.StartStr(), v.Range.EndStr())
	if err != nil {
		http.Error(w, "telemetry fetch failed", http.StatusBadGateway)
		return
	}
	curr := report.Apply(currRaw, v.Filter)
	stats := report.Explore(report.RollupByQuery(curr), parseExplorerFilter(r))

	name := fmt.Sprintf("gsc_queries_%s_%s.csv", v.Range.StartStr(), v.Range.EndStr())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := report.WriteQueryCSV(w, stats); err != nil {
		http.Error(w, "csv write failed", http.StatusInternalServerError)
	}
}
