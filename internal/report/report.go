// Package report aggregates classified records into the comparative views
// the dashboard renders. It only filters, groups and sorts; records arrive
// already classified and are never re-classified here.
package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Omgitskie/gsc-dashboard/internal/classify"
	"github.com/Omgitskie/gsc-dashboard/internal/ingest"
)

// DateRange is an inclusive day range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) StartStr() string { return r.Start.Format("2006-01-02") }
func (r DateRange) EndStr() string   { return r.End.Format("2006-01-02") }

// Days is the span used to size the comparison window.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Previous returns the equal-length window ending the day before Start.
func (r DateRange) Previous() DateRange {
	prevEnd := r.Start.AddDate(0, 0, -1)
	return DateRange{Start: prevEnd.AddDate(0, 0, -r.Days()), End: prevEnd}
}

// Presets in display order.
var Presets = []string{
	"Last 7 days", "Last 2 weeks", "Last month",
	"Last 3 months", "Last 6 months", "Last 12 months",
}

var presetDays = map[string]int{
	"Last 7 days":    7,
	"Last 2 weeks":   14,
	"Last month":     30,
	"Last 3 months":  90,
	"Last 6 months":  180,
	"Last 12 months": 365,
}

// ResolvePreset maps a preset label to a range ending yesterday. Unknown
// labels fall back to the 3-month window.
func ResolvePreset(name string, today time.Time) DateRange {
	days, ok := presetDays[name]
	if !ok {
		days = 90
	}
	end := today.AddDate(0, 0, -1)
	return DateRange{Start: today.AddDate(0, 0, -days), End: end}
}

// Filter selects which records feed a report. Noise and Not Relevant are
// dropped unconditionally on top of whatever is selected.
type Filter struct {
	Segments []classify.Segment
	Store    string // empty = all stores
}

// DefaultSegments is the default multi-select: everything except Other and
// the hard-excluded segments.
func DefaultSegments() []classify.Segment {
	var out []classify.Segment
	for _, s := range classify.AllSegments {
		if s == classify.SegOther || classify.Excluded(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Apply returns the records passing the filter.
func Apply(records []ingest.Record, f Filter) []ingest.Record {
	selected := make(map[classify.Segment]bool, len(f.Segments))
	for _, s := range f.Segments {
		selected[s] = true
	}
	var out []ingest.Record
	for _, r := range records {
		if classify.Excluded(r.Segment) {
			continue
		}
		if len(f.Segments) > 0 && !selected[r.Segment] {
			continue
		}
		if f.Store != "" && r.Store != f.Store {
			continue
		}
		out = append(out, r)
	}
	return out
}

// OnlySegments keeps records in any of the given segments.
func OnlySegments(records []ingest.Record, segs ...classify.Segment) []ingest.Record {
	want := make(map[classify.Segment]bool, len(segs))
	for _, s := range segs {
		want[s] = true
	}
	var out []ingest.Record
	for _, r := range records {
		if want[r.Segment] {
			out = append(out, r)
		}
	}
	return out
}

// Totals are the scorecard sums for one period.
type Totals struct {
	Clicks      int64
	Impressions int64
	CTR         float64 // percent, clicks/impressions
	Position    float64 // mean
}

func Sum(records []ingest.Record) Totals {
	var t Totals
	var posSum float64
	for _, r := range records {
		t.Clicks += r.Clicks
		t.Impressions += r.Impressions
		posSum += r.Position
	}
	if t.Impressions > 0 {
		t.CTR = round2(float64(t.Clicks) / float64(t.Impressions) * 100)
	}
	if len(records) > 0 {
		t.Position = round1(posSum / float64(len(records)))
	}
	return t
}

// Change is the percent change vs the previous period, 1dp. A zero previous
// value reads as +100%.
func Change(curr, prev float64) float64 {
	if prev == 0 {
		return 100.0
	}
	return round1((curr - prev) / prev * 100)
}

// SegmentStat is one row of the segment breakdown.
type SegmentStat struct {
	Segment classify.Segment
	Clicks  int64
	Prev    int64
	Change  float64
}

// SegmentBreakdown sums clicks per segment with the previous-period delta,
// ordered by current clicks descending.
func SegmentBreakdown(curr, prev []ingest.Record) []SegmentStat {
	sums := make(map[classify.Segment]*SegmentStat)
	for _, r := range curr {
		s, ok := sums[r.Segment]
		if !ok {
			s = &SegmentStat{Segment: r.Segment}
			sums[r.Segment] = s
		}
		s.Clicks += r.Clicks
	}
	for _, r := range prev {
		s, ok := sums[r.Segment]
		if !ok {
			continue
		}
		s.Prev += r.Clicks
	}
	out := make([]SegmentStat, 0, len(sums))
	for _, s := range sums {
		s.Change = Change(float64(s.Clicks), float64(s.Prev))
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Clicks != out[j].Clicks {
			return out[i].Clicks > out[j].Clicks
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}

// WeekPoint is one weekly bucket of the time series.
type WeekPoint struct {
	Week        time.Time // Monday of the week
	Clicks      int64
	Impressions int64
	Position    float64
}

// WeeklySeries buckets records into Monday-anchored weeks, oldest first.
func WeeklySeries(records []ingest.Record) []WeekPoint {
	type acc struct {
		clicks, impressions int64
		posSum              float64
		n                   int
	}
	buckets := make(map[time.Time]*acc)
	for _, r := range records {
		w := weekStart(r.Date)
		a, ok := buckets[w]
		if !ok {
			a = &acc{}
			buckets[w] = a
		}
		a.clicks += r.Clicks
		a.impressions += r.Impressions
		a.posSum += r.Position
		a.n++
	}
	out := make([]WeekPoint, 0, len(buckets))
	for w, a := range buckets {
		p := WeekPoint{Week: w, Clicks: a.clicks, Impressions: a.impressions}
		if a.n > 0 {
			p.Position = round1(a.posSum / float64(a.n))
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week.Before(out[j].Week) })
	return out
}

func weekStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0
	return d.AddDate(0, 0, -offset)
}

// QueryStat is a per-query rollup over one period.
type QueryStat struct {
	Query       string
	Segment     classify.Segment
	Store       string
	Clicks      int64
	Impressions int64
	CTR         float64 // percent, derived clicks/impressions
	Position    float64 // mean, 1dp
}

// RollupByQuery groups records by query, summing clicks and impressions and
// averaging position. Segment and store are taken from the first record seen
// (a query maps to exactly one classification within a batch). Sorted by
// clicks descending.
func RollupByQuery(records []ingest.Record) []QueryStat {
	type acc struct {
		stat   QueryStat
		posSum float64
		n      int
	}
	byQuery := make(map[string]*acc)
	order := make([]string, 0)
	for _, r := range records {
		a, ok := byQuery[r.Query]
		if !ok {
			a = &acc{stat: QueryStat{Query: r.Query, Segment: r.Segment, Store: r.Store}}
			byQuery[r.Query] = a
			order = append(order, r.Query)
		}
		a.stat.Clicks += r.Clicks
		a.stat.Impressions += r.Impressions
		a.posSum += r.Position
		a.n++
	}
	out := make([]QueryStat, 0, len(order))
	for _, q := range order {
		a := byQuery[q]
		if a.n > 0 {
			a.stat.Position = round1(a.posSum / float64(a.n))
		}
		if a.stat.Impressions > 0 {
			a.stat.CTR = round2(float64(a.stat.Clicks) / float64(a.stat.Impressions) * 100)
		}
		out = append(out, a.stat)
	}
	sortByClicks(out)
	return out
}

func sortByClicks(stats []QueryStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Clicks != stats[j].Clicks {
			return stats[i].Clicks > stats[j].Clicks
		}
		return stats[i].Query < stats[j].Query
	})
}

// SortByImpressions re-orders a rollup by impressions descending.
func SortByImpressions(stats []QueryStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Impressions != stats[j].Impressions {
			return stats[i].Impressions > stats[j].Impressions
		}
		return stats[i].Query < stats[j].Query
	})
}

// ChangeRow is a per-query comparison between the two periods.
type ChangeRow struct {
	Query        string
	Segment      classify.Segment
	Clicks       int64
	PrevClicks   int64
	ClickChange  int64
	ChangePct    float64
	Position     float64
	PrevPosition float64
	PosChange    float64 // positive = improved (moved toward rank 1)
}

// CompareQueries outer-joins the two periods by query.
func CompareQueries(curr, prev []ingest.Record) []ChangeRow {
	currStats := RollupByQuery(curr)
	prevStats := RollupByQuery(prev)

	rows := make(map[string]*ChangeRow)
	order := make([]string, 0, len(currStats))
	for _, s := range currStats {
		rows[s.Query] = &ChangeRow{
			Query:    s.Query,
			Segment:  s.Segment,
			Clicks:   s.Clicks,
			Position: s.Position,
		}
		order = append(order, s.Query)
	}
	for _, s := range prevStats {
		row, ok := rows[s.Query]
		if !ok {
			row = &ChangeRow{Query: s.Query, Segment: s.Segment}
			rows[s.Query] = row
			order = append(order, s.Query)
		}
		row.PrevClicks = s.Clicks
		row.PrevPosition = s.Position
	}

	out := make([]ChangeRow, 0, len(order))
	for _, q := range order {
		row := rows[q]
		row.ClickChange = row.Clicks - row.PrevClicks
		row.ChangePct = Change(float64(row.Clicks), float64(row.PrevClicks))
		row.PosChange = round1(row.PrevPosition - row.Position)
		out = append(out, *row)
	}
	return out
}

// Winners returns the n biggest click increases among queries that had
// previous-period clicks.
func Winners(rows []ChangeRow, n int) []ChangeRow {
	return topBy(rows, n, func(r ChangeRow) bool { return r.PrevClicks > 0 },
		func(a, b ChangeRow) bool { return a.ClickChange > b.ClickChange })
}

// Losers returns the n biggest click drops among queries that had
// previous-period clicks.
func Losers(rows []ChangeRow, n int) []ChangeRow {
	return topBy(rows, n, func(r ChangeRow) bool { return r.PrevClicks > 0 },
		func(a, b ChangeRow) bool { return a.ClickChange < b.ClickChange })
}

// PositionImprovers returns the n biggest rank improvements among queries
// ranked in the previous period.
func PositionImprovers(rows []ChangeRow, n int) []ChangeRow {
	return topBy(rows, n, func(r ChangeRow) bool { return r.PrevPosition > 0 },
		func(a, b ChangeRow) bool { return a.PosChange > b.PosChange })
}

func topBy(rows []ChangeRow, n int, keep func(ChangeRow) bool, less func(a, b ChangeRow) bool) []ChangeRow {
	var out []ChangeRow
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if less(out[i], out[j]) != less(out[j], out[i]) {
			return less(out[i], out[j])
		}
		return out[i].Query < out[j].Query
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CTROpportunities lists visible-but-unclicked queries: impressions above
// minImpressions with CTR below maxCTR percent, highest impressions first.
func CTROpportunities(stats []QueryStat, minImpressions int64, maxCTR float64, n int) []QueryStat {
	var out []QueryStat
	for _, s := range stats {
		if s.Impressions > minImpressions && s.CTR < maxCTR {
			out = append(out, s)
		}
	}
	SortByImpressions(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// NewQueries returns rollups for queries present now but absent previously.
func NewQueries(curr, prev []ingest.Record) []QueryStat {
	prevSet := querySet(prev)
	var fresh []ingest.Record
	for _, r := range curr {
		if !prevSet[r.Query] {
			fresh = append(fresh, r)
		}
	}
	return RollupByQuery(fresh)
}

// LostQueries returns previous-period rollups for queries that disappeared.
func LostQueries(curr, prev []ingest.Record) []QueryStat {
	currSet := querySet(curr)
	var gone []ingest.Record
	for _, r := range prev {
		if !currSet[r.Query] {
			gone = append(gone, r)
		}
	}
	return RollupByQuery(gone)
}

func querySet(records []ingest.Record) map[string]bool {
	set := make(map[string]bool)
	for _, r := range records {
		set[r.Query] = true
	}
	return set
}

// StoreStat is one row of the per-store breakdown.
type StoreStat struct {
	Store       string
	Clicks      int64
	Impressions int64
	Position    float64
	Status      string
}

// StoreBreakdown aggregates records (already narrowed to a location-bound
// segment) per store, ordered by clicks descending, with a RAG status from
// average position.
func StoreBreakdown(records []ingest.Record) []StoreStat {
	type acc struct {
		clicks, impressions int64
		posSum              float64
		n                   int
	}
	byStore := make(map[string]*acc)
	for _, r := range records {
		if r.Store == "" {
			continue
		}
		a, ok := byStore[r.Store]
		if !ok {
			a = &acc{}
			byStore[r.Store] = a
		}
		a.clicks += r.Clicks
		a.impressions += r.Impressions
		a.posSum += r.Position
		a.n++
	}
	out := make([]StoreStat, 0, len(byStore))
	for store, a := range byStore {
		s := StoreStat{Store: store, Clicks: a.clicks, Impressions: a.impressions}
		if a.n > 0 {
			s.Position = round1(a.posSum / float64(a.n))
		}
		s.Status = RAGStatus(s.Position)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Clicks != out[j].Clicks {
			return out[i].Clicks > out[j].Clicks
		}
		return out[i].Store < out[j].Store
	})
	return out
}

// RAGStatus grades an average position: top-3 strong, top-7 average,
// anything deeper weak.
func RAGStatus(pos float64) string {
	switch {
	case pos <= 3:
		return "Strong"
	case pos <= 7:
		return "Average"
	default:
		return "Weak"
	}
}

// ExplorerFilter narrows a per-query rollup for the query explorer.
type ExplorerFilter struct {
	MinClicks      int64
	MinImpressions int64
	MinPosition    float64
	MaxPosition    float64
	Contains       string
}

// Explore applies the explorer filter, clicks descending.
func Explore(stats []QueryStat, f ExplorerFilter) []QueryStat {
	needle := strings.ToLower(strings.TrimSpace(f.Contains))
	var out []QueryStat
	for _, s := range stats {
		if s.Clicks < f.MinClicks || s.Impressions < f.MinImpressions {
			continue
		}
		if f.MinPosition > 0 && s.Position < f.MinPosition {
			continue
		}
		if f.MaxPosition > 0 && s.Position > f.MaxPosition {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(s.Query), needle) {
			continue
		}
		out = append(out, s)
	}
	sortByClicks(out)
	return out
}

// Unclassified returns the rollup of Other-segment queries, highest
// impressions first — the admin work queue.
func Unclassified(records []ingest.Record) []QueryStat {
	stats := RollupByQuery(OnlySegments(records, classify.SegOther))
	SortByImpressions(stats)
	return stats
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
