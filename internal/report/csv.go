package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Omgitskie/gsc-dashboard/internal/overrides"
)

// WriteQueryCSV writes a per-query rollup as CSV with a header row.
func WriteQueryCSV(w io.Writer, stats []QueryStat) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"query", "segment", "store", "clicks", "impressions", "ctr", "position"}); err != nil {
		return err
	}
	for _, s := range stats {
		rec := []string{
			s.Query,
			string(s.Segment),
			s.Store,
			strconv.FormatInt(s.Clicks, 10),
			strconv.FormatInt(s.Impressions, 10),
			strconv.FormatFloat(s.CTR, 'f', 2, 64),
			strconv.FormatFloat(s.Position, 'f', 1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOverridesCSV writes the manual classification table as CSV.
func WriteOverridesCSV(w io.Writer, entries []overrides.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"query", "segment", "store"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Query, string(e.Segment), e.Store}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
