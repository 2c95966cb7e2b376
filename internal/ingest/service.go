// Package ingest turns raw telemetry rows into classified records, the
// contract boundary all reporting reads from. Records are classified once at
// fetch time and never mutated; reclassification means re-ingesting.
package ingest

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Omgitskie/gsc-dashboard/internal/classify"
	"github.com/Omgitskie/gsc-dashboard/internal/gsc"
)

// Record is a raw metric row plus its resolved classification. CTR is a
// 0-100 percentage rounded to 2dp and Position is rounded to 1dp, matching
// what every report view displays.
type Record struct {
	Query       string
	Date        time.Time
	Clicks      int64
	Impressions int64
	CTR         float64
	Position    float64
	Segment     classify.Segment
	Store       string
}

// TelemetryClient is the provider-facing surface of gsc.Client.
type TelemetryClient interface {
	Query(ctx context.Context, startDate, endDate string) ([]gsc.Row, error)
	Truncated(rows []gsc.Row) bool
}

// OverrideSource supplies the manual classification map, loaded once per
// batch and reused for every row.
type OverrideSource interface {
	LoadAll(ctx context.Context) map[string]classify.Override
}

// Observer receives fetch outcomes; the metrics collector implements it.
type Observer interface {
	FetchServed(records []Record, cached bool)
	FetchFailed()
}

type cacheEntry struct {
	records    []Record
	insertedAt time.Time
}

// Service fetches a date range from the telemetry provider, classifies each
// row, and caches the result per exact (start, end) pair. Override writes
// invalidate the cache so a manual reclassification is visible on the next
// fetch rather than after the TTL expires.
type Service struct {
	client    TelemetryClient
	overrides OverrideSource
	ttl       time.Duration
	obs       Observer

	mu    sync.Mutex
	cache map[string]cacheEntry
	now   func() time.Time
}

const DefaultTTL = time.Hour

func NewService(client TelemetryClient, overrides OverrideSource, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		client:    client,
		overrides: overrides,
		ttl:       ttl,
		cache:     make(map[string]cacheEntry),
		now:       time.Now,
	}
}

// SetObserver attaches a metrics observer. Call before serving.
func (s *Service) SetObserver(obs Observer) { s.obs = obs }

// FetchRange returns the classified records for the inclusive date range
// (YYYY-MM-DD). A provider failure returns (nil, err): the caller must treat
// that as "data unavailable", never as an empty-but-valid dataset.
func (s *Service) FetchRange(ctx context.Context, startDate, endDate string) ([]Record, error) {
	key := startDate + ".." + endDate

	s.mu.Lock()
	if e, ok := s.cache[key]; ok && s.now().Sub(e.insertedAt) < s.ttl {
		records := e.records
		s.mu.Unlock()
		if s.obs != nil {
			s.obs.FetchServed(records, true)
		}
		return records, nil
	}
	s.mu.Unlock()

	rows, err := s.client.Query(ctx, startDate, endDate)
	if err != nil {
		if s.obs != nil {
			s.obs.FetchFailed()
		}
		return nil, err
	}
	if s.client.Truncated(rows) {
		// Provider caps rows per call with no explicit signal; beyond the
		// cap data is silently dropped.
		log.Printf("ingest: %s..%s returned a cap-sized response, rows beyond the limit were dropped", startDate, endDate)
	}

	manual := s.overrides.LoadAll(ctx)

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		segment, store := classify.Classify(row.Query, manual)
		records = append(records, Record{
			Query:       row.Query,
			Date:        date,
			Clicks:      int64(row.Clicks),
			Impressions: int64(row.Impressions),
			CTR:         round2(row.CTR * 100),
			Position:    round1(row.Position),
			Segment:     segment,
			Store:       store,
		})
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{records: records, insertedAt: s.now()}
	s.mu.Unlock()

	if s.obs != nil {
		s.obs.FetchServed(records, false)
	}
	return records, nil
}

// Invalidate drops every cached range. Wired to override store writes.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]cacheEntry)
	s.mu.Unlock()
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
