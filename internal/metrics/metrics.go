package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Omgitskie/gsc-dashboard/internal/ingest"
	"github.com/Omgitskie/gsc-dashboard/internal/overrides"
)

// Collector exposes dashboard health and the shape of the most recent
// classified fetch. Segment gauges are overwritten per uncached fetch;
// Refresh is called on each scrape for the override-table gauge.
type Collector struct {
	ovs *overrides.Store

	clicksBySegment      *prometheus.GaugeVec
	impressionsBySegment *prometheus.GaugeVec
	clicksByStore        *prometheus.GaugeVec
	lastFetchRows        prometheus.Gauge

	fetchesTotal  *prometheus.CounterVec
	overrideCount prometheus.Gauge
}

func New(ovs *overrides.Store) *Collector {
	c := &Collector{ovs: ovs}

	c.clicksBySegment = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gsc",
		Name:      "clicks_by_segment",
		Help:      "Clicks per segment in the most recently fetched window",
	}, []string{"segment"})

	c.impressionsBySegment = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gsc",
		Name:      "impressions_by_segment",
		Help:      "Impressions per segment in the most recently fetched window",
	}, []string{"segment"})

	c.clicksByStore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gsc",
		Name:      "clicks_by_store",
		Help:      "Clicks per store location in the most recently fetched window",
	}, []string{"store"})

	c.lastFetchRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gsc",
		Name:      "last_fetch_rows",
		Help:      "Classified rows in the most recent uncached fetch",
	})

	c.fetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gsc",
		Name:      "fetches_total",
		Help:      "Range fetches by outcome (fetched, cached, error)",
	}, []string{"outcome"})

	c.overrideCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gsc",
		Name:      "manual_overrides",
		Help:      "Manual classification rows with a segment assigned",
	})

	return c
}

func (c *Collector) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.clicksBySegment,
		c.impressionsBySegment,
		c.clicksByStore,
		c.lastFetchRows,
		c.fetchesTotal,
		c.overrideCount,
	)
}

// FetchServed implements ingest.Observer.
func (c *Collector) FetchServed(records []ingest.Record, cached bool) {
	if cached {
		c.fetchesTotal.WithLabelValues("cached").Inc()
		return
	}
	c.fetchesTotal.WithLabelValues("fetched").Inc()
	c.lastFetchRows.Set(float64(len(records)))

	c.clicksBySegment.Reset()
	c.impressionsBySegment.Reset()
	c.clicksByStore.Reset()

	clicks := make(map[string]float64)
	impressions := make(map[string]float64)
	storeClicks := make(map[string]float64)
	for _, r := range records {
		clicks[string(r.Segment)] += float64(r.Clicks)
		impressions[string(r.Segment)] += float64(r.Impressions)
		if r.Store != "" {
			storeClicks[r.Store] += float64(r.Clicks)
		}
	}
	for seg, v := range clicks {
		c.clicksBySegment.WithLabelValues(seg).Set(v)
	}
	for seg, v := range impressions {
		c.impressionsBySegment.WithLabelValues(seg).Set(v)
	}
	for store, v := range storeClicks {
		c.clicksByStore.WithLabelValues(store).Set(v)
	}
}

// FetchFailed implements ingest.Observer.
func (c *Collector) FetchFailed() {
	c.fetchesTotal.WithLabelValues("error").Inc()
}

// Refresh recomputes store-backed gauges (call on each scrape).
func (c *Collector) Refresh(ctx context.Context) error {
	if c.ovs == nil {
		return nil
	}
	n, err := c.ovs.Count(ctx)
	if err != nil {
		return err
	}
	c.overrideCount.Set(float64(n))
	return nil
}
