package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder backed by Prometheus collectors.
type PrometheusRecorder struct {
	ingestCycles        *prometheus.CounterVec
	ingestCycleDuration prometheus.Histogram
	ingestBatchSize     prometheus.Histogram
	marketplaceRequests *prometheus.CounterVec

	clickEventsPublished *prometheus.CounterVec
	clickEventsProcessed *prometheus.CounterVec
	statsBatchSize       prometheus.Histogram
	statsBatchDuration   prometheus.Histogram
	statsQueueDepth      prometheus.Gauge
	statsIngestLag       prometheus.Histogram

	catalogQueries   *prometheus.CounterVec
	favoritesSaved   prometheus.Counter
	favoritesRemoved prometheus.Counter
}

// NewPrometheus creates a Recorder registered against the given registerer.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		ingestCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_ingest_cycles_total",
			Help: "Ingest refresh cycles by outcome.",
		}, []string{"status"}),
		ingestCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_ingest_cycle_duration_seconds",
			Help:    "Wall time of a full ingest refresh cycle.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ingestBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_ingest_batch_size",
			Help:    "Products fetched per ingest cycle.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		marketplaceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_marketplace_requests_total",
			Help: "Upstream marketplace API calls by outcome.",
		}, []string{"status"}),

		clickEventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_click_events_published_total",
			Help: "Click events published to the stats stream.",
		}, []string{"status"}),
		clickEventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_click_events_processed_total",
			Help: "Click events drained from the stats stream.",
		}, []string{"status"}),
		statsBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_stats_batch_size",
			Help:    "Click events per stats worker batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		statsBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_stats_batch_duration_seconds",
			Help:    "Stats worker batch processing time.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		statsQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_stats_queue_depth",
			Help: "Pending entries in the click event stream.",
		}),
		statsIngestLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_stats_ingest_lag_seconds",
			Help:    "Delay between click and persistence.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),

		catalogQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_queries_total",
			Help: "Catalog queries by sort option.",
		}, []string{"sort"}),
		favoritesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_favorites_saved_total",
			Help: "Products saved to favorites.",
		}),
		favoritesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_favorites_removed_total",
			Help: "Products removed from favorites.",
		}),
	}

	reg.MustRegister(
		r.ingestCycles,
		r.ingestCycleDuration,
		r.ingestBatchSize,
		r.marketplaceRequests,
		r.clickEventsPublished,
		r.clickEventsProcessed,
		r.statsBatchSize,
		r.statsBatchDuration,
		r.statsQueueDepth,
		r.statsIngestLag,
		r.catalogQueries,
		r.favoritesSaved,
		r.favoritesRemoved,
	)

	return r
}

// IncIngestCycle counts an ingest cycle by outcome.
func (r *PrometheusRecorder) IncIngestCycle(status string) {
	r.ingestCycles.WithLabelValues(status).Inc()
}

// ObserveIngestCycleDuration records a cycle's wall time.
func (r *PrometheusRecorder) ObserveIngestCycleDuration(duration time.Duration) {
	r.ingestCycleDuration.Observe(duration.Seconds())
}

// ObserveIngestBatchSize records products fetched in a cycle.
func (r *PrometheusRecorder) ObserveIngestBatchSize(size int) {
	r.ingestBatchSize.Observe(float64(size))
}

// IncMarketplaceRequest counts an upstream API call by outcome.
func (r *PrometheusRecorder) IncMarketplaceRequest(status string) {
	r.marketplaceRequests.WithLabelValues(status).Inc()
}

// IncClickEventPublished counts a published click event.
func (r *PrometheusRecorder) IncClickEventPublished(status string) {
	r.clickEventsPublished.WithLabelValues(status).Inc()
}

// IncClickEventProcessed counts a processed click event.
func (r *PrometheusRecorder) IncClickEventProcessed(status string) {
	r.clickEventsProcessed.WithLabelValues(status).Inc()
}

// ObserveStatsBatchSize records a worker batch size.
func (r *PrometheusRecorder) ObserveStatsBatchSize(size int) {
	r.statsBatchSize.Observe(float64(size))
}

// ObserveStatsBatchDuration records a worker batch duration.
func (r *PrometheusRecorder) ObserveStatsBatchDuration(duration time.Duration) {
	r.statsBatchDuration.Observe(duration.Seconds())
}

// SetStatsQueueDepth records the stream backlog.
func (r *PrometheusRecorder) SetStatsQueueDepth(depth int64) {
	r.statsQueueDepth.Set(float64(depth))
}

// ObserveStatsIngestLag records click-to-persistence delay.
func (r *PrometheusRecorder) ObserveStatsIngestLag(lag time.Duration) {
	r.statsIngestLag.Observe(lag.Seconds())
}

// IncCatalogQuery counts a catalog query by sort option.
func (r *PrometheusRecorder) IncCatalogQuery(sort string) {
	r.catalogQueries.WithLabelValues(sort).Inc()
}

// IncFavoriteSaved counts a favorite save.
func (r *PrometheusRecorder) IncFavoriteSaved() {
	r.favoritesSaved.Inc()
}

// IncFavoriteRemoved counts a favorite removal.
func (r *PrometheusRecorder) IncFavoriteRemoved() {
	r.favoritesRemoved.Inc()
}
