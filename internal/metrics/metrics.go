// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Ingest metrics
	IncIngestCycle(status string) // status: "success" or "failed"
	ObserveIngestCycleDuration(duration time.Duration)
	ObserveIngestBatchSize(size int)
	IncMarketplaceRequest(status string) // status: "success", "retried", "failed"

	// Stats pipeline metrics
	IncClickEventPublished(status string) // status: "success" or "dropped"
	IncClickEventProcessed(status string) // status: "success", "failed", "skipped"
	ObserveStatsBatchSize(size int)
	ObserveStatsBatchDuration(duration time.Duration)
	SetStatsQueueDepth(depth int64)
	ObserveStatsIngestLag(lag time.Duration)

	// Catalog serving metrics
	IncCatalogQuery(sort string)
	IncFavoriteSaved()
	IncFavoriteRemoved()
}
