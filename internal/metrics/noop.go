package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncIngestCycle is a no-op.
func (n *NoopRecorder) IncIngestCycle(status string) {}

// ObserveIngestCycleDuration is a no-op.
func (n *NoopRecorder) ObserveIngestCycleDuration(duration time.Duration) {}

// ObserveIngestBatchSize is a no-op.
func (n *NoopRecorder) ObserveIngestBatchSize(size int) {}

// IncMarketplaceRequest is a no-op.
func (n *NoopRecorder) IncMarketplaceRequest(status string) {}

// IncClickEventPublished is a no-op.
func (n *NoopRecorder) IncClickEventPublished(status string) {}

// IncClickEventProcessed is a no-op.
func (n *NoopRecorder) IncClickEventProcessed(status string) {}

// ObserveStatsBatchSize is a no-op.
func (n *NoopRecorder) ObserveStatsBatchSize(size int) {}

// ObserveStatsBatchDuration is a no-op.
func (n *NoopRecorder) ObserveStatsBatchDuration(duration time.Duration) {}

// SetStatsQueueDepth is a no-op.
func (n *NoopRecorder) SetStatsQueueDepth(depth int64) {}

// ObserveStatsIngestLag is a no-op.
func (n *NoopRecorder) ObserveStatsIngestLag(lag time.Duration) {}

// IncCatalogQuery is a no-op.
func (n *NoopRecorder) IncCatalogQuery(sort string) {}

// IncFavoriteSaved is a no-op.
func (n *NoopRecorder) IncFavoriteSaved() {}

// IncFavoriteRemoved is a no-op.
func (n *NoopRecorder) IncFavoriteRemoved() {}
