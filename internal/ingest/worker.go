// Package ingest refreshes the product catalog from the upstream marketplace.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cozycove/cozycove/internal/catalog"
	"github.com/cozycove/cozycove/internal/marketplace"
	"github.com/cozycove/cozycove/internal/metrics"
	"github.com/cozycove/cozycove/internal/model"
)

const (
	// DefaultInterval is how often the catalog is refreshed.
	DefaultInterval = 6 * time.Hour

	// DefaultPageSize is how many products to request per collection.
	DefaultPageSize = 50
)

// Collection describes one curated slice of the upstream catalog to pull.
type Collection struct {
	Name        string
	Keywords    string
	CategoryIDs string
	MaxPrice    float64
}

// Searcher fetches raw products from the marketplace.
type Searcher interface {
	Search(ctx context.Context, params marketplace.SearchParams) (*marketplace.SearchResult, error)
}

// ProductStore persists normalized product snapshots.
type ProductStore interface {
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]*model.Product, error)
	UpsertProducts(ctx context.Context, products []model.Product) error
}

// SnapshotCache mirrors fresh snapshots into the serving cache.
type SnapshotCache interface {
	SetProducts(ctx context.Context, products []model.Product) error
}

// Worker periodically pulls the configured collections, normalizes them and
// writes the merged snapshots to storage and cache.
type Worker struct {
	searcher    Searcher
	store       ProductStore
	cache       SnapshotCache
	logger      *slog.Logger
	metrics     metrics.Recorder
	interval    time.Duration
	pageSize    int
	collections []Collection

	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

// NewWorker creates an ingest worker for the given collections.
func NewWorker(searcher Searcher, store ProductStore, cache SnapshotCache, collections []Collection, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		searcher:    searcher,
		store:       store,
		cache:       cache,
		logger:      logger.With("component", "ingest.worker"),
		metrics:     recorder,
		interval:    DefaultInterval,
		pageSize:    DefaultPageSize,
		collections: collections,
	}
}

// SetInterval overrides the default refresh interval.
func (w *Worker) SetInterval(interval time.Duration) {
	if interval > 0 {
		w.interval = interval
	}
}

// SetPageSize overrides the default per-collection page size.
func (w *Worker) SetPageSize(size int) {
	if size > 0 {
		w.pageSize = size
	}
}

// Run starts the refresh loop. The first cycle runs immediately, then on the
// configured interval. Blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	w.logger.Info("ingest worker started",
		"interval", w.interval.String(),
		"collections", len(w.collections),
	)

	w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ingest worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

// Shutdown stops the refresh loop, letting any in-flight cycle finish.
// It implements runner.ShutdownFunc for integration with graceful shutdown.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if done != nil {
		select {
		case <-done:
			w.logger.Info("ingest worker shutdown complete")
			return nil
		case <-ctx.Done():
			w.logger.Warn("ingest worker shutdown timed out")
			return ctx.Err()
		}
	}
	return nil
}

// runCycle refreshes every configured collection once.
func (w *Worker) runCycle(ctx context.Context) {
	runID := uuid.NewString()
	start := time.Now()
	logger := w.logger.With("run_id", runID)

	logger.Info("refresh cycle started")

	total := 0
	failed := false
	for _, collection := range w.collections {
		if ctx.Err() != nil {
			return
		}

		count, err := w.refreshCollection(ctx, collection)
		if err != nil {
			failed = true
			logger.Error("collection refresh failed",
				"collection", collection.Name,
				"error", err,
			)
			continue
		}
		total += count
		logger.Info("collection refreshed",
			"collection", collection.Name,
			"products", count,
		)
	}

	status := "success"
	if failed {
		status = "failed"
	}
	w.metrics.IncIngestCycle(status)
	w.metrics.ObserveIngestCycleDuration(time.Since(start))
	w.metrics.ObserveIngestBatchSize(total)

	logger.Info("refresh cycle finished",
		"status", status,
		"products", total,
		"duration_ms", float64(time.Since(start).Microseconds())/1000,
	)
}

// refreshCollection pulls one collection, merges against stored snapshots and
// writes the results through to storage and cache.
func (w *Worker) refreshCollection(ctx context.Context, collection Collection) (int, error) {
	result, err := w.searcher.Search(ctx, marketplace.SearchParams{
		Keywords:     collection.Keywords,
		CategoryIDs:  collection.CategoryIDs,
		MaxSalePrice: collection.MaxPrice,
		PageSize:     w.pageSize,
		Sort:         "LAST_VOLUME_DESC",
	})
	if err != nil {
		w.metrics.IncMarketplaceRequest("failed")
		return 0, fmt.Errorf("search %q: %w", collection.Name, err)
	}
	w.metrics.IncMarketplaceRequest("success")

	fresh := catalog.NormalizeAll(result.Products)
	if len(fresh) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(fresh))
	for i := range fresh {
		ids = append(ids, fresh[i].ID)
	}

	stored, err := w.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load stored snapshots: %w", err)
	}

	merged := make([]model.Product, 0, len(fresh))
	for i := range fresh {
		merged = append(merged, catalog.Merge(fresh[i], stored[fresh[i].ID]))
	}

	if err := w.store.UpsertProducts(ctx, merged); err != nil {
		return 0, fmt.Errorf("upsert products: %w", err)
	}

	// Cache failures are not fatal; the next read falls through to storage.
	if w.cache != nil {
		if err := w.cache.SetProducts(ctx, merged); err != nil {
			w.logger.Warn("failed to cache snapshots",
				"collection", collection.Name,
				"error", err,
			)
		}
	}

	return len(merged), nil
}
