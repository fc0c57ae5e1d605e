package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cozycove/cozycove/internal/metrics"
	"github.com/cozycove/cozycove/internal/model"
	"github.com/cozycove/cozycove/internal/ranking"
)

// ProductLister supplies the current catalog snapshot.
type ProductLister interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
}

// StatsLookup resolves engagement stats for a set of product ids. Products
// without stats are simply absent from the returned map.
type StatsLookup interface {
	StatsByProductIDs(ctx context.Context, ids []string) (map[string]*model.ProductStats, error)
}

// ClickPublisher captures click events without blocking the caller.
type ClickPublisher interface {
	PublishClickAsync(productID, referrer, visitorHash, countryCode string, clickedAt time.Time)
}

// ClickCounter tracks per-product click counts that the stats worker has not
// yet folded into persistent stats, so trending can see clicks immediately.
type ClickCounter interface {
	IncrementClicks(ctx context.Context, productID string) error
	LiveClicks(ctx context.Context, productIDs []string) (map[string]int64, error)
}

// counterTimeout bounds the fire-and-forget counter increment on the
// redirect path.
const counterTimeout = 100 * time.Millisecond

// FavoriteStore persists user saves.
type FavoriteStore interface {
	Save(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
}

// Service is the catalog facade the presentation layer talks to.
type Service struct {
	products  ProductLister
	stats     StatsLookup
	clicks    ClickPublisher
	counter   ClickCounter
	favorites FavoriteStore
	weights   ranking.Weights
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// NewService creates a catalog Service.
func NewService(products ProductLister, stats StatsLookup, clicks ClickPublisher, favorites FavoriteStore, weights ranking.Weights, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		products:  products,
		stats:     stats,
		clicks:    clicks,
		favorites: favorites,
		weights:   weights,
		logger:    logger.With("component", "catalog.service"),
		metrics:   recorder,
	}
}

// SetClickCounter wires the live click counter. Without one, rankings only
// see engagement after the stats worker lands each batch.
func (s *Service) SetClickCounter(counter ClickCounter) {
	s.counter = counter
}

// Query answers a filtered, sorted, paginated catalog query.
func (s *Service) Query(ctx context.Context, opts QueryOptions) (QueryResult, error) {
	s.metrics.IncCatalogQuery(string(opts.Sort))

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return QueryResult{}, fmt.Errorf("list products: %w", err)
	}

	var statsByID map[string]*model.ProductStats
	if opts.Sort == SortTrending || opts.Sort == "" {
		statsByID, err = s.loadStats(ctx, products)
		if err != nil {
			// Trending degrades to zero engagement rather than failing
			// the whole query.
			s.logger.Warn("stats lookup failed, ranking without engagement", "error", err)
			statsByID = nil
		}
	}

	return Query(products, opts, statsByID, s.weights), nil
}

// TopProducts returns the limit best products by top score.
func (s *Service) TopProducts(ctx context.Context, limit int) ([]model.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return ranking.TopProducts(s.weights, products, limit), nil
}

// TrendingProducts returns the limit most trending products.
func (s *Service) TrendingProducts(ctx context.Context, limit int) ([]model.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	statsByID, err := s.loadStats(ctx, products)
	if err != nil {
		s.logger.Warn("stats lookup failed, ranking without engagement", "error", err)
		statsByID = nil
	}

	return ranking.TrendingProducts(s.weights, products, statsByID, limit), nil
}

// RecordClick captures a product click. Fire-and-forget: the storefront's
// redirect path must not wait on the stats pipeline.
func (s *Service) RecordClick(productID, referrer, visitorHash, countryCode string) {
	s.clicks.PublishClickAsync(productID, referrer, visitorHash, countryCode, time.Now().UTC())

	if s.counter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
		defer cancel()

		if err := s.counter.IncrementClicks(ctx, productID); err != nil {
			s.logger.Warn("live click increment failed", "product_id", productID, "error", err)
		}
	}()
}

// SaveFavorite records a user saving a product.
func (s *Service) SaveFavorite(ctx context.Context, userID, productID string) error {
	if err := s.favorites.Save(ctx, userID, productID); err != nil {
		return fmt.Errorf("save favorite: %w", err)
	}
	s.metrics.IncFavoriteSaved()
	return nil
}

// RemoveFavorite removes a user's save.
func (s *Service) RemoveFavorite(ctx context.Context, userID, productID string) error {
	if err := s.favorites.Remove(ctx, userID, productID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	s.metrics.IncFavoriteRemoved()
	return nil
}

func (s *Service) loadStats(ctx context.Context, products []model.Product) (map[string]*model.ProductStats, error) {
	if len(products) == 0 {
		return nil, nil
	}

	productIDs := make([]string, len(products))
	for i := range products {
		productIDs[i] = products[i].ID
	}

	statsByID, err := s.stats.StatsByProductIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	return s.mergeLiveClicks(ctx, productIDs, statsByID), nil
}

// mergeLiveClicks folds pending counter values into the persisted stats so
// rankings include clicks the stats worker has not landed yet.
func (s *Service) mergeLiveClicks(ctx context.Context, productIDs []string, statsByID map[string]*model.ProductStats) map[string]*model.ProductStats {
	if s.counter == nil {
		return statsByID
	}

	live, err := s.counter.LiveClicks(ctx, productIDs)
	if err != nil {
		s.logger.Warn("live click lookup failed, ranking on persisted stats", "error", err)
		return statsByID
	}
	if len(live) == 0 {
		return statsByID
	}

	if statsByID == nil {
		statsByID = make(map[string]*model.ProductStats, len(live))
	}
	for id, count := range live {
		st, ok := statsByID[id]
		if !ok {
			st = &model.ProductStats{ProductID: id}
			statsByID[id] = st
		}
		st.TotalClicks += count
		st.RecentClicks += count
	}

	return statsByID
}
