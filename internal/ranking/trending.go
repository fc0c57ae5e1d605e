package ranking

import (
	"sort"
	"time"

	"github.com/cozycove/cozycove/internal/model"
)

// TrendingScoreAt computes the engagement/freshness composite for a product,
// evaluated at the given instant:
//
//	score = TrendingClicks*recentClicks + TrendingSaves*totalSaves
//	      + TrendingDiscount*discount% + TrendingFresh*freshness
//
// stats may be nil: a product with no recorded engagement still scores via
// discount and freshness alone, so a new heavily-discounted arrival can
// out-rank a stale high-engagement item.
func TrendingScoreAt(w Weights, p *model.Product, stats *model.ProductStats, now time.Time) float64 {
	var recentClicks, saves float64
	if stats != nil {
		recentClicks = float64(stats.RecentClicks)
		saves = float64(stats.TotalSaves)
	}

	var discount float64
	if p.DiscountPercent != nil {
		discount = float64(*p.DiscountPercent)
	}

	clicksScore := w.TrendingClicks * recentClicks
	savesScore := w.TrendingSaves * saves
	discountScore := w.TrendingDiscount * discount
	freshnessScore := w.TrendingFresh * FreshnessAt(w, p.FirstSeenAt, now)

	return clicksScore + savesScore + discountScore + freshnessScore
}

// TrendingScore evaluates TrendingScoreAt against the wall clock.
func TrendingScore(w Weights, p *model.Product, stats *model.ProductStats) float64 {
	return TrendingScoreAt(w, p, stats, time.Now())
}

// SortByTrendingScore returns a new slice sorted by trending score
// descending, looking up each product's stats by id. Products without an
// entry in statsByID score with zero engagement. Equal scores keep input
// order; the input slice is not modified.
func SortByTrendingScore(w Weights, products []model.Product, statsByID map[string]*model.ProductStats) []model.Product {
	// Fix the evaluation instant so freshness cannot drift between
	// comparisons of the same sort.
	now := time.Now()

	sorted := make([]model.Product, len(products))
	copy(sorted, products)

	sort.SliceStable(sorted, func(i, j int) bool {
		si := TrendingScoreAt(w, &sorted[i], statsByID[sorted[i].ID], now)
		sj := TrendingScoreAt(w, &sorted[j], statsByID[sorted[j].ID], now)
		return si > sj
	})

	return sorted
}

// TrendingProducts returns the limit highest trending-scored products.
func TrendingProducts(w Weights, products []model.Product, statsByID map[string]*model.ProductStats, limit int) []model.Product {
	sorted := SortByTrendingScore(w, products, statsByID)
	if limit < 0 {
		limit = 0
	}
	if limit > len(sorted) {
		limit = len(sorted)
	}
	return sorted[:limit]
}

// WithTrendingScores annotates products with their computed trending score.
func WithTrendingScores(w Weights, products []model.Product, statsByID map[string]*model.ProductStats) []model.ScoredProduct {
	now := time.Now()

	scored := make([]model.ScoredProduct, len(products))
	for i := range products {
		s := TrendingScoreAt(w, &products[i], statsByID[products[i].ID], now)
		scored[i] = model.ScoredProduct{Product: products[i], TrendingScore: &s}
	}
	return scored
}
