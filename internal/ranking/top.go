package ranking

import (
	"math"
	"sort"

	"github.com/cozycove/cozycove/internal/model"
)

// TopScore computes the quality/popularity/value composite for a product:
//
//	score = TopRating*rating + TopOrders*ln(orders+1) + TopDiscount*discount%
//
// Rating is linear because it is a bounded quality signal; order volume is
// compressed logarithmically so a few viral items cannot permanently crowd
// out the rest of the catalog; discount is a lightly weighted value signal.
// Missing rating/discount contribute zero.
func TopScore(w Weights, p *model.Product) float64 {
	var rating, discount float64
	if p.Rating != nil {
		rating = *p.Rating
	}
	if p.DiscountPercent != nil {
		discount = float64(*p.DiscountPercent)
	}

	ratingScore := w.TopRating * rating
	ordersScore := w.TopOrders * math.Log(float64(p.Orders)+1)
	discountScore := w.TopDiscount * discount

	return ratingScore + ordersScore + discountScore
}

// SortByTopScore returns a new slice sorted by top score descending.
// Products with equal scores keep their input relative order; the input
// slice is not modified.
func SortByTopScore(w Weights, products []model.Product) []model.Product {
	sorted := make([]model.Product, len(products))
	copy(sorted, products)

	sort.SliceStable(sorted, func(i, j int) bool {
		return TopScore(w, &sorted[i]) > TopScore(w, &sorted[j])
	})

	return sorted
}

// TopProducts returns the highest-scoring limit products. If limit exceeds
// the input length, all products are returned (sorted).
func TopProducts(w Weights, products []model.Product, limit int) []model.Product {
	sorted := SortByTopScore(w, products)
	if limit < 0 {
		limit = 0
	}
	if limit > len(sorted) {
		limit = len(sorted)
	}
	return sorted[:limit]
}

// WithTopScores annotates products with their computed top score for
// display. The returned views share no state with the input slice.
func WithTopScores(w Weights, products []model.Product) []model.ScoredProduct {
	scored := make([]model.ScoredProduct, len(products))
	for i := range products {
		s := TopScore(w, &products[i])
		scored[i] = model.ScoredProduct{Product: products[i], TopScore: &s}
	}
	return scored
}
