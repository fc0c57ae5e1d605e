package catalog

import (
	"sort"
	"strings"

	"github.com/cozycove/cozycove/internal/model"
	"github.com/cozycove/cozycove/internal/ranking"
)

// DefaultPageSize is used when the caller supplies no page size.
const DefaultPageSize = 20

// freeShippingPriceFloor is a proxy for free shipping when the record
// carries no explicit shipping flag. Known simplification: replace once
// real shipping data is available from the feed.
const freeShippingPriceFloor = 50.0

// SortOption selects the ordering applied to a filtered product set.
type SortOption string

const (
	SortTrending       SortOption = "trending"
	SortTopRated       SortOption = "top-rated"
	SortBiggestSavings SortOption = "biggest-savings"
	SortPriceLow       SortOption = "price-low"
	SortPriceHigh      SortOption = "price-high"
	SortNewest         SortOption = "newest"
)

// ParseSortOption maps a sort key to a SortOption. Unrecognized keys fall
// back to trending rather than failing.
func ParseSortOption(s string) SortOption {
	switch SortOption(s) {
	case SortTopRated, SortBiggestSavings, SortPriceLow, SortPriceHigh, SortNewest, SortTrending:
		return SortOption(s)
	default:
		return SortTrending
	}
}

// Filters is a conjunction of optional predicates; every provided filter
// must match.
type Filters struct {
	// Search matches case-insensitively against title or category.
	Search string

	// Category matches case-insensitively by substring; "all" or empty
	// disables the filter. Substring containment is deliberate so partial
	// taxonomy labels match.
	Category string

	// Inclusive price bounds.
	MinPrice *float64
	MaxPrice *float64

	// MinRating is an inclusive lower bound; products without a rating
	// count as 0 and are excluded by any positive threshold.
	MinRating *float64

	// MinDiscount is an inclusive lower bound; absent discount counts as 0.
	MinDiscount *int

	FreeShippingOnly bool
}

// Matches reports whether the product satisfies every provided filter.
func (f *Filters) Matches(p *model.Product) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			return false
		}
	}

	if f.Category != "" && !strings.EqualFold(f.Category, "all") {
		if !strings.Contains(strings.ToLower(p.Category), strings.ToLower(f.Category)) {
			return false
		}
	}

	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}

	if f.MinRating != nil {
		rating := 0.0
		if p.Rating != nil {
			rating = *p.Rating
		}
		if rating < *f.MinRating {
			return false
		}
	}

	if f.MinDiscount != nil {
		discount := 0
		if p.DiscountPercent != nil {
			discount = *p.DiscountPercent
		}
		if discount < *f.MinDiscount {
			return false
		}
	}

	if f.FreeShippingOnly && !freeShippingMatch(p) {
		return false
	}

	return true
}

// freeShippingMatch prefers an explicit shipping flag; without one it falls
// back to the price-floor proxy.
func freeShippingMatch(p *model.Product) bool {
	if p.FreeShipping != nil {
		return *p.FreeShipping
	}
	return p.Price > freeShippingPriceFloor
}

// QueryOptions bundles the filter, ordering and pagination of a catalog
// query.
type QueryOptions struct {
	Filters  Filters
	Sort     SortOption
	Page     int // 1-indexed
	PageSize int
}

// QueryResult is one page of a filtered, sorted product set.
type QueryResult struct {
	Items   []model.Product `json:"items"`
	Total   int             `json:"total"`
	HasMore bool            `json:"has_more"`
}

// Query filters the product set, applies the selected ordering and returns
// the requested page. The input slice is never modified. Trending order
// scores engagement via statsByID; absent entries mean zero engagement, so
// passing nil stats is valid and preserves freshness/discount ordering.
func Query(products []model.Product, opts QueryOptions, statsByID map[string]*model.ProductStats, w ranking.Weights) QueryResult {
	filtered := make([]model.Product, 0, len(products))
	for i := range products {
		if opts.Filters.Matches(&products[i]) {
			filtered = append(filtered, products[i])
		}
	}

	sorted := applySort(filtered, opts.Sort, statsByID, w)

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(sorted)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return QueryResult{
		Items:   sorted[start:end],
		Total:   total,
		HasMore: page*pageSize < total,
	}
}

// applySort orders the filtered set. All branches are stable and operate on
// the slice Query already copied.
func applySort(products []model.Product, opt SortOption, statsByID map[string]*model.ProductStats, w ranking.Weights) []model.Product {
	switch opt {
	case SortTopRated:
		sort.SliceStable(products, func(i, j int) bool {
			return ratingOrZero(&products[i]) > ratingOrZero(&products[j])
		})
	case SortBiggestSavings:
		sort.SliceStable(products, func(i, j int) bool {
			return discountOrZero(&products[i]) > discountOrZero(&products[j])
		})
	case SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price < products[j].Price
		})
	case SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price > products[j].Price
		})
	case SortNewest:
		sort.SliceStable(products, func(i, j int) bool {
			// Products never seen sort as oldest.
			ti, tj := products[i].FirstSeenAt, products[j].FirstSeenAt
			switch {
			case ti == nil:
				return false
			case tj == nil:
				return true
			default:
				return ti.After(*tj)
			}
		})
	default: // SortTrending and anything unrecognized
		return ranking.SortByTrendingScore(w, products, statsByID)
	}
	return products
}

func ratingOrZero(p *model.Product) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

func discountOrZero(p *model.Product) int {
	if p.DiscountPercent == nil {
		return 0
	}
	return *p.DiscountPercent
}
