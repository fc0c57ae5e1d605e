// Package catalog converts raw marketplace records into the internal
// product schema and answers filtered, ranked, paginated catalog queries.
package catalog

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cozycove/cozycove/internal/marketplace"
	"github.com/cozycove/cozycove/internal/model"
)

// Tag thresholds applied at normalization time.
const (
	biggestSavingsThreshold = 50   // minimum discount percent
	topRatedThreshold       = 4.5  // minimum rating
	under20Threshold        = 20.0 // maximum price
	popularThreshold        = 1000 // minimum order count
)

// defaultCategory is used when the feed supplies no taxonomy label.
const defaultCategory = "General"

// NormalizeAt converts a raw marketplace record into the internal Product
// schema, stamping both timestamps with now. The feed is not
// schema-guaranteed, so malformed numerics degrade to zero/absent instead
// of failing; availability beats strictness here.
//
// Callers re-ingesting a known product id must pass the result through
// Merge to preserve the first-seen timestamp.
func NormalizeAt(raw marketplace.RawProduct, now time.Time) model.Product {
	price := parsePrice(raw.TargetSalePrice)
	oldPrice := parseOptionalPrice(raw.TargetOriginalPrice)

	discount := deriveDiscount(raw.Discount, price, oldPrice)
	rating := parseRating(raw.EvaluateRate)
	orders := parseOrders(raw.LastestVolume)

	p := model.Product{
		ID:              raw.ProductID,
		Title:           raw.ProductTitle,
		Image:           raw.ProductMainImageURL,
		URL:             raw.PromotionLink,
		Price:           price,
		OldPrice:        oldPrice,
		DiscountPercent: discount,
		Rating:          rating,
		Orders:          orders,
		Category:        deriveCategory(raw),
		FirstSeenAt:     &now,
		UpdatedAt:       &now,
	}
	p.Tags = deriveTags(&p)

	return p
}

// Normalize converts a raw record using the wall clock.
func Normalize(raw marketplace.RawProduct) model.Product {
	return NormalizeAt(raw, time.Now().UTC())
}

// NormalizeAll converts a batch of raw records.
func NormalizeAll(raws []marketplace.RawProduct) []model.Product {
	products := make([]model.Product, len(raws))
	now := time.Now().UTC()
	for i, raw := range raws {
		products[i] = NormalizeAt(raw, now)
	}
	return products
}

// Merge combines a freshly normalized product with its previously cached
// snapshot. Every field comes from the fresh product except FirstSeenAt,
// which is provenance and must survive re-ingestion; UpdatedAt is refreshed.
// A nil cached product means this is the first sighting and the fresh
// product is returned unchanged.
func Merge(fresh model.Product, cached *model.Product) model.Product {
	if cached == nil {
		return fresh
	}

	merged := fresh
	merged.FirstSeenAt = cached.FirstSeenAt
	now := time.Now().UTC()
	merged.UpdatedAt = &now

	return merged
}

// parsePrice parses a decimal price string, defaulting to 0.
func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// parseOptionalPrice parses a decimal price string, absent if unparsable.
func parseOptionalPrice(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// deriveDiscount applies the discount priority policy: an explicit percent
// string from the feed wins; otherwise the discount is computed from the
// reference price when it exceeds the sale price; otherwise absent.
func deriveDiscount(explicit string, price float64, oldPrice *float64) *int {
	if explicit != "" {
		if v, ok := parseLeadingInt(explicit); ok {
			return &v
		}
	}

	if oldPrice != nil && *oldPrice > price {
		v := int(math.Round((*oldPrice - price) / *oldPrice * 100))
		return &v
	}

	return nil
}

// parseLeadingInt parses the integer prefix of strings like "42%".
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseRating normalizes the feed's rating field. It arrives either on a
// 0-5 scale ("4.8") or as a percentage ("95%"); anything above 5 is treated
// as a percentage and rescaled to 5 stars.
func parseRating(s string) *float64 {
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return nil
	}

	if v > 5 {
		v = v / 100 * 5
	}
	return &v
}

// parseOrders parses the cumulative order count, defaulting to 0.
func parseOrders(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// deriveCategory prefers the more specific second-level taxonomy label.
func deriveCategory(raw marketplace.RawProduct) string {
	if raw.SecondLevelCategoryName != "" {
		return raw.SecondLevelCategoryName
	}
	if raw.FirstLevelCategoryName != "" {
		return raw.FirstLevelCategoryName
	}
	return defaultCategory
}

// deriveTags evaluates every tag rule independently; rules are not
// mutually exclusive.
func deriveTags(p *model.Product) []string {
	tags := []string{}

	if p.DiscountPercent != nil && *p.DiscountPercent >= biggestSavingsThreshold {
		tags = append(tags, model.TagBiggestSavings)
	}
	if p.Rating != nil && *p.Rating >= topRatedThreshold {
		tags = append(tags, model.TagTopRated)
	}
	if p.Price < under20Threshold {
		tags = append(tags, model.TagUnder20)
	}
	if p.Orders > popularThreshold {
		tags = append(tags, model.TagPopular)
	}

	return tags
}
