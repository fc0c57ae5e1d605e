// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Product tags derived at normalization time.
const (
	TagBiggestSavings = "biggest-savings"
	TagTopRated       = "top-rated"
	TagUnder20        = "under-20"
	TagPopular        = "popular"
)

// Product is the normalized internal representation of a marketplace product.
// Instances are values: normalization produces a new Product, nothing mutates
// one in place. FirstSeenAt is provenance and survives re-ingestion via
// catalog.Merge only.
type Product struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
	URL   string `json:"url"`

	Price           float64  `json:"price"`
	OldPrice        *float64 `json:"old_price,omitempty"`
	DiscountPercent *int     `json:"discount_percent,omitempty"`
	Rating          *float64 `json:"rating,omitempty"`
	Orders          int64    `json:"orders"`

	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags"`

	// FreeShipping is only set when the upstream record carries an explicit
	// shipping flag. Absent means unknown, not "paid shipping".
	FreeShipping *bool `json:"free_shipping,omitempty"`

	FirstSeenAt *time.Time `json:"first_seen_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// HasTag reports whether the product carries the given derived tag.
func (p *Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ScoredProduct is a transient view of a Product plus computed rank scores.
// Never persisted.
type ScoredProduct struct {
	Product
	TopScore      *float64 `json:"top_score,omitempty"`
	TrendingScore *float64 `json:"trending_score,omitempty"`
}

// CachedProduct represents product snapshot data stored in Redis.
// Uses string types for Redis hash compatibility.
type CachedProduct struct {
	Title           string `redis:"title"`
	Image           string `redis:"image"`
	URL             string `redis:"url"`
	Price           string `redis:"price"`
	OldPrice        string `redis:"old_price"`         // float or empty
	DiscountPercent string `redis:"discount_percent"`  // int or empty
	Rating          string `redis:"rating"`            // float or empty
	Orders          string `redis:"orders"`
	Category        string `redis:"category"`
	Tags            string `redis:"tags"`          // comma-separated
	FreeShipping    string `redis:"free_shipping"` // "1", "0" or empty
	FirstSeenAt     string `redis:"first_seen_at"` // Unix timestamp or empty
	UpdatedAt       string `redis:"updated_at"`    // Unix timestamp or empty
}

// ToProduct converts CachedProduct to the Product domain model.
func (c *CachedProduct) ToProduct(id string) *Product {
	p := &Product{
		ID:       id,
		Title:    c.Title,
		Image:    c.Image,
		URL:      c.URL,
		Category: c.Category,
	}

	if v, err := strconv.ParseFloat(c.Price, 64); err == nil {
		p.Price = v
	}

	if c.OldPrice != "" {
		if v, err := strconv.ParseFloat(c.OldPrice, 64); err == nil {
			p.OldPrice = &v
		}
	}

	if c.DiscountPercent != "" {
		if v, err := strconv.Atoi(c.DiscountPercent); err == nil {
			p.DiscountPercent = &v
		}
	}

	if c.Rating != "" {
		if v, err := strconv.ParseFloat(c.Rating, 64); err == nil {
			p.Rating = &v
		}
	}

	if v, err := strconv.ParseInt(c.Orders, 10, 64); err == nil {
		p.Orders = v
	}

	if c.Tags != "" {
		p.Tags = strings.Split(c.Tags, ",")
	} else {
		p.Tags = []string{}
	}

	if c.FreeShipping != "" {
		v := c.FreeShipping == "1"
		p.FreeShipping = &v
	}

	if c.FirstSeenAt != "" {
		if ts, err := strconv.ParseInt(c.FirstSeenAt, 10, 64); err == nil {
			t := time.Unix(ts, 0).UTC()
			p.FirstSeenAt = &t
		}
	}

	if c.UpdatedAt != "" {
		if ts, err := strconv.ParseInt(c.UpdatedAt, 10, 64); err == nil {
			t := time.Unix(ts, 0).UTC()
			p.UpdatedAt = &t
		}
	}

	return p
}

// ToCachedProduct converts the Product to its Redis hash representation.
func (p *Product) ToCachedProduct() *CachedProduct {
	cached := &CachedProduct{
		Title:    p.Title,
		Image:    p.Image,
		URL:      p.URL,
		Price:    strconv.FormatFloat(p.Price, 'f', -1, 64),
		Orders:   strconv.FormatInt(p.Orders, 10),
		Category: p.Category,
		Tags:     strings.Join(p.Tags, ","),
	}

	if p.OldPrice != nil {
		cached.OldPrice = strconv.FormatFloat(*p.OldPrice, 'f', -1, 64)
	}

	if p.DiscountPercent != nil {
		cached.DiscountPercent = strconv.Itoa(*p.DiscountPercent)
	}

	if p.Rating != nil {
		cached.Rating = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	}

	if p.FreeShipping != nil {
		cached.FreeShipping = boolToString(*p.FreeShipping)
	}

	if p.FirstSeenAt != nil {
		cached.FirstSeenAt = strconv.FormatInt(p.FirstSeenAt.Unix(), 10)
	}

	if p.UpdatedAt != nil {
		cached.UpdatedAt = strconv.FormatInt(p.UpdatedAt.Unix(), 10)
	}

	return cached
}

// boolToString converts boolean to "1" or "0".
func boolToString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
