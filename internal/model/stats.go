// Package model defines domain entities for the application.
package model

import "time"

// ProductStats holds per-product engagement counters maintained by the stats
// store. The ranking core treats these as read-only input; absent stats mean
// zero engagement, never an error.
type ProductStats struct {
	ProductID string `json:"product_id"`

	// Counters
	TotalClicks  int64 `json:"total_clicks"`
	RecentClicks int64 `json:"recent_clicks"` // clicks within the recency window
	TotalSaves   int64 `json:"total_saves"`

	// Timestamps
	LastClickAt *time.Time `json:"last_click_at,omitempty"`
	LastSaveAt  *time.Time `json:"last_save_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ClickEvent represents a single product click captured from the storefront.
type ClickEvent struct {
	ID      string `json:"id"`       // ULID (time-sortable)
	EventID string `json:"event_id"` // Idempotency key (Redis stream ID)

	// Product reference
	ProductID string `json:"product_id"`

	// Request metadata
	Referrer string `json:"referrer,omitempty"` // Referer header (truncated 500 chars)

	// Privacy-safe visitor identification
	VisitorHash string `json:"visitor_hash"` // SHA256(IP + UA + daily_salt)[0:16]

	// Optional geo (from CDN country header)
	CountryCode string `json:"country_code,omitempty"` // ISO 3166-1 alpha-2

	// Timestamps
	ClickedAt time.Time `json:"clicked_at"` // Event timestamp
	CreatedAt time.Time `json:"created_at"` // DB insertion time
}

// Favorite represents a user saving a product to their favorites.
type Favorite struct {
	ID        string    `json:"id"` // ULID
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}
