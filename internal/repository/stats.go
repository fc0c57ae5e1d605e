package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cozycove/cozycove/internal/model"
)

// RecentClickWindow is the horizon for the recent_clicks counter. It
// matches the freshness decay horizon so one constant governs both notions
// of "recent".
const RecentClickWindow = 7 * 24 * time.Hour

// StatsRepository provides database access for engagement statistics.
type StatsRepository struct {
	repo *Repository
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(repo *Repository) *StatsRepository {
	return &StatsRepository{repo: repo}
}

// BulkInsertClickEvents inserts click events with idempotency via
// ON CONFLICT DO NOTHING on the stream-assigned event id.
func (r *StatsRepository) BulkInsertClickEvents(ctx context.Context, events []*model.ClickEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO click_events (
			id, event_id, product_id, referrer, visitor_hash, country_code,
			clicked_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventID,
			event.ProductID,
			nullableString(event.Referrer),
			event.VisitorHash,
			nullableString(event.CountryCode),
			event.ClickedAt,
		)
	}

	results := r.repo.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(events); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert event %d: %w", i, err)
		}
	}

	return nil
}

// RefreshProductStats recomputes the aggregate rows for the given product
// ids from click_events and favorites, and upserts them into product_stats.
func (r *StatsRepository) RefreshProductStats(ctx context.Context, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}

	windowStart := time.Now().UTC().Add(-RecentClickWindow)

	query := `
		INSERT INTO product_stats (
			product_id, total_clicks, recent_clicks, total_saves,
			last_click_at, last_save_at, updated_at
		)
		SELECT
			p.id,
			COALESCE(c.total_clicks, 0),
			COALESCE(c.recent_clicks, 0),
			COALESCE(f.total_saves, 0),
			c.last_click_at,
			f.last_save_at,
			NOW()
		FROM unnest($1::text[]) AS p(id)
		LEFT JOIN (
			SELECT product_id,
				   COUNT(*) AS total_clicks,
				   COUNT(*) FILTER (WHERE clicked_at >= $2) AS recent_clicks,
				   MAX(clicked_at) AS last_click_at
			FROM click_events
			WHERE product_id = ANY($1)
			GROUP BY product_id
		) c ON c.product_id = p.id
		LEFT JOIN (
			SELECT product_id,
				   COUNT(*) AS total_saves,
				   MAX(created_at) AS last_save_at
			FROM favorites
			WHERE product_id = ANY($1)
			GROUP BY product_id
		) f ON f.product_id = p.id
		ON CONFLICT (product_id) DO UPDATE SET
			total_clicks = EXCLUDED.total_clicks,
			recent_clicks = EXCLUDED.recent_clicks,
			total_saves = EXCLUDED.total_saves,
			last_click_at = EXCLUDED.last_click_at,
			last_save_at = EXCLUDED.last_save_at,
			updated_at = NOW()
	`

	if _, err := r.repo.pool.Exec(ctx, query, productIDs, windowStart); err != nil {
		return fmt.Errorf("refresh product stats: %w", err)
	}

	return nil
}

// StatsByProductIDs loads engagement stats for the given product ids.
// Products without a stats row are absent from the returned map; callers
// treat that as zero engagement.
func (r *StatsRepository) StatsByProductIDs(ctx context.Context, ids []string) (map[string]*model.ProductStats, error) {
	if len(ids) == 0 {
		return map[string]*model.ProductStats{}, nil
	}

	query := `
		SELECT product_id, total_clicks, recent_clicks, total_saves,
			   last_click_at, last_save_at, updated_at
		FROM product_stats
		WHERE product_id = ANY($1)
	`

	rows, err := r.repo.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query product stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*model.ProductStats, len(ids))
	for rows.Next() {
		var s model.ProductStats
		err := rows.Scan(
			&s.ProductID,
			&s.TotalClicks,
			&s.RecentClicks,
			&s.TotalSaves,
			&s.LastClickAt,
			&s.LastSaveAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product stats: %w", err)
		}
		stats[s.ProductID] = &s
	}

	return stats, rows.Err()
}

// UniqueProductIDs returns the distinct product ids touched by a batch of
// click events, preserving first-occurrence order.
func UniqueProductIDs(events []*model.ClickEvent) []string {
	seen := make(map[string]bool, len(events))
	ids := make([]string, 0, len(events))

	for _, event := range events {
		if event.ProductID == "" || seen[event.ProductID] {
			continue
		}
		seen[event.ProductID] = true
		ids = append(ids, event.ProductID)
	}

	return ids
}

// nullableString returns nil for empty strings.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
