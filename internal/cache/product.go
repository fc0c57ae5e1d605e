package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cozycove/cozycove/internal/model"
)

// Cache key prefixes and TTLs.
const (
	productKeyPrefix = "product:"
	clicksKeyPrefix  = "clicks:"

	// DefaultProductTTL is the TTL for cached product snapshots. Ingest
	// refreshes well inside this window; the TTL only bounds staleness
	// when ingest stalls.
	DefaultProductTTL = 24 * time.Hour
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetProduct retrieves a product snapshot from cache by id.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	key := productKeyPrefix + id

	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	cached := &model.CachedProduct{
		Title:           result["title"],
		Image:           result["image"],
		URL:             result["url"],
		Price:           result["price"],
		OldPrice:        result["old_price"],
		DiscountPercent: result["discount_percent"],
		Rating:          result["rating"],
		Orders:          result["orders"],
		Category:        result["category"],
		Tags:            result["tags"],
		FreeShipping:    result["free_shipping"],
		FirstSeenAt:     result["first_seen_at"],
		UpdatedAt:       result["updated_at"],
	}

	return cached.ToProduct(id), nil
}

// SetProduct stores a product snapshot in cache.
func (c *Cache) SetProduct(ctx context.Context, p *model.Product) error {
	key := productKeyPrefix + p.ID
	cached := p.ToCachedProduct()

	fields := map[string]any{
		"title":    cached.Title,
		"image":    cached.Image,
		"url":      cached.URL,
		"price":    cached.Price,
		"orders":   cached.Orders,
		"category": cached.Category,
		"tags":     cached.Tags,
	}

	// Only set optional fields if they have values
	if cached.OldPrice != "" {
		fields["old_price"] = cached.OldPrice
	}
	if cached.DiscountPercent != "" {
		fields["discount_percent"] = cached.DiscountPercent
	}
	if cached.Rating != "" {
		fields["rating"] = cached.Rating
	}
	if cached.FreeShipping != "" {
		fields["free_shipping"] = cached.FreeShipping
	}
	if cached.FirstSeenAt != "" {
		fields["first_seen_at"] = cached.FirstSeenAt
	}
	if cached.UpdatedAt != "" {
		fields["updated_at"] = cached.UpdatedAt
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key) // stale optional fields must not survive a refresh
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, DefaultProductTTL)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cache product: %w", err)
	}

	return nil
}

// SetProducts stores a batch of product snapshots.
func (c *Cache) SetProducts(ctx context.Context, products []model.Product) error {
	for i := range products {
		if err := c.SetProduct(ctx, &products[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteProduct removes a product snapshot from cache.
func (c *Cache) DeleteProduct(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, productKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete product from cache: %w", err)
	}
	return nil
}

// IncrementClicks increments the per-product live click counter. The counter
// holds clicks the stats worker has not yet folded into product_stats, so
// trending reads can see engagement before the next batch lands.
func (c *Cache) IncrementClicks(ctx context.Context, productID string) error {
	key := clicksKeyPrefix + productID

	if err := c.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}

	return nil
}

// LiveClicks returns the pending click counts for the given product ids.
// Products with no pending clicks are absent from the map.
func (c *Cache) LiveClicks(ctx context.Context, productIDs []string) (map[string]int64, error) {
	if len(productIDs) == 0 {
		return map[string]int64{}, nil
	}

	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = clicksKeyPrefix + id
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget clicks failed: %w", err)
	}

	counts := make(map[string]int64, len(productIDs))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || count == 0 {
			continue
		}
		counts[productIDs[i]] = count
	}

	return counts, nil
}

// GetAndResetClicks gets the current click count and resets it. The stats
// worker calls this after a batch is persisted so live counts stop double
// counting clicks that product_stats already covers.
func (c *Cache) GetAndResetClicks(ctx context.Context, productID string) (int64, error) {
	key := clicksKeyPrefix + productID

	result, err := c.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get clicks: %w", err)
	}

	count, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		return 0, nil
	}

	return count, nil
}
