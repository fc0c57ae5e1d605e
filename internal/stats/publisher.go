// Package stats provides click event capture and processing.
package stats

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cozycove/cozycove/internal/metrics"
)

const (
	// StreamKey is the Redis stream for product click events.
	StreamKey = "stream:product_clicks"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:product_clicks:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// ClickEventPayload is the compressed event format for the Redis stream.
type ClickEventPayload struct {
	ProductID   string `json:"pid"`          // product_id
	Referrer    string `json:"r,omitempty"`  // referrer (truncated)
	VisitorHash string `json:"vh"`           // visitor_hash
	CountryCode string `json:"cc,omitempty"` // country_code
	ClickedAt   int64  `json:"t"`            // Unix milliseconds
}

// ValidateClickEventPayload checks a payload for the minimum required fields.
func ValidateClickEventPayload(p ClickEventPayload) error {
	if p.ProductID == "" {
		return fmt.Errorf("missing product id")
	}
	if p.ClickedAt <= 0 {
		return fmt.Errorf("missing click timestamp")
	}
	return nil
}

// Publisher enqueues click events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new click event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "stats.publisher"),
		metrics: recorder,
	}
}

// Publish adds a click event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event ClickEventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishClickAsync publishes a click without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *Publisher) PublishClickAsync(productID, referrer, visitorHash, countryCode string, clickedAt time.Time) {
	event := ClickEventPayload{
		ProductID:   productID,
		Referrer:    SanitizeReferrer(referrer),
		VisitorHash: visitorHash,
		CountryCode: countryCode,
		ClickedAt:   clickedAt.UnixMilli(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish click event",
				"product_id", event.ProductID,
				"error", err,
			)
			p.metrics.IncClickEventPublished("dropped")
			return
		}

		p.logger.Debug("click event published",
			"product_id", event.ProductID,
			"stream_id", streamID,
		)
		p.metrics.IncClickEventPublished("success")
	}()
}

// GenerateVisitorHash creates a privacy-safe visitor identifier.
// Uses SHA256(IP + UserAgent + daily_salt) truncated to 16 hex chars.
func GenerateVisitorHash(ip, userAgent string, clickedAt time.Time) string {
	// Daily salt rotates at midnight UTC
	dailySalt := fmt.Sprintf("cozycove:%s", clickedAt.UTC().Format("2006-01-02"))

	data := ip + userAgent + dailySalt
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}

// SanitizeReferrer cleans and truncates the referrer URL.
// Strips query parameters and fragments for privacy.
func SanitizeReferrer(ref string) string {
	if ref == "" {
		return ""
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	// Keep only scheme + host + path; strip query params and fragments
	parsed.RawQuery = ""
	parsed.Fragment = ""

	sanitized := parsed.String()
	if len(sanitized) > 500 {
		return sanitized[:500]
	}
	return sanitized
}

// ExtractCountryCode validates a CDN country header value.
// Returns empty string if the value is missing or invalid.
func ExtractCountryCode(cdnCountry string) string {
	if cdnCountry != "" && len(cdnCountry) == 2 {
		return strings.ToUpper(cdnCountry)
	}
	return ""
}

// ExtractReferrerDomain extracts the domain from a referrer URL.
// Returns "(direct)" for empty referrer.
func ExtractReferrerDomain(ref string) string {
	if ref == "" {
		return "(direct)"
	}

	parsed, err := url.Parse(ref)
	if err != nil || parsed.Host == "" {
		return "(unknown)"
	}

	return parsed.Host
}
