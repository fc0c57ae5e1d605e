package stats

import (
	"encoding/json"
	"testing"
	"time"
)

func TestGenerateVisitorHash_Deterministic(t *testing.T) {
	t.Parallel()

	ip := "192.168.1.100"
	userAgent := "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	clickedAt := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	hash1 := GenerateVisitorHash(ip, userAgent, clickedAt)
	hash2 := GenerateVisitorHash(ip, userAgent, clickedAt)

	if hash1 != hash2 {
		t.Error("Same inputs should produce same hash")
	}

	// Hash should be 16 hex chars
	if len(hash1) != 16 {
		t.Errorf("Hash length = %d, want 16", len(hash1))
	}
}

func TestGenerateVisitorHash_DailyRotation(t *testing.T) {
	t.Parallel()

	ip := "192.168.1.100"
	userAgent := "Mozilla/5.0"

	day1 := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC) // Next day

	hash1 := GenerateVisitorHash(ip, userAgent, day1)
	hash2 := GenerateVisitorHash(ip, userAgent, day2)

	if hash1 == hash2 {
		t.Error("Different days should produce different hashes to prevent cross-day tracking")
	}
}

func TestGenerateVisitorHash_SameDayDifferentTime(t *testing.T) {
	t.Parallel()

	ip := "192.168.1.100"
	userAgent := "Mozilla/5.0"

	morning := time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

	hash1 := GenerateVisitorHash(ip, userAgent, morning)
	hash2 := GenerateVisitorHash(ip, userAgent, evening)

	// Same day should produce same hash regardless of time
	if hash1 != hash2 {
		t.Error("Same day should produce same hash regardless of time")
	}
}

func TestSanitizeReferrer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strip utm params",
			input:    "https://example.com/page?utm_source=test&utm_medium=email",
			expected: "https://example.com/page",
		},
		{
			name:     "strip fragment",
			input:    "https://example.com/page#section",
			expected: "https://example.com/page",
		},
		{
			name:     "strip both query and fragment",
			input:    "https://example.com/path?query=1#section",
			expected: "https://example.com/path",
		},
		{
			name:     "empty referrer",
			input:    "",
			expected: "",
		},
		{
			name:     "plain url untouched",
			input:    "https://pinterest.com/pin/123",
			expected: "https://pinterest.com/pin/123",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeReferrer(tt.input); got != tt.expected {
				t.Errorf("SanitizeReferrer(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractCountryCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"US", "US"},
		{"de", "DE"},
		{"", ""},
		{"USA", ""},
		{"X", ""},
	}

	for _, tt := range tests {
		if got := ExtractCountryCode(tt.input); got != tt.expected {
			t.Errorf("ExtractCountryCode(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestExtractReferrerDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"", "(direct)"},
		{"https://pinterest.com/pin/123", "pinterest.com"},
		{"not a url", "(unknown)"},
	}

	for _, tt := range tests {
		if got := ExtractReferrerDomain(tt.input); got != tt.expected {
			t.Errorf("ExtractReferrerDomain(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestValidateClickEventPayload(t *testing.T) {
	t.Parallel()

	valid := ClickEventPayload{
		ProductID: "1005006789",
		ClickedAt: time.Now().UnixMilli(),
	}
	if err := ValidateClickEventPayload(valid); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	missing := ClickEventPayload{ClickedAt: time.Now().UnixMilli()}
	if err := ValidateClickEventPayload(missing); err == nil {
		t.Error("payload without product id should be rejected")
	}

	noTime := ClickEventPayload{ProductID: "1005006789"}
	if err := ValidateClickEventPayload(noTime); err == nil {
		t.Error("payload without timestamp should be rejected")
	}
}

func TestClickEventPayload_CompactKeys(t *testing.T) {
	t.Parallel()

	payload := ClickEventPayload{
		ProductID:   "1005006789",
		Referrer:    "https://pinterest.com/pin/123",
		VisitorHash: "a1b2c3d4e5f60718",
		CountryCode: "US",
		ClickedAt:   1757700000000,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"pid", "r", "vh", "cc", "t"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("expected compact key %q in payload", key)
		}
	}
	if _, ok := raw["product_id"]; ok {
		t.Error("payload should not carry long-form keys on the wire")
	}
}
