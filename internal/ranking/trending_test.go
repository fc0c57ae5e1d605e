package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/cozycove/cozycove/internal/model"
)

func TestTrendingScoreAt_ReferenceExample(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	firstSeen := now.Add(-2 * 24 * time.Hour)

	p := &model.Product{
		ID:              "p-1",
		DiscountPercent: intPtr(40),
		FirstSeenAt:     &firstSeen,
	}
	stats := &model.ProductStats{
		ProductID:    "p-1",
		RecentClicks: 50,
		TotalSaves:   20,
	}

	// 3.0*50 + 2.0*20 + 0.3*40 + 1.5*freshness(2 days)
	freshness := 10 * (1 - 2.0/7.0)
	want := 3.0*50 + 2.0*20 + 0.3*40 + 1.5*freshness

	got := TrendingScoreAt(DefaultWeights(), p, stats, now)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("TrendingScoreAt = %v, want %v", got, want)
	}
	if math.Abs(got-212.7) > 0.1 {
		t.Errorf("TrendingScoreAt = %v, want ~212.7", got)
	}
}

func TestTrendingScoreAt_NilStats(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	firstSeen := now // brand new

	p := &model.Product{
		ID:              "fresh-deal",
		DiscountPercent: intPtr(50),
		FirstSeenAt:     &firstSeen,
	}

	// No engagement at all: discount and freshness still score.
	want := 0.3*50 + 1.5*10

	got := TrendingScoreAt(DefaultWeights(), p, nil, now)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("TrendingScoreAt with nil stats = %v, want %v", got, want)
	}
}

func TestTrendingScoreAt_FreshArrivalBeatsStaleEngagement(t *testing.T) {
	t.Parallel()

	w := DefaultWeights()
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	fresh := now
	stale := now.Add(-30 * 24 * time.Hour)

	newcomer := &model.Product{ID: "new", DiscountPercent: intPtr(70), FirstSeenAt: &fresh}
	veteran := &model.Product{ID: "old", FirstSeenAt: &stale}
	veteranStats := &model.ProductStats{ProductID: "old", RecentClicks: 5}

	if TrendingScoreAt(w, newcomer, nil, now) <= TrendingScoreAt(w, veteran, veteranStats, now) {
		t.Error("a fresh discounted arrival should out-rank a barely-clicked stale product")
	}
}

func TestSortByTrendingScore_LooksUpStatsByID(t *testing.T) {
	t.Parallel()

	old := time.Now().Add(-30 * 24 * time.Hour)
	products := []model.Product{
		{ID: "quiet", FirstSeenAt: &old},
		{ID: "busy", FirstSeenAt: &old},
	}
	stats := map[string]*model.ProductStats{
		"busy": {ProductID: "busy", RecentClicks: 100, TotalSaves: 10},
	}

	sorted := SortByTrendingScore(DefaultWeights(), products, stats)

	if sorted[0].ID != "busy" {
		t.Errorf("first = %s, want busy", sorted[0].ID)
	}
	if products[0].ID != "quiet" {
		t.Error("SortByTrendingScore mutated its input")
	}
}

func TestSortByTrendingScore_StableOnTies(t *testing.T) {
	t.Parallel()

	old := time.Now().Add(-30 * 24 * time.Hour)
	products := []model.Product{
		{ID: "first", FirstSeenAt: &old},
		{ID: "second", FirstSeenAt: &old},
	}

	// No stats, no discount: everything scores zero.
	sorted := SortByTrendingScore(DefaultWeights(), products, nil)

	if sorted[0].ID != "first" || sorted[1].ID != "second" {
		t.Errorf("tied products should keep input order, got %s, %s", sorted[0].ID, sorted[1].ID)
	}
}

func TestTrendingProducts_Limit(t *testing.T) {
	t.Parallel()

	old := time.Now().Add(-30 * 24 * time.Hour)
	products := []model.Product{
		{ID: "a", FirstSeenAt: &old},
		{ID: "b", FirstSeenAt: &old},
		{ID: "c", FirstSeenAt: &old},
	}
	stats := map[string]*model.ProductStats{
		"b": {ProductID: "b", RecentClicks: 10},
		"c": {ProductID: "c", RecentClicks: 5},
	}

	top := TrendingProducts(DefaultWeights(), products, stats, 2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].ID != "b" || top[1].ID != "c" {
		t.Errorf("unexpected top-2: %s, %s", top[0].ID, top[1].ID)
	}
}

func TestWithTrendingScores_Annotates(t *testing.T) {
	t.Parallel()

	old := time.Now().Add(-30 * 24 * time.Hour)
	products := []model.Product{{ID: "a", FirstSeenAt: &old}}
	stats := map[string]*model.ProductStats{
		"a": {ProductID: "a", RecentClicks: 1},
	}

	scored := WithTrendingScores(DefaultWeights(), products, stats)
	if len(scored) != 1 {
		t.Fatalf("len = %d, want 1", len(scored))
	}
	if scored[0].TrendingScore == nil || math.Abs(*scored[0].TrendingScore-3.0) > 1e-9 {
		t.Errorf("TrendingScore annotation = %v, want 3.0", scored[0].TrendingScore)
	}
}
