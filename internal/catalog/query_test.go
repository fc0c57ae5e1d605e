package catalog

import (
	"testing"
	"time"

	"github.com/cozycove/cozycove/internal/model"
	"github.com/cozycove/cozycove/internal/ranking"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }

// fixture returns a small hand-built catalog covering the filter edges.
func fixture() []model.Product {
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mid := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	return []model.Product{
		{ID: "blanket", Title: "Chunky Knit Blanket", Category: "Home & Garden",
			Price: 20, Rating: floatPtr(4.0), DiscountPercent: intPtr(10), FirstSeenAt: &mid},
		{ID: "candle", Title: "Soy Candle Set", Category: "Home Decor",
			Price: 35, Rating: floatPtr(4.8), DiscountPercent: intPtr(55), FirstSeenAt: &fresh},
		{ID: "desk-mat", Title: "Felt Desk Mat", Category: "Office",
			Price: 50, Rating: floatPtr(4.2), FirstSeenAt: &old},
		{ID: "lamp", Title: "Sunset Projection Lamp", Category: "Home Decor",
			Price: 62, Rating: floatPtr(3.9), DiscountPercent: intPtr(30)},
		{ID: "mug", Title: "Ceramic Mug", Category: "Kitchen",
			Price: 9.5, FirstSeenAt: &old},
	}
}

func query(products []model.Product, opts QueryOptions) QueryResult {
	return Query(products, opts, nil, ranking.DefaultWeights())
}

func ids(products []model.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestQuery_FilterConjunction(t *testing.T) {
	t.Parallel()

	opts := QueryOptions{
		Filters: Filters{
			MinPrice:  floatPtr(20),
			MaxPrice:  floatPtr(50),
			MinRating: floatPtr(4),
		},
		Sort: SortPriceLow,
	}

	result := query(fixture(), opts)

	// blanket: price exactly 20, rating exactly 4 - boundary values included.
	// desk-mat: price exactly 50 included. candle passes all three.
	// lamp fails price, mug fails both price and rating.
	if result.Total != 3 {
		t.Fatalf("Total = %d, want 3 (got %v)", result.Total, ids(result.Items))
	}
	want := []string{"blanket", "candle", "desk-mat"}
	for i, id := range want {
		if result.Items[i].ID != id {
			t.Errorf("Items[%d] = %s, want %s", i, result.Items[i].ID, id)
		}
	}
}

func TestQuery_SearchMatchesTitleOrCategory(t *testing.T) {
	t.Parallel()

	result := query(fixture(), QueryOptions{Filters: Filters{Search: "HOME"}, Sort: SortPriceLow})

	// Matches category "Home & Garden" and "Home Decor".
	got := ids(result.Items)
	if result.Total != 3 {
		t.Fatalf("Total = %d, want 3 (got %v)", result.Total, got)
	}

	result = query(fixture(), QueryOptions{Filters: Filters{Search: "mug"}})
	if result.Total != 1 || result.Items[0].ID != "mug" {
		t.Errorf("title search failed: %v", ids(result.Items))
	}
}

func TestQuery_CategorySubstring(t *testing.T) {
	t.Parallel()

	// "home" matches both "Home & Garden" and "Home Decor" - substring
	// containment is deliberately permissive.
	result := query(fixture(), QueryOptions{Filters: Filters{Category: "home"}})
	if result.Total != 3 {
		t.Errorf("Total = %d, want 3 (got %v)", result.Total, ids(result.Items))
	}

	// "all" disables the filter.
	result = query(fixture(), QueryOptions{Filters: Filters{Category: "all"}})
	if result.Total != 5 {
		t.Errorf("Total with category=all = %d, want 5", result.Total)
	}
}

func TestQuery_MinRatingExcludesUnrated(t *testing.T) {
	t.Parallel()

	result := query(fixture(), QueryOptions{Filters: Filters{MinRating: floatPtr(0.1)}})

	for _, p := range result.Items {
		if p.ID == "mug" {
			t.Error("unrated product should be excluded by a positive rating threshold")
		}
	}
}

func TestQuery_MinDiscount(t *testing.T) {
	t.Parallel()

	result := query(fixture(), QueryOptions{Filters: Filters{MinDiscount: intPtr(30)}, Sort: SortPriceLow})

	want := []string{"candle", "lamp"}
	if result.Total != 2 {
		t.Fatalf("Total = %d, want 2 (got %v)", result.Total, ids(result.Items))
	}
	for i, id := range want {
		if result.Items[i].ID != id {
			t.Errorf("Items[%d] = %s, want %s", i, result.Items[i].ID, id)
		}
	}
}

func TestQuery_FreeShippingProxy(t *testing.T) {
	t.Parallel()

	result := query(fixture(), QueryOptions{Filters: Filters{FreeShippingOnly: true}})

	// Only lamp (62) clears the price-floor proxy; desk-mat at exactly 50
	// does not.
	if result.Total != 1 || result.Items[0].ID != "lamp" {
		t.Errorf("free shipping proxy matched %v, want [lamp]", ids(result.Items))
	}
}

func TestQuery_FreeShippingExplicitFlagWins(t *testing.T) {
	t.Parallel()

	products := []model.Product{
		{ID: "cheap-free", Price: 5, FreeShipping: boolPtr(true)},
		{ID: "pricey-paid", Price: 80, FreeShipping: boolPtr(false)},
	}

	result := query(products, QueryOptions{Filters: Filters{FreeShippingOnly: true}})

	if result.Total != 1 || result.Items[0].ID != "cheap-free" {
		t.Errorf("explicit flag should override the price proxy, got %v", ids(result.Items))
	}
}

func TestQuery_SortVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sort  SortOption
		first string
	}{
		{SortTopRated, "candle"},        // rating 4.8
		{SortBiggestSavings, "candle"},  // discount 55
		{SortPriceLow, "mug"},           // 9.5
		{SortPriceHigh, "lamp"},         // 62
		{SortNewest, "candle"},          // freshest first-seen
	}

	for _, tt := range tests {
		result := query(fixture(), QueryOptions{Sort: tt.sort})
		if result.Items[0].ID != tt.first {
			t.Errorf("sort %s: first = %s, want %s", tt.sort, result.Items[0].ID, tt.first)
		}
	}
}

func TestQuery_NewestSortsUnseenLast(t *testing.T) {
	t.Parallel()

	result := query(fixture(), QueryOptions{Sort: SortNewest})

	last := result.Items[len(result.Items)-1]
	if last.FirstSeenAt != nil {
		// lamp has no first-seen timestamp and must sort as oldest.
		t.Errorf("last item %s has FirstSeenAt, want the never-seen product last", last.ID)
	}
}

func TestQuery_TrendingUsesStats(t *testing.T) {
	t.Parallel()

	old := time.Now().Add(-30 * 24 * time.Hour)
	products := []model.Product{
		{ID: "quiet", FirstSeenAt: &old},
		{ID: "busy", FirstSeenAt: &old},
	}
	stats := map[string]*model.ProductStats{
		"busy": {ProductID: "busy", RecentClicks: 40},
	}

	result := Query(products, QueryOptions{Sort: SortTrending}, stats, ranking.DefaultWeights())

	if result.Items[0].ID != "busy" {
		t.Errorf("first = %s, want busy", result.Items[0].ID)
	}
}

func TestQuery_PaginationBoundary(t *testing.T) {
	t.Parallel()

	products := fixture() // 5 items

	// Exactly pageSize items on page 1: no more pages.
	result := query(products, QueryOptions{Sort: SortPriceLow, Page: 1, PageSize: 5})
	if result.HasMore {
		t.Error("HasMore = true, want false when page covers the whole set")
	}
	if len(result.Items) != 5 {
		t.Errorf("len = %d, want 5", len(result.Items))
	}

	// One more item than fits: page 2 returns the remainder.
	result = query(products, QueryOptions{Sort: SortPriceLow, Page: 1, PageSize: 4})
	if !result.HasMore {
		t.Error("HasMore = false, want true")
	}

	result = query(products, QueryOptions{Sort: SortPriceLow, Page: 2, PageSize: 4})
	if len(result.Items) != 1 {
		t.Errorf("page 2 len = %d, want 1", len(result.Items))
	}
	if result.HasMore {
		t.Error("HasMore on final page = true, want false")
	}
	if result.Total != 5 {
		t.Errorf("Total = %d, want 5 (pre-pagination size)", result.Total)
	}
}

func TestQuery_PageBeyondEnd(t *testing.T) {
	t.Parallel()

	result := query(fixture(), QueryOptions{Page: 10, PageSize: 20})

	if len(result.Items) != 0 {
		t.Errorf("len = %d, want 0", len(result.Items))
	}
	if result.HasMore {
		t.Error("HasMore = true, want false")
	}
	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
}

func TestQuery_EmptyResultIsNotAnError(t *testing.T) {
	t.Parallel()

	result := query(fixture(), QueryOptions{Filters: Filters{Search: "no such product"}})

	if result.Total != 0 || result.HasMore || len(result.Items) != 0 {
		t.Errorf("empty result = %+v, want zero values", result)
	}
}

func TestQuery_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	products := fixture()
	originalFirst := products[0].ID

	query(products, QueryOptions{Sort: SortPriceHigh})

	if products[0].ID != originalFirst {
		t.Error("Query reordered its input slice")
	}
}

func TestParseSortOption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want SortOption
	}{
		{"trending", SortTrending},
		{"top-rated", SortTopRated},
		{"biggest-savings", SortBiggestSavings},
		{"price-low", SortPriceLow},
		{"price-high", SortPriceHigh},
		{"newest", SortNewest},
		{"alphabetical", SortTrending}, // unknown keys degrade to default
		{"", SortTrending},
	}

	for _, tt := range tests {
		if got := ParseSortOption(tt.in); got != tt.want {
			t.Errorf("ParseSortOption(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
