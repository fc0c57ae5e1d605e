// Package marketplace provides the affiliate API client for the upstream
// product feed. The feed is not schema-guaranteed: numerics arrive as
// strings and any optional field may be missing or malformed. Callers
// normalize records through the catalog package before use.
package marketplace

// RawProduct is a product record as returned by the affiliate API.
// Field names mirror the wire format.
type RawProduct struct {
	ProductID           string `json:"product_id"`
	ProductTitle        string `json:"product_title"`
	ProductMainImageURL string `json:"product_main_image_url"`
	PromotionLink       string `json:"promotion_link"`

	// Prices arrive as decimal strings like "19.99".
	TargetSalePrice             string `json:"target_sale_price"`
	TargetSalePriceCurrency     string `json:"target_sale_price_currency"`
	TargetOriginalPrice         string `json:"target_original_price"`
	TargetOriginalPriceCurrency string `json:"target_original_price_currency"`

	// Discount is a percent string like "42%".
	Discount string `json:"discount,omitempty"`

	// EvaluateRate is either a 0-5 rating ("4.8") or a percentage ("95%").
	EvaluateRate string `json:"evaluate_rate,omitempty"`

	// LastestVolume is the cumulative order count. The typo is the wire
	// format's, not ours.
	LastestVolume string `json:"lastest_volume,omitempty"`

	FirstLevelCategoryID    int64  `json:"first_level_category_id,omitempty"`
	FirstLevelCategoryName  string `json:"first_level_category_name,omitempty"`
	SecondLevelCategoryID   int64  `json:"second_level_category_id,omitempty"`
	SecondLevelCategoryName string `json:"second_level_category_name,omitempty"`

	ShopID  int64  `json:"shop_id,omitempty"`
	ShopURL string `json:"shop_url,omitempty"`
}

// SearchParams holds the supported product query parameters.
type SearchParams struct {
	Keywords      string
	CategoryIDs   string // comma-separated upstream category ids
	MinSalePrice  float64
	MaxSalePrice  float64
	PageNo        int
	PageSize      int
	Sort          string // e.g. "LAST_VOLUME_DESC"
	ShipToCountry string
	Currency      string
	Language      string
}

// SearchResult is the unwrapped result of a product query.
type SearchResult struct {
	Products         []RawProduct
	CurrentPageNo    int
	TotalPageNo      int
	TotalRecordCount int
	CurrentRecordCnt int
}

// queryEnvelope mirrors the API's nested response wrapper.
type queryEnvelope struct {
	QueryResponse *struct {
		RespResult respResult `json:"resp_result"`
	} `json:"aliexpress_affiliate_product_query_response"`
	DetailResponse *struct {
		RespResult respResult `json:"resp_result"`
	} `json:"aliexpress_affiliate_productdetail_get_response"`
	ErrorResponse *struct {
		Code      string `json:"code"`
		Msg       string `json:"msg"`
		RequestID string `json:"request_id"`
	} `json:"error_response"`
}

type respResult struct {
	RespCode int    `json:"resp_code"`
	RespMsg  string `json:"resp_msg"`
	Result   struct {
		CurrentPageNo      int `json:"current_page_no"`
		CurrentRecordCount int `json:"current_record_count"`
		TotalPageNo        int `json:"total_page_no"`
		TotalRecordCount   int `json:"total_record_count"`
		Products           *struct {
			Product []RawProduct `json:"product"`
		} `json:"products"`
	} `json:"result"`
}
