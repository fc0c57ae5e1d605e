package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second

	// queryMethod is the upstream method name for product search.
	queryMethod = "aliexpress.affiliate.product.query"

	// maxResponseBytes bounds the decoded response body.
	maxResponseBytes = 4 << 20 // 4MB
)

// Client errors.
var (
	ErrEmptyResponse = errors.New("marketplace: empty response envelope")
)

// APIError is a structured error returned by the upstream API.
type APIError struct {
	Code      string
	Msg       string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace api error %s: %s (request_id=%s)", e.Code, e.Msg, e.RequestID)
}

// RequestSigner signs outgoing API requests. The signing protocol itself is
// owned by a collaborator; the client only requires that signing parameters
// (signature, timestamp, app key material) are appended to the query.
type RequestSigner interface {
	Sign(params url.Values) (url.Values, error)
}

// Client fetches raw product records from the affiliate API.
type Client struct {
	baseURL    string
	trackingID string
	signer     RequestSigner
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a marketplace API client.
func NewClient(baseURL, trackingID string, signer RequestSigner, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		trackingID: trackingID,
		signer:     signer,
		httpClient: newHTTPClient(),
		logger:     logger.With("component", "marketplace.client"),
	}
}

// newHTTPClient creates an HTTP client configured for upstream API calls.
// It has appropriate timeouts and does not follow redirects.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Search queries the upstream product feed. Transport failures and 5xx
// responses are retried with jittered backoff up to MaxAttempts; API-level
// errors (error_response, non-200 resp_code) are returned immediately.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	values, err := c.buildQuery(params)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := NextAttemptDelay(attempt - 1)
			c.logger.Debug("retrying search",
				"attempt", attempt+1,
				"delay", delay,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, retryable, err := c.doSearch(ctx, values)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("search exhausted %d attempts: %w", MaxAttempts, lastErr)
}

// doSearch performs a single request. The second return value reports
// whether the failure is worth retrying.
func (c *Client) doSearch(ctx context.Context, values url.Values) (*SearchResult, bool, error) {
	signed := values
	if c.signer != nil {
		var err error
		signed, err = c.signer.Sign(values)
		if err != nil {
			return nil, false, fmt.Errorf("sign request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+signed.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CozyCove-Catalog/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, true, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	result, err := decodeSearchResponse(body)
	if err != nil {
		return nil, false, err
	}
	return result, false, nil
}

// buildQuery assembles the unsigned query parameters.
func (c *Client) buildQuery(params SearchParams) (url.Values, error) {
	values := url.Values{}
	values.Set("method", queryMethod)
	values.Set("tracking_id", c.trackingID)

	if params.Keywords != "" {
		values.Set("keywords", params.Keywords)
	}
	if params.CategoryIDs != "" {
		values.Set("category_ids", params.CategoryIDs)
	}
	if params.MinSalePrice > 0 {
		values.Set("min_sale_price", strconv.FormatFloat(params.MinSalePrice, 'f', 2, 64))
	}
	if params.MaxSalePrice > 0 {
		values.Set("max_sale_price", strconv.FormatFloat(params.MaxSalePrice, 'f', 2, 64))
	}
	if params.PageNo > 0 {
		values.Set("page_no", strconv.Itoa(params.PageNo))
	}
	if params.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(params.PageSize))
	}
	if params.Sort != "" {
		values.Set("sort", params.Sort)
	}
	if params.ShipToCountry != "" {
		values.Set("ship_to_country", params.ShipToCountry)
	}
	if params.Currency != "" {
		values.Set("target_currency", params.Currency)
	}
	if params.Language != "" {
		values.Set("target_language", params.Language)
	}

	return values, nil
}

// decodeSearchResponse unwraps the nested response envelope.
func decodeSearchResponse(body []byte) (*SearchResult, error) {
	var envelope queryEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if envelope.ErrorResponse != nil {
		return nil, &APIError{
			Code:      envelope.ErrorResponse.Code,
			Msg:       envelope.ErrorResponse.Msg,
			RequestID: envelope.ErrorResponse.RequestID,
		}
	}

	var rr *respResult
	switch {
	case envelope.QueryResponse != nil:
		rr = &envelope.QueryResponse.RespResult
	case envelope.DetailResponse != nil:
		rr = &envelope.DetailResponse.RespResult
	default:
		return nil, ErrEmptyResponse
	}

	if rr.RespCode != 200 {
		return nil, &APIError{
			Code: strconv.Itoa(rr.RespCode),
			Msg:  rr.RespMsg,
		}
	}

	result := &SearchResult{
		CurrentPageNo:    rr.Result.CurrentPageNo,
		TotalPageNo:      rr.Result.TotalPageNo,
		TotalRecordCount: rr.Result.TotalRecordCount,
		CurrentRecordCnt: rr.Result.CurrentRecordCount,
	}
	if rr.Result.Products != nil {
		result.Products = rr.Result.Products.Product
	}

	return result, nil
}
