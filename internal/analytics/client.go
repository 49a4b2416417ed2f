package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"herd-alerts/internal/catalog"
)

// Summary is the aggregated per-product metrics payload served by the
// analytics backend.
type Summary struct {
	TotalViews       int64           `json:"total_views"`
	TotalAddsToCart  int64           `json:"total_adds_to_cart"`
	AddToCartRatePct decimal.Decimal `json:"add_to_cart_rate_percent"`
	ViewsLastMinute  int64           `json:"views_last_minute"`
}

// Fetcher retrieves the analytics summary for one product.
type Fetcher interface {
	FetchSummary(ctx context.Context, productID catalog.ProductID) (Summary, error)
}

// ClientOptions parameterise the analytics HTTP client.
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
}

// Client queries the analytics service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient constructs an analytics client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "analytics_client").Logger(),
	}
}

// FetchSummary issues a single on-demand query keyed by product id.
func (c *Client) FetchSummary(ctx context.Context, productID catalog.ProductID) (Summary, error) {
	if c.baseURL == "" {
		return Summary{}, fmt.Errorf("analytics base url not configured")
	}

	url := fmt.Sprintf("%s/product-analytics/%s", c.baseURL, string(productID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("create analytics request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch analytics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("analytics status %d", resp.StatusCode)
	}

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return Summary{}, fmt.Errorf("decode analytics response: %w", err)
	}

	return summary, nil
}

var _ Fetcher = (*Client)(nil)
