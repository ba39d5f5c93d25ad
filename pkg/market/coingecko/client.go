package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptoverde-api/pkg/market"
)

const (
	defaultBaseURL           = "https://api.coingecko.com/api/v3/coins/markets"
	defaultHistoricalURL     = "https://api.coingecko.com/api/v3/coins/{id}/market_chart"
	defaultSnapshotTimeout   = 15 * time.Second
	defaultHistoricalTimeout = 10 * time.Second
	maxErrorBody             = 512
)

// Params are the query parameters sent with the markets request.
type Params struct {
	VsCurrency            string
	Order                 string
	PerPage               int
	Page                  int
	Sparkline             bool
	PriceChangePercentage string
}

// DefaultParams mirrors the ranked top-100 USD listing.
func DefaultParams() Params {
	return Params{
		VsCurrency:            "usd",
		Order:                 "market_cap_desc",
		PerPage:               100,
		Page:                  1,
		Sparkline:             true,
		PriceChangePercentage: "24h",
	}
}

// Client talks to the CoinGecko REST API. It never retries: a failed call is
// terminal and the next scheduler cycle is the retry.
type Client struct {
	baseURL           string
	historicalURL     string
	params            Params
	httpClient        *http.Client
	snapshotTimeout   time.Duration
	historicalTimeout time.Duration
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the markets endpoint URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHistoricalURL overrides the market chart URL template; {id} is replaced by the coin id.
func WithHistoricalURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.historicalURL = u
		}
	}
}

// WithParams overrides the markets query parameters. Zero fields keep their
// defaults except Sparkline, which is always applied.
func WithParams(p Params) Option {
	return func(c *Client) {
		if p.VsCurrency != "" {
			c.params.VsCurrency = p.VsCurrency
		}
		if p.Order != "" {
			c.params.Order = p.Order
		}
		if p.PerPage > 0 {
			c.params.PerPage = p.PerPage
		}
		if p.Page > 0 {
			c.params.Page = p.Page
		}
		if p.PriceChangePercentage != "" {
			c.params.PriceChangePercentage = p.PriceChangePercentage
		}
		c.params.Sparkline = p.Sparkline
	}
}

// WithTimeouts overrides the per-call timeouts for snapshot and historical requests.
func WithTimeouts(snapshot, historical time.Duration) Option {
	return func(c *Client) {
		if snapshot > 0 {
			c.snapshotTimeout = snapshot
		}
		if historical > 0 {
			c.historicalTimeout = historical
		}
	}
}

// NewClient constructs a CoinGecko client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:           defaultBaseURL,
		historicalURL:     defaultHistoricalURL,
		params:            DefaultParams(),
		httpClient:        &http.Client{},
		snapshotTimeout:   defaultSnapshotTimeout,
		historicalTimeout: defaultHistoricalTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FetchMarkets implements market.Source.
func (c *Client) FetchMarkets(ctx context.Context) ([]market.RawRecord, error) {
	const op = "coingecko: fetch markets"
	query := url.Values{}
	query.Set("vs_currency", c.params.VsCurrency)
	query.Set("order", c.params.Order)
	query.Set("per_page", strconv.Itoa(c.params.PerPage))
	query.Set("page", strconv.Itoa(c.params.Page))
	query.Set("sparkline", strconv.FormatBool(c.params.Sparkline))
	if c.params.PriceChangePercentage != "" {
		query.Set("price_change_percentage", c.params.PriceChangePercentage)
	}

	body, err := c.get(ctx, c.baseURL, query, c.snapshotTimeout)
	if err != nil {
		return nil, market.NewError(market.ErrTransientNetwork, op, "", err)
	}
	var records []market.RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, market.NewError(market.ErrTransientNetwork, op, "", fmt.Errorf("decode response: %w", err))
	}
	return records, nil
}

// FetchMarketChart implements market.Source.
func (c *Client) FetchMarketChart(ctx context.Context, coinID string, days int) (*market.Chart, error) {
	const op = "coingecko: fetch market chart"
	key := fmt.Sprintf("%s_%d", coinID, days)
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return nil, market.NewError(market.ErrDataValidation, op, key, errors.New("coin id is required"))
	}
	if days <= 0 {
		return nil, market.NewError(market.ErrDataValidation, op, key, fmt.Errorf("days must be positive, got %d", days))
	}
	endpoint := strings.ReplaceAll(c.historicalURL, "{id}", url.PathEscape(coinID))
	query := url.Values{}
	query.Set("vs_currency", c.params.VsCurrency)
	query.Set("days", strconv.Itoa(days))

	body, err := c.get(ctx, endpoint, query, c.historicalTimeout)
	if err != nil {
		return nil, market.NewError(market.ErrTransientNetwork, op, key, err)
	}
	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, market.NewError(market.ErrTransientNetwork, op, key, fmt.Errorf("decode response: %w", err))
	}
	return payload.chart(), nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, timeout time.Duration) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := endpoint
	if encoded := query.Encode(); encoded != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		target = endpoint + sep + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return body, nil
}
