// Package tdameritrade provides a client for the TD Ameritrade price history API
package tdameritrade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/pricecast/internal/common"
	"github.com/bobmcallan/pricecast/internal/interfaces"
	"github.com/bobmcallan/pricecast/internal/models"
)

const (
	DefaultBaseURL   = "https://api.tdameritrade.com/v1"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second

	source = "tdameritrade"
)

// Client implements the HistoryClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new TD Ameritrade client. apiKey is the static
// client id sent as the apikey query parameter.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TD Ameritrade API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request. There is no retry: a failed call
// is reported to the caller as is.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("TD Ameritrade API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// priceHistoryResponse represents the API response for price history
type priceHistoryResponse struct {
	Symbol  string           `json:"symbol"`
	Empty   bool             `json:"empty"`
	Candles []candleResponse `json:"candles"`
}

type candleResponse struct {
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	Datetime int64   `json:"datetime"` // epoch milliseconds
}

// GetPriceHistory retrieves candles for symbol. Defaults to 20 years of
// daily candles.
func (c *Client) GetPriceHistory(ctx context.Context, symbol string, opts ...interfaces.HistoryOption) (*models.PriceHistory, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	params := interfaces.ApplyHistoryOptions(opts...)
	if err := params.Validate(); err != nil {
		return nil, err
	}

	urlParams := url.Values{}
	urlParams.Set("periodType", params.PeriodType)
	urlParams.Set("period", strconv.Itoa(params.Periods))
	urlParams.Set("frequencyType", params.FrequencyType)
	urlParams.Set("frequency", strconv.Itoa(params.Frequency))

	path := fmt.Sprintf("/marketdata/%s/pricehistory", url.PathEscape(symbol))

	var resp priceHistoryResponse
	if err := c.get(ctx, path, urlParams, &resp); err != nil {
		return nil, err
	}

	if resp.Empty || len(resp.Candles) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrEmptyHistory)
	}

	history := &models.PriceHistory{
		Symbol:  symbol,
		Source:  source,
		Candles: make([]models.Candle, len(resp.Candles)),
	}
	for i, cr := range resp.Candles {
		history.Candles[i] = models.Candle{
			Datetime: time.UnixMilli(cr.Datetime).UTC(),
			Open:     cr.Open,
			High:     cr.High,
			Low:      cr.Low,
			Close:    cr.Close,
			Volume:   cr.Volume,
		}
	}

	sort.SliceStable(history.Candles, func(i, j int) bool {
		return history.Candles[i].Datetime.Before(history.Candles[j].Datetime)
	})

	c.logger.Info().
		Str("symbol", symbol).
		Int("candles", len(history.Candles)).
		Str("period_type", params.PeriodType).
		Int("period", params.Periods).
		Msg("Price history fetched")

	return history, nil
}
