// Package finnhub provides a client for the Finnhub REST API
package finnhub

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

	"golang.org/x/time/rate"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

const (
	ProviderName     = "Finnhub"
	CredentialEnv    = "FINNHUB_API_KEY"
	DefaultBaseURL   = "https://finnhub.io/api/v1"
	DefaultRateLimit = 60 // requests per minute on the free tier
	DefaultNewsDays  = 14
	DefaultNewsLimit = 30
)

// Client implements both PriceProvider and NewsProvider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time
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

// WithRateLimit sets the rate limit in requests per minute. Zero disables it.
func WithRateLimit(requestsPerMinute int) ClientOption {
	return func(c *Client) {
		if requestsPerMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock overrides the time source used for from/to ranges
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new Finnhub client. An empty apiKey is accepted;
// every call then fails with a ConfigurationError before touching the network.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: common.DefaultRequestTimeout,
		},
		logger: common.NewSilentLogger(),
		now:    time.Now,
	}
	WithRateLimit(DefaultRateLimit)(c)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Name() string { return ProviderName }


func (c *Client) checkKey() error {
	if c.apiKey == "" {
		return &common.ConfigurationError{Setting: CredentialEnv, Provider: ProviderName}
	}
	return nil
}

// candleResponse is the column-oriented candle payload. S is "ok" or "no_data".
type candleResponse struct {
	S string    `json:"s"`
	T []int64   `json:"t"`
	O []float64 `json:"o"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	C []float64 `json:"c"`
	V []float64 `json:"v"`
}

// GetPrices fetches daily candles between now-days and now as UNIX seconds.
func (c *Client) GetPrices(ctx context.Context, ticker string, days int) ([]models.PriceBar, error) {
	if err := c.checkKey(); err != nil {
		return nil, err
	}

	now := c.now()
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(ticker))
	params.Set("resolution", "D")
	params.Set("from", strconv.FormatInt(now.AddDate(0, 0, -days).Unix(), 10))
	params.Set("to", strconv.FormatInt(now.Unix(), 10))

	var candles candleResponse
	if err := c.get(ctx, "/stock/candle", params, &candles); err != nil {
		return nil, err
	}

	switch candles.S {
	case "ok":
	case "no_data", "":
		return nil, &common.NoDataError{Provider: ProviderName, Ticker: ticker}
	default:
		return nil, &common.ProviderError{Provider: ProviderName, Message: candles.S}
	}

	n := len(candles.T)
	if n == 0 {
		return nil, &common.NoDataError{Provider: ProviderName, Ticker: ticker}
	}
	if len(candles.O) != n || len(candles.H) != n || len(candles.L) != n || len(candles.C) != n {
		return nil, &common.ProviderError{Provider: ProviderName, Message: "candle arrays have mismatched lengths"}
	}

	bars := make([]models.PriceBar, n)
	for i, ts := range candles.T {
		bars[i] = models.PriceBar{
			Date:  time.Unix(ts, 0),
			Open:  candles.O[i],
			High:  candles.H[i],
			Low:   candles.L[i],
			Close: candles.C[i],
		}
		if i < len(candles.V) {
			bars[i].Volume = int64(candles.V[i])
		}
	}

	return models.NormalizeBars(bars), nil
}

type companyNews struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
}

// FetchNews fetches company news over the last req.Days days (default 14).
func (c *Client) FetchNews(ctx context.Context, req models.NewsRequest) ([]models.NewsItem, error) {
	if err := c.checkKey(); err != nil {
		return nil, err
	}
	if req.Ticker == "" {
		return nil, errors.New("finnhub company news requires a ticker")
	}

	days := req.Days
	if days <= 0 {
		days = DefaultNewsDays
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultNewsLimit
	}

	end := c.now()
	start := end.AddDate(0, 0, -days)

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(req.Ticker))
	params.Set("from", start.Format("2006-01-02"))
	params.Set("to", end.Format("2006-01-02"))

	var news []companyNews
	if err := c.get(ctx, "/company-news", params, &news); err != nil {
		return nil, err
	}

	if len(news) > limit {
		news = news[:limit]
	}

	items := make([]models.NewsItem, 0, len(news))
	for _, n := range news {
		item := models.NewsItem{
			Source:   ProviderName,
			Title:    n.Headline,
			Link:     n.URL,
			Category: n.Category,
		}
		if n.Datetime > 0 {
			item.Published = models.ParsePublished(strconv.FormatInt(n.Datetime, 10))
		}
		items = append(items, item)
	}
	return items, nil
}

// get performs a rate-limited GET request. Finnhub reports rejections as
// {"error": "..."} with either a 200 or a 4xx status.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("token", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Finnhub request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if msg := errorField(body); msg != "" {
		return &common.ProviderError{Provider: ProviderName, Message: msg}
	}
	if resp.StatusCode != http.StatusOK {
		return &common.ProviderError{
			Provider: ProviderName,
			Message:  fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func errorField(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return ""
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error
}

var (
	_ interfaces.PriceProvider = (*Client)(nil)
	_ interfaces.NewsProvider  = (*Client)(nil)
)
