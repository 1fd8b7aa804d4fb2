// Package alphavantage provides a client for the Alpha Vantage query API
package alphavantage

import (
	"context"
	"encoding/json"
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
	ProviderName     = "Alpha Vantage"
	CredentialEnv    = "ALPHAVANTAGE_API_KEY"
	DefaultBaseURL   = "https://www.alphavantage.co"
	DefaultRateLimit = 5 // requests per minute on the free tier
	DefaultNewsLimit = 30

	// Days beyond which the full history is requested instead of the last 100 bars.
	compactMaxDays = 100

	seriesKey = "Time Series (Daily)"
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
		c.limiter = perMinuteLimiter(requestsPerMinute)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock overrides the time source used for the history cutoff
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

func perMinuteLimiter(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

// NewClient creates a new Alpha Vantage client. An empty apiKey is accepted;
// every call then fails with a ConfigurationError before touching the network.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: common.DefaultRequestTimeout,
		},
		limiter: perMinuteLimiter(DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

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

// GetPrices fetches TIME_SERIES_DAILY_ADJUSTED and keeps bars on or after
// today-(days+2).
func (c *Client) GetPrices(ctx context.Context, ticker string, days int) ([]models.PriceBar, error) {
	if err := c.checkKey(); err != nil {
		return nil, err
	}

	outputSize := "compact"
	if days > compactMaxDays {
		outputSize = "full"
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	params.Set("symbol", strings.ToUpper(ticker))
	params.Set("outputsize", outputSize)
	params.Set("datatype", "json")

	raw, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	var series map[string]dailyBar
	if data, ok := raw[seriesKey]; ok {
		if err := json.Unmarshal(data, &series); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", seriesKey, err)
		}
	}
	if len(series) == 0 {
		if msg := providerMessage(raw); msg != "" {
			return nil, &common.ProviderError{Provider: ProviderName, Message: msg}
		}
		return nil, &common.NoDataError{Provider: ProviderName, Ticker: ticker}
	}

	today := c.now().UTC().Truncate(24 * time.Hour)
	cutoff := today.AddDate(0, 0, -(days + 2))

	bars := make([]models.PriceBar, 0, len(series))
	for day, v := range series {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			c.logger.Debug().Str("date", day).Msg("Skipping unparseable Alpha Vantage date")
			continue
		}
		if date.Before(cutoff) {
			continue
		}
		bar, err := v.toBar(date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse bar %s: %w", day, err)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, &common.NoDataError{Provider: ProviderName, Ticker: ticker}
	}

	return models.NormalizeBars(bars), nil
}

// dailyBar is one entry of the daily adjusted series; every value is a string.
type dailyBar struct {
	Open          string `json:"1. open"`
	High          string `json:"2. high"`
	Low           string `json:"3. low"`
	Close         string `json:"4. close"`
	AdjustedClose string `json:"5. adjusted close"`
	Volume        string `json:"6. volume"`
}

func (b dailyBar) toBar(date time.Time) (models.PriceBar, error) {
	var (
		bar models.PriceBar
		err error
	)
	bar.Date = date
	if bar.Open, err = strconv.ParseFloat(b.Open, 64); err != nil {
		return bar, err
	}
	if bar.High, err = strconv.ParseFloat(b.High, 64); err != nil {
		return bar, err
	}
	if bar.Low, err = strconv.ParseFloat(b.Low, 64); err != nil {
		return bar, err
	}
	if bar.Close, err = strconv.ParseFloat(b.Close, 64); err != nil {
		return bar, err
	}
	if b.AdjustedClose != "" {
		adj, err := strconv.ParseFloat(b.AdjustedClose, 64)
		if err != nil {
			return bar, err
		}
		bar.AdjustedClose = &adj
	}
	if b.Volume != "" {
		if bar.Volume, err = strconv.ParseInt(b.Volume, 10, 64); err != nil {
			return bar, err
		}
	}
	return bar, nil
}

// FetchNews fetches the latest sentiment-tagged headlines for the ticker.
func (c *Client) FetchNews(ctx context.Context, req models.NewsRequest) ([]models.NewsItem, error) {
	if err := c.checkKey(); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultNewsLimit
	}

	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	if req.Ticker != "" {
		params.Set("tickers", strings.ToUpper(req.Ticker))
	}
	params.Set("sort", "LATEST")
	params.Set("limit", strconv.Itoa(limit))

	raw, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	var feed []newsEntry
	if data, ok := raw["feed"]; ok {
		if err := json.Unmarshal(data, &feed); err != nil {
			return nil, fmt.Errorf("failed to decode feed: %w", err)
		}
	}
	if len(feed) == 0 {
		msg := providerMessage(raw)
		if msg == "" {
			msg = "No news returned."
		}
		return nil, &common.ProviderError{Provider: ProviderName, Message: msg}
	}

	items := make([]models.NewsItem, 0, len(feed))
	for _, e := range feed {
		item := models.NewsItem{
			Source: ProviderName,
			Title:  e.Title,
			Link:   e.URL,
		}
		if e.TimePublished != "" {
			item.Published = models.ParsePublished(e.TimePublished)
		}
		if e.OverallSentimentScore != nil {
			s := *e.OverallSentimentScore
			item.Sentiment = &s
		}
		items = append(items, item)
	}
	return items, nil
}

type newsEntry struct {
	Title                 string   `json:"title"`
	URL                   string   `json:"url"`
	TimePublished         string   `json:"time_published"`
	OverallSentimentScore *float64 `json:"overall_sentiment_score"`
}

// providerMessage extracts the rejection text Alpha Vantage embeds in an
// otherwise successful response.
func providerMessage(raw map[string]json.RawMessage) string {
	for _, key := range []string{"Note", "Information", "Error Message"} {
		data, ok := raw[key]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(data, &msg); err == nil && msg != "" {
			return msg
		}
	}
	return ""
}

// query performs a rate-limited GET against /query and returns the top-level
// JSON object undecoded.
func (c *Client) query(ctx context.Context, params url.Values) (map[string]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	function := params.Get("function")
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("function", function).Msg("Alpha Vantage request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &common.ProviderError{
			Provider: ProviderName,
			Message:  fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return raw, nil
}

var (
	_ interfaces.PriceProvider = (*Client)(nil)
	_ interfaces.NewsProvider  = (*Client)(nil)
)
