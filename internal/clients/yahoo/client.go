// Package yahoo provides a client for the public Yahoo Finance chart API
package yahoo

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
	ProviderName     = "Yahoo Finance"
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultRateLimit = 2 // requests per second
)

// Client implements interfaces.PriceProvider over the v8 chart endpoint.
// No credential is needed.
type Client struct {
	baseURL    string
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

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock overrides the time source used to compute the date range
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: common.DefaultRequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Name() string { return ProviderName }


// chartResponse is the response structure from the chart API.
// Quote arrays contain nulls on holidays and half-formed bars.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"` // seconds east of UTC for the exchange
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetPrices queries the date range [today-days, today] at daily interval.
func (c *Client) GetPrices(ctx context.Context, ticker string, days int) ([]models.PriceBar, error) {
	today := truncateDay(c.now())
	start := today.AddDate(0, 0, -days)

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(today.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("includeAdjustedClose", "true")

	var chart chartResponse
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), params, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, &common.ProviderError{Provider: ProviderName, Message: chart.Chart.Error.Description}
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &common.NoDataError{Provider: ProviderName, Ticker: ticker}
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, cl := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || cl == nil {
			continue
		}
		bar := models.PriceBar{
			Date:  exchangeDay(ts, result.Meta.GMTOffset),
			Open:  *o,
			High:  *h,
			Low:   *l,
			Close: *cl,
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = int64(*v)
		}
		if a := at(adj, i); a != nil {
			v := *a
			bar.AdjustedClose = &v
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, &common.NoDataError{Provider: ProviderName, Ticker: ticker}
	}

	return models.NormalizeBars(bars), nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// exchangeDay returns the exchange-local calendar day of a bar timestamp.
// Bars are stamped at the local open, which is the previous UTC day east of UTC.
func exchangeDay(ts, gmtOffset int64) time.Time {
	local := time.Unix(ts+gmtOffset, 0).UTC()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo Finance request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// The chart API reports unknown symbols as 404 with a JSON error body
	if resp.StatusCode == http.StatusNotFound {
		var chart chartResponse
		if json.Unmarshal(body, &chart) == nil && chart.Chart.Error != nil {
			return &common.ProviderError{Provider: ProviderName, Message: chart.Chart.Error.Description}
		}
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

// Ensure Client implements PriceProvider
var _ interfaces.PriceProvider = (*Client)(nil)
