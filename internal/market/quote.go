package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/teemow/inboxdigest/internal/logging"
	"github.com/teemow/inboxdigest/internal/newsletter"
)

const (
	// NoFinancialData is reported for stories without a ticker.
	NoFinancialData = "No financial data"
	// PriceUnavailable is reported when the ticker exists but has no price.
	PriceUnavailable = "Price data not available."
	// DataError is reported for unknown tickers and failed lookups.
	DataError = "Invalid Ticker or Data Error"

	// DefaultBaseURL is the Yahoo Finance chart API.
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	defaultRequestsPerSecond = 2
	defaultTimeout           = 10 * time.Second
)

// Quoter returns the formatted market context of a ticker.
type Quoter interface {
	Quote(ctx context.Context, ticker string) string
}

// NoDataQuoter is used when market lookups are disabled.
type NoDataQuoter struct{}

// Quote always returns NoFinancialData.
func (NoDataQuoter) Quote(context.Context, string) string {
	return NoFinancialData
}

// YahooQuoter reads the last price and previous close from the Yahoo Finance
// chart endpoint.
type YahooQuoter struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  logging.Logger
}

// YahooOption configures a YahooQuoter.
type YahooOption func(*YahooQuoter)

// WithBaseURL points the quoter at another chart API host.
func WithBaseURL(u string) YahooOption {
	return func(q *YahooQuoter) { q.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(q *YahooQuoter) { q.client = c }
}

// WithRateLimit replaces the request rate limit.
func WithRateLimit(limit rate.Limit, burst int) YahooOption {
	return func(q *YahooQuoter) { q.limiter = rate.NewLimiter(limit, burst) }
}

// WithLogger sets the logger used for failed lookups.
func WithLogger(l logging.Logger) YahooOption {
	return func(q *YahooQuoter) { q.logger = l }
}

// NewYahooQuoter creates a quoter with sane defaults.
func NewYahooQuoter(opts ...YahooOption) *YahooQuoter {
	q := &YahooQuoter{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(defaultRequestsPerSecond, defaultRequestsPerSecond),
		logger:  logging.Discard(),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				ChartPreviousClose *float64 `json:"chartPreviousClose"`
				PreviousClose      *float64 `json:"previousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches ticker and formats its price and daily change.
func (q *YahooQuoter) Quote(ctx context.Context, ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" || ticker == newsletter.NotAvailable {
		return NoFinancialData
	}

	res, err := q.fetch(ctx, ticker)
	if err != nil {
		q.logger.Warn("market lookup failed", logging.Ticker(ticker), logging.Err(err))
		return DataError
	}
	if len(res.Chart.Result) == 0 {
		return DataError
	}

	meta := res.Chart.Result[0].Meta
	prev := meta.ChartPreviousClose
	if prev == nil {
		prev = meta.PreviousClose
	}
	if meta.RegularMarketPrice == nil || prev == nil || *prev == 0 {
		return PriceUnavailable
	}
	return FormatQuote(*meta.RegularMarketPrice, (*meta.RegularMarketPrice-*prev) / *prev * 100)
}

func (q *YahooQuoter) fetch(ctx context.Context, ticker string) (*chartResponse, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", q.baseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "inboxdigest")

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request chart: %w", err)
	}
	defer resp.Body.Close()

	var out chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode chart (status %d): %w", resp.StatusCode, err)
	}
	if out.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", out.Chart.Error.Code, out.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return &out, nil
}

// FormatQuote renders a price and percent change as "$950.00 (+1.50%)".
func FormatQuote(price, changePercent float64) string {
	return fmt.Sprintf("$%.2f (%+.2f%%)", price, changePercent)
}

// Lookup quotes every distinct ticker once. Missing tickers map to
// NoFinancialData without calling q.
func Lookup(ctx context.Context, q Quoter, tickers []string) map[string]string {
	out := make(map[string]string, len(tickers))
	for _, t := range tickers {
		key := strings.ToUpper(strings.TrimSpace(t))
		if _, done := out[key]; done {
			continue
		}
		if key == "" || key == newsletter.NotAvailable || key == "NA" {
			out[key] = NoFinancialData
			continue
		}
		out[key] = q.Quote(ctx, key)
	}
	return out
}
