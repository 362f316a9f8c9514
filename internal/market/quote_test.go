package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newTestQuoter(t *testing.T, h http.HandlerFunc) (*YahooQuoter, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	q := NewYahooQuoter(
		WithBaseURL(srv.URL+"/"),
		WithHTTPClient(srv.Client()),
		WithRateLimit(rate.Inf, 1),
	)
	return q, &calls
}

func TestYahooQuoter_Quote(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "price and change",
			status: http.StatusOK,
			body:   `{"chart":{"result":[{"meta":{"regularMarketPrice":950,"chartPreviousClose":1000}}],"error":null}}`,
			want:   "$950.00 (-5.00%)",
		},
		{
			name:   "previous close fallback",
			status: http.StatusOK,
			body:   `{"chart":{"result":[{"meta":{"regularMarketPrice":101.5,"previousClose":100}}],"error":null}}`,
			want:   "$101.50 (+1.50%)",
		},
		{
			name:   "missing price",
			status: http.StatusOK,
			body:   `{"chart":{"result":[{"meta":{"chartPreviousClose":100}}],"error":null}}`,
			want:   PriceUnavailable,
		},
		{
			name:   "unknown ticker",
			status: http.StatusNotFound,
			body:   `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
			want:   DataError,
		},
		{
			name:   "garbage",
			status: http.StatusOK,
			body:   `not json`,
			want:   DataError,
		},
		{
			name:   "empty result",
			status: http.StatusOK,
			body:   `{"chart":{"result":[],"error":null}}`,
			want:   DataError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := newTestQuoter(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v8/finance/chart/NVDA", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			assert.Equal(t, tt.want, q.Quote(context.Background(), "nvda"))
		})
	}
}

func TestYahooQuoter_NoTicker(t *testing.T) {
	q, calls := newTestQuoter(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, NoFinancialData, q.Quote(context.Background(), "N/A"))
	assert.Equal(t, NoFinancialData, q.Quote(context.Background(), " "))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestYahooQuoter_Cancelled(t *testing.T) {
	q, _ := newTestQuoter(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, DataError, q.Quote(ctx, "AAPL"))
}

func TestFormatQuote(t *testing.T) {
	assert.Equal(t, "$950.00 (+1.50%)", FormatQuote(950, 1.5))
	assert.Equal(t, "$0.10 (+0.00%)", FormatQuote(0.1, 0))
}

type countingQuoter struct{ calls map[string]int }

func (c *countingQuoter) Quote(_ context.Context, ticker string) string {
	c.calls[ticker]++
	return "$1.00 (+0.00%)"
}

func TestLookup(t *testing.T) {
	q := &countingQuoter{calls: map[string]int{}}

	got := Lookup(context.Background(), q, []string{"NVDA", "nvda", "N/A", "", "MSFT"})

	assert.Equal(t, map[string]string{
		"NVDA": "$1.00 (+0.00%)",
		"MSFT": "$1.00 (+0.00%)",
		"N/A":  NoFinancialData,
		"":     NoFinancialData,
	}, got)
	assert.Equal(t, map[string]int{"NVDA": 1, "MSFT": 1}, q.calls)
	assert.Equal(t, NoFinancialData, NoDataQuoter{}.Quote(context.Background(), "NVDA"))
}
