package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/quota"
)

var alphaIntervals = map[string]string{
	"1min":  "1min",
	"5min":  "5min",
	"15min": "15min",
	"30min": "30min",
	"1h":    "60min",
	"1hour": "60min",
}

// AlphaVantageAdapter fetches intraday candles from Alpha Vantage, the
// tertiary tier. The response keys the series under a dynamic
// "Time Series (Nmin)" field with numbered column names, so it is
// walked with gjson rather than a static struct.
type AlphaVantageAdapter struct {
	BaseURL string
	apiKey  string
	client  *Client
	tracker *quota.Tracker
	logger  zerolog.Logger
}

// NewAlphaVantageAdapter creates the Alpha Vantage adapter with its
// own usage tracker.
func NewAlphaVantageAdapter(apiKey string, client *Client, tracker *quota.Tracker) *AlphaVantageAdapter {
	return &AlphaVantageAdapter{
		BaseURL: "https://www.alphavantage.co",
		apiKey:  apiKey,
		client:  client,
		tracker: tracker,
		logger:  log.With().Str("component", "provider").Str("provider", "alphavantage").Logger(),
	}
}

func (a *AlphaVantageAdapter) Name() string            { return "alphavantage" }
func (a *AlphaVantageAdapter) Tracker() *quota.Tracker { return a.tracker }

func (a *AlphaVantageAdapter) Fetch(ctx context.Context, symbol, interval string, outputSize int) (model.CandleSeries, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("alphavantage: no api key configured")
	}
	if !a.tracker.TryAcquire() {
		return nil, ErrQuotaExhausted
	}

	native := mapInterval(alphaIntervals, interval, "5min")
	q := url.Values{}
	q.Set("function", "TIME_SERIES_INTRADAY")
	q.Set("symbol", symbol)
	q.Set("interval", native)
	q.Set("apikey", a.apiKey)
	q.Set("outputsize", "compact")
	endpoint := a.BaseURL + "/query?" + q.Encode()

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		a.tracker.Release()
		return nil, err
	}
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		a.tracker.Release()
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alphavantage read body: %w", err)
	}

	ts := gjson.GetBytes(body, fmt.Sprintf("Time Series (%s)", native))
	if !ts.Exists() {
		if note := gjson.GetBytes(body, "Note"); note.Exists() {
			return nil, fmt.Errorf("alphavantage throttled: %s", note.String())
		}
		return nil, fmt.Errorf("alphavantage: no time series for %s", symbol)
	}

	var series model.CandleSeries
	ts.ForEach(func(key, value gjson.Result) bool {
		c, err := parseCandle(
			key.String(),
			value.Get("1\\. open").String(),
			value.Get("2\\. high").String(),
			value.Get("3\\. low").String(),
			value.Get("4\\. close").String(),
			value.Get("5\\. volume").String(),
		)
		if err != nil {
			return true // drop the row, keep walking
		}
		series = append(series, c)
		return true
	})
	if len(series) == 0 {
		return nil, fmt.Errorf("alphavantage: no parsable rows for %s", symbol)
	}

	// The map comes newest first; normalize to ascending and trim.
	sort.Slice(series, func(i, j int) bool { return series[i].Datetime < series[j].Datetime })
	if len(series) > outputSize {
		series = series[len(series)-outputSize:]
	}

	a.logger.Debug().Str("symbol", symbol).Int("bars", len(series)).Msg("fetched")
	return series, nil
}
