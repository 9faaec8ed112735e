package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/quota"
)

var yahooIntervals = map[string]string{
	"1min":  "1m",
	"5min":  "5m",
	"15min": "15m",
	"30min": "30m",
	"1h":    "1h",
	"1hour": "1h",
}

// YahooAdapter fetches candles from the Yahoo Finance chart API. It is
// the free final tier, so its quota ceilings are effectively unlimited,
// but it still carries a tracker so usage shows up in the stats.
type YahooAdapter struct {
	BaseURL string
	client  *Client
	tracker *quota.Tracker
	logger  zerolog.Logger
}

// NewYahooAdapter creates the Yahoo Finance adapter.
func NewYahooAdapter(client *Client, tracker *quota.Tracker) *YahooAdapter {
	return &YahooAdapter{
		BaseURL: "https://query1.finance.yahoo.com",
		client:  client,
		tracker: tracker,
		logger:  log.With().Str("component", "provider").Str("provider", "yahoo").Logger(),
	}
}

func (a *YahooAdapter) Name() string            { return "yahoo" }
func (a *YahooAdapter) Tracker() *quota.Tracker { return a.tracker }

// yahooChart is the response structure from the Yahoo chart API.
// Numeric arrays may contain nulls for halted or missing bars.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// rangeFor picks a Yahoo lookback range wide enough for the interval.
func rangeFor(interval string) string {
	switch interval {
	case "1min", "5min":
		return "5d"
	case "15min":
		return "1mo"
	default:
		return "3mo"
	}
}

func (a *YahooAdapter) Fetch(ctx context.Context, symbol, interval string, outputSize int) (model.CandleSeries, error) {
	if !a.tracker.TryAcquire() {
		return nil, ErrQuotaExhausted
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		a.BaseURL, url.PathEscape(symbol),
		mapInterval(yahooIntervals, interval, "5m"), rangeFor(interval))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		a.tracker.Release()
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		a.tracker.Release()
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data for %s", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	series := make(model.CandleSeries, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			break
		}
		o, ok1 := toFloat(quote.Open[i])
		h, ok2 := toFloat(quote.High[i])
		l, ok3 := toFloat(quote.Low[i])
		c, ok4 := toFloat(quote.Close[i])
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue // null bar (halt, holiday)
		}
		v, _ := toFloat(quote.Volume[i])
		series = append(series, model.Candle{
			Datetime: time.Unix(ts, 0).Format("2006-01-02 15:04:05"),
			Open:     o,
			High:     h,
			Low:      l,
			Close:    c,
			Volume:   v,
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("yahoo: no parsable rows for %s", symbol)
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Datetime < series[j].Datetime })
	if len(series) > outputSize {
		series = series[len(series)-outputSize:]
	}

	a.logger.Debug().Str("symbol", symbol).Int("bars", len(series)).Msg("fetched")
	return series, nil
}
