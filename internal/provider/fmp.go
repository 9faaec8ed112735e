package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/quota"
)

var fmpIntervals = map[string]string{
	"1min":  "1min",
	"5min":  "5min",
	"15min": "15min",
	"30min": "30min",
	"1h":    "1hour",
	"1hour": "1hour",
}

// FMPAdapter fetches intraday candles from Financial Modeling Prep,
// the primary tier.
type FMPAdapter struct {
	BaseURL string
	apiKey  string
	client  *Client
	tracker *quota.Tracker
	logger  zerolog.Logger
}

// NewFMPAdapter creates the FMP adapter with its own usage tracker.
func NewFMPAdapter(apiKey string, client *Client, tracker *quota.Tracker) *FMPAdapter {
	return &FMPAdapter{
		BaseURL: "https://financialmodelingprep.com",
		apiKey:  apiKey,
		client:  client,
		tracker: tracker,
		logger:  log.With().Str("component", "provider").Str("provider", "fmp").Logger(),
	}
}

func (a *FMPAdapter) Name() string            { return "fmp" }
func (a *FMPAdapter) Tracker() *quota.Tracker { return a.tracker }

// fmpBar is FMP's historical-chart row, newest first.
type fmpBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func (a *FMPAdapter) Fetch(ctx context.Context, symbol, interval string, outputSize int) (model.CandleSeries, error) {
	if !a.tracker.TryAcquire() {
		return nil, ErrQuotaExhausted
	}

	endpoint := fmt.Sprintf("%s/api/v3/historical-chart/%s/%s?apikey=%s",
		a.BaseURL, mapInterval(fmpIntervals, interval, "5min"),
		url.PathEscape(symbol), url.QueryEscape(a.apiKey))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		a.tracker.Release()
		return nil, err
	}
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		// No response received, no quota burned.
		a.tracker.Release()
		return nil, fmt.Errorf("fmp fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fmp read body: %w", err)
	}

	var bars []fmpBar
	if err := json.Unmarshal(body, &bars); err != nil {
		// Error payloads come back as an object, not an array.
		var apiErr struct {
			ErrorMessage string `json:"Error Message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.ErrorMessage != "" {
			return nil, fmt.Errorf("fmp api error: %s", apiErr.ErrorMessage)
		}
		return nil, fmt.Errorf("fmp decode: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fmp: no data for %s", symbol)
	}

	// FMP returns newest first; keep the requested tail and flip.
	if len(bars) > outputSize {
		bars = bars[:outputSize]
	}
	series := make(model.CandleSeries, 0, len(bars))
	for i := len(bars) - 1; i >= 0; i-- {
		b := bars[i]
		series = append(series, model.Candle{
			Datetime: b.Date,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			Volume:   b.Volume,
		})
	}

	a.logger.Debug().Str("symbol", symbol).Int("bars", len(series)).Msg("fetched")
	return series, nil
}
