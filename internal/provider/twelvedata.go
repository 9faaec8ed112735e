package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/quota"
)

var twelveIntervals = map[string]string{
	"1min":  "1min",
	"5min":  "5min",
	"15min": "15min",
	"30min": "30min",
	"1h":    "1h",
	"1hour": "1h",
}

// TwelveDataAdapter fetches candles from the Twelve Data time_series
// endpoint, the secondary tier.
type TwelveDataAdapter struct {
	BaseURL string
	apiKey  string
	client  *Client
	tracker *quota.Tracker
	logger  zerolog.Logger
}

// NewTwelveDataAdapter creates the Twelve Data adapter with its own
// usage tracker.
func NewTwelveDataAdapter(apiKey string, client *Client, tracker *quota.Tracker) *TwelveDataAdapter {
	return &TwelveDataAdapter{
		BaseURL: "https://api.twelvedata.com",
		apiKey:  apiKey,
		client:  client,
		tracker: tracker,
		logger:  log.With().Str("component", "provider").Str("provider", "twelvedata").Logger(),
	}
}

func (a *TwelveDataAdapter) Name() string            { return "twelvedata" }
func (a *TwelveDataAdapter) Tracker() *quota.Tracker { return a.tracker }

// twelveResponse carries values with string-encoded numerics.
type twelveResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}

func (a *TwelveDataAdapter) Fetch(ctx context.Context, symbol, interval string, outputSize int) (model.CandleSeries, error) {
	if !a.tracker.TryAcquire() {
		return nil, ErrQuotaExhausted
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", mapInterval(twelveIntervals, interval, "5min"))
	q.Set("outputsize", strconv.Itoa(outputSize))
	q.Set("apikey", a.apiKey)
	q.Set("order", "ASC")
	endpoint := a.BaseURL + "/time_series?" + q.Encode()

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		a.tracker.Release()
		return nil, err
	}
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		a.tracker.Release()
		return nil, fmt.Errorf("twelvedata fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("twelvedata read body: %w", err)
	}

	var data twelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("twelvedata decode: %w", err)
	}
	if data.Status == "error" {
		return nil, fmt.Errorf("twelvedata api error: %s", data.Message)
	}
	if len(data.Values) == 0 {
		return nil, fmt.Errorf("twelvedata: no data for %s", symbol)
	}

	series := make(model.CandleSeries, 0, len(data.Values))
	for _, v := range data.Values {
		c, err := parseCandle(v.Datetime, v.Open, v.High, v.Low, v.Close, v.Volume)
		if err != nil {
			// Drop the one malformed row, keep the rest.
			continue
		}
		series = append(series, c)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("twelvedata: no parsable rows for %s", symbol)
	}

	// The API is asked for ASC order; enforce it anyway.
	sort.Slice(series, func(i, j int) bool { return series[i].Datetime < series[j].Datetime })

	a.logger.Debug().Str("symbol", symbol).Int("bars", len(series)).Msg("fetched")
	return series, nil
}

// parseCandle converts string-encoded numeric fields, failing on any
// unparsable one. An absent volume is zero, not an error.
func parseCandle(datetime, open, high, low, closePx, volume string) (model.Candle, error) {
	o, err := strconv.ParseFloat(open, 64)
	if err != nil {
		return model.Candle{}, err
	}
	h, err := strconv.ParseFloat(high, 64)
	if err != nil {
		return model.Candle{}, err
	}
	l, err := strconv.ParseFloat(low, 64)
	if err != nil {
		return model.Candle{}, err
	}
	c, err := strconv.ParseFloat(closePx, 64)
	if err != nil {
		return model.Candle{}, err
	}
	var v float64
	if volume != "" {
		if v, err = strconv.ParseFloat(volume, 64); err != nil {
			return model.Candle{}, err
		}
	}
	return model.Candle{Datetime: datetime, Open: o, High: h, Low: l, Close: c, Volume: v}, nil
}
