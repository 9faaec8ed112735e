package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"BreakoutSentinel/internal/quota"
	"BreakoutSentinel/internal/store"
)

func testClient() *Client {
	return NewClient(ClientOptions{Timeout: 2 * time.Second, RequestsPerSec: 100})
}

func testTracker(t *testing.T, maxPerDay int) *quota.Tracker {
	t.Helper()
	s := store.NewFileStore(filepath.Join(t.TempDir(), "usage.json"))
	return quota.NewTracker(s, "test", maxPerDay, 1000)
}

func TestFMPNormalizesNewestFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"date":"2026-03-02 10:10:00","open":101,"high":102,"low":100.5,"close":101.5,"volume":300000},
			{"date":"2026-03-02 10:05:00","open":100,"high":101,"low":99.5,"close":101,"volume":250000}
		]`))
	}))
	defer srv.Close()

	tracker := testTracker(t, 10)
	a := NewFMPAdapter("key", testClient(), tracker)
	a.BaseURL = srv.URL

	series, err := a.Fetch(context.Background(), "AAPL", "5min", 120)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2026-03-02 10:05:00", series[0].Datetime, "series must be oldest first")
	assert.Equal(t, 101.5, series[1].Close)
	assert.Equal(t, 9, tracker.Remaining(), "completed call must burn quota")
}

func TestFMPProviderErrorBurnsQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message":"Invalid API key"}`))
	}))
	defer srv.Close()

	tracker := testTracker(t, 10)
	a := NewFMPAdapter("bad", testClient(), tracker)
	a.BaseURL = srv.URL

	_, err := a.Fetch(context.Background(), "AAPL", "5min", 120)
	assert.Error(t, err)
	assert.Equal(t, 9, tracker.Remaining(), "a received error response still counts")
}

func TestFMPTransportFailureKeepsQuota(t *testing.T) {
	tracker := testTracker(t, 10)
	a := NewFMPAdapter("key", testClient(), tracker)
	a.BaseURL = "http://127.0.0.1:1" // nothing listens here

	_, err := a.Fetch(context.Background(), "AAPL", "5min", 120)
	assert.Error(t, err)
	assert.Equal(t, 10, tracker.Remaining(), "no response, no quota burned")
}

func TestFMPRefusesWhenExhausted(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := NewFMPAdapter("key", testClient(), testTracker(t, 0))
	a.BaseURL = srv.URL

	_, err := a.Fetch(context.Background(), "AAPL", "5min", 120)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.False(t, called, "exhausted adapter must not hit the network")
}

func TestFMPLastSlotNotOversubscribed(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.Write([]byte(`[{"date":"2026-03-02 10:05:00","open":100,"high":101,"low":99.5,"close":101,"volume":250000}]`))
	}))
	defer srv.Close()

	tracker := testTracker(t, 1)
	a := NewFMPAdapter("key", testClient(), tracker)
	a.BaseURL = srv.URL

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = a.Fetch(context.Background(), "AAPL", "5min", 120)
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&requests), "only one fetch may use the last slot")
	var exhausted int
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ErrQuotaExhausted)
			exhausted++
		}
	}
	assert.Equal(t, 3, exhausted)
	assert.Equal(t, 0, tracker.Remaining())
}

func TestTwelveDataDropsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","values":[
			{"datetime":"2026-03-02 10:00:00","open":"100","high":"101","low":"99","close":"100.5","volume":"250000"},
			{"datetime":"2026-03-02 10:05:00","open":"oops","high":"101","low":"99","close":"100.5","volume":"250000"},
			{"datetime":"2026-03-02 10:10:00","open":"100.5","high":"102","low":"100","close":"101.5","volume":"310000"}
		]}`))
	}))
	defer srv.Close()

	a := NewTwelveDataAdapter("key", testClient(), testTracker(t, 10))
	a.BaseURL = srv.URL

	series, err := a.Fetch(context.Background(), "AAPL", "5min", 120)
	require.NoError(t, err)
	require.Len(t, series, 2, "the single bad row is dropped, the rest kept")
	assert.Equal(t, "2026-03-02 10:00:00", series[0].Datetime)
	assert.Equal(t, "2026-03-02 10:10:00", series[1].Datetime)
}

func TestTwelveDataAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"symbol not found"}`))
	}))
	defer srv.Close()

	a := NewTwelveDataAdapter("key", testClient(), testTracker(t, 10))
	a.BaseURL = srv.URL

	_, err := a.Fetch(context.Background(), "NOPE", "5min", 120)
	assert.ErrorContains(t, err, "symbol not found")
}

func TestAlphaVantageParsesDynamicKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"Meta Data": {"2. Symbol": "AAPL"},
			"Time Series (5min)": {
				"2026-03-02 10:05:00": {"1. open":"100.5","2. high":"102","3. low":"100","4. close":"101.5","5. volume":"310000"},
				"2026-03-02 10:00:00": {"1. open":"100","2. high":"101","3. low":"99","4. close":"100.5","5. volume":"250000"}
			}
		}`))
	}))
	defer srv.Close()

	a := NewAlphaVantageAdapter("key", testClient(), testTracker(t, 10))
	a.BaseURL = srv.URL

	series, err := a.Fetch(context.Background(), "AAPL", "5min", 120)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2026-03-02 10:00:00", series[0].Datetime)
	assert.Equal(t, 310000.0, series[1].Volume)
}

func TestAlphaVantageThrottleNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note":"API call frequency exceeded"}`))
	}))
	defer srv.Close()

	a := NewAlphaVantageAdapter("key", testClient(), testTracker(t, 10))
	a.BaseURL = srv.URL

	_, err := a.Fetch(context.Background(), "AAPL", "5min", 120)
	assert.ErrorContains(t, err, "throttled")
}

func TestYahooSkipsNullBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1767348000,1767348300,1767348600],
			"indicators":{"quote":[{
				"open":[100,null,100.5],
				"high":[101,null,102],
				"low":[99,null,100],
				"close":[100.5,null,101.5],
				"volume":[250000,null,310000]
			}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	a := NewYahooAdapter(testClient(), testTracker(t, 1000000))
	a.BaseURL = srv.URL

	series, err := a.Fetch(context.Background(), "AAPL", "5min", 120)
	require.NoError(t, err)
	assert.Len(t, series, 2, "null bar is skipped")
}

func TestClientRefillsAtRequestsPerSec(t *testing.T) {
	c := NewClient(ClientOptions{RequestsPerSec: 5})
	assert.Equal(t, rate.Limit(5), c.limiter.Limit(), "steady rate must match the option, not 1/sec")
	assert.Equal(t, 5, c.limiter.Burst())
}

func TestIntervalMappingIsTotal(t *testing.T) {
	maps := []map[string]string{fmpIntervals, twelveIntervals, alphaIntervals, yahooIntervals}
	defaults := []string{"5min", "5min", "5min", "5m"}
	for i, m := range maps {
		got := mapInterval(m, "7min", defaults[i])
		assert.Equal(t, defaults[i], got, "unrecognized interval must resolve to the default")
		assert.NotEmpty(t, mapInterval(m, "1h", defaults[i]))
	}
}
