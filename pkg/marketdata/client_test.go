package marketdata_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoverde-api/pkg/market"
	"cryptoverde-api/pkg/market/coingecko"
	"cryptoverde-api/pkg/market/histcache"
	"cryptoverde-api/pkg/marketdata"
)

const chartBody = `{
	"prices": [[1714521600000, 100], [1714523400000, 110], [1714525200000, 105]],
	"total_volumes": [[1714521600000, 10], [1714525200000, 20]]
}`

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func chartServer(t *testing.T, status *atomic.Int32, hits *atomic.Int32) *coingecko.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if code := status.Load(); code != 0 {
			w.WriteHeader(int(code))
			return
		}
		_, _ = w.Write([]byte(chartBody))
	}))
	t.Cleanup(server.Close)
	return coingecko.NewClient(
		coingecko.WithBaseURL(server.URL+"/coins/markets"),
		coingecko.WithHistoricalURL(server.URL+"/coins/{id}/market_chart"),
		coingecko.WithHTTPClient(server.Client()),
	)
}

func TestFetchHistoricalServedFromCacheWithinTTL(t *testing.T) {
	var status, hits atomic.Int32
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cache := histcache.New(histcache.WithClock(clk.Now))
	client, err := marketdata.New(chartServer(t, &status, &hits), marketdata.WithCache(cache))
	require.NoError(t, err)

	first, err := client.FetchHistorical(context.Background(), "bitcoin", 5)
	require.NoError(t, err)
	require.Len(t, first, 2)

	clk.Advance(4 * time.Minute)
	second, err := client.FetchHistorical(context.Background(), "bitcoin", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "second call within TTL must not reach upstream")

	clk.Advance(2 * time.Minute)
	_, err = client.FetchHistorical(context.Background(), "bitcoin", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchHistoricalFailureKeepsExistingEntry(t *testing.T) {
	var status, hits atomic.Int32
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cache := histcache.New(histcache.WithClock(clk.Now))
	client, err := marketdata.New(chartServer(t, &status, &hits), marketdata.WithCache(cache))
	require.NoError(t, err)

	_, err = client.FetchHistorical(context.Background(), "bitcoin", 5)
	require.NoError(t, err)

	status.Store(http.StatusBadGateway)
	_, err = client.FetchHistorical(context.Background(), "ethereum", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, market.ErrTransientNetwork))

	_, ok := cache.Get(histcache.Key{CoinID: "ethereum", Days: 5})
	assert.False(t, ok)
	_, ok = cache.Get(histcache.Key{CoinID: "bitcoin", Days: 5})
	assert.True(t, ok, "a failed fetch must not evict other entries")
}

func TestFetchHistoricalRejectsBadKey(t *testing.T) {
	var status, hits atomic.Int32
	client, err := marketdata.New(chartServer(t, &status, &hits))
	require.NoError(t, err)
	_, err = client.FetchHistorical(context.Background(), "", 5)
	assert.True(t, errors.Is(err, market.ErrDataValidation))
	assert.Zero(t, hits.Load())
}

func TestFetchHistoricalWritesCacheFile(t *testing.T) {
	var status, hits atomic.Int32
	path := filepath.Join(t.TempDir(), "cache.json")
	client, err := marketdata.New(chartServer(t, &status, &hits), marketdata.WithCacheFile(path))
	require.NoError(t, err)
	_, err = client.FetchHistorical(context.Background(), "bitcoin", 5)
	require.NoError(t, err)

	restored, err := marketdata.New(chartServer(t, &status, &hits), marketdata.WithCacheFile(path))
	require.NoError(t, err)
	assert.Equal(t, 1, restored.LoadCacheFile(context.Background()))
	_, err = restored.FetchHistorical(context.Background(), "bitcoin", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCacheFileDropsExpiredEntries(t *testing.T) {
	var status, hits atomic.Int32
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	path := filepath.Join(t.TempDir(), "cache.bin")
	client, err := marketdata.New(chartServer(t, &status, &hits),
		marketdata.WithCache(histcache.New(histcache.WithClock(clk.Now))),
		marketdata.WithCacheFile(path))
	require.NoError(t, err)

	_, err = client.FetchHistorical(context.Background(), "bitcoin", 5)
	require.NoError(t, err)
	clk.Advance(6 * time.Minute)
	_, err = client.FetchHistorical(context.Background(), "ethereum", 5)
	require.NoError(t, err)

	assert.Equal(t, 1, client.Cache().Len())
	restored, err := marketdata.New(chartServer(t, &status, &hits), marketdata.WithCacheFile(path))
	require.NoError(t, err)
	assert.Equal(t, 1, restored.LoadCacheFile(context.Background()))
}

func TestInvalidateForcesUpstreamFetch(t *testing.T) {
	var status, hits atomic.Int32
	client, err := marketdata.New(chartServer(t, &status, &hits))
	require.NoError(t, err)

	_, err = client.FetchHistorical(context.Background(), "bitcoin", 5)
	require.NoError(t, err)
	client.Invalidate(" bitcoin ", 5)
	_, err = client.FetchHistorical(context.Background(), "bitcoin", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

type stubSource struct {
	records []market.RawRecord
	err     error
	calls   atomic.Int32
	chartFn func() (*market.Chart, error)
}

func (s *stubSource) FetchMarkets(context.Context) ([]market.RawRecord, error) {
	s.calls.Add(1)
	return s.records, s.err
}

func (s *stubSource) FetchMarketChart(context.Context, string, int) (*market.Chart, error) {
	s.calls.Add(1)
	return s.chartFn()
}

type recordingSink struct {
	payloads []any
	err      error
}

func (r *recordingSink) RecordRaw(_ context.Context, _ time.Time, payload any) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.payloads = append(r.payloads, payload)
	return "raw.json", nil
}

type countingObserver struct {
	mu       sync.Mutex
	requests map[string]int
	failures int
	hits     int
	misses   int
}

func (o *countingObserver) UpstreamRequest(op string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.requests == nil {
		o.requests = map[string]int{}
	}
	o.requests[op]++
	if err != nil {
		o.failures++
	}
}

func (o *countingObserver) CacheLookup(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func TestFetchSnapshotAuditsPayload(t *testing.T) {
	source := &stubSource{records: []market.RawRecord{{"id": "bitcoin"}}}
	sink := &recordingSink{}
	obs := &countingObserver{}
	client, err := marketdata.New(source, marketdata.WithAuditSink(sink), marketdata.WithObserver(obs))
	require.NoError(t, err)

	records, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	require.Len(t, sink.payloads, 1)
	assert.Equal(t, 1, obs.requests[marketdata.OpSnapshot])
}

func TestFetchSnapshotAuditFailureIsNotPropagated(t *testing.T) {
	source := &stubSource{records: []market.RawRecord{{"id": "bitcoin"}}}
	client, err := marketdata.New(source, marketdata.WithAuditSink(&recordingSink{err: errors.New("disk full")}))
	require.NoError(t, err)

	records, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFetchSnapshotClassifiesUnknownErrors(t *testing.T) {
	source := &stubSource{err: errors.New("boom")}
	sink := &recordingSink{}
	client, err := marketdata.New(source, marketdata.WithAuditSink(sink))
	require.NoError(t, err)

	_, err = client.FetchSnapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, market.ErrTransientNetwork))
	assert.Empty(t, sink.payloads, "failed fetches are not audited")
}

func TestFetchHistoricalEmptySeriesIsNotCached(t *testing.T) {
	source := &stubSource{chartFn: func() (*market.Chart, error) { return &market.Chart{}, nil }}
	obs := &countingObserver{}
	client, err := marketdata.New(source, marketdata.WithObserver(obs))
	require.NoError(t, err)

	bars, err := client.FetchHistorical(context.Background(), "newcoin", 1)
	require.NoError(t, err)
	assert.Empty(t, bars)
	assert.Zero(t, client.Cache().Len())
	assert.Equal(t, 1, obs.misses)
}

func TestFetchHistoricalReturnsIndependentCopies(t *testing.T) {
	source := &stubSource{chartFn: func() (*market.Chart, error) {
		return &market.Chart{Prices: []market.Sample{{Time: time.Unix(1714521600, 0), Value: 5}}}, nil
	}}
	client, err := marketdata.New(source)
	require.NoError(t, err)

	first, err := client.FetchHistorical(context.Background(), "x", 1)
	require.NoError(t, err)
	first[0].Close = -1
	second, err := client.FetchHistorical(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, second[0].Close)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestNewRequiresSource(t *testing.T) {
	_, err := marketdata.New(nil)
	assert.Error(t, err)
}

func TestFetchHistoricalSharedFetchSurvivesCancelledCaller(t *testing.T) {
	var hits atomic.Int32
	reached := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case reached <- struct{}{}:
		default:
		}
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(chartBody))
	}))
	t.Cleanup(server.Close)
	source := coingecko.NewClient(
		coingecko.WithHistoricalURL(server.URL+"/coins/{id}/market_chart"),
		coingecko.WithHTTPClient(server.Client()),
	)
	client, err := marketdata.New(source)
	require.NoError(t, err)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = client.FetchHistorical(ctxA, "bitcoin", 5)
	}()
	<-reached

	var barsB []market.Bar
	var errB error
	go func() {
		defer wg.Done()
		barsB, errB = client.FetchHistorical(context.Background(), "bitcoin", 5)
	}()
	time.Sleep(100 * time.Millisecond)
	cancelA()
	wg.Wait()

	require.NoError(t, errB)
	assert.Len(t, barsB, 2)
	assert.Equal(t, int32(1), hits.Load())
}
