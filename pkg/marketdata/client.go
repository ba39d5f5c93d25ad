// Package marketdata fetches current snapshots and historical series from the
// upstream source. It owns the historical cache and the audit copy of each
// raw snapshot.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"

	"cryptoverde-api/pkg/market"
	"cryptoverde-api/pkg/market/histcache"
	"cryptoverde-api/pkg/market/ohlc"
)

// Upstream operation names reported to the Observer.
const (
	OpSnapshot   = "snapshot"
	OpHistorical = "historical"
)

// Observer receives call outcomes for instrumentation.
type Observer interface {
	UpstreamRequest(op string, d time.Duration, err error)
	CacheLookup(hit bool)
}

type nopObserver struct{}

func (nopObserver) UpstreamRequest(string, time.Duration, error) {}
func (nopObserver) CacheLookup(bool)                             {}

// Client is constructed once per process and shared by the scheduled and
// on-demand paths.
type Client struct {
	source    market.Source
	cache     *histcache.Cache
	audit     market.AuditSink
	cacheFile string
	observer  Observer
	flight    syncx.SingleFlight
	now       func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithCache replaces the default historical cache.
func WithCache(cache *histcache.Cache) Option {
	return func(c *Client) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithAuditSink sets where raw snapshot payloads are copied.
func WithAuditSink(sink market.AuditSink) Option {
	return func(c *Client) { c.audit = sink }
}

// WithCacheFile enables snapshotting the historical cache to path after each store.
func WithCacheFile(path string) Option {
	return func(c *Client) { c.cacheFile = strings.TrimSpace(path) }
}

// WithObserver installs an instrumentation observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithClock injects the clock used to stamp audit copies.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Client over source.
func New(source market.Source, opts ...Option) (*Client, error) {
	if source == nil {
		return nil, errors.New("marketdata: source is required")
	}
	c := &Client{
		source:   source,
		cache:    histcache.New(),
		observer: nopObserver{},
		flight:   syncx.NewSingleFlight(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Cache exposes the historical cache.
func (c *Client) Cache() *histcache.Cache { return c.cache }

// FetchSnapshot fetches the current ranked coin list. The raw payload is copied
// to the audit sink on success; audit failures are logged only.
func (c *Client) FetchSnapshot(ctx context.Context) ([]market.RawRecord, error) {
	started := time.Now()
	records, err := c.source.FetchMarkets(ctx)
	c.observer.UpstreamRequest(OpSnapshot, time.Since(started), err)
	if err != nil {
		if !market.Classified(err) {
			err = market.NewError(market.ErrTransientNetwork, "marketdata: fetch snapshot", "", err)
		}
		logx.WithContext(ctx).Errorf("marketdata: fetch snapshot err=%v", err)
		return nil, err
	}
	c.recordAudit(ctx, records)
	return records, nil
}

func (c *Client) recordAudit(ctx context.Context, records []market.RawRecord) {
	if c.audit == nil {
		return
	}
	path, err := c.audit.RecordRaw(ctx, c.now(), records)
	if err != nil {
		logx.WithContext(ctx).Errorf("marketdata: audit snapshot records=%d err=%v", len(records), err)
		return
	}
	logx.WithContext(ctx).Debugf("marketdata: audit snapshot path=%s records=%d", path, len(records))
}

// FetchHistorical returns OHLCV bars for coinID over windowDays. Fresh cache
// entries are served without an upstream call; concurrent misses for the same
// key share one request. A failed fetch leaves any existing entry untouched.
func (c *Client) FetchHistorical(ctx context.Context, coinID string, windowDays int) ([]market.Bar, error) {
	coinID = strings.TrimSpace(coinID)
	key := histcache.Key{CoinID: coinID, Days: windowDays}
	if coinID == "" || windowDays <= 0 {
		return nil, market.NewError(market.ErrDataValidation, "marketdata: fetch historical", key.String(),
			fmt.Errorf("coin id and positive window are required"))
	}
	if bars, ok := c.cache.Get(key); ok {
		c.observer.CacheLookup(true)
		return bars, nil
	}
	c.observer.CacheLookup(false)

	val, err := c.flight.Do(key.String(), func() (any, error) {
		if bars, ok := c.cache.Get(key); ok {
			return bars, nil
		}
		// Shared by every waiter, so one caller leaving must not cancel it.
		return c.fetchAndStore(context.WithoutCancel(ctx), key)
	})
	if err != nil {
		return nil, err
	}
	return market.CloneBars(val.([]market.Bar)), nil
}

// Invalidate drops the cached series for coinID and windowDays so the next
// FetchHistorical goes upstream.
func (c *Client) Invalidate(coinID string, windowDays int) {
	c.cache.Invalidate(histcache.Key{CoinID: strings.TrimSpace(coinID), Days: windowDays})
}

func (c *Client) fetchAndStore(ctx context.Context, key histcache.Key) ([]market.Bar, error) {
	started := time.Now()
	chart, err := c.source.FetchMarketChart(ctx, key.CoinID, key.Days)
	c.observer.UpstreamRequest(OpHistorical, time.Since(started), err)
	if err != nil {
		if !market.Classified(err) {
			err = market.NewError(market.ErrTransientNetwork, "marketdata: fetch historical", key.String(), err)
		}
		logx.WithContext(ctx).Errorf("marketdata: fetch historical key=%s err=%v", key, err)
		return nil, err
	}
	if chart == nil {
		chart = &market.Chart{}
	}
	var volumes []market.Sample
	if chart.HasVolumes {
		volumes = chart.Volumes
	}
	bars := ohlc.Resample(chart.Prices, volumes, key.Days)
	if len(bars) == 0 {
		logx.WithContext(ctx).Infof("marketdata: empty historical series key=%s", key)
		return bars, nil
	}
	c.cache.Put(key, bars)
	c.persistCache(ctx)
	return bars, nil
}

func (c *Client) persistCache(ctx context.Context) {
	if c.cacheFile == "" {
		return
	}
	if n := c.cache.Purge(); n > 0 {
		logx.WithContext(ctx).Debugf("marketdata: purged expired cache entries=%d", n)
	}
	if err := c.cache.Save(c.cacheFile); err != nil {
		logx.WithContext(ctx).Errorf("marketdata: save cache file path=%s err=%v", c.cacheFile, err)
	}
}

// LoadCacheFile restores cache entries saved by a previous process. Failures are logged.
func (c *Client) LoadCacheFile(ctx context.Context) int {
	if c.cacheFile == "" {
		return 0
	}
	n, err := c.cache.Load(c.cacheFile)
	if err != nil {
		logx.WithContext(ctx).Errorf("marketdata: load cache file path=%s err=%v", c.cacheFile, err)
		return 0
	}
	if n > 0 {
		logx.WithContext(ctx).Infof("marketdata: loaded cache file path=%s entries=%d", c.cacheFile, n)
	}
	return n
}
