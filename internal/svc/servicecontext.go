package svc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "cryptoverde-api/internal/cache"
	"cryptoverde-api/internal/config"
	"cryptoverde-api/internal/metrics"
	"cryptoverde-api/internal/model"
	"cryptoverde-api/internal/persistence/coinstore"
	"cryptoverde-api/pkg/analysis"
	"cryptoverde-api/pkg/features"
	"cryptoverde-api/pkg/journal"
	marketpkg "cryptoverde-api/pkg/market"
	_ "cryptoverde-api/pkg/market/coingecko"
	"cryptoverde-api/pkg/market/histcache"
	"cryptoverde-api/pkg/marketdata"
	"cryptoverde-api/pkg/pipeline"
	"cryptoverde-api/pkg/store"
)

// ServiceContext holds every long-lived component. It is built once per
// process and passed by handle.
type ServiceContext struct {
	Config config.Config

	Metrics      *metrics.Metrics
	Journal      *journal.Writer
	MarketData   *marketdata.Client
	Store        store.Store
	Gateway      *store.Gateway
	Analysis     *analysis.Engine
	Transformer  *features.Transformer
	Orchestrator *pipeline.Orchestrator
	Scheduler    *pipeline.Scheduler
}

// Option customises NewServiceContext.
type Option func(*options)

type options struct {
	source marketpkg.Source
	store  store.Store
	mirror store.Mirror
	now    func() time.Time
}

// WithSource replaces the upstream built from the market config.
func WithSource(source marketpkg.Source) Option {
	return func(o *options) { o.source = source }
}

// WithStore replaces the store selected by Store.Driver.
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// WithMirror replaces the Redis mirror.
func WithMirror(m store.Mirror) Option {
	return func(o *options) { o.mirror = m }
}

// WithClock sets the clock used for extraction timestamps and run records.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// NewServiceContext wires the pipeline and the read side from c.
func NewServiceContext(ctx context.Context, c config.Config, opts ...Option) (*ServiceContext, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	source := o.source
	if source == nil {
		if !c.Market.Loaded() {
			return nil, errors.New("svc: market config is required")
		}
		built, err := c.Market.Value.DefaultSource()
		if err != nil {
			return nil, fmt.Errorf("svc: build market source: %w", err)
		}
		source = built
	}

	writer, err := journal.NewWriter(c.ETL.RawDataDir)
	if err != nil {
		return nil, fmt.Errorf("svc: raw data dir: %w", err)
	}

	m := metrics.New()
	histCache := histcache.New(histcache.WithTTL(c.ETL.CacheTTL()), histcache.WithClock(o.now))
	client, err := marketdata.New(source,
		marketdata.WithCache(histCache),
		marketdata.WithAuditSink(writer),
		marketdata.WithCacheFile(c.ETL.CacheFile),
		marketdata.WithObserver(m),
		marketdata.WithClock(o.now),
	)
	if err != nil {
		return nil, fmt.Errorf("svc: market data client: %w", err)
	}
	client.LoadCacheFile(ctx)

	backing := o.store
	if backing == nil {
		backing, err = newStore(ctx, c.Store)
		if err != nil {
			return nil, err
		}
	}

	mirror := o.mirror
	if mirror == nil && c.HasRedis() {
		mirror, err = newMirror(c)
		if err != nil {
			// Redis is optional; the gateway works without a mirror.
			logx.WithContext(ctx).Errorf("svc: redis mirror disabled host=%s err=%v", c.Redis.Host, err)
		}
	}

	gateway := store.NewGateway(backing, mirror)
	engine := analysis.NewEngine(gateway)
	transformer := features.NewTransformer(o.now)
	orchestrator := pipeline.NewOrchestrator(client, transformer, gateway,
		pipeline.WithSummarizer(engine),
		pipeline.WithObserver(m),
		pipeline.WithClock(o.now),
	)
	scheduler := pipeline.NewScheduler(orchestrator, pipeline.SchedulerConfig{
		Interval:     c.ETL.Interval(),
		ErrorBackoff: c.ETL.ErrorBackoff(),
		RunOnStart:   c.ETL.RunOnStart,
	})

	return &ServiceContext{
		Config:       c,
		Metrics:      m,
		Journal:      writer,
		MarketData:   client,
		Store:        backing,
		Gateway:      gateway,
		Analysis:     engine,
		Transformer:  transformer,
		Orchestrator: orchestrator,
		Scheduler:    scheduler,
	}, nil
}

// MustNewServiceContext panics when wiring fails.
func MustNewServiceContext(ctx context.Context, c config.Config, opts ...Option) *ServiceContext {
	svcCtx, err := NewServiceContext(ctx, c, opts...)
	if err != nil {
		panic(err)
	}
	return svcCtx
}

func newStore(ctx context.Context, conf config.StoreConf) (store.Store, error) {
	switch conf.Driver {
	case config.DriverPostgres, config.DriverSQLite:
		s, err := coinstore.Open(ctx, conf)
		if err != nil {
			return nil, fmt.Errorf("svc: open store: %w", err)
		}
		return s, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func newMirror(c config.Config) (store.Mirror, error) {
	rds, err := redis.NewRedis(c.Redis)
	if err != nil {
		return nil, err
	}
	node := cache.NewNode(rds, syncx.NewSingleFlight(), cache.NewStat("coinstore"), model.ErrNotFound)
	return coinstore.NewMirror(node, cachekeys.NewTTLSet(c.TTL)), nil
}
