package coinstore

import (
	"context"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "cryptoverde-api/internal/cache"
	"cryptoverde-api/pkg/market"
	"cryptoverde-api/pkg/store"
)

var _ store.Mirror = (*Mirror)(nil)

// Setter is the subset of go-zero cache.Cache the mirror writes through.
type Setter interface {
	SetWithExpireCtx(ctx context.Context, key string, val any, expire time.Duration) error
}

// Mirror copies the latest committed coin states into Redis.
type Mirror struct {
	cache Setter
	ttl   cachekeys.TTLSet
}

// NewMirror returns nil when cache is nil so callers can pass it through unconditionally.
func NewMirror(cache Setter, ttl cachekeys.TTLSet) *Mirror {
	if cache == nil {
		return nil
	}
	return &Mirror{cache: cache, ttl: ttl}
}

type coinPayload struct {
	ID                string  `json:"coin_id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"current_price"`
	MarketCap         int64   `json:"market_cap"`
	Volume24h         int64   `json:"total_volume"`
	PriceChangePct24h float64 `json:"price_change_24h"`
	MarketCapRank     int     `json:"market_cap_rank"`
	VolatilityScore   float64 `json:"volatility_score"`
	ExtractedAt       int64   `json:"extracted_at"`
}

// PublishLatest writes every coin and the batch index. It keeps going after a
// failed key and returns the joined errors.
func (m *Mirror) PublishLatest(ctx context.Context, coins []market.Coin) error {
	coinTTL := m.ttlFor(cachekeys.FamilyCoinLatest)
	if coinTTL <= 0 || len(coins) == 0 {
		return nil
	}
	var errs []error
	ids := make([]string, 0, len(coins))
	for _, c := range coins {
		key := cachekeys.CoinLatestKey(c.ID)
		payload := coinPayload{
			ID:                c.ID,
			Symbol:            c.Symbol,
			Name:              c.Name,
			Price:             c.Price,
			MarketCap:         c.MarketCap,
			Volume24h:         c.Volume24h,
			PriceChangePct24h: c.PriceChangePct24h,
			MarketCapRank:     c.MarketCapRank,
			VolatilityScore:   c.VolatilityScore,
			ExtractedAt:       c.ExtractedAt.UTC().UnixMilli(),
		}
		if err := m.cache.SetWithExpireCtx(ctx, key, payload, coinTTL); err != nil {
			logx.WithContext(ctx).Errorf("coinstore: cache coin key=%s err=%v", key, err)
			errs = append(errs, err)
			continue
		}
		ids = append(ids, c.ID)
	}
	if indexTTL := m.ttl.For(cachekeys.FamilyCoinIndex); len(ids) > 0 && indexTTL > 0 {
		key := cachekeys.CoinIndexKey()
		if err := m.cache.SetWithExpireCtx(ctx, key, ids, indexTTL); err != nil {
			logx.WithContext(ctx).Errorf("coinstore: cache coin index key=%s err=%v", key, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Mirror) ttlFor(f cachekeys.Family) time.Duration {
	if m == nil || m.cache == nil {
		return 0
	}
	return m.ttl.For(f)
}
