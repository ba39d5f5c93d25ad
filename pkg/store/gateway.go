package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/pkg/market"
)

// Mirror receives the latest coin state after every committed upsert.
type Mirror interface {
	PublishLatest(ctx context.Context, coins []market.Coin) error
}

// Gateway validates writes and deduplicates reads over a Store.
type Gateway struct {
	store  Store
	mirror Mirror
}

// NewGateway wraps store. mirror may be nil.
func NewGateway(store Store, mirror Mirror) *Gateway {
	return &Gateway{store: store, mirror: mirror}
}

// Upsert stores coins keyed by id; the last record per id in the batch wins.
// Coins failing Valid are rejected before anything is written.
func (g *Gateway) Upsert(ctx context.Context, coins []market.Coin) error {
	const op = "store: upsert"
	if len(coins) == 0 {
		return nil
	}
	for i, c := range coins {
		if !c.Valid() {
			return market.NewError(market.ErrDataValidation, op, fmt.Sprintf("index=%d", i),
				errors.New("coin id, symbol and name are required"))
		}
	}
	batch := lastPerID(coins)
	if err := g.store.Upsert(ctx, batch); err != nil {
		if !errors.Is(err, market.ErrPersistence) {
			err = market.NewError(market.ErrPersistence, op, "", err)
		}
		logx.WithContext(ctx).Errorf("store: upsert coins=%d err=%v", len(batch), err)
		return err
	}
	if g.mirror != nil {
		if err := g.mirror.PublishLatest(ctx, batch); err != nil {
			logx.WithContext(ctx).Errorf("store: mirror latest coins=%d err=%v", len(batch), err)
		}
	}
	return nil
}

// Latest returns one row per coin id, the most recently extracted one. The
// result is sorted by market-cap rank, then id, and owned by the caller.
func (g *Gateway) Latest(ctx context.Context) ([]market.Coin, error) {
	rows, err := g.store.SelectAll(ctx)
	if err != nil {
		if !errors.Is(err, market.ErrPersistence) {
			err = market.NewError(market.ErrPersistence, "store: select all", "", err)
		}
		logx.WithContext(ctx).Errorf("store: select all err=%v", err)
		return nil, err
	}
	return Dedup(rows), nil
}

// Dedup keeps the newest row per id regardless of input order.
func Dedup(rows []market.Coin) []market.Coin {
	newest := make(map[string]market.Coin, len(rows))
	for _, r := range rows {
		if cur, ok := newest[r.ID]; !ok || r.ExtractedAt.After(cur.ExtractedAt) {
			newest[r.ID] = r
		}
	}
	out := make([]market.Coin, 0, len(newest))
	for _, c := range newest {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MarketCapRank != out[j].MarketCapRank {
			return out[i].MarketCapRank < out[j].MarketCapRank
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func lastPerID(coins []market.Coin) []market.Coin {
	index := make(map[string]int, len(coins))
	out := make([]market.Coin, 0, len(coins))
	for _, c := range coins {
		if i, ok := index[c.ID]; ok {
			out[i] = c
			continue
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}
