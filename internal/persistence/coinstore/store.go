package coinstore

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"cryptoverde-api/internal/model"
	"cryptoverde-api/pkg/market"
	"cryptoverde-api/pkg/store"
)

var _ store.Store = (*SQLStore)(nil)

// SQLStore persists coins in the crypto_market table.
type SQLStore struct {
	conn  sqlx.SqlConn
	model model.CryptoMarketModel
}

// NewSQLStore wraps conn. The schema is created on first use by EnsureSchema.
func NewSQLStore(conn sqlx.SqlConn, dialect model.Dialect) *SQLStore {
	return &SQLStore{conn: conn, model: model.NewCryptoMarketModel(conn, dialect)}
}

// EnsureSchema creates the table when missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if err := s.model.EnsureSchema(ctx); err != nil {
		return market.NewError(market.ErrPersistence, "coinstore: ensure schema", model.TableCryptoMarket, err)
	}
	return nil
}

// Upsert implements store.Store. The batch is applied in one transaction.
func (s *SQLStore) Upsert(ctx context.Context, coins []market.Coin) error {
	rows := make([]*model.CryptoMarket, 0, len(coins))
	for _, c := range coins {
		rows = append(rows, toRow(c))
	}
	if err := s.model.UpsertBatch(ctx, rows); err != nil {
		return market.NewError(market.ErrPersistence, "coinstore: upsert", model.TableCryptoMarket, err)
	}
	return nil
}

// SelectAll implements store.Store.
func (s *SQLStore) SelectAll(ctx context.Context) ([]market.Coin, error) {
	rows, err := s.model.FindAll(ctx)
	if err != nil {
		return nil, market.NewError(market.ErrPersistence, "coinstore: select all", model.TableCryptoMarket, err)
	}
	coins := make([]market.Coin, 0, len(rows))
	for _, r := range rows {
		coins = append(coins, fromRow(r))
	}
	return coins, nil
}

// Count reports the number of stored coins.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	n, err := s.model.Count(ctx)
	if err != nil {
		return 0, market.NewError(market.ErrPersistence, "coinstore: count", model.TableCryptoMarket, err)
	}
	return n, nil
}

func toRow(c market.Coin) *model.CryptoMarket {
	return &model.CryptoMarket{
		CoinID:          c.ID,
		Symbol:          c.Symbol,
		Name:            c.Name,
		CurrentPrice:    c.Price,
		MarketCap:       c.MarketCap,
		TotalVolume:     c.Volume24h,
		PriceChange24h:  c.PriceChangePct24h,
		MarketCapRank:   int64(c.MarketCapRank),
		VolatilityScore: c.VolatilityScore,
		ExtractedAt:     c.ExtractedAt.UTC().UnixMilli(),
	}
}

func fromRow(r *model.CryptoMarket) market.Coin {
	return market.Coin{
		ID:                r.CoinID,
		Symbol:            r.Symbol,
		Name:              r.Name,
		Price:             r.CurrentPrice,
		MarketCap:         r.MarketCap,
		Volume24h:         r.TotalVolume,
		PriceChangePct24h: r.PriceChange24h,
		MarketCapRank:     int(r.MarketCapRank),
		VolatilityScore:   r.VolatilityScore,
		ExtractedAt:       time.UnixMilli(r.ExtractedAt).UTC(),
	}
}
