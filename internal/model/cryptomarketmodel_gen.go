// Code modeled on goctl output. Schema changes go through schema.go.

package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var (
	cryptoMarketFieldNames = []string{
		"coin_id", "symbol", "name", "current_price", "market_cap", "total_volume",
		"price_change_24h", "market_cap_rank", "volatility_score", "extracted_at",
	}
	cryptoMarketRows = strings.Join(cryptoMarketFieldNames, ",")
)

type (
	cryptoMarketModel interface {
		FindAll(ctx context.Context) ([]*CryptoMarket, error)
		Upsert(ctx context.Context, session sqlx.Session, data *CryptoMarket) error
		Count(ctx context.Context) (int64, error)
	}

	defaultCryptoMarketModel struct {
		conn    sqlx.SqlConn
		table   string
		dialect Dialect
	}

	// CryptoMarket is one row of the crypto_market table. ExtractedAt is epoch milliseconds.
	CryptoMarket struct {
		CoinID          string  `db:"coin_id"`
		Symbol          string  `db:"symbol"`
		Name            string  `db:"name"`
		CurrentPrice    float64 `db:"current_price"`
		MarketCap       int64   `db:"market_cap"`
		TotalVolume     int64   `db:"total_volume"`
		PriceChange24h  float64 `db:"price_change_24h"`
		MarketCapRank   int64   `db:"market_cap_rank"`
		VolatilityScore float64 `db:"volatility_score"`
		ExtractedAt     int64   `db:"extracted_at"`
	}
)

func newCryptoMarketModel(conn sqlx.SqlConn, dialect Dialect) *defaultCryptoMarketModel {
	return &defaultCryptoMarketModel{
		conn:    conn,
		table:   TableCryptoMarket,
		dialect: dialect,
	}
}

func (m *defaultCryptoMarketModel) FindAll(ctx context.Context) ([]*CryptoMarket, error) {
	query := fmt.Sprintf("select %s from %s order by extracted_at desc", cryptoMarketRows, m.table)
	var resp []*CryptoMarket
	if err := m.conn.QueryRowsCtx(ctx, &resp, query); err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *defaultCryptoMarketModel) Upsert(ctx context.Context, session sqlx.Session, data *CryptoMarket) error {
	query := fmt.Sprintf(`insert into %s (%s) values (%s)
on conflict (coin_id) do update set
    symbol = excluded.symbol,
    name = excluded.name,
    current_price = excluded.current_price,
    market_cap = excluded.market_cap,
    total_volume = excluded.total_volume,
    price_change_24h = excluded.price_change_24h,
    market_cap_rank = excluded.market_cap_rank,
    volatility_score = excluded.volatility_score,
    extracted_at = excluded.extracted_at`,
		m.table, cryptoMarketRows, m.dialect.Placeholders(len(cryptoMarketFieldNames)))
	if session == nil {
		session = m.conn
	}
	_, err := session.ExecCtx(ctx, query,
		data.CoinID, data.Symbol, data.Name, data.CurrentPrice, data.MarketCap, data.TotalVolume,
		data.PriceChange24h, data.MarketCapRank, data.VolatilityScore, data.ExtractedAt)
	return err
}

func (m *defaultCryptoMarketModel) Count(ctx context.Context) (int64, error) {
	var n int64
	query := fmt.Sprintf("select count(*) from %s", m.table)
	if err := m.conn.QueryRowCtx(ctx, &n, query); err != nil {
		return 0, err
	}
	return n, nil
}

func (m *defaultCryptoMarketModel) tableName() string {
	return m.table
}
