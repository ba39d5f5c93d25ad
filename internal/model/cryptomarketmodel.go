package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ CryptoMarketModel = (*customCryptoMarketModel)(nil)

type (
	// CryptoMarketModel is an interface to be customized, add more methods here,
	// and implement the added methods in customCryptoMarketModel.
	CryptoMarketModel interface {
		cryptoMarketModel
		UpsertBatch(ctx context.Context, rows []*CryptoMarket) error
		EnsureSchema(ctx context.Context) error
	}

	customCryptoMarketModel struct {
		*defaultCryptoMarketModel
	}
)

// NewCryptoMarketModel returns a model for the database table.
func NewCryptoMarketModel(conn sqlx.SqlConn, dialect Dialect) CryptoMarketModel {
	return &customCryptoMarketModel{
		defaultCryptoMarketModel: newCryptoMarketModel(conn, dialect),
	}
}

// UpsertBatch writes every row in one transaction; a failing row rolls back the batch.
func (m *customCryptoMarketModel) UpsertBatch(ctx context.Context, rows []*CryptoMarket) error {
	if len(rows) == 0 {
		return nil
	}
	return m.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		for _, row := range rows {
			if err := m.Upsert(ctx, session, row); err != nil {
				return fmt.Errorf("upsert %s: %w", row.CoinID, err)
			}
		}
		return nil
	})
}

// EnsureSchema creates the table and index when missing.
func (m *customCryptoMarketModel) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(m.tableName()) {
		if _, err := m.conn.ExecCtx(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema %s: %w", m.tableName(), err)
		}
	}
	return nil
}
