package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// ErrNotFound marks a missing row; the cache node treats it as a placeholder miss.
var ErrNotFound = sqlx.ErrNotFound

// TableCryptoMarket holds one row per coin, the latest extracted state.
const TableCryptoMarket = "crypto_market"

// Dialect covers the placeholder differences between the supported drivers.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Placeholders returns a comma separated list of n bind parameters.
func (d Dialect) Placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.Placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

func schemaStatements(table string) []string {
	return []string{
		fmt.Sprintf(`create table if not exists %s (
    coin_id          text primary key,
    symbol           text not null,
    name             text not null,
    current_price    double precision not null default 0,
    market_cap       bigint not null default 0,
    total_volume     bigint not null default 0,
    price_change_24h double precision not null default 0,
    market_cap_rank  integer not null default 999,
    volatility_score double precision not null default 0,
    extracted_at     bigint not null
)`, table),
		fmt.Sprintf("create index if not exists idx_%s_extracted_at on %s (extracted_at desc)", table, table),
	}
}
