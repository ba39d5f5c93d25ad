// Package features turns raw upstream records into typed coins and builds the
// per-coin feature vectors consumed by price models.
package features

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/pkg/market"
)

const (
	defaultSymbol = "UNKNOWN"
	defaultName   = "Unknown"
)

var errMissingID = errors.New("record has no id")

// Transformer normalizes raw snapshot records.
type Transformer struct {
	now func() time.Time
}

// NewTransformer returns a Transformer stamping records with now (time.Now when nil).
func NewTransformer(now func() time.Time) *Transformer {
	if now == nil {
		now = time.Now
	}
	return &Transformer{now: now}
}

// Transform converts raw records into coins, preserving input order. Records
// without an id are skipped and counted; the batch is never aborted.
func (t *Transformer) Transform(ctx context.Context, raw []market.RawRecord) ([]market.Coin, int) {
	if len(raw) == 0 {
		return []market.Coin{}, 0
	}
	extractedAt := t.now().UTC()
	coins := make([]market.Coin, 0, len(raw))
	skipped := 0
	for i, rec := range raw {
		coin, err := toCoin(rec, extractedAt)
		if err != nil {
			skipped++
			verr := market.NewError(market.ErrDataValidation, "features: transform", fmt.Sprintf("index=%d", i), err)
			logx.WithContext(ctx).Infof("features: skip record name=%v err=%v", rec["name"], verr)
			continue
		}
		coins = append(coins, coin)
	}
	logx.WithContext(ctx).Infof("features: transformed coins=%d skipped=%d", len(coins), skipped)
	return coins, skipped
}

func toCoin(rec market.RawRecord, extractedAt time.Time) (market.Coin, error) {
	if rec == nil {
		return market.Coin{}, errMissingID
	}
	id := identifier(rec["id"])
	if id == "" {
		return market.Coin{}, errMissingID
	}
	symbol := strings.ToUpper(text(rec["symbol"]))
	if symbol == "" {
		symbol = defaultSymbol
	}
	name := text(rec["name"])
	if name == "" {
		name = defaultName
	}

	change := number(rec["price_change_percentage_24h"])
	volume := nonNegativeInt(rec["total_volume"])
	rank := int(number(rec["market_cap_rank"]))
	if rank <= 0 {
		rank = market.UnrankedMarketCapRank
	}

	return market.Coin{
		ID:                id,
		Symbol:            symbol,
		Name:              name,
		Price:             math.Max(number(rec["current_price"]), 0),
		MarketCap:         nonNegativeInt(rec["market_cap"]),
		Volume24h:         volume,
		PriceChangePct24h: change,
		MarketCapRank:     rank,
		VolatilityScore:   VolatilityScore(change, volume),
		ExtractedAt:       extractedAt,
	}, nil
}

// VolatilityScore is |change%| * volume / 1e6, or 0 when that is not finite.
func VolatilityScore(changePct float64, volume int64) float64 {
	score := math.Abs(changePct) * float64(volume) / 1_000_000
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	return score
}

func identifier(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		if isFinite(id) {
			return strconv.FormatFloat(id, 'f', -1, 64)
		}
	}
	return ""
}

func text(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// number coerces missing, null, non-numeric and non-finite values to 0.
func number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if !isFinite(f) {
		return 0
	}
	return f
}

func nonNegativeInt(v any) int64 {
	f := number(v)
	switch {
	case f <= 0:
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	default:
		return int64(f)
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
