package analysis

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/pkg/market"
)

// Reader supplies the deduplicated latest coin set.
type Reader interface {
	Latest(ctx context.Context) ([]market.Coin, error)
}

// Engine runs the analysis functions over the coins returned by a Reader.
// Read failures are logged and produce the empty result.
type Engine struct {
	reader Reader
}

// NewEngine returns an Engine over reader.
func NewEngine(reader Reader) *Engine {
	return &Engine{reader: reader}
}

func (e *Engine) load(ctx context.Context, op string) []market.Coin {
	coins, err := e.reader.Latest(ctx)
	if err != nil {
		logx.WithContext(ctx).Errorf("analysis: %s load coins err=%v", op, err)
		return nil
	}
	return coins
}

// Coins returns the cleaned latest coin set.
func (e *Engine) Coins(ctx context.Context) []market.Coin {
	return Clean(e.load(ctx, "coins"))
}

// TopN ranks the latest coins by metric.
func (e *Engine) TopN(ctx context.Context, metric Metric, n int) []market.Coin {
	return TopN(e.load(ctx, "top_n"), metric, n)
}

// MarketStats aggregates the latest coins.
func (e *Engine) MarketStats(ctx context.Context) MarketStats {
	return ComputeStats(e.load(ctx, "market_stats"))
}

// DetectAnomalies runs z-score detection over the latest coins.
func (e *Engine) DetectAnomalies(ctx context.Context, field Field, threshold float64) []Anomaly {
	return DetectAnomalies(e.load(ctx, "detect_anomalies"), field, threshold)
}

// VolatilityRanking returns the n most volatile coins.
func (e *Engine) VolatilityRanking(ctx context.Context, n int) []market.Coin {
	return VolatilityRanking(e.load(ctx, "volatility_ranking"), n)
}
