package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoverde-api/pkg/market"
)

func c(id string, price, change float64, mcap int64, vol float64) market.Coin {
	return market.Coin{ID: id, Symbol: id, Name: id, Price: price, PriceChangePct24h: change, MarketCap: mcap, VolatilityScore: vol, MarketCapRank: 1}
}

func ids(coins []market.Coin) []string {
	out := make([]string, len(coins))
	for i, coin := range coins {
		out[i] = coin.ID
	}
	return out
}

func TestTopN(t *testing.T) {
	coins := []market.Coin{
		c("a", 1, 5, 300, 1),
		c("b", 1, -3, 100, 9),
		c("c", 1, 12, 200, 4),
		c("d", 1, -8, 50, 0),
	}
	assert.Equal(t, []string{"c", "a"}, ids(TopN(coins, MetricGainers, 2)))
	assert.Equal(t, []string{"d", "b"}, ids(TopN(coins, MetricLosers, 2)))
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(TopN(coins, MetricMarketCap, 10)))
	assert.Equal(t, []string{"b", "c", "a"}, ids(VolatilityRanking(coins, 3)))
	assert.Empty(t, TopN(coins, Metric("unknown"), 3))
	assert.Empty(t, TopN(coins, MetricGainers, 0))
	assert.Empty(t, TopN(nil, MetricGainers, 5))
	assert.Equal(t, "a", coins[0].ID, "input order unchanged")
}

func TestTopNDropsInvalidCoins(t *testing.T) {
	coins := []market.Coin{{ID: "x", PriceChangePct24h: 50}, c("a", 1, 1, 1, 1)}
	assert.Equal(t, []string{"a"}, ids(TopN(coins, MetricGainers, 5)))
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Equal(t, EmptyStats(), stats)
	assert.NotNil(t, stats.MarketDominance)
	assert.Empty(t, stats.MarketDominance)
	assert.Zero(t, stats.TotalCoins)
}

func TestComputeStatsDominance(t *testing.T) {
	caps := []int64{500_000, 200_000, 100_000, 50_000, 50_000, 25_000, 25_000, 25_000, 25_000, 0}
	coins := make([]market.Coin, len(caps))
	for i, mcap := range caps {
		coins[i] = c(fmt.Sprintf("c%d", i), float64(i+1), float64(i-4), mcap, float64(i))
	}
	coins[0].Symbol = "BTC"

	stats := ComputeStats(coins)
	assert.Equal(t, 1_000_000.0, stats.TotalMarketCap)
	assert.Equal(t, 10, stats.TotalCoins)
	require.Len(t, stats.MarketDominance, DominanceSize)
	assert.InDelta(t, 50.0, stats.MarketDominance["BTC"], 1e-9)
	assert.InDelta(t, 20.0, stats.MarketDominance["c1"], 1e-9)
	assert.InDelta(t, 5.5, stats.AvgPrice, 1e-9)
	assert.InDelta(t, 5.5, stats.MedianPrice, 1e-9)
	assert.InDelta(t, 100_000.0, stats.AvgMarketCap, 1e-9)
	assert.Equal(t, 5, stats.TotalGainers)
	assert.Equal(t, 4, stats.TotalLosers)
	assert.InDelta(t, 4.5, stats.AvgVolatility, 1e-9)
}

func TestComputeStatsZeroMarketCapHasNoDominance(t *testing.T) {
	stats := ComputeStats([]market.Coin{c("a", 3, 0, 0, 0), c("b", 1, 0, 0, 0), c("d", 2, 0, 0, 0)})
	assert.Empty(t, stats.MarketDominance)
	assert.Equal(t, 2.0, stats.MedianPrice)
}

func TestDetectAnomalies(t *testing.T) {
	coins := make([]market.Coin, 20)
	for i := range coins {
		coins[i] = c(fmt.Sprintf("c%d", i), 1, 1, 1, 0)
	}
	coins[7].PriceChangePct24h = 100

	found := DetectAnomalies(coins, FieldPriceChange24h, 3)
	require.Len(t, found, 1)
	assert.Equal(t, "c7", found[0].ID)
	assert.InDelta(t, 4.2485, found[0].ZScore, 1e-3)
	assert.Equal(t, 100.0, found[0].Value)
}

func TestDetectAnomaliesDegenerate(t *testing.T) {
	few := []market.Coin{c("a", 1, 1, 1, 0), c("b", 1, 100, 1, 0), c("d", 1, 1, 1, 0), c("e", 1, 1, 1, 0)}
	assert.Empty(t, DetectAnomalies(few, FieldPriceChange24h, 1))

	flat := make([]market.Coin, 10)
	for i := range flat {
		flat[i] = c(fmt.Sprintf("f%d", i), 1, 2, 1, 0)
	}
	assert.Empty(t, DetectAnomalies(flat, FieldPriceChange24h, 0))
	assert.Empty(t, DetectAnomalies(flat, Field("bogus"), 3))
}

func TestCleanReplacesNonFinite(t *testing.T) {
	coins := Clean([]market.Coin{{ID: "a", Name: "A", Symbol: "A", Price: math.NaN(), VolatilityScore: math.Inf(1)}})
	require.Len(t, coins, 1)
	assert.Zero(t, coins[0].Price)
	assert.Zero(t, coins[0].VolatilityScore)
	assert.Equal(t, market.UnrankedMarketCapRank, coins[0].MarketCapRank)
}

func TestParse(t *testing.T) {
	m, ok := ParseMetric(" Gainers ")
	assert.True(t, ok)
	assert.Equal(t, MetricGainers, m)
	_, ok = ParseMetric("nope")
	assert.False(t, ok)

	f, ok := ParseField("total_volume")
	assert.True(t, ok)
	assert.Equal(t, FieldVolume, f)
	_, ok = ParseField("")
	assert.False(t, ok)
}

type stubReader struct {
	coins []market.Coin
	err   error
}

func (s stubReader) Latest(context.Context) ([]market.Coin, error) { return s.coins, s.err }

func TestEngineDegradesOnReadFailure(t *testing.T) {
	e := NewEngine(stubReader{err: errors.New("db down")})
	ctx := context.Background()
	assert.Equal(t, EmptyStats(), e.MarketStats(ctx))
	assert.Empty(t, e.TopN(ctx, MetricGainers, 5))
	assert.Empty(t, e.DetectAnomalies(ctx, FieldPrice, 3))
	assert.Empty(t, e.VolatilityRanking(ctx, 10))
	assert.Empty(t, e.Coins(ctx))
}

func TestEngineUsesReader(t *testing.T) {
	e := NewEngine(stubReader{coins: []market.Coin{c("a", 2, 1, 10, 3), c("b", 4, -1, 30, 1)}})
	ctx := context.Background()
	assert.Equal(t, 2, e.MarketStats(ctx).TotalCoins)
	assert.Equal(t, []string{"b"}, ids(e.TopN(ctx, MetricMarketCap, 1)))
	assert.Equal(t, []string{"a"}, ids(e.VolatilityRanking(ctx, 1)))
}
