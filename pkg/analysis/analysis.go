// Package analysis computes rankings, aggregate statistics and anomalies over
// the latest coin set. Every function works on its own copy of the input and
// degrades to an empty or zero result instead of failing.
package analysis

import (
	"math"
	"sort"
	"strings"

	"cryptoverde-api/pkg/market"
)

// Metric selects a ranking.
type Metric string

const (
	MetricGainers    Metric = "gainers"
	MetricLosers     Metric = "losers"
	MetricMarketCap  Metric = "market_cap"
	MetricVolatility Metric = "volatility"
)

// ParseMetric maps a query value to a Metric.
func ParseMetric(s string) (Metric, bool) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MetricGainers, MetricLosers, MetricMarketCap, MetricVolatility:
		return m, true
	}
	return "", false
}

// Field is a numeric coin attribute used for anomaly detection.
type Field string

const (
	FieldPriceChange24h Field = "price_change_24h"
	FieldPrice          Field = "current_price"
	FieldMarketCap      Field = "market_cap"
	FieldVolume         Field = "total_volume"
	FieldVolatility     Field = "volatility_score"
)

var fieldValues = map[Field]func(market.Coin) float64{
	FieldPriceChange24h: func(c market.Coin) float64 { return c.PriceChangePct24h },
	FieldPrice:          func(c market.Coin) float64 { return c.Price },
	FieldMarketCap:      func(c market.Coin) float64 { return float64(c.MarketCap) },
	FieldVolume:         func(c market.Coin) float64 { return float64(c.Volume24h) },
	FieldVolatility:     func(c market.Coin) float64 { return c.VolatilityScore },
}

// ParseField maps a query value to a Field.
func ParseField(s string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	_, ok := fieldValues[f]
	return f, ok
}

// DominanceSize is how many coins the dominance map covers.
const DominanceSize = 5

// MarketStats aggregates the coin set.
type MarketStats struct {
	TotalMarketCap  float64            `json:"total_market_cap"`
	AvgMarketCap    float64            `json:"avg_market_cap"`
	TotalVolume     float64            `json:"total_volume"`
	AvgPrice        float64            `json:"avg_price"`
	MedianPrice     float64            `json:"median_price"`
	TotalCoins      int                `json:"total_coins"`
	AvgVolatility   float64            `json:"avg_volatility"`
	TotalGainers    int                `json:"total_gainers"`
	TotalLosers     int                `json:"total_losers"`
	MarketDominance map[string]float64 `json:"market_dominance"`
}

// EmptyStats is the all-zero result with an empty dominance map.
func EmptyStats() MarketStats {
	return MarketStats{MarketDominance: map[string]float64{}}
}

// Anomaly is a coin whose field value lies beyond the z-score threshold.
type Anomaly struct {
	ID     string  `json:"coin_id"`
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Field  Field   `json:"field"`
	Value  float64 `json:"value"`
	ZScore float64 `json:"z_score"`
}

// MinAnomalySamples is the smallest set anomaly detection runs on.
const MinAnomalySamples = 5

// Clean drops coins missing id, name or symbol and replaces non-finite numbers
// with 0 (rank with the unranked marker). The input is not modified.
func Clean(coins []market.Coin) []market.Coin {
	out := make([]market.Coin, 0, len(coins))
	for _, c := range coins {
		if !c.Valid() {
			continue
		}
		c.Price = finite(c.Price)
		c.PriceChangePct24h = finite(c.PriceChangePct24h)
		c.VolatilityScore = finite(c.VolatilityScore)
		if c.MarketCapRank <= 0 {
			c.MarketCapRank = market.UnrankedMarketCapRank
		}
		out = append(out, c)
	}
	return out
}

// TopN ranks the coins by metric. Ties keep input order.
func TopN(coins []market.Coin, metric Metric, n int) []market.Coin {
	if n <= 0 {
		return []market.Coin{}
	}
	var less func(a, b market.Coin) bool
	switch metric {
	case MetricGainers:
		less = func(a, b market.Coin) bool { return a.PriceChangePct24h > b.PriceChangePct24h }
	case MetricLosers:
		less = func(a, b market.Coin) bool { return a.PriceChangePct24h < b.PriceChangePct24h }
	case MetricMarketCap:
		less = func(a, b market.Coin) bool { return a.MarketCap > b.MarketCap }
	case MetricVolatility:
		less = func(a, b market.Coin) bool { return a.VolatilityScore > b.VolatilityScore }
	default:
		return []market.Coin{}
	}
	ranked := Clean(coins)
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// VolatilityRanking is TopN by volatility score.
func VolatilityRanking(coins []market.Coin, n int) []market.Coin {
	return TopN(coins, MetricVolatility, n)
}

// ComputeStats aggregates the coins. An empty set yields EmptyStats.
func ComputeStats(coins []market.Coin) MarketStats {
	clean := Clean(coins)
	if len(clean) == 0 {
		return EmptyStats()
	}
	stats := EmptyStats()
	prices := make([]float64, len(clean))
	var priceSum, volatilitySum float64
	for i, c := range clean {
		stats.TotalMarketCap += float64(c.MarketCap)
		stats.TotalVolume += float64(c.Volume24h)
		priceSum += c.Price
		volatilitySum += c.VolatilityScore
		prices[i] = c.Price
		switch {
		case c.PriceChangePct24h > 0:
			stats.TotalGainers++
		case c.PriceChangePct24h < 0:
			stats.TotalLosers++
		}
	}
	count := float64(len(clean))
	stats.TotalCoins = len(clean)
	stats.AvgMarketCap = stats.TotalMarketCap / count
	stats.AvgPrice = priceSum / count
	stats.MedianPrice = median(prices)
	stats.AvgVolatility = volatilitySum / count

	if stats.TotalMarketCap > 0 {
		for _, c := range TopN(clean, MetricMarketCap, DominanceSize) {
			stats.MarketDominance[c.Symbol] = float64(c.MarketCap) / stats.TotalMarketCap * 100
		}
	}
	return stats
}

// DetectAnomalies flags coins whose |z-score| on field exceeds threshold. The
// standard deviation is the sample one (n-1). Fewer than MinAnomalySamples
// coins or zero variance yield no anomalies.
func DetectAnomalies(coins []market.Coin, field Field, threshold float64) []Anomaly {
	value, ok := fieldValues[field]
	if !ok {
		return []Anomaly{}
	}
	clean := Clean(coins)
	if len(clean) < MinAnomalySamples {
		return []Anomaly{}
	}
	values := make([]float64, len(clean))
	for i, c := range clean {
		values[i] = value(c)
	}
	mean, std := meanStd(values)
	if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		return []Anomaly{}
	}
	out := []Anomaly{}
	for i, c := range clean {
		z := (values[i] - mean) / std
		if math.Abs(z) > threshold {
			out = append(out, Anomaly{ID: c.ID, Name: c.Name, Symbol: c.Symbol, Field: field, Value: values[i], ZScore: z})
		}
	}
	return out
}

func meanStd(values []float64) (float64, float64) {
	n := float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	acc := 0.0
	for _, v := range values {
		acc += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(acc / (n - 1))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
