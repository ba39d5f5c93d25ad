package indicators

// Trend is the market state derived from closes, moving averages and RSI.
type Trend string

const (
	TrendNoData          Trend = "NO_DATA"
	TrendStrongUptrend   Trend = "STRONG_UPTREND"
	TrendUptrend         Trend = "UPTREND"
	TrendStrongDowntrend Trend = "STRONG_DOWNTREND"
	TrendDowntrend       Trend = "DOWNTREND"
	TrendNeutral         Trend = "NEUTRAL"
)

var trendColors = map[Trend]string{
	TrendStrongUptrend:   "#4CAF50",
	TrendUptrend:         "#8BC34A",
	TrendStrongDowntrend: "#F44336",
	TrendDowntrend:       "#FF9800",
	TrendNeutral:         "#9E9E9E",
	TrendNoData:          "#9E9E9E",
}

// Color is the display color for the trend.
func (t Trend) Color() string {
	if c, ok := trendColors[t]; ok {
		return c
	}
	return trendColors[TrendNeutral]
}

// Classify decides the trend from the latest close and the latest values of
// the sma20, sma50 and rsi series. Empty indicator series fall back to the
// last close (moving averages) or 50 (rsi).
func Classify(closes, sma20, sma50, rsi []float64) Trend {
	if len(closes) == 0 {
		return TrendNoData
	}
	price := closes[len(closes)-1]
	fast := lastOr(sma20, price)
	slow := lastOr(sma50, price)
	strength := lastOr(rsi, 50)

	switch {
	case price > fast && fast > slow && strength > 50:
		return TrendStrongUptrend
	case price > fast:
		return TrendUptrend
	case price < fast && fast < slow && strength < 50:
		return TrendStrongDowntrend
	case price < fast:
		return TrendDowntrend
	default:
		return TrendNeutral
	}
}

func lastOr(series []float64, fallback float64) float64 {
	if len(series) == 0 {
		return fallback
	}
	return series[len(series)-1]
}
