package indicators

import "math"

// Default windows used by Enrich and the trend classifier.
const (
	DefaultRSIWindow  = 14
	DefaultATRWindow  = 14
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// SMA produces the simple moving average for the supplied values. The first
// window-1 points average the values seen so far. Inputs shorter than two
// points yield an empty series.
func SMA(values []float64, window int) []float64 {
	if window <= 0 || len(values) < 2 {
		return []float64{}
	}
	result := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		result[i] = sum / float64(n)
	}
	return result
}

// EMA produces the exponential moving average with smoothing factor
// 2/(window+1), seeded by the first value.
func EMA(values []float64, window int) []float64 {
	if window <= 0 || len(values) < 2 {
		return []float64{}
	}
	return ema(values, window)
}

func ema(values []float64, window int) []float64 {
	result := make([]float64, len(values))
	if len(values) == 0 {
		return result
	}
	alpha := 2.0 / float64(window+1)
	result[0] = values[0]
	for i := 1; i < len(values); i++ {
		result[i] = alpha*values[i] + (1-alpha)*result[i-1]
	}
	return result
}

// MACD returns MACD, signal, and histogram series. Inputs shorter than slow
// points yield empty series.
func MACD(values []float64, fast, slow, signal int) ([]float64, []float64, []float64) {
	if fast <= 0 || slow <= 0 || signal <= 0 || len(values) < slow || len(values) < 2 {
		return []float64{}, []float64{}, []float64{}
	}
	fastEMA := ema(values, fast)
	slowEMA := ema(values, slow)

	macd := make([]float64, len(values))
	for i := range values {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := ema(macd, signal)
	hist := make([]float64, len(values))
	for i := range hist {
		hist[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, hist
}

// RSI computes the Relative Strength Index from trailing simple means of gains
// and losses. With fewer than window+1 points every value is 50.
func RSI(values []float64, window int) []float64 {
	if len(values) == 0 {
		return []float64{}
	}
	rsi := make([]float64, len(values))
	if window <= 0 || len(values) < window+1 {
		for i := range rsi {
			rsi[i] = 50
		}
		return rsi
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var gainSum, lossSum float64
	for i := range values {
		gainSum += gains[i]
		lossSum += losses[i]
		if i >= window {
			gainSum -= gains[i-window]
			lossSum -= losses[i-window]
		}
		n := float64(min(i+1, window))
		rsi[i] = computeRSI(clampZero(gainSum/n), clampZero(lossSum/n))
	}
	return rsi
}

// ATR computes the Average True Range across the Kline series.
func ATR(klines []Kline, period int) []float64 {
	if period <= 0 || len(klines) < 2 {
		return []float64{}
	}
	tr := make([]float64, len(klines))
	for i := range klines {
		if i == 0 {
			tr[i] = klines[i].High - klines[i].Low
			continue
		}
		highLow := klines[i].High - klines[i].Low
		highClose := math.Abs(klines[i].High - klines[i-1].Close)
		lowClose := math.Abs(klines[i].Low - klines[i-1].Close)
		tr[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}
	return ema(tr, period)
}

// Kline represents OHLC input for ATR calculations.
type Kline struct {
	High  float64
	Low   float64
	Close float64
}

func computeRSI(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50.0
	case avgLoss == 0:
		return 100.0
	case avgGain == 0:
		return 0.0
	default:
		rs := avgGain / avgLoss
		return 100.0 - (100.0 / (1.0 + rs))
	}
}

// clampZero absorbs the float residue left by the rolling subtraction.
func clampZero(v float64) float64 {
	if v < 1e-12 {
		return 0
	}
	return v
}
