package indicators

import (
	"math"

	"cryptoverde-api/pkg/market"
)

// Frame is a bar series with indicator columns aligned index-for-index.
// Columns an indicator could not produce are zero-filled.
type Frame struct {
	Bars       []market.Bar `json:"bars"`
	SMA20      []float64    `json:"sma_20"`
	SMA50      []float64    `json:"sma_50"`
	EMA12      []float64    `json:"ema_12"`
	EMA26      []float64    `json:"ema_26"`
	MACD       []float64    `json:"macd"`
	MACDSignal []float64    `json:"macd_signal"`
	MACDHist   []float64    `json:"macd_histogram"`
	RSI        []float64    `json:"rsi"`
	ATR        []float64    `json:"atr"`
	Trend      Trend        `json:"trend"`
}

// Enrich computes every indicator column for the bars. The input is not modified.
func Enrich(bars []market.Bar) Frame {
	closes := market.Closes(bars)
	sma20 := SMA(closes, 20)
	sma50 := SMA(closes, 50)
	rsi := RSI(closes, DefaultRSIWindow)
	macd, signal, hist := MACD(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)

	klines := make([]Kline, len(bars))
	for i, b := range bars {
		klines[i] = Kline{High: b.High, Low: b.Low, Close: b.Close}
	}

	n := len(bars)
	return Frame{
		Bars:       market.CloneBars(bars),
		SMA20:      fill(sma20, n),
		SMA50:      fill(sma50, n),
		EMA12:      fill(EMA(closes, DefaultMACDFast), n),
		EMA26:      fill(EMA(closes, DefaultMACDSlow), n),
		MACD:       fill(macd, n),
		MACDSignal: fill(signal, n),
		MACDHist:   fill(hist, n),
		RSI:        fill(rsi, n),
		ATR:        fill(ATR(klines, DefaultATRWindow), n),
		Trend:      Classify(closes, sma20, sma50, rsi),
	}
}

// TrendOf classifies the bars without building the full frame.
func TrendOf(bars []market.Bar) Trend {
	closes := market.Closes(bars)
	return Classify(closes, SMA(closes, 20), SMA(closes, 50), RSI(closes, DefaultRSIWindow))
}

// fill returns a column of length n, replacing absent or non-finite values with 0.
func fill(series []float64, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n && i < len(series); i++ {
		if v := series[i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	return out
}
