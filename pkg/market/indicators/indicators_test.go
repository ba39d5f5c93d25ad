package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoverde-api/pkg/market"
)

var sampleCloses = []float64{100, 101, 102, 103, 105, 107, 106, 108, 110, 111, 112, 115, 117, 119, 118, 120, 121, 123, 125, 124, 126, 127, 129, 130, 132, 133, 134, 135, 136, 138, 139, 141, 140, 142, 144, 143, 145, 147, 149, 148, 150, 151, 149, 148, 150, 152, 151, 153, 154, 156, 155, 157, 158, 160, 161, 159, 158, 157, 159, 160}

func TestSMA(t *testing.T) {
	result := SMA([]float64{1, 2, 3, 4, 5, 6}, 3)
	require.Len(t, result, 6)
	expected := []float64{1, 1.5, 2, 3, 4, 5}
	for i := range expected {
		require.InDelta(t, expected[i], result[i], 1e-9)
	}
}

func TestSMAShortInput(t *testing.T) {
	assert.Empty(t, SMA(nil, 3))
	assert.Empty(t, SMA([]float64{42}, 3))
	assert.Len(t, SMA([]float64{1, 2}, 20), 2)
}

func TestEMA(t *testing.T) {
	result := EMA([]float64{1, 2, 3, 4, 5, 6}, 3)
	require.Len(t, result, 6)
	expected := []float64{1, 1.5, 2.25, 3.125, 4.0625, 5.03125}
	for i := range expected {
		require.InDelta(t, expected[i], result[i], 1e-9)
	}
	assert.Empty(t, EMA([]float64{1}, 3))
	assert.Empty(t, EMA(nil, 3))
}

func TestRSI(t *testing.T) {
	rsi := RSI([]float64{10, 12, 11, 14}, 3)
	require.Len(t, rsi, 4)
	require.InDelta(t, 50.0, rsi[0], 1e-9)
	require.InDelta(t, 100.0, rsi[1], 1e-9)
	require.InDelta(t, 100.0-100.0/6.0, rsi[3], 1e-9)
}

func TestRSIFallbacks(t *testing.T) {
	assert.Empty(t, RSI(nil, 14))

	short := RSI([]float64{1, 2, 3}, 14)
	require.Len(t, short, 3)
	for _, v := range short {
		assert.Equal(t, 50.0, v)
	}

	constant := make([]float64, 30)
	for i := range constant {
		constant[i] = 7
	}
	for _, v := range RSI(constant, 14) {
		assert.Equal(t, 50.0, v)
	}

	rising := make([]float64, 20)
	falling := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(i)
		falling[i] = float64(-i)
	}
	assert.Equal(t, 100.0, RSI(rising, 14)[19])
	assert.Equal(t, 0.0, RSI(falling, 14)[19])
}

func TestRSIBounded(t *testing.T) {
	for _, v := range RSI(sampleCloses, 14) {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestMACD(t *testing.T) {
	macd, signal, hist := MACD(sampleCloses, 12, 26, 9)
	require.Len(t, macd, len(sampleCloses))
	require.Len(t, signal, len(sampleCloses))
	require.Len(t, hist, len(sampleCloses))

	assert.Equal(t, 0.0, macd[0])
	fast := EMA(sampleCloses, 12)
	slow := EMA(sampleCloses, 26)
	last := len(sampleCloses) - 1
	require.InDelta(t, fast[last]-slow[last], macd[last], 1e-9)
	require.InDelta(t, macd[last]-signal[last], hist[last], 1e-9)
	assert.Greater(t, macd[last], 0.0, "rising series has a positive MACD")
}

func TestMACDShortInput(t *testing.T) {
	macd, signal, hist := MACD(sampleCloses[:25], 12, 26, 9)
	assert.Empty(t, macd)
	assert.Empty(t, signal)
	assert.Empty(t, hist)

	macd, _, _ = MACD(nil, 12, 26, 9)
	assert.Empty(t, macd)
}

func TestATR(t *testing.T) {
	klines := make([]Kline, 20)
	for i := range klines {
		close := 100 + float64(i)
		klines[i] = Kline{High: close + 1.5, Low: close - 1.5, Close: close}
	}
	atr := ATR(klines, 14)
	require.Len(t, atr, len(klines))
	for _, v := range atr {
		require.InDelta(t, 3.0, v, 1e-9)
	}
	assert.Empty(t, ATR(klines[:1], 14))
}

func TestTotalOverTinyInputs(t *testing.T) {
	for n := 0; n <= 3; n++ {
		series := make([]float64, n)
		for i := range series {
			series[i] = float64(i + 1)
		}
		assert.NotPanics(t, func() {
			SMA(series, 20)
			EMA(series, 12)
			RSI(series, 14)
			MACD(series, 12, 26, 9)
		})
		for _, v := range RSI(series, 14) {
			assert.False(t, math.IsNaN(v))
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		closes []float64
		sma20  []float64
		sma50  []float64
		rsi    []float64
		want   Trend
	}{
		{"no data", nil, nil, nil, nil, TrendNoData},
		{"strong uptrend", []float64{110}, []float64{105}, []float64{100}, []float64{60}, TrendStrongUptrend},
		{"uptrend weak rsi", []float64{110}, []float64{105}, []float64{100}, []float64{40}, TrendUptrend},
		{"uptrend sma below", []float64{110}, []float64{105}, []float64{108}, []float64{60}, TrendUptrend},
		{"strong downtrend", []float64{90}, []float64{95}, []float64{100}, []float64{40}, TrendStrongDowntrend},
		{"downtrend", []float64{90}, []float64{95}, []float64{100}, []float64{55}, TrendDowntrend},
		{"neutral", []float64{95}, []float64{95}, []float64{100}, []float64{40}, TrendNeutral},
		{"missing averages", []float64{1, 2}, nil, nil, nil, TrendNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.closes, tc.sma20, tc.sma50, tc.rsi))
		})
	}
}

func TestTrendColor(t *testing.T) {
	assert.Equal(t, "#4CAF50", TrendStrongUptrend.Color())
	assert.Equal(t, "#8BC34A", TrendUptrend.Color())
	assert.Equal(t, "#F44336", TrendStrongDowntrend.Color())
	assert.Equal(t, "#FF9800", TrendDowntrend.Color())
	assert.Equal(t, "#9E9E9E", TrendNeutral.Color())
	assert.Equal(t, "#9E9E9E", Trend("bogus").Color())
}

func barsFrom(closes []float64) []market.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Time: start.Add(time.Duration(i) * time.Hour), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return bars
}

func TestEnrich(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := barsFrom(closes)
	frame := Enrich(bars)

	for _, col := range [][]float64{frame.SMA20, frame.SMA50, frame.EMA12, frame.EMA26, frame.MACD, frame.MACDSignal, frame.MACDHist, frame.RSI, frame.ATR} {
		assert.Len(t, col, len(bars))
	}
	assert.Equal(t, TrendStrongUptrend, frame.Trend)
	assert.Equal(t, frame.Trend, TrendOf(bars))

	frame.Bars[0].Close = -1
	assert.Equal(t, 100.0, bars[0].Close, "Enrich must not alias the input bars")
}

func TestEnrichShortSeriesZeroFills(t *testing.T) {
	frame := Enrich(barsFrom([]float64{5}))
	assert.Equal(t, []float64{0}, frame.SMA20)
	assert.Equal(t, []float64{0}, frame.MACD)
	assert.Equal(t, []float64{50}, frame.RSI)
	assert.Equal(t, TrendNeutral, frame.Trend)

	empty := Enrich(nil)
	assert.Equal(t, TrendNoData, empty.Trend)
	assert.Empty(t, empty.SMA20)
}
