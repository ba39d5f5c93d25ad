package features

import (
	"math"

	"cryptoverde-api/pkg/market"
	"cryptoverde-api/pkg/market/indicators"
)

// Vector is the model input for one coin.
type Vector struct {
	PriceLag1  float64 `json:"price_lag_1"`
	PriceLag2  float64 `json:"price_lag_2"`
	PriceLag3  float64 `json:"price_lag_3"`
	PriceLag7  float64 `json:"price_lag_7"`
	PriceMA7   float64 `json:"price_ma_7"`
	PriceMA30  float64 `json:"price_ma_30"`
	PriceStd7  float64 `json:"price_std_7"`
	Volatility float64 `json:"volatility"`
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	VolumeLag1 float64 `json:"volume_lag_1"`
	VolumeMA7  float64 `json:"volume_ma_7"`
}

// BuildVector derives the feature vector from a coin and its historical closes
// and volumes (ascending). The coin's current price and volume are appended as
// the latest observation. Features without enough history fall back to the
// current value, 0 for std/macd, or 50 for rsi.
func BuildVector(coin market.Coin, closes, volumes []float64) Vector {
	prices := append(append(make([]float64, 0, len(closes)+1), closes...), coin.Price)
	vols := append(append(make([]float64, 0, len(volumes)+1), volumes...), float64(coin.Volume24h))

	v := Vector{
		PriceLag1:  lag(prices, 1, coin.Price),
		PriceLag2:  lag(prices, 2, coin.Price),
		PriceLag3:  lag(prices, 3, coin.Price),
		PriceMA7:   coin.Price,
		PriceMA30:  coin.Price,
		Volatility: coin.VolatilityScore,
		RSI:        50,
		VolumeLag1: lag(vols, 1, float64(coin.Volume24h)),
		VolumeMA7:  float64(coin.Volume24h),
	}
	// The 7-step lag needs one point beyond the window.
	if len(prices) > 8 {
		v.PriceLag7 = prices[len(prices)-8]
	} else {
		v.PriceLag7 = coin.Price
	}
	if len(prices) >= 7 {
		v.PriceMA7 = mean(prices[len(prices)-7:])
		v.PriceStd7 = stddev(prices[len(prices)-7:])
	}
	if len(prices) >= 30 {
		v.PriceMA30 = mean(prices[len(prices)-30:])
	}
	if len(vols) >= 7 {
		v.VolumeMA7 = mean(vols[len(vols)-7:])
	}
	if rsi := indicators.RSI(prices, indicators.DefaultRSIWindow); len(rsi) > 0 {
		v.RSI = rsi[len(rsi)-1]
	}
	if macd, _, _ := indicators.MACD(prices, indicators.DefaultMACDFast, indicators.DefaultMACDSlow, indicators.DefaultMACDSignal); len(macd) > 0 {
		v.MACD = macd[len(macd)-1]
	}
	return v
}

func lag(series []float64, k int, fallback float64) float64 {
	if len(series) > k {
		return series[len(series)-1-k]
	}
	return fallback
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	acc := 0.0
	for _, v := range values {
		acc += (v - m) * (v - m)
	}
	return math.Sqrt(acc / float64(len(values)))
}
