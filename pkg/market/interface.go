package market

import (
	"context"
	"time"
)

// Source exposes the upstream market-data provider.
type Source interface {
	// FetchMarkets returns the ranked list of coins as raw upstream records.
	FetchMarkets(ctx context.Context) ([]RawRecord, error)
	// FetchMarketChart returns the raw price/volume series for a coin over the given day window.
	FetchMarketChart(ctx context.Context, coinID string, days int) (*Chart, error)
}

// RawRecord is one upstream coin entry exactly as decoded from the provider payload.
type RawRecord map[string]any

// Coin is the normalized state of one cryptocurrency at extraction time.
type Coin struct {
	ID                string    `json:"coin_id"`
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	Price             float64   `json:"current_price"`
	MarketCap         int64     `json:"market_cap"`
	Volume24h         int64     `json:"total_volume"`
	PriceChangePct24h float64   `json:"price_change_24h"`
	MarketCapRank     int       `json:"market_cap_rank"`
	VolatilityScore   float64   `json:"volatility_score"`
	ExtractedAt       time.Time `json:"extracted_at"`
}

// UnrankedMarketCapRank marks a coin without a market-cap rank.
const UnrankedMarketCapRank = 999

// Valid reports whether the identity fields required for storage are present.
func (c Coin) Valid() bool {
	return c.ID != "" && c.Symbol != "" && c.Name != ""
}

// Sample is one [timestamp, value] point of an upstream series.
type Sample struct {
	Time  time.Time
	Value float64
}

// Chart holds the parallel historical series returned for one coin.
type Chart struct {
	Prices  []Sample
	Volumes []Sample
	// HasVolumes is false when the upstream payload carried no volume series at all.
	HasVolumes bool
}

// Bar is one OHLCV bucket. Volume is nil when the bucket had no volume samples.
type Bar struct {
	Time   time.Time `json:"timestamp" msgpack:"t"`
	Open   float64   `json:"open" msgpack:"o"`
	High   float64   `json:"high" msgpack:"h"`
	Low    float64   `json:"low" msgpack:"l"`
	Close  float64   `json:"close" msgpack:"c"`
	Volume *float64  `json:"volume,omitempty" msgpack:"v"`
}

// Closes returns the close series of the bars in order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the volume series of the bars, substituting 0 for absent volumes.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		if b.Volume != nil {
			out[i] = *b.Volume
		}
	}
	return out
}

// CloneBars returns a deep copy so callers never share volume pointers with a cache entry.
func CloneBars(bars []Bar) []Bar {
	if bars == nil {
		return nil
	}
	out := make([]Bar, len(bars))
	for i, b := range bars {
		out[i] = b
		if b.Volume != nil {
			v := *b.Volume
			out[i].Volume = &v
		}
	}
	return out
}
