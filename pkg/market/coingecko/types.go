package coingecko

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"cryptoverde-api/pkg/market"
)

// chartResponse is the /coins/{id}/market_chart payload.
type chartResponse struct {
	Prices       []point  `json:"prices"`
	TotalVolumes *[]point `json:"total_volumes"`
}

// point decodes a [timestamp_ms, value] pair. Pairs with nulls or wrong arity are marked invalid.
type point struct {
	TimestampMs int64
	Value       float64
	ok          bool
}

func (p *point) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var pair []*float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) < 2 || pair[0] == nil || pair[1] == nil {
		return nil
	}
	if math.IsNaN(*pair[1]) || math.IsInf(*pair[1], 0) {
		return nil
	}
	p.TimestampMs = int64(*pair[0])
	p.Value = *pair[1]
	p.ok = true
	return nil
}

func (r chartResponse) chart() *market.Chart {
	chart := &market.Chart{Prices: toSamples(r.Prices)}
	if r.TotalVolumes != nil {
		chart.HasVolumes = true
		chart.Volumes = toSamples(*r.TotalVolumes)
	}
	return chart
}

func toSamples(points []point) []market.Sample {
	out := make([]market.Sample, 0, len(points))
	for _, p := range points {
		if !p.ok {
			continue
		}
		out = append(out, market.Sample{Time: time.UnixMilli(p.TimestampMs).UTC(), Value: p.Value})
	}
	return out
}
