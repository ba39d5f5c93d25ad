// Package ohlc buckets raw price and volume samples into fixed-interval bars.
package ohlc

import (
	"sort"
	"time"

	"cryptoverde-api/pkg/market"
)

// BucketWidth returns the bar width used for a history window of the given length.
func BucketWidth(windowDays int) time.Duration {
	switch {
	case windowDays <= 7:
		return time.Hour
	case windowDays <= 30:
		return 4 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Resample converts price and volume samples into OHLCV bars ordered by bucket
// start. Buckets without price samples are dropped; a bar whose bucket has no
// volume samples carries a nil Volume.
func Resample(prices, volumes []market.Sample, windowDays int) []market.Bar {
	if len(prices) == 0 {
		return []market.Bar{}
	}
	width := BucketWidth(windowDays)

	ordered := sortedCopy(prices)
	bars := make([]market.Bar, 0, len(ordered))
	for _, s := range ordered {
		start := bucketStart(s.Time, width)
		if n := len(bars); n > 0 && bars[n-1].Time.Equal(start) {
			bar := &bars[n-1]
			bar.Close = s.Value
			if s.Value > bar.High {
				bar.High = s.Value
			}
			if s.Value < bar.Low {
				bar.Low = s.Value
			}
			continue
		}
		bars = append(bars, market.Bar{
			Time:  start,
			Open:  s.Value,
			High:  s.Value,
			Low:   s.Value,
			Close: s.Value,
		})
	}

	sums := volumeBuckets(volumes, width)
	for i := range bars {
		if v, ok := sums[bars[i].Time.UnixMilli()]; ok {
			vol := v
			bars[i].Volume = &vol
		}
	}
	return bars
}

func volumeBuckets(volumes []market.Sample, width time.Duration) map[int64]float64 {
	sums := make(map[int64]float64, len(volumes))
	for _, s := range volumes {
		sums[bucketStart(s.Time, width).UnixMilli()] += s.Value
	}
	return sums
}

func bucketStart(ts time.Time, width time.Duration) time.Time {
	return ts.UTC().Truncate(width)
}

func sortedCopy(samples []market.Sample) []market.Sample {
	out := make([]market.Sample, len(samples))
	copy(out, samples)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
