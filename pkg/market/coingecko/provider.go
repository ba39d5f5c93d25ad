package coingecko

import (
	"net/http"

	"cryptoverde-api/pkg/market"
)

var _ market.Source = (*Client)(nil)

func init() {
	market.RegisterSource("coingecko", func(name string, cfg *market.ProviderConfig) (market.Source, error) {
		opts := []Option{
			WithBaseURL(cfg.BaseURL),
			WithHistoricalURL(cfg.HistoricalURL),
			WithTimeouts(cfg.SnapshotTimeout, cfg.HistoricalTimeout),
			WithHTTPClient(&http.Client{}),
		}
		if hasParams(cfg) {
			sparkline := DefaultParams().Sparkline
			if cfg.Sparkline != nil {
				sparkline = *cfg.Sparkline
			}
			opts = append(opts, WithParams(Params{
				VsCurrency:            cfg.VsCurrency,
				Order:                 cfg.Order,
				PerPage:               cfg.PerPage,
				Page:                  cfg.Page,
				Sparkline:             sparkline,
				PriceChangePercentage: cfg.PriceChangePercentage,
			}))
		}
		return NewClient(opts...), nil
	})
}

// hasParams reports whether the YAML block set any request parameter; otherwise
// the defaults stay untouched.
func hasParams(cfg *market.ProviderConfig) bool {
	return cfg.VsCurrency != "" || cfg.Order != "" || cfg.PerPage > 0 || cfg.Page > 0 ||
		cfg.PriceChangePercentage != "" || cfg.Sparkline != nil
}
