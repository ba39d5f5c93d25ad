package types

import (
	"time"

	"cryptoverde-api/pkg/analysis"
	"cryptoverde-api/pkg/features"
	"cryptoverde-api/pkg/market"
	"cryptoverde-api/pkg/market/indicators"
)

type RunSummary struct {
	RunID      string    `json:"run_id"`
	Trigger    string    `json:"trigger"`
	Success    bool      `json:"success"`
	Outcome    string    `json:"outcome"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	Loaded     int       `json:"loaded"`
	Skipped    int       `json:"skipped"`
}

type StatusResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	State   string      `json:"state"`
	LastRun *RunSummary `json:"last_run,omitempty"`
}

type CoinsResponse struct {
	Coins []market.Coin `json:"coins"`
}

type StatsResponse struct {
	analysis.MarketStats
}

type RankingsRequest struct {
	Metric string `form:"metric,default=gainers"`
	N      int    `form:"n,default=10,range=[1:250]"`
}

type RankingsResponse struct {
	Metric string        `json:"metric"`
	Coins  []market.Coin `json:"coins"`
}

type AnomaliesRequest struct {
	Field     string  `form:"metric,default=price_change_24h"`
	Threshold float64 `form:"threshold,default=3"`
}

type AnomaliesResponse struct {
	Field     string             `json:"metric"`
	Threshold float64            `json:"threshold"`
	Anomalies []analysis.Anomaly `json:"anomalies"`
}

type HistoryRequest struct {
	ID      string `path:"id"`
	Days    int    `form:"days,default=30,range=[1:365]"`
	Refresh bool   `form:"refresh,optional"`
}

type HistoryResponse struct {
	CoinID     string           `json:"coin_id"`
	Days       int              `json:"days"`
	Frame      indicators.Frame `json:"frame"`
	Trend      string           `json:"trend"`
	TrendColor string           `json:"trend_color"`
}

type FeaturesRequest struct {
	ID   string `path:"id"`
	Days int    `form:"days,default=30,range=[1:365]"`
}

type FeaturesResponse struct {
	CoinID   string          `json:"coin_id"`
	Days     int             `json:"days"`
	Features features.Vector `json:"features"`
}

type SyncResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Run     RunSummary            `json:"run"`
	Stats   *analysis.MarketStats `json:"stats,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
