package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/internal/config"
	"cryptoverde-api/pkg/confkit"
)

// SummaryItem is one labelled fact about the loaded config.
type SummaryItem struct {
	Label string
	Value string
}

func (s SummaryItem) String() string {
	return s.Label + ": " + s.Value
}

// ConfigSummary describes the loaded config without printing secrets.
func ConfigSummary(cfg *config.Config) []SummaryItem {
	if cfg == nil {
		return []SummaryItem{{Label: "Configuration", Value: "<nil>"}}
	}
	etl := cfg.ETL
	return []SummaryItem{
		{"Environment", cfg.Env},
		{"Store", storeValue(cfg.Store)},
		{"Redis", presence(cfg.HasRedis())},
		{"TTL (short/medium/long)", fmt.Sprintf("%ds / %ds / %ds", cfg.TTL.Short, cfg.TTL.Medium, cfg.TTL.Long)},
		{"ETL interval", fmt.Sprintf("%s (error backoff %s, run on start %t)", etl.Interval(), etl.ErrorBackoff(), etl.RunOnStart)},
		{"Raw data dir", etl.RawDataDir},
		{"Historical cache", fmt.Sprintf("ttl %s, file %s", etl.CacheTTL(), orNone(etl.CacheFile))},
		{"Market config", sectionValue(cfg.Market)},
	}
}

// ConfigSummaryLines renders ConfigSummary as "Label: value" lines.
func ConfigSummaryLines(cfg *config.Config) []string {
	items := ConfigSummary(cfg)
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = item.String()
	}
	return lines
}

// LogConfigSummary logs one structured entry per summary item.
func LogConfigSummary(cfg *config.Config) {
	for _, item := range ConfigSummary(cfg) {
		logx.Infow("config", logx.Field("item", item.Label), logx.Field("value", item.Value))
	}
}

// storeValue reports DSN presence only; the DSN may carry credentials.
func storeValue(s config.StoreConf) string {
	if s.Driver == "" || s.Driver == config.DriverMemory {
		return config.DriverMemory
	}
	return fmt.Sprintf("%s (dsn %s)", s.Driver, presence(strings.TrimSpace(s.DSN) != ""))
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orNone(v string) string {
	if strings.TrimSpace(v) == "" {
		return "none"
	}
	return v
}

func sectionValue[T any](section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return section.File
	case section.Loaded():
		return "inline"
	default:
		return "not configured"
	}
}
