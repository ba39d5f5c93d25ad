package market

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"cryptoverde-api/pkg/confkit"
)

// Config describes the upstream market-data providers available to the application.
type Config struct {
	Default   string                     `yaml:"default"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig represents configuration for a single upstream provider.
type ProviderConfig struct {
	Type string `yaml:"type"`

	BaseURL       string `yaml:"base_url"`
	HistoricalURL string `yaml:"historical_url"`

	VsCurrency            string `yaml:"vs_currency"`
	Order                 string `yaml:"order"`
	PerPage               int    `yaml:"per_page"`
	Page                  int    `yaml:"page"`
	Sparkline             *bool  `yaml:"sparkline"`
	PriceChangePercentage string `yaml:"price_change_percentage"`

	SnapshotTimeoutRaw   string        `yaml:"snapshot_timeout"`
	SnapshotTimeout      time.Duration `yaml:"-"`
	HistoricalTimeoutRaw string        `yaml:"historical_timeout"`
	HistoricalTimeout    time.Duration `yaml:"-"`
}

// SourceBuilder constructs a Source from configuration.
type SourceBuilder func(name string, cfg *ProviderConfig) (Source, error)

var (
	sourceRegistry   = make(map[string]SourceBuilder)
	sourceRegistryMu sync.RWMutex
)

// RegisterSource registers an upstream provider constructor under a type name.
func RegisterSource(typeName string, builder SourceBuilder) {
	sourceRegistryMu.Lock()
	defer sourceRegistryMu.Unlock()
	sourceRegistry[strings.ToLower(strings.TrimSpace(typeName))] = builder
}

func lookupSourceBuilder(typeName string) (SourceBuilder, bool) {
	sourceRegistryMu.RLock()
	defer sourceRegistryMu.RUnlock()
	builder, ok := sourceRegistry[strings.ToLower(strings.TrimSpace(typeName))]
	return builder, ok
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads market configuration from the default project location and panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/market.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read market config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal market config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	for name, provider := range c.Providers {
		if provider == nil {
			provider = &ProviderConfig{}
			c.Providers[name] = provider
		}
		provider.expandEnv()
		if err := provider.parseDurations(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProviderConfig) expandEnv() {
	p.Type = strings.TrimSpace(os.ExpandEnv(p.Type))
	p.BaseURL = strings.TrimSpace(os.ExpandEnv(p.BaseURL))
	p.HistoricalURL = strings.TrimSpace(os.ExpandEnv(p.HistoricalURL))
	p.VsCurrency = strings.TrimSpace(os.ExpandEnv(p.VsCurrency))
	p.Order = strings.TrimSpace(os.ExpandEnv(p.Order))
	p.PriceChangePercentage = strings.TrimSpace(os.ExpandEnv(p.PriceChangePercentage))
	p.SnapshotTimeoutRaw = strings.TrimSpace(os.ExpandEnv(p.SnapshotTimeoutRaw))
	p.HistoricalTimeoutRaw = strings.TrimSpace(os.ExpandEnv(p.HistoricalTimeoutRaw))
}

func (p *ProviderConfig) parseDurations(name string) error {
	var err error
	if p.SnapshotTimeout, err = parsePositiveDuration(name, "snapshot_timeout", p.SnapshotTimeoutRaw); err != nil {
		return err
	}
	if p.HistoricalTimeout, err = parsePositiveDuration(name, "historical_timeout", p.HistoricalTimeoutRaw); err != nil {
		return err
	}
	return nil
}

func parsePositiveDuration(provider, field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("market provider %s: invalid %s %q: %w", provider, field, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("market provider %s: %s must be positive, got %s", provider, field, d)
	}
	return d, nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("market config: providers cannot be empty")
	}
	if c.Default != "" {
		if _, ok := c.Providers[c.Default]; !ok {
			return fmt.Errorf("market config: default provider %q not defined", c.Default)
		}
	}
	for name, provider := range c.Providers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("market config: provider name cannot be empty")
		}
		if err := provider.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProviderConfig) validate(name string) error {
	if p == nil {
		return fmt.Errorf("market config: provider %s is nil", name)
	}
	if strings.TrimSpace(p.Type) == "" {
		return fmt.Errorf("market config: provider %s must specify type", name)
	}
	if _, ok := lookupSourceBuilder(p.Type); !ok {
		return fmt.Errorf("market config: provider %s has unsupported type %q", name, p.Type)
	}
	if p.PerPage < 0 || p.Page < 0 {
		return fmt.Errorf("market config: provider %s per_page/page cannot be negative", name)
	}
	if p.HistoricalURL != "" && !strings.Contains(p.HistoricalURL, "{id}") {
		return fmt.Errorf("market config: provider %s historical_url must contain {id}", name)
	}
	return nil
}

// BuildSources instantiates upstream providers according to configuration.
func (c *Config) BuildSources() (map[string]Source, error) {
	result := make(map[string]Source, len(c.Providers))
	for name, providerCfg := range c.Providers {
		builder, ok := lookupSourceBuilder(providerCfg.Type)
		if !ok {
			return nil, fmt.Errorf("market provider %s: unsupported type %q", name, providerCfg.Type)
		}
		source, err := builder(name, providerCfg)
		if err != nil {
			return nil, fmt.Errorf("market provider %s: %w", name, err)
		}
		result[name] = source
	}
	return result, nil
}

// DefaultSource builds all sources and returns the one named by Default,
// or the only configured one when Default is empty.
func (c *Config) DefaultSource() (Source, error) {
	sources, err := c.BuildSources()
	if err != nil {
		return nil, err
	}
	name := c.Default
	if name == "" && len(sources) == 1 {
		for only := range sources {
			name = only
		}
	}
	source, ok := sources[name]
	if !ok {
		return nil, fmt.Errorf("market config: default provider %q not found", name)
	}
	return source, nil
}
