// Package config loads application configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Harvest HarvestConfig `yaml:"harvest" mapstructure:"harvest"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Sites   []SiteConfig  `yaml:"sites" mapstructure:"sites"`
}

// FetchConfig configures the fetch tiers.
type FetchConfig struct {
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int      `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgents    []string `yaml:"user_agents" mapstructure:"user_agents"`
	JitterMinMs   int      `yaml:"jitter_min_ms" mapstructure:"jitter_min_ms"`
	JitterMaxMs   int      `yaml:"jitter_max_ms" mapstructure:"jitter_max_ms"`
	RatePerHost   float64  `yaml:"rate_per_host" mapstructure:"rate_per_host"`
	EnableStealth bool     `yaml:"enable_stealth" mapstructure:"enable_stealth"`
	EnableBrowser bool     `yaml:"enable_browser" mapstructure:"enable_browser"`
	SettleMs      int      `yaml:"settle_ms" mapstructure:"settle_ms"`
}

// HarvestConfig configures the pagination walk and detail enrichment.
type HarvestConfig struct {
	Enrich           bool `yaml:"enrich" mapstructure:"enrich"`
	DetailDelayMinMs int  `yaml:"detail_delay_min_ms" mapstructure:"detail_delay_min_ms"`
	DetailDelayMaxMs int  `yaml:"detail_delay_max_ms" mapstructure:"detail_delay_max_ms"`
	MaxConcurrent    int  `yaml:"max_concurrent_sites" mapstructure:"max_concurrent_sites"`
}

// OutputConfig configures artifact placement.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SiteConfig overrides a registered site's defaults.
type SiteConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	StartURL string `yaml:"start_url" mapstructure:"start_url"`
	Output   string `yaml:"output" mapstructure:"output"`
}

// SiteOverride returns the config entry for a site name, if any.
func (c *Config) SiteOverride(name string) (SiteConfig, bool) {
	for _, s := range c.Sites {
		if s.Name == name {
			return s, true
		}
	}
	return SiteConfig{}, false
}

// Timeout returns the per-fetch timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.jitter_min_ms", 400)
	v.SetDefault("fetch.jitter_max_ms", 1000)
	v.SetDefault("fetch.rate_per_host", 2)
	v.SetDefault("fetch.enable_stealth", true)
	v.SetDefault("fetch.enable_browser", true)
	v.SetDefault("fetch.settle_ms", 1200)
	v.SetDefault("harvest.enrich", true)
	v.SetDefault("harvest.detail_delay_min_ms", 600)
	v.SetDefault("harvest.detail_delay_max_ms", 1400)
	v.SetDefault("harvest.max_concurrent_sites", 1)
	v.SetDefault("output.dir", "data/raw")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
