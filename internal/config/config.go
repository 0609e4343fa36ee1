// Package config loads the application configuration.
package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/openbell/tapescan/internal/feed"
)

// Config is the full application configuration.
type Config struct {
	Feed     feed.Config  `yaml:"feed"`
	Fetch    FetchConfig  `yaml:"fetch"`
	Store    StoreConfig  `yaml:"store"`
	Universe UniverseConf `yaml:"universe"`
	Report   ReportConfig `yaml:"report"`
	Notify   NotifyConfig `yaml:"notify"`
	Metrics  MetricsConf  `yaml:"metrics"`
	Rules    RulesConfig  `yaml:"rules"`
}

// FetchConfig bounds the download stage.
type FetchConfig struct {
	MaxConcurrent       int `yaml:"max_concurrent"`
	PerFetchTimeoutSecs int `yaml:"per_fetch_timeout_seconds"`
}

// StoreConfig selects and parameterizes the series store.
type StoreConfig struct {
	Driver         string `yaml:"driver"` // fs | redis | postgres
	Dir            string `yaml:"dir"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisTTLHours  int    `yaml:"redis_ttl_hours"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	PutRetries     int    `yaml:"put_retries"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms"`
}

// UniverseConf points at the instrument universe file and the oracle probe.
type UniverseConf struct {
	Path      string `yaml:"path"`
	ProbeCode string `yaml:"probe_code"`
}

// ReportConfig points the file sink at its output directory.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// NotifyConfig lists recipient sets for the notification sink.
type NotifyConfig struct {
	Recipients     []string `yaml:"recipients"`
	SelfRecipients []string `yaml:"self_recipients"`
}

// MetricsConf configures the optional ops endpoint.
type MetricsConf struct {
	ListenAddr string `yaml:"listen_addr"` // empty disables the endpoint
}

// RulesConfig points at the classification table; empty path means the
// shipped default table.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// Load reads the application config from a YAML file.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}

// Default returns a runnable baseline configuration.
func Default() *Config {
	return &Config{
		Feed: feed.Config{
			BaseURL:        "http://stock.gtimg.cn/data/index.php",
			TimeoutSeconds: 30,
		},
		Fetch: FetchConfig{
			MaxConcurrent:       200,
			PerFetchTimeoutSecs: 60,
		},
		Store: StoreConfig{
			Driver:         "fs",
			Dir:            "data",
			PutRetries:     3,
			RetryBackoffMs: 200,
		},
		Universe: UniverseConf{
			Path:      "config/universe.csv",
			ProbeCode: "sz000004",
		},
		Report: ReportConfig{
			OutputDir: "out/results",
		},
		Metrics: MetricsConf{},
	}
}
