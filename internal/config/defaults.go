package config

import "time"

// Default values.
const (
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultLogOutput           = "stdout"
	DefaultWatchDebounce       = 200 * time.Millisecond
	DefaultMaxBERElementSize   = 10 * 1024 * 1024
	DefaultModifyDNLockRetries = 3
	DefaultMetricsNamespace    = "oba_aci"
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued settings in cfg.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyACLDefaults(&cfg.ACL)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LogConfig) {
	if cfg.Level == "" {
		cfg.Level = DefaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = DefaultLogFormat
	}
	if cfg.Output == "" {
		cfg.Output = DefaultLogOutput
	}
}

func applyACLDefaults(cfg *ACLConfig) {
	if cfg.WatchDebounce == 0 {
		cfg.WatchDebounce = DefaultWatchDebounce
	}
	if cfg.MaxBERElementSize == 0 {
		cfg.MaxBERElementSize = DefaultMaxBERElementSize
	}
	if cfg.ModifyDNLockRetries == 0 {
		cfg.ModifyDNLockRetries = DefaultModifyDNLockRetries
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultMetricsNamespace
	}
}
