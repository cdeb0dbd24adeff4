// Package config loads the access control engine configuration.
package config

import (
	"time"

	"github.com/KilimcininKorOglu/oba-aci/internal/logging"
)

// Config holds the complete engine configuration.
type Config struct {
	Logging LogConfig     `mapstructure:"logging" json:"logging" yaml:"logging"`
	ACL     ACLConfig     `mapstructure:"acl" json:"acl" yaml:"acl"`
	Metrics MetricsConfig `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" validate:"required,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR" yaml:"level"`
	Format string `mapstructure:"format" json:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" json:"output" validate:"required" yaml:"output"`
}

// LoggerConfig converts c for logging.New.
func (c LogConfig) LoggerConfig() logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format, Output: c.Output}
}

// ACLConfig holds access control configuration.
type ACLConfig struct {
	// GlobalACIs are the ds-cfg-global-aci values, applied to every entry.
	GlobalACIs []string `mapstructure:"global_acis" json:"global_acis" yaml:"global_acis"`

	// BootstrapFile is a YAML file of entries carrying aci values, loaded
	// into the rule cache at startup.
	BootstrapFile string `mapstructure:"bootstrap_file" json:"bootstrap_file" validate:"required_if=WatchBootstrap true" yaml:"bootstrap_file"`

	// WatchBootstrap reloads BootstrapFile when it changes on disk.
	WatchBootstrap bool `mapstructure:"watch_bootstrap" json:"watch_bootstrap" yaml:"watch_bootstrap"`

	// WatchDebounce coalesces bursts of file events.
	WatchDebounce time.Duration `mapstructure:"watch_debounce" json:"watch_debounce" validate:"gte=0" yaml:"watch_debounce"`

	// MaxBERElementSize bounds a single BER element; 0 means unlimited.
	MaxBERElementSize int `mapstructure:"max_ber_element_size" json:"max_ber_element_size" validate:"gte=0" yaml:"max_ber_element_size"`

	// ModifyDNLockRetries is how many times a modify DN check tries to
	// read-lock the new superior before denying.
	ModifyDNLockRetries int `mapstructure:"modify_dn_lock_retries" json:"modify_dn_lock_retries" validate:"min=1,max=100" yaml:"modify_dn_lock_retries"`

	// DNSCanonicalCheck warns when a dns bind rule names a host that is not
	// its canonical name.
	DNSCanonicalCheck bool `mapstructure:"dns_canonical_check" json:"dns_canonical_check" yaml:"dns_canonical_check"`
}

// MetricsConfig holds prometheus metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Namespace string `mapstructure:"namespace" json:"namespace" validate:"omitempty,metricname" yaml:"namespace"`
}
