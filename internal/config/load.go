package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides, for example
// OBA_ACI_ACL_MODIFY_DN_LOCK_RETRIES=5.
const EnvPrefix = "OBA_ACI"

// ErrFileNotFound is returned when an explicitly named configuration file
// does not exist.
var ErrFileNotFound = errors.New("configuration file not found")

// Load loads configuration from path, the environment and defaults.
//
// Precedence, highest first: OBA_ACI_* environment variables, the file,
// defaults. An empty path skips the file. ${VAR} and ${VAR:-default}
// references in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	v := viper.New()
	setupViper(v)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigType(configType(path))
		if err := v.ReadConfig(bytes.NewReader(ExpandEnv(data))); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// setupViper configures environment overrides. Every key gets a default so
// that AutomaticEnv can see it during Unmarshal.
func setupViper(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("logging.output", DefaultLogOutput)

	v.SetDefault("acl.global_acis", []string{})
	v.SetDefault("acl.bootstrap_file", "")
	v.SetDefault("acl.watch_bootstrap", false)
	v.SetDefault("acl.watch_debounce", DefaultWatchDebounce)
	v.SetDefault("acl.max_ber_element_size", DefaultMaxBERElementSize)
	v.SetDefault("acl.modify_dn_lock_retries", DefaultModifyDNLockRetries)
	v.SetDefault("acl.dns_canonical_check", false)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		aciListDecodeHook(),
	)
}

// durationDecodeHook converts strings like "250ms" and raw integers
// (nanoseconds) to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// aciListDecodeHook splits a single string into one ACI per non-blank line.
// ACI text contains commas, so the usual comma split does not apply.
func aciListDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}
		var out []string
		for _, line := range strings.Split(data.(string), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out, nil
	}
}
