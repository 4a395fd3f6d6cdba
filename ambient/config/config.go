// Package config loads fcstore's configuration the way the corpus loads
// its own: layered viper sources (environment > config file > defaults; there
// is no command-line flag layer), mapstructure decode hooks for duration and
// byte-size fields,
// and go-playground/validator struct-tag validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/cachebarn/fcstore/internal/bytesize"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FsyncMode selects the filesync.FileSync durability strategy a Store uses.
type FsyncMode string

const (
	FsyncPerWrite FsyncMode = "PERWRITE"
	FsyncBuffered FsyncMode = "BUFFERED"
	FsyncPeriodic FsyncMode = "PERIODIC"
)

// Config is fcstore's runtime configuration.
type Config struct {
	// Location is the root directory the store's bucket files live under.
	Location string `mapstructure:"location" yaml:"location" validate:"required"`

	// CacheName identifies this store instance in logs, metrics and traces.
	CacheName string `mapstructure:"cache_name" yaml:"cache_name" validate:"required"`

	// StreamBufferSize is the configured buffer size for bulk stream
	// transfers. Accepts human-readable sizes ("4MiB", "64Ki") via
	// bytesize.ByteSize. The Store does not receive this value: ToStream and
	// FromStream always use bucketstore's fixed 64 KiB buffer.
	StreamBufferSize bytesize.ByteSize `mapstructure:"stream_buffer_size" yaml:"stream_buffer_size" validate:"required,gt=0"`

	// FsyncMode selects the durability strategy: PERWRITE, BUFFERED or
	// PERIODIC.
	FsyncMode FsyncMode `mapstructure:"fsync_mode" yaml:"fsync_mode" validate:"required,oneof=PERWRITE BUFFERED PERIODIC"`

	// FsyncInterval is the background flush period when FsyncMode is
	// PERIODIC. Ignored otherwise.
	FsyncInterval time.Duration `mapstructure:"fsync_interval" yaml:"fsync_interval" validate:"required_if=FsyncMode PERIODIC"`

	// MultiThreadedPurge enables bounded-concurrency expiry sweeps
	// (Store.PurgeExpiredParallel) instead of the sequential default.
	MultiThreadedPurge bool `mapstructure:"multi_threaded_purge" yaml:"multi_threaded_purge"`

	// PurgeWorkers bounds concurrency when MultiThreadedPurge is set.
	PurgeWorkers int `mapstructure:"purge_workers" yaml:"purge_workers" validate:"omitempty,gt=0"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics controls the Prometheus metrics HTTP endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Admin controls the administrative HTTP API (health, export/import,
	// purge, clear).
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"omitempty,gte=0,lte=1"`
}

// MetricsConfig controls the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// AdminConfig controls the administrative HTTP API.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// Load reads the config file (configPath, or config.yaml in the default
// config directory when configPath is empty), with FCSTORE_-prefixed
// environment variables overriding the keys the file sets, then fills any
// field still zero with its default and validates. When no config file is
// found, Load returns DefaultConfig() as is and the environment is not
// consulted.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !found {
		cfg := DefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("fcstore: unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("fcstore: config validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes cfg to path in YAML, creating parent directories as
// needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("fcstore: create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("fcstore: marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("fcstore: write config file: %w", err)
	}
	return nil
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("FCSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("fcstore: read config file: %w", err)
	}
	return true, nil
}

func defaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "fcstore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fcstore"
	}
	return filepath.Join(home, ".config", "fcstore")
}

// configDecodeHooks combines the byte-size and duration decode hooks so
// config files can use human-readable strings for both.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

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
