package config

import "time"

const (
	defaultStreamBufferSize = 64 * 1024 // bytes, matches bucketstore.defaultStreamBufferSize
	defaultFsyncInterval    = 1 * time.Second
	defaultPurgeWorkers     = 4
	defaultLogLevel         = "INFO"
	defaultLogFormat        = "text"
	defaultLogOutput        = "stdout"
	defaultMetricsPort      = 9090
	defaultAdminAddr        = ":8088"
)

// DefaultConfig returns a Config with every field set to its default
// value, suitable for use when no config file is found.
func DefaultConfig() *Config {
	cfg := &Config{
		CacheName: "default",
		FsyncMode: FsyncBuffered,
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields of cfg with defaults. Called
// after unmarshalling a partial config file, so only values the file
// didn't set are touched.
func ApplyDefaults(cfg *Config) {
	if cfg.Location == "" {
		cfg.Location = "./fcstore-data"
	}
	if cfg.CacheName == "" {
		cfg.CacheName = "default"
	}
	if cfg.StreamBufferSize == 0 {
		cfg.StreamBufferSize = defaultStreamBufferSize
	}
	if cfg.FsyncMode == "" {
		cfg.FsyncMode = FsyncBuffered
	}
	if cfg.FsyncMode == FsyncPeriodic && cfg.FsyncInterval <= 0 {
		cfg.FsyncInterval = defaultFsyncInterval
	}
	if cfg.MultiThreadedPurge && cfg.PurgeWorkers <= 0 {
		cfg.PurgeWorkers = defaultPurgeWorkers
	}

	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyAdminDefaults(&cfg.Admin)
}

func applyLoggingDefaults(c *LoggingConfig) {
	if c.Level == "" {
		c.Level = defaultLogLevel
	}
	if c.Format == "" {
		c.Format = defaultLogFormat
	}
	if c.Output == "" {
		c.Output = defaultLogOutput
	}
}

func applyTelemetryDefaults(c *TelemetryConfig) {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

func applyMetricsDefaults(c *MetricsConfig) {
	if c.Port == 0 {
		c.Port = defaultMetricsPort
	}
}

func applyAdminDefaults(c *AdminConfig) {
	if c.Addr == "" {
		c.Addr = defaultAdminAddr
	}
}
