package config

// ObservabilityConfig configures the structured logger, tracer, and metrics
// exporter, grounded on internal/observability's LogConfig/TraceConfig.
type ObservabilityConfig struct {
	LogLevel      string  `yaml:"log_level"`
	LogFormat     string  `yaml:"log_format"`
	TraceEndpoint string  `yaml:"trace_endpoint"`
	SamplingRate  float64 `yaml:"sampling_rate"`
	MetricsAddr   string  `yaml:"metrics_addr"`
}

func applyObservabilityDefaults(cfg *ObservabilityConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.SamplingRate == 0 {
		cfg.SamplingRate = 1.0
	}
}
