// Package config loads the engine's YAML configuration: model selection,
// compaction tuning, approval/sandbox policy, session limits, and the tool
// catalogue, with JSON5 comments and $include directives supported by
// loader.go. Grounded on the teacher's internal/config, trimmed to the
// concerns this engine actually has (no channels, gateway, plugins, or
// multi-tenant auth).
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config is the root configuration structure.
type Config struct {
	Version      int             `yaml:"version"`
	Instructions string          `yaml:"instructions"`
	Model        ModelConfig     `yaml:"model"`
	Compaction   CompactionConfig `yaml:"compaction"`
	Approval     ApprovalConfig  `yaml:"approval"`
	Session      SessionConfig   `yaml:"session"`
	Tools        ToolsConfig     `yaml:"tools"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Load reads, resolves includes, expands env vars, and validates a config
// file, applying defaults for anything left unset.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with every field set to its default value, as if
// an empty file had been loaded. Used by callers that want to run without a
// config file at all, e.g. the CLI's --config-less invocation.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	applyModelDefaults(&cfg.Model)
	applyCompactionDefaults(&cfg.Compaction)
	applyApprovalDefaults(&cfg.Approval)
	applySessionDefaults(&cfg.Session)
	applyToolsDefaults(&cfg.Tools)
	applyObservabilityDefaults(&cfg.Observability)
}

// applyEnvOverrides lets a handful of high-churn settings be overridden
// without editing the config file, grounded on the teacher's
// applyEnvOverrides convention.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("AGENTCORE_MODEL_PROVIDER")); v != "" {
		cfg.Model.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTCORE_MODEL_NAME")); v != "" {
		cfg.Model.Name = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTCORE_APPROVAL_POLICY")); v != "" {
		cfg.Approval.Policy = v
	}
}

// ConfigValidationError reports a field-level configuration problem.
type ConfigValidationError struct {
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Reason)
}

func validateConfig(cfg *Config) error {
	if err := ValidateVersion(cfg.Version); err != nil {
		return err
	}
	if !validApprovalPolicy(cfg.Approval.Policy) {
		return &ConfigValidationError{Field: "approval.policy", Reason: "must be one of unless_trusted, on_failure, on_request, never"}
	}
	if !validSandboxPolicy(cfg.Approval.Sandbox) {
		return &ConfigValidationError{Field: "approval.sandbox", Reason: "must be one of danger_full_access, read_only, workspace_write"}
	}
	if cfg.Session.MaxTurns <= 0 {
		return &ConfigValidationError{Field: "session.max_turns", Reason: "must be positive"}
	}
	if cfg.Compaction.AutoThreshold <= 0 || cfg.Compaction.AutoThreshold > 1 {
		return &ConfigValidationError{Field: "compaction.auto_threshold", Reason: "must be in (0, 1]"}
	}
	return nil
}

func validApprovalPolicy(v string) bool {
	switch v {
	case "unless_trusted", "on_failure", "on_request", "never":
		return true
	default:
		return false
	}
}

func validSandboxPolicy(v string) bool {
	switch v {
	case "danger_full_access", "read_only", "workspace_write":
		return true
	default:
		return false
	}
}
