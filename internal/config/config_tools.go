package config

import "time"

// ToolsConfig selects which built-in tools are registered and configures
// their per-tool knobs.
type ToolsConfig struct {
	Enabled  []string       `yaml:"enabled"`
	Bash     BashToolConfig `yaml:"bash"`
	ReadFile ReadToolConfig `yaml:"read_file"`
	WebFetch WebFetchConfig `yaml:"web_fetch"`
}

// BashToolConfig bounds shell command execution.
type BashToolConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ReadToolConfig bounds how much of a file the read tool returns by default.
type ReadToolConfig struct {
	MaxBytes int `yaml:"max_bytes"`
}

// WebFetchConfig bounds fetched page content.
type WebFetchConfig struct {
	MaxChars int `yaml:"max_chars"`
}

var defaultToolSet = []string{
	"bash", "read", "write", "edit", "glob", "grep", "web_fetch", "todo_write", "todo_read", "task",
}

func applyToolsDefaults(cfg *ToolsConfig) {
	if len(cfg.Enabled) == 0 {
		cfg.Enabled = append([]string(nil), defaultToolSet...)
	}
	if cfg.Bash.TimeoutSeconds == 0 {
		cfg.Bash.TimeoutSeconds = int((60 * time.Second).Seconds())
	}
	if cfg.ReadFile.MaxBytes == 0 {
		cfg.ReadFile.MaxBytes = 256 * 1024
	}
	if cfg.WebFetch.MaxChars == 0 {
		cfg.WebFetch.MaxChars = 50_000
	}
}
