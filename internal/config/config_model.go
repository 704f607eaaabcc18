package config

// ModelConfig selects the active provider and model, grounded on SPEC_FULL
// section 6's model.provider/model.name/model.api_key_env keys.
type ModelConfig struct {
	Provider  string `yaml:"provider"`
	Name      string `yaml:"name"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
}

func applyModelDefaults(cfg *ModelConfig) {
	if cfg.Provider == "" {
		cfg.Provider = "anthropic"
	}
	if cfg.Name == "" {
		cfg.Name = "claude-sonnet-4-20250514"
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
}
