package config

// SessionConfig bounds a session's turn budget and where its rollout files
// live, grounded on SPEC_FULL section 6's session.max_turns/rollout_dir keys.
type SessionConfig struct {
	MaxTurns            int    `yaml:"max_turns"`
	RolloutDir          string `yaml:"rollout_dir"`
	AutoLoadProjectDocs bool   `yaml:"auto_load_project_docs"`
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = 50
	}
}
