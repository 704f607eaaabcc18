package config

// CompactionConfig tunes the OpenCode compaction strategy, grounded on
// original_source/src/core/compaction/strategies/opencode.py's constants.
type CompactionConfig struct {
	AutoThreshold float64 `yaml:"auto_threshold"`
	PruneMinimum  int     `yaml:"prune_minimum"`
	PruneProtect  int     `yaml:"prune_protect"`
	ProtectTurns  int     `yaml:"protect_turns"`
}

func applyCompactionDefaults(cfg *CompactionConfig) {
	if cfg.AutoThreshold == 0 {
		cfg.AutoThreshold = 0.75
	}
	if cfg.PruneMinimum == 0 {
		cfg.PruneMinimum = 5000
	}
	if cfg.PruneProtect == 0 {
		cfg.PruneProtect = 10000
	}
	if cfg.ProtectTurns == 0 {
		cfg.ProtectTurns = 2
	}
}
