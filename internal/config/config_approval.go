package config

// ApprovalConfig carries the approval gate's policy and sandbox settings as
// plain strings (validated against model.ApprovalPolicy/model.SandboxPolicy
// by the session layer, which owns the typed enum) so this package stays
// free of a dependency on internal/model.
type ApprovalConfig struct {
	Policy  string `yaml:"policy"`
	Sandbox string `yaml:"sandbox"`
}

func applyApprovalDefaults(cfg *ApprovalConfig) {
	if cfg.Policy == "" {
		cfg.Policy = "on_request"
	}
	if cfg.Sandbox == "" {
		cfg.Sandbox = "workspace_write"
	}
}
