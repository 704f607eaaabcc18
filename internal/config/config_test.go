package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
model:
  provider: anthropic
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model.Name == "" {
		t.Fatal("expected default model name")
	}
	if cfg.Approval.Policy != "on_request" {
		t.Fatalf("expected default approval policy on_request, got %q", cfg.Approval.Policy)
	}
	if cfg.Compaction.AutoThreshold != 0.75 {
		t.Fatalf("expected default auto_threshold 0.75, got %v", cfg.Compaction.AutoThreshold)
	}
	if len(cfg.Tools.Enabled) == 0 {
		t.Fatal("expected default tool set")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
model:
  provider: anthropic
  bogus_field: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadValidatesApprovalPolicy(t *testing.T) {
	path := writeConfig(t, `
approval:
  policy: not_a_real_policy
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadExpandsEnvAndIncludes(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.yaml")
	if err := os.WriteFile(basePath, []byte("model:\n  name: included-model\n"), 0o644); err != nil {
		t.Fatalf("write base: %v", err)
	}

	os.Setenv("AGENTCORE_TEST_PROVIDER", "openai")
	defer os.Unsetenv("AGENTCORE_TEST_PROVIDER")

	mainPath := filepath.Join(dir, "main.yaml")
	mainContents := "$include: base.yaml\nmodel:\n  provider: ${AGENTCORE_TEST_PROVIDER}\n"
	if err := os.WriteFile(mainPath, []byte(mainContents), 0o644); err != nil {
		t.Fatalf("write main: %v", err)
	}
	cfg, err := Load(mainPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model.Provider != "openai" {
		t.Fatalf("expected env-expanded provider openai, got %q", cfg.Model.Provider)
	}
	if cfg.Model.Name != "included-model" {
		t.Fatalf("expected included model name, got %q", cfg.Model.Name)
	}
}
