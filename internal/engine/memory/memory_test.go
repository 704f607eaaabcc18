package memory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/registry"
)

func TestBuildSystemPromptComposesSections(t *testing.T) {
	prompt := BuildSystemPrompt(SystemPromptConfig{
		BaseInstructions: "You are a helpful assistant.",
		UserInstructions: "Always answer in Go.",
		Cwd:              "/workspace",
		ApprovalPolicy:   model.ApprovalOnRequest,
		SandboxPolicy:    model.SandboxWorkspaceWrite,
		Tools: []registry.ToolInfo{
			{Name: "bash", Description: "run shell commands"},
		},
	})

	for _, want := range []string{
		"You are a helpful assistant.",
		"Always answer in Go.",
		"/workspace",
		string(model.ApprovalOnRequest),
		string(model.SandboxWorkspaceWrite),
		"bash",
	} {
		if !contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}
}

func TestNewSessionWritesMetaAndSystemMessage(t *testing.T) {
	dir := t.TempDir()
	m, err := NewSession(NewSessionParams{
		SessionDir:       dir,
		SessionID:        "sess-1",
		Cwd:              dir,
		Model:            "test-model",
		BaseInstructions: "base",
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer m.Close()

	msgs := m.Messages(false, false)
	if len(msgs) != 1 || msgs[0].Role != model.RoleSystem {
		t.Fatalf("expected a single system message, got %+v", msgs)
	}

	stats := m.Stats()
	if stats.SystemMessages != 1 || stats.TotalMessages != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestResumeReplaysHistory(t *testing.T) {
	dir := t.TempDir()
	m, err := NewSession(NewSessionParams{SessionDir: dir, SessionID: "sess-2", Cwd: dir, Model: "test-model"})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	m.AddUserMessage("hello")
	m.AddAssistantMessage("hi there", nil)
	path := m.RolloutPath()
	m.Close()

	resumed, err := Resume(path)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	defer resumed.Close()

	msgs := resumed.Messages(false, false)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages (system + user + assistant), got %d", len(msgs))
	}
	if resumed.SessionID() != "sess-2" {
		t.Fatalf("expected session id sess-2, got %q", resumed.SessionID())
	}
}

func TestProjectDocLoadedIntoSystemPrompt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "AGENTS.md"), []byte("follow these rules"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m, err := NewSession(NewSessionParams{
		SessionDir:          t.TempDir(),
		SessionID:           "sess-3",
		Cwd:                 dir,
		Model:               "test-model",
		AutoLoadProjectDocs: true,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer m.Close()

	msgs := m.Messages(false, false)
	if !contains(msgs[0].Content, "follow these rules") {
		t.Fatalf("expected system message to include project doc content, got: %s", msgs[0].Content)
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
