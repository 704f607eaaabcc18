// Package memory implements the Memory Manager: the in-memory message list
// and system-prompt composition, persisted through the Rollout Recorder.
// Grounded on original_source/src/core/memory/memory_manager.py.
package memory

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xushun007/agentcore/internal/engine/rollout"
	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/registry"
)

// SystemPromptConfig carries everything the pure system-prompt builder needs,
// so it can be tested without constructing a Manager. Mirrors the inputs to
// _build_system_prompt/_build_environment_info in the Python reference.
type SystemPromptConfig struct {
	BaseInstructions    string
	UserInstructions    string
	Cwd                 string
	ApprovalPolicy      model.ApprovalPolicy
	SandboxPolicy       model.SandboxPolicy
	Tools               []registry.ToolInfo
	AutoLoadProjectDocs bool
}

// BuildSystemPrompt composes the full system message: base instructions,
// user instructions, project docs, environment info, and the tool catalogue.
// A pure function (no I/O beyond the project-doc read), grounded on
// memory_manager.py's _build_system_prompt/_build_environment_info.
func BuildSystemPrompt(cfg SystemPromptConfig) string {
	prompt := cfg.BaseInstructions
	if prompt == "" {
		prompt = "You are an AI coding assistant."
	}

	if cfg.UserInstructions != "" {
		prompt += "\n\nUser instructions:\n" + cfg.UserInstructions
	}

	if cfg.AutoLoadProjectDocs && cfg.Cwd != "" {
		if doc, ok := projectDocSystemMessage(cfg.Cwd); ok {
			prompt += "\n\n" + doc
		}
	}

	prompt += "\n\n" + buildEnvironmentInfo(cfg)
	return prompt
}

func buildEnvironmentInfo(cfg SystemPromptConfig) string {
	out := fmt.Sprintf("## Current environment\n\nWorking directory: %s\n", cfg.Cwd)
	if cfg.ApprovalPolicy != "" {
		out += fmt.Sprintf("Approval policy: %s\n", cfg.ApprovalPolicy)
	}
	if cfg.SandboxPolicy != "" {
		out += fmt.Sprintf("Sandbox policy: %s\n", cfg.SandboxPolicy)
	}

	if len(cfg.Tools) > 0 {
		out += "\n## Available tools\n\nYou may use the following tools:\n"
		for i, t := range cfg.Tools {
			out += fmt.Sprintf("%d. %s - %s\n", i+1, t.Name, t.Description)
		}
		out += "\nUse the appropriate tool to complete the user's request. Operations that carry risk are gated by the approval policy above.\n"
	}
	return out
}

// NewSessionParams configures a freshly started session.
type NewSessionParams struct {
	SessionDir          string
	SessionID           string
	Cwd                 string
	Model               string
	BaseInstructions    string
	UserInstructions    string
	ApprovalPolicy      model.ApprovalPolicy
	SandboxPolicy       model.SandboxPolicy
	Tools               []registry.ToolInfo
	AutoLoadProjectDocs bool
}

// Manager is the Memory Manager: a pure storage layer holding the runtime
// message list and persisting every change through a Recorder. It makes no
// compaction decisions — that is the Compaction Engine's job.
type Manager struct {
	sessionID string
	cwd       string
	modelName string
	messages  []model.Message
	recorder  *rollout.Recorder
}

// NewSession starts a brand-new session: writes the session_meta header,
// composes and appends the system prompt, and returns a ready Manager.
func NewSession(p NewSessionParams) (*Manager, error) {
	path := rollout.PathFor(p.SessionDir, p.SessionID)
	rec, err := rollout.Open(path)
	if err != nil {
		return nil, err
	}

	var projectDocs string
	if p.AutoLoadProjectDocs {
		if doc, ok := projectDocSystemMessage(p.Cwd); ok {
			projectDocs = doc
		}
	}

	meta := model.SessionMeta{
		SessionID:        p.SessionID,
		CreatedAt:        time.Now(),
		Cwd:              p.Cwd,
		ModelName:        p.Model,
		UserInstructions: p.UserInstructions,
		ProjectDocs:      projectDocs,
	}
	if err := rec.WriteSessionMeta(meta); err != nil {
		rec.Close()
		return nil, err
	}

	m := &Manager{sessionID: p.SessionID, cwd: p.Cwd, modelName: p.Model, recorder: rec}

	prompt := BuildSystemPrompt(SystemPromptConfig{
		BaseInstructions:    p.BaseInstructions,
		UserInstructions:    p.UserInstructions,
		Cwd:                 p.Cwd,
		ApprovalPolicy:      p.ApprovalPolicy,
		SandboxPolicy:       p.SandboxPolicy,
		Tools:               p.Tools,
		AutoLoadProjectDocs: p.AutoLoadProjectDocs,
	})
	if prompt != "" {
		if _, err := m.AddSystemMessage(prompt); err != nil {
			rec.Close()
			return nil, err
		}
	}
	return m, nil
}

// Resume reopens an existing rollout file in append mode and replays its
// history into the message list, grounded on
// memory_manager.py's resume_session classmethod.
func Resume(rolloutPath string) (*Manager, error) {
	meta, messages, err := rollout.LoadHistory(rolloutPath)
	if err != nil {
		return nil, err
	}
	rec, err := rollout.Open(rolloutPath)
	if err != nil {
		return nil, err
	}
	return &Manager{
		sessionID: meta.SessionID,
		cwd:       meta.Cwd,
		modelName: meta.ModelName,
		messages:  messages,
		recorder:  rec,
	}, nil
}

// Close flushes and closes the underlying rollout recorder.
func (m *Manager) Close() error { return m.recorder.Close() }

// SessionID returns the session this manager belongs to.
func (m *Manager) SessionID() string { return m.sessionID }

// RolloutPath returns the path of the underlying rollout file.
func (m *Manager) RolloutPath() string { return m.recorder.Path() }

func (m *Manager) append(msg model.Message) (model.Message, error) {
	m.messages = append(m.messages, msg)
	if err := m.recorder.WriteMessage(msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// AddSystemMessage appends and persists a system message.
func (m *Manager) AddSystemMessage(content string) (model.Message, error) {
	return m.append(model.Message{Role: model.RoleSystem, Content: content, Timestamp: time.Now()})
}

// AddUserMessage appends and persists a user message.
func (m *Manager) AddUserMessage(content string) (model.Message, error) {
	return m.append(model.Message{Role: model.RoleUser, Content: content, Timestamp: time.Now()})
}

// AddAssistantMessage appends and persists an assistant message, optionally
// carrying tool calls.
func (m *Manager) AddAssistantMessage(content string, toolCalls []model.ToolCallRef) (model.Message, error) {
	return m.append(model.Message{
		Role: model.RoleAssistant, Content: content, Timestamp: time.Now(), ToolCalls: toolCalls,
	})
}

// AddToolMessage appends and persists a tool-result message.
func (m *Manager) AddToolMessage(content, toolCallID string) (model.Message, error) {
	return m.append(model.Message{
		Role: model.RoleTool, Content: content, Timestamp: time.Now(), ToolCallID: toolCallID,
	})
}

// AddMessage appends and persists an already-constructed message.
func (m *Manager) AddMessage(msg model.Message) error {
	_, err := m.append(msg)
	return err
}

// Messages returns a copy of the message history, optionally filtering out
// system messages and/or compaction-summary messages.
func (m *Manager) Messages(filterSystem, filterCompressed bool) []model.Message {
	out := make([]model.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if filterSystem && msg.Role == model.RoleSystem {
			continue
		}
		if filterCompressed && (msg.IsSummary() || msg.IsCompressed()) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// ReplaceMessages swaps in a new message history, used by the Compaction
// Engine after it produces a pruned/summarized replacement. persist controls
// whether the new messages are also appended to the rollout file: the
// compaction caller writes a CompactedMarker itself via RecordCompaction and
// passes persist=false, while a resumed session's replay needs no further
// persistence either.
func (m *Manager) ReplaceMessages(messages []model.Message, persist bool) error {
	m.messages = messages
	if !persist {
		return nil
	}
	for _, msg := range messages {
		if err := m.recorder.WriteMessage(msg); err != nil {
			return err
		}
	}
	return nil
}

// RecordCompaction writes a CompactedMarker line to the rollout file.
func (m *Manager) RecordCompaction(summary string, originalCount, tokensSaved int, strategy string) error {
	return m.recorder.WriteCompactedMarker(model.CompactedMarker{
		Summary:       summary,
		OriginalCount: originalCount,
		TokensSaved:   tokensSaved,
		Strategy:      strategy,
	})
}

// Stats summarizes the current message history.
type Stats struct {
	SessionID         string
	TotalMessages     int
	UserMessages      int
	AssistantMessages int
	SystemMessages    int
	ToolMessages      int
	RolloutPath       string
	Cwd               string
	Model             string
}

// Stats computes summary counts over the current message history.
func (m *Manager) Stats() Stats {
	s := Stats{
		SessionID:   m.sessionID,
		RolloutPath: m.recorder.Path(),
		Cwd:         m.cwd,
		Model:       m.modelName,
	}
	for _, msg := range m.messages {
		s.TotalMessages++
		switch msg.Role {
		case model.RoleUser:
			s.UserMessages++
		case model.RoleAssistant:
			s.AssistantMessages++
		case model.RoleSystem:
			s.SystemMessages++
		case model.RoleTool:
			s.ToolMessages++
		}
	}
	return s
}

// ListSessions lists the rollout files under dir, delegating to the Rollout
// Recorder's directory scan.
func ListSessions(dir string) ([]rollout.SessionFile, error) {
	return rollout.ListSessions(dir)
}

// DefaultSessionDir returns the conventional per-project session storage
// directory, grounded on the teacher's local state-directory convention.
func DefaultSessionDir(cwd string) string {
	return filepath.Join(cwd, ".agentcore", "sessions")
}
