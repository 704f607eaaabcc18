// Package model defines the core data types shared by every engine
// subsystem: messages, tool calls, sessions, submissions and events.
package model

import "time"

// Role identifies who authored a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a session's conversation history.
//
// ToolCalls is only set on assistant messages that request tool
// invocations. ToolCallID is only set on tool messages, and must
// reference a call_id emitted by the immediately preceding assistant
// message (invariant I-1 in SPEC_FULL.md section 3).
type Message struct {
	Role       Role           `json:"role"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	ToolCalls  []ToolCallRef  `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Metadata flag keys used by the compaction engine.
const (
	MetaSummary        = "summary"
	MetaRecoveryPrompt  = "recovery_prompt"
	MetaCompressed      = "compressed"
	MetaCompactedAt     = "compacted_at"
)

// IsSummary reports whether this message is a compaction-generated summary.
func (m *Message) IsSummary() bool {
	v, _ := m.Metadata[MetaSummary].(bool)
	return v
}

// IsRecoveryPrompt reports whether this message is the recovery prompt that
// follows a compaction summary.
func (m *Message) IsRecoveryPrompt() bool {
	v, _ := m.Metadata[MetaRecoveryPrompt].(bool)
	return v
}

// IsCompressed reports whether this message is the synthetic summary message
// rebuilt from a rollout's CompactedMarker on resume.
func (m *Message) IsCompressed() bool {
	v, _ := m.Metadata[MetaCompressed].(bool)
	return v
}

// SetMeta sets a metadata flag, allocating the map if necessary.
func (m *Message) SetMeta(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// ToolCallRef references one tool invocation requested by the model.
//
// CallID is an opaque, LLM-supplied identifier. The engine must treat it as
// an identifier only and never parse or derive meaning from its contents.
type ToolCallRef struct {
	CallID    string         `json:"call_id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the uniform record returned by the tool registry for every
// dispatched call. Tools that raise exceptions are normalized into a result
// with Success=false and a non-empty Error; the registry boundary never lets
// a tool panic or error escape as a Go error to the Agent Turn.
type ToolResult struct {
	Title    string         `json:"title"`
	Output   string         `json:"output"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
}

// TokenUsage tracks cumulative input/output/total token counts for a session.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// Add accumulates usage from a single model call. Total usage is
// monotonically non-decreasing within a session (invariant I-4).
func (t *TokenUsage) Add(u TokenUsage) {
	t.Input += u.Input
	t.Output += u.Output
	t.Total += u.Total
}

// ApprovalDecision is the outcome of an approval request for a pending tool call.
type ApprovalDecision string

const (
	DecisionApproved            ApprovalDecision = "approved"
	DecisionApprovedForSession  ApprovalDecision = "approved_for_session"
	DecisionDenied              ApprovalDecision = "denied"
)

// PendingCall is a tool call awaiting an approval decision.
type PendingCall struct {
	CallID      string    `json:"call_id"`
	Name        string    `json:"name"`
	Arguments   map[string]any `json:"arguments"`
	RequestedAt time.Time `json:"requested_at"`
}

// Session is the full in-memory state of one conversation.
type Session struct {
	SessionID        string                  `json:"session_id"`
	CreatedAt        time.Time               `json:"created_at"`
	Cwd              string                  `json:"cwd"`
	ModelName        string                  `json:"model_name"`
	Messages         []Message               `json:"messages"`
	TokenUsage       TokenUsage              `json:"token_usage"`
	ApprovalPending  map[string]PendingCall  `json:"approval_pending"`
	CurrentSubmissionID string               `json:"current_submission_id,omitempty"`
	IsActive         bool                    `json:"is_active"`
}

// OpKind discriminates the three Submission operations the engine accepts.
type OpKind string

const (
	OpUserInput     OpKind = "user_input"
	OpInterrupt     OpKind = "interrupt"
	OpExecApproval  OpKind = "exec_approval"
)

// Submission is one entry on the engine's ingress queue.
type Submission struct {
	ID   string `json:"id"`
	Op   OpKind `json:"op"`

	// UserInput fields.
	Text string `json:"text,omitempty"`
	Cwd  string `json:"cwd,omitempty"`

	// ExecApproval fields.
	CallID   string           `json:"call_id,omitempty"`
	Decision ApprovalDecision `json:"decision,omitempty"`
}

// EventType is a value from the closed set of event kinds the engine emits.
type EventType string

const (
	EventSessionConfigured   EventType = "session_configured"
	EventTaskStarted         EventType = "task_started"
	EventTaskComplete        EventType = "task_complete"
	EventUserMessage         EventType = "user_message"
	EventAgentMessage        EventType = "agent_message"
	EventToolExecutionBegin  EventType = "tool_execution_begin"
	EventToolExecutionEnd    EventType = "tool_execution_end"
	EventApprovalRequest     EventType = "approval_request"
	EventApprovalComplete    EventType = "approval_complete"
	EventApprovalRejected    EventType = "approval_rejected"
	EventTokenCount          EventType = "token_count"
	EventTurnAborted         EventType = "turn_aborted"
	EventError               EventType = "error"
	EventShutdownComplete    EventType = "shutdown_complete"
)

// Event is one entry on the engine's egress queue.
type Event struct {
	ID  string         `json:"id"`
	Msg EventMsg       `json:"msg"`
}

// EventMsg carries the event type discriminator and its payload.
type EventMsg struct {
	Type EventType      `json:"type"`
	Data map[string]any `json:"data"`
}

func newEvent(submissionID string, t EventType, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{ID: submissionID, Msg: EventMsg{Type: t, Data: data}}
}

// Event constructors. These mirror the shape of the original protocol's
// EventMsg classmethods so every call site builds a well-formed event.

func NewSessionConfigured(submissionID, sessionID, model, cwd string) Event {
	return newEvent(submissionID, EventSessionConfigured, map[string]any{
		"session_id": sessionID,
		"model":      model,
		"cwd":        cwd,
	})
}

func NewTaskStarted(submissionID string) Event {
	return newEvent(submissionID, EventTaskStarted, nil)
}

func NewTaskComplete(submissionID, lastMessage string) Event {
	return newEvent(submissionID, EventTaskComplete, map[string]any{
		"last_agent_message": lastMessage,
	})
}

func NewUserMessage(submissionID, text string) Event {
	return newEvent(submissionID, EventUserMessage, map[string]any{"message": text})
}

func NewAgentMessage(submissionID, text string) Event {
	return newEvent(submissionID, EventAgentMessage, map[string]any{"message": text})
}

func NewToolExecutionBegin(submissionID, callID, name string, args map[string]any) Event {
	return newEvent(submissionID, EventToolExecutionBegin, map[string]any{
		"call_id":   callID,
		"name":      name,
		"arguments": args,
	})
}

func NewToolExecutionEnd(submissionID, callID string, result ToolResult) Event {
	return newEvent(submissionID, EventToolExecutionEnd, map[string]any{
		"call_id": callID,
		"result":  result,
	})
}

func NewApprovalRequest(submissionID, callID, name string, args map[string]any) Event {
	return newEvent(submissionID, EventApprovalRequest, map[string]any{
		"call_id":   callID,
		"name":      name,
		"arguments": args,
	})
}

func NewApprovalComplete(submissionID, callID string, decision ApprovalDecision) Event {
	return newEvent(submissionID, EventApprovalComplete, map[string]any{
		"call_id":  callID,
		"decision": decision,
	})
}

func NewApprovalRejected(submissionID, callID string) Event {
	return newEvent(submissionID, EventApprovalRejected, map[string]any{"call_id": callID})
}

func NewTokenCount(submissionID string, usage TokenUsage) Event {
	return newEvent(submissionID, EventTokenCount, map[string]any{
		"input_tokens":  usage.Input,
		"output_tokens": usage.Output,
		"total_tokens":  usage.Total,
	})
}

func NewTurnAborted(submissionID, reason string) Event {
	return newEvent(submissionID, EventTurnAborted, map[string]any{"reason": reason})
}

func NewError(submissionID, message string) Event {
	return newEvent(submissionID, EventError, map[string]any{"message": message})
}

func NewShutdownComplete(submissionID string) Event {
	return newEvent(submissionID, EventShutdownComplete, nil)
}

// RolloutLineType discriminates rollout JSONL line kinds.
type RolloutLineType string

const (
	RolloutSessionMeta RolloutLineType = "session_meta"
	RolloutMessage     RolloutLineType = "message"
	RolloutCompacted   RolloutLineType = "compacted"
)

// SessionMeta is the first line of every rollout file.
type SessionMeta struct {
	SessionID        string    `json:"session_id"`
	CreatedAt        time.Time `json:"created_at"`
	Cwd              string    `json:"cwd"`
	ModelName        string    `json:"model_name"`
	UserInstructions string    `json:"user_instructions,omitempty"`
	ProjectDocs      string    `json:"project_docs,omitempty"`
}

// CompactedMarker records one run of the compaction engine in the rollout.
type CompactedMarker struct {
	Summary        string `json:"summary"`
	OriginalCount  int    `json:"original_count"`
	TokensSaved    int    `json:"tokens_saved"`
	Strategy       string `json:"strategy"`
}

// RolloutLine is one line of a session's JSONL transcript.
type RolloutLine struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      RolloutLineType `json:"type"`
	Meta      *SessionMeta     `json:"meta,omitempty"`
	Message   *Message         `json:"message,omitempty"`
	Compacted *CompactedMarker `json:"compacted,omitempty"`
}

// ApprovalPolicy is the command-approval gate applied to tool calls.
// Grounded on original_source/src/core/protocol.py's AskForApproval.
type ApprovalPolicy string

const (
	ApprovalUnlessTrusted ApprovalPolicy = "unless_trusted"
	ApprovalOnFailure     ApprovalPolicy = "on_failure"
	ApprovalOnRequest     ApprovalPolicy = "on_request"
	ApprovalNever         ApprovalPolicy = "never"
)

// SandboxPolicy informs (but does not enforce) which tool invocations skip
// the approval gate. Sandbox enforcement itself is out of scope (spec Non-goals).
type SandboxPolicy string

const (
	SandboxDangerFullAccess SandboxPolicy = "danger_full_access"
	SandboxReadOnly         SandboxPolicy = "read_only"
	SandboxWorkspaceWrite   SandboxPolicy = "workspace_write"
)
