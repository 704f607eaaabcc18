// Package turn implements the Agent Turn: one LLM round-trip plus the tool
// execution that follows it, grounded on
// original_source/src/core/agent_turn.py's AgentTurn.execute_turn, adapted
// from the teacher's multi-provider streaming loop
// (internal/agent/tool_exec.go, internal/agent/tool_result_guard.go) to a
// single non-streaming completion per turn.
package turn

import (
	"context"
	"encoding/json"

	"github.com/xushun007/agentcore/internal/backoff"
	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/modelclient"
	"github.com/xushun007/agentcore/internal/registry"
)

// Attachment is an image/file carried on a tool result, grounded on the
// teacher's attachments.go. Multimodal rendering to providers is out of
// scope; the field is only passed through.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Config configures one Agent Turn.
type Config struct {
	Provider       modelclient.Provider
	Registry       *registry.Registry
	Model          string
	MaxTokens      int
	ApprovalPolicy model.ApprovalPolicy
	SandboxPolicy  model.SandboxPolicy
	RetryPolicy    backoff.BackoffPolicy
	MaxAttempts    int
}

// ApprovalFunc resolves a pending tool call to a decision. The Session/Engine
// implements this by emitting an approval_request event and blocking on the
// matching submission.
type ApprovalFunc func(ctx context.Context, call model.PendingCall) (model.ApprovalDecision, error)

// Hooks lets the caller observe and steer a turn as it runs. All fields are
// optional.
type Hooks struct {
	// OnResponse is called once the model's text and requested tool calls are
	// known, before any tool executes. Grounded on agent_turn.py's ordering:
	// the assistant message (text + tool_calls) is recorded to history
	// immediately, ahead of tool execution.
	OnResponse func(text string, toolCalls []model.ToolCallRef)

	// OnToolBegin is called immediately before a tool call is dispatched
	// (after any approval gate has cleared it).
	OnToolBegin func(call model.ToolCallRef)

	// OnToolEnd is called after a tool call finishes (success or failure).
	OnToolEnd func(callID string, result model.ToolResult)

	// Approve gates a tool call needing approval. Required if any tool call
	// can trigger the approval policy; Run returns ErrNoProvider-adjacent
	// behavior (auto-deny) if nil and approval is needed.
	Approve ApprovalFunc

	// Interrupted is polled at each suspension point (before the LLM call,
	// before each tool execution). If it returns true, Run stops and returns
	// a Result with Aborted=true.
	Interrupted func() bool
}

// ToolCallOutcome is the result of one tool call within a turn.
type ToolCallOutcome struct {
	CallID           string
	Name             string
	Result           model.ToolResult
	ApprovalDecision model.ApprovalDecision
	Attachments      []Attachment
}

// Result is the outcome of one Agent Turn.
type Result struct {
	AssistantText string
	ToolCalls     []model.ToolCallRef
	ToolOutcomes  []ToolCallOutcome
	Usage         model.TokenUsage
	FinishReason  modelclient.FinishReason
	Aborted       bool
	AbortReason   string
}

// Run executes one Agent Turn: a single LLM completion call, followed by
// approval-gated execution of every tool call the model requested, in order.
// Grounded step-for-step on agent_turn.py's execute_turn/_handle_tool_calls.
func Run(ctx context.Context, cfg Config, history []modelclient.CompletionMessage, system string, tools []modelclient.ToolSpec, hooks Hooks) (*Result, error) {
	if cfg.Provider == nil {
		return nil, ErrNoProvider
	}
	if interrupted(hooks) {
		return &Result{Aborted: true, AbortReason: "interrupted before model call"}, nil
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	req := &modelclient.CompletionRequest{
		Model:     cfg.Model,
		System:    system,
		Messages:  history,
		Tools:     tools,
		MaxTokens: cfg.MaxTokens,
	}

	resp, err := completeWithRetry(ctx, cfg, req, maxAttempts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		AssistantText: resp.Text,
		ToolCalls:     resp.ToolCalls,
		Usage:         resp.Usage,
		FinishReason:  resp.FinishReason,
	}

	if hooks.OnResponse != nil && (resp.Text != "" || len(resp.ToolCalls) > 0) {
		hooks.OnResponse(resp.Text, resp.ToolCalls)
	}

	for _, call := range resp.ToolCalls {
		if interrupted(hooks) {
			result.Aborted = true
			result.AbortReason = "interrupted before tool execution"
			return result, nil
		}

		outcome := runToolCall(ctx, cfg, call, hooks)
		result.ToolOutcomes = append(result.ToolOutcomes, outcome)
	}

	return result, nil
}

func runToolCall(ctx context.Context, cfg Config, call model.ToolCallRef, hooks Hooks) ToolCallOutcome {
	outcome := ToolCallOutcome{CallID: call.CallID, Name: call.Name}

	needsApproval := requiresApproval(cfg.ApprovalPolicy, cfg.SandboxPolicy)
	if needsApproval {
		decision, err := approve(ctx, hooks, call)
		outcome.ApprovalDecision = decision
		if err != nil || decision == model.DecisionDenied {
			outcome.Result = model.ToolResult{
				Success: false,
				Output:  "tool call denied by approval policy",
				Error:   "denied",
			}
			return outcome
		}
	}

	if hooks.OnToolBegin != nil {
		hooks.OnToolBegin(call)
	}

	result := dispatch(ctx, cfg, call)

	if !result.Success && cfg.ApprovalPolicy == model.ApprovalOnFailure && !needsApproval {
		// on_failure: the call ran unconditionally above; a retryable
		// failure gets one approval-gated retry.
		decision, err := approve(ctx, hooks, call)
		outcome.ApprovalDecision = decision
		if err == nil && (decision == model.DecisionApproved || decision == model.DecisionApprovedForSession) {
			result = dispatch(ctx, cfg, call)
		}
	}

	outcome.Result = result
	if hooks.OnToolEnd != nil {
		hooks.OnToolEnd(call.CallID, result)
	}
	return outcome
}

func dispatch(ctx context.Context, cfg Config, call model.ToolCallRef) model.ToolResult {
	if cfg.Registry == nil {
		return model.ToolResult{Success: false, Output: "no tool registry configured", Error: "no_registry"}
	}
	raw, err := json.Marshal(call.Arguments)
	if err != nil {
		// Malformed tool-call argument data is an invalid-input tool error,
		// not a fatal parse failure, per agent_turn.py's parse fallback.
		return model.ToolResult{
			Success: false,
			Output:  "invalid tool arguments: " + err.Error(),
			Error:   string(ToolErrorInvalidInput),
		}
	}
	result := cfg.Registry.Dispatch(ctx, call.Name, raw)
	if result == nil {
		return model.ToolResult{Success: false, Output: "tool dispatch returned no result", Error: string(ToolErrorUnknown)}
	}
	return *result
}

func approve(ctx context.Context, hooks Hooks, call model.ToolCallRef) (model.ApprovalDecision, error) {
	if hooks.Approve == nil {
		return model.DecisionDenied, ErrAborted
	}
	pending := model.PendingCall{CallID: call.CallID, Name: call.Name, Arguments: call.Arguments}
	return hooks.Approve(ctx, pending)
}

// requiresApproval decides, per ApprovalPolicy/SandboxPolicy, whether a tool
// call must clear the approval gate before it runs. Grounded on
// original_source/src/core/protocol.py's AskForApproval semantics, adapted to
// the Go spec's four-value policy (see DESIGN.md Open Question decisions).
func requiresApproval(policy model.ApprovalPolicy, sandbox model.SandboxPolicy) bool {
	switch policy {
	case model.ApprovalNever:
		return false
	case model.ApprovalOnRequest:
		return true
	case model.ApprovalUnlessTrusted:
		return sandbox != model.SandboxDangerFullAccess
	case model.ApprovalOnFailure:
		return false
	default:
		return true
	}
}

func interrupted(hooks Hooks) bool {
	return hooks.Interrupted != nil && hooks.Interrupted()
}

// completeWithRetry calls the provider, retrying retryable errors (rate
// limit, timeout, server error per modelclient.IsRetryable) with backoff up
// to maxAttempts. A non-retryable error or a retryable one that exhausts all
// attempts fails the turn outright, per SPEC_FULL §4.5: the teacher's
// multi-provider failover is adapted down to retry-with-backoff-then-fail
// since the engine drives a single active provider per session.
func completeWithRetry(ctx context.Context, cfg Config, req *modelclient.CompletionRequest, maxAttempts int) (*modelclient.CompletionResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := cfg.Provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !modelclient.IsRetryable(err) || attempt == maxAttempts {
			return nil, err
		}
		if err := backoff.SleepWithBackoff(ctx, cfg.RetryPolicy, attempt); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}
