// Package modelclient defines the chat-completion contract the engine drives
// every turn through, plus the concrete vendor providers that implement it.
package modelclient

import (
	"context"
	"encoding/json"

	"github.com/xushun007/agentcore/internal/model"
)

// CompletionMessage is the wire-agnostic message shape sent to a provider.
// It mirrors model.Message closely but keeps tool result pairing explicit
// so each provider's convertMessages can render it in its own wire format.
type CompletionMessage struct {
	Role       model.Role
	Content    string
	ToolCalls  []model.ToolCallRef
	ToolCallID string
}

// ToolSpec describes one callable tool for a completion request: its name,
// description, and JSON-Schema parameters.
type ToolSpec struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// CompletionRequest is the input to a non-streaming chat completion call.
type CompletionRequest struct {
	Model     string
	System    string
	Messages  []CompletionMessage
	Tools     []ToolSpec
	MaxTokens int
}

// FinishReason explains why the model stopped generating.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
	FinishLength    FinishReason = "length"
	FinishError     FinishReason = "error"
)

// CompletionResponse is the engine-facing shape every provider normalizes
// its vendor response into: {text, reasoning, tool_calls[], usage, finish_reason}.
type CompletionResponse struct {
	Text         string
	Reasoning    string
	ToolCalls    []model.ToolCallRef
	Usage        model.TokenUsage
	FinishReason FinishReason
}

// Provider is the chat-completion contract every vendor integration implements.
type Provider interface {
	// Name identifies the provider for logging and error attribution.
	Name() string

	// Complete sends one non-streaming chat-completion request.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}
