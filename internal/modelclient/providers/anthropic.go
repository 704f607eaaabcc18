// Package providers implements concrete modelclient.Provider adapters for
// each vendor SDK already used by the wider example pack.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/modelclient"
)

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// AnthropicProvider implements modelclient.Provider against Claude models
// via the official SDK's non-streaming Messages.New call. Grounded on
// internal/agent/providers/anthropic.go's message/tool conversion, adapted
// from streaming chunks to a single non-streaming response since
// token-by-token rendering is an explicit non-goal of this engine.
type AnthropicProvider struct {
	client       anthropic.Client
	defaultModel string
}

// NewAnthropicProvider constructs a provider from the given config.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicProvider{
		client:       anthropic.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
	}, nil
}

// Name implements modelclient.Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete implements modelclient.Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, req *modelclient.CompletionRequest) (*modelclient.CompletionResponse, error) {
	messages, err := p.convertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("anthropic: convert messages: %w", err)
	}
	tools, err := p.convertTools(req.Tools)
	if err != nil {
		return nil, fmt.Errorf("anthropic: convert tools: %w", err)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model(req.Model)),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, p.wrapError(err, p.model(req.Model))
	}

	return p.toResponse(msg), nil
}

func (p *AnthropicProvider) toResponse(msg *anthropic.Message) *modelclient.CompletionResponse {
	resp := &modelclient.CompletionResponse{
		Usage: model.TokenUsage{
			Input:  int(msg.Usage.InputTokens),
			Output: int(msg.Usage.OutputTokens),
			Total:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}

	var text strings.Builder
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			var args map[string]any
			_ = json.Unmarshal(variant.Input, &args)
			resp.ToolCalls = append(resp.ToolCalls, model.ToolCallRef{
				CallID:    variant.ID,
				Name:      variant.Name,
				Arguments: args,
			})
		}
	}
	resp.Text = text.String()

	switch msg.StopReason {
	case anthropic.StopReasonToolUse:
		resp.FinishReason = modelclient.FinishToolCalls
	case anthropic.StopReasonMaxTokens:
		resp.FinishReason = modelclient.FinishLength
	default:
		resp.FinishReason = modelclient.FinishStop
	}
	return resp
}

func (p *AnthropicProvider) convertMessages(messages []modelclient.CompletionMessage) ([]anthropic.MessageParam, error) {
	var out []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			continue
		case model.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		case model.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.CallID, tc.Arguments, tc.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out, nil
}

func (p *AnthropicProvider) convertTools(tools []modelclient.ToolSpec) ([]anthropic.ToolUnionParam, error) {
	var out []anthropic.ToolUnionParam
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			return nil, fmt.Errorf("invalid schema for %s: %w", t.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if param.OfTool != nil {
			param.OfTool.Description = anthropic.String(t.Description)
		}
		out = append(out, param)
	}
	return out, nil
}

func (p *AnthropicProvider) model(requested string) string {
	if requested != "" {
		return requested
	}
	return p.defaultModel
}

func (p *AnthropicProvider) wrapError(err error, model string) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		pe := &modelclient.ProviderError{
			Provider: "anthropic",
			Model:    model,
			Status:   apiErr.StatusCode,
			Cause:    err,
			Message:  apiErr.Error(),
		}
		switch apiErr.StatusCode {
		case 429:
			pe.Reason = modelclient.FailoverRateLimit
		case 401, 403:
			pe.Reason = modelclient.FailoverAuth
		case 500, 502, 503, 504:
			pe.Reason = modelclient.FailoverServerError
		default:
			pe.Reason = modelclient.FailoverUnknown
		}
		return pe
	}
	return modelclient.NewProviderError("anthropic", model, err)
}
