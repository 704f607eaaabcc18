package providers

import (
	"encoding/json"
	"errors"

	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/modelclient"
)

// OpenAIProvider implements modelclient.Provider against OpenAI's chat
// completions API, grounded on internal/agent/providers/openai.go's message
// and tool conversion (adapted to a single non-streaming call).
type OpenAIProvider struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAIProvider constructs a provider for the given API key.
func NewOpenAIProvider(apiKey, defaultModel string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if defaultModel == "" {
		defaultModel = "gpt-4o"
	}
	return &OpenAIProvider{client: openai.NewClient(apiKey), defaultModel: defaultModel}, nil
}

// NewOpenAIProviderWithClient allows reuse of a pre-configured client, used
// by the azure/openrouter/ollama/copilot adapters below which all speak the
// OpenAI-compatible wire format against a different base URL.
func NewOpenAIProviderWithClient(client *openai.Client, defaultModel string) *OpenAIProvider {
	return &OpenAIProvider{client: client, defaultModel: defaultModel}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, req *modelclient.CompletionRequest) (*modelclient.CompletionResponse, error) {
	messages, err := p.convertMessages(req)
	if err != nil {
		return nil, err
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    p.model(req.Model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = p.convertTools(req.Tools)
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, modelclient.NewProviderError("openai", p.model(req.Model), err)
	}
	if len(resp.Choices) == 0 {
		return nil, modelclient.NewProviderError("openai", p.model(req.Model), errors.New("empty choices"))
	}

	choice := resp.Choices[0]
	out := &modelclient.CompletionResponse{
		Text: choice.Message.Content,
		Usage: model.TokenUsage{
			Input:  resp.Usage.PromptTokens,
			Output: resp.Usage.CompletionTokens,
			Total:  resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		out.ToolCalls = append(out.ToolCalls, model.ToolCallRef{
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	switch choice.FinishReason {
	case openai.FinishReasonToolCalls:
		out.FinishReason = modelclient.FinishToolCalls
	case openai.FinishReasonLength:
		out.FinishReason = modelclient.FinishLength
	default:
		out.FinishReason = modelclient.FinishStop
	}
	return out, nil
}

func (p *OpenAIProvider) convertMessages(req *modelclient.CompletionRequest) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case model.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		case model.RoleAssistant:
			oaiMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content}
			for _, tc := range msg.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
					ID:       tc.CallID,
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: tc.Name, Arguments: string(args)},
				})
			}
			out = append(out, oaiMsg)
		default:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content})
		}
	}
	return out, nil
}

func (p *OpenAIProvider) convertTools(tools []modelclient.ToolSpec) []openai.Tool {
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		var schema map[string]any
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			},
		}
	}
	return out
}

func (p *OpenAIProvider) model(requested string) string {
	if requested != "" {
		return requested
	}
	return p.defaultModel
}
