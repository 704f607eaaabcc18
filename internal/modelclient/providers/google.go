package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"google.golang.org/genai"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/modelclient"
)

var googleCallSeq atomic.Int64

// GoogleConfig configures a GoogleProvider.
type GoogleConfig struct {
	APIKey       string
	DefaultModel string
}

// GoogleProvider implements modelclient.Provider against Gemini models via
// the official Go Gen AI SDK. Grounded on internal/agent/providers/google.go's
// message/tool conversion, adapted from its streaming GenerateContentStream
// loop to a single non-streaming GenerateContent call.
type GoogleProvider struct {
	client       *genai.Client
	defaultModel string
}

// NewGoogleProvider constructs a provider from the given config.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("google: API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("google: create client: %w", err)
	}

	return &GoogleProvider{client: client, defaultModel: cfg.DefaultModel}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Complete(ctx context.Context, req *modelclient.CompletionRequest) (*modelclient.CompletionResponse, error) {
	modelID := p.model(req.Model)
	contents, err := p.convertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("google: convert messages: %w", err)
	}

	resp, err := p.client.Models.GenerateContent(ctx, modelID, contents, p.buildConfig(req))
	if err != nil {
		return nil, modelclient.NewProviderError("google", modelID, err)
	}

	return p.toResponse(resp), nil
}

func (p *GoogleProvider) toResponse(resp *genai.GenerateContentResponse) *modelclient.CompletionResponse {
	out := &modelclient.CompletionResponse{FinishReason: modelclient.FinishStop}

	if resp.UsageMetadata != nil {
		out.Usage = model.TokenUsage{
			Input:  int(resp.UsageMetadata.PromptTokenCount),
			Output: int(resp.UsageMetadata.CandidatesTokenCount),
			Total:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			out.Text += part.Text
		}
		if part.FunctionCall != nil {
			out.ToolCalls = append(out.ToolCalls, model.ToolCallRef{
				CallID:    generateCallID(part.FunctionCall.Name),
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
		}
	}

	if len(out.ToolCalls) > 0 {
		out.FinishReason = modelclient.FinishToolCalls
	} else if resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		out.FinishReason = modelclient.FinishLength
	}
	return out
}

func (p *GoogleProvider) convertMessages(messages []modelclient.CompletionMessage) ([]*genai.Content, error) {
	var out []*genai.Content
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			continue
		}

		content := &genai.Content{}
		switch msg.Role {
		case model.RoleAssistant:
			content.Role = genai.RoleModel
		default:
			content.Role = genai.RoleUser
		}

		if msg.Content != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
		}

		for _, tc := range msg.ToolCalls {
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: tc.Arguments},
			})
		}

		if msg.Role == model.RoleTool {
			var response map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &response); err != nil {
				response = map[string]any{"result": msg.Content}
			}
			content.Parts = append(content.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{Name: msg.ToolCallID, Response: response},
			})
		}

		if len(content.Parts) > 0 {
			out = append(out, content)
		}
	}
	return out, nil
}

func (p *GoogleProvider) convertTools(tools []modelclient.ToolSpec) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		var schemaMap map[string]any
		if err := json.Unmarshal(t.Schema, &schemaMap); err != nil {
			continue
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGeminiSchema(schemaMap),
		})
	}
	if len(decls) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// toGeminiSchema converts a JSON Schema map to Gemini's Schema type, grounded
// on internal/agent/toolconv/gemini.go's ToGeminiSchema.
func toGeminiSchema(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}

	schema := &genai.Schema{}

	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = toGeminiSchema(propMap)
			}
		}
	}
	if required, ok := schemaMap["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = toGeminiSchema(items)
	}

	return schema
}

func (p *GoogleProvider) buildConfig(req *modelclient.CompletionRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if tools := p.convertTools(req.Tools); tools != nil {
		config.Tools = tools
	}
	return config
}

func (p *GoogleProvider) model(requested string) string {
	if requested != "" {
		return requested
	}
	return p.defaultModel
}

func generateCallID(name string) string {
	return fmt.Sprintf("%s-%d", name, googleCallSeq.Add(1))
}
