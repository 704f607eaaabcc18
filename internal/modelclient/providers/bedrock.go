package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/modelclient"
)

// BedrockConfig configures a BedrockProvider.
type BedrockConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	DefaultModel    string
}

// BedrockProvider implements modelclient.Provider against the AWS Bedrock
// Converse API, grounded on internal/agent/providers/bedrock.go's message
// conversion (adapted from ConverseStream to the simpler non-streaming
// Converse operation).
type BedrockProvider struct {
	client       *bedrockruntime.Client
	defaultModel string
}

// NewBedrockProvider constructs a provider from the given config, using
// explicit credentials if supplied or the default AWS credential chain.
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("bedrock: load AWS config: %w", err)
	}

	return &BedrockProvider{
		client:       bedrockruntime.NewFromConfig(awsCfg),
		defaultModel: cfg.DefaultModel,
	}, nil
}

func (p *BedrockProvider) Name() string { return "bedrock" }

func (p *BedrockProvider) Complete(ctx context.Context, req *modelclient.CompletionRequest) (*modelclient.CompletionResponse, error) {
	messages, err := p.convertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("bedrock: convert messages: %w", err)
	}

	modelID := p.model(req.Model)
	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(modelID),
		Messages: messages,
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.System},
		}
	}
	if req.MaxTokens > 0 {
		input.InferenceConfig = &types.InferenceConfiguration{MaxTokens: aws.Int32(int32(req.MaxTokens))}
	}
	if len(req.Tools) > 0 {
		toolConfig, err := p.convertTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("bedrock: convert tools: %w", err)
		}
		input.ToolConfig = toolConfig
	}

	out, err := p.client.Converse(ctx, input)
	if err != nil {
		return nil, modelclient.NewProviderError("bedrock", modelID, err)
	}

	return p.toResponse(out), nil
}

func (p *BedrockProvider) toResponse(out *bedrockruntime.ConverseOutput) *modelclient.CompletionResponse {
	resp := &modelclient.CompletionResponse{FinishReason: modelclient.FinishStop}

	if out.Usage != nil {
		resp.Usage = model.TokenUsage{
			Input:  int(aws.ToInt32(out.Usage.InputTokens)),
			Output: int(aws.ToInt32(out.Usage.OutputTokens)),
			Total:  int(aws.ToInt32(out.Usage.TotalTokens)),
		}
	}

	if msgOut, ok := out.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range msgOut.Value.Content {
			switch v := block.(type) {
			case *types.ContentBlockMemberText:
				resp.Text += v.Value
			case *types.ContentBlockMemberToolUse:
				var args map[string]any
				if v.Value.Input != nil {
					raw, _ := v.Value.Input.(document.Interface).MarshalSmithyDocument()
					_ = json.Unmarshal(raw, &args)
				}
				resp.ToolCalls = append(resp.ToolCalls, model.ToolCallRef{
					CallID:    aws.ToString(v.Value.ToolUseId),
					Name:      aws.ToString(v.Value.Name),
					Arguments: args,
				})
			}
		}
	}

	if out.StopReason == types.StopReasonToolUse {
		resp.FinishReason = modelclient.FinishToolCalls
	} else if out.StopReason == types.StopReasonMaxTokens {
		resp.FinishReason = modelclient.FinishLength
	}
	return resp
}

func (p *BedrockProvider) convertMessages(messages []modelclient.CompletionMessage) ([]types.Message, error) {
	var out []types.Message
	for _, msg := range messages {
		var content []types.ContentBlock
		switch msg.Role {
		case model.RoleSystem:
			continue
		case model.RoleTool:
			content = append(content, &types.ContentBlockMemberToolResult{
				Value: types.ToolResultBlock{
					ToolUseId: aws.String(msg.ToolCallID),
					Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: msg.Content}},
				},
			})
			out = append(out, types.Message{Role: types.ConversationRoleUser, Content: content})
			continue
		case model.RoleAssistant:
			if msg.Content != "" {
				content = append(content, &types.ContentBlockMemberText{Value: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				input, err := document.NewLazyDocument(tc.Arguments).MarshalSmithyDocument()
				if err != nil {
					return nil, err
				}
				content = append(content, &types.ContentBlockMemberToolUse{
					Value: types.ToolUseBlock{
						ToolUseId: aws.String(tc.CallID),
						Name:      aws.String(tc.Name),
						Input:     document.NewLazyDocument(json.RawMessage(input)),
					},
				})
			}
			out = append(out, types.Message{Role: types.ConversationRoleAssistant, Content: content})
			continue
		default:
			content = append(content, &types.ContentBlockMemberText{Value: msg.Content})
			out = append(out, types.Message{Role: types.ConversationRoleUser, Content: content})
		}
	}
	return out, nil
}

func (p *BedrockProvider) convertTools(tools []modelclient.ToolSpec) (*types.ToolConfiguration, error) {
	specs := make([]types.Tool, 0, len(tools))
	for _, t := range tools {
		var schema map[string]any
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			return nil, fmt.Errorf("invalid schema for %s: %w", t.Name, err)
		}
		specs = append(specs, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
			},
		})
	}
	return &types.ToolConfiguration{Tools: specs}, nil
}

func (p *BedrockProvider) model(requested string) string {
	if requested != "" {
		return requested
	}
	return p.defaultModel
}
