package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"

	"github.com/xushun007/agentcore/internal/config"
	"github.com/xushun007/agentcore/internal/modelclient"
	"github.com/xushun007/agentcore/internal/modelclient/providers"
)

// buildProvider constructs the one active Model Client provider for a
// session from config.ModelConfig, grounded on SPEC_FULL section 4.5's
// single-active-provider-per-session model. Every vendor the teacher's
// dependency graph carries gets a case here so config.model.provider can
// actually select any of them.
func buildProvider(ctx context.Context, cfg config.ModelConfig) (modelclient.Provider, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	switch cfg.Provider {
	case "anthropic":
		return providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       apiKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Name,
		})
	case "openai":
		return providers.NewOpenAIProvider(apiKey, cfg.Name)
	case "azure":
		return providers.NewAzureOpenAIProvider(cfg.BaseURL, apiKey, "2024-06-01", cfg.Name)
	case "google", "gemini":
		return providers.NewGoogleProvider(ctx, providers.GoogleConfig{APIKey: apiKey, DefaultModel: cfg.Name})
	case "bedrock":
		return providers.NewBedrockProvider(ctx, providers.BedrockConfig{DefaultModel: cfg.Name})
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		return providers.NewOllamaProvider(baseURL, cfg.Name), nil
	case "openrouter":
		return providers.NewOpenRouterProvider(apiKey, cfg.Name)
	case "copilot":
		token := &oauth2.Token{AccessToken: apiKey}
		return providers.NewCopilotProxyProvider(cfg.BaseURL, oauth2.StaticTokenSource(token), cfg.Name)
	default:
		return nil, fmt.Errorf("agentcore: unknown model.provider %q", cfg.Provider)
	}
}
