package providers

import (
	"context"
	"errors"

	"golang.org/x/oauth2"

	openai "github.com/sashabaranov/go-openai"
)

// This file adapts the teacher's azure.go, openrouter.go, ollama.go and
// copilot_proxy.go into thin constructors around OpenAIProvider, since all
// four vendors speak the OpenAI-compatible chat-completions wire format and
// only differ in how the *openai.Client is configured.

// NewAzureOpenAIProvider builds a provider against an Azure OpenAI deployment.
// Grounded on internal/agent/providers/azure.go's DefaultAzureConfig usage.
func NewAzureOpenAIProvider(endpoint, apiKey, apiVersion, deployment string) (*OpenAIProvider, error) {
	if endpoint == "" || apiKey == "" {
		return nil, errors.New("azure: endpoint and API key are required")
	}
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		cfg.APIVersion = apiVersion
	}
	return NewOpenAIProviderWithClient(openai.NewClientWithConfig(cfg), deployment), nil
}

// NewOpenRouterProvider builds a provider against openrouter.ai, which
// proxies many vendor models behind an OpenAI-compatible API. Grounded on
// internal/agent/providers/openrouter.go.
func NewOpenRouterProvider(apiKey, defaultModel string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openrouter: API key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = "https://openrouter.ai/api/v1"
	return NewOpenAIProviderWithClient(openai.NewClientWithConfig(cfg), defaultModel), nil
}

// NewOllamaProvider builds a provider against a local Ollama server, which
// exposes an OpenAI-compatible endpoint under /v1. Grounded on
// internal/agent/providers/ollama.go.
func NewOllamaProvider(baseURL, defaultModel string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = baseURL
	return NewOpenAIProviderWithClient(openai.NewClientWithConfig(cfg), defaultModel)
}

// NewCopilotProxyProvider builds a provider against a local GitHub Copilot
// chat proxy, authenticating with an OAuth2 token source so the access
// token is refreshed automatically across long-running sessions. Grounded
// on internal/agent/providers/copilot_proxy.go, adapted to use
// golang.org/x/oauth2 for token refresh instead of a static bearer header.
func NewCopilotProxyProvider(proxyURL string, tokenSource oauth2.TokenSource, defaultModel string) (*OpenAIProvider, error) {
	if proxyURL == "" {
		return nil, errors.New("copilot_proxy: proxy URL is required")
	}
	token, err := tokenSource.Token()
	if err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(token.AccessToken)
	cfg.BaseURL = proxyURL
	cfg.HTTPClient = oauth2.NewClient(context.Background(), tokenSource)
	return NewOpenAIProviderWithClient(openai.NewClientWithConfig(cfg), defaultModel), nil
}
