package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/tools/websearch"
)

// WebFetchTool fetches and extracts readable content from a URL, grounded on
// internal/tools/websearch/fetch.go and original_source/src/tools/web_tools.py.
type WebFetchTool struct {
	maxChars  int
	extractor *websearch.ContentExtractor
}

func NewWebFetchTool(maxChars int) *WebFetchTool {
	if maxChars <= 0 {
		maxChars = 10000
	}
	return &WebFetchTool{maxChars: maxChars, extractor: websearch.NewContentExtractor()}
}

func (t *WebFetchTool) Name() string { return "web_fetch" }

func (t *WebFetchTool) Description() string {
	return "Fetch and extract readable content from a URL without full browser automation."
}

func (t *WebFetchTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url":          map[string]any{"type": "string", "description": "URL to fetch (http/https only)."},
			"extract_mode": map[string]any{"type": "string", "enum": []string{"markdown", "text"}, "description": "Extraction mode, default: markdown."},
			"max_chars":    map[string]any{"type": "integer", "description": "Maximum characters to return (default: 10000).", "minimum": 0},
		},
		"required": []string{"url"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

func (t *WebFetchTool) Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error) {
	var input struct {
		URL         string `json:"url"`
		ExtractMode string `json:"extract_mode"`
		MaxChars    int    `json:"max_chars"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return errResult("url is required"), nil
	}

	mode := strings.ToLower(strings.TrimSpace(input.ExtractMode))
	if mode != "text" {
		mode = "markdown"
	}

	limit := t.maxChars
	if input.MaxChars > 0 && input.MaxChars < limit {
		limit = input.MaxChars
	}

	content, err := t.extractor.Extract(ctx, url)
	if err != nil {
		return errResult(fmt.Sprintf("fetch failed: %v", err)), nil
	}

	truncated := false
	if limit > 0 && len(content) > limit {
		content = content[:limit] + "..."
		truncated = true
	}

	out, _ := json.MarshalIndent(map[string]any{
		"url": url, "extract_mode": mode, "content": content, "truncated": truncated,
	}, "", "  ")
	return &model.ToolResult{Title: url, Output: string(out), Success: true}, nil
}
