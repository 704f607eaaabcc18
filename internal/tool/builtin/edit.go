package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/tools/files"
)

// EditTool applies one or more find/replace edits to a file, grounded on
// internal/tools/files/edit.go and original_source/src/tools/edit_tool.py.
type EditTool struct {
	resolver files.Resolver
}

func NewEditTool(workspace string) *EditTool {
	return &EditTool{resolver: files.Resolver{Root: workspace}}
}

func (t *EditTool) Name() string { return "edit" }

func (t *EditTool) Description() string {
	return "Apply one or more find/replace edits to a file in the workspace."
}

func (t *EditTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Path to edit (relative to workspace)."},
			"edits": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"old_text":    map[string]any{"type": "string", "description": "Text to replace."},
						"new_text":    map[string]any{"type": "string", "description": "Replacement text."},
						"replace_all": map[string]any{"type": "boolean", "description": "Replace all occurrences (default: false)."},
					},
					"required": []string{"old_text", "new_text"},
				},
			},
		},
		"required": []string{"path", "edits"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

func (t *EditTool) Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error) {
	var input struct {
		Path  string `json:"path"`
		Edits []struct {
			OldText    string `json:"old_text"`
			NewText    string `json:"new_text"`
			ReplaceAll bool   `json:"replace_all"`
		} `json:"edits"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return errResult("path is required"), nil
	}
	if len(input.Edits) == 0 {
		return errResult("edits are required"), nil
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return errResult(err.Error()), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return errResult(fmt.Sprintf("read file: %v", err)), nil
	}

	content := string(data)
	replacements := 0
	for _, edit := range input.Edits {
		if edit.OldText == "" {
			return errResult("old_text is required"), nil
		}
		if !strings.Contains(content, edit.OldText) {
			return errResult("old_text not found: " + edit.OldText), nil
		}
		if edit.ReplaceAll {
			count := strings.Count(content, edit.OldText)
			content = strings.ReplaceAll(content, edit.OldText, edit.NewText)
			replacements += count
		} else {
			content = strings.Replace(content, edit.OldText, edit.NewText, 1)
			replacements++
		}
	}

	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return errResult(fmt.Sprintf("write file: %v", err)), nil
	}

	out, _ := json.MarshalIndent(map[string]any{
		"path": input.Path, "replacements": replacements,
	}, "", "  ")
	return &model.ToolResult{Title: input.Path, Output: string(out), Success: true}, nil
}
