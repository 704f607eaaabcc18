package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/tools/files"
)

// WriteTool writes content to a file in the workspace, grounded on
// internal/tools/files/write.go and original_source/src/tools/file_tools.py's
// WriteTool.
type WriteTool struct {
	resolver files.Resolver
}

func NewWriteTool(workspace string) *WriteTool {
	return &WriteTool{resolver: files.Resolver{Root: workspace}}
}

func (t *WriteTool) Name() string { return "write" }

func (t *WriteTool) Description() string {
	return "Write content to a file in the workspace (overwrites by default)."
}

func (t *WriteTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "Path to write (relative to workspace)."},
			"content": map[string]any{"type": "string", "description": "File contents to write."},
			"append":  map[string]any{"type": "boolean", "description": "Append instead of overwrite (default: false)."},
		},
		"required": []string{"path", "content"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

func (t *WriteTool) Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error) {
	var input struct {
		Path    string `json:"path"`
		Content string `json:"content"`
		Append  bool   `json:"append"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return errResult("path is required"), nil
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return errResult(err.Error()), nil
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return errResult(fmt.Sprintf("create directory: %v", err)), nil
	}

	flags := os.O_CREATE | os.O_WRONLY
	if input.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(resolved, flags, 0o644)
	if err != nil {
		return errResult(fmt.Sprintf("open file: %v", err)), nil
	}
	defer file.Close()

	n, err := file.WriteString(input.Content)
	if err != nil {
		return errResult(fmt.Sprintf("write file: %v", err)), nil
	}

	out, _ := json.MarshalIndent(map[string]any{
		"path": input.Path, "bytes_written": n, "append": input.Append,
	}, "", "  ")
	return &model.ToolResult{Title: input.Path, Output: string(out), Success: true}, nil
}
