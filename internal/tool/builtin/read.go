// Package builtin implements the concrete tool set dispatched through the
// Tool Registry: file I/O, shell execution, search, web fetch, and todo
// tracking. Each tool adapts the workspace-scoped helpers under
// internal/tools/* to the registry.Tool interface and model.ToolResult
// contract, grounded on the teacher's tool implementations and
// original_source/src/tools/*.py.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/tools/files"
)

// ReadTool reads a file from the workspace with an optional offset and byte
// limit, grounded on internal/tools/files/read.go and
// original_source/src/tools/file_tools.py's ReadTool.
type ReadTool struct {
	resolver   files.Resolver
	maxReadLen int
}

// NewReadTool creates a read tool scoped to workspace.
func NewReadTool(workspace string, maxReadBytes int) *ReadTool {
	limit := maxReadBytes
	if limit <= 0 {
		limit = 200000
	}
	return &ReadTool{resolver: files.Resolver{Root: workspace}, maxReadLen: limit}
}

func (t *ReadTool) Name() string { return "read" }

func (t *ReadTool) Description() string {
	return "Read a file from the workspace with optional offset and byte limit."
}

func (t *ReadTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":      map[string]any{"type": "string", "description": "Path to the file (relative to workspace)."},
			"offset":    map[string]any{"type": "integer", "description": "Byte offset to start reading from (default: 0).", "minimum": 0},
			"max_bytes": map[string]any{"type": "integer", "description": "Maximum bytes to read (capped by tool default).", "minimum": 0},
		},
		"required": []string{"path"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

func (t *ReadTool) Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error) {
	var input struct {
		Path     string `json:"path"`
		Offset   int64  `json:"offset"`
		MaxBytes int    `json:"max_bytes"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return errResult("path is required"), nil
	}
	if input.Offset < 0 {
		return errResult("offset must be >= 0"), nil
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return errResult(err.Error()), nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return errResult(fmt.Sprintf("open file: %v", err)), nil
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return errResult(fmt.Sprintf("stat file: %v", err)), nil
	}
	if input.Offset > 0 {
		if _, err := file.Seek(input.Offset, io.SeekStart); err != nil {
			return errResult(fmt.Sprintf("seek file: %v", err)), nil
		}
	}

	limit := t.maxReadLen
	if input.MaxBytes > 0 && input.MaxBytes < limit {
		limit = input.MaxBytes
	}
	remaining := int64(limit)
	if size := info.Size(); size > 0 {
		remaining = size - input.Offset
		if remaining < 0 {
			remaining = 0
		}
		if remaining > int64(limit) {
			remaining = int64(limit)
		}
	}

	buf, err := io.ReadAll(io.LimitReader(file, remaining))
	if err != nil {
		return errResult(fmt.Sprintf("read file: %v", err)), nil
	}
	truncated := info.Size() > 0 && input.Offset+int64(len(buf)) < info.Size()

	out, _ := json.MarshalIndent(map[string]any{
		"path": input.Path, "content": string(buf), "offset": input.Offset,
		"bytes": len(buf), "truncated": truncated,
	}, "", "  ")
	return &model.ToolResult{Title: input.Path, Output: string(out), Success: true}, nil
}

func errResult(msg string) *model.ToolResult {
	return &model.ToolResult{Output: msg, Success: false, Error: msg}
}
