package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/tools/exec"
)

// BashTool runs shell commands in the workspace, grounded on
// internal/tools/exec/tools.go's ExecTool and
// original_source/src/tools/bash_tool.py/bash.py. Background execution and
// process management (teacher's ProcessTool) are out of scope: the Agent
// Turn's approval gate expects one bounded result per call, not an
// open-ended background process handle.
type BashTool struct {
	manager *exec.Manager
	timeout time.Duration
}

// NewBashTool creates a bash tool scoped to workspace, with a default
// per-call timeout applied when the caller doesn't specify one.
func NewBashTool(workspace string, defaultTimeout time.Duration) *BashTool {
	if defaultTimeout <= 0 {
		defaultTimeout = 2 * time.Minute
	}
	return &BashTool{manager: exec.NewManager(workspace), timeout: defaultTimeout}
}

func (t *BashTool) Name() string { return "bash" }

func (t *BashTool) Description() string {
	return "Run a shell command in the workspace and return its stdout, stderr, and exit code."
}

func (t *BashTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{"type": "string", "description": "Shell command to execute."},
			"cwd":     map[string]any{"type": "string", "description": "Working directory (relative to workspace)."},
			"timeout_seconds": map[string]any{
				"type": "integer", "description": "Timeout in seconds (0 = tool default).", "minimum": 0,
			},
		},
		"required": []string{"command"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

func (t *BashTool) Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error) {
	var input struct {
		Command        string `json:"command"`
		Cwd            string `json:"cwd"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	command := strings.TrimSpace(input.Command)
	if command == "" {
		return errResult("command is required"), nil
	}

	timeout := t.timeout
	if input.TimeoutSeconds > 0 {
		timeout = time.Duration(input.TimeoutSeconds) * time.Second
	}

	result, err := t.manager.RunCommand(ctx, command, input.Cwd, nil, "", timeout)
	if err != nil {
		return errResult(err.Error()), nil
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	success := result.ExitCode == 0 && result.Error == ""
	title := command
	if len(title) > 60 {
		title = title[:60] + "..."
	}
	return &model.ToolResult{Title: title, Output: string(out), Success: success}, nil
}
