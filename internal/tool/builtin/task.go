package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xushun007/agentcore/internal/jobs"
	"github.com/xushun007/agentcore/internal/model"
)

// SubAgentRunner executes a prompt in an isolated sub-agent turn loop and
// returns its final assistant message. The concrete implementation (wired by
// cmd/agentcore) runs a nested engine/session.Session sharing the parent's
// provider and a restricted tool registry; each call is stateless, per
// original_source/src/tools/task_tool.py's single-shot dispatch contract.
type SubAgentRunner func(ctx context.Context, subagentType, prompt string) (string, error)

// AgentProfile names one sub-agent specialization offered by the task tool,
// grounded on task_tool.py's TaskManager agent catalogue (code_reviewer,
// file_searcher, test_generator, doc_generator, refactor_agent).
type AgentProfile struct {
	Name        string
	Description string
}

var defaultAgentProfiles = []AgentProfile{
	{Name: "general", Description: "general-purpose agent for open-ended multi-step tasks"},
	{Name: "code_reviewer", Description: "reviews code for bugs, risk, and style issues"},
	{Name: "file_searcher", Description: "searches and analyzes file contents across the workspace"},
	{Name: "test_generator", Description: "writes unit and integration tests"},
	{Name: "refactor_agent", Description: "refactors code for clarity and performance"},
}

type taskParams struct {
	Description  string `json:"description"`
	Prompt       string `json:"prompt"`
	SubagentType string `json:"subagent_type"`
}

// TaskTool dispatches a prompt to a sub-agent and tracks its lifecycle in the
// Task Store, grounded on task_tool.py's TaskTool/TaskManager (agent
// catalogue, stateless single-shot dispatch) and
// internal/tools/subagent/spawn.go's spawn-and-track shape, rewired onto
// internal/jobs.Store rather than the teacher's broken pkg/models plumbing.
type TaskTool struct {
	store    jobs.Store
	run      SubAgentRunner
	profiles []AgentProfile
}

// NewTaskTool builds the task tool. store may be nil to skip durable
// tracking (tests); run must be non-nil or every dispatch fails.
func NewTaskTool(store jobs.Store, run SubAgentRunner) *TaskTool {
	return &TaskTool{store: store, run: run, profiles: defaultAgentProfiles}
}

func (t *TaskTool) Name() string { return "task" }

func (t *TaskTool) Description() string {
	desc := "Launch a sub-agent to autonomously handle a complex, multi-step task.\n\nAvailable agent types:\n"
	for _, p := range t.profiles {
		desc += fmt.Sprintf("- %s: %s\n", p.Name, p.Description)
	}
	desc += "\nEach sub-agent call is stateless: it receives only the prompt given here and " +
		"returns a single final message. Describe the task in enough detail for the sub-agent " +
		"to complete it without further guidance."
	return desc
}

func (t *TaskTool) Schema() json.RawMessage {
	names := make([]string, len(t.profiles))
	for i, p := range t.profiles {
		names[i] = p.Name
	}
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description":   map[string]any{"type": "string", "description": "short (3-5 word) summary of the task"},
			"prompt":        map[string]any{"type": "string", "description": "the task for the sub-agent to perform"},
			"subagent_type": map[string]any{"type": "string", "enum": names},
		},
		"required": []string{"description", "prompt", "subagent_type"},
	})
	return schema
}

func (t *TaskTool) Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error) {
	var p taskParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &model.ToolResult{Success: false, Output: "invalid task parameters: " + err.Error(), Error: "invalid_input"}, nil
	}
	if t.run == nil {
		return &model.ToolResult{Success: false, Output: "no sub-agent runner configured", Error: "execution"}, nil
	}

	job := &jobs.Job{
		ID:        "job-" + uuid.NewString(),
		ToolName:  "task",
		Status:    jobs.StatusRunning,
		CreatedAt: time.Now(),
		StartedAt: time.Now(),
	}
	if t.store != nil {
		if err := t.store.Create(ctx, job); err != nil {
			return &model.ToolResult{Success: false, Output: "failed to record task: " + err.Error(), Error: "execution"}, nil
		}
	}

	output, runErr := t.run(ctx, p.SubagentType, p.Prompt)

	if t.store != nil {
		job.FinishedAt = time.Now()
		if runErr != nil {
			job.Status = jobs.StatusFailed
			job.Error = runErr.Error()
		} else {
			job.Status = jobs.StatusSucceeded
			job.Result = &model.ToolResult{Success: true, Output: output}
		}
		_ = t.store.Update(ctx, job)
	}

	if runErr != nil {
		return &model.ToolResult{Success: false, Output: "sub-agent failed: " + runErr.Error(), Error: "execution"}, nil
	}
	return &model.ToolResult{Title: p.Description, Success: true, Output: output}, nil
}
