package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xushun007/agentcore/internal/model"
)

// TodoInfo is one structured task tracked for a session, grounded on
// original_source/src/tools/todo.py's TodoInfo dataclass.
type TodoInfo struct {
	Content  string `json:"content"`
	Status   string `json:"status"`
	ID       string `json:"id"`
	Priority string `json:"priority,omitempty"`
}

// todoState holds the per-session todo lists shared by TodoWriteTool and
// TodoReadTool, grounded on todo.py's TodoState singleton.
type todoState struct {
	mu    sync.Mutex
	lists map[string][]TodoInfo
}

func newTodoState() *todoState {
	return &todoState{lists: make(map[string][]TodoInfo)}
}

func (s *todoState) get(sessionID string) []TodoInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TodoInfo(nil), s.lists[sessionID]...)
}

func (s *todoState) set(sessionID string, todos []TodoInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[sessionID] = todos
}

func activeCount(todos []TodoInfo) int {
	n := 0
	for _, t := range todos {
		if t.Status != "completed" {
			n++
		}
	}
	return n
}

// TodoWriteTool replaces the current session's todo list, grounded on
// todo.py's TodoWriteTool.
type TodoWriteTool struct {
	sessionID string
	state     *todoState
}

// TodoReadTool returns the current session's todo list, grounded on
// todo.py's TodoReadTool. Both tools share a *todoState so list and write
// stay in sync for the same session.
type TodoReadTool struct {
	sessionID string
	state     *todoState
}

// NewTodoTools builds a matched write/read pair scoped to sessionID.
func NewTodoTools(sessionID string) (*TodoWriteTool, *TodoReadTool) {
	state := newTodoState()
	return &TodoWriteTool{sessionID: sessionID, state: state}, &TodoReadTool{sessionID: sessionID, state: state}
}

func (t *TodoWriteTool) Name() string { return "todo_write" }

func (t *TodoWriteTool) Description() string {
	return "Create or replace the structured task list for the current session. Use for multi-step work; skip for single trivial tasks."
}

func (t *TodoWriteTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"todos": map[string]any{
				"type":        "array",
				"description": "The updated todo list.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"content":  map[string]any{"type": "string", "description": "Brief task description."},
						"status":   map[string]any{"type": "string", "description": "pending, in_progress, completed, or cancelled."},
						"id":       map[string]any{"type": "string", "description": "Unique identifier for the task."},
						"priority": map[string]any{"type": "string", "description": "high, medium, or low.", "default": "medium"},
					},
					"required": []string{"content", "status", "id"},
				},
			},
		},
		"required": []string{"todos"},
	}
	payload, _ := json.Marshal(schema)
	return payload
}

func (t *TodoWriteTool) Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error) {
	var input struct {
		Todos []TodoInfo `json:"todos"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	t.state.set(t.sessionID, input.Todos)

	out, _ := json.MarshalIndent(input.Todos, "", "  ")
	return &model.ToolResult{
		Title:    fmt.Sprintf("%d todos", activeCount(input.Todos)),
		Output:   string(out),
		Metadata: map[string]any{"todos": input.Todos},
		Success:  true,
	}, nil
}

func (t *TodoReadTool) Name() string { return "todo_read" }

func (t *TodoReadTool) Description() string {
	return "Read the current session's structured task list. Takes no parameters."
}

func (t *TodoReadTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{},"required":[]}`)
}

func (t *TodoReadTool) Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error) {
	todos := t.state.get(t.sessionID)
	out, _ := json.MarshalIndent(todos, "", "  ")
	return &model.ToolResult{
		Title:    fmt.Sprintf("%d todos", activeCount(todos)),
		Output:   string(out),
		Metadata: map[string]any{"todos": todos},
		Success:  true,
	}, nil
}
