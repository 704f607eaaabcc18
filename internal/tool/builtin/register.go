package builtin

import (
	"time"

	"github.com/xushun007/agentcore/internal/jobs"
	"github.com/xushun007/agentcore/internal/registry"
)

// Config configures the concrete tool set for one session.
type Config struct {
	Workspace      string
	SessionID      string
	MaxReadBytes   int
	MaxFetchChars  int
	CommandTimeout time.Duration

	// TaskStore and SubAgentRunner back the task tool. Both nil skips
	// registering it, e.g. for a sub-agent's own restricted tool set.
	TaskStore      jobs.Store
	SubAgentRunner SubAgentRunner
}

// RegisterAll registers the full built-in tool catalogue into reg, grounded
// on original_source/src/tools/registry.py's default tool wiring.
func RegisterAll(reg *registry.Registry, cfg Config) error {
	todoWrite, todoRead := NewTodoTools(cfg.SessionID)

	tools := []registry.Tool{
		NewReadTool(cfg.Workspace, cfg.MaxReadBytes),
		NewWriteTool(cfg.Workspace),
		NewEditTool(cfg.Workspace),
		NewGlobTool(cfg.Workspace),
		NewGrepTool(cfg.Workspace),
		NewBashTool(cfg.Workspace, cfg.CommandTimeout),
		NewWebFetchTool(cfg.MaxFetchChars),
		todoWrite,
		todoRead,
	}
	if cfg.SubAgentRunner != nil {
		tools = append(tools, NewTaskTool(cfg.TaskStore, cfg.SubAgentRunner))
	}
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
