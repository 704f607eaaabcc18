package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/xushun007/agentcore/internal/config"
	"github.com/xushun007/agentcore/internal/engine/compaction"
	"github.com/xushun007/agentcore/internal/engine/memory"
	"github.com/xushun007/agentcore/internal/engine/session"
	"github.com/xushun007/agentcore/internal/jobs"
	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/modelclient"
	"github.com/xushun007/agentcore/internal/observability"
	"github.com/xushun007/agentcore/internal/registry"
	"github.com/xushun007/agentcore/internal/tool/builtin"
)

// app bundles the pieces every subcommand needs once a config is loaded:
// the active provider, the durable task store, and the observability stack.
// Built once per invocation in resolveApp, grounded on the teacher's
// cmd/nexus main.go's top-level service wiring (adapted: one engine, not a
// gateway of channel adapters).
type app struct {
	cfg      *config.Config
	provider modelclient.Provider
	taskDB   *jobs.SQLiteStore
	logger   *observability.Logger
	tracer   *observability.Tracer
	tracerShutdown func(context.Context) error
	metrics  *observability.Metrics
	workspace string
	sessionDir string
}

func resolveApp(ctx context.Context, configPath, workspace, sessionDir string) (*app, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg = defaultConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	provider, err := buildProvider(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}

	if sessionDir == "" {
		sessionDir = memory.DefaultSessionDir(workspace)
	}
	taskDBPath := filepath.Join(sessionDir, "tasks.db")
	taskDB, err := jobs.OpenSQLiteStore(taskDBPath)
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	var tracer *observability.Tracer
	var shutdown func(context.Context) error
	if cfg.Observability.TraceEndpoint != "" {
		tracer, shutdown = observability.NewTracer(observability.TraceConfig{
			ServiceName:    "agentcore",
			ServiceVersion: "dev",
			Environment:    "local",
			Endpoint:       cfg.Observability.TraceEndpoint,
			SamplingRate:   cfg.Observability.SamplingRate,
		})
	}

	return &app{
		cfg:            cfg,
		provider:       provider,
		taskDB:         taskDB,
		logger:         logger,
		tracer:         tracer,
		tracerShutdown: shutdown,
		metrics:        observability.NewMetrics(),
		workspace:      workspace,
		sessionDir:     sessionDir,
	}, nil
}

func (a *app) Close(ctx context.Context) {
	if a.taskDB != nil {
		a.taskDB.Close()
	}
	if a.tracerShutdown != nil {
		a.tracerShutdown(ctx)
	}
}

// defaultConfig is used when no --config flag is given: an all-defaults
// config.Config, equivalent to loading an empty file.
func defaultConfig() *config.Config {
	return config.Default()
}

// newToolRegistry builds the Tool Registry for a top-level session: the full
// builtin catalogue, including task dispatch wired to spawnSubAgent. Register
// only fails on a duplicate tool name, which the fixed builtin list never
// produces, so a panic here means the builtin catalogue itself is broken.
func (a *app) newToolRegistry(sessionID string) *registry.Registry {
	reg := registry.New()
	if err := builtin.RegisterAll(reg, builtin.Config{
		Workspace:      a.workspace,
		SessionID:      sessionID,
		MaxReadBytes:   a.cfg.Tools.ReadFile.MaxBytes,
		MaxFetchChars:  a.cfg.Tools.WebFetch.MaxChars,
		CommandTimeout: secondsToDuration(a.cfg.Tools.Bash.TimeoutSeconds),
		TaskStore:      a.taskDB,
		SubAgentRunner: a.spawnSubAgent,
	}); err != nil {
		panic(fmt.Sprintf("agentcore: builtin tool registration: %v", err))
	}
	return reg
}

// subAgentToolRegistry builds a restricted registry for a sub-agent's own
// session: every builtin tool except task dispatch, so a sub-agent can't
// spawn further sub-agents (original_source/src/tools/task_tool.py's
// TaskManager has no recursive-spawn path either).
func (a *app) subAgentToolRegistry() *registry.Registry {
	reg := registry.New()
	if err := builtin.RegisterAll(reg, builtin.Config{
		Workspace:      a.workspace,
		SessionID:      "subagent",
		MaxReadBytes:   a.cfg.Tools.ReadFile.MaxBytes,
		MaxFetchChars:  a.cfg.Tools.WebFetch.MaxChars,
		CommandTimeout: secondsToDuration(a.cfg.Tools.Bash.TimeoutSeconds),
	}); err != nil {
		panic(fmt.Sprintf("agentcore: builtin tool registration: %v", err))
	}
	return reg
}

// spawnSubAgent implements builtin.SubAgentRunner: it runs a nested Session
// to completion in-process and returns its final assistant message,
// grounded on original_source/src/tools/task_tool.py's synchronous
// single-shot dispatch contract.
func (a *app) spawnSubAgent(ctx context.Context, subagentType, prompt string) (string, error) {
	sess, err := session.New(session.Config{
		SessionDir:       filepath.Join(a.sessionDir, "subagents"),
		Cwd:              a.workspace,
		Model:            a.cfg.Model.Name,
		BaseInstructions: "You are a " + subagentType + " sub-agent. Complete the task and report only the final result.",
		ApprovalPolicy:   model.ApprovalNever,
		SandboxPolicy:    model.SandboxDangerFullAccess,
		Provider:         a.provider,
		Registry:         a.subAgentToolRegistry(),
		MaxTokens:        a.cfg.Model.MaxTokens,
		MaxTurns:         a.cfg.Session.MaxTurns,
		Logger:           a.logger,
		Tracer:           a.tracer,
		Metrics:          a.metrics,
	})
	if err != nil {
		return "", fmt.Errorf("spawn sub-agent: %w", err)
	}
	defer sess.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sess.Run(runCtx)

	if err := sess.Submit(model.Submission{ID: "task", Op: model.OpUserInput, Text: prompt}); err != nil {
		return "", err
	}

	for event := range sess.Events() {
		switch event.Msg.Type {
		case model.EventTaskComplete:
			text, _ := event.Msg.Data["last_agent_message"].(string)
			return text, nil
		case model.EventError:
			msg, _ := event.Msg.Data["message"].(string)
			return "", fmt.Errorf("sub-agent error: %s", msg)
		case model.EventTurnAborted:
			return "", fmt.Errorf("sub-agent turn aborted")
		}
	}
	return "", fmt.Errorf("sub-agent session closed without completing")
}

// newSessionConfig builds the top-level session.Config shared by run/resume.
func (a *app) newSessionConfig(sessionID string) session.Config {
	return session.Config{
		SessionDir:          a.sessionDir,
		SessionID:           sessionID,
		Cwd:                 a.workspace,
		Model:                a.cfg.Model.Name,
		BaseInstructions:    a.cfg.Instructions,
		ApprovalPolicy:      model.ApprovalPolicy(a.cfg.Approval.Policy),
		SandboxPolicy:       model.SandboxPolicy(a.cfg.Approval.Sandbox),
		AutoLoadProjectDocs: true,
		Provider:            a.provider,
		Registry:            a.newToolRegistry(sessionID),
		MaxTokens:           a.cfg.Model.MaxTokens,
		MaxTurns:            a.cfg.Session.MaxTurns,
		ContextWindowTokens: a.cfg.Session.MaxTurns * 4000,
		CompactionStrategy:  compaction.NewOpenCodeStrategy(),
		Logger:              a.logger,
		Tracer:              a.tracer,
		Metrics:             a.metrics,
	}
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
