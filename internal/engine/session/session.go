// Package session implements the Session/Engine: the outer turn-budget loop
// that drives repeated Agent Turns over one conversation, the ingress
// Submission queue, the egress Event queue, and approval routing between the
// two. Grounded on original_source/src/core/session.py's Session class and
// adapted from the teacher's internal/agent runtime loop
// (internal/agent/steering.go, internal/agent/event_sink.go).
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/xushun007/agentcore/internal/backoff"
	"github.com/xushun007/agentcore/internal/engine/compaction"
	"github.com/xushun007/agentcore/internal/engine/memory"
	"github.com/xushun007/agentcore/internal/engine/rollout"
	"github.com/xushun007/agentcore/internal/engine/turn"
	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/modelclient"
	"github.com/xushun007/agentcore/internal/observability"
	"github.com/xushun007/agentcore/internal/registry"
)

// Config configures a Session end to end: Memory Manager setup, Agent Turn
// parameters, and the optional Compaction Engine strategy run ahead of every
// turn.
type Config struct {
	SessionDir          string
	SessionID           string
	Cwd                 string
	Model               string
	BaseInstructions    string
	UserInstructions    string
	ApprovalPolicy      model.ApprovalPolicy
	SandboxPolicy       model.SandboxPolicy
	AutoLoadProjectDocs bool

	Provider    modelclient.Provider
	Registry    *registry.Registry
	MaxTokens   int
	RetryPolicy backoff.BackoffPolicy
	MaxAttempts int

	MaxTurns            int
	ContextWindowTokens int
	CompactionStrategy  compaction.Strategy

	EventBuffer EventBufferConfig

	// Logger, Tracer, and Metrics are optional; a nil value disables the
	// corresponding observability for this session rather than panicking.
	Logger  *observability.Logger
	Tracer  *observability.Tracer
	Metrics *observability.Metrics
}

// Session is the Session/Engine: a single-goroutine-per-session state
// machine. Callers drive it by calling Run in its own goroutine, pushing
// Submissions via Submit, and reading Events off the returned channel.
type Session struct {
	cfg Config
	mem *memory.Manager

	events  *eventSink
	ingress chan model.Submission

	interrupted atomic.Bool
	closed      atomic.Bool

	mu               sync.Mutex
	pendingApprovals map[string]chan model.ApprovalDecision
	toolStarts       map[string]toolStart
}

type toolStart struct {
	name  string
	since time.Time
}

// New starts a brand-new session: a fresh rollout file, a composed system
// prompt, and a ready ingress/egress pair.
func New(cfg Config) (*Session, error) {
	if cfg.SessionID == "" {
		cfg.SessionID = rollout.NewSessionID()
	}
	var tools []registry.ToolInfo
	if cfg.Registry != nil {
		tools = cfg.Registry.List(true)
	}

	mem, err := memory.NewSession(memory.NewSessionParams{
		SessionDir:          cfg.SessionDir,
		SessionID:           cfg.SessionID,
		Cwd:                 cfg.Cwd,
		Model:               cfg.Model,
		BaseInstructions:    cfg.BaseInstructions,
		UserInstructions:    cfg.UserInstructions,
		ApprovalPolicy:      cfg.ApprovalPolicy,
		SandboxPolicy:       cfg.SandboxPolicy,
		Tools:               tools,
		AutoLoadProjectDocs: cfg.AutoLoadProjectDocs,
	})
	if err != nil {
		return nil, err
	}
	return newSession(cfg, mem), nil
}

// Resume reopens an existing rollout file, replays its history through the
// Memory Manager, and validates invariant I-1 before accepting any new
// submission. Grounded on SPEC_FULL.md section 4.7's resume requirement.
func Resume(cfg Config, rolloutPath string) (*Session, error) {
	mem, err := memory.Resume(rolloutPath)
	if err != nil {
		return nil, err
	}
	if err := validateTranscript(mem.Messages(false, false)); err != nil {
		mem.Close()
		return nil, err
	}
	cfg.SessionID = mem.SessionID()
	return newSession(cfg, mem), nil
}

func newSession(cfg Config, mem *memory.Manager) *Session {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 50
	}
	bufCfg := cfg.EventBuffer
	if bufCfg.HighPriBuffer <= 0 && bufCfg.LowPriBuffer <= 0 {
		bufCfg = DefaultEventBufferConfig()
	}

	s := &Session{
		cfg:              cfg,
		mem:              mem,
		events:           newEventSink(bufCfg),
		ingress:          make(chan model.Submission, 16),
		pendingApprovals: make(map[string]chan model.ApprovalDecision),
		toolStarts:       make(map[string]toolStart),
	}
	s.events.emit(model.NewSessionConfigured("", cfg.SessionID, cfg.Model, cfg.Cwd))
	return s
}

// Events returns the egress queue. Callers must keep draining it; the
// high-priority lane blocks turn progress once full.
func (s *Session) Events() <-chan model.Event { return s.events.merged }

// SessionID returns this session's id.
func (s *Session) SessionID() string { return s.mem.SessionID() }

// RolloutPath returns the path of the underlying rollout file.
func (s *Session) RolloutPath() string { return s.mem.RolloutPath() }

// Submit enqueues one Submission. OpInterrupt and OpExecApproval are handled
// out of band — they do not wait behind a turn in progress, since the
// session goroutine may be blocked deep inside a multi-turn tool-execution
// loop and can't pop the next queued submission until the current one
// finishes. OpUserInput is pushed onto the sequential ingress queue.
func (s *Session) Submit(sub model.Submission) error {
	if s.closed.Load() {
		return ErrSessionNotActive
	}
	switch sub.Op {
	case model.OpInterrupt:
		s.interrupted.Store(true)
		return nil
	case model.OpExecApproval:
		s.mu.Lock()
		ch, ok := s.pendingApprovals[sub.CallID]
		s.mu.Unlock()
		if ok {
			select {
			case ch <- sub.Decision:
			default:
			}
		}
		return nil
	case model.OpUserInput:
		select {
		case s.ingress <- sub:
			return nil
		default:
			return fmt.Errorf("session: ingress queue full")
		}
	default:
		return fmt.Errorf("session: unknown submission op %q", sub.Op)
	}
}

// Close stops the session: further Submit calls fail with
// ErrSessionNotActive, the ingress queue closes so Run returns, and the
// rollout file is flushed and closed.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.ingress)
	return s.mem.Close()
}

// Run drives the session's ingress queue until it is closed or ctx is
// cancelled. It must run in its own goroutine; the cooperative concurrency
// model described in SPEC_FULL.md section 5 assumes exactly one.
func (s *Session) Run(ctx context.Context) {
	defer s.events.Close()
	for {
		select {
		case sub, ok := <-s.ingress:
			if !ok {
				return
			}
			s.handleUserInput(ctx, sub)
		case <-ctx.Done():
			return
		}
	}
}

// handleUserInput runs the outer turn-budget loop for one user submission:
// repeated Agent Turns until the model stops requesting tools, the turn
// budget is exhausted, or an interrupt lands at a suspension point.
func (s *Session) handleUserInput(ctx context.Context, sub model.Submission) {
	ctx = observability.AddSessionID(ctx, s.mem.SessionID())
	s.log().Info(ctx, "task started", "submission_id", sub.ID)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SessionStarted(s.cfg.Model)
	}
	taskStart := time.Now()

	s.interrupted.Store(false)
	s.events.emit(model.NewUserMessage(sub.ID, sub.Text))
	if _, err := s.mem.AddUserMessage(sub.Text); err != nil {
		s.events.emit(model.NewError(sub.ID, err.Error()))
		return
	}
	s.events.emit(model.NewTaskStarted(sub.ID))

	var lastText string
	for i := 0; i < s.cfg.MaxTurns; i++ {
		if s.interrupted.Load() {
			s.events.emit(model.NewTurnAborted(sub.ID, "interrupted"))
			return
		}

		s.maybeCompact(ctx, sub.ID)

		result, err := s.runTurn(ctx, sub)
		if err != nil {
			s.log().Error(ctx, "turn failed", "error", err)
			s.events.emit(model.NewError(sub.ID, err.Error()))
			return
		}
		if result.Aborted {
			s.events.emit(model.NewTurnAborted(sub.ID, result.AbortReason))
			return
		}

		for _, outcome := range result.ToolOutcomes {
			if _, err := s.mem.AddToolMessage(outcome.Result.Output, outcome.CallID); err != nil {
				s.events.emit(model.NewError(sub.ID, err.Error()))
				return
			}
		}

		s.events.emit(model.NewTokenCount(sub.ID, result.Usage))
		lastText = result.AssistantText

		if len(result.ToolOutcomes) == 0 {
			s.events.emit(model.NewTaskComplete(sub.ID, lastText))
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.SessionEnded(s.cfg.Model, time.Since(taskStart).Seconds())
			}
			return
		}
	}
	s.events.emit(model.NewError(sub.ID, ErrMaxTurns.Error()))
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SessionEnded(s.cfg.Model, time.Since(taskStart).Seconds())
	}
}

// runTurn wraps one turn.Run call with a trace span and LLM request metrics,
// grounded on Metrics.RecordLLMRequest/Tracer.TraceLLMRequest in
// internal/observability — both already shaped for exactly this call site.
func (s *Session) runTurn(ctx context.Context, sub model.Submission) (*turn.Result, error) {
	start := time.Now()
	if s.cfg.Tracer != nil {
		var span trace.Span
		ctx, span = s.cfg.Tracer.TraceLLMRequest(ctx, providerName(s.cfg.Provider), s.cfg.Model)
		defer span.End()
	}

	result, err := turn.Run(ctx, s.turnConfig(), s.history(), s.systemPrompt(), s.toolSpecs(), s.hooks(sub.ID))

	if s.cfg.Metrics != nil {
		status := "ok"
		input, output := 0, 0
		if err != nil {
			status = "error"
		} else {
			input, output = result.Usage.Input, result.Usage.Output
		}
		s.cfg.Metrics.RecordLLMRequest(providerName(s.cfg.Provider), s.cfg.Model, status, time.Since(start).Seconds(), input, output)
	}
	return result, err
}

func providerName(p modelclient.Provider) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}

// log returns a non-nil logger: the configured one, or a silent default so
// call sites never need a nil check.
func (s *Session) log() *observability.Logger {
	if s.cfg.Logger != nil {
		return s.cfg.Logger
	}
	return observability.NewLogger(observability.LogConfig{Output: io.Discard})
}

func (s *Session) turnConfig() turn.Config {
	return turn.Config{
		Provider:       s.cfg.Provider,
		Registry:       s.cfg.Registry,
		Model:          s.cfg.Model,
		MaxTokens:      s.cfg.MaxTokens,
		ApprovalPolicy: s.cfg.ApprovalPolicy,
		SandboxPolicy:  s.cfg.SandboxPolicy,
		RetryPolicy:    s.cfg.RetryPolicy,
		MaxAttempts:    s.cfg.MaxAttempts,
	}
}

func (s *Session) hooks(submissionID string) turn.Hooks {
	return turn.Hooks{
		OnResponse: func(text string, toolCalls []model.ToolCallRef) {
			if _, err := s.mem.AddAssistantMessage(text, toolCalls); err != nil {
				s.events.emit(model.NewError(submissionID, err.Error()))
				return
			}
			if text != "" {
				s.events.emit(model.NewAgentMessage(submissionID, text))
			}
		},
		OnToolBegin: func(call model.ToolCallRef) {
			s.log().Info(context.Background(), "tool begin", "tool", call.Name, "call_id", call.CallID)
			s.mu.Lock()
			s.toolStarts[call.CallID] = toolStart{name: call.Name, since: time.Now()}
			s.mu.Unlock()
			s.events.emit(model.NewToolExecutionBegin(submissionID, call.CallID, call.Name, call.Arguments))
		},
		OnToolEnd: func(callID string, result model.ToolResult) {
			s.mu.Lock()
			started, ok := s.toolStarts[callID]
			delete(s.toolStarts, callID)
			s.mu.Unlock()
			if ok && s.cfg.Metrics != nil {
				status := "ok"
				if !result.Success {
					status = "error"
				}
				s.cfg.Metrics.RecordToolExecution(started.name, status, time.Since(started.since).Seconds())
			}
			if !result.Success {
				s.log().Warn(context.Background(), "tool failed", "call_id", callID, "error", result.Error)
			}
			s.events.emit(model.NewToolExecutionEnd(submissionID, callID, result))
		},
		Approve:     s.requestApproval(submissionID),
		Interrupted: s.interrupted.Load,
	}
}

// requestApproval returns the turn.ApprovalFunc this session uses to resolve
// a pending tool call. It blocks on a per-call channel that Submit resolves
// when an OpExecApproval submission for the same call_id arrives, bridging
// the turn's synchronous callback to the engine's asynchronous approval
// routing, grounded on original_source/src/core/session.py's
// handle_approval_response entry point.
func (s *Session) requestApproval(submissionID string) turn.ApprovalFunc {
	return func(ctx context.Context, call model.PendingCall) (model.ApprovalDecision, error) {
		ch := make(chan model.ApprovalDecision, 1)
		s.mu.Lock()
		s.pendingApprovals[call.CallID] = ch
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.pendingApprovals, call.CallID)
			s.mu.Unlock()
		}()

		s.log().Info(context.Background(), "approval requested", "tool", call.Name, "call_id", call.CallID)
		s.events.emit(model.NewApprovalRequest(submissionID, call.CallID, call.Name, call.Arguments))

		select {
		case decision := <-ch:
			if decision == model.DecisionDenied {
				s.events.emit(model.NewApprovalRejected(submissionID, call.CallID))
			} else {
				s.events.emit(model.NewApprovalComplete(submissionID, call.CallID, decision))
			}
			s.log().Info(context.Background(), "approval resolved", "call_id", call.CallID, "decision", string(decision))
			return decision, nil
		case <-ctx.Done():
			return model.DecisionDenied, ctx.Err()
		}
	}
}

// maybeCompact runs the configured Compaction Engine strategy ahead of a
// turn if it reports the history needs shrinking.
func (s *Session) maybeCompact(ctx context.Context, submissionID string) {
	if s.cfg.CompactionStrategy == nil {
		return
	}
	messages := s.mem.Messages(false, false)
	current := 0
	for _, m := range messages {
		current += compaction.EstimateTokens(m.Content)
	}
	cctx := compaction.Context{
		Messages:      messages,
		CurrentTokens: current,
		MaxTokens:     s.cfg.ContextWindowTokens,
		ModelName:     s.cfg.Model,
		SessionID:     s.mem.SessionID(),
		Summarize:     providerSummarizer{provider: s.cfg.Provider, model: s.cfg.Model},
	}
	if !s.cfg.CompactionStrategy.ShouldCompact(cctx) {
		return
	}
	result := s.cfg.CompactionStrategy.Compact(ctx, cctx)
	if !result.Success {
		return
	}
	if err := s.mem.ReplaceMessages(result.NewMessages, false); err != nil {
		s.events.emit(model.NewError(submissionID, err.Error()))
		return
	}

	summary := ""
	for _, m := range result.NewMessages {
		if m.IsSummary() {
			summary = m.Content
			break
		}
	}
	if err := s.mem.RecordCompaction(summary, result.RemovedCount, result.TokensSaved, result.StrategyName); err != nil {
		s.events.emit(model.NewError(submissionID, err.Error()))
	}
}

// systemPrompt returns the session's system message, composed once at
// session start and stored as the first message in history.
func (s *Session) systemPrompt() string {
	for _, m := range s.mem.Messages(false, false) {
		if m.Role == model.RoleSystem {
			return m.Content
		}
	}
	return ""
}

// history returns the conversation so far, with the system message and any
// compaction-summary bookkeeping filtered out — the Model Client carries the
// system prompt in its own request field.
func (s *Session) history() []modelclient.CompletionMessage {
	messages := s.mem.Messages(true, true)
	out := make([]modelclient.CompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, modelclient.CompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
		})
	}
	return out
}

func (s *Session) toolSpecs() []modelclient.ToolSpec {
	if s.cfg.Registry == nil {
		return nil
	}
	infos := s.cfg.Registry.List(true)
	out := make([]modelclient.ToolSpec, 0, len(infos))
	for _, info := range infos {
		out = append(out, modelclient.ToolSpec{Name: info.Name, Description: info.Description, Schema: info.Schema})
	}
	return out
}

// ListSessions lists the rollout files under dir for a `sessions list` CLI
// command, delegating to the Rollout Recorder's directory scan.
func ListSessions(dir string) ([]rollout.SessionFile, error) {
	return rollout.ListSessions(dir)
}

// providerSummarizer implements compaction.Summarizer by asking the session's
// own Model Client for a natural-language summary, grounded on
// original_source/src/core/compaction/base.py's default summarization call
// (a plain completion request, no tools attached).
type providerSummarizer struct {
	provider modelclient.Provider
	model    string
}

const summarizePrompt = "Summarize the following conversation history concisely, preserving any " +
	"facts, decisions, or file paths a continuation would need. Respond with the summary only."

func (p providerSummarizer) Summarize(ctx context.Context, messages []model.Message) (string, error) {
	if p.provider == nil {
		return "", fmt.Errorf("session: no provider configured for compaction summary")
	}
	history := make([]modelclient.CompletionMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, modelclient.CompletionMessage{Role: m.Role, Content: m.Content})
	}
	resp, err := p.provider.Complete(ctx, &modelclient.CompletionRequest{
		Model:    p.model,
		System:   summarizePrompt,
		Messages: history,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
