package turn

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/xushun007/agentcore/internal/backoff"
	"github.com/xushun007/agentcore/internal/model"
	"github.com/xushun007/agentcore/internal/modelclient"
	"github.com/xushun007/agentcore/internal/registry"
)

type stubProvider struct {
	responses []*modelclient.CompletionResponse
	errs      []error
	calls     int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Complete(ctx context.Context, req *modelclient.CompletionRequest) (*modelclient.CompletionResponse, error) {
	idx := p.calls
	p.calls++
	var err error
	if idx < len(p.errs) {
		err = p.errs[idx]
	}
	if err != nil {
		return nil, err
	}
	if idx < len(p.responses) {
		return p.responses[idx], nil
	}
	return p.responses[len(p.responses)-1], nil
}

type echoTool struct{}

func (echoTool) Name() string            { return "echo" }
func (echoTool) Description() string     { return "echoes input" }
func (echoTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (echoTool) Execute(ctx context.Context, params json.RawMessage) (*model.ToolResult, error) {
	return &model.ToolResult{Success: true, Output: string(params)}, nil
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	if err := reg.Register(echoTool{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

func TestRunTextOnly(t *testing.T) {
	provider := &stubProvider{responses: []*modelclient.CompletionResponse{
		{Text: "hello", FinishReason: modelclient.FinishStop},
	}}
	cfg := Config{Provider: provider, Registry: newRegistry(t), ApprovalPolicy: model.ApprovalNever}

	var gotText string
	var gotCalls []model.ToolCallRef
	result, err := Run(context.Background(), cfg, nil, "sys", nil, Hooks{
		OnResponse: func(text string, toolCalls []model.ToolCallRef) {
			gotText = text
			gotCalls = toolCalls
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if gotText != "hello" || result.AssistantText != "hello" {
		t.Fatalf("expected hello, got %+v", result)
	}
	if len(gotCalls) != 0 {
		t.Fatalf("expected no tool calls, got %+v", gotCalls)
	}
	if len(result.ToolOutcomes) != 0 {
		t.Fatalf("expected no tool outcomes, got %+v", result.ToolOutcomes)
	}
}

func TestRunExecutesToolCallWithoutApproval(t *testing.T) {
	provider := &stubProvider{responses: []*modelclient.CompletionResponse{
		{
			Text: "",
			ToolCalls: []model.ToolCallRef{
				{CallID: "call-1", Name: "echo", Arguments: map[string]any{"msg": "hi"}},
			},
			FinishReason: modelclient.FinishToolCalls,
		},
	}}
	cfg := Config{Provider: provider, Registry: newRegistry(t), ApprovalPolicy: model.ApprovalNever}

	var began, ended bool
	result, err := Run(context.Background(), cfg, nil, "sys", nil, Hooks{
		OnToolBegin: func(call model.ToolCallRef) { began = true },
		OnToolEnd:   func(callID string, result model.ToolResult) { ended = true },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !began || !ended {
		t.Fatalf("expected tool begin/end hooks to fire")
	}
	if len(result.ToolOutcomes) != 1 || !result.ToolOutcomes[0].Result.Success {
		t.Fatalf("expected successful tool outcome, got %+v", result.ToolOutcomes)
	}
}

func TestRunGatesOnRequestApproval(t *testing.T) {
	provider := &stubProvider{responses: []*modelclient.CompletionResponse{
		{
			ToolCalls: []model.ToolCallRef{{CallID: "call-1", Name: "echo", Arguments: map[string]any{}}},
		},
	}}
	cfg := Config{Provider: provider, Registry: newRegistry(t), ApprovalPolicy: model.ApprovalOnRequest}

	t.Run("denied", func(t *testing.T) {
		provider.calls = 0
		result, err := Run(context.Background(), cfg, nil, "", nil, Hooks{
			Approve: func(ctx context.Context, call model.PendingCall) (model.ApprovalDecision, error) {
				return model.DecisionDenied, nil
			},
		})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if result.ToolOutcomes[0].Result.Success {
			t.Fatalf("expected denied call to fail")
		}
	})

	t.Run("approved", func(t *testing.T) {
		provider.calls = 0
		result, err := Run(context.Background(), cfg, nil, "", nil, Hooks{
			Approve: func(ctx context.Context, call model.PendingCall) (model.ApprovalDecision, error) {
				return model.DecisionApproved, nil
			},
		})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if !result.ToolOutcomes[0].Result.Success {
			t.Fatalf("expected approved call to succeed, got %+v", result.ToolOutcomes[0].Result)
		}
	})
}

func TestRunAbortsAtSuspensionPoint(t *testing.T) {
	provider := &stubProvider{responses: []*modelclient.CompletionResponse{{Text: "unused"}}}
	cfg := Config{Provider: provider, Registry: newRegistry(t)}

	result, err := Run(context.Background(), cfg, nil, "", nil, Hooks{
		Interrupted: func() bool { return true },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Aborted {
		t.Fatalf("expected aborted result")
	}
	if provider.calls != 0 {
		t.Fatalf("expected no provider call after interrupt, got %d calls", provider.calls)
	}
}

func TestRunRetriesRetryableProviderError(t *testing.T) {
	provider := &stubProvider{
		errs:      []error{&modelclient.ProviderError{Reason: modelclient.FailoverRateLimit, Message: "429"}, nil},
		responses: []*modelclient.CompletionResponse{{Text: "ok"}},
	}
	cfg := Config{
		Provider:    provider,
		Registry:    newRegistry(t),
		MaxAttempts: 2,
		RetryPolicy: backoff.BackoffPolicy{InitialMs: 1, MaxMs: 2, Factor: 1, Jitter: 0},
	}
	result, err := Run(context.Background(), cfg, nil, "", nil, Hooks{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.AssistantText != "ok" {
		t.Fatalf("expected retry to succeed, got %+v", result)
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", provider.calls)
	}
}

func TestRunFailsOnNonRetryableProviderError(t *testing.T) {
	provider := &stubProvider{
		errs: []error{&modelclient.ProviderError{Reason: modelclient.FailoverAuth, Message: "401"}},
	}
	cfg := Config{Provider: provider, Registry: newRegistry(t), MaxAttempts: 3}
	_, err := Run(context.Background(), cfg, nil, "", nil, Hooks{})
	if err == nil {
		t.Fatal("expected error for non-retryable failure")
	}
	if provider.calls != 1 {
		t.Fatalf("expected exactly 1 call for a non-retryable error, got %d", provider.calls)
	}
}

func TestRunMalformedToolArgumentsIsInvalidInputNotFatal(t *testing.T) {
	provider := &stubProvider{responses: []*modelclient.CompletionResponse{
		{ToolCalls: []model.ToolCallRef{{CallID: "c1", Name: "echo", Arguments: map[string]any{"bad": make(chan int)}}}},
	}}
	cfg := Config{Provider: provider, Registry: newRegistry(t), ApprovalPolicy: model.ApprovalNever}

	result, err := Run(context.Background(), cfg, nil, "", nil, Hooks{})
	if err != nil {
		t.Fatalf("run should not fail the whole turn: %v", err)
	}
	outcome := result.ToolOutcomes[0]
	if outcome.Result.Success {
		t.Fatal("expected invalid-input tool failure")
	}
	if outcome.Result.Error != string(ToolErrorInvalidInput) {
		t.Fatalf("expected invalid_input error type, got %q", outcome.Result.Error)
	}
}

func TestClassifyToolError(t *testing.T) {
	cases := map[error]ToolErrorType{
		errors.New("request timeout"):        ToolErrorTimeout,
		errors.New("connection refused"):     ToolErrorNetwork,
		errors.New("rate limit exceeded"):    ToolErrorRateLimit,
		errors.New("permission denied"):      ToolErrorPermission,
		errors.New("invalid argument"):       ToolErrorInvalidInput,
		errors.New("tool xyz not found"):     ToolErrorNotFound,
		errors.New("something went wrong"):   ToolErrorExecution,
	}
	for err, want := range cases {
		if got := classifyToolError(err); got != want {
			t.Errorf("classifyToolError(%q) = %q, want %q", err, got, want)
		}
	}
	if classifyToolError(nil) != ToolErrorUnknown {
		t.Error("expected unknown for nil error")
	}
}
