package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/xushun007/agentcore/internal/jobs"
)

func TestTaskToolDispatchesAndRecordsJob(t *testing.T) {
	store := jobs.NewMemoryStore()
	var gotType, gotPrompt string
	tool := NewTaskTool(store, func(ctx context.Context, subagentType, prompt string) (string, error) {
		gotType, gotPrompt = subagentType, prompt
		return "done", nil
	})

	params, _ := json.Marshal(map[string]any{
		"description":   "review diff",
		"prompt":        "review the latest diff for bugs",
		"subagent_type": "code_reviewer",
	})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success || result.Output != "done" {
		t.Fatalf("expected successful result, got %+v", result)
	}
	if gotType != "code_reviewer" || gotPrompt != "review the latest diff for bugs" {
		t.Fatalf("runner got unexpected args: %q %q", gotType, gotPrompt)
	}

	jobList, err := store.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobList) != 1 || jobList[0].Status != jobs.StatusSucceeded {
		t.Fatalf("expected one succeeded job, got %+v", jobList)
	}
}

func TestTaskToolRecordsFailure(t *testing.T) {
	store := jobs.NewMemoryStore()
	tool := NewTaskTool(store, func(ctx context.Context, subagentType, prompt string) (string, error) {
		return "", errors.New("boom")
	})

	params, _ := json.Marshal(map[string]any{
		"description":   "t",
		"prompt":        "p",
		"subagent_type": "general",
	})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result")
	}

	jobList, _ := store.List(context.Background(), 10, 0)
	if len(jobList) != 1 || jobList[0].Status != jobs.StatusFailed {
		t.Fatalf("expected one failed job, got %+v", jobList)
	}
}

func TestTaskToolWithoutRunnerFails(t *testing.T) {
	tool := NewTaskTool(nil, nil)
	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure when no runner is configured")
	}
}
