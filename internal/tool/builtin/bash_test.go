package builtin

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestBashToolRunsCommand(t *testing.T) {
	tool := NewBashTool(t.TempDir(), time.Second*5)
	params, _ := json.Marshal(map[string]any{"command": "echo hi"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Output)
	}
	if !strings.Contains(result.Output, "hi") {
		t.Fatalf("expected output to contain 'hi', got %q", result.Output)
	}
}

func TestBashToolRequiresCommand(t *testing.T) {
	tool := NewBashTool(t.TempDir(), time.Second*5)
	params, _ := json.Marshal(map[string]any{"command": ""})
	result, _ := tool.Execute(context.Background(), params)
	if result.Success {
		t.Fatal("expected empty command to fail")
	}
}

func TestBashToolNonZeroExitIsNotSuccess(t *testing.T) {
	tool := NewBashTool(t.TempDir(), time.Second*5)
	params, _ := json.Marshal(map[string]any{"command": "exit 1"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Success {
		t.Fatal("expected non-zero exit to report Success=false")
	}
}
