package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestReadToolReadsFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hello world"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tool := NewReadTool(root, 0)
	params, _ := json.Marshal(map[string]any{"path": "hello.txt"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}

	var decoded struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(result.Output), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.Content != "hello world" {
		t.Fatalf("expected 'hello world', got %q", decoded.Content)
	}
}

func TestReadToolRejectsEscape(t *testing.T) {
	root := t.TempDir()
	tool := NewReadTool(root, 0)
	params, _ := json.Marshal(map[string]any{"path": "../outside.txt"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Success {
		t.Fatal("expected path escape to fail")
	}
}

func TestReadToolMissingPath(t *testing.T) {
	tool := NewReadTool(t.TempDir(), 0)
	params, _ := json.Marshal(map[string]any{"path": ""})
	result, _ := tool.Execute(context.Background(), params)
	if result.Success {
		t.Fatal("expected missing path to fail")
	}
}
