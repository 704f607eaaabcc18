package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteToolCreatesFile(t *testing.T) {
	root := t.TempDir()
	tool := NewWriteTool(root)
	params, _ := json.Marshal(map[string]any{"path": "nested/out.txt", "content": "data"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Error)
	}

	data, err := os.ReadFile(filepath.Join(root, "nested/out.txt"))
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if string(data) != "data" {
		t.Fatalf("expected 'data', got %q", data)
	}
}

func TestWriteToolAppends(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "log.txt")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	tool := NewWriteTool(root)
	params, _ := json.Marshal(map[string]any{"path": "log.txt", "content": "b", "append": true})
	if _, err := tool.Execute(context.Background(), params); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "ab" {
		t.Fatalf("expected 'ab', got %q", data)
	}
}
