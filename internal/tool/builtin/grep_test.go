package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestGrepToolFindsMatchingLine(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.go"), []byte("package main\nfunc Foo() {}\n"), 0o644)
	os.WriteFile(filepath.Join(root, "b.go"), []byte("package main\nfunc Bar() {}\n"), 0o644)

	tool := NewGrepTool(root)
	params, _ := json.Marshal(map[string]any{"pattern": "func Foo"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Error)
	}

	var decoded struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(result.Output), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Count != 1 {
		t.Fatalf("expected 1 match, got %d", decoded.Count)
	}
}

func TestGrepToolFilesWithMatchesMode(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.go"), []byte("needle\nneedle\n"), 0o644)

	tool := NewGrepTool(root)
	params, _ := json.Marshal(map[string]any{"pattern": "needle", "output_mode": "files_with_matches"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var decoded struct {
		Files []string `json:"files"`
	}
	if err := json.Unmarshal([]byte(result.Output), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(decoded.Files))
	}
}

func TestGrepToolInvalidPattern(t *testing.T) {
	tool := NewGrepTool(t.TempDir())
	params, _ := json.Marshal(map[string]any{"pattern": "("})
	result, _ := tool.Execute(context.Background(), params)
	if result.Success {
		t.Fatal("expected invalid regex to fail")
	}
}
