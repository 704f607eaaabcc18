package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestGlobToolFindsNestedMatches(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "sub"), 0o755)
	os.WriteFile(filepath.Join(root, "a.go"), []byte("package a"), 0o644)
	os.WriteFile(filepath.Join(root, "sub", "b.go"), []byte("package b"), 0o644)
	os.WriteFile(filepath.Join(root, "c.txt"), []byte("text"), 0o644)

	tool := NewGlobTool(root)
	params, _ := json.Marshal(map[string]any{"pattern": "*.go"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Error)
	}

	var decoded struct {
		Count   int      `json:"count"`
		Matches []string `json:"matches"`
	}
	if err := json.Unmarshal([]byte(result.Output), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Count != 2 {
		t.Fatalf("expected 2 matches, got %d (%v)", decoded.Count, decoded.Matches)
	}
}

func TestGlobToolRequiresPattern(t *testing.T) {
	tool := NewGlobTool(t.TempDir())
	params, _ := json.Marshal(map[string]any{"pattern": ""})
	result, _ := tool.Execute(context.Background(), params)
	if result.Success {
		t.Fatal("expected empty pattern to fail")
	}
}
