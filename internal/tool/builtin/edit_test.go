package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEditToolReplacesOnce(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "f.txt")
	os.WriteFile(path, []byte("foo foo bar"), 0o644)

	tool := NewEditTool(root)
	params, _ := json.Marshal(map[string]any{
		"path": "f.txt",
		"edits": []map[string]any{
			{"old_text": "foo", "new_text": "baz"},
		},
	})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Error)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "baz foo bar" {
		t.Fatalf("expected single replacement, got %q", data)
	}
}

func TestEditToolReplaceAll(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "f.txt")
	os.WriteFile(path, []byte("foo foo bar"), 0o644)

	tool := NewEditTool(root)
	params, _ := json.Marshal(map[string]any{
		"path": "f.txt",
		"edits": []map[string]any{
			{"old_text": "foo", "new_text": "baz", "replace_all": true},
		},
	})
	if _, err := tool.Execute(context.Background(), params); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "baz baz bar" {
		t.Fatalf("expected all replacements, got %q", data)
	}
}

func TestEditToolMissingOldText(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "f.txt")
	os.WriteFile(path, []byte("hello"), 0o644)

	tool := NewEditTool(root)
	params, _ := json.Marshal(map[string]any{
		"path": "f.txt",
		"edits": []map[string]any{
			{"old_text": "nope", "new_text": "x"},
		},
	})
	result, _ := tool.Execute(context.Background(), params)
	if result.Success {
		t.Fatal("expected failure for missing old_text")
	}
}
