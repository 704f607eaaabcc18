package builtin

import (
	"context"
	"encoding/json"
	"testing"
)

func TestTodoWriteThenRead(t *testing.T) {
	write, read := NewTodoTools("session-1")

	writeParams, _ := json.Marshal(map[string]any{
		"todos": []map[string]any{
			{"content": "do the thing", "status": "pending", "id": "1"},
		},
	})
	writeResult, err := write.Execute(context.Background(), writeParams)
	if err != nil {
		t.Fatalf("write execute: %v", err)
	}
	if !writeResult.Success {
		t.Fatalf("expected write success, got: %s", writeResult.Error)
	}

	readResult, err := read.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("read execute: %v", err)
	}

	var todos []TodoInfo
	if err := json.Unmarshal([]byte(readResult.Output), &todos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(todos) != 1 || todos[0].ID != "1" {
		t.Fatalf("expected 1 todo with id 1, got %+v", todos)
	}
}

func TestTodoReadEmptySession(t *testing.T) {
	_, read := NewTodoTools("empty-session")
	result, err := read.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var todos []TodoInfo
	json.Unmarshal([]byte(result.Output), &todos)
	if len(todos) != 0 {
		t.Fatalf("expected empty list, got %+v", todos)
	}
}
