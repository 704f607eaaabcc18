package rollout

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xushun007/agentcore/internal/model"
)

func TestWriteAndLoadHistory(t *testing.T) {
	dir := t.TempDir()
	path := PathFor(dir, "sess-1")

	rec, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	meta := model.SessionMeta{SessionID: "sess-1", CreatedAt: time.Now(), Cwd: "/workspace", ModelName: "test-model"}
	if err := rec.WriteSessionMeta(meta); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	if err := rec.WriteMessage(model.Message{Role: model.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if err := rec.WriteMessage(model.Message{Role: model.RoleAssistant, Content: "hello"}); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	loadedMeta, messages, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if loadedMeta.SessionID != "sess-1" {
		t.Fatalf("expected session id sess-1, got %q", loadedMeta.SessionID)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
}

func TestLoadHistoryAppliesCompactionMarker(t *testing.T) {
	dir := t.TempDir()
	path := PathFor(dir, "sess-2")

	rec, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec.WriteSessionMeta(model.SessionMeta{SessionID: "sess-2", CreatedAt: time.Now()})
	rec.WriteMessage(model.Message{Role: model.RoleSystem, Content: "system prompt"})
	rec.WriteMessage(model.Message{Role: model.RoleUser, Content: "old question"})
	rec.WriteMessage(model.Message{Role: model.RoleAssistant, Content: "old answer"})
	rec.WriteCompactedMarker(model.CompactedMarker{Summary: "summarized", OriginalCount: 3, TokensSaved: 50, Strategy: "opencode"})
	rec.WriteMessage(model.Message{Role: model.RoleUser, Content: "new question after compaction"})
	rec.Close()

	_, messages, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}

	if len(messages) != 2 {
		t.Fatalf("expected system + synthetic summary message before the post-compaction message, got %d: %+v", len(messages), messages)
	}
	if messages[0].Role != model.RoleSystem || messages[0].Content != "system prompt" {
		t.Fatalf("expected original system message preserved first, got %+v", messages[0])
	}
	if !messages[1].IsCompressed() {
		t.Fatalf("expected second message to carry the compressed flag, got %+v", messages[1])
	}
}

func TestLoadHistoryMissingMetaFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rollout-bad.jsonl")
	rec, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec.WriteMessage(model.Message{Role: model.RoleUser, Content: "hi"})
	rec.Close()

	if _, _, err := LoadHistory(path); err == nil {
		t.Fatal("expected missing session_meta line to error")
	}
}

func TestListSessionsSortsNewestFirst(t *testing.T) {
	dir := t.TempDir()

	older, _ := Open(PathFor(dir, "old"))
	older.WriteSessionMeta(model.SessionMeta{SessionID: "old", CreatedAt: time.Now().Add(-time.Hour)})
	older.Close()

	newer, _ := Open(PathFor(dir, "new"))
	newer.WriteSessionMeta(model.SessionMeta{SessionID: "new", CreatedAt: time.Now()})
	newer.Close()

	sessions, err := ListSessions(dir)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].Meta.SessionID != "new" {
		t.Fatalf("expected newest session first, got %q", sessions[0].Meta.SessionID)
	}
}
