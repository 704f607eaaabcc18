package compaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xushun007/agentcore/internal/model"
)

type stubSummarizer struct {
	summary string
	err     error
}

func (s *stubSummarizer) Summarize(ctx context.Context, messages []model.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.summary, nil
}

func userMsg(content string) model.Message {
	return model.Message{Role: model.RoleUser, Content: content, Timestamp: time.Now()}
}

func assistantMsg(content string) model.Message {
	return model.Message{Role: model.RoleAssistant, Content: content, Timestamp: time.Now()}
}

func toolMsg(content string) model.Message {
	return model.Message{Role: model.RoleTool, Content: content, Timestamp: time.Now(), ToolCallID: "call-1"}
}

func TestShouldCompactThreshold(t *testing.T) {
	s := NewOpenCodeStrategy()
	if s.ShouldCompact(Context{CurrentTokens: 70, MaxTokens: 100}) {
		t.Fatal("70/100 should not trigger compaction at 0.75 threshold")
	}
	if !s.ShouldCompact(Context{CurrentTokens: 80, MaxTokens: 100}) {
		t.Fatal("80/100 should trigger compaction at 0.75 threshold")
	}
}

func TestShouldCompactZeroMaxTokens(t *testing.T) {
	s := NewOpenCodeStrategy()
	if s.ShouldCompact(Context{CurrentTokens: 10, MaxTokens: 0}) {
		t.Fatal("zero MaxTokens must never trigger compaction")
	}
}

func TestCompactBuildsSummaryAndRecoveryPrompt(t *testing.T) {
	s := NewOpenCodeStrategy()
	messages := []model.Message{
		{Role: model.RoleSystem, Content: "system prompt", Timestamp: time.Now()},
		userMsg("first question"),
		assistantMsg("first answer"),
		userMsg("second question"),
		assistantMsg("second answer"),
		userMsg("third question"),
		assistantMsg("third answer"),
	}

	result := s.Compact(context.Background(), Context{
		Messages:  messages,
		Summarize: &stubSummarizer{summary: "a reasonably long summary of the conversation so far"},
	})

	if !result.Success {
		t.Fatalf("expected success, got error: %v", result.Error)
	}

	foundSummary, foundRecovery := false, false
	for _, m := range result.NewMessages {
		if m.IsSummary() {
			foundSummary = true
		}
		if m.IsRecoveryPrompt() {
			foundRecovery = true
			if m.Content != "Use the above summary to continue our conversation from where we left off." {
				t.Fatalf("unexpected recovery prompt text: %q", m.Content)
			}
		}
	}
	if !foundSummary {
		t.Fatal("expected a summary message in the result")
	}
	if !foundRecovery {
		t.Fatal("expected a recovery prompt message in the result")
	}

	if result.NewMessages[0].Role != model.RoleSystem {
		t.Fatalf("expected system message to be preserved first, got %+v", result.NewMessages[0])
	}
}

func TestCompactFailsOnShortSummary(t *testing.T) {
	s := NewOpenCodeStrategy()
	messages := []model.Message{userMsg("hi"), assistantMsg("hello")}

	result := s.Compact(context.Background(), Context{
		Messages:  messages,
		Summarize: &stubSummarizer{summary: "ok"},
	})
	if result.Success {
		t.Fatal("expected failure for too-short summary")
	}
}

func TestCompactPropagatesSummarizerError(t *testing.T) {
	s := NewOpenCodeStrategy()
	messages := []model.Message{userMsg("hi"), assistantMsg("hello")}

	result := s.Compact(context.Background(), Context{
		Messages:  messages,
		Summarize: &stubSummarizer{err: errors.New("model unavailable")},
	})
	if result.Success {
		t.Fatal("expected failure when summarizer errors")
	}
	if result.Error == nil {
		t.Fatal("expected a non-nil error")
	}
}

func TestPruneClearsOldToolOutputBeyondBudget(t *testing.T) {
	s := &OpenCodeStrategy{PruneMinimum: pruneMinimum, PruneProtect: 10, ProtectTurns: 1, AutoThreshold: autoThreshold}
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'x'
	}
	messages := []model.Message{
		userMsg("old question"),
		toolMsg(string(big)),
		userMsg("recent question"),
		assistantMsg("recent answer"),
	}

	count, _ := s.prune(messages)
	if count == 0 {
		t.Fatal("expected at least one message to be pruned")
	}
	if messages[1].Content != prunedSentinel {
		t.Fatalf("expected old tool content to be replaced with sentinel, got %q", messages[1].Content)
	}
	if _, ok := messages[1].Metadata[model.MetaCompactedAt]; !ok {
		t.Fatal("expected compacted_at metadata to be set")
	}
}

func TestGetRecentTurnsSkipsSystemAndSummary(t *testing.T) {
	summary := assistantMsg("summary text")
	summary.SetMeta(model.MetaSummary, true)
	recovery := userMsg("recovery text")
	recovery.SetMeta(model.MetaRecoveryPrompt, true)

	messages := []model.Message{
		{Role: model.RoleSystem, Content: "sys", Timestamp: time.Now()},
		summary,
		recovery,
		userMsg("turn one"),
		assistantMsg("turn one reply"),
		userMsg("turn two"),
		assistantMsg("turn two reply"),
	}

	recent := getRecentTurns(messages, 1)
	for _, m := range recent {
		if m.IsSummary() || m.IsRecoveryPrompt() || m.Role == model.RoleSystem {
			t.Fatalf("recent turns must not include system/summary/recovery messages, got %+v", m)
		}
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 messages (one turn), got %d: %+v", len(recent), recent)
	}
}
