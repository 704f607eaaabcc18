package compaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xushun007/agentcore/internal/model"
)

// Constants grounded on strategies/opencode.py's OpenCodeStrategy class
// attributes.
const (
	pruneMinimum   = 5000
	pruneProtect   = 10000
	protectTurns   = 2
	autoThreshold  = 0.75
	prunedSentinel = "[Old tool result content cleared]"
)

// OpenCodeStrategy is the required two-phase Prune+Summarize strategy,
// ported line-for-line from strategies/opencode.py: phase 1 clears stale
// tool output once it crosses a token budget, phase 2 replaces everything
// before the most recent turns with an LLM-generated summary.
type OpenCodeStrategy struct {
	PruneMinimum int
	PruneProtect int
	ProtectTurns int
	AutoThreshold float64
}

// NewOpenCodeStrategy returns a strategy configured with the reference
// constants, overridable per field.
func NewOpenCodeStrategy() *OpenCodeStrategy {
	return &OpenCodeStrategy{
		PruneMinimum:  pruneMinimum,
		PruneProtect:  pruneProtect,
		ProtectTurns:  protectTurns,
		AutoThreshold: autoThreshold,
	}
}

func (s *OpenCodeStrategy) Name() string { return "opencode" }

// ShouldCompact reports whether current usage has crossed the auto-compact
// threshold, grounded on opencode.py's should_compact.
func (s *OpenCodeStrategy) ShouldCompact(ctx Context) bool {
	if ctx.MaxTokens == 0 {
		return false
	}
	ratio := float64(ctx.CurrentTokens) / float64(ctx.MaxTokens)
	return ratio >= s.AutoThreshold
}

// Compact runs Prune then Summarize, grounded on opencode.py's compact.
func (s *OpenCodeStrategy) Compact(ctx context.Context, cctx Context) Result {
	messages := append([]model.Message(nil), cctx.Messages...)
	initialCount := len(messages)
	initialTokens := cctx.CurrentTokens

	pruneCount, _ := s.prune(messages)

	newMessages, err := s.summarize(ctx, messages, cctx)
	if err != nil {
		return Result{
			Success:      false,
			NewMessages:  cctx.Messages,
			StrategyName: s.Name(),
			Error:        err,
		}
	}

	finalTokens := 0
	for _, m := range newMessages {
		finalTokens += EstimateTokens(m.Content)
	}

	return Result{
		Success:      true,
		NewMessages:  newMessages,
		RemovedCount: initialCount - len(newMessages),
		TokensSaved:  initialTokens - finalTokens,
		StrategyName: s.Name(),
		PruneCount:   pruneCount,
	}
}

// prune clears old tool output in place, walking backward from the most
// recent message and protecting the last ProtectTurns user turns. It stops
// at an assistant summary message or an already-pruned tool message,
// grounded on opencode.py's _prune.
func (s *OpenCodeStrategy) prune(messages []model.Message) (count, tokens int) {
	totalTokens := 0
	turnCount := 0

	for i := len(messages) - 1; i >= 0; i-- {
		msg := &messages[i]

		if msg.Role == model.RoleUser && !IsSystemMessage(*msg) {
			turnCount++
		}
		if turnCount < s.ProtectTurns {
			continue
		}

		if msg.Role == model.RoleAssistant && msg.IsSummary() {
			break
		}

		if msg.Role == model.RoleTool {
			if _, compacted := msg.Metadata[model.MetaCompactedAt]; compacted {
				break
			}

			t := EstimateTokens(msg.Content)
			totalTokens += t
			if totalTokens > s.PruneProtect {
				msg.Content = prunedSentinel
				msg.SetMeta(model.MetaCompactedAt, time.Now())
				tokens += t
				count++
			}
		}
	}
	return count, tokens
}

// summarize replaces everything since the last summary with a single
// generated summary message plus a recovery prompt, keeping the most recent
// ProtectTurns turns verbatim. Grounded on opencode.py's _compact.
func (s *OpenCodeStrategy) summarize(ctx context.Context, messages []model.Message, cctx Context) ([]model.Message, error) {
	toSummarize := filterSummarized(messages)
	if len(toSummarize) == 0 {
		return messages, nil
	}

	if cctx.Summarize == nil {
		return nil, fmt.Errorf("compaction: no summarizer configured")
	}
	summary, err := cctx.Summarize.Summarize(ctx, toSummarize)
	if err != nil {
		return nil, fmt.Errorf("compaction: generate summary: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if len(summary) < 10 {
		return nil, fmt.Errorf("compaction: summary too short (%d chars)", len(summary))
	}

	var out []model.Message
	for _, m := range messages {
		if IsSystemMessage(m) {
			out = append(out, m)
		}
	}

	summaryMsg := model.Message{Role: model.RoleAssistant, Content: summary, Timestamp: time.Now()}
	summaryMsg.SetMeta(model.MetaSummary, true)
	out = append(out, summaryMsg)

	recovery := model.Message{
		Role:      model.RoleUser,
		Content:   "Use the above summary to continue our conversation from where we left off.",
		Timestamp: time.Now(),
	}
	recovery.SetMeta(model.MetaRecoveryPrompt, true)
	out = append(out, recovery)

	out = append(out, getRecentTurns(messages, s.ProtectTurns)...)
	return out, nil
}

// filterSummarized returns the messages after the last summary message (or,
// if none exists, every non-system message), grounded on opencode.py's
// _filter_summarized/_find_last_summary_index.
func filterSummarized(messages []model.Message) []model.Message {
	lastSummary := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleAssistant && messages[i].IsSummary() {
			lastSummary = i
			break
		}
	}
	if lastSummary == -1 {
		var out []model.Message
		for _, m := range messages {
			if !IsSystemMessage(m) {
				out = append(out, m)
			}
		}
		return out
	}
	return messages[lastSummary+1:]
}

// getRecentTurns walks backward collecting the last nTurns user/assistant/
// tool turns, skipping system/summary/recovery messages, grounded on
// opencode.py's _get_recent_turns.
func getRecentTurns(messages []model.Message, nTurns int) []model.Message {
	if nTurns <= 0 {
		return nil
	}

	var recent []model.Message
	turnCount := 0

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if IsSystemMessage(msg) || msg.IsSummary() || msg.IsRecoveryPrompt() {
			continue
		}

		if msg.Role == model.RoleUser {
			turnCount++
			if turnCount > nTurns {
				break
			}
		}

		recent = append([]model.Message{msg}, recent...)
	}
	return recent
}
