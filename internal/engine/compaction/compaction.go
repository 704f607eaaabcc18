// Package compaction implements the Compaction Engine: a pluggable
// strategy interface plus the required two-phase Prune+Summarize strategy,
// grounded on original_source/src/core/compaction/{base,utils}.py and
// strategies/opencode.py.
package compaction

import (
	"context"
	"strings"

	"github.com/xushun007/agentcore/internal/model"
)

// EstimateTokens approximates a token count from character length (4
// chars/token), grounded on compaction/utils.py's estimate_tokens.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n < 0 {
		return 0
	}
	return n
}

// systemPrefixes marks user messages that function as system context even
// though their Role is "user", grounded on utils.py's is_system_message.
var systemPrefixes = []string{"<user_instructions>", "<environment_context>", "<project_context>"}

// IsSystemMessage reports whether msg should be treated as non-conversational
// system context for compaction purposes.
func IsSystemMessage(msg model.Message) bool {
	if msg.Role == model.RoleSystem {
		return true
	}
	if msg.Role != model.RoleUser {
		return false
	}
	lower := strings.ToLower(msg.Content)
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Context carries everything a strategy needs to decide and perform
// compaction, grounded on compaction/base.py's CompactionContext.
type Context struct {
	Messages      []model.Message
	CurrentTokens int
	MaxTokens     int
	ModelName     string
	SessionID     string
	Summarize     Summarizer
}

// Summarizer generates a natural-language summary of a message run. The
// concrete implementation calls the Model Client; tests supply a stub.
type Summarizer interface {
	Summarize(ctx context.Context, messages []model.Message) (string, error)
}

// Result is the outcome of one compaction pass, grounded on
// compaction/base.py's CompactResult.
type Result struct {
	Success      bool
	NewMessages  []model.Message
	RemovedCount int
	TokensSaved  int
	StrategyName string
	PruneCount   int
	Error        error
}

// Strategy is the pluggable compaction algorithm interface, grounded on
// compaction/base.py's CompactionStrategy ABC.
type Strategy interface {
	Name() string
	ShouldCompact(ctx Context) bool
	Compact(ctx context.Context, cctx Context) Result
}
