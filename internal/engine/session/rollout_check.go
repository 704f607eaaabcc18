package session

import (
	"fmt"

	"github.com/xushun007/agentcore/internal/model"
)

// validateTranscript checks invariant I-1: every tool message must carry a
// call_id emitted by the nearest preceding assistant message's tool calls.
// Grounded on internal/agent/transcript_repair.go's repairTranscript, adapted
// from silent repair to rejection — a resumed session that can't trust its
// own history should refuse to continue rather than guess.
func validateTranscript(messages []model.Message) error {
	pending := map[string]bool{}
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleAssistant:
			pending = make(map[string]bool, len(msg.ToolCalls))
			for _, call := range msg.ToolCalls {
				pending[call.CallID] = true
			}
		case model.RoleTool:
			if msg.ToolCallID == "" {
				return fmt.Errorf("%w: tool message missing call_id", ErrRolloutCorrupt)
			}
			if !pending[msg.ToolCallID] {
				return fmt.Errorf("%w: tool message references unmatched call_id %q", ErrRolloutCorrupt, msg.ToolCallID)
			}
			delete(pending, msg.ToolCallID)
		}
	}
	return nil
}
