package session

import "errors"

// Sentinel errors, grounded in SPEC_FULL.md section 7's error table.
var (
	ErrMaxTurns         = errors.New("session: turn budget exhausted")
	ErrSessionNotActive = errors.New("session: not active")
	ErrRolloutCorrupt   = errors.New("session: rollout transcript corrupt")
)
