package turn

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by Run, grounded on internal/agent/errors.go's
// sentinel set, narrowed to the cases an Agent Turn can itself produce.
var (
	ErrNoProvider = errors.New("turn: no provider configured")
	ErrAborted    = errors.New("turn: aborted at suspension point")
)

// ToolErrorType categorizes a tool failure for retry and reporting purposes,
// grounded verbatim in internal/agent/errors.go's classification scheme.
type ToolErrorType string

const (
	ToolErrorNotFound      ToolErrorType = "not_found"
	ToolErrorInvalidInput  ToolErrorType = "invalid_input"
	ToolErrorTimeout       ToolErrorType = "timeout"
	ToolErrorNetwork       ToolErrorType = "network"
	ToolErrorPermission    ToolErrorType = "permission"
	ToolErrorRateLimit     ToolErrorType = "rate_limit"
	ToolErrorExecution     ToolErrorType = "execution"
	ToolErrorPanic         ToolErrorType = "panic"
	ToolErrorUnknown       ToolErrorType = "unknown"
)

// IsRetryable reports whether this error type suggests a retry may succeed.
func (t ToolErrorType) IsRetryable() bool {
	switch t {
	case ToolErrorTimeout, ToolErrorNetwork, ToolErrorRateLimit:
		return true
	default:
		return false
	}
}

// ToolError is a structured tool-execution failure, carrying enough context
// for internal/backoff retry decisions and for attributing a turn failure to
// a specific tool call in logs.
type ToolError struct {
	Type       ToolErrorType
	ToolName   string
	ToolCallID string
	Message    string
	Cause      error
}

func (e *ToolError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[tool:%s]", e.Type))
	if e.ToolName != "" {
		parts = append(parts, e.ToolName)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

func (e *ToolError) Unwrap() error { return e.Cause }

// classifyToolError infers a ToolErrorType from error text, used when a tool
// raises a plain error rather than a typed one.
func classifyToolError(err error) ToolErrorType {
	if err == nil {
		return ToolErrorUnknown
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return ToolErrorTimeout
	case strings.Contains(lower, "connection"), strings.Contains(lower, "network"),
		strings.Contains(lower, "refused"), strings.Contains(lower, "unreachable"):
		return ToolErrorNetwork
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "429"):
		return ToolErrorRateLimit
	case strings.Contains(lower, "permission"), strings.Contains(lower, "forbidden"),
		strings.Contains(lower, "unauthorized"):
		return ToolErrorPermission
	case strings.Contains(lower, "invalid"), strings.Contains(lower, "required"),
		strings.Contains(lower, "missing"):
		return ToolErrorInvalidInput
	case strings.Contains(lower, "not found"):
		return ToolErrorNotFound
	default:
		return ToolErrorExecution
	}
}
