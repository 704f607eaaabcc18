package modelclient

import (
	"errors"
	"fmt"
	"strings"
)

// FailoverReason categorizes why a provider request failed, grounded on the
// teacher's identical classification in internal/agent/providers/errors.go.
type FailoverReason string

const (
	FailoverBilling          FailoverReason = "billing"
	FailoverRateLimit        FailoverReason = "rate_limit"
	FailoverAuth             FailoverReason = "auth"
	FailoverTimeout          FailoverReason = "timeout"
	FailoverServerError      FailoverReason = "server_error"
	FailoverInvalidRequest   FailoverReason = "invalid_request"
	FailoverModelUnavailable FailoverReason = "model_unavailable"
	FailoverUnknown          FailoverReason = "unknown"
)

// IsRetryable reports whether retrying the same provider may succeed.
func (r FailoverReason) IsRetryable() bool {
	switch r {
	case FailoverRateLimit, FailoverTimeout, FailoverServerError:
		return true
	default:
		return false
	}
}

// ProviderError is a structured error from a vendor SDK call, carrying
// enough context for internal/backoff retry decisions and for attributing
// a turn failure to a specific provider/model in logs.
type ProviderError struct {
	Reason    FailoverReason
	Provider  string
	Model     string
	Status    int
	Code      string
	Message   string
	RequestID string
	Cause     error
}

func (e *ProviderError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Reason))
	if e.Provider != "" {
		parts = append(parts, e.Provider)
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// NewProviderError wraps err with a best-effort classification based on its
// message text, for SDK errors that don't carry a typed status code.
func NewProviderError(provider, model string, err error) *ProviderError {
	pe := &ProviderError{Provider: provider, Model: model, Cause: err, Reason: FailoverUnknown}
	if err != nil {
		pe.Message = err.Error()
		pe.Reason = classify(err.Error())
	}
	return pe
}

func classify(msg string) FailoverReason {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "429"), strings.Contains(lower, "rate_limit"), strings.Contains(lower, "too many requests"):
		return FailoverRateLimit
	case strings.Contains(lower, "401"), strings.Contains(lower, "403"), strings.Contains(lower, "unauthorized"), strings.Contains(lower, "forbidden"):
		return FailoverAuth
	case strings.Contains(lower, "402"), strings.Contains(lower, "billing"), strings.Contains(lower, "quota"):
		return FailoverBilling
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return FailoverTimeout
	case strings.Contains(lower, "500"), strings.Contains(lower, "502"), strings.Contains(lower, "503"), strings.Contains(lower, "504"):
		return FailoverServerError
	case strings.Contains(lower, "400"), strings.Contains(lower, "invalid"):
		return FailoverInvalidRequest
	default:
		return FailoverUnknown
	}
}

// IsProviderError reports whether err is or wraps a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsRetryable reports whether err should be retried by internal/backoff.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reason.IsRetryable()
	}
	return false
}
