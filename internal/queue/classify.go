package queue

import (
	"errors"
	"strings"
)

// Sentinel errors that let callers tag failures with an explicit
// classification instead of relying on message patterns.
var (
	ErrRetryable = errors.New("retryable queue error")
	ErrTerminal  = errors.New("terminal queue error")
)

// Terminal patterns are checked first: a client or auth problem will not get
// better by retrying, even when the message also mentions a network symptom.
var terminalPatterns = []string{
	"invalid",
	"authentication",
	"authorization",
	"not found",
	"400",
	"401",
	"403",
	"404",
}

var retryablePatterns = []string{
	"timeout",
	"econnrefused",
	"etimedout",
	"network",
	"rate limit",
	"quota",
	"500",
	"502",
	"503",
}

// IsRetryable classifies a provider failure. Explicit sentinel tags win;
// otherwise the error message is matched case-insensitively against the
// known pattern families, with terminal patterns taking precedence.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTerminal) {
		return false
	}
	if errors.Is(err, ErrRetryable) {
		return true
	}
	return classifyMessage(err.Error())
}

// ClassifyMessage applies the pattern rules to a stored error string, used
// when re-evaluating persisted failures.
func ClassifyMessage(message string) bool {
	return classifyMessage(message)
}

func classifyMessage(message string) bool {
	lower := strings.ToLower(message)
	for _, pattern := range terminalPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
