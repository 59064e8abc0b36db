package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// IsTransient returns true if the error looks safe to retry: a network
// timeout, a dropped connection, or a rate-limit/overload response from
// the extraction backend. Per-attempt deadline expiry counts as transient
// (the next attempt gets a fresh deadline); parent cancellation does not,
// but Call checks the parent context before consulting this.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients and
	// the backend SDK, which does not expose typed status errors through
	// our wrapping.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
		"rate limit",
		"overloaded",
		"429",
		"529",
		"500 internal",
		"502",
		"503",
		"504",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
