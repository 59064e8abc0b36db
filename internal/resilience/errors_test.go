package resilience

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("calling backend: %w", context.DeadlineExceeded), true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"rate limit message", errors.New("anthropic: rate limit exceeded"), true},
		{"overloaded message", errors.New("overloaded_error: try again"), true},
		{"429 status", errors.New("unexpected status 429"), true},
		{"529 status", errors.New("unexpected status 529"), true},
		{"503 status", errors.New("unexpected status 503"), true},
		{"dns failure", errors.New("dial tcp: lookup api.example.com: no such host"), true},
		{"bad request", errors.New("unexpected status 400: invalid request"), false},
		{"auth failure", errors.New("unexpected status 401: invalid api key"), false},
		{"parse failure", errors.New("unmarshaling response"), false},
		{"parent canceled", context.Canceled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
