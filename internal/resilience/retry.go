// Package resilience bounds the pipeline's outbound extraction calls with
// per-call timeouts and transient-only retry. Every classifier and
// extractor call runs through Call so that a hung backend can never stall
// a request indefinitely.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// CallPolicy controls timeout and retry behavior for one outbound call.
type CallPolicy struct {
	// Timeout bounds each individual attempt. Default: 30s.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts (including the first).
	// A value of 1 means no retries. Default: 2.
	MaxAttempts int

	// InitialBackoff is the base delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 10s.
	MaxBackoff time.Duration

	// JitterFraction adds random jitter as a fraction of the computed
	// delay (0.25 = ±25%). Default: 0.25.
	JitterFraction float64
}

// DefaultCallPolicy returns the policy used for extraction-backend calls.
// The pipeline soft-fails each stage, so retries are kept short: one
// retry, bounded attempts, never more than the caller's deadline.
func DefaultCallPolicy() CallPolicy {
	return CallPolicy{
		Timeout:        30 * time.Second,
		MaxAttempts:    2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		JitterFraction: 0.25,
	}
}

func (p CallPolicy) withDefaults() CallPolicy {
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 2
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 500 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 10 * time.Second
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	return p
}

// Call executes fn under the policy's per-attempt timeout, retrying only
// transient errors. The parent context still propagates cancellation, so
// a disconnected client stops in-flight attempts immediately.
func Call[T any](ctx context.Context, policy CallPolicy, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	policy = policy.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
		val, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return val, nil
		}
		lastErr = err

		// Don't retry once the parent context is gone.
		if ctx.Err() != nil {
			return zero, lastErr
		}

		if !IsTransient(lastErr) {
			return zero, lastErr
		}

		if attempt >= policy.MaxAttempts-1 {
			break
		}

		zap.L().Warn("retrying extraction call",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)

		delay := backoff(attempt, policy)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

func backoff(attempt int, policy CallPolicy) time.Duration {
	delay := float64(policy.InitialBackoff) * math.Pow(2, float64(attempt))
	if delay > float64(policy.MaxBackoff) {
		delay = float64(policy.MaxBackoff)
	}

	if policy.JitterFraction > 0 {
		jitterRange := delay * policy.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
