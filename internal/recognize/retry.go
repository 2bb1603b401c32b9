package recognize

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"setlist/internal/logging"
)

// RetryPolicy controls backoff when the gateway throttles requests.
type RetryPolicy struct {
	// MaxAttempts is the total number of submissions per sample,
	// including the first one.
	MaxAttempts int
	// InitialBackoff is the pause before the second attempt. Each
	// further attempt multiplies the pause by Multiplier.
	InitialBackoff time.Duration
	Multiplier     float64
	// JitterFraction widens each pause by a random share of itself so
	// parallel runs do not retry in lockstep.
	JitterFraction float64
}

// DefaultRetryPolicy mirrors the gateway's published throttling guidance.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// IsRateLimited reports whether an error looks like a throttling response.
// The gateway is not consistent about status codes versus prose, so the
// check is textual.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "429") ||
		strings.Contains(text, "too many") ||
		strings.Contains(text, "rate")
}

// Adapter wraps a Service with throttle-aware retries. Recognition
// failures are absorbed: a sample whose submission keeps failing is
// reported as unmatched rather than aborting the whole run. Context
// cancellation still propagates.
type Adapter struct {
	service Service
	policy  RetryPolicy
	logger  *slog.Logger

	// sleep and jitter are injectable for tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

var _ Service = (*Adapter)(nil)

// NewAdapter wraps service with the given retry policy.
func NewAdapter(service Service, policy RetryPolicy, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 1
	}
	return &Adapter{
		service: service,
		policy:  policy,
		logger:  logger,
		sleep:   sleepContext,
		jitter:  rand.Float64,
	}
}

// Identify submits the sample, retrying with exponential backoff while the
// gateway throttles. Errors other than context cancellation are logged and
// reported as an unmatched sample.
func (a *Adapter) Identify(ctx context.Context, sample []byte) (*Match, error) {
	backoff := a.policy.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= a.policy.MaxAttempts; attempt++ {
		match, err := a.service.Identify(ctx, sample)
		if err == nil {
			return match, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !IsRateLimited(err) || attempt == a.policy.MaxAttempts {
			break
		}
		pause := a.withJitter(backoff)
		a.logger.Warn("recognition throttled, backing off",
			logging.Int("attempt", attempt),
			logging.Duration("pause", pause),
			logging.Error(err))
		if err := a.sleep(ctx, pause); err != nil {
			return nil, err
		}
		backoff = time.Duration(float64(backoff) * a.policy.Multiplier)
	}
	a.logger.Warn("recognition failed, treating sample as unmatched", logging.Error(lastErr))
	return nil, nil
}

func (a *Adapter) withJitter(d time.Duration) time.Duration {
	if a.policy.JitterFraction <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*a.policy.JitterFraction*a.jitter())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
