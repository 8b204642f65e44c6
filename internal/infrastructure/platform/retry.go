package platform

import (
	"time"

	"github.com/znakly/agent/internal/config"
	"github.com/znakly/agent/internal/infrastructure/logger"
)

// Retryer runs network actions with bounded attempts and exponential
// backoff. The platform contract does not distinguish retryable from
// permanent failures, so every error is treated as transient until the
// attempt budget is spent.
type Retryer struct {
	maxAttempts int
	baseDelay   time.Duration
	multiplier  int
	logger      *logger.Logger
	sleep       func(time.Duration)
}

func NewRetryer(cfg config.RetryConfig, log *logger.Logger) *Retryer {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 4
	}
	baseDelay := cfg.BaseDelay
	if baseDelay == 0 {
		baseDelay = time.Second
	}
	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}
	return &Retryer{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		multiplier:  multiplier,
		logger:      log,
		sleep:       time.Sleep,
	}
}

// Do runs fn until it succeeds or the attempt budget is exhausted, sleeping
// before every attempt but the first. The attempt number is passed through so
// callers can build a fresh request per try. On exhaustion the last error is
// returned verbatim.
func Do[T any](r *Retryer, op string, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := r.baseDelay

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			r.sleep(delay)
			delay *= time.Duration(r.multiplier)
		}

		result, err := fn(attempt)
		if err == nil {
			r.logger.Debugw("request_attempt_ok", "op", op, "attempt", attempt)
			return result, nil
		}

		lastErr = err
		r.logger.Warnw("request_attempt_failed",
			"op", op,
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"error", err,
		)
	}
	return zero, lastErr
}
