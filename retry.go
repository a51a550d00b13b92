package pipeflow

import (
	"context"
	"io"
	"time"
)

// RetryOption configures [RetryMap].
type RetryOption func(*retryConfig)

type retryConfig struct {
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

// WithMaxAttempts caps the number of attempts per value, including the
// first. The default is 3.
func WithMaxAttempts(n int) RetryOption {
	return func(c *retryConfig) { c.maxAttempts = n }
}

// WithBackoff overrides the delay before each retry, given the attempt
// number that just failed (1-indexed). The default is exponential:
// 50ms, 100ms, 200ms, ...
func WithBackoff(fn func(attempt int) time.Duration) RetryOption {
	return func(c *retryConfig) { c.backoff = fn }
}

func defaultBackoff(attempt int) time.Duration {
	d := 50 * time.Millisecond
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// RetryMap is [Map] with retries: fn is retried with backoff on error,
// up to the configured attempt limit, before the pipeline gives up and
// errors downstream with the last attempt's error.
func RetryMap[A, B any](fn func(context.Context, A) (B, error), opts ...RetryOption) Operator[A, B] {
	cfg := retryConfig{maxAttempts: 3, backoff: defaultBackoff}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(p *Pipeline[A]) *Pipeline[B] {
		return drive[B]("retryMap", 0, p.Dispose, func(ctx context.Context, sub *Subject[B]) error {
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				out, err := attemptWithRetry(ctx, cfg, v, fn)
				if err != nil {
					return err
				}
				if err := sub.Emit(ctx, out); err != nil {
					return err
				}
			}
		})
	}
}

func attemptWithRetry[A, B any](ctx context.Context, cfg retryConfig, v A, fn func(context.Context, A) (B, error)) (B, error) {
	var lastErr error
	var zero B
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		out, err := fn(ctx, v)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == cfg.maxAttempts {
			break
		}
		timer := time.NewTimer(cfg.backoff(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}
