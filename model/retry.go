package model

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/provenlabs/agentcore/logging"
	"github.com/provenlabs/agentcore/transcript"
)

// RetryOptions configures the retry decorator.
type RetryOptions struct {
	// MaxRateLimitRetries bounds retries of rate-limited calls.
	MaxRateLimitRetries uint64
	// BaseDelay is the initial backoff delay, doubled per attempt.
	BaseDelay time.Duration
	// Logger receives retry decisions.
	Logger logging.Logger
}

type retryingGateway struct {
	inner Gateway
	opts  RetryOptions
}

// WithRetry wraps a Gateway with the failure policy from the error taxonomy:
// rate-limited calls are retried with bounded exponential backoff, transient
// model errors are retried exactly once, and authentication failures are
// surfaced immediately.
func WithRetry(inner Gateway, optFns ...func(o *RetryOptions)) Gateway {
	opts := RetryOptions{
		MaxRateLimitRetries: 3,
		BaseDelay:           500 * time.Millisecond,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &retryingGateway{inner: inner, opts: opts}
}

// Complete implements Gateway.
func (g *retryingGateway) Complete(ctx context.Context, req Request) (transcript.ModelTurn, error) {
	var turn transcript.ModelTurn
	transientRetried := false

	backoff := retry.WithMaxRetries(g.opts.MaxRateLimitRetries, retry.NewExponential(g.opts.BaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		turn, callErr = g.inner.Complete(ctx, req)
		if callErr == nil {
			return nil
		}

		var ge *GatewayError
		if !errors.As(callErr, &ge) {
			return callErr
		}

		switch ge.Kind {
		case KindRateLimited:
			g.opts.Logger.Warn("model.retry.rate_limited", "model", req.Model)
			return retry.RetryableError(callErr)
		case KindTransient:
			if transientRetried {
				return callErr
			}
			transientRetried = true
			g.opts.Logger.Warn("model.retry.transient", "model", req.Model, "error", ge.Err.Error())
			return retry.RetryableError(callErr)
		default:
			return callErr
		}
	})
	return turn, err
}
