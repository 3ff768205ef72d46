package orchestrator

import (
	"context"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/model"
)

// Per-call retry backoff parameters. The delay before attempt n (0-indexed)
// is retryBaseDelay * retryBackoffFactor^n.
const (
	retryBaseDelay     = 1 * time.Second
	retryBackoffFactor = 2
)

// RetryDelay returns the backoff delay before retrying after the given
// 0-indexed failed attempt.
func RetryDelay(attempt int) time.Duration {
	delay := retryBaseDelay
	for i := 0; i < attempt; i++ {
		delay *= retryBackoffFactor
	}
	return delay
}

// callWithRetry issues one model call with the per-call retry policy: a
// failure classified retryable (timeout or rate limit) is retried up to the
// configured attempt budget with exponential backoff; any other failure, or
// an exhausted budget, yields the failed response as data.
//
// The per-call timeout applies to each attempt individually; backoff sleeps
// honor cancellation.
func (o *Orchestrator) callWithRetry(ctx context.Context, role debate.Role, prompt string) *debate.ModelResponse {
	var resp *debate.ModelResponse

	for attempt := 0; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
		resp = o.caller.Call(callCtx, role, prompt)
		cancel()

		if !resp.Failed() {
			return resp
		}
		if !resp.Metadata.Error.Retryable || attempt >= o.cfg.RetryAttempts {
			return resp
		}

		delay := RetryDelay(attempt)
		o.logger.Warn("model call failed, retrying",
			"role", string(role),
			"attempt", attempt+1,
			"code", resp.Metadata.Error.Code,
			"delay", delay.String(),
		)
		o.callbacks.notifyCallRetry(role, attempt+1, resp.Metadata.Error.Code)

		if !sleep(ctx, delay) {
			// Canceled mid-backoff; surface the last failure.
			return model.FailedResponse(role, resp.Metadata.Model, model.ErrCodeCanceled,
				"canceled while waiting to retry", false, resp.Metadata.RequestedAt)
		}
	}
}

// sleep waits for d or until the context is done, reporting whether the
// full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
