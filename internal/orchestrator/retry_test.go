package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/model"
)

func TestRetryDelay(t *testing.T) {
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}
	for attempt, expected := range want {
		if got := RetryDelay(attempt); got != expected {
			t.Errorf("RetryDelay(%d) = %v, want %v", attempt, got, expected)
		}
	}
}

func TestCallWithRetryDoesNotRetryPermanentFailures(t *testing.T) {
	cfg := debate.DefaultConfig()

	calls := 0
	caller := model.CallerFunc(func(context.Context, debate.Role, string) *debate.ModelResponse {
		calls++
		return model.FailedResponse(debate.RoleProposer, "m", model.ErrCodeProvider, "bad request", false, time.Now().UTC())
	})

	o := newTestOrchestrator(t, caller, cfg)

	resp := o.callWithRetry(context.Background(), debate.RoleProposer, "p")
	if !resp.Failed() {
		t.Fatal("expected a failed response")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on non-retryable failure)", calls)
	}
}

func TestCallWithRetryExhaustsBudget(t *testing.T) {
	cfg := testConfig() // RetryAttempts = 0

	calls := 0
	caller := model.CallerFunc(func(context.Context, debate.Role, string) *debate.ModelResponse {
		calls++
		return model.FailedResponse(debate.RoleProposer, "m", model.ErrCodeRateLimited, "429", true, time.Now().UTC())
	})

	o := newTestOrchestrator(t, caller, cfg)

	resp := o.callWithRetry(context.Background(), debate.RoleProposer, "p")
	if !resp.Failed() {
		t.Fatal("expected a failed response")
	}
	if resp.Metadata.Error.Code != model.ErrCodeRateLimited {
		t.Errorf("Code = %q, want %q", resp.Metadata.Error.Code, model.ErrCodeRateLimited)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 with a zero retry budget", calls)
	}
}

func TestCallWithRetryStopsOnCancellation(t *testing.T) {
	cfg := debate.DefaultConfig() // RetryAttempts = 2

	ctx, cancel := context.WithCancel(context.Background())
	caller := model.CallerFunc(func(context.Context, debate.Role, string) *debate.ModelResponse {
		cancel() // cancel mid-flight so the backoff sleep aborts
		return model.FailedResponse(debate.RoleProposer, "m", model.ErrCodeTimeout, "deadline", true, time.Now().UTC())
	})

	o := newTestOrchestrator(t, caller, cfg)

	start := time.Now()
	resp := o.callWithRetry(ctx, debate.RoleProposer, "p")
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("callWithRetry took %v, should abort backoff on cancellation", elapsed)
	}
	if resp.Metadata.Error.Code != model.ErrCodeCanceled {
		t.Errorf("Code = %q, want %q", resp.Metadata.Error.Code, model.ErrCodeCanceled)
	}
}
