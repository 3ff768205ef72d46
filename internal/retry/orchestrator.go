package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/Iron-Ham/triad/internal/errors"
	"github.com/Iron-Ham/triad/internal/executor"
	"github.com/Iron-Ham/triad/internal/logging"
)

// Backoff policy for transient and unknown failures.
const (
	DefaultMaxRetries = 3

	baseDelay         = 1 * time.Second
	backoffMultiplier = 2
	maxDelay          = 60 * time.Second
)

// maxFeedbackRounds bounds how many times a fixable failure may go back to
// the caller before the plan escalates.
const maxFeedbackRounds = 2

// Backoff returns the delay before retrying after the given 0-indexed
// failed attempt, capped at one minute.
func Backoff(attempt int) time.Duration {
	delay := baseDelay
	for i := 0; i < attempt; i++ {
		delay *= backoffMultiplier
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return delay
}

// FeedbackDecision is the caller's answer to a fixable failure.
type FeedbackDecision string

const (
	// DecisionRetry re-runs the plan, assuming the caller fixed the
	// environment or amended the plan.
	DecisionRetry FeedbackDecision = "retry"

	// DecisionSkip abandons the plan without treating it as a failure.
	DecisionSkip FeedbackDecision = "skip"

	// DecisionEscalate hands the plan to a human immediately.
	DecisionEscalate FeedbackDecision = "escalate"
)

// FeedbackHandler resolves fixable failures. The returned note is recorded
// in the feedback history and, on retry, appended to the plan document so
// the executor sees the clarification.
type FeedbackHandler interface {
	Resolve(ctx context.Context, c Classification, attempt int) (FeedbackDecision, string, error)
}

// FeedbackFunc adapts a function to the FeedbackHandler interface.
type FeedbackFunc func(ctx context.Context, c Classification, attempt int) (FeedbackDecision, string, error)

// Resolve implements FeedbackHandler.
func (f FeedbackFunc) Resolve(ctx context.Context, c Classification, attempt int) (FeedbackDecision, string, error) {
	return f(ctx, c, attempt)
}

// FeedbackRecord is one resolved feedback round.
type FeedbackRecord struct {
	Attempt        int              `json:"attempt"`
	Classification Classification   `json:"classification"`
	Decision       FeedbackDecision `json:"decision"`
	Note           string           `json:"note,omitempty"`
	DecidedAt      time.Time        `json:"decided_at"`
}

// FinalStatus is the terminal outcome of ExecuteWithRetry.
type FinalStatus string

const (
	// FinalSucceeded indicates an attempt completed cleanly.
	FinalSucceeded FinalStatus = "succeeded"

	// FinalSkipped indicates the caller chose to abandon the plan.
	FinalSkipped FinalStatus = "skipped"

	// FinalEscalated indicates the plan was handed to a human.
	FinalEscalated FinalStatus = "escalated"
)

// EscalationReport is the structured hand-off to a human when execution
// cannot proceed.
type EscalationReport struct {
	SessionID       string           `json:"session_id,omitempty"`
	Attempts        int              `json:"attempts"`
	Elapsed         time.Duration    `json:"elapsed_ns"`
	Classification  Classification   `json:"classification"`
	StderrExcerpt   string           `json:"stderr_excerpt,omitempty"`
	ContextSummary  string           `json:"context_summary,omitempty"`
	FeedbackHistory []FeedbackRecord `json:"feedback_history,omitempty"`
	SuggestedFixes  []string         `json:"suggested_fixes,omitempty"`
}

// Result is the terminal outcome of driving one plan through execution.
type Result struct {
	FinalStatus FinalStatus       `json:"final_status"`
	Attempts    int               `json:"attempts"`
	Elapsed     time.Duration     `json:"elapsed_ns"`
	LastResult  *executor.Result  `json:"last_result,omitempty"`
	Escalation  *EscalationReport `json:"escalation,omitempty"`
}

// SessionContext carries debate identity into execution so escalation
// reports can point back at their session.
type SessionContext struct {
	SessionID string
	Summary   string
}

// stderrExcerptLimit bounds how much raw stderr an escalation report
// carries.
const stderrExcerptLimit = 2000

// Orchestrator drives a plan through execution with classified retries.
type Orchestrator struct {
	maxRetries int
	feedback   FeedbackHandler
	logger     *logging.Logger

	// sleep is swapped in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewOrchestrator creates a retry orchestrator with the default retry
// budget. A nil feedback handler escalates all fixable failures; a nil
// logger is replaced with a no-op logger.
func NewOrchestrator(feedback FeedbackHandler, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Orchestrator{
		maxRetries: DefaultMaxRetries,
		feedback:   feedback,
		logger:     logger.WithPhase("retry"),
		sleep:      sleepCtx,
	}
}

// SetMaxRetries overrides the transient retry budget. Values below zero
// are treated as zero.
func (o *Orchestrator) SetMaxRetries(n int) {
	if n < 0 {
		n = 0
	}
	o.maxRetries = n
}

// ExecuteWithRetry drives the plan to a terminal outcome. It never returns
// a Go error and never panics: invocation problems, exhausted budgets, and
// internal failures all surface as an escalated Result.
func (o *Orchestrator) ExecuteWithRetry(ctx context.Context, planDoc string, exec executor.Executor, sessionCtx *SessionContext) (result Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("retry loop panicked", "panic", fmt.Sprint(r))
			result = o.escalated(start, result.Attempts, Classification{
				Type:            TypePermanent,
				Confidence:      1,
				SuggestedAction: ActionEscalate,
				Explanation:     fmt.Sprintf("internal error during retry loop: %v", r),
			}, "", sessionCtx, nil)
		}
	}()

	if exec == nil {
		return o.escalated(start, 0, Classification{
			Type:            TypePermanent,
			Confidence:      1,
			SuggestedAction: ActionEscalate,
			Explanation:     "no executor provided",
		}, "", sessionCtx, nil)
	}

	var (
		attempts       int
		transientTries int
		feedbackRounds int
		history        []FeedbackRecord
		last           *executor.Result
	)

	doc := planDoc
	for {
		if ctx.Err() != nil {
			r := o.escalated(start, attempts, Classification{
				Type:            TypeTransient,
				Confidence:      1,
				SuggestedAction: ActionEscalate,
				Explanation:     fmt.Sprintf("execution stopped: %v", stopCause(ctx, start)),
			}, excerpt(last), sessionCtx, history)
			r.LastResult = last
			return r
		}

		attempts++
		o.logger.Info("executing plan", "attempt", attempts)

		execResult, err := exec.Run(ctx, doc)
		if err != nil {
			execErr := errors.NewExecutionError("executor invocation failed", err).
				WithAttempt(attempts).
				WithRetryable(errors.IsRetryable(err))
			if !execErr.IsRetryable() || transientTries >= o.maxRetries {
				kind := TypePermanent
				if execErr.IsRetryable() {
					kind = TypeTransient
				}
				return o.escalated(start, attempts, Classification{
					Type:            kind,
					Confidence:      1,
					SuggestedAction: ActionEscalate,
					Explanation:     execErr.Error(),
				}, "", sessionCtx, history)
			}
			delay := Backoff(transientTries)
			transientTries++
			o.logger.Warn("executor invocation failed, retrying",
				"attempt", attempts, "delay", delay.String(), "error", execErr.Error())
			if !o.sleep(ctx, delay) {
				return o.escalated(start, attempts, Classification{
					Type:            TypeTransient,
					Confidence:      1,
					SuggestedAction: ActionEscalate,
					Explanation:     fmt.Sprintf("execution stopped during backoff: %v", stopCause(ctx, start)),
				}, "", sessionCtx, history)
			}
			continue
		}
		last = execResult

		if execResult.Succeeded() {
			o.logger.Info("plan executed", "attempts", attempts)
			return Result{
				FinalStatus: FinalSucceeded,
				Attempts:    attempts,
				Elapsed:     time.Since(start),
				LastResult:  execResult,
			}
		}

		classification := Classify(execResult.ErrorText())
		o.logger.Warn("execution attempt failed",
			"attempt", attempts,
			"status", string(execResult.Status),
			"type", string(classification.Type),
			"action", classification.SuggestedAction,
		)

		switch classification.Type {
		case TypePermanent:
			r := o.escalated(start, attempts, classification, excerpt(last), sessionCtx, history)
			r.LastResult = last
			return r

		case TypeFixableWithFeedback:
			decision, record := o.resolveFeedback(ctx, classification, attempts, feedbackRounds)
			if record != nil {
				history = append(history, *record)
			}
			switch decision {
			case DecisionRetry:
				feedbackRounds++
				if record != nil && record.Note != "" {
					doc = doc + "\n\nClarification:\n" + record.Note
				}
			case DecisionSkip:
				return Result{
					FinalStatus: FinalSkipped,
					Attempts:    attempts,
					Elapsed:     time.Since(start),
					LastResult:  last,
				}
			default:
				r := o.escalated(start, attempts, classification, excerpt(last), sessionCtx, history)
				r.LastResult = last
				return r
			}

		default: // TypeTransient, TypeUnknown
			if transientTries >= o.maxRetries {
				r := o.escalated(start, attempts, classification, excerpt(last), sessionCtx, history)
				r.LastResult = last
				return r
			}
			delay := Backoff(transientTries)
			transientTries++
			o.logger.Info("retrying after backoff", "delay", delay.String())
			if !o.sleep(ctx, delay) {
				r := o.escalated(start, attempts, classification, excerpt(last), sessionCtx, history)
				r.Escalation.Classification.Explanation = fmt.Sprintf("execution stopped during backoff: %v", stopCause(ctx, start))
				r.LastResult = last
				return r
			}
		}
	}
}

// resolveFeedback runs one feedback round, enforcing the round cap and a
// nil handler. The returned record is nil when no handler was consulted.
func (o *Orchestrator) resolveFeedback(ctx context.Context, c Classification, attempt, rounds int) (FeedbackDecision, *FeedbackRecord) {
	if o.feedback == nil || rounds >= maxFeedbackRounds {
		return DecisionEscalate, nil
	}

	decision, note, err := o.feedback.Resolve(ctx, c, attempt)
	if err != nil {
		o.logger.Warn("feedback handler failed", "error", err.Error())
		return DecisionEscalate, nil
	}
	switch decision {
	case DecisionRetry, DecisionSkip, DecisionEscalate:
	default:
		decision = DecisionEscalate
	}

	return decision, &FeedbackRecord{
		Attempt:        attempt,
		Classification: c,
		Decision:       decision,
		Note:           note,
		DecidedAt:      time.Now().UTC(),
	}
}

// escalated builds the terminal escalation result.
func (o *Orchestrator) escalated(start time.Time, attempts int, c Classification, stderrExcerpt string, sessionCtx *SessionContext, history []FeedbackRecord) Result {
	report := &EscalationReport{
		Attempts:        attempts,
		Elapsed:         time.Since(start),
		Classification:  c,
		StderrExcerpt:   stderrExcerpt,
		FeedbackHistory: history,
		SuggestedFixes:  c.SuggestedFixes,
	}
	if sessionCtx != nil {
		report.SessionID = sessionCtx.SessionID
		report.ContextSummary = sessionCtx.Summary
	}

	o.logger.Warn("execution escalated",
		"attempts", attempts,
		"type", string(c.Type),
		"explanation", c.Explanation,
	)
	return Result{
		FinalStatus: FinalEscalated,
		Attempts:    attempts,
		Elapsed:     time.Since(start),
		Escalation:  report,
	}
}

// stopCause names why a canceled context stopped execution: a deadline maps
// to a timeout error carrying the elapsed time, an explicit cancel to the
// canceled sentinel.
func stopCause(ctx context.Context, start time.Time) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.NewTimeoutError("plan execution", time.Since(start))
	}
	return errors.ErrCanceled
}

// excerpt returns a bounded slice of the last result's stderr.
func excerpt(r *executor.Result) string {
	if r == nil {
		return ""
	}
	s := r.Stderr
	if len(s) > stderrExcerptLimit {
		s = s[:stderrExcerptLimit]
	}
	return s
}

// sleepCtx waits for d or until the context is done, reporting whether the
// full delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
