// Package executor defines the downstream execution surface a converged
// debate hands its plan to, plus a local command-based implementation.
package executor

import (
	"context"
	"time"
)

// Status is the coarse outcome of one execution attempt.
type Status string

const (
	// StatusSuccess indicates the plan executed cleanly.
	StatusSuccess Status = "success"

	// StatusPartial indicates the plan partially applied; some steps
	// succeeded but errors were reported.
	StatusPartial Status = "partial"

	// StatusFailed indicates the plan did not apply.
	StatusFailed Status = "failed"

	// StatusTimeout indicates the attempt exceeded its time budget.
	StatusTimeout Status = "timeout"
)

// Result is the outcome of one execution attempt. Every field is plain
// data; execution failures are carried here, never as a Go error.
type Result struct {
	Status        Status        `json:"status"`
	ExitIndicator int           `json:"exit_indicator"`
	Stdout        string        `json:"stdout"`
	Stderr        string        `json:"stderr"`
	Errors        []string      `json:"errors,omitempty"`
	Warnings      []string      `json:"warnings,omitempty"`
	GeneratedCode string        `json:"generated_code,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the attempt completed cleanly.
func (r *Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// ErrorText flattens the result's failure text for classification:
// stderr first, then the structured error list.
func (r *Result) ErrorText() string {
	text := r.Stderr
	for _, e := range r.Errors {
		if text != "" {
			text += "\n"
		}
		text += e
	}
	return text
}

// Executor runs an implementation plan. Implementations must not return a
// Go error for execution failures; those belong in the Result. The error
// return is reserved for invocation problems such as a nil plan.
type Executor interface {
	Run(ctx context.Context, planDoc string) (*Result, error)
}

// Func adapts a function to the Executor interface.
type Func func(ctx context.Context, planDoc string) (*Result, error)

// Run implements Executor.
func (f Func) Run(ctx context.Context, planDoc string) (*Result, error) {
	return f(ctx, planDoc)
}
