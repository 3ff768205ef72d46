// Package prompt builds the per-role prompts for a debate round.
//
// Prompt building is deterministic string templating: the same context
// always yields the same prompt. Each role has its own builder; all three
// share the Context type.
package prompt

import (
	"errors"

	"github.com/Iron-Ham/triad/internal/debate"
)

// Builder defines the interface for building a role's prompt from context.
type Builder interface {
	// Build generates a prompt string from the given context.
	// Returns an error if the context is missing fields this role needs.
	Build(ctx *Context) (string, error)
}

// Context provides all the information needed to build any role prompt.
// Not all fields are required for every role; builders validate the fields
// they need.
type Context struct {
	// Problem is the original problem statement.
	Problem string

	// ProblemContext holds optional constraints and background.
	ProblemContext string

	// RoundNumber is the 1-indexed round being played.
	RoundNumber int

	// Proposal is the current round's proposer output. Required by the
	// critic and refiner builders.
	Proposal string

	// Critique is the most recent critique available to the refiner. In a
	// round the critic and refiner run concurrently after the proposer, so
	// this is the previous round's critique (empty in round 1).
	Critique string

	// PreviousSynthesis summarizes the prior round for follow-up rounds.
	PreviousSynthesis *debate.SynthesisResult

	// PreviousRefinement is the prior round's refined solution, fed back
	// to the proposer so later rounds build on it.
	PreviousRefinement string
}

// Validation errors shared by the builders.
var (
	// ErrNilContext indicates a nil context was passed to a builder.
	ErrNilContext = errors.New("prompt context is nil")
	// ErrMissingProblem indicates the problem statement is missing.
	ErrMissingProblem = errors.New("prompt context missing problem")
	// ErrMissingProposal indicates a dependent role's prompt was requested
	// before the proposer's output was available.
	ErrMissingProposal = errors.New("prompt context missing proposal")
)

// ForRole returns the builder for the given debate role.
func ForRole(role debate.Role) Builder {
	switch role {
	case debate.RoleProposer:
		return NewProposerBuilder()
	case debate.RoleCritic:
		return NewCriticBuilder()
	case debate.RoleRefiner:
		return NewRefinerBuilder()
	default:
		return nil
	}
}
