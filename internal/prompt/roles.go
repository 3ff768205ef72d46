package prompt

import (
	"fmt"
	"strings"
)

// ratingInstructions asks a rater to emit ratings in the formats the
// synthesis extractor parses. Candidates are labeled A/B/C in fixed role
// order (proposer, critic, refiner).
const ratingInstructions = `## Ratings

Rate each candidate's contribution on a 1-10 scale, one per line:

- Proposal A: <score>/10
- Proposal B: <score>/10
- Proposal C: <score>/10

Add one short justification sentence after each score.
`

// ProposerBuilder builds the prompt for the proposer role. The proposer
// sees the raw problem and, from round 2 on, the previous round's refined
// solution and synthesis summary; it never sees responses from its own
// round.
type ProposerBuilder struct{}

// NewProposerBuilder creates a new ProposerBuilder.
func NewProposerBuilder() *ProposerBuilder {
	return &ProposerBuilder{}
}

// Build generates the proposer prompt from the context.
func (b *ProposerBuilder) Build(ctx *Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	if strings.TrimSpace(ctx.Problem) == "" {
		return "", ErrMissingProblem
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "# Round %d: Propose a Solution\n\n", ctx.RoundNumber)
	sb.WriteString("You are the proposer in a three-role code debate. ")
	sb.WriteString("Draft a complete, concrete solution to the problem below.\n\n")

	writeProblem(&sb, ctx)

	if ctx.PreviousRefinement != "" {
		sb.WriteString("## Previous Round's Refined Solution\n\n")
		sb.WriteString(ctx.PreviousRefinement)
		sb.WriteString("\n\n")
	}
	if ctx.PreviousSynthesis != nil {
		sb.WriteString("## Previous Round Summary\n\n")
		sb.WriteString(ctx.PreviousSynthesis.Narrative)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Requirements\n\n")
	sb.WriteString("- Present one solution, with code\n")
	sb.WriteString("- Explain the key design decisions and tradeoffs\n")
	sb.WriteString("- End with a line of the form `Confidence: <percent>%`\n")

	return sb.String(), nil
}

// CriticBuilder builds the prompt for the critic role. The critic reviews
// the current round's proposal.
type CriticBuilder struct{}

// NewCriticBuilder creates a new CriticBuilder.
func NewCriticBuilder() *CriticBuilder {
	return &CriticBuilder{}
}

// Build generates the critic prompt from the context.
func (b *CriticBuilder) Build(ctx *Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	if strings.TrimSpace(ctx.Problem) == "" {
		return "", ErrMissingProblem
	}
	if strings.TrimSpace(ctx.Proposal) == "" {
		return "", ErrMissingProposal
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "# Round %d: Critique the Proposal\n\n", ctx.RoundNumber)
	sb.WriteString("You are the critic in a three-role code debate. ")
	sb.WriteString("Review the proposal below against the problem statement.\n\n")

	writeProblem(&sb, ctx)

	sb.WriteString("## Proposal Under Review\n\n")
	sb.WriteString(ctx.Proposal)
	sb.WriteString("\n\n")

	sb.WriteString("## Requirements\n\n")
	sb.WriteString("- List concrete issues, one per line, under an `Issues:` heading\n")
	sb.WriteString("- List what the proposal gets right under a `Strengths:` heading\n")
	sb.WriteString("- Call out correctness problems before style problems\n\n")

	sb.WriteString(ratingInstructions)

	return sb.String(), nil
}

// RefinerBuilder builds the prompt for the refiner role. The refiner
// synthesizes the proposal and the most recent critique into final code.
type RefinerBuilder struct{}

// NewRefinerBuilder creates a new RefinerBuilder.
func NewRefinerBuilder() *RefinerBuilder {
	return &RefinerBuilder{}
}

// Build generates the refiner prompt from the context.
func (b *RefinerBuilder) Build(ctx *Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	if strings.TrimSpace(ctx.Problem) == "" {
		return "", ErrMissingProblem
	}
	if strings.TrimSpace(ctx.Proposal) == "" {
		return "", ErrMissingProposal
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "# Round %d: Refine the Solution\n\n", ctx.RoundNumber)
	sb.WriteString("You are the refiner in a three-role code debate. ")
	sb.WriteString("Merge the proposal and the critique into a final solution.\n\n")

	writeProblem(&sb, ctx)

	sb.WriteString("## Current Proposal\n\n")
	sb.WriteString(ctx.Proposal)
	sb.WriteString("\n\n")

	if ctx.Critique != "" {
		sb.WriteString("## Latest Critique\n\n")
		sb.WriteString(ctx.Critique)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Requirements\n\n")
	sb.WriteString("- Produce the final code in a single fenced code block\n")
	sb.WriteString("- Note which critique points you addressed and which you rejected\n\n")

	sb.WriteString(ratingInstructions)

	return sb.String(), nil
}

// writeProblem writes the shared problem section.
func writeProblem(sb *strings.Builder, ctx *Context) {
	sb.WriteString("## Problem\n\n")
	sb.WriteString(ctx.Problem)
	sb.WriteString("\n\n")
	if ctx.ProblemContext != "" {
		sb.WriteString("## Context\n\n")
		sb.WriteString(ctx.ProblemContext)
		sb.WriteString("\n\n")
	}
}
