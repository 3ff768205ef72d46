// Package plan turns a terminal debate session into the implementation
// plan document handed to the downstream executor.
package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/errors"
)

// Plan is the executable hand-off produced from a terminal session.
type Plan struct {
	SessionID string    `json:"session_id"`
	Problem   string    `json:"problem"`
	Context   string    `json:"context,omitempty"`
	Solution  string    `json:"solution"`
	Source    string    `json:"source"` // "consensus" or "human_decision"
	Rounds    int       `json:"rounds"`
	Voting    float64   `json:"voting_score"`
	CreatedAt time.Time `json:"created_at"`

	// Weaknesses are the open issues the critic still held against the
	// winning solution; the executor is told to watch for them.
	Weaknesses []string `json:"weaknesses,omitempty"`

	// Note carries the human's free-form direction on escalated sessions.
	Note string `json:"note,omitempty"`
}

// FromSession builds a plan from a terminal session. A converged session
// supplies its consensus solution directly; an escalated session needs a
// recorded human decision naming which role's solution to implement.
func FromSession(s *debate.Session) (*Plan, error) {
	if s == nil {
		return nil, errors.NewValidationError("session is required")
	}

	switch s.Status {
	case debate.StatusConverged:
		return consensusPlan(s)
	case debate.StatusEscalated:
		return decisionPlan(s)
	default:
		return nil, errors.NewValidationError("session is still active; a plan needs a terminal session")
	}
}

func consensusPlan(s *debate.Session) (*Plan, error) {
	if s.FinalSolution == "" {
		return nil, errors.NewDebateError("converged session has no final solution", errors.ErrSessionCorrupted).
			WithSessionID(s.ID)
	}

	p := basePlan(s)
	p.Solution = s.FinalSolution
	p.Source = "consensus"
	p.Weaknesses = winningWeaknesses(s)
	return p, nil
}

func decisionPlan(s *debate.Session) (*Plan, error) {
	if s.HumanDecision == nil {
		return nil, errors.NewValidationError(
			"escalated session has no recorded decision; choose a solution first",
		)
	}

	role := debate.Role(strings.ToLower(strings.TrimSpace(s.HumanDecision.Choice)))
	solution := solutionOf(s, role)
	if solution == "" {
		return nil, errors.NewValidationError(
			fmt.Sprintf("no usable solution recorded for choice %q", s.HumanDecision.Choice),
		)
	}

	p := basePlan(s)
	p.Solution = solution
	p.Source = "human_decision"
	p.Note = s.HumanDecision.Note
	p.Weaknesses = winningWeaknesses(s)
	return p, nil
}

func basePlan(s *debate.Session) *Plan {
	return &Plan{
		SessionID: s.ID,
		Problem:   s.Problem,
		Context:   s.Context,
		Rounds:    len(s.Rounds),
		Voting:    s.VotingScore,
		CreatedAt: time.Now().UTC(),
	}
}

// solutionOf pulls a specific role's final-round output.
func solutionOf(s *debate.Session, role debate.Role) string {
	if len(s.Rounds) == 0 {
		return ""
	}
	resp := s.Rounds[len(s.Rounds)-1].Responses[role]
	if resp == nil || resp.Failed() {
		return ""
	}

	switch role {
	case debate.RoleRefiner:
		if resp.Refinement != nil && resp.Refinement.FinalCode != "" {
			return resp.Refinement.FinalCode
		}
	case debate.RoleProposer:
		if resp.Solution != "" {
			return resp.Solution
		}
	}
	return resp.Content
}

// winningWeaknesses collects the top-ranked candidate's recorded
// weaknesses from the final synthesis.
func winningWeaknesses(s *debate.Session) []string {
	last := s.LastSynthesis()
	if last == nil || len(last.Rankings) == 0 {
		return nil
	}
	return last.Rankings[0].Weaknesses
}
