package orchestrator

import (
	"fmt"

	"github.com/Iron-Ham/triad/internal/debate"
)

// Action is the outcome of evaluating a session after a round.
type Action int

const (
	// ActionContinue plays another round.
	ActionContinue Action = iota
	// ActionConverge terminates the debate with consensus.
	ActionConverge
	// ActionEscalate terminates the debate without consensus.
	ActionEscalate
)

// String returns the action name for logs.
func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionConverge:
		return "converge"
	case ActionEscalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// Decision is an Action plus, for escalations, the human-readable reason.
type Decision struct {
	Action Action
	Reason string
}

// Evaluate inspects a session after its latest round has been appended and
// decides how the debate proceeds. It is a pure function of the session
// value, which keeps the round loop testable without any model wiring.
//
// Failure accumulation is checked first: a session that has seen
// debate.MaxSessionFailures heavily-failed rounds escalates regardless of
// the round's scores. Convergence requires the voting score and uncertainty
// level to cross their thresholds in the same round. Exhausting the round
// limit escalates with the final numbers in the reason.
func Evaluate(s *debate.Session) Decision {
	if s.RoundFailures >= debate.MaxSessionFailures {
		return Decision{Action: ActionEscalate, Reason: "too many API failures"}
	}

	converged := s.VotingScore >= s.Config.VotingThreshold &&
		s.UncertaintyLevel <= s.Config.UncertaintyThreshold
	if converged {
		return Decision{Action: ActionConverge}
	}

	if len(s.Rounds) >= s.Config.MaxRounds {
		return Decision{
			Action: ActionEscalate,
			Reason: fmt.Sprintf(
				"Max %d rounds reached without consensus (voting score %.1f, uncertainty %.1f)",
				s.Config.MaxRounds, s.VotingScore, s.UncertaintyLevel,
			),
		}
	}

	return Decision{Action: ActionContinue}
}

// ConsensusSolution extracts the winning solution text from a terminal
// round: the top-ranked candidate's structured output when available, its
// raw content otherwise.
func ConsensusSolution(round *debate.Round) string {
	if round == nil || len(round.Synthesis.Rankings) == 0 {
		return ""
	}

	winner := round.Synthesis.Rankings[0].Role
	resp := round.Responses[winner]
	if resp == nil {
		return ""
	}

	switch winner {
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
