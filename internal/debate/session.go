package debate

import (
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/triad/internal/errors"
	"github.com/google/uuid"
)

// MaxProblemLength is the upper bound on a problem statement, in characters.
const MaxProblemLength = 10000

// Session is the complete state of one debate. It is owned and mutated by a
// single orchestrator; once a terminal status is reached it is read-only.
type Session struct {
	SchemaVersion int    `json:"schema_version"`
	ID            string `json:"id"`
	Problem       string `json:"problem"`
	Context       string `json:"context,omitempty"`

	Config Config `json:"config"`

	Rounds []Round `json:"rounds"`

	// Running scores; always mirror the latest completed round.
	VotingScore      float64 `json:"voting_score"`
	UncertaintyLevel float64 `json:"uncertainty_level"`

	Status      SessionStatus `json:"status"`
	ConvergedAt *time.Time    `json:"converged_at,omitempty"`

	EscalatedAt      *time.Time `json:"escalated_at,omitempty"`
	EscalationReason string     `json:"escalation_reason,omitempty"`

	// FinalSolution is set only once the session has converged.
	FinalSolution string `json:"final_solution,omitempty"`

	// RoundFailures counts rounds in which two or more of the three model
	// calls failed. Reaching three escalates the session.
	RoundFailures int `json:"round_failures"`

	HumanDecision *HumanDecision `json:"human_decision,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an active session for the given problem statement.
// The problem must be non-empty and at most MaxProblemLength characters.
func NewSession(problem, context string, cfg Config) (*Session, error) {
	trimmed := strings.TrimSpace(problem)
	if trimmed == "" {
		return nil, errors.NewValidationError("problem statement is empty").WithField("problem")
	}
	if n := len([]rune(problem)); n > MaxProblemLength {
		return nil, errors.NewValidationError(
			fmt.Sprintf("problem statement exceeds %d characters", MaxProblemLength),
		).WithField("problem").WithValue(n)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Session{
		SchemaVersion: SchemaVersion,
		ID:            uuid.NewString(),
		Problem:       problem,
		Context:       context,
		Config:        cfg,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CurrentRound returns the number of the round that would be played next.
// It equals len(Rounds)+1 until a terminal round is reached.
func (s *Session) CurrentRound() int {
	return len(s.Rounds) + 1
}

// Terminal reports whether the session has reached a terminal status.
func (s *Session) Terminal() bool {
	return s.Status == StatusConverged || s.Status == StatusEscalated
}

// AppendRound attaches a completed round to the session and updates the
// running scores. Round numbers must be strictly sequential starting at 1.
func (s *Session) AppendRound(r Round) error {
	if s.Terminal() {
		return errors.NewDebateError(
			fmt.Sprintf("session is %s; rounds are closed", s.Status),
			errors.ErrSessionTerminal,
		).WithSessionID(s.ID)
	}
	if want := len(s.Rounds) + 1; r.Number != want {
		return fmt.Errorf("round number %d out of sequence, want %d", r.Number, want)
	}
	if r.Number > s.Config.MaxRounds {
		return fmt.Errorf("round number %d exceeds round limit %d", r.Number, s.Config.MaxRounds)
	}

	s.Rounds = append(s.Rounds, r)
	s.VotingScore = r.Synthesis.VotingScore
	s.UncertaintyLevel = r.Synthesis.UncertaintyLevel
	if r.FailedCalls >= 2 {
		s.RoundFailures++
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkConverged transitions the session to the converged terminal state with
// the given final solution. It is an error if the session already escalated.
func (s *Session) MarkConverged(solution string) error {
	if s.Status == StatusEscalated {
		return errors.NewDebateError("already escalated", errors.ErrSessionTerminal).WithSessionID(s.ID)
	}
	now := time.Now().UTC()
	s.Status = StatusConverged
	s.ConvergedAt = &now
	s.FinalSolution = solution
	s.UpdatedAt = now
	return nil
}

// MarkEscalated transitions the session to the escalated terminal state.
// It is an error if the session already converged.
func (s *Session) MarkEscalated(reason string) error {
	if s.Status == StatusConverged {
		return errors.NewDebateError("already converged", errors.ErrSessionTerminal).WithSessionID(s.ID)
	}
	now := time.Now().UTC()
	s.Status = StatusEscalated
	s.EscalatedAt = &now
	s.EscalationReason = reason
	s.UpdatedAt = now
	return nil
}

// LastSynthesis returns the synthesis of the most recent round, or nil when
// no round has completed yet.
func (s *Session) LastSynthesis() *SynthesisResult {
	if len(s.Rounds) == 0 {
		return nil
	}
	return &s.Rounds[len(s.Rounds)-1].Synthesis
}

// -----------------------------------------------------------------------------
// Config
// -----------------------------------------------------------------------------

// Default configuration values and their permitted ranges.
const (
	DefaultMaxRounds            = 5
	MinMaxRounds                = 1
	MaxMaxRounds                = 10
	DefaultVotingThreshold      = 75.0
	MinVotingThreshold          = 50.0
	MaxVotingThreshold          = 100.0
	DefaultUncertaintyThreshold = 30.0
	MinUncertaintyThreshold     = 0.0
	MaxUncertaintyThreshold     = 50.0
	DefaultRequestTimeout       = 60 * time.Second
	DefaultRetryAttempts        = 2
)

// MaxSessionFailures is the cumulative count of heavily-failed rounds after
// which a session escalates regardless of round outcome.
const MaxSessionFailures = 3

// Config holds the tunable parameters of a debate.
type Config struct {
	MaxRounds            int           `json:"max_rounds"`
	VotingThreshold      float64       `json:"voting_threshold"`
	UncertaintyThreshold float64       `json:"uncertainty_threshold"`
	RequestTimeout       time.Duration `json:"request_timeout_ns"`
	RetryAttempts        int           `json:"retry_attempts"`
}

// DefaultConfig returns the standard debate configuration.
func DefaultConfig() Config {
	return Config{
		MaxRounds:            DefaultMaxRounds,
		VotingThreshold:      DefaultVotingThreshold,
		UncertaintyThreshold: DefaultUncertaintyThreshold,
		RequestTimeout:       DefaultRequestTimeout,
		RetryAttempts:        DefaultRetryAttempts,
	}
}

// Validate checks every option against its permitted range.
func (c Config) Validate() error {
	if c.MaxRounds < MinMaxRounds || c.MaxRounds > MaxMaxRounds {
		return errors.NewValidationError(
			fmt.Sprintf("max_rounds %d out of range [%d,%d]", c.MaxRounds, MinMaxRounds, MaxMaxRounds),
		).WithField("max_rounds")
	}
	if c.VotingThreshold < MinVotingThreshold || c.VotingThreshold > MaxVotingThreshold {
		return errors.NewValidationError(
			fmt.Sprintf("voting_threshold %.1f out of range [%.0f,%.0f]", c.VotingThreshold, MinVotingThreshold, MaxVotingThreshold),
		).WithField("voting_threshold")
	}
	if c.UncertaintyThreshold < MinUncertaintyThreshold || c.UncertaintyThreshold > MaxUncertaintyThreshold {
		return errors.NewValidationError(
			fmt.Sprintf("uncertainty_threshold %.1f out of range [%.0f,%.0f]", c.UncertaintyThreshold, MinUncertaintyThreshold, MaxUncertaintyThreshold),
		).WithField("uncertainty_threshold")
	}
	if c.RequestTimeout <= 0 {
		return errors.NewValidationError(
			fmt.Sprintf("request_timeout must be positive, got %s", c.RequestTimeout),
		).WithField("request_timeout")
	}
	if c.RetryAttempts < 0 {
		return errors.NewValidationError(
			fmt.Sprintf("retry_attempts must be non-negative, got %d", c.RetryAttempts),
		).WithField("retry_attempts")
	}
	return nil
}
