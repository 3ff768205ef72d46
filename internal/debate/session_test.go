package debate

import (
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/triad/internal/errors"
)

func testRound(number int, votingScore, uncertainty float64, failedCalls int) Round {
	return Round{
		Number:    number,
		StartedAt: time.Now().UTC(),
		Responses: map[Role]*ModelResponse{},
		Synthesis: SynthesisResult{
			RoundNumber:      number,
			VotingScore:      votingScore,
			UncertaintyLevel: uncertainty,
		},
		FailedCalls: failedCalls,
	}
}

func TestNewSessionValidation(t *testing.T) {
	tests := []struct {
		name    string
		problem string
		cfg     Config
		wantErr bool
	}{
		{"valid", "implement a rate limiter", DefaultConfig(), false},
		{"empty problem", "", DefaultConfig(), true},
		{"whitespace problem", "   \n\t", DefaultConfig(), true},
		{"problem at limit", strings.Repeat("x", MaxProblemLength), DefaultConfig(), false},
		{"problem over limit", strings.Repeat("x", MaxProblemLength+1), DefaultConfig(), true},
		{"invalid config", "a problem", Config{MaxRounds: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSession(tt.problem, "", tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.ID == "" {
				t.Error("session ID is empty")
			}
			if s.Status != StatusActive {
				t.Errorf("status = %s, want %s", s.Status, StatusActive)
			}
			if s.SchemaVersion != SchemaVersion {
				t.Errorf("schema version = %d, want %d", s.SchemaVersion, SchemaVersion)
			}
		})
	}
}

func TestAppendRoundSequencing(t *testing.T) {
	s, err := NewSession("a problem", "", DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if err := s.AppendRound(testRound(2, 50, 30, 0)); err == nil {
		t.Error("expected error for out-of-sequence round 2")
	}
	if err := s.AppendRound(testRound(1, 62.5, 21.0, 0)); err != nil {
		t.Fatalf("AppendRound(1): %v", err)
	}
	if s.VotingScore != 62.5 || s.UncertaintyLevel != 21.0 {
		t.Errorf("running scores = %.1f/%.1f, want 62.5/21.0", s.VotingScore, s.UncertaintyLevel)
	}
	if got := s.CurrentRound(); got != 2 {
		t.Errorf("CurrentRound = %d, want 2", got)
	}
	if err := s.AppendRound(testRound(1, 50, 30, 0)); err == nil {
		t.Error("expected error for repeated round 1")
	}
}

func TestAppendRoundRespectsRoundLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRounds = 1
	s, err := NewSession("a problem", "", cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.AppendRound(testRound(1, 50, 30, 0)); err != nil {
		t.Fatalf("AppendRound(1): %v", err)
	}
	if err := s.AppendRound(testRound(2, 50, 30, 0)); err == nil {
		t.Error("expected error for round past the limit")
	}
}

func TestAppendRoundCountsFailureHeavyRounds(t *testing.T) {
	s, err := NewSession("a problem", "", DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if err := s.AppendRound(testRound(1, 50, 30, 1)); err != nil {
		t.Fatal(err)
	}
	if s.RoundFailures != 0 {
		t.Errorf("RoundFailures = %d after single-failure round, want 0", s.RoundFailures)
	}
	if err := s.AppendRound(testRound(2, 50, 30, 2)); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRound(testRound(3, 50, 30, 3)); err != nil {
		t.Fatal(err)
	}
	if s.RoundFailures != 2 {
		t.Errorf("RoundFailures = %d, want 2", s.RoundFailures)
	}
}

func TestTerminalStatesAreExclusive(t *testing.T) {
	s, err := NewSession("a problem", "", DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Terminal() {
		t.Error("fresh session reports terminal")
	}

	if err := s.MarkConverged("use a token bucket"); err != nil {
		t.Fatalf("MarkConverged: %v", err)
	}
	if !s.Terminal() {
		t.Error("converged session not terminal")
	}
	if s.ConvergedAt == nil {
		t.Error("ConvergedAt not set")
	}
	if s.FinalSolution != "use a token bucket" {
		t.Errorf("FinalSolution = %q", s.FinalSolution)
	}
	if err := s.MarkEscalated("nope"); !errors.Is(err, errors.ErrSessionTerminal) {
		t.Errorf("escalating a converged session: err = %v, want ErrSessionTerminal", err)
	}
	if err := s.AppendRound(testRound(1, 50, 30, 0)); !errors.Is(err, errors.ErrSessionTerminal) {
		t.Errorf("appending to a terminal session: err = %v, want ErrSessionTerminal", err)
	}
}

func TestMarkEscalatedBlocksConvergence(t *testing.T) {
	s, err := NewSession("a problem", "", DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.MarkEscalated("too many API failures"); err != nil {
		t.Fatalf("MarkEscalated: %v", err)
	}
	if s.EscalatedAt == nil || s.EscalationReason != "too many API failures" {
		t.Errorf("escalation not recorded: at=%v reason=%q", s.EscalatedAt, s.EscalationReason)
	}
	if err := s.MarkConverged("x"); !errors.Is(err, errors.ErrSessionTerminal) {
		t.Errorf("converging an escalated session: err = %v, want ErrSessionTerminal", err)
	}
}

func TestLastSynthesis(t *testing.T) {
	s, err := NewSession("a problem", "", DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.LastSynthesis() != nil {
		t.Error("LastSynthesis on empty session should be nil")
	}
	if err := s.AppendRound(testRound(1, 70, 20, 0)); err != nil {
		t.Fatal(err)
	}
	syn := s.LastSynthesis()
	if syn == nil || syn.VotingScore != 70 {
		t.Errorf("LastSynthesis = %+v, want round 1 synthesis", syn)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"min bounds", func(c *Config) {
			c.MaxRounds = MinMaxRounds
			c.VotingThreshold = MinVotingThreshold
			c.UncertaintyThreshold = MinUncertaintyThreshold
		}, true},
		{"max bounds", func(c *Config) {
			c.MaxRounds = MaxMaxRounds
			c.VotingThreshold = MaxVotingThreshold
			c.UncertaintyThreshold = MaxUncertaintyThreshold
		}, true},
		{"rounds too high", func(c *Config) { c.MaxRounds = MaxMaxRounds + 1 }, false},
		{"rounds too low", func(c *Config) { c.MaxRounds = 0 }, false},
		{"voting too low", func(c *Config) { c.VotingThreshold = 49.9 }, false},
		{"uncertainty too high", func(c *Config) { c.UncertaintyThreshold = 50.1 }, false},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, false},
		{"negative retries", func(c *Config) { c.RetryAttempts = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRatingMatrixAccessors(t *testing.T) {
	m := RatingMatrix{Ratings: []Rating{
		{Rater: RoleCritic, Ratee: RoleProposer, Score: 8},
		{Rater: RoleRefiner, Ratee: RoleProposer, Score: 7},
	}}

	if got := m.Score(RoleCritic, RoleProposer); got != 8 {
		t.Errorf("Score = %.1f, want 8", got)
	}
	if got := m.Score(RoleProposer, RoleProposer); got != NeutralScore {
		t.Errorf("missing cell = %.1f, want neutral %.1f", got, NeutralScore)
	}

	received := m.ReceivedScores(RoleProposer)
	want := []float64{NeutralScore, 8, 7}
	if len(received) != len(want) {
		t.Fatalf("ReceivedScores length = %d, want %d", len(received), len(want))
	}
	for i := range want {
		if received[i] != want[i] {
			t.Errorf("ReceivedScores[%d] = %.1f, want %.1f", i, received[i], want[i])
		}
	}
}
