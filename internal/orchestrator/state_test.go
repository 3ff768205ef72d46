package orchestrator

import (
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
)

func sessionWith(t *testing.T, cfg debate.Config, rounds int, voting, uncertainty float64, roundFailures int) *debate.Session {
	t.Helper()
	s, err := debate.NewSession("p", "", cfg)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	s.Rounds = make([]debate.Round, rounds)
	s.VotingScore = voting
	s.UncertaintyLevel = uncertainty
	s.RoundFailures = roundFailures
	return s
}

func TestEvaluate(t *testing.T) {
	cfg := debate.DefaultConfig()

	tests := []struct {
		name          string
		rounds        int
		voting        float64
		uncertainty   float64
		roundFailures int
		want          Action
		reasonPart    string
	}{
		{
			name:   "both thresholds crossed",
			rounds: 1, voting: 80, uncertainty: 10,
			want: ActionConverge,
		},
		{
			name:   "voting at threshold converges",
			rounds: 1, voting: 75, uncertainty: 30,
			want: ActionConverge,
		},
		{
			name:   "high score alone is not consensus",
			rounds: 1, voting: 90, uncertainty: 45,
			want: ActionContinue,
		},
		{
			name:   "low uncertainty alone is not consensus",
			rounds: 1, voting: 60, uncertainty: 5,
			want: ActionContinue,
		},
		{
			name:   "round limit reached",
			rounds: 5, voting: 60, uncertainty: 40,
			want:       ActionEscalate,
			reasonPart: "Max 5 rounds",
		},
		{
			name:   "failure budget trumps scores",
			rounds: 3, voting: 90, uncertainty: 5, roundFailures: 3,
			want:       ActionEscalate,
			reasonPart: "too many API failures",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sessionWith(t, cfg, tt.rounds, tt.voting, tt.uncertainty, tt.roundFailures)

			d := Evaluate(s)
			if d.Action != tt.want {
				t.Fatalf("Evaluate() action = %v, want %v", d.Action, tt.want)
			}
			if tt.reasonPart != "" && !strings.Contains(d.Reason, tt.reasonPart) {
				t.Errorf("Reason = %q, want contains %q", d.Reason, tt.reasonPart)
			}
		})
	}
}

func TestEvaluateReasonIncludesScores(t *testing.T) {
	s := sessionWith(t, debate.DefaultConfig(), 5, 60, 40, 0)

	d := Evaluate(s)
	if d.Action != ActionEscalate {
		t.Fatalf("Evaluate() action = %v, want %v", d.Action, ActionEscalate)
	}
	want := "Max 5 rounds reached without consensus (voting score 60.0, uncertainty 40.0)"
	if d.Reason != want {
		t.Errorf("Reason = %q, want %q", d.Reason, want)
	}
}

func TestConsensusSolution(t *testing.T) {
	round := &debate.Round{
		Number:    1,
		StartedAt: time.Now().UTC(),
		Responses: map[debate.Role]*debate.ModelResponse{
			debate.RoleProposer: {Role: debate.RoleProposer, Content: "plain", Solution: "structured"},
			debate.RoleRefiner: {
				Role:       debate.RoleRefiner,
				Content:    "full text",
				Refinement: &debate.Refinement{FinalCode: "refined code"},
			},
		},
	}

	round.Synthesis.Rankings = []debate.RankedSolution{
		{Rank: 1, Role: debate.RoleRefiner},
		{Rank: 2, Role: debate.RoleProposer},
	}
	if got := ConsensusSolution(round); got != "refined code" {
		t.Errorf("ConsensusSolution() = %q, want refiner's final code", got)
	}

	round.Synthesis.Rankings[0].Role = debate.RoleProposer
	if got := ConsensusSolution(round); got != "structured" {
		t.Errorf("ConsensusSolution() = %q, want proposer's solution", got)
	}

	if got := ConsensusSolution(nil); got != "" {
		t.Errorf("ConsensusSolution(nil) = %q, want empty", got)
	}
}
