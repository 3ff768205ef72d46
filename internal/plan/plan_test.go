package plan

import (
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
)

func terminalSession(t *testing.T) *debate.Session {
	t.Helper()

	s, err := debate.NewSession("dedupe a log stream", "keep first occurrence", debate.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	round := debate.Round{
		Number:    1,
		StartedAt: time.Now().UTC(),
		Responses: map[debate.Role]*debate.ModelResponse{
			debate.RoleProposer: {Role: debate.RoleProposer, Content: "hash each line", Solution: "hash each line"},
			debate.RoleCritic: {
				Role:     debate.RoleCritic,
				Content:  "memory unbounded",
				Critique: &debate.Critique{Issues: []string{"memory grows without bound"}},
			},
			debate.RoleRefiner: {
				Role:       debate.RoleRefiner,
				Content:    "use a bloom filter",
				Refinement: &debate.Refinement{FinalCode: "bloom filter dedupe"},
			},
		},
	}
	round.Synthesis.RoundNumber = 1
	round.Synthesis.VotingScore = 81
	round.Synthesis.Rankings = []debate.RankedSolution{
		{Rank: 1, Role: debate.RoleRefiner, Weaknesses: []string{"false positive rate"}},
	}
	if err := s.AppendRound(round); err != nil {
		t.Fatalf("AppendRound() error = %v", err)
	}
	return s
}

func TestFromSessionConverged(t *testing.T) {
	s := terminalSession(t)
	if err := s.MarkConverged("bloom filter dedupe"); err != nil {
		t.Fatalf("MarkConverged() error = %v", err)
	}

	p, err := FromSession(s)
	if err != nil {
		t.Fatalf("FromSession() error = %v", err)
	}
	if p.Source != "consensus" {
		t.Errorf("Source = %q, want consensus", p.Source)
	}
	if p.Solution != "bloom filter dedupe" {
		t.Errorf("Solution = %q, want the consensus solution", p.Solution)
	}
	if len(p.Weaknesses) != 1 {
		t.Errorf("Weaknesses = %v, want the winner's recorded weaknesses", p.Weaknesses)
	}
}

func TestFromSessionActiveRejected(t *testing.T) {
	s := terminalSession(t)
	if _, err := FromSession(s); err == nil {
		t.Error("FromSession() on an active session should fail")
	}
	if _, err := FromSession(nil); err == nil {
		t.Error("FromSession(nil) should fail")
	}
}

func TestFromSessionEscalatedNeedsDecision(t *testing.T) {
	s := terminalSession(t)
	if err := s.MarkEscalated("no consensus"); err != nil {
		t.Fatalf("MarkEscalated() error = %v", err)
	}

	if _, err := FromSession(s); err == nil {
		t.Fatal("FromSession() without a decision should fail")
	}

	s.HumanDecision = &debate.HumanDecision{Choice: "refiner", Note: "prefer the bounded version", DecidedAt: time.Now().UTC()}
	p, err := FromSession(s)
	if err != nil {
		t.Fatalf("FromSession() error = %v", err)
	}
	if p.Source != "human_decision" {
		t.Errorf("Source = %q, want human_decision", p.Source)
	}
	if p.Solution != "bloom filter dedupe" {
		t.Errorf("Solution = %q, want the refiner's final code", p.Solution)
	}
	if p.Note != "prefer the bounded version" {
		t.Errorf("Note = %q, want the decision note", p.Note)
	}
}

func TestFromSessionEscalatedProposerChoice(t *testing.T) {
	s := terminalSession(t)
	if err := s.MarkEscalated("no consensus"); err != nil {
		t.Fatalf("MarkEscalated() error = %v", err)
	}
	s.HumanDecision = &debate.HumanDecision{Choice: "Proposer", DecidedAt: time.Now().UTC()}

	p, err := FromSession(s)
	if err != nil {
		t.Fatalf("FromSession() error = %v", err)
	}
	if p.Solution != "hash each line" {
		t.Errorf("Solution = %q, want the proposer's solution", p.Solution)
	}
}

func TestFromSessionUnknownChoice(t *testing.T) {
	s := terminalSession(t)
	if err := s.MarkEscalated("no consensus"); err != nil {
		t.Fatalf("MarkEscalated() error = %v", err)
	}
	s.HumanDecision = &debate.HumanDecision{Choice: "moderator", DecidedAt: time.Now().UTC()}

	if _, err := FromSession(s); err == nil {
		t.Error("FromSession() with an unknown choice should fail")
	}
}

func TestRender(t *testing.T) {
	s := terminalSession(t)
	if err := s.MarkConverged("bloom filter dedupe"); err != nil {
		t.Fatalf("MarkConverged() error = %v", err)
	}

	p, err := FromSession(s)
	if err != nil {
		t.Fatalf("FromSession() error = %v", err)
	}

	doc, err := p.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, want := range []string{
		"# Implementation Plan",
		"dedupe a log stream",
		"keep first occurrence",
		"bloom filter dedupe",
		"false positive rate",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Render() missing %q\n%s", want, doc)
		}
	}
}
