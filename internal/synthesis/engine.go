package synthesis

import (
	"fmt"
	"math"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/errors"
	"github.com/Iron-Ham/triad/internal/logging"
)

// neutralNarrative is the canonical narrative of a degraded result.
const neutralNarrative = "Error during synthesis generation. Using default metrics."

// Engine aggregates one round's responses into a SynthesisResult.
// It is stateless across rounds; cross-round comparison happens through the
// previous result passed into AggregateRound.
type Engine struct {
	cfg    debate.Config
	ex     *Extractor
	logger *logging.Logger
}

// NewEngine creates a synthesis engine for a debate with the given
// configuration. A nil logger is replaced with a no-op logger.
func NewEngine(cfg debate.Config, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Engine{
		cfg:    cfg,
		ex:     NewExtractor(),
		logger: logger.WithPhase("synthesis"),
	}
}

// AggregateRound scores one round. The three responses must all be present
// (failed calls are still responses) and roundNumber must be within the
// configured round limit; violations return a ValidationError, which the
// orchestrator absorbs into a neutral result.
//
// Past validation, AggregateRound never fails: any internal panic degrades
// to the neutral result rather than propagating. The rating matrix built
// for the round is returned alongside the result so the caller can attach
// it to the round record.
func (e *Engine) AggregateRound(proposer, critic, refiner *debate.ModelResponse, roundNumber int, prev *debate.SynthesisResult) (result debate.SynthesisResult, matrix debate.RatingMatrix, err error) {
	if roundNumber < 1 || roundNumber > e.cfg.MaxRounds {
		return debate.SynthesisResult{}, debate.RatingMatrix{}, errors.NewSynthesisError(
			fmt.Sprintf("round number out of range [1,%d]", e.cfg.MaxRounds),
			errors.ErrInvalidInput,
		).WithRound(roundNumber)
	}
	if proposer == nil || critic == nil || refiner == nil {
		return debate.SynthesisResult{}, debate.RatingMatrix{}, errors.NewSynthesisError(
			"all three role responses are required",
			errors.ErrInvalidInput,
		).WithRound(roundNumber)
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("synthesis panicked, substituting neutral result",
				"round", roundNumber, "panic", fmt.Sprint(r))
			result = NeutralResult(roundNumber)
			err = nil
		}
	}()

	responses := map[debate.Role]*debate.ModelResponse{
		debate.RoleProposer: proposer,
		debate.RoleCritic:   critic,
		debate.RoleRefiner:  refiner,
	}

	now := time.Now().UTC()
	matrix = BuildMatrix(e.ex, responses, now)

	votingScore := VotingScore(&matrix)
	uncertainty := UncertaintyLevel(&matrix)
	rankings := Rank(&matrix, responses)
	tally := Tally(&matrix)
	trend := Trend(votingScore, uncertainty, prev)

	analysis := debate.ConvergenceAnalysis{
		IsConverging:   votingScore >= 70 || trend == debate.TrendImproving,
		Trend:          trend,
		PredictedRound: e.predictRound(votingScore, roundNumber, prev),
	}

	result = debate.SynthesisResult{
		RoundNumber:      roundNumber,
		VoteTally:        tally,
		BestProposal:     rankings[0].Role,
		VotingScore:      votingScore,
		UncertaintyLevel: uncertainty,
		Rankings:         rankings,
		Convergence:      analysis,
		Narrative:        narrative(rankings[0], votingScore, uncertainty, analysis, e.cfg),
		GeneratedAt:      now,
	}

	e.logger.Info("round aggregated",
		"round", roundNumber,
		"voting_score", votingScore,
		"uncertainty_level", uncertainty,
		"best_proposal", string(result.BestProposal),
		"trend", string(trend),
	)

	return result, matrix, nil
}

// predictRound extrapolates the round at which the voting threshold would be
// crossed, assuming the current per-round gain holds. Returns 0 when no
// sensible prediction exists.
func (e *Engine) predictRound(votingScore float64, roundNumber int, prev *debate.SynthesisResult) int {
	if prev == nil || votingScore >= e.cfg.VotingThreshold {
		return 0
	}
	gain := votingScore - prev.VotingScore
	if gain <= 0 {
		return 0
	}
	remaining := int(math.Ceil((e.cfg.VotingThreshold - votingScore) / gain))
	predicted := roundNumber + remaining
	if predicted > e.cfg.MaxRounds {
		return 0
	}
	return predicted
}

// NeutralResult returns the fixed fallback synthesis for a round: midpoint
// scores, no consensus, and the canonical degraded narrative. It is used
// both for internal synthesis failures and by the orchestrator when
// validation rejects a round's inputs.
func NeutralResult(roundNumber int) debate.SynthesisResult {
	tally := make(map[debate.Role]float64, len(debate.Roles))
	rankings := make([]debate.RankedSolution, 0, len(debate.Roles))
	for i, role := range debate.Roles {
		tally[role] = 1
		rankings = append(rankings, debate.RankedSolution{
			Rank:       i + 1,
			Role:       role,
			Score:      50,
			Confidence: 50,
		})
	}

	return debate.SynthesisResult{
		RoundNumber:      roundNumber,
		VoteTally:        tally,
		BestProposal:     debate.RoleRefiner,
		VotingScore:      50,
		UncertaintyLevel: 50,
		Rankings:         rankings,
		Convergence:      debate.ConvergenceAnalysis{Trend: debate.TrendStable},
		Narrative:        neutralNarrative,
		GeneratedAt:      time.Now().UTC(),
		Degraded:         true,
	}
}
