package synthesis

import (
	"math"
	"sort"

	"github.com/Iron-Ham/triad/internal/debate"
)

// Voting weights per rater role. The refiner is weighted highest as the
// synthesizer of the round. The constants are preserved exactly for
// compatibility with prior sessions; they are design choices, not tuned
// values.
var votingWeights = map[debate.Role]float64{
	debate.RoleProposer: 0.3,
	debate.RoleCritic:   0.3,
	debate.RoleRefiner:  0.4,
}

// Ranking weights per rater role, with the 3.7 normalizer being their sum.
const (
	rankWeightProposer = 1.0
	rankWeightCritic   = 1.5
	rankWeightRefiner  = 1.2
	rankNormalizer     = rankWeightProposer + rankWeightCritic + rankWeightRefiner
)

// VotingScore computes the 0-100 agreement measure over the matrix: each
// candidate's weighted average rating is normalized to [0,1], the three
// candidates are averaged, and the result is scaled to 0-100, clamped, and
// rounded to one decimal.
func VotingScore(m *debate.RatingMatrix) float64 {
	var sum float64
	for _, candidate := range debate.Roles {
		var weighted float64
		for _, rater := range debate.Roles {
			weighted += votingWeights[rater] * m.Score(rater, candidate)
		}
		sum += weighted / 10
	}
	score := sum / float64(len(debate.Roles)) * 100
	return round1(clamp(score, 0, 100))
}

// UncertaintyLevel computes the 0-100 dispersion measure: the population
// standard deviation of the nine ratings scaled into the score range.
// Nine identical ratings yield 0; ratings pinned at both extremes of the
// [1,10] range approach 100.
func UncertaintyLevel(m *debate.RatingMatrix) float64 {
	return round1(clamp(m.StandardDeviation/10*100, 0, 100))
}

// Rank orders the three candidate solutions by their weighted received
// scores. The sort is stable; ties keep the fixed proposer/critic/refiner
// order rather than being broken explicitly.
func Rank(m *debate.RatingMatrix, responses map[debate.Role]*debate.ModelResponse) []debate.RankedSolution {
	ranked := make([]debate.RankedSolution, 0, len(debate.Roles))
	for _, candidate := range debate.Roles {
		critic := m.Score(debate.RoleCritic, candidate)
		refiner := m.Score(debate.RoleRefiner, candidate)
		proposer := m.Score(debate.RoleProposer, candidate)

		weighted := (critic*rankWeightCritic + refiner*rankWeightRefiner + proposer*rankWeightProposer) / rankNormalizer

		received := m.ReceivedScores(candidate)
		confidence := math.Max(0, 100-10*popStdDev(received))

		rs := debate.RankedSolution{
			Role:       candidate,
			Score:      round1(clamp(weighted*10, 0, 100)),
			Confidence: round1(confidence),
		}
		if resp := responses[candidate]; resp != nil && resp.Critique != nil {
			rs.Strengths = resp.Critique.Strengths
			rs.Weaknesses = resp.Critique.Issues
		}
		ranked = append(ranked, rs)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Tally counts, per candidate, how many raters scored that candidate
// highest. A rater whose top score is shared votes for the first candidate
// in fixed role order.
func Tally(m *debate.RatingMatrix) map[debate.Role]float64 {
	tally := make(map[debate.Role]float64, len(debate.Roles))
	for _, role := range debate.Roles {
		tally[role] = 0
	}

	for _, rater := range debate.Roles {
		var best debate.Role
		bestScore := math.Inf(-1)
		for _, candidate := range debate.Roles {
			if s := m.Score(rater, candidate); s > bestScore {
				best = candidate
				bestScore = s
			}
		}
		tally[best]++
	}
	return tally
}

// Trend compares the current round's scores against the previous synthesis
// and labels the direction of the debate. A swing of five points is the
// threshold between noise and signal.
func Trend(votingScore, uncertainty float64, prev *debate.SynthesisResult) debate.ConvergenceTrend {
	if prev == nil {
		return debate.TrendStable
	}

	voteDelta := votingScore - prev.VotingScore
	uncDelta := uncertainty - prev.UncertaintyLevel

	switch {
	case voteDelta >= 5 && uncDelta <= -5:
		return debate.TrendImproving
	case voteDelta <= -5 || uncDelta >= 5:
		return debate.TrendDiverging
	default:
		return debate.TrendStable
	}
}

// clamp bounds x to [lo,hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
