package synthesis

import (
	"fmt"
	"math"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
)

// Derivation factors for the proposer's row of the matrix. The proposer is
// not asked to rate explicitly; its self-rating is its stated confidence,
// and its ratings of the critic and refiner are fixed fractions of that
// confidence, floored at 4.
const (
	proposerCriticFactor  = 0.90
	proposerRefinerFactor = 0.85
	proposerRatingFloor   = 4.0
)

// BuildMatrix constructs the fully populated 3x3 rating matrix for a round.
//
// The critic and refiner rows are parsed out of those roles' free text; any
// cell that cannot be parsed holds the neutral default. The proposer row is
// derived from the proposer's self-reported confidence. Responses from
// failed calls contribute only defaults.
func BuildMatrix(ex *Extractor, responses map[debate.Role]*debate.ModelResponse, now time.Time) debate.RatingMatrix {
	m := debate.RatingMatrix{
		Ratings: make([]debate.Rating, 0, len(debate.Roles)*len(debate.Roles)),
	}

	confidence := debate.DefaultConfidence
	if p := responses[debate.RoleProposer]; p != nil && !p.Failed() {
		confidence, _ = ex.Confidence(p.Content)
	}

	for _, rater := range debate.Roles {
		for _, ratee := range debate.Roles {
			m.Ratings = append(m.Ratings, buildRating(ex, responses, rater, ratee, confidence, now))
		}
	}

	m.AverageScore = mean(allScores(&m))
	m.StandardDeviation = popStdDev(allScores(&m))
	m.AgreementScore = agreement(&m)

	return m
}

// NeutralMatrix returns a fully populated matrix holding the neutral score
// in every cell. It stands in for a real matrix when a round's inputs
// cannot be scored, the way NeutralResult stands in for its synthesis.
func NeutralMatrix(now time.Time) debate.RatingMatrix {
	m := debate.RatingMatrix{
		Ratings: make([]debate.Rating, 0, len(debate.Roles)*len(debate.Roles)),
	}
	for _, rater := range debate.Roles {
		for _, ratee := range debate.Roles {
			m.Ratings = append(m.Ratings, debate.Rating{
				Rater:         rater,
				Ratee:         ratee,
				Score:         debate.NeutralScore,
				Justification: "round not scored; neutral default",
				RatedAt:       now,
			})
		}
	}
	m.AverageScore = debate.NeutralScore
	m.StandardDeviation = 0
	m.AgreementScore = agreement(&m)
	return m
}

// buildRating produces one cell of the matrix.
func buildRating(ex *Extractor, responses map[debate.Role]*debate.ModelResponse, rater, ratee debate.Role, confidence float64, now time.Time) debate.Rating {
	r := debate.Rating{
		Rater:   rater,
		Ratee:   ratee,
		Score:   debate.NeutralScore,
		RatedAt: now,
	}

	if rater == debate.RoleProposer {
		switch ratee {
		case debate.RoleProposer:
			r.Score = confidence
			r.Justification = "self-reported confidence"
		case debate.RoleCritic:
			r.Score = math.Max(proposerRatingFloor, confidence*proposerCriticFactor)
			r.Justification = fmt.Sprintf("derived from proposer confidence %.1f", confidence)
		case debate.RoleRefiner:
			r.Score = math.Max(proposerRatingFloor, confidence*proposerRefinerFactor)
			r.Justification = fmt.Sprintf("derived from proposer confidence %.1f", confidence)
		}
		return r
	}

	resp := responses[rater]
	if resp == nil || resp.Failed() {
		r.Justification = "no usable response; neutral default"
		return r
	}

	score, justification, ok := ex.Rating(resp.Content, ratee)
	r.Score = score
	if ok {
		r.Justification = justification
	} else {
		r.Justification = "no rating parsed; neutral default"
	}
	return r
}

// allScores flattens the nine matrix cells.
func allScores(m *debate.RatingMatrix) []float64 {
	scores := make([]float64, 0, len(m.Ratings))
	for _, r := range m.Ratings {
		scores = append(scores, r.Score)
	}
	return scores
}

// agreement computes the mean pairwise cosine similarity between each
// rater's 3-vector of handed-out scores.
func agreement(m *debate.RatingMatrix) float64 {
	vectors := make([][]float64, 0, len(debate.Roles))
	for _, rater := range debate.Roles {
		vectors = append(vectors, m.GivenScores(rater))
	}

	var sum float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sum += cosine(vectors[i], vectors[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// cosine returns the cosine similarity of two equal-length vectors.
// Rating vectors have all components in [1,10], so neither side is zero.
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// mean returns the arithmetic mean of xs, or 0 for an empty slice.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// popStdDev returns the population standard deviation of xs.
func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mu := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - mu
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
