package synthesis

import (
	"math"
	"testing"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/model"
)

func response(role debate.Role, content string) *debate.ModelResponse {
	return &debate.ModelResponse{Role: role, Content: content}
}

func agreeingResponses() map[debate.Role]*debate.ModelResponse {
	ratings := "Proposal A: 8/10\nProposal B: 8/10\nProposal C: 8/10"
	return map[debate.Role]*debate.ModelResponse{
		debate.RoleProposer: response(debate.RoleProposer, "Use a token bucket.\n\nConfidence: 80%"),
		debate.RoleCritic:   response(debate.RoleCritic, "Sound approach.\n"+ratings),
		debate.RoleRefiner:  response(debate.RoleRefiner, "Final code below.\n"+ratings),
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildMatrixDerivesProposerRow(t *testing.T) {
	m := BuildMatrix(NewExtractor(), agreeingResponses(), time.Now().UTC())

	if len(m.Ratings) != 9 {
		t.Fatalf("matrix has %d cells, want 9", len(m.Ratings))
	}
	if got := m.Score(debate.RoleProposer, debate.RoleProposer); !almostEqual(got, 8) {
		t.Errorf("proposer self-rating = %.2f, want 8 (confidence)", got)
	}
	if got := m.Score(debate.RoleProposer, debate.RoleCritic); !almostEqual(got, 7.2) {
		t.Errorf("proposer->critic = %.2f, want 7.2 (90%% of confidence)", got)
	}
	if got := m.Score(debate.RoleProposer, debate.RoleRefiner); !almostEqual(got, 6.8) {
		t.Errorf("proposer->refiner = %.2f, want 6.8 (85%% of confidence)", got)
	}
}

func TestNeutralMatrixIsFullyPopulated(t *testing.T) {
	m := NeutralMatrix(time.Now().UTC())

	if len(m.Ratings) != 9 {
		t.Fatalf("matrix has %d cells, want 9", len(m.Ratings))
	}
	for _, r := range m.Ratings {
		if !almostEqual(r.Score, debate.NeutralScore) {
			t.Errorf("%s->%s = %.2f, want neutral %.1f", r.Rater, r.Ratee, r.Score, debate.NeutralScore)
		}
	}
	if !almostEqual(m.AverageScore, debate.NeutralScore) {
		t.Errorf("AverageScore = %.2f, want %.1f", m.AverageScore, debate.NeutralScore)
	}
	if !almostEqual(m.StandardDeviation, 0) {
		t.Errorf("StandardDeviation = %.2f, want 0", m.StandardDeviation)
	}
	if !almostEqual(m.AgreementScore, 1) {
		t.Errorf("AgreementScore = %.2f, want 1 for identical rows", m.AgreementScore)
	}
}

func TestBuildMatrixFloorsDerivedRatings(t *testing.T) {
	responses := agreeingResponses()
	responses[debate.RoleProposer] = response(debate.RoleProposer, "Risky idea.\nConfidence: 20%")

	m := BuildMatrix(NewExtractor(), responses, time.Now().UTC())

	if got := m.Score(debate.RoleProposer, debate.RoleProposer); !almostEqual(got, 2) {
		t.Errorf("proposer self-rating = %.2f, want 2", got)
	}
	if got := m.Score(debate.RoleProposer, debate.RoleCritic); !almostEqual(got, 4) {
		t.Errorf("proposer->critic = %.2f, want floor 4", got)
	}
	if got := m.Score(debate.RoleProposer, debate.RoleRefiner); !almostEqual(got, 4) {
		t.Errorf("proposer->refiner = %.2f, want floor 4", got)
	}
}

func TestBuildMatrixDefaultsOnFailedCall(t *testing.T) {
	responses := agreeingResponses()
	responses[debate.RoleCritic] = model.FailedResponse(
		debate.RoleCritic, "gpt-4o", model.ErrCodeTimeout, "deadline exceeded", true, time.Now().UTC())

	m := BuildMatrix(NewExtractor(), responses, time.Now().UTC())

	for _, ratee := range debate.Roles {
		if got := m.Score(debate.RoleCritic, ratee); got != debate.NeutralScore {
			t.Errorf("critic->%s = %.1f, want neutral %.1f", ratee, got, debate.NeutralScore)
		}
	}
}

func TestBuildMatrixDefaultsWithoutProposerConfidence(t *testing.T) {
	responses := agreeingResponses()
	responses[debate.RoleProposer] = response(debate.RoleProposer, "No confidence line here.")

	m := BuildMatrix(NewExtractor(), responses, time.Now().UTC())

	if got := m.Score(debate.RoleProposer, debate.RoleProposer); !almostEqual(got, debate.DefaultConfidence) {
		t.Errorf("proposer self-rating = %.2f, want default %.1f", got, debate.DefaultConfidence)
	}
}

func TestBuildMatrixStatistics(t *testing.T) {
	m := BuildMatrix(NewExtractor(), agreeingResponses(), time.Now().UTC())

	wantMean := 70.0 / 9
	if math.Abs(m.AverageScore-wantMean) > 1e-9 {
		t.Errorf("AverageScore = %.4f, want %.4f", m.AverageScore, wantMean)
	}
	if m.StandardDeviation <= 0 || m.StandardDeviation > 1 {
		t.Errorf("StandardDeviation = %.4f, want small positive", m.StandardDeviation)
	}
	if m.AgreementScore <= 0.95 || m.AgreementScore > 1 {
		t.Errorf("AgreementScore = %.4f, want near 1 for agreeing raters", m.AgreementScore)
	}
}

func TestCosine(t *testing.T) {
	if got := cosine([]float64{8, 8, 8}, []float64{8, 8, 8}); math.Abs(got-1) > 1e-9 {
		t.Errorf("cosine of identical vectors = %.6f, want 1", got)
	}
	if got := cosine([]float64{1, 0, 0}, []float64{0, 1, 0}); got != 0 {
		t.Errorf("cosine of orthogonal vectors = %.6f, want 0", got)
	}
}

func TestPopStdDev(t *testing.T) {
	if got := popStdDev([]float64{5, 5, 5}); got != 0 {
		t.Errorf("stddev of identical values = %.4f, want 0", got)
	}
	// Values 2 and 8 around mean 5: deviation 3 each.
	if got := popStdDev([]float64{2, 8}); math.Abs(got-3) > 1e-9 {
		t.Errorf("stddev = %.4f, want 3", got)
	}
	if got := popStdDev(nil); got != 0 {
		t.Errorf("stddev of empty slice = %.4f, want 0", got)
	}
}
