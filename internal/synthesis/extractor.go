package synthesis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Iron-Ham/triad/internal/debate"
)

// roleAliases maps each role to the labels under which models commonly refer
// to its output. Candidates are labeled A/B/C in prompts, in fixed role
// order, and models sometimes answer with the underlying model name instead.
var roleAliases = map[debate.Role][]string{
	debate.RoleProposer: {"proposer", "proposal a", "candidate a", "solution a", "opus"},
	debate.RoleCritic:   {"critic", "proposal b", "candidate b", "solution b", "gemini"},
	debate.RoleRefiner:  {"refiner", "proposal c", "candidate c", "solution c", "codex"},
}

// ratingPattern is one compiled extraction rule. Patterns are tried in
// order; the first match whose value lands in [1,10] wins.
type ratingPattern struct {
	re *regexp.Regexp
	// percent indicates the captured number is a 0-100 percentage that
	// must be scaled down to the 1-10 rating range.
	percent bool
}

// Extractor parses numeric ratings out of free-text model output.
// The zero value is not usable; use NewExtractor.
type Extractor struct {
	byRole     map[debate.Role][]ratingPattern
	confidence []ratingPattern
}

// NewExtractor compiles the extraction patterns for all three roles.
func NewExtractor() *Extractor {
	e := &Extractor{
		byRole: make(map[debate.Role][]ratingPattern, len(roleAliases)),
	}

	for role, aliases := range roleAliases {
		var patterns []ratingPattern
		for _, alias := range aliases {
			quoted := regexp.QuoteMeta(alias)
			patterns = append(patterns,
				// "Proposal A: 8/10", "proposer - 8 / 10"
				ratingPattern{re: regexp.MustCompile(`(?i)` + quoted + `\s*[:\-]?\s*(\d+(?:\.\d+)?)\s*/\s*10`)},
				// "Proposal A rating: 8", "critic score: 7.5"
				ratingPattern{re: regexp.MustCompile(`(?i)` + quoted + `\s*(?:rating|score)\s*[:\-]?\s*(\d+(?:\.\d+)?)`)},
				// "Opus: 8"
				ratingPattern{re: regexp.MustCompile(`(?i)` + quoted + `\s*[:\-]\s*(\d+(?:\.\d+)?)\b`)},
			)
		}
		e.byRole[role] = patterns
	}

	e.confidence = []ratingPattern{
		// "confidence: 80%"
		{re: regexp.MustCompile(`(?i)confidence\s*[:\-]?\s*(\d+(?:\.\d+)?)\s*%`), percent: true},
		// "confidence: 8/10"
		{re: regexp.MustCompile(`(?i)confidence\s*[:\-]?\s*(\d+(?:\.\d+)?)\s*/\s*10`)},
		// "confidence: 8"
		{re: regexp.MustCompile(`(?i)confidence\s*[:\-]?\s*(\d+(?:\.\d+)?)\b`)},
	}

	return e
}

// Rating extracts the rating the given text assigns to the target role's
// output. Returns the score and the matched fragment as justification.
// When no pattern matches, the neutral default and an empty justification
// are returned; ok reports whether a real match was found.
func (e *Extractor) Rating(text string, target debate.Role) (score float64, justification string, ok bool) {
	for _, p := range e.byRole[target] {
		if s, frag, matched := match(p, text); matched {
			return s, frag, true
		}
	}
	return debate.NeutralScore, "", false
}

// Confidence extracts a self-reported confidence from the text, scaled to
// the 1-10 rating range. Absence of any match yields the slightly
// optimistic default 6 rather than the neutral 5.
func (e *Extractor) Confidence(text string) (float64, bool) {
	for _, p := range e.confidence {
		if s, _, matched := match(p, text); matched {
			return s, true
		}
	}
	return debate.DefaultConfidence, false
}

// match applies one pattern and validates the captured value against the
// [1,10] rating range. Out-of-range captures are treated as non-matches so
// a later, saner pattern can still win.
func match(p ratingPattern, text string) (float64, string, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	if p.percent {
		v /= 10
	}
	if v < 1 || v > 10 {
		return 0, "", false
	}

	return v, strings.TrimSpace(m[0]), true
}
