package retry

import (
	"regexp"
	"strings"
)

// ClassificationType is the four-way failure taxonomy applied to executor
// output.
type ClassificationType string

const (
	// TypeTransient covers failures expected to clear on their own, such
	// as timeouts and rate limits. Retried with backoff.
	TypeTransient ClassificationType = "transient"

	// TypeFixableWithFeedback covers failures a human can resolve with a
	// clarification or an environment fix. Routed through feedback.
	TypeFixableWithFeedback ClassificationType = "fixable_with_feedback"

	// TypePermanent covers failures retrying cannot change. Escalated
	// immediately.
	TypePermanent ClassificationType = "permanent"

	// TypeUnknown is the conservative default for unmatched text. Treated
	// as retryable.
	TypeUnknown ClassificationType = "unknown"
)

// Suggested actions attached to classifications.
const (
	ActionRetry    = "retry"
	ActionAskUser  = "ask_user"
	ActionEscalate = "escalate"
)

// Classification is the structured verdict on one failed execution
// attempt.
type Classification struct {
	Type            ClassificationType `json:"type"`
	Confidence      float64            `json:"confidence"`
	SuggestedAction string             `json:"suggested_action"`
	Explanation     string             `json:"explanation"`
	SuggestedFixes  []string           `json:"suggested_fixes,omitempty"`
}

// Retryable reports whether the retry loop may attempt the plan again
// without human input.
func (c Classification) Retryable() bool {
	return c.Type == TypeTransient || c.Type == TypeUnknown
}

// category is one rung of the classification cascade.
type category struct {
	pattern        *regexp.Regexp
	classification Classification
}

// The cascade is evaluated top to bottom; the first matching category
// wins, so more specific phrasings sit above the generic ones (a missing
// module mentions a file path too, but is a dependency problem first).
var cascade = []category{
	{
		pattern: regexp.MustCompile(`(?i)timed? ?out|connection (refused|reset|closed)|ETIMEDOUT|ECONNREFUSED|network is unreachable|broken pipe`),
		classification: Classification{
			Type:            TypeTransient,
			Confidence:      0.9,
			SuggestedAction: ActionRetry,
			Explanation:     "the execution hit a timeout or connection problem",
			SuggestedFixes:  []string{"retry the execution", "check network connectivity"},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)cannot find module|module not found|no module named|missing dependency|could not resolve dependency|package .+ is not in`),
		classification: Classification{
			Type:            TypeFixableWithFeedback,
			Confidence:      0.85,
			SuggestedAction: ActionAskUser,
			Explanation:     "a required dependency is missing from the environment",
			SuggestedFixes:  []string{"install the missing dependency", "check the project's dependency manifest"},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)syntax error|parse error|unexpected token|invalid syntax|unexpected end of (file|input)`),
		classification: Classification{
			Type:            TypePermanent,
			Confidence:      0.95,
			SuggestedAction: ActionEscalate,
			Explanation:     "the generated code does not parse; retrying will not change it",
			SuggestedFixes:  []string{"review the generated code manually"},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)deprecated|no longer supported|unsupported (feature|option|version)`),
		classification: Classification{
			Type:            TypePermanent,
			Confidence:      0.8,
			SuggestedAction: ActionEscalate,
			Explanation:     "the plan relies on a deprecated or unsupported feature",
			SuggestedFixes:  []string{"rework the plan against a supported API"},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)ambiguous|unclear requirement|multiple (matches|candidates)|did you mean`),
		classification: Classification{
			Type:            TypeFixableWithFeedback,
			Confidence:      0.7,
			SuggestedAction: ActionAskUser,
			Explanation:     "the failure points at an ambiguity only the requester can resolve",
			SuggestedFixes:  []string{"clarify the intended behavior"},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)no such file or directory|file not found|cannot (find|open) file|undefined reference|cannot resolve import|import ?error`),
		classification: Classification{
			Type:            TypeFixableWithFeedback,
			Confidence:      0.75,
			SuggestedAction: ActionAskUser,
			Explanation:     "a referenced file or import is missing",
			SuggestedFixes:  []string{"create or restore the missing file", "fix the import path"},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)permission denied|access denied|unauthorized|forbidden|authentication (failed|required)|invalid (api key|credentials)`),
		classification: Classification{
			Type:            TypeFixableWithFeedback,
			Confidence:      0.85,
			SuggestedAction: ActionAskUser,
			Explanation:     "the execution lacks permission or valid credentials",
			SuggestedFixes:  []string{"grant the needed permission", "refresh the credentials"},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)rate limit|too many requests|quota exceeded|status(:| code)? 429`),
		classification: Classification{
			Type:            TypeTransient,
			Confidence:      0.9,
			SuggestedAction: ActionRetry,
			Explanation:     "an upstream service rate limited the execution",
			SuggestedFixes:  []string{"retry after the backoff delay"},
		},
	},
}

// unknownClassification is returned for text no category matches.
var unknownClassification = Classification{
	Type:            TypeUnknown,
	Confidence:      0.3,
	SuggestedAction: ActionRetry,
	Explanation:     "the failure matched no known pattern; retrying as a conservative default",
}

// Classify maps an execution failure's error text to its classification.
// The function is deterministic over the text; pattern order decides ties.
func Classify(errorText string) Classification {
	text := strings.TrimSpace(errorText)
	if text == "" {
		return unknownClassification
	}

	for _, c := range cascade {
		if c.pattern.MatchString(text) {
			return c.classification
		}
	}
	return unknownClassification
}
