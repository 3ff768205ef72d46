package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
)

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, role debate.Role, prompt string) *debate.ModelResponse

// Call implements Caller.
func (f CallerFunc) Call(ctx context.Context, role debate.Role, prompt string) *debate.ModelResponse {
	return f(ctx, role, prompt)
}

// ScriptedCaller replays a fixed sequence of responses per role. It backs
// dry runs and tests; once a role's script is exhausted, a canned
// high-agreement response is synthesized so debates terminate.
type ScriptedCaller struct {
	mu      sync.Mutex
	scripts map[debate.Role][]*debate.ModelResponse
	calls   map[debate.Role]int
}

// NewScriptedCaller creates an empty scripted caller.
func NewScriptedCaller() *ScriptedCaller {
	return &ScriptedCaller{
		scripts: make(map[debate.Role][]*debate.ModelResponse),
		calls:   make(map[debate.Role]int),
	}
}

// Queue appends a response to a role's script.
func (s *ScriptedCaller) Queue(role debate.Role, resp *debate.ModelResponse) *ScriptedCaller {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[role] = append(s.scripts[role], resp)
	return s
}

// QueueText appends a plain successful response with the given content.
func (s *ScriptedCaller) QueueText(role debate.Role, content string) *ScriptedCaller {
	return s.Queue(role, TextResponse(role, content))
}

// Calls reports how many times the given role has been called.
func (s *ScriptedCaller) Calls(role debate.Role) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[role]
}

// Call implements Caller.
func (s *ScriptedCaller) Call(_ context.Context, role debate.Role, _ string) *debate.ModelResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls[role]
	s.calls[role]++

	if script := s.scripts[role]; i < len(script) {
		return script[i]
	}
	return TextResponse(role, cannedContent(role))
}

// TextResponse builds a successful response with estimated token counts.
func TextResponse(role debate.Role, content string) *debate.ModelResponse {
	now := time.Now().UTC()
	resp := &debate.ModelResponse{
		Role:    role,
		Content: content,
		Metadata: debate.CallMetadata{
			Model:        "scripted",
			RequestedAt:  now,
			RespondedAt:  now,
			OutputTokens: EstimateTokens(content),
		},
	}
	Extract(resp)
	return resp
}

// cannedContent produces agreeable output for a role, with ratings the
// extractor can parse.
func cannedContent(role debate.Role) string {
	switch role {
	case debate.RoleProposer:
		return "Here is a straightforward solution.\n\nConfidence: 80%\n"
	case debate.RoleCritic:
		return "The proposal is sound.\n\nIssues:\n- none of note\n\n" + cannedRatings()
	case debate.RoleRefiner:
		return "Final solution below.\n\n```go\n// refined\n```\n\n" + cannedRatings()
	default:
		return ""
	}
}

func cannedRatings() string {
	return fmt.Sprintf("Proposal A: %d/10\nProposal B: %d/10\nProposal C: %d/10\n", 8, 8, 8)
}
