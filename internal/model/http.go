package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/logging"
)

// RoleModels maps each debate role to the model identifier used for it.
type RoleModels struct {
	Proposer string `mapstructure:"proposer" json:"proposer"`
	Critic   string `mapstructure:"critic" json:"critic"`
	Refiner  string `mapstructure:"refiner" json:"refiner"`
}

// Model returns the configured model identifier for the role.
func (rm RoleModels) Model(role debate.Role) string {
	switch role {
	case debate.RoleProposer:
		return rm.Proposer
	case debate.RoleCritic:
		return rm.Critic
	case debate.RoleRefiner:
		return rm.Refiner
	default:
		return ""
	}
}

// HTTPCaller calls a chat-completions style HTTP endpoint. It implements
// the never-throw Caller contract: every failure mode maps to a classified
// error in the response metadata.
type HTTPCaller struct {
	baseURL string
	apiKey  string
	models  RoleModels
	client  *http.Client
	logger  *logging.Logger
}

// NewHTTPCaller creates a caller against a provider's root URL; requests go
// to {baseURL}/v1/chat/completions. A nil logger is replaced with a no-op
// logger.
func NewHTTPCaller(baseURL, apiKey string, models RoleModels, logger *logging.Logger) *HTTPCaller {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &HTTPCaller{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		models:  models,
		client:  &http.Client{}, // per-call timeouts come from the context
		logger:  logger,
	}
}

// chatRequest is the wire format of an outbound call.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the wire response the caller consumes.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Call implements Caller.
func (c *HTTPCaller) Call(ctx context.Context, role debate.Role, prompt string) *debate.ModelResponse {
	modelID := c.models.Model(role)
	requestedAt := time.Now().UTC()

	body, err := json.Marshal(chatRequest{
		Model:    modelID,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return FailedResponse(role, modelID, ErrCodeTransport, fmt.Sprintf("encode request: %v", err), false, requestedAt)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return FailedResponse(role, modelID, ErrCodeTransport, fmt.Sprintf("build request: %v", err), false, requestedAt)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		code, retryable := classifyTransport(ctx, err)
		c.logger.Warn("model call failed", "role", string(role), "model", modelID, "code", code, "error", err.Error())
		return FailedResponse(role, modelID, code, err.Error(), retryable, requestedAt)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return FailedResponse(role, modelID, ErrCodeTransport, fmt.Sprintf("read response: %v", err), false, requestedAt)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return FailedResponse(role, modelID, ErrCodeRateLimited, "provider rate limited the call", true, requestedAt)
	case resp.StatusCode != http.StatusOK:
		msg := fmt.Sprintf("provider returned HTTP %d: %s", resp.StatusCode, truncate(string(payload), 200))
		return FailedResponse(role, modelID, ErrCodeProvider, msg, false, requestedAt)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return FailedResponse(role, modelID, ErrCodeProvider, fmt.Sprintf("decode response: %v", err), false, requestedAt)
	}
	if len(parsed.Choices) == 0 {
		return FailedResponse(role, modelID, ErrCodeProvider, "provider returned no choices", false, requestedAt)
	}

	content := parsed.Choices[0].Message.Content

	inputTokens := parsed.Usage.PromptTokens
	outputTokens := parsed.Usage.CompletionTokens
	if inputTokens == 0 {
		inputTokens = EstimateTokens(prompt)
	}
	if outputTokens == 0 {
		outputTokens = EstimateTokens(content)
	}

	out := &debate.ModelResponse{
		Role:    role,
		Content: content,
		Metadata: debate.CallMetadata{
			Model:        modelID,
			RequestedAt:  requestedAt,
			RespondedAt:  time.Now().UTC(),
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
		},
	}
	Extract(out)
	return out
}

// classifyTransport maps a transport-level error to an error code and
// retryability. Context expiry counts as a timeout; cancellation is
// terminal.
func classifyTransport(ctx context.Context, err error) (string, bool) {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ErrCodeTimeout, true
	case context.Canceled:
		return ErrCodeCanceled, false
	}
	if timeoutErr, ok := err.(interface{ Timeout() bool }); ok && timeoutErr.Timeout() {
		return ErrCodeTimeout, true
	}
	return ErrCodeTransport, false
}

// truncate shortens s to at most n runes for log and error messages.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
