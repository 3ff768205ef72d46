package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Iron-Ham/triad/internal/debate"
)

var testModels = RoleModels{Proposer: "model-p", Critic: "model-c", Refiner: "model-r"}

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 34},
	}
}

func TestHTTPCallerSuccess(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if err := json.NewEncoder(w).Encode(chatCompletion("Use a token bucket.")); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer srv.Close()

	c := NewHTTPCaller(srv.URL, "key123", testModels, nil)
	resp := c.Call(context.Background(), debate.RoleProposer, "solve it")

	if resp.Failed() {
		t.Fatalf("call failed: %+v", resp.Metadata.Error)
	}
	if resp.Content != "Use a token bucket." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Solution == "" {
		t.Error("proposer response was not extracted")
	}
	if gotAuth != "Bearer key123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.Model != "model-p" {
		t.Errorf("request model = %q, want model-p", gotReq.Model)
	}
	if resp.Metadata.InputTokens != 12 || resp.Metadata.OutputTokens != 34 {
		t.Errorf("tokens = %d/%d, want 12/34 from reported usage",
			resp.Metadata.InputTokens, resp.Metadata.OutputTokens)
	}
}

func TestHTTPCallerNormalizesBaseURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewEncoder(w).Encode(chatCompletion("ok")); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer srv.Close()

	c := NewHTTPCaller(srv.URL+"/", "", testModels, nil)
	if resp := c.Call(context.Background(), debate.RoleProposer, "p"); resp.Failed() {
		t.Fatalf("call failed: %+v", resp.Metadata.Error)
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q, want a single /v1/chat/completions", gotPath)
	}
}

func TestHTTPCallerClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  string
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, "slow down", ErrCodeRateLimited, true},
		{"server error", http.StatusInternalServerError, "boom", ErrCodeProvider, false},
		{"empty choices", http.StatusOK, `{"choices":[]}`, ErrCodeProvider, false},
		{"malformed body", http.StatusOK, "{not json", ErrCodeProvider, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Errorf("write body: %v", err)
				}
			}))
			defer srv.Close()

			c := NewHTTPCaller(srv.URL, "", testModels, nil)
			resp := c.Call(context.Background(), debate.RoleCritic, "review it")

			if !resp.Failed() {
				t.Fatal("expected a failed response")
			}
			e := resp.Metadata.Error
			if e.Code != tt.wantCode || e.Retryable != tt.retryable {
				t.Errorf("error = %+v, want code=%s retryable=%v", e, tt.wantCode, tt.retryable)
			}
		})
	}
}

func TestHTTPCallerHonorsCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewHTTPCaller(srv.URL, "", testModels, nil)
	resp := c.Call(ctx, debate.RoleRefiner, "refine it")

	if !resp.Failed() {
		t.Fatal("expected a failed response")
	}
	if resp.Metadata.Error.Code != ErrCodeCanceled {
		t.Errorf("code = %s, want %s", resp.Metadata.Error.Code, ErrCodeCanceled)
	}
	if resp.Metadata.Error.Retryable {
		t.Error("cancellation should not be retryable")
	}
}
