package model

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is the BPE encoding used for token estimation when a
// backend does not report usage itself.
const tokenEncoding = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// EstimateTokens returns an approximate token count for the text. When the
// encoding cannot be initialized the estimate falls back to a conservative
// bytes/4 heuristic; cost accounting tolerates the imprecision.
func EstimateTokens(text string) int {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(tokenEncoding)
	})
	if encErr != nil || enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
