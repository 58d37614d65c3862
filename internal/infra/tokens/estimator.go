// File: internal/infra/tokens/estimator.go
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"agentloop-chat/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.TokenEstimator = (*Estimator)(nil)

// Estimator approximates prompt token cost with tiktoken encodings. The
// server's accounting is authoritative; this only feeds the advisory
// pre-send context check.
type Estimator struct {
	enc *tiktoken.Tiktoken
}

func NewEstimator(model string) (*Estimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("tokenizer for %q: %w", model, err)
	}
	return &Estimator{enc: enc}, nil
}

func (e *Estimator) EstimateTokens(text string) (int, error) {
	return len(e.enc.Encode(text, nil, nil)), nil
}
