package adapter

import (
	"context"
	"io"

	"agentloop-chat/internal/domain/model"
)

// StreamOpener opens one agent-loop stream attempt and returns the raw
// event-stream body. Implementations own the credential attach and the
// single refresh-and-retry on 401; the returned reader honors ctx
// cancellation.
type StreamOpener interface {
	OpenStream(ctx context.Context, req model.ChatRequest) (io.ReadCloser, error)
}

// TokenEstimator approximates the model-token cost of a piece of text
// (best-effort; used for the pre-send context check only).
type TokenEstimator interface {
	EstimateTokens(text string) (int, error)
}
