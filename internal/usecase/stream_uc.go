// File: internal/usecase/stream_uc.go
package usecase

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"agentloop-chat/internal/domain/model"
	"agentloop-chat/internal/domain/ports/adapter"
	"agentloop-chat/internal/domain/ports/repository"
	"agentloop-chat/internal/infra/logging"
	"agentloop-chat/internal/infra/metrics"
	"agentloop-chat/internal/infra/sse"
)

// Compile-time check
var _ ChatStreamUseCase = (*chatStreamUC)(nil)

// ChatStreamUseCase drives agent-loop stream attempts and owns the
// observable session state. Stream blocks until the stream is fully
// consumed or aborted; protocol and transport failures are recorded in the
// session's state rather than returned — the only error Stream reports is
// the caller's own cancellation.
type ChatStreamUseCase interface {
	Stream(ctx context.Context, req model.ChatRequest, onStart func(sessionID string)) error
	State(sessionID string) (model.StreamState, bool)
	ClearState(sessionID string)
	ContextUsage(sessionID string) (model.ContextUsage, bool)
}

type chatStreamUC struct {
	opener adapter.StreamOpener
	states repository.StreamStateStore
	usage  repository.ContextUsageCache
	tokens adapter.TokenEstimator // optional
	log    *zerolog.Logger
}

func NewChatStreamUseCase(
	opener adapter.StreamOpener,
	states repository.StreamStateStore,
	usage repository.ContextUsageCache,
	tokens adapter.TokenEstimator,
	logger *zerolog.Logger,
) *chatStreamUC {
	return &chatStreamUC{opener: opener, states: states, usage: usage, tokens: tokens, log: logger}
}

func (c *chatStreamUC) Stream(ctx context.Context, req model.ChatRequest, onStart func(string)) error {
	log := c.log.With().Str("attempt_id", ulid.Make().String()).Logger()
	defer logging.TraceDuration(&log, "ChatStreamUC.Stream")()

	r := &reducer{
		states:      c.states,
		usage:       c.usage,
		notify:      newStartNotifier(onStart),
		sessionID:   req.SessionID,
		userMessage: req.Message,
		log:         &log,
	}

	c.precheck(req, &log)

	metrics.StreamOpened()
	defer metrics.StreamClosed()
	started := time.Now()
	finish := func(outcome string) {
		metrics.StreamFinished(outcome, time.Since(started).Seconds())
	}

	body, err := c.opener.OpenStream(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			finish("cancelled")
			return ctx.Err()
		}
		log.Error().Err(err).Msg("open stream failed")
		r.fail(err.Error())
		finish("error")
		return nil
	}
	defer body.Close()

	dec := &sse.Decoder{}
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, rec := range dec.Feed(string(buf[:n])) {
				if stop := r.apply(rec); stop {
					finish("error")
					return nil
				}
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			for _, rec := range dec.Flush() {
				if stop := r.apply(rec); stop {
					finish("error")
					return nil
				}
			}
			// A silently closed connection must not leave the session
			// hanging in "active" forever.
			r.finishEOF()
			finish("complete")
			return nil
		}
		if ctx.Err() != nil {
			// Cancellation synthesizes nothing; state stays as reached.
			log.Debug().Msg("stream cancelled")
			finish("cancelled")
			return ctx.Err()
		}
		log.Error().Err(err).Msg("stream read failed")
		r.fail(err.Error())
		finish("error")
		return nil
	}
}

func (c *chatStreamUC) State(sessionID string) (model.StreamState, bool) {
	return c.states.Get(sessionID)
}

// ClearState removes only the primary state; the usage cache keeps the last
// token snapshot for the next turn's seed.
func (c *chatStreamUC) ClearState(sessionID string) {
	c.states.Delete(sessionID)
}

func (c *chatStreamUC) ContextUsage(sessionID string) (model.ContextUsage, bool) {
	return c.usage.Get(sessionID)
}

// precheck warns when the outgoing message, on top of the last known
// context usage, is likely to crowd the context window. Advisory only.
func (c *chatStreamUC) precheck(req model.ChatRequest, log *zerolog.Logger) {
	if c.tokens == nil || req.SessionID == "" {
		return
	}
	est, err := c.tokens.EstimateTokens(req.Message)
	if err != nil {
		log.Debug().Err(err).Msg("token estimate unavailable")
		return
	}
	usage, ok := c.usage.Get(req.SessionID)
	if !ok {
		return
	}
	limit := usage.Limit
	if limit <= 0 {
		limit = model.DefaultContextLimit
	}
	if usage.TokenCount+est >= limit*9/10 {
		metrics.PrecheckWarning()
		log.Warn().
			Int("estimated_tokens", est).
			Int("context_tokens", usage.TokenCount).
			Int("context_limit", limit).
			Msg("message may exceed the context window")
	}
}
