// File: internal/usecase/reducer.go
package usecase

import (
	"sync"

	"github.com/rs/zerolog"

	"agentloop-chat/internal/domain/model"
	"agentloop-chat/internal/domain/ports/repository"
	"agentloop-chat/internal/infra/metrics"
	"agentloop-chat/internal/infra/sse"
)

// reducer applies decoded records to one stream attempt's session state.
// It runs on the attempt's read loop only, so per-key writes never race;
// the stores serialize access for outside readers.
type reducer struct {
	states      repository.StreamStateStore
	usage       repository.ContextUsageCache
	notify      *startNotifier
	sessionID   string // from the request, replaced by the start event
	userMessage string
	log         *zerolog.Logger
}

// apply processes one record. It reports true when the stream must stop
// (server-signaled error).
func (r *reducer) apply(rec sse.Record) bool {
	if rec.Done {
		// Sentinel: close out the session if one is tracked, decode nothing.
		r.markComplete()
		return false
	}

	ev, err := model.DecodeEvent([]byte(rec.Payload))
	if err != nil {
		metrics.DecodeFailure()
		r.log.Warn().Err(err).Str("payload", rec.Payload).Msg("dropping malformed frame")
		return false
	}
	metrics.EventProcessed(string(ev.Kind))

	switch ev.Kind {
	case model.EventError:
		msg := ev.Message
		if msg == "" {
			msg = "stream request failed"
		}
		r.fail(msg)
		return true

	case model.EventStart:
		r.start(ev)

	case model.EventContextUpdate:
		r.contextUpdate(ev)

	case model.EventWarning:
		msg := ev.Message
		if msg == "" {
			msg = "warning"
		}
		r.log.Warn().Str("session_id", r.sessionID).Msg(msg)
		r.update(func(st *model.StreamState) {
			st.AppendMessage(model.StreamMessage{
				Content: msg,
				Type:    model.MessageSystem,
				Time:    model.ClockTime(),
			})
		})

	case model.EventStepStart:
		r.update(func(st *model.StreamState) {
			if ev.MaxSteps != nil {
				st.MaxSteps = ev.MaxSteps
			}
			if ev.Step != nil {
				st.CurrentStep = *ev.Step
			}
			st.AppendMessage(model.StreamMessage{
				Type:              model.MessageAgentStep,
				Time:              model.ClockTime(),
				StepNumber:        ev.Step,
				MaxSteps:          ev.MaxSteps,
				StepStatus:        model.StepStatusStart,
				IsThinkingProcess: true,
			})
		})

	case model.EventStepComplete:
		// step_start already appended the step delimiter; only the counter moves.
		r.update(func(st *model.StreamState) {
			if ev.Step != nil {
				st.CurrentStep = *ev.Step
			}
		})

	case model.EventToolResult, model.EventUpdate:
		r.toolMessage(ev.Summary)

	case model.EventStream:
		if ev.Data != "" {
			r.update(func(st *model.StreamState) { st.Content += ev.Data })
		}

	case model.EventMessage:
		// Legacy non-streaming payload; treated as an incremental delta.
		if ev.Data != "" {
			r.update(func(st *model.StreamState) { st.Content += ev.Data })
		}

	case model.EventStreamEnd:
		// Content already accumulated; completion is signaled separately.

	case model.EventComplete:
		// Content stays intact: consumers read the final reply from it.
		r.markComplete()
	}
	return false
}

// start installs a full replacement state for the session, seeded from the
// usage cache so the token counter does not flash back to zero, then fires
// the one-shot start notification.
func (r *reducer) start(ev model.Event) {
	if ev.SessionID == "" {
		return
	}
	r.sessionID = ev.SessionID

	usage := model.ContextUsage{Limit: model.DefaultContextLimit}
	cached, ok := r.usage.Get(r.sessionID)
	if ok {
		usage.TokenCount = cached.TokenCount
	}
	if ev.ContextLimit != nil && *ev.ContextLimit > 0 {
		usage.Limit = *ev.ContextLimit
	} else if ok && cached.Limit > 0 {
		usage.Limit = cached.Limit
	}

	r.states.Put(r.sessionID, model.NewStreamState(r.userMessage, usage, ev.MaxSteps))
	r.log.Debug().Str("session_id", r.sessionID).Msg("stream started")
	r.notify.fire(r.sessionID)
}

// contextUpdate always writes through to the usage cache, then updates the
// active state if it still exists.
func (r *reducer) contextUpdate(ev model.Event) {
	if r.sessionID == "" {
		return
	}
	usage := model.ContextUsage{Limit: model.DefaultContextLimit}
	if ev.ContextTokenCount != nil {
		usage.TokenCount = *ev.ContextTokenCount
	}
	if ev.ContextLimit != nil {
		usage.Limit = *ev.ContextLimit
	}
	r.usage.Put(r.sessionID, usage)
	metrics.ContextTokens(r.sessionID, usage.TokenCount)
	r.update(func(st *model.StreamState) {
		st.ContextTokenCount = usage.TokenCount
		st.ContextLimit = usage.Limit
	})
}

// toolMessage fixes any in-flight assistant text first, then appends the
// tool output, preserving transcript interleaving. Empty output is a no-op.
func (r *reducer) toolMessage(content string) {
	if content == "" {
		return
	}
	r.update(func(st *model.StreamState) {
		now := model.ClockTime()
		st.FlushContent(now)
		st.AppendMessage(model.StreamMessage{
			Content: content,
			Type:    model.MessageTool,
			Time:    now,
		})
	})
}

func (r *reducer) markComplete() {
	r.update(func(st *model.StreamState) { st.IsComplete = true })
}

// finishEOF forces completion when the transport ended without an explicit
// complete event.
func (r *reducer) finishEOF() {
	r.update(func(st *model.StreamState) {
		if !st.IsComplete {
			st.IsComplete = true
		}
	})
}

// fail moves the session to its error-terminal state. Events for sessions
// with no active state are dropped, matching the clear-then-straggler case.
func (r *reducer) fail(msg string) {
	r.log.Error().Str("session_id", r.sessionID).Str("error", msg).Msg("stream failed")
	r.update(func(st *model.StreamState) {
		st.Error = msg
		st.IsComplete = true
	})
}

// update applies fn when an active state exists for the current session;
// otherwise the event is silently dropped.
func (r *reducer) update(fn func(st *model.StreamState)) {
	if r.sessionID == "" {
		return
	}
	r.states.Update(r.sessionID, fn)
}

// startNotifier delivers the session id to the caller at most once, even if
// the server repeats the start event within one attempt.
type startNotifier struct {
	once sync.Once
	fn   func(sessionID string)
}

func newStartNotifier(fn func(string)) *startNotifier {
	return &startNotifier{fn: fn}
}

func (n *startNotifier) fire(sessionID string) {
	n.once.Do(func() {
		if n.fn != nil {
			n.fn(sessionID)
		}
	})
}
