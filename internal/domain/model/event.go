package model

import (
	"encoding/json"
	"fmt"
)

// EventKind is the wire discriminator of an agent-loop frame.
type EventKind string

const (
	EventStart         EventKind = "start"
	EventContextUpdate EventKind = "context_update"
	EventWarning       EventKind = "warning"
	EventStepStart     EventKind = "step_start"
	EventStepComplete  EventKind = "step_complete"
	EventToolResult    EventKind = "tool_result"
	EventUpdate        EventKind = "update"
	EventStream        EventKind = "stream"
	EventStreamEnd     EventKind = "stream_end"
	EventMessage       EventKind = "message"
	EventComplete      EventKind = "complete"
	EventError         EventKind = "error"
	EventUnknown       EventKind = "unknown"
)

// Event is the normalized form of one frame payload. Numeric fields are nil
// when the server sent nothing usable; text fields are already rendered and
// legacy-unwrapped.
type Event struct {
	Kind              EventKind
	SessionID         string
	ContextTokenCount *int
	ContextLimit      *int
	Step              *int
	MaxSteps          *int
	Message           string // warning/error text
	Summary           string // tool output, rendered
	Data              string // content delta
}

// rawEvent matches the union of fields any recognized frame may carry.
type rawEvent struct {
	Type              string `json:"type"`
	SessionID         string `json:"session_id"`
	ContextTokenCount any    `json:"context_token_count"`
	ContextLimit      any    `json:"context_limit"`
	Step              any    `json:"step"`
	MaxSteps          any    `json:"max_steps"`
	Message           string `json:"message"`
	Summary           any    `json:"summary"`
	Data              any    `json:"data"`
}

// DecodeEvent parses one frame payload into the tagged union. A payload that
// is not valid JSON is an error (the caller drops the frame and keeps going);
// an unrecognized or missing type yields EventUnknown.
func DecodeEvent(payload []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("parse frame: %w", err)
	}

	ev := Event{
		Kind:      EventUnknown,
		SessionID: raw.SessionID,
		Message:   raw.Message,
	}

	switch EventKind(raw.Type) {
	case EventStart:
		ev.Kind = EventStart
		ev.ContextLimit = CoerceNumber(raw.ContextLimit)
		ev.MaxSteps = CoerceNumber(raw.MaxSteps)
	case EventContextUpdate:
		ev.Kind = EventContextUpdate
		ev.ContextTokenCount = CoerceNumber(raw.ContextTokenCount)
		ev.ContextLimit = CoerceNumber(raw.ContextLimit)
	case EventWarning:
		ev.Kind = EventWarning
	case EventStepStart:
		ev.Kind = EventStepStart
		ev.Step = CoerceNumber(raw.Step)
		ev.MaxSteps = CoerceNumber(raw.MaxSteps)
	case EventStepComplete:
		ev.Kind = EventStepComplete
		ev.Step = CoerceNumber(raw.Step)
	case EventToolResult:
		ev.Kind = EventToolResult
		ev.Summary = SafeRender(raw.Summary)
	case EventUpdate:
		ev.Kind = EventUpdate
		if s, ok := raw.Data.(string); ok {
			if content, ok := ExtractToolMessage(s); ok {
				ev.Summary = content
			}
		}
	case EventStream:
		ev.Kind = EventStream
		if s, ok := raw.Data.(string); ok {
			ev.Data = s
		}
	case EventStreamEnd:
		ev.Kind = EventStreamEnd
	case EventMessage:
		ev.Kind = EventMessage
		ev.Data = ParseMessageContent(raw.Data)
	case EventComplete:
		ev.Kind = EventComplete
	case EventError:
		ev.Kind = EventError
	}
	return ev, nil
}
