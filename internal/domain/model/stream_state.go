package model

import (
	"strings"
	"time"
)

// DefaultContextLimit is assumed when the server never reports a limit.
const DefaultContextLimit = 128000

type MessageType string

const (
	MessageHuman     MessageType = "human"
	MessageAI        MessageType = "ai"
	MessageTool      MessageType = "tool"
	MessageSystem    MessageType = "system"
	MessageAgentStep MessageType = "agent_step"
)

type StepStatus string

const (
	StepStatusStart    StepStatus = "start"
	StepStatusComplete StepStatus = "complete"
	StepStatusError    StepStatus = "error"
)

// StreamMessage is one discrete record in a session transcript.
// StepNumber/MaxSteps/StepStatus are set for agent_step records only.
type StreamMessage struct {
	Content           string      `json:"content"`
	Type              MessageType `json:"type"`
	Time              string      `json:"time"` // HH:MM
	IsExpanded        bool        `json:"is_expanded,omitempty"`
	IsThinkingProcess bool        `json:"is_thinking_process,omitempty"`
	StepNumber        *int        `json:"step_number,omitempty"`
	MaxSteps          *int        `json:"max_steps,omitempty"`
	StepStatus        StepStatus  `json:"step_status,omitempty"`
}

// ContextUsage is the last-known token accounting for one session. It lives
// in a side cache that outlives the primary stream state.
type ContextUsage struct {
	TokenCount int `json:"token_count"`
	Limit      int `json:"limit"`
}

// StreamState is the mutable record for one stream attempt. Content holds
// the in-flight assistant text until it is fixed into a discrete message;
// Messages is append-only in arrival order.
type StreamState struct {
	Content           string          `json:"content"`
	Messages          []StreamMessage `json:"messages"`
	IsComplete        bool            `json:"is_complete"`
	Error             string          `json:"error,omitempty"`
	ContextTokenCount int             `json:"context_token_count"`
	ContextLimit      int             `json:"context_limit"`
	CurrentStep       int             `json:"current_step"`
	MaxSteps          *int            `json:"max_steps,omitempty"`
	UserMessage       string          `json:"user_message,omitempty"`
}

// NewStreamState seeds a fresh state for a stream attempt. Token fields come
// from the usage cache (or the start event) so a follow-up turn does not
// flash back to zero.
func NewStreamState(userMessage string, usage ContextUsage, maxSteps *int) *StreamState {
	return &StreamState{
		Messages:          make([]StreamMessage, 0, 8),
		ContextTokenCount: usage.TokenCount,
		ContextLimit:      usage.Limit,
		MaxSteps:          maxSteps,
		UserMessage:       userMessage,
	}
}

func (s *StreamState) AppendMessage(msg StreamMessage) {
	s.Messages = append(s.Messages, msg)
}

// FlushContent fixes non-blank in-flight content into a discrete ai message,
// preserving the interleaving of assistant text and tool output.
func (s *StreamState) FlushContent(clock string) {
	if strings.TrimSpace(s.Content) == "" {
		return
	}
	s.AppendMessage(StreamMessage{Content: s.Content, Type: MessageAI, Time: clock})
	s.Content = ""
}

// Clone returns a deep copy safe to hand to readers outside the owning loop.
func (s *StreamState) Clone() StreamState {
	cp := *s
	cp.Messages = make([]StreamMessage, len(s.Messages))
	copy(cp.Messages, s.Messages)
	if s.MaxSteps != nil {
		v := *s.MaxSteps
		cp.MaxSteps = &v
	}
	return cp
}

// ClockTime formats a transcript timestamp the way the UI displays it.
func ClockTime() string {
	return time.Now().Format("15:04")
}
