// File: cmd/app/render.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"agentloop-chat/internal/domain/model"
	"agentloop-chat/internal/usecase"
)

// renderer turns the session-state map into terminal output by polling:
// the state store is the only channel between the decode loop and its
// consumers, so the CLI reads it the same way a UI would.
type renderer struct {
	uc  usecase.ChatStreamUseCase
	out io.Writer

	sessionID      string
	printedContent int // bytes of in-flight content already written
	printedMsgs    int
}

func newRenderer(uc usecase.ChatStreamUseCase, out io.Writer) *renderer {
	return &renderer{uc: uc, out: out}
}

func (r *renderer) run(ctx context.Context, started <-chan string) {
	select {
	case <-ctx.Done():
		return
	case r.sessionID = <-started:
	}

	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if st, ok := r.uc.State(r.sessionID); ok {
				r.render(st)
				if st.IsComplete {
					return
				}
			}
		}
	}
}

// render writes everything that appeared since the previous call. Fixed
// messages are handled before the in-flight delta so a flush (content moved
// into an ai record, then reset) prints exactly once.
func (r *renderer) render(st model.StreamState) {
	for ; r.printedMsgs < len(st.Messages); r.printedMsgs++ {
		msg := st.Messages[r.printedMsgs]
		switch msg.Type {
		case model.MessageAI:
			if rest := msg.Content[min(r.printedContent, len(msg.Content)):]; rest != "" {
				fmt.Fprint(r.out, rest)
			}
			fmt.Fprint(r.out, "\n\n")
			r.printedContent = 0
		case model.MessageTool:
			fmt.Fprintf(r.out, "[tool] %s\n\n", msg.Content)
		case model.MessageSystem:
			fmt.Fprintf(r.out, "[warning] %s\n", msg.Content)
		case model.MessageAgentStep:
			if msg.StepNumber != nil && msg.MaxSteps != nil {
				fmt.Fprintf(r.out, "-- step %d/%d --\n", *msg.StepNumber, *msg.MaxSteps)
			} else if msg.StepNumber != nil {
				fmt.Fprintf(r.out, "-- step %d --\n", *msg.StepNumber)
			} else {
				fmt.Fprintln(r.out, "-- step --")
			}
		default:
			fmt.Fprintln(r.out, msg.Content)
		}
	}

	if len(st.Content) > r.printedContent {
		fmt.Fprint(r.out, st.Content[r.printedContent:])
		r.printedContent = len(st.Content)
	} else if len(st.Content) < r.printedContent {
		r.printedContent = len(st.Content)
	}
}

// finish drains any remainder, prints the usage footer and surfaces a
// terminal error as the command's exit status.
func (r *renderer) finish(out io.Writer) error {
	if r.sessionID == "" {
		return errors.New("stream did not start; see logs")
	}
	st, ok := r.uc.State(r.sessionID)
	if !ok {
		return nil
	}
	r.render(st)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "session %s · context %d/%d tokens\n", r.sessionID, st.ContextTokenCount, st.ContextLimit)
	if st.Error != "" {
		return errors.New(st.Error)
	}
	return nil
}
