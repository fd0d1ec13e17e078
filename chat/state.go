// Package chat drives a chat turn: it streams a completion, dispatches the
// tool calls the model asks for and streams again until the model answers
// with a plain message.
package chat

import (
	"q/completion"
	"q/model"
)

// State is the phase a turn is in.
type State int

const (
	AwaitingInput State = iota
	Streaming
	DispatchingTools
	TurnComplete
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting_input"
	case Streaming:
		return "streaming"
	case DispatchingTools:
		return "dispatching_tools"
	case TurnComplete:
		return "turn_complete"
	}
	return "unknown"
}

// TurnState is what a turn produced so far. It is returned even when the
// turn fails, so callers can show a reply that could not be saved.
type TurnState struct {
	ChatID string
	State  State

	// Messages is the transcript as the controller last saw it, including
	// messages that failed to persist.
	Messages []model.Message

	// Reply is the final assistant message once State is TurnComplete.
	Reply string

	// ToolCalls lists every call dispatched during the turn, in order.
	ToolCalls []completion.ToolCallRecord

	// ToolErrors holds per-call failures. A failed call does not end the
	// turn; its error text is sent back to the model instead.
	ToolErrors []*ToolError

	// Hops counts completed tool dispatch rounds.
	Hops int
}
