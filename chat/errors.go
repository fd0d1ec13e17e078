package chat

import (
	"errors"
	"fmt"
)

// ErrMaxHops is returned when the model keeps requesting tools after the
// configured number of dispatch rounds.
var ErrMaxHops = errors.New("too many tool hops in one turn")

// PersistError means the turn produced a result that the store refused.
type PersistError struct {
	ChatID string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to save chat %s: %v", e.ChatID, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// ToolError records a tool call that could not be resolved or failed.
type ToolError struct {
	CallID string
	Name   string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s (%s): %v", e.Name, e.CallID, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
