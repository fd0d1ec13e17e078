package model

import (
	"errors"
	"fmt"
)

// Role identifies the author of a message in a transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// FunctionCall is the function part of a persisted tool call. Arguments is
// the JSON-encoded argument object.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a tool invocation as recorded on an assistant message.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message is one entry of a chat transcript.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

var (
	ErrMissingRole    = errors.New("message must have a role")
	ErrEmptyMessage   = errors.New("message must have content or tool_calls")
	ErrMissingCallID  = errors.New("tool message must reference a tool call")
	ErrEmptyChat      = errors.New("chat data must have at least one message")
	ErrInvalidMessage = errors.New("invalid message")
)

// Validate checks that the message has a known role and carries either
// content or at least one tool call. Assistant replies and tool results
// may be empty; tool results must name the call they answer.
func (m Message) Validate() error {
	switch {
	case m.Role == "":
		return ErrMissingRole
	case !m.Role.Valid():
		return fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, m.Role)
	case m.Role == RoleTool && m.ToolCallID == "":
		return ErrMissingCallID
	case m.Role == RoleTool, m.Role == RoleAssistant:
		return nil
	case m.Content == "" && len(m.ToolCalls) == 0:
		return ErrEmptyMessage
	}
	return nil
}

// ChatData is the serialized body of a chat.
type ChatData struct {
	Messages []Message `json:"messages"`
}

// Validate checks that the chat has at least one message and that every
// message is valid.
func (c ChatData) Validate() error {
	if len(c.Messages) == 0 {
		return ErrEmptyChat
	}
	for i, msg := range c.Messages {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

// Append returns a copy of c with msg added to the end.
func (c ChatData) Append(msg Message) ChatData {
	messages := make([]Message, 0, len(c.Messages)+1)
	messages = append(messages, c.Messages...)
	messages = append(messages, msg)
	return ChatData{Messages: messages}
}

// NewChatData starts a transcript with a system prompt.
func NewChatData(systemPrompt string) ChatData {
	return ChatData{Messages: []Message{{Role: RoleSystem, Content: systemPrompt}}}
}
