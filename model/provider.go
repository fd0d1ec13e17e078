package model

import (
	"context"
	"io"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Initiator tells the upstream API who started a completion request.
type Initiator string

const (
	InitiatorUser  Initiator = "user"
	InitiatorAgent Initiator = "agent"
)

// CompletionRequest is everything a transport needs to open one streamed
// completion.
type CompletionRequest struct {
	Messages  []Message
	Model     string
	MaxTokens int
	Tools     []mcptypes.Tool
	Initiator Initiator
}

// Transport abstracts the upstream chat API. It is defined here rather
// than in the provider package so the chat and server packages can depend
// on it without importing concrete backends.
type Transport interface {
	// SendCompletion starts a streamed completion and returns the raw SSE
	// body. The caller closes it.
	SendCompletion(ctx context.Context, req CompletionRequest) (io.ReadCloser, error)

	// ListModels returns the chat models the backend offers.
	ListModels(ctx context.Context) ([]Model, error)

	// Name identifies the backend ("copilot", "ollama").
	Name() string
}
