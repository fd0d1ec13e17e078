// Package completion decodes streamed chat completions.
//
// An upstream completion arrives as a Server-Sent-Events body whose
// records carry JSON chunks. Records may be split at any byte, so decoding
// is incremental: ProcessStreamChunk turns one decoded text chunk plus the
// carry left over from the previous call into StreamEvents and a new
// carry, and RunAggregation drives that over an io.Reader and folds the
// events into a single CompletionResult.
package completion

import "encoding/json"

// CompletionChunk is one decoded SSE JSON record.
type CompletionChunk struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason,omitempty"`
}

type Delta struct {
	Role      string          `json:"role,omitempty"`
	Content   *string         `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta is a raw tool-call fragment. The first fragment of a call
// normally carries ID and name; later ones only extend the arguments.
type ToolCallDelta struct {
	Index    *int          `json:"index,omitempty"`
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type,omitempty"`
	Function FunctionDelta `json:"function"`
}

type FunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// StreamEvent is one of ContentEvent, ToolCallEvent or DoneEvent.
type StreamEvent interface {
	isStreamEvent()
}

// ContentEvent carries a text delta.
type ContentEvent struct {
	Data string
}

// ToolCallEvent carries one raw tool-call fragment.
type ToolCallEvent struct {
	ToolCall ToolCallDelta
}

// DoneEvent marks the [DONE] sentinel.
type DoneEvent struct{}

func (ContentEvent) isStreamEvent()  {}
func (ToolCallEvent) isStreamEvent() {}
func (DoneEvent) isStreamEvent()     {}

// ToolCallRecord is a finished tool call with its arguments decoded.
// Arguments is never nil; undecodable argument text yields an empty map.
type ToolCallRecord struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// RawArguments re-encodes the arguments for the transcript.
func (r ToolCallRecord) RawArguments() string {
	b, err := json.Marshal(r.Arguments)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// CompletionResult is either MessageResult or ToolCallsResult.
type CompletionResult interface {
	isCompletionResult()
}

// MessageResult is a plain assistant reply. Message may be empty.
type MessageResult struct {
	Message string
}

// ToolCallsResult is a reply that asks for tool invocations.
type ToolCallsResult struct {
	ToolCalls []ToolCallRecord
}

func (MessageResult) isCompletionResult()   {}
func (ToolCallsResult) isCompletionResult() {}

// Observer receives every event before it is folded into the result.
type Observer func(StreamEvent)
