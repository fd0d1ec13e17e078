package completion

import (
	"encoding/json"
	"errors"

	"q/config"
)

// ErrIncompleteRecord means the text is not (yet) a complete JSON value.
var ErrIncompleteRecord = errors.New("incomplete JSON record")

// parseChunk decodes one record. Only text that is not valid JSON fails;
// valid JSON of an unexpected shape decodes to an empty chunk.
func parseChunk(text string) (CompletionChunk, error) {
	if !json.Valid([]byte(text)) {
		return CompletionChunk{}, ErrIncompleteRecord
	}

	var chunk CompletionChunk
	if err := json.Unmarshal([]byte(text), &chunk); err != nil {
		config.DebugLog.Debugf("[Stream] Ignoring record with unexpected shape: %v", err)
		return CompletionChunk{}, nil
	}

	return chunk, nil
}

// extractEvents derives the events carried by one chunk: the content delta
// first, then one event per function tool-call fragment. Fragments of other
// tool types are dropped. A fragment without a type continues an earlier
// function call.
func extractEvents(chunk CompletionChunk) []StreamEvent {
	if len(chunk.Choices) == 0 {
		return nil
	}

	delta := chunk.Choices[0].Delta
	var events []StreamEvent

	if delta.Content != nil && *delta.Content != "" {
		events = append(events, ContentEvent{Data: *delta.Content})
	}

	for _, call := range delta.ToolCalls {
		switch call.Type {
		case "function", "":
			events = append(events, ToolCallEvent{ToolCall: call})
		default:
			config.DebugLog.Debugf("[Stream] Dropping tool call of type %q", call.Type)
		}
	}

	return events
}
