package provider

import (
	"encoding/json"
	"fmt"

	"github.com/ollama/ollama/api"

	"q/completion"
	"q/model"
)

// ConvertToOllamaMessages maps transcript messages onto Ollama's message
// type. Tool-call arguments are decoded from their JSON text; undecodable
// arguments become an empty object.
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	result := make([]api.Message, len(messages))
	for i, msg := range messages {
		result[i] = api.Message{
			Role:      string(msg.Role),
			Content:   msg.Content,
			ToolCalls: convertToOllamaToolCalls(msg.ToolCalls),
		}
	}
	return result
}

func convertToOllamaToolCalls(calls []model.ToolCall) []api.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	result := make([]api.ToolCall, len(calls))
	for i, call := range calls {
		result[i] = api.ToolCall{
			Function: api.ToolCallFunction{
				Name:      call.Function.Name,
				Arguments: ParseToolArguments(call.Function.Arguments),
			},
		}
	}
	return result
}

// ParseToolArguments decodes a JSON argument object, returning an empty
// map when argsJSON is not one.
func ParseToolArguments(argsJSON string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// ollamaChunk builds the completion chunk for one Ollama response. Ollama
// sends each tool call whole, so every call becomes a single fragment with
// the next free index.
func ollamaChunk(content string, calls []api.ToolCall, nextIndex *int) (completion.CompletionChunk, error) {
	delta := completion.Delta{Role: string(model.RoleAssistant)}
	if content != "" {
		delta.Content = &content
	}

	for _, call := range calls {
		args, err := json.Marshal(call.Function.Arguments)
		if err != nil {
			return completion.CompletionChunk{}, fmt.Errorf("failed to encode arguments of %s: %w", call.Function.Name, err)
		}

		index := *nextIndex
		*nextIndex++

		delta.ToolCalls = append(delta.ToolCalls, completion.ToolCallDelta{
			Index: &index,
			ID:    fmt.Sprintf("call_%d", index),
			Type:  "function",
			Function: completion.FunctionDelta{
				Name:      call.Function.Name,
				Arguments: string(args),
			},
		})
	}

	return completion.CompletionChunk{
		Choices: []completion.Choice{{Delta: delta}},
	}, nil
}
