package testutil

import (
	"encoding/json"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"q/model"
)

// ToolCallFixture describes one tool call for ToolCallStream
type ToolCallFixture struct {
	ID        string
	Name      string
	Arguments string
}

// ContentStream returns an SSE body that streams parts as content deltas
// and ends with [DONE]
func ContentStream(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		writeRecord(&b, map[string]any{
			"choices": []any{map[string]any{"index": 0, "delta": map[string]any{"content": part}}},
		})
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

// ToolCallStream returns an SSE body requesting the given tool calls. Each
// call's arguments are streamed in two fragments.
func ToolCallStream(calls ...ToolCallFixture) string {
	var b strings.Builder
	for i, call := range calls {
		half := len(call.Arguments) / 2
		writeRecord(&b, toolDelta(map[string]any{
			"index":    i,
			"id":       call.ID,
			"type":     "function",
			"function": map[string]any{"name": call.Name, "arguments": call.Arguments[:half]},
		}))
		writeRecord(&b, toolDelta(map[string]any{
			"index":    i,
			"function": map[string]any{"arguments": call.Arguments[half:]},
		}))
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func toolDelta(call map[string]any) map[string]any {
	return map[string]any{
		"choices": []any{map[string]any{
			"index": 0,
			"delta": map[string]any{"tool_calls": []any{call}},
		}},
	}
}

func writeRecord(b *strings.Builder, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	b.WriteString("data: ")
	b.Write(data)
	b.WriteString("\n\n")
}

// TestModel returns a chat model for testing
func TestModel() model.Model {
	return model.Model{
		ID:      "gpt-4.1",
		Name:    "GPT-4.1",
		Vendor:  "Azure OpenAI",
		Version: "gpt-4.1-2025-04-14",
		Capabilities: model.ModelCapabilities{
			Type:   "chat",
			Limits: model.ModelLimits{MaxOutputTokens: 16384, MaxPromptTokens: 128000},
			Supports: model.ModelSupports{
				Streaming: true,
				ToolCalls: true,
			},
		},
	}
}

// TestModels returns a small model listing for testing
func TestModels() []model.Model {
	claude := TestModel()
	claude.ID = "claude-sonnet-4"
	claude.Name = "Claude Sonnet 4"
	claude.Vendor = "Anthropic"
	claude.Version = "claude-sonnet-4"
	return []model.Model{TestModel(), claude}
}

// TestMCPTools returns sample MCP tools for testing
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a location",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "The city and state, e.g. San Francisco, CA",
					},
				},
				Required: []string{"location"},
			},
		},
		{
			Name:        "calculate",
			Description: "Perform a mathematical calculation",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"expression": map[string]any{
						"type":        "string",
						"description": "The mathematical expression to evaluate",
					},
				},
				Required: []string{"expression"},
			},
		},
	}
}

// TestChat returns a transcript holding only a system prompt
func TestChat() model.ChatData {
	return model.NewChatData("You are a helpful AI assistant in a CLI. Do whatever the user asks.")
}
