package provider

import (
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"q/completion"
	"q/model"
)

func TestConvertToOllamaMessages(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleSystem, Content: "Be brief."},
		{Role: model.RoleUser, Content: "Weather in Paris?"},
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{{
			ID:       "call_1",
			Type:     "function",
			Function: model.FunctionCall{Name: "get_weather", Arguments: `{"city":"Paris"}`},
		}}},
		{Role: model.RoleTool, Content: "18C and sunny", ToolCallID: "call_1"},
	}

	got := ConvertToOllamaMessages(messages)
	require.Len(t, got, 4)

	assert.Equal(t, api.Message{Role: "system", Content: "Be brief."}, got[0])
	assert.Equal(t, "user", got[1].Role)
	require.Len(t, got[2].ToolCalls, 1)
	assert.Equal(t, "get_weather", got[2].ToolCalls[0].Function.Name)
	assert.Equal(t, "Paris", got[2].ToolCalls[0].Function.Arguments["city"])
	assert.Equal(t, "tool", got[3].Role)
	assert.Equal(t, "18C and sunny", got[3].Content)

	assert.Empty(t, ConvertToOllamaMessages(nil))
}

func TestParseToolArguments(t *testing.T) {
	assert.Equal(t, map[string]any{"a": float64(1)}, ParseToolArguments(`{"a":1}`))
	assert.Equal(t, map[string]any{}, ParseToolArguments(`{"a":`))
	assert.Equal(t, map[string]any{}, ParseToolArguments(`null`))
	assert.Equal(t, map[string]any{}, ParseToolArguments(`[1,2]`))
	assert.Equal(t, map[string]any{}, ParseToolArguments(``))
}

func TestOllamaChunk(t *testing.T) {
	next := 0

	chunk, err := ollamaChunk("Hi", nil, &next)
	require.NoError(t, err)
	require.Len(t, chunk.Choices, 1)
	require.NotNil(t, chunk.Choices[0].Delta.Content)
	assert.Equal(t, "Hi", *chunk.Choices[0].Delta.Content)
	assert.Empty(t, chunk.Choices[0].Delta.ToolCalls)

	chunk, err = ollamaChunk("", []api.ToolCall{
		{Function: api.ToolCallFunction{Name: "a", Arguments: map[string]any{"x": 1}}},
		{Function: api.ToolCallFunction{Name: "b"}},
	}, &next)
	require.NoError(t, err)
	assert.Nil(t, chunk.Choices[0].Delta.Content)

	calls := chunk.Choices[0].Delta.ToolCalls
	require.Len(t, calls, 2)
	assert.Equal(t, 0, *calls[0].Index)
	assert.Equal(t, 1, *calls[1].Index)
	assert.Equal(t, completion.FunctionDelta{Name: "a", Arguments: `{"x":1}`}, calls[0].Function)
	assert.Equal(t, "call_1", calls[1].ID)
	assert.Equal(t, 2, next)
}
