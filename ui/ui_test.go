package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"q/completion"
	"q/mcp"
	"q/model"
	"q/prompts"
)

func TestIsExit(t *testing.T) {
	for _, input := range []string{"", "  ", "exit", "quit", "q", "Q", " exit "} {
		assert.True(t, IsExit(input), "%q", input)
	}
	for _, input := range []string{"hello", "quit it", "exit()"} {
		assert.False(t, IsExit(input), "%q", input)
	}
}

func TestPromptModel(t *testing.T) {
	var m tea.Model = newPromptModel("")
	for _, r := range "hi there" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	pm := m.(promptModel)
	assert.True(t, pm.submitted)
	assert.False(t, pm.aborted)
	assert.Equal(t, "hi there", pm.input.Value())
	assert.Empty(t, pm.View())

	m, _ = newPromptModel("").Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, m.(promptModel).aborted)
}

func TestRenderChats(t *testing.T) {
	var buf bytes.Buffer
	RenderChats(&buf, nil)
	assert.Equal(t, "No chats found.\n", buf.String())

	buf.Reset()
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	RenderChats(&buf, []model.ChatSummary{{
		ID:         "0b8f2c1e",
		Message:    "What is the capital ...",
		CreatedAt:  created,
		UpdatedAt:  created,
		ChatLength: 3,
	}})

	out := buf.String()
	for _, want := range []string{"id", "message", "chat_length", "0b8f2c1e", "What is the capital ...", "3"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderModels(t *testing.T) {
	var buf bytes.Buffer
	RenderModels(&buf, []model.Model{{
		ID: "gpt-4.1", Name: "GPT-4.1", Vendor: "Azure OpenAI", Version: "gpt-4.1-2025-04-14",
		Capabilities: model.ModelCapabilities{Supports: model.ModelSupports{ToolCalls: true, Streaming: true}},
	}})

	out := buf.String()
	for _, want := range []string{"parallel_tool_calls", "structured_outputs", "vision", "gpt-4.1", "Azure OpenAI", "true", "false"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderPromptsAndServers(t *testing.T) {
	var buf bytes.Buffer
	RenderPrompts(&buf, nil)
	assert.Equal(t, "No prompts found in the directory.\n", buf.String())

	buf.Reset()
	RenderPrompts(&buf, []prompts.Prompt{{Name: "reviewer", File: "reviewer.md"}})
	assert.Contains(t, buf.String(), "reviewer.md")

	buf.Reset()
	servers := []mcp.ServerInfo{{Name: "files", Type: "stdio", Target: "npx server-fs", Tools: []string{"read_file", "list_dir"}}}
	RenderServers(&buf, servers, false)
	assert.NotContains(t, buf.String(), "read_file")

	buf.Reset()
	RenderServers(&buf, servers, true)
	assert.Contains(t, buf.String(), "read_file, list_dir")
}

func TestRenderUserFlattens(t *testing.T) {
	var buf bytes.Buffer
	RenderUser(&buf, map[string]any{
		"login":        "octocat",
		"endpoints":    map[string]any{"api": "https://api.business.githubcopilot.com"},
		"chat_enabled": true,
	})

	out := buf.String()
	assert.Contains(t, out, "endpoints.api")
	assert.Contains(t, out, "octocat")
	assert.Less(t, strings.Index(out, "chat_enabled"), strings.Index(out, "login"))
}

func TestPrintHistory(t *testing.T) {
	chat := model.Chat{ID: "abc", Data: model.ChatData{Messages: []model.Message{
		{Role: model.RoleSystem, Content: "You are helpful."},
		{Role: model.RoleUser, Content: "Weather in Paris?"},
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{
			{ID: "c1", Type: "function", Function: model.FunctionCall{Name: "get_weather"}},
			{ID: "c2", Type: "function", Function: model.FunctionCall{Name: "get_time"}},
		}},
		{Role: model.RoleTool, Content: "18C", ToolCallID: "c1"},
		{Role: model.RoleAssistant, Content: "It is 18C."},
	}}}

	var buf bytes.Buffer
	PrintHistory(&buf, chat, HistoryOptions{})
	out := StripANSI(buf.String())

	assert.True(t, strings.HasPrefix(out, "--- Chat History (abc) ---"))
	assert.NotContains(t, out, "You are helpful.")
	assert.Contains(t, out, "You: Weather in Paris?")
	assert.Contains(t, out, "Assistant: [Called 2 tool(s): get_weather, get_time]")
	assert.Contains(t, out, "Tool: 18C")
	assert.Contains(t, out, "Assistant: It is 18C.")
	assert.True(t, strings.HasSuffix(out, "--- End History ---\n"))
}

func TestRenderMarkdown(t *testing.T) {
	out := StripANSI(RenderMarkdown("# Title\n\nSome **bold** text and a [link](https://example.com).", 80))
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "https://example.com")
	assert.NotContains(t, out, "[link]")
}

func TestFrameCodeBlocks(t *testing.T) {
	in := "before\n┃ x := 1\n┃ y := 2\nafter"
	out := StripANSI(frameCodeBlocks(in, 24))

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "before", lines[0])
	assert.Contains(t, lines[2], "[code]")
	assert.Equal(t, "x := 1", lines[3])
	assert.Equal(t, "y := 2", lines[4])
	assert.Equal(t, strings.Repeat("━", 20), lines[5])
	assert.Equal(t, "after", lines[7])
}

func TestSuggest(t *testing.T) {
	candidates := []string{"gpt-4.1", "gpt-4o", "claude-sonnet-4", "o3-mini", "gemini-2.5-pro"}

	got := Suggest("sonnet", candidates)
	require.NotEmpty(t, got)
	assert.Equal(t, "claude-sonnet-4", got[0])

	assert.LessOrEqual(t, len(Suggest("g", candidates)), 3)
	assert.Empty(t, Suggest("", candidates))
	assert.Empty(t, Suggest("zzz", candidates))
}

func TestCopyToClipboard(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(text string) error {
		copied = text
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	require.NoError(t, CopyToClipboard("reply"))
	assert.Equal(t, "reply", copied)
	assert.ErrorIs(t, CopyToClipboard(""), ErrNothingToCopy)

	writeClipboard = func(string) error { return errors.New("no xclip") }
	assert.ErrorContains(t, CopyToClipboard("reply"), "no xclip")
}

func TestStreamPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewStreamPrinter(&buf)

	p.Observe(completion.ContentEvent{Data: "Let me check"})
	p.Observe(completion.ToolCallEvent{ToolCall: completion.ToolCallDelta{ID: "c1", Function: completion.FunctionDelta{Name: "get_weather"}}})
	p.Observe(completion.ToolCallEvent{ToolCall: completion.ToolCallDelta{Function: completion.FunctionDelta{Arguments: `{"city"`}}})
	p.Observe(completion.ContentEvent{Data: "Done"})
	p.Observe(completion.DoneEvent{})
	p.Finish()

	assert.Equal(t, "Let me check\n→ calling get_weather\nDone\n", StripANSI(buf.String()))
}
