package ui

import (
	"fmt"
	"io"
	"strings"

	"q/model"
)

// HistoryOptions controls how a transcript is printed.
type HistoryOptions struct {
	Markdown bool
	Width    int
}

// PrintHistory prints a stored transcript. System messages are skipped;
// assistant turns that only requested tools are summarized.
func PrintHistory(w io.Writer, chat model.Chat, opts HistoryOptions) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("--- Chat History (%s) ---", chat.ID)))
	fmt.Fprintln(w)

	for _, msg := range chat.Data.Messages {
		switch msg.Role {
		case model.RoleUser:
			fmt.Fprintf(w, "%s %s\n\n", UserStyle.Render("You:"), msg.Content)
		case model.RoleAssistant:
			fmt.Fprintf(w, "%s %s\n\n", AssistantStyle.Render("Assistant:"), assistantText(msg, opts))
		case model.RoleTool:
			fmt.Fprintf(w, "%s %s\n\n", ToolStyle.Render("Tool:"), DimStyle.Render(msg.Content))
		}
	}

	fmt.Fprintln(w, TitleStyle.Render("--- End History ---"))
}

func assistantText(msg model.Message, opts HistoryOptions) string {
	if len(msg.ToolCalls) > 0 && msg.Content == "" {
		return DimStyle.Render(ToolCallSummary(msg.ToolCalls))
	}
	if opts.Markdown {
		return "\n" + RenderMarkdown(msg.Content, opts.Width)
	}
	return msg.Content
}

// ToolCallSummary describes the calls of an assistant message.
func ToolCallSummary(calls []model.ToolCall) string {
	names := make([]string, len(calls))
	for i, call := range calls {
		names[i] = call.Function.Name
	}
	return fmt.Sprintf("[Called %d tool(s): %s]", len(calls), strings.Join(names, ", "))
}
