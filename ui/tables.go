package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"q/mcp"
	"q/model"
	"q/prompts"
	"q/storage"
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(w io.Writer, header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row(header))
	return tw
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

// RenderModels prints the flattened model listing.
func RenderModels(w io.Writer, models []model.Model) {
	tw := newTable(w, "id", "name", "vendor", "version",
		"parallel_tool_calls", "streaming", "structured_outputs", "tool_calls", "vision")
	for _, m := range models {
		f := m.Flatten()
		tw.AppendRow(table.Row{f.ID, f.Name, f.Vendor, f.Version,
			f.ParallelToolCalls, f.Streaming, f.StructuredOutputs, f.ToolCalls, f.Vision})
	}
	tw.Render()
}

// RenderChats prints chat summaries, oldest first.
func RenderChats(w io.Writer, chats []model.ChatSummary) {
	if len(chats) == 0 {
		fmt.Fprintln(w, "No chats found.")
		return
	}

	tw := newTable(w, "id", "message", "created_at", "updated_at", "chat_length")
	for _, c := range chats {
		tw.AppendRow(table.Row{c.ID, c.Message, formatTime(c.CreatedAt), formatTime(c.UpdatedAt), c.ChatLength})
	}
	tw.Render()
}

// RenderMatches prints message search results.
func RenderMatches(w io.Writer, matches []storage.MessageMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No messages found.")
		return
	}

	tw := newTable(w, "chat_id", "index", "role", "message")
	for _, m := range matches {
		tw.AppendRow(table.Row{m.ChatID, m.MessageIndex, m.Role, m.Preview})
	}
	tw.Render()
}

func RenderPrompts(w io.Writer, list []prompts.Prompt) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No prompts found in the directory.")
		return
	}

	tw := newTable(w, "name", "file")
	for _, p := range list {
		tw.AppendRow(table.Row{p.Name, p.File})
	}
	tw.Render()
}

// RenderServers prints MCP servers. The tools column is shown only when
// withTools is set.
func RenderServers(w io.Writer, servers []mcp.ServerInfo, withTools bool) {
	if len(servers) == 0 {
		fmt.Fprintln(w, "No MCP servers configured.")
		return
	}

	header := []any{"name", "type", "target"}
	if withTools {
		header = append(header, "tools")
	}

	tw := newTable(w, header...)
	for _, s := range servers {
		row := table.Row{s.Name, s.Type, s.Target}
		if withTools {
			row = append(row, strings.Join(s.Tools, ", "))
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

// RenderUser prints account fields as a two-column table. Nested values
// are flattened with dotted keys.
func RenderUser(w io.Writer, user map[string]any) {
	flat := make(map[string]any)
	flatten("", user, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := newTable(w, "field", "value")
	for _, k := range keys {
		tw.AppendRow(table.Row{k, flat[k]})
	}
	tw.Render()
}

func flatten(prefix string, value map[string]any, out map[string]any) {
	for k, v := range value {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}
