package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"q/config"
)

// ListTools returns the tools of every server in connection order. A name
// advertised by several servers is listed once, for the first of them.
func (r *Registry) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	seen := make(map[string]bool)
	var tools []mcptypes.Tool

	for _, s := range r.Servers() {
		for _, tool := range s.Tools {
			if seen[tool.Name] {
				config.DebugLog.Debugf("[MCP] Tool %s from %s is shadowed by an earlier server", tool.Name, s.Name)
				continue
			}
			seen[tool.Name] = true
			tools = append(tools, tool)
		}
	}

	return tools, nil
}

// Resolve returns the first server advertising a tool called name.
func (r *Registry) Resolve(name string) (*Server, error) {
	for _, s := range r.Servers() {
		if s.HasTool(name) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

// CallTool invokes name on the server that provides it and returns the
// text of the result. A result flagged as an error is returned as an
// error carrying that text.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s, err := r.Resolve(name)
	if err != nil {
		return "", err
	}

	result, err := s.Client.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call %s on %s: %w", name, s.Name, err)
	}

	text := ResultText(result)
	if result.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return "", errors.New(text)
	}

	return text, nil
}

// ResultText joins the text parts of a tool result. Non-text parts are
// skipped.
func ResultText(result *mcptypes.CallToolResult) string {
	if result == nil {
		return ""
	}

	parts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		if text, ok := mcptypes.AsTextContent(content); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
