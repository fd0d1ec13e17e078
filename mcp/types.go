package mcp

import (
	"os/exec"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"q/config"
)

// Server is one connected MCP server and the tools it advertised at
// connect time.
type Server struct {
	Name    string
	Config  config.MCPServerConfig
	Client  *client.Client
	Process *exec.Cmd // nil for remote servers
	Tools   []mcptypes.Tool
}

// ServerInfo describes a configured server for listings.
type ServerInfo struct {
	Name   string
	Type   string
	Target string
	Tools  []string
}

// IsRemote reports whether the server is reached over the network.
func (s *Server) IsRemote() bool {
	return s.Config.Type != config.MCPTransportStdio
}

// HasTool reports whether the server advertised a tool called name.
func (s *Server) HasTool(name string) bool {
	for _, tool := range s.Tools {
		if tool.Name == name {
			return true
		}
	}
	return false
}

// Info returns the listing form of the server.
func (s *Server) Info() ServerInfo {
	names := make([]string, 0, len(s.Tools))
	for _, tool := range s.Tools {
		names = append(names, tool.Name)
	}
	return ServerInfo{
		Name:   s.Name,
		Type:   s.Config.Type,
		Target: s.Config.Target(),
		Tools:  names,
	}
}
