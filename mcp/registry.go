// Package mcp connects to the configured MCP servers and routes tool calls
// to them.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/multierr"

	"q/config"
)

// ErrToolNotFound is returned when no connected server advertises a tool.
var ErrToolNotFound = errors.New("tool not found")

const (
	protocolVersion = "2025-06-18"
	clientName      = "q"
	clientVersion   = "0.1.0"

	closeTimeout = time.Second
)

// Registry holds the connected servers in connection order. Tool names are
// resolved against the servers in that order.
type Registry struct {
	mu      sync.RWMutex
	servers []*Server
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add initializes an already started client, fetches its tools and
// registers it under name.
func (r *Registry) Add(ctx context.Context, name string, cfg config.MCPServerConfig, c *client.Client) error {
	if r.server(name) != nil {
		return fmt.Errorf("server %s already connected", name)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: protocolVersion,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    clientName,
				Version: clientVersion,
			},
		},
	}

	if _, err := c.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("failed to initialize server %s: %w", name, err)
	}

	toolsResult, err := c.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list tools for %s: %w", name, err)
	}

	r.mu.Lock()
	r.servers = append(r.servers, &Server{
		Name:   name,
		Config: cfg,
		Client: c,
		Tools:  toolsResult.Tools,
	})
	r.mu.Unlock()

	config.DebugLog.Debugf("[MCP] Server %s ready with %d tools", name, len(toolsResult.Tools))
	return nil
}

// Servers returns a snapshot of the connected servers.
func (r *Registry) Servers() []*Server {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Server(nil), r.servers...)
}

func (r *Registry) server(name string) *Server {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.servers {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Remove disconnects the server called name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	var target *Server
	for i, s := range r.servers {
		if s.Name == name {
			target = s
			r.servers = append(r.servers[:i], r.servers[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if target == nil {
		return fmt.Errorf("server %s not connected", name)
	}
	return stopServer(target)
}

// Close disconnects every server and reports all failures.
func (r *Registry) Close() error {
	r.mu.Lock()
	servers := r.servers
	r.servers = nil
	r.mu.Unlock()

	errs := make([]error, len(servers))
	var wg sync.WaitGroup
	for i, s := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = stopServer(s)
		}()
	}
	wg.Wait()

	return multierr.Combine(errs...)
}

// stopServer closes the client, killing a local process whose close hangs.
func stopServer(s *Server) error {
	closeDone := make(chan error, 1)
	go func() {
		closeDone <- s.Client.Close()
	}()

	var closeErr error
	closed := false
	select {
	case closeErr = <-closeDone:
		closed = closeErr == nil
	case <-time.After(closeTimeout):
		config.DebugLog.Debugf("[MCP] Close timeout for %s", s.Name)
	}

	if !closed && s.Process != nil && s.Process.Process != nil {
		config.DebugLog.Debugf("[MCP] Killing process for %s (PID: %d)", s.Name, s.Process.Process.Pid)
		if err := s.Process.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to kill %s: %w", s.Name, err))
		}
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close server %s: %w", s.Name, closeErr)
	}
	return nil
}
