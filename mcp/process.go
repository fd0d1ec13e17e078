package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"

	"q/config"
)

// Connect starts a client for cfg and registers it under name.
func (r *Registry) Connect(ctx context.Context, name string, cfg config.MCPServerConfig) error {
	var (
		c   *client.Client
		cmd *exec.Cmd
		err error
	)

	switch cfg.Type {
	case config.MCPTransportSSE:
		c, err = createSSEClient(ctx, cfg)
	case config.MCPTransportHTTP:
		c, err = createStreamableHTTPClient(ctx, cfg)
	case config.MCPTransportStdio:
		c, cmd, err = createStdioClient(cfg)
	default:
		return fmt.Errorf("unknown transport type %q for server %s", cfg.Type, name)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to server %s: %w", name, err)
	}

	if err := r.Add(ctx, name, cfg, c); err != nil {
		_ = stopServer(&Server{Name: name, Client: c, Process: cmd})
		return err
	}

	if cmd != nil {
		if s := r.server(name); s != nil {
			s.Process = cmd
		}
	}
	return nil
}

func createSSEClient(ctx context.Context, cfg config.MCPServerConfig) (*client.Client, error) {
	var opts []transport.ClientOption
	if len(cfg.Headers) > 0 {
		opts = append(opts, transport.WithHeaders(cfg.Headers))
	}

	c, err := client.NewSSEMCPClient(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}

	// SSE needs its stream open before Initialize
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start SSE transport: %w", err)
	}

	config.DebugLog.Debugf("[MCP] Started SSE transport for %s", cfg.URL)
	return c, nil
}

func createStreamableHTTPClient(ctx context.Context, cfg config.MCPServerConfig) (*client.Client, error) {
	var opts []transport.StreamableHTTPCOption
	if len(cfg.Headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(cfg.Headers))
	}

	c, err := client.NewStreamableHttpClient(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}

	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start HTTP transport: %w", err)
	}

	config.DebugLog.Debugf("[MCP] Started streamable HTTP transport for %s", cfg.URL)
	return c, nil
}

// createStdioClient spawns the server process. The returned command is
// kept so a hanging server can be killed on shutdown.
func createStdioClient(cfg config.MCPServerConfig) (*client.Client, *exec.Cmd, error) {
	command, err := exec.LookPath(config.ExpandPath(cfg.Command))
	if err != nil {
		return nil, nil, fmt.Errorf("command %q not found: %w", cfg.Command, err)
	}

	var captured *exec.Cmd
	cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		captured = cmd
		return cmd, nil
	}

	c, err := client.NewStdioMCPClientWithOptions(
		command,
		configToEnv(cfg.Env),
		cfg.Args,
		transport.WithCommandFunc(cmdFunc),
	)
	if err != nil {
		return nil, nil, err
	}

	if captured != nil && captured.Process != nil {
		config.DebugLog.Debugf("[MCP] Started %s with PID %d", command, captured.Process.Pid)
	}
	return c, captured, nil
}

// configToEnv layers the configured variables over the current
// environment so PATH and friends survive.
func configToEnv(envMap map[string]string) []string {
	env := os.Environ()

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return env
}
