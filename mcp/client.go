package mcp

import (
	"context"

	"go.uber.org/multierr"

	"q/config"
)

// Load connects every configured server. Servers that fail are skipped;
// their errors are combined into the returned error while the registry
// still serves the servers that did connect.
func Load(ctx context.Context, cfg config.MCPConfig) (*Registry, error) {
	r := NewRegistry()

	var errs error
	for _, name := range cfg.Names() {
		if err := r.Connect(ctx, name, cfg.Servers[name]); err != nil {
			config.DebugLog.Debugf("[MCP] %v", err)
			errs = multierr.Append(errs, err)
		}
	}

	return r, errs
}

// Infos describes the connected servers in connection order.
func (r *Registry) Infos() []ServerInfo {
	servers := r.Servers()
	infos := make([]ServerInfo, 0, len(servers))
	for _, s := range servers {
		infos = append(infos, s.Info())
	}
	return infos
}

// ConfiguredServers describes the configured servers without connecting.
func ConfiguredServers(cfg config.MCPConfig) []ServerInfo {
	infos := make([]ServerInfo, 0, len(cfg.Servers))
	for _, name := range cfg.Names() {
		server := cfg.Servers[name]
		infos = append(infos, ServerInfo{
			Name:   name,
			Type:   server.Type,
			Target: server.Target(),
		})
	}
	return infos
}
