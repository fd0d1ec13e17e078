package config

const (
	BackendCopilot = "copilot"
	BackendOllama  = "ollama"

	DefaultMaxToolHops    = 10
	DefaultRequestRetries = 2
	DefaultServerAddr     = ":3000"
	DefaultOllamaHost     = "http://localhost:11434"
)

// DefaultConfig returns the configuration used when no config.toml exists.
func DefaultConfig() *Config {
	return &Config{
		DataDirectory:  GetDefaultDataDir(),
		Backend:        BackendCopilot,
		MaxToolHops:    DefaultMaxToolHops,
		RequestRetries: DefaultRequestRetries,
		Ollama: OllamaConfig{
			Host: DefaultOllamaHost,
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		MCP: MCPConfig{
			Servers: map[string]MCPServerConfig{},
		},
	}
}

// GenerateConfigTemplate returns the commented config.toml written on
// first run.
func GenerateConfigTemplate() string {
	return `# q configuration
# Location: ~/.config/q/config.toml
# This file uses TOML format: https://toml.io

# Directory for the chat database and debug log
data_directory = "~/.local/share/q"

# Completion backend: "copilot" or "ollama"
backend = "copilot"

# Directory of *.md system prompts used by "q chat -f <name>"
# prompt_directory = "~/prompts"

# Prompt file used for new chats when no prompt is given
# default_prompt = "reviewer"

# Upper bound on tool-call round trips within a single turn
max_tool_hops = 10

# Transport-level retries for failed upstream requests
request_retries = 2

[ollama]
host = "http://localhost:11434"

[server]
addr = ":3000"

# MCP servers offering tools to the model.
#
# [mcp.servers.files]
# type = "stdio"
# command = "npx"
# args = ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
#
# [mcp.servers.search]
# type = "http"
# url = "https://example.com/mcp"
# headers = { Authorization = "Bearer ..." }
`
}
