package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"q/model"
)

// CopilotToken is the short-lived API token exchanged for the GitHub token.
// ExpiresAt is in Unix milliseconds.
type CopilotToken struct {
	Token     string `toml:"token"`
	ExpiresAt int64  `toml:"expires_at"`
}

// Valid reports whether the token can still be used at now.
func (t CopilotToken) Valid(now time.Time) bool {
	return t.Token != "" && t.ExpiresAt > now.UnixMilli()
}

type OllamaConfig struct {
	Host string `toml:"host"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type Config struct {
	DataDirectory   string       `toml:"data_directory"`
	Backend         string       `toml:"backend"`
	Model           *model.Model `toml:"model,omitempty"`
	PromptDirectory string       `toml:"prompt_directory,omitempty"`
	DefaultPrompt   string       `toml:"default_prompt,omitempty"`
	MaxToolHops     int          `toml:"max_tool_hops"`
	RequestRetries  int          `toml:"request_retries"`
	CopilotToken    CopilotToken `toml:"copilot_token"`
	Ollama          OllamaConfig `toml:"ollama"`
	Server          ServerConfig `toml:"server"`
	MCP             MCPConfig    `toml:"mcp"`

	path string
}

// ErrNoModel is returned when no default model has been chosen yet.
var ErrNoModel = errors.New("no default model set")

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) PromptDir() string {
	return ExpandPath(c.PromptDirectory)
}

// Path returns the file the config was loaded from and will be saved to.
func (c *Config) Path() string {
	return c.path
}

// CurrentModel returns the default model or ErrNoModel.
func (c *Config) CurrentModel() (model.Model, error) {
	if c.Model == nil || c.Model.ID == "" {
		return model.Model{}, ErrNoModel
	}
	return *c.Model, nil
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("Q_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if backend := os.Getenv("Q_BACKEND"); backend != "" {
		c.Backend = backend
	}
	if host := os.Getenv("Q_OLLAMA_HOST"); host != "" {
		c.Ollama.Host = host
	}
	if id := os.Getenv("Q_MODEL"); id != "" {
		if c.Model == nil || c.Model.ID != id {
			c.Model = &model.Model{ID: id, Name: id}
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataDirectory == "" {
		c.DataDirectory = GetDefaultDataDir()
	}
	if c.Backend == "" {
		c.Backend = BackendCopilot
	}
	if c.MaxToolHops <= 0 {
		c.MaxToolHops = DefaultMaxToolHops
	}
	if c.RequestRetries < 0 {
		c.RequestRetries = 0
	}
	if c.Ollama.Host == "" {
		c.Ollama.Host = DefaultOllamaHost
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.MCP.Servers == nil {
		c.MCP.Servers = map[string]MCPServerConfig{}
	}
}

// Load reads ~/.config/q/config.toml, creating it from the template on
// first run. A .env file in the working directory is loaded first so its
// values take part in the env overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path := GetSettingsFilePath()
	if !FileExists(path) {
		if err := createDefaultConfig(path); err != nil {
			return nil, err
		}
	}

	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	if FileExists(path) {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.MCP.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mcp configuration: %w", err)
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}

// Save writes the config back to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = GetSettingsFilePath()
	}
	if err := EnsureDir(filepath.Dir(c.path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600 - holds the Copilot API token
	f, err := os.OpenFile(c.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// CachedCopilotToken returns the Copilot token saved by the last exchange.
func (c *Config) CachedCopilotToken() CopilotToken {
	return c.CopilotToken
}

// SaveCopilotToken stores token and writes the config.
func (c *Config) SaveCopilotToken(token CopilotToken) error {
	c.CopilotToken = token
	return c.Save()
}

// SetModel stores m as the default model.
func (c *Config) SetModel(m model.Model) error {
	c.Model = &m
	return c.Save()
}

// SetPromptDirectory validates dir and stores it.
func (c *Config) SetPromptDirectory(dir string) error {
	expanded := ExpandPath(strings.TrimSpace(dir))
	info, err := os.Stat(expanded)
	if err != nil {
		return fmt.Errorf("failed to read prompt directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", expanded)
	}
	c.PromptDirectory = expanded
	return c.Save()
}

func createDefaultConfig(path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
