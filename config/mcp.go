package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	MCPTransportSSE   = "sse"
	MCPTransportHTTP  = "http"
	MCPTransportStdio = "stdio"
)

// MCPServerConfig describes one MCP server. Remote servers use URL and
// Headers, stdio servers use Command, Args and Env.
type MCPServerConfig struct {
	Type    string            `toml:"type" validate:"required,oneof=sse http stdio"`
	URL     string            `toml:"url,omitempty" validate:"required_unless=Type stdio,omitempty,url"`
	Headers map[string]string `toml:"headers,omitempty"`
	Command string            `toml:"command,omitempty" validate:"required_if=Type stdio"`
	Args    []string          `toml:"args,omitempty"`
	Env     map[string]string `toml:"env,omitempty"`
}

// Target is the URL for remote servers or the command line for stdio ones.
func (s MCPServerConfig) Target() string {
	if s.Type == MCPTransportStdio {
		return strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
	}
	return s.URL
}

type MCPConfig struct {
	Servers map[string]MCPServerConfig `toml:"servers"`
}

// Names returns the configured server names in sorted order.
func (m MCPConfig) Names() []string {
	names := make([]string, 0, len(m.Servers))
	for name := range m.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServersByType returns the servers using the given transport.
func (m MCPConfig) ServersByType(transport string) map[string]MCPServerConfig {
	servers := make(map[string]MCPServerConfig)
	for name, server := range m.Servers {
		if server.Type == transport {
			servers[name] = server
		}
	}
	return servers
}

// Validate checks every server entry.
func (m MCPConfig) Validate() error {
	for _, name := range m.Names() {
		if err := ValidateStruct(m.Servers[name]); err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}
	}
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ErrValidation marks input rejected by ValidateStruct.
var ErrValidation = errors.New("validation failed")

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateStruct checks payload against its validate tags and folds the
// failures into a single ErrValidation.
func ValidateStruct(payload any) error {
	err := getValidator().Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fmt.Sprintf("field '%s' failed on the '%s' tag", fieldErr.Field(), fieldErr.Tag()))
	}

	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(messages, "; "))
}
