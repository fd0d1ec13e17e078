package provider

import (
	"fmt"

	"q/config"
	"q/model"
)

// NewTransport builds the backend selected by cfg.Backend.
func NewTransport(cfg *config.Config) (model.Transport, error) {
	switch cfg.Backend {
	case config.BackendCopilot, "":
		return NewCopilot(CopilotConfig{
			Retries: cfg.RequestRetries,
			Tokens:  cfg,
		}), nil
	case config.BackendOllama:
		return NewOllama(cfg.Ollama.Host, nil)
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
