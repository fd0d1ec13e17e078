package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"q/config"
)

func TestNewTransport(t *testing.T) {
	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{backend: config.BackendCopilot, want: "copilot"},
		{backend: "", want: "copilot"},
		{backend: config.BackendOllama, want: "ollama"},
		{backend: "anthropic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Backend = tt.backend

			transport, err := NewTransport(cfg)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown backend")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, transport.Name())
		})
	}
}
