package model

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable is returned when no listed model matches a name.
var ErrModelUnavailable = errors.New("model is not available")

// ModelLimits are the token limits advertised for a model.
type ModelLimits struct {
	MaxOutputTokens int `json:"max_output_tokens" toml:"max_output_tokens"`
	MaxPromptTokens int `json:"max_prompt_tokens" toml:"max_prompt_tokens"`
}

// ModelSupports lists the optional features a model advertises.
type ModelSupports struct {
	ParallelToolCalls bool `json:"parallel_tool_calls" toml:"parallel_tool_calls"`
	Streaming         bool `json:"streaming" toml:"streaming"`
	StructuredOutputs bool `json:"structured_outputs" toml:"structured_outputs"`
	ToolCalls         bool `json:"tool_calls" toml:"tool_calls"`
	Vision            bool `json:"vision" toml:"vision"`
}

// ModelCapabilities is the capability block of a model listing entry.
type ModelCapabilities struct {
	Type     string        `json:"type" toml:"type"`
	Limits   ModelLimits   `json:"limits" toml:"limits"`
	Supports ModelSupports `json:"supports" toml:"supports"`
}

// Model is a chat model offered by the upstream API.
type Model struct {
	ID           string            `json:"id" toml:"id"`
	Name         string            `json:"name" toml:"name"`
	Vendor       string            `json:"vendor" toml:"vendor"`
	Version      string            `json:"version" toml:"version"`
	Capabilities ModelCapabilities `json:"capabilities" toml:"capabilities"`
}

// FlatModel is a Model with its capabilities flattened for display.
type FlatModel struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Vendor            string `json:"vendor"`
	Version           string `json:"version"`
	MaxOutputTokens   int    `json:"capabilities_limits_max_output_tokens"`
	MaxPromptTokens   int    `json:"capabilities_limits_max_prompt_tokens"`
	ParallelToolCalls bool   `json:"parallel_tool_calls"`
	Streaming         bool   `json:"streaming"`
	StructuredOutputs bool   `json:"structured_outputs"`
	ToolCalls         bool   `json:"tool_calls"`
	Vision            bool   `json:"vision"`
}

// Flatten returns the display form of m.
func (m Model) Flatten() FlatModel {
	return FlatModel{
		ID:                m.ID,
		Name:              m.Name,
		Vendor:            m.Vendor,
		Version:           m.Version,
		MaxOutputTokens:   m.Capabilities.Limits.MaxOutputTokens,
		MaxPromptTokens:   m.Capabilities.Limits.MaxPromptTokens,
		ParallelToolCalls: m.Capabilities.Supports.ParallelToolCalls,
		Streaming:         m.Capabilities.Supports.Streaming,
		StructuredOutputs: m.Capabilities.Supports.StructuredOutputs,
		ToolCalls:         m.Capabilities.Supports.ToolCalls,
		Vision:            m.Capabilities.Supports.Vision,
	}
}

// FindModel returns the first model whose id or name equals target.
func FindModel(models []Model, target string) (Model, bool) {
	for _, m := range models {
		if m.ID == target || m.Name == target {
			return m, true
		}
	}
	return Model{}, false
}

// SelectModel is FindModel for callers that want an error on a miss.
func SelectModel(models []Model, target string) (Model, error) {
	m, ok := FindModel(models, target)
	if !ok {
		return Model{}, fmt.Errorf("%w: %q", ErrModelUnavailable, target)
	}
	return m, nil
}

// ModelNames returns the ids and names of models, for suggestions.
func ModelNames(models []Model) []string {
	names := make([]string, 0, 2*len(models))
	for _, m := range models {
		names = append(names, m.ID)
		if m.Name != "" && m.Name != m.ID {
			names = append(names, m.Name)
		}
	}
	return names
}
