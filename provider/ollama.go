package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ollama/ollama/api"

	"q/config"
	"q/mcp"
	"q/model"
	"q/ollama"
)

// Ollama serves completions from a local Ollama server. Ollama streams its
// own NDJSON format, so responses are re-encoded as SSE records and flow
// through the same decoder as Copilot streams.
type Ollama struct {
	client *ollama.Client
}

func NewOllama(baseURL string, httpClient *http.Client) (*Ollama, error) {
	client, err := ollama.NewClient(baseURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return &Ollama{client: client}, nil
}

func (o *Ollama) Name() string {
	return config.BackendOllama
}

// ListModels reports every local model as a streaming chat model. Tool
// support comes from the known model families.
func (o *Ollama) ListModels(ctx context.Context) ([]model.Model, error) {
	infos, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]model.Model, 0, len(infos))
	for _, info := range infos {
		models = append(models, model.Model{
			ID:     info.Name,
			Name:   info.Name,
			Vendor: config.BackendOllama,
			Capabilities: model.ModelCapabilities{
				Type: "chat",
				Supports: model.ModelSupports{
					Streaming: true,
					ToolCalls: ollama.ModelSupportsToolCalling(info.Name),
				},
			},
		})
	}
	return models, nil
}

// Ping returns the Ollama server version.
func (o *Ollama) Ping(ctx context.Context) (string, error) {
	return o.client.Ping(ctx)
}

// SendCompletion starts the chat in the background and returns its SSE
// rendition. Upstream failures surface as read errors, as *APIError when
// the server answered with an error status. Closing the body
// cancels the request.
func (o *Ollama) SendCompletion(ctx context.Context, req model.CompletionRequest) (io.ReadCloser, error) {
	var tools []api.Tool
	if len(req.Tools) > 0 {
		if ollama.ModelSupportsToolCalling(req.Model) {
			tools = mcp.ConvertMCPToolsToOllama(req.Tools)
		} else {
			config.DebugLog.Debugf("[Ollama] Model %s does not support tools, skipping %d tools", req.Model, len(req.Tools))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	messages := ConvertToOllamaMessages(req.Messages)

	go func() {
		defer cancel()

		out := sseWriter{w: pw}
		nextIndex := 0
		err := o.client.Chat(ctx, req.Model, messages, tools, func(content string, calls []api.ToolCall) error {
			if content == "" && len(calls) == 0 {
				return nil
			}
			chunk, err := ollamaChunk(content, calls, &nextIndex)
			if err != nil {
				return err
			}
			return out.chunk(chunk)
		})
		if err == nil {
			err = out.done()
		} else {
			config.DebugLog.Debugf("[Ollama] Chat failed: %v", err)
			err = fmt.Errorf("ollama chat failed: %w", ollamaAPIError(err))
		}
		pw.CloseWithError(err)
	}()

	return &cancelReadCloser{ReadCloser: pr, cancel: cancel}, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	c.cancel()
	return c.ReadCloser.Close()
}
