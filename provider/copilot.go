package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"q/config"
	"q/mcp"
	"q/model"
)

const (
	DefaultGitHubURL  = "https://api.github.com/"
	DefaultCopilotURL = "https://api.business.githubcopilot.com/"

	copilotTemperature = 0.1
	copilotTopP        = 1
)

// Headers the Copilot API expects from an editor integration.
var (
	completionHeaders = map[string]string{
		"Copilot-Integration-Id":              "vscode-chat",
		"Editor-Plugin-Version":               "copilot-chat/0.27.2",
		"Editor-Version":                      "vscode/1.100.0",
		"Openai-Intent":                       "conversation-panel",
		"User-Agent":                          "GitHubCopilotChat/0.27.2",
		"X-Github-Api-Version":                "2025-05-01",
		"X-Interaction-Type":                  "conversation-panel",
		"X-Vscode-User-Agent-Library-Version": "electron-fetch",
	}
	modelsHeaders = map[string]string{
		"Editor-Version":                  "vscode/1.100.0",
		"Editor-Plugin-Version":           "copilot/1.323.0",
		"Copilot-Language-Server-Version": "1.323.0",
		"X-Github-Api-Version":            "2025-05-01",
		"User-Agent":                      "GithubCopilot/1.323.0",
		"Accept":                          "*/*",
	}
)

// TokenStore persists the exchanged Copilot token between runs.
type TokenStore interface {
	CachedCopilotToken() config.CopilotToken
	SaveCopilotToken(config.CopilotToken) error
}

// CopilotConfig configures a Copilot transport. Zero values fall back to
// the public endpoints and the keyring-backed GitHub token.
type CopilotConfig struct {
	GitHubURL   string
	CopilotURL  string
	Retries     int
	HTTPClient  *http.Client
	Tokens      TokenStore
	GitHubToken func() (string, error)
	Now         func() time.Time
}

// Copilot talks to the GitHub Copilot chat API. The GitHub OAuth token is
// exchanged for a short-lived Copilot token which is cached through the
// TokenStore until it expires.
type Copilot struct {
	github  openai.Client
	copilot openai.Client

	tokens      TokenStore
	githubToken func() (string, error)
	now         func() time.Time

	mu    sync.Mutex
	token config.CopilotToken
}

func NewCopilot(cfg CopilotConfig) *Copilot {
	if cfg.GitHubURL == "" {
		cfg.GitHubURL = DefaultGitHubURL
	}
	if cfg.CopilotURL == "" {
		cfg.CopilotURL = DefaultCopilotURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.GitHubToken == nil {
		cfg.GitHubToken = config.GitHubToken
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	common := []option.RequestOption{
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithMaxRetries(cfg.Retries),
	}

	c := &Copilot{
		github:      openai.NewClient(append(common, option.WithBaseURL(cfg.GitHubURL))...),
		copilot:     openai.NewClient(append(common, option.WithBaseURL(cfg.CopilotURL))...),
		tokens:      cfg.Tokens,
		githubToken: cfg.GitHubToken,
		now:         cfg.Now,
	}
	if c.tokens != nil {
		c.token = c.tokens.CachedCopilotToken()
	}
	return c
}

func (c *Copilot) Name() string {
	return config.BackendCopilot
}

type copilotTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// copilotToken returns a valid Copilot token, exchanging the GitHub token
// for a new one when the cached one has expired.
func (c *Copilot) copilotToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid(c.now()) {
		return c.token.Token, nil
	}

	githubToken, err := c.githubToken()
	if err != nil {
		return "", err
	}

	var resp copilotTokenResponse
	err = c.github.Get(ctx, "copilot_internal/v2/token", nil, &resp,
		option.WithHeader("Authorization", "Bearer "+githubToken),
		option.WithHeader("Accept", "application/json"),
	)
	if err != nil {
		return "", fmt.Errorf("failed to fetch token: %w", asAPIError(err))
	}
	if resp.Token == "" {
		return "", fmt.Errorf("failed to fetch token: empty token in response")
	}

	c.token = config.CopilotToken{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt * 1000,
	}
	config.DebugLog.Debugf("[Copilot] Refreshed token, expires %s", time.UnixMilli(c.token.ExpiresAt).Format(time.RFC3339))

	if c.tokens != nil {
		if err := c.tokens.SaveCopilotToken(c.token); err != nil {
			config.DebugLog.Debugf("[Copilot] Failed to cache token: %v", err)
		}
	}

	return c.token.Token, nil
}

// User returns the Copilot account information of the GitHub user.
func (c *Copilot) User(ctx context.Context) (map[string]any, error) {
	githubToken, err := c.githubToken()
	if err != nil {
		return nil, err
	}

	var user map[string]any
	err = c.github.Get(ctx, "copilot_internal/user", nil, &user,
		option.WithHeader("Authorization", "Bearer "+githubToken),
		option.WithHeader("Accept", "application/json"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", asAPIError(err))
	}
	return user, nil
}

type modelsResponse struct {
	Data []model.Model `json:"data"`
}

// ListModels returns the chat models available to the account.
func (c *Copilot) ListModels(ctx context.Context) ([]model.Model, error) {
	token, err := c.copilotToken(ctx)
	if err != nil {
		return nil, err
	}

	opts := headerOptions(modelsHeaders)
	opts = append(opts, option.WithHeader("Authorization", "Bearer "+token))

	var resp modelsResponse
	if err := c.copilot.Get(ctx, "models", nil, &resp, opts...); err != nil {
		return nil, fmt.Errorf("failed to fetch models: %w", asAPIError(err))
	}

	models := make([]model.Model, 0, len(resp.Data))
	for _, m := range resp.Data {
		if m.Capabilities.Type == "chat" {
			models = append(models, m)
		}
	}
	return models, nil
}

type completionBody struct {
	Messages    []model.Message                       `json:"messages"`
	Model       string                                `json:"model"`
	Temperature float64                               `json:"temperature"`
	TopP        float64                               `json:"top_p"`
	N           int                                   `json:"n"`
	Stream      bool                                  `json:"stream"`
	MaxTokens   int                                   `json:"max_tokens,omitempty"`
	Tools       []openai.ChatCompletionToolUnionParam `json:"tools,omitempty"`
}

func newCompletionBody(req model.CompletionRequest) completionBody {
	return completionBody{
		Messages:    req.Messages,
		Model:       req.Model,
		Temperature: copilotTemperature,
		TopP:        copilotTopP,
		N:           1,
		Stream:      true,
		MaxTokens:   req.MaxTokens,
		Tools:       mcp.ConvertMCPToolsToOpenAIFormat(req.Tools),
	}
}

// SendCompletion starts a streamed completion and returns the raw
// text/event-stream body.
func (c *Copilot) SendCompletion(ctx context.Context, req model.CompletionRequest) (io.ReadCloser, error) {
	token, err := c.copilotToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(newCompletionBody(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	initiator := req.Initiator
	if initiator == "" {
		initiator = model.InitiatorUser
	}

	opts := headerOptions(completionHeaders)
	opts = append(opts,
		option.WithHeader("Authorization", "Bearer "+token),
		option.WithHeader("Content-Type", "application/json"),
		option.WithHeader("X-Initiator", string(initiator)),
	)

	config.DebugLog.Debugf("[Copilot] Completion: model=%s messages=%d tools=%d initiator=%s",
		req.Model, len(req.Messages), len(req.Tools), initiator)

	var resp *http.Response
	if err := c.copilot.Post(ctx, "chat/completions", body, &resp, opts...); err != nil {
		return nil, fmt.Errorf("failed to fetch completions: %w", asAPIError(err))
	}

	return resp.Body, nil
}

func headerOptions(headers map[string]string) []option.RequestOption {
	opts := make([]option.RequestOption, 0, len(headers)+3)
	for k, v := range headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	return opts
}
