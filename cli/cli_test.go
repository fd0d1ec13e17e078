package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"q/auth"
	"q/config"
	"q/mcp"
	"q/model"
	"q/prompts"
	"q/provider/testutil"
	"q/storage"
)

type testCLI struct {
	dir       string
	transport *testutil.MockTransport
}

// newTestCLI points config and data at a temp dir and serves completions
// from bodies.
func newTestCLI(t *testing.T, bodies ...string) *testCLI {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("Q_CONFIG_DIR", filepath.Join(dir, "config"))
	t.Setenv("Q_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("Q_MODEL", "")
	t.Setenv("Q_BACKEND", "")
	t.Setenv("Q_OLLAMA_HOST", "")
	t.Setenv("Q_GITHUB_TOKEN", "")
	t.Setenv("Q_DEBUG", "")
	t.Chdir(dir)
	keyring.MockInit()

	c := &testCLI{dir: dir, transport: testutil.NewMockTransport(bodies...)}

	origTransport, origTools, origFlow := newTransport, connectTools, newDeviceFlow
	newTransport = func(*config.Config) (model.Transport, error) { return c.transport, nil }
	t.Cleanup(func() {
		newTransport, connectTools, newDeviceFlow = origTransport, origTools, origFlow
	})
	return c
}

// resetCommand clears flag values and the context cobra keeps on each
// command between executions.
func resetCommand(ctx context.Context, cmd *cobra.Command) {
	cmd.SetContext(ctx)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetCommand(ctx, sub)
	}
}

func executeContext(ctx context.Context, stdin string, args ...string) (string, string, error) {
	resetCommand(ctx, rootCmd)
	if args == nil {
		args = []string{}
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func execute(stdin string, args ...string) (string, string, error) {
	return executeContext(context.Background(), stdin, args...)
}

func (c *testCLI) setModel(t *testing.T) {
	t.Helper()
	_, _, err := execute("", "set-model", "gpt-4.1")
	require.NoError(t, err)
}

func (c *testCLI) chats(t *testing.T) []model.ChatSummary {
	t.Helper()
	store, err := storage.New(filepath.Join(c.dir, "data"))
	require.NoError(t, err)
	defer store.Close()

	summaries, err := store.List(context.Background())
	require.NoError(t, err)
	return summaries
}

func (c *testCLI) messages(t *testing.T, id string) []model.Message {
	t.Helper()
	store, err := storage.New(filepath.Join(c.dir, "data"))
	require.NoError(t, err)
	defer store.Close()

	chat, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return chat.Data.Messages
}

type fakeTools struct {
	*testutil.MockToolRegistry
	closed bool
}

func (f *fakeTools) Infos() []mcp.ServerInfo {
	return []mcp.ServerInfo{{
		Name:   "weather",
		Type:   config.MCPTransportHTTP,
		Target: "http://weather.test/mcp",
		Tools:  []string{"get_weather", "calculate"},
	}}
}

func (f *fakeTools) Close() error {
	f.closed = true
	return nil
}

func TestModelCommands(t *testing.T) {
	newTestCLI(t)

	out, _, err := execute("", "model")
	require.NoError(t, err)
	assert.Equal(t, "No default model set.\n", out)

	out, _, err = execute("", "set-model", "Claude Sonnet 4")
	require.NoError(t, err)
	assert.Equal(t, "Default model set to: Claude Sonnet 4 (claude-sonnet-4)\n", out)

	out, _, err = execute("", "m")
	require.NoError(t, err)
	assert.Equal(t, "Current default model: Claude Sonnet 4 (claude-sonnet-4)\n", out)

	out, _, err = execute("", "models")
	require.NoError(t, err)
	assert.Contains(t, out, "gpt-4.1")
	assert.Contains(t, out, "claude-sonnet-4")
}

func TestSetModelSuggests(t *testing.T) {
	newTestCLI(t)

	_, _, err := execute("", "set-model", "gpt4")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "did you mean:")
	assert.Contains(t, err.Error(), "gpt-4.1")

	out, _, err := execute("", "model")
	require.NoError(t, err)
	assert.Equal(t, "No default model set.\n", out)
}

func TestChatSingleTurn(t *testing.T) {
	c := newTestCLI(t, testutil.ContentStream("Hi", " there"))
	c.setModel(t)

	out, _, err := execute("", "chat", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there\n", out)

	summaries := c.chats(t)
	require.Len(t, summaries, 1)
	assert.Equal(t, "hello", summaries[0].Message)
	assert.Equal(t, 3, summaries[0].ChatLength)

	requests := c.transport.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "gpt-4.1", requests[0].Model)
	assert.Equal(t, prompts.DefaultCLI, requests[0].Messages[0].Content)
	assert.Empty(t, requests[0].Tools)
}

func TestChatReadsStdin(t *testing.T) {
	c := newTestCLI(t, testutil.ContentStream("ok"))
	c.setModel(t)

	_, _, err := execute("from stdin\n", "c")
	require.NoError(t, err)

	requests := c.transport.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "from stdin", requests[0].Messages[1].Content)
}

func TestChatEmptyStdinExits(t *testing.T) {
	c := newTestCLI(t)
	c.setModel(t)

	_, _, err := execute("", "chat")
	require.NoError(t, err)
	assert.Empty(t, c.transport.Requests())
	assert.Empty(t, c.chats(t))
}

func TestRootRunsChatWithPipedInput(t *testing.T) {
	c := newTestCLI(t, testutil.ContentStream("piped reply"))
	c.setModel(t)

	out, _, err := execute("  explain this diff  \n")
	require.NoError(t, err)
	assert.Contains(t, out, "piped reply")

	requests := c.transport.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "explain this diff", requests[0].Messages[1].Content)
}

func TestChatRequiresModel(t *testing.T) {
	newTestCLI(t)

	_, _, err := execute("", "chat", "hello")
	assert.ErrorIs(t, err, config.ErrNoModel)
}

func TestChatInteractive(t *testing.T) {
	c := newTestCLI(t, testutil.ContentStream("one"), testutil.ContentStream("two"))
	c.setModel(t)

	out, _, err := execute("second\nexit\n", "chat", "-i", "first")
	require.NoError(t, err)
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")

	summaries := c.chats(t)
	require.Len(t, summaries, 1)
	assert.Equal(t, 5, summaries[0].ChatLength)

	requests := c.transport.Requests()
	require.Len(t, requests, 2)
	assert.Len(t, requests[1].Messages, 4)
}

func TestChatContinue(t *testing.T) {
	c := newTestCLI(t, testutil.ContentStream("one"), testutil.ContentStream("two"), testutil.ContentStream("three"))
	c.setModel(t)

	_, _, err := execute("", "chat", "first")
	require.NoError(t, err)
	id := c.chats(t)[0].ID

	_, _, err = execute("", "chat", "--continue", "second")
	require.NoError(t, err)

	_, _, err = execute("", "chat", "--chat", id, "third")
	require.NoError(t, err)

	require.Len(t, c.chats(t), 1)
	messages := c.messages(t, id)
	require.Len(t, messages, 7)
	assert.Equal(t, "three", messages[6].Content)

	_, _, err = execute("", "chat", "--chat", "missing", "hi")
	assert.ErrorIs(t, err, storage.ErrChatNotFound)
}

func TestChatPrompts(t *testing.T) {
	c := newTestCLI(t, testutil.ContentStream("ok"), testutil.ContentStream("ok"))
	c.setModel(t)

	_, _, err := execute("", "chat", "-f", "reviewer", "hi")
	assert.ErrorIs(t, err, errNoPromptDir)

	promptDir := filepath.Join(c.dir, "prompts")
	require.NoError(t, os.MkdirAll(promptDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(promptDir, "reviewer.md"), []byte("You review code.\n"), 0600))
	_, _, err = execute("", "set-prompt-dir", promptDir)
	require.NoError(t, err)

	_, _, err = execute("", "chat", "-f", "missing", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `prompt file "missing" not found`)

	_, _, err = execute("", "chat", "-f", "reviewer", "hi")
	require.NoError(t, err)
	_, _, err = execute("", "chat", "-p", "Answer in French.", "hi")
	require.NoError(t, err)

	requests := c.transport.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "You review code.", requests[0].Messages[0].Content)
	assert.Equal(t, "Answer in French.", requests[1].Messages[0].Content)
}

func TestChatAgentMode(t *testing.T) {
	c := newTestCLI(t,
		testutil.ToolCallStream(testutil.ToolCallFixture{ID: "call_1", Name: "get_weather", Arguments: `{"location":"Paris"}`}),
		testutil.ContentStream("Sunny"),
	)
	c.setModel(t)

	tools := &fakeTools{MockToolRegistry: testutil.NewMockToolRegistry()}
	connectTools = func(context.Context, config.MCPConfig) (toolSet, error) { return tools, nil }

	out, _, err := execute("", "chat", "-A", "weather in Paris?")
	require.NoError(t, err)
	assert.Contains(t, out, "calling get_weather")
	assert.Contains(t, out, "Sunny")
	assert.True(t, tools.closed)

	requests := c.transport.Requests()
	require.Len(t, requests, 2)
	assert.Len(t, requests[0].Tools, 2)

	summaries := c.chats(t)
	require.Len(t, summaries, 1)
	messages := c.messages(t, summaries[0].ID)
	require.Len(t, messages, 5)
	assert.Equal(t, "get_weather ok", messages[3].Content)
	assert.Equal(t, "call_1", messages[3].ToolCallID)
}

func TestChatsCommands(t *testing.T) {
	c := newTestCLI(t, testutil.ContentStream("Hi there"))
	c.setModel(t)

	out, _, err := execute("", "chats")
	require.NoError(t, err)
	assert.Equal(t, "No chats found.\n", out)

	_, _, err = execute("", "chat", "hello world")
	require.NoError(t, err)
	id := c.chats(t)[0].ID

	out, _, err = execute("", "chats")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "hello world")

	out, _, err = execute("", "chats", "--raw", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Chat History ("+id+")")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "Hi there")

	out, _, err = execute("", "chats", "-s", "WORLD")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	exportPath := filepath.Join(c.dir, "export", "chat.json")
	out, _, err = execute("", "chats", "-e", id, "-o", exportPath)
	require.NoError(t, err)
	assert.Equal(t, "Chat exported to: "+exportPath+"\n", out)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var exported model.Chat
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Equal(t, id, exported.ID)
	assert.Len(t, exported.Data.Messages, 3)

	out, _, err = execute("", "chats", "-D", id)
	require.NoError(t, err)
	assert.Equal(t, "Chat "+id+" deleted.\n", out)
	assert.Empty(t, c.chats(t))

	_, _, err = execute("", "chats", "-D", id)
	assert.ErrorIs(t, err, storage.ErrChatNotFound)
}

func TestPromptDirCommands(t *testing.T) {
	c := newTestCLI(t)

	out, _, err := execute("", "prompt-dir")
	require.NoError(t, err)
	assert.Equal(t, "No prompt directory set.\n", out)

	_, _, err = execute("", "prompts")
	assert.ErrorIs(t, err, errNoPromptDir)

	missing := filepath.Join(c.dir, "missing")
	_, _, err = execute("", "set-prompt-dir", missing)
	require.Error(t, err)
	assert.Equal(t, `directory "`+missing+`" does not exist`, err.Error())

	promptDir := filepath.Join(c.dir, "prompts")
	require.NoError(t, os.MkdirAll(promptDir, 0700))

	out, _, err = execute("", "set-prompt-dir", promptDir)
	require.NoError(t, err)
	assert.Equal(t, "Prompt directory set to: "+promptDir+"\n", out)

	out, _, err = execute("", "prompts")
	require.NoError(t, err)
	assert.Equal(t, "No prompts found in the directory.\n", out)

	require.NoError(t, os.WriteFile(filepath.Join(promptDir, "reviewer.md"), []byte("Review."), 0600))
	out, _, err = execute("", "prompts")
	require.NoError(t, err)
	assert.Contains(t, out, "reviewer")

	out, _, err = execute("", "prompt-dir")
	require.NoError(t, err)
	assert.Equal(t, "Current prompt directory: "+promptDir+"\n", out)
}

func TestMCPServersCommand(t *testing.T) {
	newTestCLI(t)

	out, _, err := execute("", "mcp-servers")
	require.NoError(t, err)
	assert.Equal(t, "No MCP servers configured.\n", out)

	tools := &fakeTools{MockToolRegistry: testutil.NewMockToolRegistry()}
	connectTools = func(context.Context, config.MCPConfig) (toolSet, error) { return tools, nil }

	out, _, err = execute("", "mcp-servers", "--tools")
	require.NoError(t, err)
	assert.Contains(t, out, "weather")
	assert.Contains(t, out, "get_weather, calculate")
	assert.True(t, tools.closed)
}

type userTransport struct {
	*testutil.MockTransport
}

func (userTransport) User(context.Context) (map[string]any, error) {
	return map[string]any{"login": "octocat", "copilot_plan": "business"}, nil
}

type versionTransport struct {
	*testutil.MockTransport
}

func (versionTransport) Ping(context.Context) (string, error) {
	return "0.12.6", nil
}

func TestUserCommand(t *testing.T) {
	c := newTestCLI(t)

	_, _, err := execute("", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available for the mock backend")

	newTransport = func(*config.Config) (model.Transport, error) {
		return userTransport{MockTransport: c.transport}, nil
	}
	out, _, err := execute("", "u")
	require.NoError(t, err)
	assert.Contains(t, out, "octocat")
	assert.Contains(t, out, "copilot_plan")

	newTransport = func(*config.Config) (model.Transport, error) {
		return versionTransport{MockTransport: c.transport}, nil
	}
	out, _, err = execute("", "user")
	require.NoError(t, err)
	assert.Contains(t, out, "0.12.6")
	assert.Contains(t, out, "mock")
}

func TestLoginLogout(t *testing.T) {
	newTestCLI(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/device/code", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(auth.DeviceCode{
			DeviceCode:      "dev-123",
			UserCode:        "ABCD-1234",
			VerificationURI: "https://github.com/login/device",
			ExpiresIn:       60,
			Interval:        5,
		})
	})
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"gho_new","token_type":"bearer","scope":"read:user"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	newDeviceFlow = func() *auth.DeviceFlow {
		flow := auth.NewDeviceFlow()
		flow.BaseURL = srv.URL
		flow.HTTPClient = srv.Client()
		flow.Interval = 10 * time.Millisecond
		return flow
	}

	out, _, err := execute("", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Your User Code is: ABCD-1234")
	assert.Contains(t, out, "Access granted. Token received.")

	token, err := config.GitHubToken()
	require.NoError(t, err)
	assert.Equal(t, "gho_new", token)

	out, _, err = execute("", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out.\n", out)

	_, err = config.GitHubToken()
	assert.ErrorIs(t, err, config.ErrNotAuthenticated)
}

func TestServe(t *testing.T) {
	newTestCLI(t)

	_, _, err := execute("", "serve", "-p", "abc")
	require.Error(t, err)
	assert.Equal(t, "port must be a number", err.Error())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	out, _, err := executeContext(ctx, "", "serve", "--port", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Server running on :0")
	assert.Contains(t, out, "Exiting...")
}
