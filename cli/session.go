package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"go.uber.org/multierr"

	"q/chat"
	"q/config"
	"q/mcp"
	"q/model"
	"q/provider"
	"q/storage"
	"q/ui"
)

// toolSet is a connected set of MCP servers.
type toolSet interface {
	chat.ToolRegistry
	Infos() []mcp.ServerInfo
	Close() error
}

// Replaced in tests.
var (
	loadConfig   = config.Load
	newTransport = provider.NewTransport
	connectTools = func(ctx context.Context, cfg config.MCPConfig) (toolSet, error) {
		return mcp.Load(ctx, cfg)
	}
)

// session holds what a command works with: the loaded config, the
// completion backend and the chat database.
type session struct {
	cfg       *config.Config
	transport model.Transport
	store     *storage.ChatStore
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	config.InitDebugLog(cfg.DataDir())

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg.DataDir())
	if err != nil {
		return nil, err
	}

	config.DebugLog.Debugf("[CLI] Session: backend=%s data=%s", transport.Name(), cfg.DataDir())
	return &session{cfg: cfg, transport: transport, store: store}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// currentModel returns the default model with a hint when none is set.
func (s *session) currentModel() (model.Model, error) {
	m, err := s.cfg.CurrentModel()
	if errors.Is(err, config.ErrNoModel) {
		return m, fmt.Errorf("%w: pick one with `q set-model <model>`", err)
	}
	return m, err
}

// loadTools connects the configured MCP servers. Servers that fail to
// connect are reported on errOut and skipped.
func loadTools(ctx context.Context, cfg *config.Config, errOut io.Writer) (toolSet, error) {
	set, err := connectTools(ctx, cfg.MCP)
	if set == nil {
		return nil, err
	}
	for _, e := range multierr.Errors(err) {
		fmt.Fprintln(errOut, ui.ErrorStyle.Render("Warning: "+e.Error()))
	}
	return set, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func terminalWidth(w io.Writer) int {
	const fallback = 80
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(f.Fd())
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// inputReader reads chat input: through the interactive prompt on a
// terminal, line by line otherwise.
type inputReader struct {
	in    io.Reader
	out   io.Writer
	lines *bufio.Reader
}

func newInputReader(in io.Reader, out io.Writer) *inputReader {
	r := &inputReader{in: in, out: out}
	if !isTerminal(in) {
		r.lines = bufio.NewReader(in)
	}
	return r
}

// Next returns the next message, or ui.ErrExit on a blank line, an exit
// word or the end of input.
func (r *inputReader) Next() (string, error) {
	if r.lines == nil {
		return ui.Prompt(r.in, r.out, "Send a message (exit to quit)")
	}

	line, err := r.lines.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if ui.IsExit(line) {
		return "", ui.ErrExit
	}
	return strings.TrimSpace(line), nil
}
