package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"q/chat"
	"q/config"
	"q/model"
	"q/prompts"
	"q/ui"
)

type chatOptions struct {
	agent       bool
	prompt      string
	promptFile  string
	interactive bool
	chatID      string
	resume      bool
}

var chatFlags chatOptions

var chatCmd = &cobra.Command{
	Use:     "chat [input]",
	Aliases: []string{"c"},
	Short:   "Start a new chat",
	Long: `Start a new chat, or continue one with --chat or --continue.

Without an input argument the message is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var input string
		if len(args) > 0 {
			input = args[0]
		}
		return runChat(cmd, input, chatFlags)
	},
}

func init() {
	chatCmd.Flags().BoolVarP(&chatFlags.agent, "agent", "A", false, "use agent mode (offer MCP tools to the model)")
	chatCmd.Flags().StringVarP(&chatFlags.prompt, "prompt", "p", "", "the system prompt to use for the chat")
	chatCmd.Flags().StringVarP(&chatFlags.promptFile, "prompt-file", "f", "", "the prompt file to use from the prompt directory")
	chatCmd.Flags().BoolVarP(&chatFlags.interactive, "interactive", "i", false, "keep chatting after the first reply")
	chatCmd.Flags().StringVarP(&chatFlags.chatID, "chat", "c", "", "continue the chat with this id")
	chatCmd.Flags().BoolVar(&chatFlags.resume, "continue", false, "continue the most recent chat")
	chatCmd.MarkFlagsMutuallyExclusive("prompt", "prompt-file")
	chatCmd.MarkFlagsMutuallyExclusive("chat", "continue")
}

// chatLoop runs turns on one chat and remembers the last reply for /copy.
type chatLoop struct {
	controller *chat.Controller
	chatID     string
	tools      []mcptypes.Tool
	out        io.Writer
	errOut     io.Writer
	lastReply  string
}

func runChat(cmd *cobra.Command, input string, opts chatOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := s.currentModel()
	if err != nil {
		return err
	}

	chatID, err := resolveChat(ctx, s, opts)
	if err != nil {
		return err
	}

	reader := newInputReader(cmd.InOrStdin(), out)
	if input == "" {
		input, err = reader.Next()
		if errors.Is(err, ui.ErrExit) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	loop := &chatLoop{out: out, errOut: errOut}

	var registry chat.ToolRegistry
	if opts.agent {
		set, err := loadTools(ctx, s.cfg, errOut)
		if err != nil {
			return err
		}
		defer set.Close()

		loop.tools, err = set.ListTools(ctx)
		if err != nil {
			return err
		}
		registry = set
	}

	if chatID == "" {
		prompt, err := systemPrompt(s.cfg, opts)
		if err != nil {
			return err
		}
		chatID, err = s.store.Create(ctx, model.NewChatData(prompt))
		if err != nil {
			return err
		}
	}

	loop.chatID = chatID
	loop.controller = chat.NewController(s.transport, s.store, registry, m)
	loop.controller.MaxHops = s.cfg.MaxToolHops

	if err := loop.turn(ctx, input); err != nil {
		return err
	}
	if !opts.interactive {
		return nil
	}

	for {
		fmt.Fprintln(out)
		line, err := reader.Next()
		if errors.Is(err, ui.ErrExit) {
			return nil
		}
		if err != nil {
			return err
		}

		if line == "/copy" {
			loop.copyReply()
			continue
		}
		if err := loop.turn(ctx, line); err != nil {
			return err
		}
	}
}

// resolveChat returns the id of the chat to continue, or "" for a new one.
func resolveChat(ctx context.Context, s *session, opts chatOptions) (string, error) {
	switch {
	case opts.chatID != "":
		c, err := s.store.Get(ctx, opts.chatID)
		if err != nil {
			return "", err
		}
		return c.ID, nil
	case opts.resume:
		c, err := s.store.Latest(ctx)
		if err != nil {
			return "", err
		}
		return c.ID, nil
	}
	return "", nil
}

// systemPrompt picks the prompt of a new chat: --prompt, then
// --prompt-file, then the configured default prompt file.
func systemPrompt(cfg *config.Config, opts chatOptions) (string, error) {
	switch {
	case opts.prompt != "":
		return opts.prompt, nil
	case opts.promptFile != "":
		return loadPromptFile(cfg, opts.promptFile)
	case cfg.DefaultPrompt != "" && cfg.PromptDirectory != "":
		prompt, err := loadPromptFile(cfg, cfg.DefaultPrompt)
		if err == nil {
			return prompt, nil
		}
		config.DebugLog.Debugf("[CLI] Default prompt unusable, falling back: %v", err)
	}
	return prompts.DefaultCLI, nil
}

func loadPromptFile(cfg *config.Config, name string) (string, error) {
	prompt, err := prompts.Load(cfg.PromptDir(), name)
	switch {
	case errors.Is(err, prompts.ErrNoDirectory):
		return "", errNoPromptDir
	case errors.Is(err, prompts.ErrNotFound):
		return "", fmt.Errorf("prompt file %q not found", name)
	}
	return prompt, err
}

func (l *chatLoop) turn(ctx context.Context, input string) error {
	printer := ui.NewStreamPrinter(l.out)
	state, err := l.controller.RunTurn(ctx, l.chatID, &input, l.tools, printer.Observe)
	printer.Finish()

	for _, toolErr := range state.ToolErrors {
		fmt.Fprintln(l.errOut, ui.ErrorStyle.Render("Warning: "+toolErr.Error()))
	}

	if err != nil {
		return err
	}

	l.lastReply = state.Reply
	return nil
}

func (l *chatLoop) copyReply() {
	if err := ui.CopyToClipboard(l.lastReply); err != nil {
		fmt.Fprintln(l.errOut, ui.ErrorStyle.Render("Warning: "+err.Error()))
		return
	}
	fmt.Fprintln(l.out, ui.DimStyle.Render("Copied to clipboard."))
}
