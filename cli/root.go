// Package cli implements the q commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"q/config"
	"q/ui"
)

var rootCmd = &cobra.Command{
	Use:   "q",
	Short: "A CLI for interacting with AI models and managing chats",
	Long: `q chats with GitHub Copilot (or a local Ollama) from the terminal.

Piping text into q starts a chat with it:

  git diff | q`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         rootRun,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(setModelCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(setPromptDirCmd)
	rootCmd.AddCommand(promptDirCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(mcpServersCmd)
	rootCmd.AddCommand(serveCmd)
}

// rootRun chats with piped stdin, or prints the help.
func rootRun(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if isTerminal(in) {
		return cmd.Help()
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	input := strings.TrimSpace(string(data))
	if input == "" {
		return cmd.Help()
	}
	return runChat(cmd, input, chatOptions{})
}

// SetVersion sets the version printed by --version.
func SetVersion(version string) {
	rootCmd.Version = version
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer config.SyncDebugLog()

	rootCmd.SilenceErrors = true
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}
