package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"q/config"
	"q/prompts"
	"q/ui"
)

var errNoPromptDir = errors.New("no prompt directory configured, set one with `q set-prompt-dir <directory>`")

var setPromptDirCmd = &cobra.Command{
	Use:   "set-prompt-dir <directory>",
	Short: "Set the prompt directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if info, err := os.Stat(config.ExpandPath(dir)); err != nil || !info.IsDir() {
			return fmt.Errorf("directory %q does not exist", dir)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.SetPromptDirectory(dir); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Prompt directory set to: %s\n", cfg.PromptDirectory)
		return nil
	},
}

var promptDirCmd = &cobra.Command{
	Use:   "prompt-dir",
	Short: "View the current prompt directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.PromptDirectory == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No prompt directory set.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Current prompt directory: %s\n", cfg.PromptDirectory)
		return nil
	},
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the available prompts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		list, err := prompts.List(cfg.PromptDir())
		if errors.Is(err, prompts.ErrNoDirectory) {
			return errNoPromptDir
		}
		if err != nil {
			return err
		}

		ui.RenderPrompts(cmd.OutOrStdout(), list)
		return nil
	},
}
