package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"q/storage"
	"q/ui"
)

var (
	chatsDelete string
	chatsSearch string
	chatsExport string
	chatsOutput string
	chatsRaw    bool
)

var chatsCmd = &cobra.Command{
	Use:   "chats [id]",
	Short: "List the chats, or print one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  chatsRun,
}

func init() {
	chatsCmd.Flags().StringVarP(&chatsDelete, "delete", "D", "", "delete a chat by ID")
	chatsCmd.Flags().StringVarP(&chatsSearch, "search", "s", "", "search the messages of every chat")
	chatsCmd.Flags().StringVarP(&chatsExport, "export", "e", "", "export a chat by ID as JSON")
	chatsCmd.Flags().StringVarP(&chatsOutput, "output", "o", "", "export destination (default ~/Downloads)")
	chatsCmd.Flags().BoolVar(&chatsRaw, "raw", false, "print replies without Markdown rendering")
	chatsCmd.MarkFlagsMutuallyExclusive("delete", "search", "export")
}

func chatsRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	switch {
	case chatsDelete != "":
		if err := s.store.Delete(ctx, chatsDelete); err != nil {
			return err
		}
		fmt.Fprintf(out, "Chat %s deleted.\n", chatsDelete)
		return nil

	case chatsSearch != "":
		matches, err := s.store.Search(ctx, chatsSearch)
		if err != nil {
			return err
		}
		ui.RenderMatches(out, matches)
		return nil

	case chatsExport != "":
		path := chatsOutput
		if path == "" {
			path = storage.GenerateExportPath(chatsExport, time.Now())
		}
		if err := s.store.ExportJSON(ctx, chatsExport, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Chat exported to: %s\n", path)
		return nil

	case len(args) == 1:
		c, err := s.store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		ui.PrintHistory(out, c, ui.HistoryOptions{Markdown: !chatsRaw, Width: terminalWidth(out)})
		return nil
	}

	summaries, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	ui.RenderChats(out, summaries)
	return nil
}
