package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"q/chat"
	"q/server"
)

var (
	servePort  string
	serveAgent bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "3000", "the port to run the server on")
	serveCmd.Flags().BoolVarP(&serveAgent, "agent", "A", false, "offer MCP tools to the model in chat turns")
}

func serveRun(cmd *cobra.Command, args []string) error {
	if _, err := strconv.Atoi(servePort); err != nil {
		return errors.New("port must be a number")
	}

	ctx := cmd.Context()
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	addr := s.cfg.Server.Addr
	if cmd.Flags().Changed("port") || addr == "" {
		addr = ":" + servePort
	}

	var tools chat.ToolRegistry
	if serveAgent {
		set, err := loadTools(ctx, s.cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer set.Close()
		tools = set
	}

	srv := server.New(server.Options{
		Transport: s.transport,
		Store:     s.store,
		Tools:     tools,
		Settings:  s.cfg,
		MaxHops:   s.cfg.MaxToolHops,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Server running on %s\n", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Exiting...")
	return nil
}
