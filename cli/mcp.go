package cli

import (
	"github.com/spf13/cobra"

	"q/mcp"
	"q/ui"
)

var mcpServersTools bool

var mcpServersCmd = &cobra.Command{
	Use:   "mcp-servers",
	Short: "List the configured MCP servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if !mcpServersTools {
			ui.RenderServers(cmd.OutOrStdout(), mcp.ConfiguredServers(cfg.MCP), false)
			return nil
		}

		set, err := loadTools(cmd.Context(), cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer set.Close()

		ui.RenderServers(cmd.OutOrStdout(), set.Infos(), true)
		return nil
	},
}

func init() {
	mcpServersCmd.Flags().BoolVar(&mcpServersTools, "tools", false, "connect to each server and list its tools")
}
