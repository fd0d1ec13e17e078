package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"q/auth"
	"q/config"
	"q/ui"
)

// userSource is a backend that can describe the signed-in account.
type userSource interface {
	User(ctx context.Context) (map[string]any, error)
}

// versionSource is a local backend that reports its server version.
type versionSource interface {
	Ping(ctx context.Context) (string, error)
}

// Replaced in tests.
var newDeviceFlow = auth.NewDeviceFlow

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with your GitHub account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return auth.Login(cmd.Context(), newDeviceFlow(), cmd.OutOrStdout(), config.SaveGitHubToken)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored GitHub token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DeleteGitHubToken(); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.SaveCopilotToken(config.CopilotToken{}); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:     "user",
	Aliases: []string{"u"},
	Short:   "View user info",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var user map[string]any
		switch source := s.transport.(type) {
		case userSource:
			user, err = source.User(cmd.Context())
		case versionSource:
			var version string
			version, err = source.Ping(cmd.Context())
			user = map[string]any{"backend": s.transport.Name(), "version": version}
		default:
			return fmt.Errorf("user info is not available for the %s backend", s.transport.Name())
		}
		if err != nil {
			return err
		}

		ui.RenderUser(cmd.OutOrStdout(), user)
		return nil
	},
}
