package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"q/config"
	"q/model"
	"q/ui"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		models, err := s.transport.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		ui.RenderModels(cmd.OutOrStdout(), models)
		return nil
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model <model>",
	Short: "Set the default model by id or name",
	Args:  cobra.ExactArgs(1),
	RunE:  setModelRun,
}

var modelCmd = &cobra.Command{
	Use:     "model",
	Aliases: []string{"m"},
	Short:   "View the current default model",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		m, err := cfg.CurrentModel()
		if errors.Is(err, config.ErrNoModel) {
			fmt.Fprintln(cmd.OutOrStdout(), "No default model set.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Current default model: %s (%s)\n", m.Name, m.ID)
		return nil
	},
}

func setModelRun(cmd *cobra.Command, args []string) error {
	target := args[0]

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	models, err := s.transport.ListModels(cmd.Context())
	if err != nil {
		return err
	}

	selected, err := model.SelectModel(models, target)
	if err != nil {
		if suggestions := ui.Suggest(target, model.ModelNames(models)); len(suggestions) > 0 {
			return fmt.Errorf("%w (did you mean: %s?)", err, strings.Join(suggestions, ", "))
		}
		return err
	}

	if err := s.cfg.SetModel(selected); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Default model set to: %s (%s)\n", selected.Name, selected.ID)
	return nil
}
