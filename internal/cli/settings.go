package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"pomodoro/internal/core/model"
	"pomodoro/internal/storage"
)

func newSettingsCommand(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and create the settings file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := storage.NewStore(app.options.SettingsPath)
			settings, err := store.Load()
			if err != nil {
				return err
			}
			data, err := store.Encode(settings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", store.Path())
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := storage.NewStore(app.options.SettingsPath)
			if _, err := os.Stat(store.Path()); err == nil && !force {
				return fmt.Errorf("settings file %s already exists (use --force to overwrite)", store.Path())
			}
			if err := store.Save(model.DefaultSettings()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", store.Path())
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Report every out-of-range value in the settings file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := storage.NewStore(app.options.SettingsPath)
			settings, err := store.Read()
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("settings file %s does not exist", store.Path())
			}
			if err != nil {
				return err
			}
			if err := settings.Validate(); err != nil {
				return fmt.Errorf("validate %s: %w", store.Path(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", store.Path())
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, validate)
	return cmd
}
