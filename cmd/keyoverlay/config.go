package keyoverlay

import (
	"errors"
	"fmt"
	"os"

	"github.com/dasdy/keyoverlay/config"
	"github.com/spf13/cobra"
)

var initSettings bool

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective overlay settings",
	Long: `Prints the settings the overlay would start with, after defaults and
sanitizing are applied. With --init a settings file holding the defaults is
written when none exists yet.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if initSettings {
			if _, err := os.Stat(overlayPath); err == nil {
				return fmt.Errorf("settings file %s already exists", overlayPath)
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("check %s: %w", overlayPath, err)
			}

			if err := config.Save(overlayPath, config.Default()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote defaults to %s\n", overlayPath)

			return nil
		}

		data, err := config.Marshal(config.Load(overlayPath), nil)
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(data)

		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().BoolVar(&initSettings, "init", false,
		"Write a settings file with the defaults")
}
