package keyoverlay

import (
	"fmt"
	"slices"

	"github.com/dasdy/keyoverlay/config"
	"github.com/dasdy/keyoverlay/render"
	"github.com/spf13/cobra"
)

// themesCmd represents the themes command.
var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the themes in the theme file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		themes, err := config.LoadThemes(themesPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		if len(themes) == 0 {
			fmt.Fprintf(out, "No themes in %s\n", themesPath)

			return nil
		}

		for _, id := range themes.IDs() {
			fmt.Fprintf(out, "%s\n", id)

			for _, role := range config.ColorRoles {
				v, ok := themes[id].Colors[role]
				if !ok {
					continue
				}

				note := ""
				if _, valid := render.ParseColor(v); !valid {
					note = " (invalid)"
				}

				fmt.Fprintf(out, "  %-20s %s%s\n", role, v, note)
			}

			for role := range themes[id].Colors {
				if !slices.Contains(config.ColorRoles, role) {
					fmt.Fprintf(out, "  %-20s ignored\n", role)
				}
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(themesCmd)
}
