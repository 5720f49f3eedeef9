package keyoverlay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dasdy/keyoverlay/config"
	"github.com/dasdy/keyoverlay/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ctx = logging.PackageCtx("cmd")

var (
	cfgFile     string
	overlayPath string
	themesPath  string
	logFile     string
	verbose     bool

	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands.
// Without a subcommand it behaves like run.
var rootCmd = &cobra.Command{
	Use:   "keyoverlay",
	Short: "On-screen keyboard that highlights what you type",
	Long: `keyoverlay shows a translucent keyboard on top of other windows and
lights up keys as you press them. It follows the active input language
(English or Russian), dims itself when you stop typing and can count your
presses into a SQLite database.`,
	PersistentPreRun:  setup,
	PersistentPostRun: teardown,
	RunE:              runOverlay,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "CLI defaults file (default is $HOME/.keyoverlay.toml)")
	flags.StringVar(&overlayPath, "overlay-config", config.ResolvePath(config.DefaultFileName),
		"Overlay settings document")
	flags.StringVar(&themesPath, "themes", config.ResolvePath(config.DefaultThemesFileName),
		"Theme file (.json, .toml or .yaml)")
	flags.StringVar(&logFile, "log-file", config.ResolvePath(config.DefaultLogFileName),
		"Append logs to this file as well, empty to disable")
	flags.BoolVarP(&verbose, "verbose", "v", false, "If provided, debug output will be shown")

	addRunFlags(rootCmd.Flags())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".keyoverlay" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("toml")
		viper.SetConfigName(".keyoverlay")
	}

	viper.SetEnvPrefix("keyoverlay")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}
	}
}

func setup(cmd *cobra.Command, args []string) {
	bindFlags(cmd, args)

	logCloser = logging.Setup(logFile, verbose)

	if used := viper.ConfigFileUsed(); used != "" {
		slog.DebugContext(ctx, "CLI defaults loaded", "path", used)
	}
}

func teardown(_ *cobra.Command, _ []string) {
	if logCloser != nil {
		logCloser.Close()
	}
}

// set values to the PFlag variables from config, if they are set. Priority is still given to explicitly provided CLI flags.
func bindFlags(cmd *cobra.Command, _ []string) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Since viper does case-insensitive comparisons, we only need to remove the hyphens.
		configName := strings.ReplaceAll(f.Name, "-", "")

		if f.Changed || !viper.IsSet(configName) {
			return
		}

		val := viper.Get(configName)

		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if err := sv.Replace(viper.GetStringSlice(configName)); err != nil {
				cobra.CheckErr(fmt.Errorf("flag %s from config: %w", f.Name, err))
			}

			return
		}

		if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
			cobra.CheckErr(fmt.Errorf("flag %s from config: %w", f.Name, err))
		}
	})
}
