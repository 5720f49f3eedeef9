package keyoverlay

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dasdy/keyoverlay/db"
	"github.com/dasdy/keyoverlay/keylog"
	"github.com/dasdy/keyoverlay/layout"
	"github.com/dasdy/keyoverlay/overlay"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	inputAuto     = "auto"
	inputStdin    = "stdin"
	inputZMK      = "zmk"
	inputZMKStdin = "zmk-stdin"
)

var (
	input        string
	zmkPorts     []string
	zmkRowOrigin int
	zmkColOrigin int
	zmkInfo      string
	statsPath    string
	noHotkey     bool
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Show the keyboard overlay",
	Long: `Starts the overlay window, the tray icon and the key listener.
--input picks where presses come from: auto (OS keyboard hook), stdin
(typed characters), zmk (ZMK keyboards' debug console over serial) or
zmk-stdin (ZMK console logs piped into stdin).`,
	RunE: runOverlay,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd.Flags())
}

func addRunFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&input, "input", "i", inputAuto,
		"Where key presses come from: auto, stdin, zmk or zmk-stdin")
	flags.StringSliceVarP(&zmkPorts, "zmk-port", "f", []string{},
		"Serial ports of a ZMK keyboard, discovered automatically when empty")
	flags.IntVar(&zmkRowOrigin, "zmk-row-origin", 0,
		"Matrix row that maps onto the number row")
	flags.IntVar(&zmkColOrigin, "zmk-col-origin", 0,
		"Matrix column that maps onto the first key of a row")
	flags.StringVar(&zmkInfo, "zmk-info", "",
		"ZMK info.json used to map the matrix onto rows by physical key position")
	flags.StringVarP(&statsPath, "stats", "o", "",
		"Count presses into this SQLite file, empty to disable")
	flags.BoolVar(&noHotkey, "no-hotkey", false,
		"Do not register the Ctrl+Shift+K visibility hotkey")
}

func runOverlay(_ *cobra.Command, _ []string) error {
	sources, err := buildSources(input)
	if err != nil {
		return err
	}

	opts := overlay.Options{
		ConfigPath: overlayPath,
		ThemesPath: themesPath,
		Sources:    sources,
		Queue:      keylog.NewQueue(keylog.DefaultQueueSize),
		Hotkey:     !noHotkey,
		Verbose:    verbose,
	}

	if statsPath != "" {
		storage, err := db.NewStorageFromPath(statsPath)
		if err != nil {
			return err
		}

		slog.InfoContext(ctx, "counting presses", "path", statsPath)

		opts.Storage = storage
		opts.Tracker = db.NewNeighborCounter()
	}

	return overlay.Run(opts)
}

func buildSources(kind string) ([]keylog.Source, error) {
	switch kind {
	case inputAuto:
		sources := []keylog.Source{keylog.NewPlatformSource()}
		if len(zmkPorts) > 0 {
			src, err := newZMKSource()
			if err != nil {
				return nil, err
			}

			sources = append(sources, src)
		}

		return sources, nil
	case inputStdin:
		return []keylog.Source{keylog.NewReaderSource(os.Stdin)}, nil
	case inputZMK:
		src, err := newZMKSource()
		if err != nil {
			return nil, err
		}

		return []keylog.Source{src}, nil
	case inputZMKStdin:
		src, err := newZMKSource()
		if err != nil {
			return nil, err
		}

		src.Reader = os.Stdin

		return []keylog.Source{src}, nil
	default:
		return nil, fmt.Errorf("unknown input %q, expected %s, %s, %s or %s",
			kind, inputAuto, inputStdin, inputZMK, inputZMKStdin)
	}
}

func newZMKSource() (*keylog.ZMKSource, error) {
	src := keylog.NewZMKSource(zmkPorts, layout.DefaultTables().English)
	src.RowOrigin = zmkRowOrigin
	src.ColOrigin = zmkColOrigin

	if zmkInfo == "" {
		return src, nil
	}

	f, err := os.Open(zmkInfo)
	if err != nil {
		return nil, fmt.Errorf("open ZMK info: %w", err)
	}
	defer f.Close()

	src.Matrix, err = layout.LoadZMKMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", zmkInfo, err)
	}

	return src, nil
}
