package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	DefaultFileName       = "config.json"
	DefaultThemesFileName = "themes.json"
	DefaultLogFileName    = "keyboard_overlay.log"
)

// ProgramDir is the directory holding the running executable, or the working
// directory when that can't be determined.
func ProgramDir() string {
	exe, err := os.Executable()
	if err != nil {
		slog.WarnContext(ctx, "could not resolve executable path", "error", err)

		return "."
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Dir(exe)
}

// ResolvePath keeps absolute paths and anchors relative ones at the program directory.
func ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(ProgramDir(), path)
}
