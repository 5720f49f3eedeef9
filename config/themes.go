package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Theme is a partial colour palette keyed by role.
type Theme struct {
	Colors map[string]string `json:"colors" toml:"colors" yaml:"colors"`
}

// Themes maps a theme identifier to its palette.
type Themes map[string]Theme

// LoadThemes reads the optional theme file. The format is picked by
// extension (.json, .toml, .yaml/.yml). A missing file is not an error.
func LoadThemes(path string) (Themes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Themes{}, nil
		}

		return nil, fmt.Errorf("read themes: %w", err)
	}

	themes := Themes{}

	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), &themes); err != nil {
			return nil, fmt.Errorf("decode TOML themes: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &themes); err != nil {
			return nil, fmt.Errorf("decode YAML themes: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &themes); err != nil {
			return nil, fmt.Errorf("decode JSON themes: %w", err)
		}
	}

	return themes, nil
}

// LoadThemesOrEmpty is LoadThemes that logs and swallows errors.
func LoadThemesOrEmpty(path string) Themes {
	themes, err := LoadThemes(path)
	if err != nil {
		slog.WarnContext(ctx, "could not load themes", "path", path, "error", err)

		return Themes{}
	}

	return themes
}

// IDs returns the theme identifiers in sorted order.
func (t Themes) IDs() []string {
	return slices.Sorted(maps.Keys(t))
}

// ApplyTheme copies the editable colour roles present in th into cfg.
// Unknown roles are ignored. It reports how many roles changed.
func (c *Config) ApplyTheme(th Theme) int {
	if c.Colors == nil {
		c.Colors = map[string]string{}
	}

	changed := 0

	for _, role := range ColorRoles {
		v, ok := th.Colors[role]
		if !ok || v == "" {
			continue
		}

		if c.Colors[role] != v {
			c.Colors[role] = v
			changed++
		}
	}

	return changed
}
