package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dasdy/keyoverlay/logging"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var ctx = logging.PackageCtx("config")

// ErrNotObject is returned when a settings document is valid JSON but not an object.
var ErrNotObject = errors.New("settings document is not a JSON object")

// Validate checks a raw settings document against the embedded schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}

		return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}

	return nil
}

// Parse merges a settings document over the defaults. Colour roles are merged
// one by one, every other field replaces the default.
func Parse(data []byte) (*Config, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}

	if !gjson.ParseBytes(data).IsObject() {
		return nil, ErrNotObject
	}

	if err := Validate(data); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	cfg.Sanitize()

	return cfg, nil
}

// LoadFile reads and parses the settings file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}

	return cfg, nil
}

// Load never fails: a missing or malformed file yields the defaults.
func Load(path string) *Config {
	cfg, err := LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.DebugContext(ctx, "settings file not found, using defaults", "path", path)
		} else {
			slog.WarnContext(ctx, "could not load settings, using defaults", "path", path, "error", err)
		}

		return Default()
	}

	slog.InfoContext(ctx, "settings loaded", "path", path)

	return cfg
}

// Marshal renders cfg over an existing document. Fields unknown to Config
// are kept verbatim; when existing already holds a colors object, roles are
// merged into it instead of replacing it.
func Marshal(cfg *Config, existing []byte) ([]byte, error) {
	doc := []byte("{}")
	if len(existing) > 0 && gjson.ValidBytes(existing) && gjson.ParseBytes(existing).IsObject() {
		doc = append([]byte(nil), existing...)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	mergeColors := gjson.GetBytes(doc, "colors").IsObject()

	var setErr error

	gjson.ParseBytes(raw).ForEach(func(key, value gjson.Result) bool {
		if key.String() == "colors" && mergeColors {
			value.ForEach(func(role, hex gjson.Result) bool {
				doc, setErr = sjson.SetBytes(doc, "colors."+escapePath(role.String()), hex.String())

				return setErr == nil
			})

			return setErr == nil
		}

		doc, setErr = sjson.SetRawBytes(doc, escapePath(key.String()), []byte(value.Raw))

		return setErr == nil
	})

	if setErr != nil {
		return nil, fmt.Errorf("merge settings: %w", setErr)
	}

	return pretty.Pretty(doc), nil
}

// Save writes cfg to path, preserving fields of the existing file that Config
// doesn't know about.
func Save(path string, cfg *Config) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.WarnContext(ctx, "could not read existing settings, overwriting", "path", path, "error", err)
	}

	data, err := Marshal(cfg, existing)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("could not save settings to %s: %w", path, err)
	}

	slog.InfoContext(ctx, "settings saved", "path", path)

	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

var pathEscaper = strings.NewReplacer(`.`, `\.`, `*`, `\*`, `?`, `\?`, `|`, `\|`, `#`, `\#`, `@`, `\@`)

func escapePath(key string) string {
	return pathEscaper.Replace(key)
}

