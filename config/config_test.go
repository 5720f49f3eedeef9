package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dasdy/keyoverlay/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"scale": 0.7,`},
		{"not an object", `[1, 2, 3]`},
		{"wrong type", `{"scale": "huge"}`},
		{"fractional coordinate", `{"custom_x": 10.5}`},
		{"bad colors", `{"colors": {"key_bg": 12}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.json", tc.content)

			assert.Equal(t, config.Default(), config.Load(path))
		})
	}

	t.Run("missing file", func(t *testing.T) {
		assert.Equal(t, config.Default(), config.Load(filepath.Join(dir, "nope.json")))
	})
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{
		"scale": 0.75,
		"position": "top",
		"colors": {"key_pressed": "#ff0000"},
		"visible_rows": [true, false, true, true],
		"disabled_keys": {"row_1": ["q", "w"]}
	}`)

	cfg := config.Load(path)

	assert.InDelta(t, 0.75, cfg.Scale, 1e-9)
	assert.Equal(t, config.PositionTop, cfg.Position)
	assert.Equal(t, "#ff0000", cfg.Colors[config.ColorKeyPressed])
	assert.Equal(t, "#30202030", cfg.Colors[config.ColorKeyBg], "other roles keep defaults")
	assert.Equal(t, 1400, cfg.Width)
	assert.False(t, cfg.RowVisible(1))
	assert.True(t, cfg.KeyDisabled(1, 'q'))
	assert.False(t, cfg.KeyDisabled(1, 'e'))
	assert.False(t, cfg.KeyDisabled(0, 'q'))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := config.Default()
	cfg.SetCustom(120, 640)
	cfg.Scale = 0.6
	cfg.KeyStyle = config.StyleGlass
	cfg.VisibleRows = []bool{false, true, true, true}
	cfg.SetKeyDisabled(2, 'a', true)
	cfg.Colors[config.ColorKeyText] = "#eeeeee"
	cfg.KeyFadeDuration = 1.2

	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, loaded)
}

func TestSavePreservesUnknownFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{
		"default_layout": "ru",
		"extra": {"nested": [1, 2]},
		"colors": {"key_bg": "#11111111", "custom_role": "#abcdef"},
		"scale": 0.3
	}`)

	cfg := config.Load(path)
	cfg.Scale = 0.9
	cfg.Colors[config.ColorKeyBg] = "#22222222"

	require.NoError(t, config.Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "ru", gjson.GetBytes(data, "default_layout").String())
	assert.Equal(t, int64(2), gjson.GetBytes(data, "extra.nested.1").Int())
	assert.Equal(t, "#abcdef", gjson.GetBytes(data, "colors.custom_role").String())
	assert.Equal(t, "#22222222", gjson.GetBytes(data, "colors.key_bg").String())
	assert.InDelta(t, 0.9, gjson.GetBytes(data, "scale").Float(), 1e-9)
	assert.True(t, gjson.GetBytes(data, "custom_x").Type == gjson.Null)

	reloaded, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, reloaded.Scale, 1e-9)
}

func TestSaveOverMalformedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{not json`)

	require.NoError(t, config.Save(path, config.Default()))

	loaded, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), loaded)
}

func TestSaveFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "config.json")

	err := config.Save(path, config.Default())
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	t.Run("swaps inverted alpha bounds", func(t *testing.T) {
		cfg := config.Default()
		cfg.MaxAlpha = 0.2
		cfg.MinAlpha = 0.8
		cfg.Sanitize()

		assert.InDelta(t, 0.8, cfg.MaxAlpha, 1e-9)
		assert.InDelta(t, 0.2, cfg.MinAlpha, 1e-9)
	})

	t.Run("clamps alpha range", func(t *testing.T) {
		cfg := config.Default()
		cfg.MaxAlpha = 3
		cfg.MinAlpha = -1
		cfg.Sanitize()

		assert.InDelta(t, 1.0, cfg.MaxAlpha, 1e-9)
		assert.InDelta(t, 0.05, cfg.MinAlpha, 1e-9)
	})

	t.Run("timings", func(t *testing.T) {
		cfg := config.Default()
		cfg.IdleTimeout = -4
		cfg.KeyFadeDuration = 0
		cfg.Sanitize()

		assert.InDelta(t, 0, cfg.IdleTimeout, 1e-9)
		assert.InDelta(t, 0.02, cfg.KeyFadeDuration, 1e-9)
	})

	t.Run("visible rows padded and trimmed", func(t *testing.T) {
		cfg := config.Default()
		cfg.VisibleRows = []bool{false}
		cfg.Sanitize()
		assert.Equal(t, []bool{false, true, true, true}, cfg.VisibleRows)

		cfg.VisibleRows = []bool{true, true, true, true, false}
		cfg.Sanitize()
		assert.Len(t, cfg.VisibleRows, 4)
	})

	t.Run("custom without coordinates", func(t *testing.T) {
		cfg := config.Default()
		cfg.Position = config.PositionCustom
		cfg.Sanitize()

		assert.Equal(t, config.PositionBottom, cfg.Position)
	})

	t.Run("unknown style", func(t *testing.T) {
		cfg := config.Default()
		cfg.KeyStyle = "neon"
		cfg.Sanitize()

		assert.Equal(t, config.StyleRounded, cfg.KeyStyle)
	})

	t.Run("unknown position", func(t *testing.T) {
		cfg := config.Default()
		cfg.Position = "somewhere"
		cfg.Sanitize()

		assert.Equal(t, config.PositionBottom, cfg.Position)
	})

	t.Run("missing colour roles restored", func(t *testing.T) {
		cfg := config.Default()
		cfg.Colors = map[string]string{config.ColorKeyBg: "#000000"}
		cfg.Sanitize()

		assert.Equal(t, "#000000", cfg.Colors[config.ColorKeyBg])
		assert.Equal(t, "#00d4ff", cfg.Colors[config.ColorKeyPressed])
	})
}

func TestPositionHelpers(t *testing.T) {
	cfg := config.Default()
	cfg.SetCustom(5, 6)

	require.NotNil(t, cfg.CustomX)
	assert.Equal(t, 5, *cfg.CustomX)
	assert.Equal(t, config.PositionCustom, cfg.Position)

	cfg.SetPosition(config.PositionLeft)
	assert.Nil(t, cfg.CustomX)
	assert.Nil(t, cfg.CustomY)
}

func TestDisabledKeys(t *testing.T) {
	cfg := config.Default()

	cfg.SetKeyDisabled(3, 'z', true)
	cfg.SetKeyDisabled(3, 'z', true)
	assert.Equal(t, []string{"z"}, cfg.DisabledKeys["row_3"])

	cfg.SetKeyDisabled(3, 'z', false)
	assert.NotContains(t, cfg.DisabledKeys, "row_3")
}

func TestClone(t *testing.T) {
	cfg := config.Default()
	cfg.SetCustom(1, 2)

	clone := cfg.Clone()
	*clone.CustomX = 99
	clone.Colors[config.ColorKeyBg] = "#ffffff"
	clone.VisibleRows[0] = false

	assert.Equal(t, 1, *cfg.CustomX)
	assert.Equal(t, "#30202030", cfg.Colors[config.ColorKeyBg])
	assert.True(t, cfg.VisibleRows[0])
}

func TestDurations(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 5*time.Second, cfg.IdleTimeoutDuration())
	assert.Equal(t, 2*time.Second, cfg.FadeDurationValue())
	assert.Equal(t, 800*time.Millisecond, cfg.KeyFadeDurationValue())
}
