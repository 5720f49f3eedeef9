// Package config loads, sanitizes and saves the overlay settings document.
package config

import (
	"fmt"
	"slices"
	"time"
)

type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
	PositionCenter Position = "center"
	PositionCustom Position = "custom"
)

var Positions = []Position{
	PositionBottom, PositionTop, PositionLeft, PositionRight, PositionCenter, PositionCustom,
}

type Style string

const (
	StyleFlat    Style = "flat"
	StyleRounded Style = "rounded"
	Style3D      Style = "3d"
	StyleGlass   Style = "glass"
)

var Styles = []Style{StyleFlat, StyleRounded, Style3D, StyleGlass}

// Colour roles.
const (
	ColorBg               = "bg"
	ColorKeyBg            = "key_bg"
	ColorKeyBorder        = "key_border"
	ColorKeyText          = "key_text"
	ColorKeyPressed       = "key_pressed"
	ColorKeyPressedText   = "key_pressed_text"
	ColorKeyPressedBorder = "key_pressed_border"
	ColorKeyShadow        = "key_shadow"
	ColorKeyHighlight     = "key_highlight"
)

// ColorRoles lists the roles that the settings UI and themes can edit.
var ColorRoles = []string{
	ColorKeyBg,
	ColorKeyBorder,
	ColorKeyText,
	ColorKeyPressed,
	ColorKeyPressedText,
	ColorKeyPressedBorder,
	ColorKeyShadow,
	ColorKeyHighlight,
}

const RowCount = 4

// Config is the overlay settings document. It is only mutated on the UI thread.
type Config struct {
	Position     Position            `json:"position"`
	CustomX      *int                `json:"custom_x"`
	CustomY      *int                `json:"custom_y"`
	Scale        float64             `json:"scale"`
	Width        int                 `json:"width"`
	Height       int                 `json:"height"`
	MaxAlpha     float64             `json:"max_alpha"`
	MinAlpha     float64             `json:"min_alpha"`
	VisibleRows  []bool              `json:"visible_rows"`
	DisabledKeys map[string][]string `json:"disabled_keys"`
	TrayIconPath string              `json:"tray_icon_path"`

	KeyStyle      Style   `json:"key_style"`
	BorderRadius  int     `json:"border_radius"`
	ShadowSize    int     `json:"shadow_size"`
	GlowIntensity float64 `json:"glow_intensity"`
	BorderWidth   int     `json:"border_width"`
	KeyPadding    int     `json:"key_padding"`

	Colors map[string]string `json:"colors"`

	IdleTimeout     float64 `json:"idle_timeout"`
	FadeDuration    float64 `json:"fade_duration"`
	KeyFadeDuration float64 `json:"key_fade_duration"`
}

func Default() *Config {
	return &Config{
		Position:     PositionBottom,
		Scale:        0.5,
		Width:        1400,
		Height:       300,
		MaxAlpha:     0.92,
		MinAlpha:     0.30,
		VisibleRows:  []bool{true, true, true, true},
		DisabledKeys: map[string][]string{},
		TrayIconPath: "tray.png",

		KeyStyle:      StyleRounded,
		BorderRadius:  8,
		ShadowSize:    3,
		GlowIntensity: 1.0,
		BorderWidth:   2,
		KeyPadding:    6,

		Colors: map[string]string{
			ColorBg:               "#00000000",
			ColorKeyBg:            "#30202030",
			ColorKeyBorder:        "#60ffffff",
			ColorKeyText:          "#ffffff",
			ColorKeyPressed:       "#00d4ff",
			ColorKeyPressedText:   "#000000",
			ColorKeyPressedBorder: "#00ffff",
			ColorKeyShadow:        "#20000000",
			ColorKeyHighlight:     "#40ffffff",
		},

		IdleTimeout:     5.0,
		FadeDuration:    2.0,
		KeyFadeDuration: 0.8,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.CustomX != nil {
		x := *c.CustomX
		out.CustomX = &x
	}

	if c.CustomY != nil {
		y := *c.CustomY
		out.CustomY = &y
	}

	out.VisibleRows = slices.Clone(c.VisibleRows)

	out.DisabledKeys = make(map[string][]string, len(c.DisabledKeys))
	for k, v := range c.DisabledKeys {
		out.DisabledKeys[k] = slices.Clone(v)
	}

	out.Colors = make(map[string]string, len(c.Colors))
	for k, v := range c.Colors {
		out.Colors[k] = v
	}

	return &out
}

func RowKey(row int) string {
	return fmt.Sprintf("row_%d", row)
}

// RowVisible reports whether row should be drawn. Rows beyond the configured
// list are visible.
func (c *Config) RowVisible(row int) bool {
	if row < 0 || row >= len(c.VisibleRows) {
		return true
	}

	return c.VisibleRows[row]
}

// KeyDisabled reports whether the key whose English character is base is hidden in row.
func (c *Config) KeyDisabled(row int, base rune) bool {
	return slices.Contains(c.DisabledKeys[RowKey(row)], string(base))
}

// SetKeyDisabled adds or removes base from the disabled set of row.
func (c *Config) SetKeyDisabled(row int, base rune, disabled bool) {
	if c.DisabledKeys == nil {
		c.DisabledKeys = map[string][]string{}
	}

	key := RowKey(row)
	s := string(base)
	keys := slices.DeleteFunc(c.DisabledKeys[key], func(v string) bool { return v == s })

	if disabled {
		keys = append(keys, s)
	}

	if len(keys) == 0 {
		delete(c.DisabledKeys, key)
	} else {
		c.DisabledKeys[key] = keys
	}
}

// SetPosition switches to an anchored position. Anything but custom forgets
// the dragged coordinates.
func (c *Config) SetPosition(p Position) {
	c.Position = p
	if p != PositionCustom {
		c.CustomX = nil
		c.CustomY = nil
	}
}

// SetCustom pins the window to explicit coordinates.
func (c *Config) SetCustom(x, y int) {
	c.Position = PositionCustom
	c.CustomX = &x
	c.CustomY = &y
}

func (c *Config) Color(role string) string {
	return c.Colors[role]
}

func (c *Config) IdleTimeoutDuration() time.Duration {
	return secondsToDuration(c.IdleTimeout)
}

func (c *Config) FadeDurationValue() time.Duration {
	return secondsToDuration(c.FadeDuration)
}

func (c *Config) KeyFadeDurationValue() time.Duration {
	return secondsToDuration(c.KeyFadeDuration)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
