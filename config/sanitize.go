package config

import "slices"

const (
	minAlphaFloor   = 0.05
	minKeyFade      = 0.02
	minScale        = 0.1
	minWindowLength = 50
)

// Sanitize clamps values that the UI or a hand-edited file may have pushed out
// of range. It keeps MinAlpha <= MaxAlpha by swapping them.
func (c *Config) Sanitize() {
	c.MaxAlpha = clamp(c.MaxAlpha, minAlphaFloor, 1)
	c.MinAlpha = clamp(c.MinAlpha, minAlphaFloor, 1)

	if c.MinAlpha > c.MaxAlpha {
		c.MinAlpha, c.MaxAlpha = c.MaxAlpha, c.MinAlpha
	}

	c.IdleTimeout = max(0, c.IdleTimeout)
	c.FadeDuration = max(0, c.FadeDuration)
	c.KeyFadeDuration = max(minKeyFade, c.KeyFadeDuration)

	c.Scale = max(minScale, c.Scale)
	c.Width = max(minWindowLength, c.Width)
	c.Height = max(minWindowLength, c.Height)

	c.BorderRadius = max(0, c.BorderRadius)
	c.ShadowSize = max(0, c.ShadowSize)
	c.BorderWidth = max(0, c.BorderWidth)
	c.KeyPadding = max(0, c.KeyPadding)
	c.GlowIntensity = max(0, c.GlowIntensity)

	switch {
	case len(c.VisibleRows) < RowCount:
		for len(c.VisibleRows) < RowCount {
			c.VisibleRows = append(c.VisibleRows, true)
		}
	case len(c.VisibleRows) > RowCount:
		c.VisibleRows = c.VisibleRows[:RowCount]
	}

	if !slices.Contains(Styles, c.KeyStyle) {
		c.KeyStyle = StyleRounded
	}

	if !slices.Contains(Positions, c.Position) {
		c.Position = PositionBottom
	}

	if c.Position == PositionCustom && (c.CustomX == nil || c.CustomY == nil) {
		c.Position = PositionBottom
		c.CustomX, c.CustomY = nil, nil
	}

	if c.DisabledKeys == nil {
		c.DisabledKeys = map[string][]string{}
	}

	if c.Colors == nil {
		c.Colors = map[string]string{}
	}

	for role, v := range Default().Colors {
		if _, ok := c.Colors[role]; !ok {
			c.Colors[role] = v
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
