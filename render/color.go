package render

import (
	"image/color"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	transparent   = color.NRGBA{}
	fallbackDepth = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	textShadow    = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	glassGlare    = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x10}
)

// ParseColor reads #RRGGBB or #AARRGGBB. Anything else is transparent and
// reported as not ok.
func ParseColor(s string) (color.NRGBA, bool) {
	hex, found := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !found || (len(hex) != 6 && len(hex) != 8) {
		return transparent, false
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return transparent, false
	}

	c := color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}

	if len(hex) == 8 {
		c.A = uint8(v >> 24)
	}

	return c, true
}

// MustColor is ParseColor with a fallback for unparsable input.
func MustColor(s string, fallback color.NRGBA) color.NRGBA {
	if c, ok := ParseColor(s); ok {
		return c
	}

	return fallback
}

// Darken scales the HSV value of c by factor, keeping hue, saturation and alpha.
func Darken(c color.NRGBA, factor float64) color.NRGBA {
	h, s, v := toColorful(c).Hsv()

	return fromColorful(colorful.Hsv(h, s, v*factor), c.A)
}

// WithAlpha multiplies the alpha of c by a.
func WithAlpha(c color.NRGBA, a float64) color.NRGBA {
	a = max(0, min(1, a))
	c.A = uint8(float64(c.A)*a + 0.5)

	return c
}

// Hex formats c as #RRGGBB, or #AARRGGBB when it is not opaque.
func Hex(c color.NRGBA) string {
	hex := toColorful(c).Hex()
	if c.A == 0xff {
		return hex
	}

	return "#" + strconv.FormatUint(uint64(c.A)|0x100, 16)[1:] + hex[1:]
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func fromColorful(c colorful.Color, a uint8) color.NRGBA {
	r, g, b := c.Clamped().RGB255()

	return color.NRGBA{R: r, G: g, B: b, A: a}
}
