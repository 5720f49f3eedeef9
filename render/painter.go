package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/dasdy/keyoverlay/config"
	"github.com/dasdy/keyoverlay/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// PressedThreshold is the intensity above which a key is drawn as pressed.
	PressedThreshold = 0.05
	glowThreshold    = 0.3
	glowRingAlpha    = 0.3
	minFontSize      = 12
	baseFontSize     = 16
	minPressedBorder = 3
)

// Painter rasterizes planned frames. Paint must not run concurrently.
type Painter struct {
	font  *opentype.Font
	faces map[int]font.Face
	ra    *rasterizer
	mu    sync.Mutex
}

func NewPainter() (*Painter, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse key font: %w", err)
	}

	return &Painter{
		font:  f,
		faces: make(map[int]font.Face),
		ra:    newRasterizer(),
	}, nil
}

func (p *Painter) face(size int) (font.Face, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f, ok := p.faces[size]; ok {
		return f, nil
	}

	f, err := opentype.NewFace(p.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("face of size %d: %w", size, err)
	}

	p.faces[size] = f

	return f, nil
}

// FontSize is the label size at the configured scale.
func FontSize(cfg *config.Config) int {
	return max(minFontSize, int(baseFontSize*cfg.Scale))
}

// palette is the resolved set of colours for one frame.
type palette struct {
	bg            color.NRGBA
	keyBg         color.NRGBA
	keyBorder     color.NRGBA
	keyText       color.NRGBA
	pressed       color.NRGBA
	pressedText   color.NRGBA
	pressedBorder color.NRGBA
	shadow        color.NRGBA
	highlight     color.NRGBA
}

func newPalette(cfg *config.Config) palette {
	c := func(role, fallback string) color.NRGBA {
		v, ok := cfg.Colors[role]
		if !ok {
			v = fallback
		}

		col, _ := ParseColor(v)

		return col
	}

	pressed := c(config.ColorKeyPressed, "#00d4ff")

	return palette{
		bg:            c(config.ColorBg, "#00000000"),
		keyBg:         c(config.ColorKeyBg, ""),
		keyBorder:     c(config.ColorKeyBorder, ""),
		keyText:       c(config.ColorKeyText, "#ffffff"),
		pressed:       pressed,
		pressedText:   c(config.ColorKeyPressedText, "#000000"),
		pressedBorder: c(config.ColorKeyPressedBorder, Hex(pressed)),
		shadow:        c(config.ColorKeyShadow, "#20000000"),
		highlight:     c(config.ColorKeyHighlight, "#40ffffff"),
	}
}

// Paint draws frame into a new image. levels holds the pressed intensity of
// each cell, in the same order; missing entries count as released.
func (p *Painter) Paint(cfg *config.Config, frame model.Frame, levels []float64) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, max(frame.Width, 1), max(frame.Height, 1)))

	pal := newPalette(cfg)
	if pal.bg.A > 0 {
		draw.Draw(img, img.Bounds(), image.NewUniform(pal.bg), image.Point{}, draw.Src)
	}

	face, err := p.face(FontSize(cfg))
	if err != nil {
		return nil, err
	}

	for i, cell := range frame.Cells {
		level := 0.0
		if i < len(levels) {
			level = levels[i]
		}

		p.key(img, cfg, pal, face, cell, level)
	}

	return img, nil
}

func (p *Painter) key(dst *image.RGBA, cfg *config.Config, pal palette, face font.Face, cell model.KeyCell, level float64) {
	isPressed := level > PressedThreshold

	bg, text, border := pal.keyBg, pal.keyText, pal.keyBorder
	bw := float64(cfg.BorderWidth)

	if isPressed {
		bg, text, border = pal.pressed, pal.pressedText, pal.pressedBorder
		bw = float64(max(cfg.BorderWidth, minPressedBorder))
	}

	r := rect{X: cell.X, Y: cell.Y, W: cell.W, H: cell.H}
	radius := float64(cfg.BorderRadius) * cfg.Scale
	shadowSize := float64(cfg.ShadowSize) * cfg.Scale
	ra := p.ra
	textY := r.Y + r.H/2

	switch cfg.KeyStyle {
	case config.StyleRounded:
		if shadowSize > 0 && !isPressed {
			ra.fillRounded(dst, rect{X: r.X + shadowSize, Y: r.Y + shadowSize, W: r.W, H: r.H}, radius, pal.shadow)
		}

		ra.body(dst, r, radius, bw, bg, border)
	case config.Style3D:
		depth := 4 * cfg.Scale

		if isPressed {
			ra.body(dst, rect{X: r.X, Y: r.Y + depth/2, W: r.W, H: r.H}, radius, bw, bg, border)
			textY += 2 * cfg.Scale

			break
		}

		darker := fallbackDepth
		if bg.A > 0 {
			darker = Darken(bg, 0.6)
		}

		ra.fillRounded(dst, rect{X: r.X, Y: r.Y + depth, W: r.W, H: r.H}, radius, darker)
		ra.body(dst, r, radius, bw, bg, border)
		ra.fillRounded(dst, rect{X: r.X + 2, Y: r.Y + 2, W: r.W - 4, H: r.H / 3}, radius/2, pal.highlight)
	case config.StyleGlass:
		ra.body(dst, r, radius, bw, bg, border)

		if !isPressed {
			ra.fillRounded(dst, rect{X: r.X + 3, Y: r.Y + 2, W: r.W - 6, H: r.H / 2.5}, radius/2, pal.highlight)
			ra.fillRounded(dst, rect{X: r.X + 3, Y: r.Y + r.H*0.6, W: r.W - 6, H: r.H / 3}, radius/2, glassGlare)
		}
	default:
		ra.body(dst, r, 0, bw, bg, border)
	}

	if level > glowThreshold && cfg.GlowIntensity > 0 {
		glow := 3 * cfg.Scale * level * cfg.GlowIntensity
		for i := range int(glow) {
			alpha := (1 - float64(i)/glow) * glowRingAlpha
			ring := rect{X: r.X - float64(i), Y: r.Y - float64(i), W: r.W + 2*float64(i), H: r.H + 2*float64(i)}
			ra.stroke(dst, ring, 0, 1, WithAlpha(pal.pressed, alpha))
		}
	}

	label := strings.ToUpper(string(cell.Char))
	cx := r.X + r.W/2

	if !isPressed && cfg.ShadowSize > 0 {
		drawLabel(dst, face, label, cx+1, textY+1, textShadow)
	}

	drawLabel(dst, face, label, cx, textY, text)
}

// drawLabel draws s centred on (cx, cy).
func drawLabel(dst *image.RGBA, face font.Face, s string, cx, cy float64, c color.NRGBA) {
	if c.A == 0 {
		return
	}

	metrics := face.Metrics()
	width := font.MeasureString(face, s)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: toFixed(cx) - width/2,
			Y: toFixed(cy) + (metrics.Ascent-metrics.Descent)/2,
		},
	}

	d.DrawString(s)
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
