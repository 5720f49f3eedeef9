package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

type rect struct {
	X, Y, W, H float64
}

func (r rect) inset(d float64) rect {
	return rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

func (r rect) empty() bool {
	return r.W <= 0 || r.H <= 0
}

// outline is one closed rounded-rectangle path. Holes wind the other way.
type outline struct {
	r      rect
	radius float64
	hole   bool
}

type rasterizer struct {
	z *vector.Rasterizer
}

func newRasterizer() *rasterizer {
	return &rasterizer{z: vector.NewRasterizer(1, 1)}
}

// fill paints the area enclosed by the outlines in c. The first outline
// bounds the painted area.
func (ra *rasterizer) fill(dst *image.RGBA, c color.NRGBA, outlines ...outline) {
	if len(outlines) == 0 || c.A == 0 || outlines[0].r.empty() {
		return
	}

	outer := outlines[0].r
	minX, minY := math.Floor(outer.X), math.Floor(outer.Y)
	bounds := image.Rect(
		int(minX), int(minY),
		int(math.Ceil(outer.X+outer.W)), int(math.Ceil(outer.Y+outer.H)),
	)

	if !bounds.Overlaps(dst.Bounds()) {
		return
	}

	ra.z.Reset(bounds.Dx(), bounds.Dy())

	for _, o := range outlines {
		if o.r.empty() {
			continue
		}

		ra.path(o, minX, minY)
	}

	mask := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	ra.z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	draw.DrawMask(dst, bounds, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

func (ra *rasterizer) path(o outline, ox, oy float64) {
	x := float32(o.r.X - ox)
	y := float32(o.r.Y - oy)
	w := float32(o.r.W)
	h := float32(o.r.H)
	r := float32(max(0, min(o.radius, o.r.W/2, o.r.H/2)))
	z := ra.z

	if !o.hole {
		z.MoveTo(x+r, y)
		z.LineTo(x+w-r, y)
		z.QuadTo(x+w, y, x+w, y+r)
		z.LineTo(x+w, y+h-r)
		z.QuadTo(x+w, y+h, x+w-r, y+h)
		z.LineTo(x+r, y+h)
		z.QuadTo(x, y+h, x, y+h-r)
		z.LineTo(x, y+r)
		z.QuadTo(x, y, x+r, y)
		z.ClosePath()

		return
	}

	z.MoveTo(x+r, y)
	z.QuadTo(x, y, x, y+r)
	z.LineTo(x, y+h-r)
	z.QuadTo(x, y+h, x+r, y+h)
	z.LineTo(x+w-r, y+h)
	z.QuadTo(x+w, y+h, x+w, y+h-r)
	z.LineTo(x+w, y+r)
	z.QuadTo(x+w, y, x+w-r, y)
	z.ClosePath()
}

// fillRounded paints a solid rounded rectangle.
func (ra *rasterizer) fillRounded(dst *image.RGBA, r rect, radius float64, c color.NRGBA) {
	ra.fill(dst, c, outline{r: r, radius: radius})
}

// stroke paints a border of width bw just inside r.
func (ra *rasterizer) stroke(dst *image.RGBA, r rect, radius, bw float64, c color.NRGBA) {
	if bw <= 0 {
		return
	}

	inner := r.inset(bw)
	if inner.empty() {
		ra.fillRounded(dst, r, radius, c)

		return
	}

	ra.fill(dst, c,
		outline{r: r, radius: radius},
		outline{r: inner, radius: max(0, radius-bw), hole: true},
	)
}

// body paints a filled shape with a border on top.
func (ra *rasterizer) body(dst *image.RGBA, r rect, radius, bw float64, fill, border color.NRGBA) {
	ra.fillRounded(dst, r, radius, fill)
	ra.stroke(dst, r, radius, bw, border)
}
