package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

const trayIconSize = 64

var (
	trayFill    = color.NRGBA{R: 0x00, G: 0xd4, B: 0xff, A: 0xff}
	trayOutline = color.NRGBA{A: 220}
	trayGlyph   = color.NRGBA{A: 0xff}
)

// TrayImage draws the default tray icon: a cyan rounded square with a K.
func (p *Painter) TrayImage() (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, trayIconSize, trayIconSize))

	p.ra.fillRounded(img, rect{X: 4, Y: 4, W: 56, H: 56}, 12, trayFill)
	p.ra.stroke(img, rect{X: 6, Y: 6, W: 52, H: 52}, 10, 2, trayOutline)

	face, err := opentype.NewFace(p.font, &opentype.FaceOptions{
		Size:    36,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("tray glyph face: %w", err)
	}
	defer face.Close()

	drawLabel(img, face, "K", trayIconSize/2, trayIconSize/2, trayGlyph)

	return img, nil
}

// TrayIcon is TrayImage encoded as PNG.
func (p *Painter) TrayIcon() ([]byte, error) {
	img, err := p.TrayImage()
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("encode tray icon: %w", err)
	}

	return buf.Bytes(), nil
}
