// Package render lays out the virtual keyboard and rasterizes it.
package render

import (
	"math"

	"github.com/dasdy/keyoverlay/config"
	"github.com/dasdy/keyoverlay/layout"
	"github.com/dasdy/keyoverlay/model"
)

const (
	baseKeySize = 50.0
	startY      = 20.0
)

// rowStagger is the horizontal offset of each row in key widths.
var rowStagger = []float64{0, 0.25, 0.5, 0.75}

func stagger(row int, keyWidth float64) float64 {
	if row < 0 || row >= len(rowStagger) {
		return 0
	}

	return rowStagger[row] * keyWidth
}

// KeySize is the side of one key at the configured scale.
func KeySize(cfg *config.Config) float64 {
	return baseKeySize * cfg.Scale
}

// Plan places every visible, enabled key of the active layout. Hidden rows
// take no vertical slot. Disabled keys keep their slot so their neighbours
// stay put.
func Plan(cfg *config.Config, tables *layout.Tables, active layout.Name) model.Frame {
	frame := model.Frame{
		Width:  cfg.Width,
		Height: cfg.Height,
		Cells:  make([]model.KeyCell, 0),
	}

	table := tables.For(active)

	visible := make([]int, 0, len(table))
	for row := range table {
		if cfg.RowVisible(row) {
			visible = append(visible, row)
		}
	}

	if len(visible) == 0 {
		return frame
	}

	size := KeySize(cfg)
	spacing := float64(cfg.KeyPadding) * cfg.Scale

	maxRowWidth := 0.0
	for _, row := range visible {
		width := float64(len(table[row]))*(size+spacing) - spacing + stagger(row, size)
		maxRowWidth = max(maxRowWidth, width)
	}

	startX := math.Floor((float64(cfg.Width) - maxRowWidth) / 2)

	for slot, row := range visible {
		xStart := startX + stagger(row, size)
		y := startY + float64(slot)*(size+spacing)

		for col, ch := range table[row] {
			base := ch
			if en, ok := tables.English.At(row, col); ok {
				base = en
			}

			if cfg.KeyDisabled(row, base) {
				continue
			}

			frame.Cells = append(frame.Cells, model.KeyCell{
				RowCol: model.RowCol{Row: row, Col: col},
				Char:   ch,
				Base:   base,
				X:      xStart + float64(col)*(size+spacing),
				Y:      y,
				W:      size,
				H:      size,
			})
		}
	}

	return frame
}

// Levels resolves the pressed intensity of every cell in frame, falling back
// to the other layout's character when the cell itself was not pressed.
func Levels(frame model.Frame, pressed map[rune]float64, mapping *layout.Mapping, active layout.Name) []float64 {
	levels := make([]float64, len(frame.Cells))

	for i, cell := range frame.Cells {
		if v, ok := mapping.Lookup(pressed, cell.Char, active); ok {
			levels[i] = v
		}
	}

	return levels
}
