package layout

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/dasdy/keyoverlay/model"
)

type ZMKKeyDescriptor struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
	Rx    float64 `json:"rx"`
	Ry    float64 `json:"ry"`
	Label string  `json:"label"`
}

type ZMKLayoutCollection struct {
	Layout []ZMKKeyDescriptor `json:"layout"`
}

// ZmkInfoJSON is the info.json shipped with ZMK board definitions.
type ZmkInfoJSON struct {
	ID      string                         `json:"id"`
	Name    string                         `json:"name"`
	Layouts map[string]ZMKLayoutCollection `json:"layouts"`
}

// LoadZMKMatrix reads a ZMK info.json and assigns every matrix position a
// row/column in reading order. Keys are grouped into visual rows by their
// rounded Y coordinate and numbered left to right within a row.
func LoadZMKMatrix(reader io.Reader) (map[model.RowCol]model.RowCol, error) {
	var info ZmkInfoJSON

	if err := json.NewDecoder(reader).Decode(&info); err != nil {
		return nil, fmt.Errorf("could not decode ZMK info JSON: %w", err)
	}

	if len(info.Layouts) != 1 {
		return nil, fmt.Errorf("expected exactly one layout, got %d", len(info.Layouts))
	}

	var keys []ZMKKeyDescriptor
	for _, l := range info.Layouts {
		keys = l.Layout
	}

	return MatrixByPosition(keys), nil
}

// MatrixByPosition maps matrix positions onto visual rows and columns.
func MatrixByPosition(keys []ZMKKeyDescriptor) map[model.RowCol]model.RowCol {
	sorted := slices.Clone(keys)
	slices.SortStableFunc(sorted, func(a, b ZMKKeyDescriptor) int {
		return cmp.Or(cmp.Compare(math.Round(a.Y), math.Round(b.Y)), cmp.Compare(a.X, b.X))
	})

	out := make(map[model.RowCol]model.RowCol, len(sorted))
	row, col := -1, 0
	lastY := math.Inf(-1)

	for _, k := range sorted {
		if y := math.Round(k.Y); y != lastY {
			row++
			col = 0
			lastY = y
		}

		out[model.RowCol{Row: k.Row, Col: k.Col}] = model.RowCol{Row: row, Col: col}
		col++
	}

	return out
}
