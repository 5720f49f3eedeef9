package layout_test

import (
	"strings"
	"testing"

	"github.com/dasdy/keyoverlay/layout"
	"github.com/dasdy/keyoverlay/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const splitInfo = `{
  "id": "tiny",
  "name": "Tiny split",
  "layouts": {
    "default": {
      "layout": [
        {"row": 0, "col": 5, "x": 4, "y": 0.1},
        {"row": 0, "col": 0, "x": 0, "y": 0.2},
        {"row": 0, "col": 1, "x": 1, "y": 0},
        {"row": 1, "col": 0, "x": 0, "y": 1},
        {"row": 1, "col": 5, "x": 4.5, "y": 1.3}
      ]
    }
  }
}`

func TestLoadZMKMatrix(t *testing.T) {
	t.Run("groups keys into visual rows", func(t *testing.T) {
		m, err := layout.LoadZMKMatrix(strings.NewReader(splitInfo))
		require.NoError(t, err)

		assert.Equal(t, map[model.RowCol]model.RowCol{
			{Row: 0, Col: 0}: {Row: 0, Col: 0},
			{Row: 0, Col: 1}: {Row: 0, Col: 1},
			{Row: 0, Col: 5}: {Row: 0, Col: 2},
			{Row: 1, Col: 0}: {Row: 1, Col: 0},
			{Row: 1, Col: 5}: {Row: 1, Col: 1},
		}, m)
	})

	t.Run("needs exactly one layout", func(t *testing.T) {
		_, err := layout.LoadZMKMatrix(strings.NewReader(`{"layouts": {}}`))
		require.Error(t, err)
	})

	t.Run("rejects broken JSON", func(t *testing.T) {
		_, err := layout.LoadZMKMatrix(strings.NewReader(`{`))
		require.Error(t, err)
	})
}
