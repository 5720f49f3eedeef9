package model

import (
	"time"
)

// PressEvent is a single normalized key press coming from an input source.
type PressEvent struct {
	Char rune
	At   time.Time
}

// KeyEvent is a raw matrix event reported by a ZMK keyboard over its debug console.
type KeyEvent struct {
	Row      int
	Col      int
	Position int
	Pressed  bool
}

// KeyCount is how many times a character was pressed.
type KeyCount struct {
	Char  rune
	Count int
}

// PairCount is how many times Second was pressed right after First.
type PairCount struct {
	First  rune
	Second rune
	Count  int
}

type RowCol struct {
	Row int
	Col int
}

// KeyCell is one planned key on the overlay canvas.
type KeyCell struct {
	RowCol
	// Char is what gets drawn and looked up in the pressed set.
	Char rune
	// Base is the English character at the same position, used for disabled-key matching.
	Base rune
	X    float64
	Y    float64
	W    float64
	H    float64
}

// Frame is the full set of keys that should be drawn for one tick.
type Frame struct {
	Width  int
	Height int
	Cells  []KeyCell
}
