package db

import (
	"iter"

	"github.com/dasdy/keyoverlay/model"
)

// Tracker follows presses live and answers questions about what it saw.
type Tracker interface {
	HandleKeyNow(ch rune, verbose bool)
	GatherPairs(ch rune) []model.PairCount
}

type Storage interface {
	Store(event model.PressEvent) error
	GatherAll() ([]model.KeyCount, error)
	AllIterator() (iter.Seq[model.PressEvent], error)
	Close()
}
