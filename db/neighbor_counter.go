package db

import (
	"cmp"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/dasdy/keyoverlay/model"
	"github.com/schollz/progressbar/v3"
)

// NeighborCounter counts characters typed directly after each other.
type NeighborCounter struct {
	lastKey   rune
	counts    map[rune]map[rune]int
	stateLock sync.RWMutex
}

func NewNeighborCounter() *NeighborCounter {
	return &NeighborCounter{
		lastKey: -1,
		counts:  make(map[rune]map[rune]int),
	}
}

// NewNeighborCounterFromDB replays the stored history into a new counter.
// When showProgress is set a spinner reports the scan on stderr.
func NewNeighborCounterFromDB(storage Storage, showProgress bool) (*NeighborCounter, error) {
	tracker := NewNeighborCounter()

	items, err := storage.AllIterator()
	if err != nil {
		return nil, err
	}

	tracker.initCounter(items, showProgress)

	return tracker, nil
}

func (nc *NeighborCounter) HandleKeyNow(ch rune, verbose bool) {
	nc.stateLock.Lock()
	defer nc.stateLock.Unlock()

	nc.handleKey(ch, verbose)
}

// GatherPairs returns every pair ending in ch.
func (nc *NeighborCounter) GatherPairs(ch rune) []model.PairCount {
	nc.stateLock.RLock()
	defer nc.stateLock.RUnlock()

	result := make([]model.PairCount, 0)

	for first, seconds := range nc.counts {
		if v, ok := seconds[ch]; ok {
			result = append(result, model.PairCount{First: first, Second: ch, Count: v})
		}
	}

	sortPairs(result)

	return result
}

// Top returns the n most frequent pairs.
func (nc *NeighborCounter) Top(n int) []model.PairCount {
	nc.stateLock.RLock()
	defer nc.stateLock.RUnlock()

	result := make([]model.PairCount, 0)

	for first, seconds := range nc.counts {
		for second, v := range seconds {
			result = append(result, model.PairCount{First: first, Second: second, Count: v})
		}
	}

	sortPairs(result)

	if n >= 0 && len(result) > n {
		result = result[:n]
	}

	return result
}

func sortPairs(pairs []model.PairCount) {
	slices.SortFunc(pairs, func(a, b model.PairCount) int {
		return cmp.Or(
			-cmp.Compare(a.Count, b.Count),
			cmp.Compare(a.First, b.First),
			cmp.Compare(a.Second, b.Second),
		)
	})
}

func (nc *NeighborCounter) initCounter(items iter.Seq[model.PressEvent], showProgress bool) {
	nc.stateLock.Lock()
	defer nc.stateLock.Unlock()

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(-1, "Scanning history...")
	}

	for item := range items {
		if bar != nil {
			if err := bar.Add(1); err != nil {
				slog.ErrorContext(ctx, "could not update progress bar", "error", err)
			}
		}

		nc.handleKey(item.Char, false)
	}

	if bar != nil {
		if err := bar.Finish(); err != nil {
			slog.ErrorContext(ctx, "could not finish progress bar", "error", err)
		}
	}
}

func (nc *NeighborCounter) handleKey(ch rune, verbose bool) {
	if nc.lastKey >= 0 {
		if _, exists := nc.counts[nc.lastKey]; !exists {
			nc.counts[nc.lastKey] = make(map[rune]int)
		}

		if verbose {
			slog.DebugContext(ctx, "key press sequence",
				"current", string(ch),
				"previous", string(nc.lastKey))
		}

		nc.counts[nc.lastKey][ch]++
	}

	nc.lastKey = ch
}
