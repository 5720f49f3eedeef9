package db_test

import (
	"testing"
	"time"

	"github.com/dasdy/keyoverlay/db"
	"github.com/dasdy/keyoverlay/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeWord(t *testing.T, storage db.Storage, word string, start time.Time) {
	t.Helper()

	for i, ch := range word {
		err := storage.Store(model.PressEvent{Char: ch, At: start.Add(time.Duration(i) * time.Millisecond)})
		require.NoError(t, err)
	}
}

func TestConnectToMemoryDB(t *testing.T) {
	t.Run("should insert and gather correctly", func(t *testing.T) {
		storage, err := db.NewStorageFromPath(":memory:")
		require.NoError(t, err)

		defer storage.Close()

		items, err := storage.GatherAll()
		require.NoError(t, err)
		assert.Empty(t, items)

		storeWord(t, storage, "hello", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
		storeWord(t, storage, "привет", time.Date(2024, 1, 1, 10, 1, 0, 0, time.UTC))

		items, err = storage.GatherAll()
		require.NoError(t, err)

		assert.Equal(t, model.KeyCount{Char: 'l', Count: 2}, items[0])
		assert.Len(t, items, 10)
		assert.Contains(t, items, model.KeyCount{Char: 'п', Count: 1})
	})
}

func TestAllIterator(t *testing.T) {
	storage, err := db.NewStorageFromPath(":memory:")
	require.NoError(t, err)

	defer storage.Close()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	storeWord(t, storage, "abc", start)

	items, err := storage.AllIterator()
	require.NoError(t, err)

	chars := make([]rune, 0)
	for ev := range items {
		chars = append(chars, ev.Char)
	}

	assert.Equal(t, []rune{'a', 'b', 'c'}, chars)
}

func TestNeighborCounter(t *testing.T) {
	t.Run("counts live presses", func(t *testing.T) {
		counter := db.NewNeighborCounter()

		for _, ch := range "abab" {
			counter.HandleKeyNow(ch, false)
		}

		assert.Equal(t, []model.PairCount{{First: 'a', Second: 'b', Count: 2}}, counter.GatherPairs('b'))
		assert.Equal(t, []model.PairCount{{First: 'b', Second: 'a', Count: 1}}, counter.GatherPairs('a'))
		assert.Empty(t, counter.GatherPairs('z'))
	})

	t.Run("replays history", func(t *testing.T) {
		storage, err := db.NewStorageFromPath(":memory:")
		require.NoError(t, err)

		defer storage.Close()

		storeWord(t, storage, "thethe", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

		counter, err := db.NewNeighborCounterFromDB(storage, false)
		require.NoError(t, err)

		top := counter.Top(2)
		assert.Equal(t, []model.PairCount{
			{First: 'h', Second: 'e', Count: 2},
			{First: 't', Second: 'h', Count: 2},
		}, top)
	})
}
