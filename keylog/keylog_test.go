package keylog_test

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dasdy/keyoverlay/keylog"
	"github.com/dasdy/keyoverlay/layout"
	"github.com/dasdy/keyoverlay/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainChars(q *keylog.Queue) []rune {
	result := make([]rune, 0)

	q.Drain(func(ev model.PressEvent) {
		result = append(result, ev.Char)
	})

	return result
}

func TestQueue(t *testing.T) {
	t.Run("push never blocks and counts drops", func(t *testing.T) {
		q := keylog.NewQueue(2)

		assert.True(t, q.Push(model.PressEvent{Char: 'a'}))
		assert.True(t, q.Push(model.PressEvent{Char: 'b'}))
		assert.False(t, q.Push(model.PressEvent{Char: 'c'}))

		assert.Equal(t, uint64(1), q.Dropped())
		assert.Equal(t, []rune{'a', 'b'}, drainChars(q))
		assert.Equal(t, 0, q.Len())
	})

	t.Run("drain on empty queue", func(t *testing.T) {
		q := keylog.NewQueue(0)

		assert.Equal(t, 0, q.Drain(func(model.PressEvent) { t.Fatal("unexpected event") }))
	})

	t.Run("concurrent producers", func(t *testing.T) {
		q := keylog.NewQueue(1000)

		var wg sync.WaitGroup

		for range 10 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				for range 50 {
					q.Push(model.PressEvent{Char: 'x'})
				}
			}()
		}

		wg.Wait()

		assert.Len(t, drainChars(q), 500)
	})
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		in   rune
		out  rune
		keep bool
	}{
		{'A', 'a', true},
		{'Ж', 'ж', true},
		{';', ';', true},
		{' ', 0, false},
		{'\n', 0, false},
		{'\x1b', 0, false},
		{0, 0, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.in), func(t *testing.T) {
			out, ok := keylog.Normalize(tc.in)

			assert.Equal(t, tc.keep, ok)
			assert.Equal(t, tc.out, out)
		})
	}
}

func TestKeycodeRune(t *testing.T) {
	testCases := []struct {
		code uint16
		ch   rune
	}{
		{2, '1'},
		{11, '0'},
		{16, 'q'},
		{27, ']'},
		{30, 'a'},
		{41, '`'},
		{43, '\\'},
		{44, 'z'},
		{53, '/'},
	}

	for _, tc := range testCases {
		ch, ok := keylog.KeycodeRune(tc.code)

		require.True(t, ok, "code %d", tc.code)
		assert.Equal(t, tc.ch, ch, "code %d", tc.code)
	}

	_, ok := keylog.KeycodeRune(1)
	assert.False(t, ok, "escape has no character")
}

func TestReaderSource(t *testing.T) {
	q := keylog.NewQueue(64)
	src := keylog.NewReaderSource(strings.NewReader("Hi there\nЁж\n"))

	ok, _ := src.Available()
	assert.True(t, ok)

	require.NoError(t, src.Start(context.Background(), q))

	assert.Eventually(t, func() bool { return !src.Running() }, time.Second, 5*time.Millisecond)
	require.NoError(t, src.Stop())

	assert.Equal(t, []rune("hithereёж"), drainChars(q))
}

func TestReaderSourceStartTwice(t *testing.T) {
	q := keylog.NewQueue(8)

	src := keylog.NewReaderSource(blockingReader{})
	require.NoError(t, src.Start(context.Background(), q))

	defer src.Stop()

	assert.ErrorIs(t, src.Start(context.Background(), q), keylog.ErrAlreadyRunning)
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}

func TestZMKSource(t *testing.T) {
	console := strings.Join([]string{
		"[00:00:00.010,000] <inf> zmk: Welcome to ZMK!",
		"[00:00:01.000,000] <dbg> zmk: zmk_kscan_process_msgq: Row: 2, col: 1, position: 23, pressed: true",
		"[00:00:01.100,000] <dbg> zmk: zmk_kscan_process_msgq: Row: 2, col: 1, position: 23, pressed: false",
		"[00:00:01.200,000] <dbg> zmk: zmk_kscan_process_msgq: Row: 3, col: 4, position: 40, pressed: true",
		"[00:00:01.300,000] <dbg> zmk: zmk_kscan_process_msgq: Row: 9, col: 0, position: 90, pressed: true",
		"[00:00:01.400,000] <dbg> zmk: zmk_kscan_process_msgq: Row: 2, col: x, position: 23, pressed: true",
	}, "\n")

	src := keylog.NewZMKSource(nil, layout.DefaultTables().English)
	src.Reader = strings.NewReader(console)
	src.RowOrigin = 1

	q := keylog.NewQueue(16)
	require.NoError(t, src.Start(context.Background(), q))

	assert.Eventually(t, func() bool { return !src.Running() }, time.Second, 5*time.Millisecond)
	require.NoError(t, src.Stop())

	assert.Equal(t, []rune{'w', 'g'}, drainChars(q))
}

func TestZMKSourceChar(t *testing.T) {
	src := keylog.NewZMKSource(nil, layout.DefaultTables().English)
	src.ColOrigin = 1

	ch, ok := src.Char(model.KeyEvent{Row: 1, Col: 1})
	require.True(t, ok)
	assert.Equal(t, 'q', ch)

	_, ok = src.Char(model.KeyEvent{Row: 1, Col: 0})
	assert.False(t, ok)
}

func TestZMKSourceCharMatrix(t *testing.T) {
	src := keylog.NewZMKSource(nil, layout.DefaultTables().English)
	src.Matrix = map[model.RowCol]model.RowCol{
		{Row: 3, Col: 7}: {Row: 2, Col: 0},
	}

	ch, ok := src.Char(model.KeyEvent{Row: 3, Col: 7})
	require.True(t, ok)
	assert.Equal(t, 'a', ch)

	_, ok = src.Char(model.KeyEvent{Row: 2, Col: 0})
	assert.False(t, ok, "positions missing from the matrix are dropped")
}

type fakeStorage struct {
	mu     sync.Mutex
	stored []rune
	fail   bool
}

func (s *fakeStorage) Store(ev model.PressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return errors.New("disk full")
	}

	s.stored = append(s.stored, ev.Char)

	return nil
}

func (s *fakeStorage) chars() []rune {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]rune(nil), s.stored...)
}

func (s *fakeStorage) GatherAll() ([]model.KeyCount, error) { return nil, nil }

func (s *fakeStorage) AllIterator() (iter.Seq[model.PressEvent], error) { return nil, nil }

func (s *fakeStorage) Close() {}

type fakeTracker struct {
	mu   sync.Mutex
	seen []rune
}

func (f *fakeTracker) HandleKeyNow(ch rune, _ bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seen = append(f.seen, ch)
}

func (f *fakeTracker) GatherPairs(rune) []model.PairCount { return nil }

func TestStatsLoop(t *testing.T) {
	t.Run("stores until the stream closes", func(t *testing.T) {
		events := make(chan model.PressEvent, 3)
		events <- model.PressEvent{Char: 'a'}
		events <- model.PressEvent{Char: 'b'}
		close(events)

		storage := &fakeStorage{}
		tracker := &fakeTracker{}

		keylog.StatsLoop(context.Background(), events, storage, tracker, true)

		assert.Equal(t, []rune{'a', 'b'}, storage.chars())
		assert.Equal(t, []rune{'a', 'b'}, tracker.seen)
	})

	t.Run("store errors do not stop the loop", func(t *testing.T) {
		events := make(chan model.PressEvent, 2)
		events <- model.PressEvent{Char: 'a'}
		close(events)

		tracker := &fakeTracker{}

		keylog.StatsLoop(context.Background(), events, &fakeStorage{fail: true}, tracker, false)

		assert.Equal(t, []rune{'a'}, tracker.seen)
	})

	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan struct{})

		go func() {
			keylog.StatsLoop(ctx, make(chan model.PressEvent), &fakeStorage{}, nil, false)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("stats loop did not stop")
		}
	})
}
