package keystate_test

import (
	"sync"
	"testing"
	"time"

	"github.com/dasdy/keyoverlay/keystate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func TestIntensity(t *testing.T) {
	fade := seconds(0.8)

	t.Run("linear and non-increasing", func(t *testing.T) {
		prev := 1.0
		for ms := 0; ms <= 800; ms += 10 {
			elapsed := time.Duration(ms) * time.Millisecond
			got := keystate.Intensity(elapsed, fade)

			assert.InDelta(t, 1-elapsed.Seconds()/fade.Seconds(), got, 1e-9, "at %v", elapsed)
			assert.LessOrEqual(t, got, prev)

			prev = got
		}
	})

	t.Run("zero at fade duration", func(t *testing.T) {
		assert.InDelta(t, 0, keystate.Intensity(fade, fade), 1e-9)
	})

	t.Run("clamped after fade", func(t *testing.T) {
		assert.InDelta(t, 0, keystate.Intensity(2*fade, fade), 1e-9)
	})

	t.Run("non-positive fade", func(t *testing.T) {
		assert.InDelta(t, 0, keystate.Intensity(0, 0), 1e-9)
	})
}

func TestEngineAdvance(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fade := seconds(0.8)

	t.Run("half intensity at 0.4s, gone at 0.8s", func(t *testing.T) {
		e := keystate.NewEngine(start)
		e.RecordPress('a', start)

		e.Advance(start.Add(seconds(0.4)), fade)
		snap := e.Snapshot()
		require.Contains(t, snap, 'a')
		assert.InDelta(t, 0.5, snap['a'], 1e-9)

		e.Advance(start.Add(seconds(0.8)), fade)
		assert.NotContains(t, e.Snapshot(), 'a')
	})

	t.Run("repress restarts decay", func(t *testing.T) {
		e := keystate.NewEngine(start)
		e.RecordPress('a', start)
		e.Advance(start.Add(seconds(0.6)), fade)

		e.RecordPress('a', start.Add(seconds(0.6)))
		e.Advance(start.Add(seconds(1.0)), fade)

		assert.InDelta(t, 0.5, e.Snapshot()['a'], 1e-9)
	})

	t.Run("only expired entries are evicted", func(t *testing.T) {
		e := keystate.NewEngine(start)
		e.RecordPress('a', start)
		e.RecordPress('b', start.Add(seconds(0.5)))

		e.Advance(start.Add(seconds(0.9)), fade)

		snap := e.Snapshot()
		assert.NotContains(t, snap, 'a')
		assert.Contains(t, snap, 'b')
		assert.Equal(t, 1, e.Len())
	})

	t.Run("clear keeps activity", func(t *testing.T) {
		e := keystate.NewEngine(start)
		at := start.Add(time.Second)
		e.RecordPress('a', at)
		e.Clear()

		assert.Equal(t, 0, e.Len())
		assert.Equal(t, at, e.LastActivity())
	})
}

func TestEngineLastActivity(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := keystate.NewEngine(start)

	e.RecordPress('x', start.Add(2*time.Second))
	e.RecordPress('y', start.Add(time.Second))

	assert.Equal(t, start.Add(2*time.Second), e.LastActivity())

	entries := e.Entries()
	assert.Equal(t, start.Add(time.Second), entries['y'].PressedAt)
	assert.InDelta(t, 1.0, entries['y'].Intensity, 1e-9)
}

func TestEngineConcurrentAccess(t *testing.T) {
	start := time.Now()
	e := keystate.NewEngine(start)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := range 500 {
			e.RecordPress(rune('a'+i%26), start.Add(time.Duration(i)*time.Millisecond))
		}
	}()

	go func() {
		defer wg.Done()

		for i := range 500 {
			e.Advance(start.Add(time.Duration(i)*time.Millisecond), time.Second)
			_ = e.Snapshot()
		}
	}()

	wg.Wait()

	assert.LessOrEqual(t, e.Len(), 26)
}
