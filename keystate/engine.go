// Package keystate tracks which keys were pressed recently and how bright
// their highlight should be, plus the idle-driven window opacity.
package keystate

import (
	"maps"
	"sync"
	"time"
)

// Entry is the state of a single pressed key.
type Entry struct {
	PressedAt time.Time
	Intensity float64
}

// Engine owns the pressed-key map. mu guards both pressed and lastActivity:
// input sources write through RecordPress while the animation tick calls
// Advance and Snapshot.
type Engine struct {
	mu           sync.Mutex
	pressed      map[rune]Entry
	lastActivity time.Time
}

func NewEngine(now time.Time) *Engine {
	return &Engine{
		pressed:      make(map[rune]Entry),
		lastActivity: now,
	}
}

// RecordPress stamps ch with full intensity and marks activity.
func (e *Engine) RecordPress(ch rune, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pressed[ch] = Entry{PressedAt: now, Intensity: 1}
	if now.After(e.lastActivity) {
		e.lastActivity = now
	}
}

// Advance recomputes every entry's intensity for the given time and evicts
// entries whose age reached fade.
func (e *Engine) Advance(now time.Time, fade time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for ch, entry := range e.pressed {
		elapsed := now.Sub(entry.PressedAt)
		if elapsed >= fade {
			delete(e.pressed, ch)

			continue
		}

		entry.Intensity = Intensity(elapsed, fade)
		e.pressed[ch] = entry
	}
}

// Snapshot copies the current intensities for a single frame.
func (e *Engine) Snapshot() map[rune]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[rune]float64, len(e.pressed))
	for ch, entry := range e.pressed {
		out[ch] = entry.Intensity
	}

	return out
}

// Entries returns a copy of the raw entries.
func (e *Engine) Entries() map[rune]Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	return maps.Clone(e.pressed)
}

func (e *Engine) LastActivity() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastActivity
}

// Clear drops every pressed entry. Activity time is kept.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	clear(e.pressed)
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.pressed)
}

// Intensity is the linear decay 1 - elapsed/fade clamped to [0, 1].
func Intensity(elapsed, fade time.Duration) float64 {
	if fade <= 0 {
		return 0
	}

	v := 1 - elapsed.Seconds()/fade.Seconds()

	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
