package keylog

import (
	"sync/atomic"

	"github.com/dasdy/keyoverlay/model"
)

// DefaultQueueSize bounds how many presses may wait between two ticks.
const DefaultQueueSize = 256

// Queue carries press events from input sources to the UI thread. Push never
// blocks: when the queue is full the event is dropped and counted.
type Queue struct {
	ch      chan model.PressEvent
	dropped atomic.Uint64
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}

	return &Queue{ch: make(chan model.PressEvent, size)}
}

// Push enqueues ev and reports whether it was accepted.
func (q *Queue) Push(ev model.PressEvent) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		q.dropped.Add(1)

		return false
	}
}

// Drain hands every event queued right now to fn and returns how many were consumed.
func (q *Queue) Drain(fn func(model.PressEvent)) int {
	n := 0

	for {
		select {
		case ev := <-q.ch:
			fn(ev)
			n++
		default:
			return n
		}
	}
}

// Events exposes the queue for consumers that block on it.
func (q *Queue) Events() <-chan model.PressEvent {
	return q.ch
}

func (q *Queue) Len() int {
	return len(q.ch)
}

func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
