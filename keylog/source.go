// Package keylog turns global key presses into normalized press events.
package keylog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
	"unicode"

	"github.com/dasdy/keyoverlay/logging"
	"github.com/dasdy/keyoverlay/model"
)

var ctx = logging.PackageCtx("keylog")

var (
	ErrNotAvailable   = errors.New("key capture is not available on this platform")
	ErrAlreadyRunning = errors.New("source is already running")
)

// Source is a producer of key presses. Sources run on their own goroutine or
// OS thread and only ever Push into the queue.
type Source interface {
	Name() string
	Available() (bool, string)
	Start(ctx context.Context, q *Queue) error
	Stop() error
}

// Normalize lower-cases ch and rejects characters that can't be drawn.
func Normalize(ch rune) (rune, bool) {
	if ch == 0 || ch == unicode.ReplacementChar || unicode.IsControl(ch) || unicode.IsSpace(ch) {
		return 0, false
	}

	return unicode.ToLower(ch), true
}

// emit normalizes ch and queues it.
func emit(q *Queue, ch rune, at time.Time) bool {
	ch, ok := Normalize(ch)
	if !ok {
		return false
	}

	if !q.Push(model.PressEvent{Char: ch, At: at}) {
		slog.DebugContext(ctx, "queue full, dropping press", "char", string(ch))

		return false
	}

	return true
}

// guard runs fn and turns a panic into a log record so one bad event never
// takes the listener down.
func guard(source string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "recovered from panic while handling key event", "source", source, "panic", r)
		}
	}()

	fn()
}

// runner owns the lifecycle of a source's read goroutine.
type runner struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (r *runner) start(parent context.Context, loop func(ctx context.Context)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	r.cancel = cancel
	r.done = done

	go func() {
		defer close(done)
		defer cancel()

		loop(loopCtx)
	}()

	return nil
}

func (r *runner) stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (r *runner) running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done == nil {
		return false
	}

	select {
	case <-r.done:
		return false
	default:
		return true
	}
}
