package keylog

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dasdy/keyoverlay/keylog/ports"
)

// ReaderSource turns every character read from an io.Reader into a press.
// It backs the stdin demo mode.
type ReaderSource struct {
	r   io.Reader
	now func() time.Time
	run runner
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r, now: time.Now}
}

func (s *ReaderSource) Name() string { return "reader" }

func (s *ReaderSource) Available() (bool, string) {
	return true, "reading key presses from input stream"
}

func (s *ReaderSource) Start(ctx context.Context, q *Queue) error {
	return s.run.start(ctx, func(ctx context.Context) {
		lines := ports.ReadFile(s.r)

		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-lines:
				if !ok {
					slog.InfoContext(ctx, "input stream closed")

					return
				}

				guard(s.Name(), func() {
					for _, ch := range line {
						emit(q, ch, s.now())
					}
				})
			}
		}
	})
}

// Stop ends the source. A read already blocked on the underlying reader is
// abandoned rather than interrupted.
func (s *ReaderSource) Stop() error {
	s.run.stop()

	return nil
}

// Running reports whether the stream is still being read.
func (s *ReaderSource) Running() bool {
	return s.run.running()
}
