package keylog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dasdy/keyoverlay/keylog/parser"
	"github.com/dasdy/keyoverlay/keylog/ports"
	"github.com/dasdy/keyoverlay/layout"
	"github.com/dasdy/keyoverlay/model"
)

// ZMKSource reads matrix events from ZMK keyboards' debug consoles and maps
// them onto the English table. Row and column origins shift the keyboard's
// matrix so that its number row lands on table row 0.
type ZMKSource struct {
	// Ports are opened explicitly. When empty and Reader is nil, devices are
	// discovered and attached as they are plugged in.
	Ports []string
	// Reader, when set, replaces the serial ports (piped console logs).
	Reader io.Reader

	Table layout.Table
	// Matrix optionally remaps matrix positions before the origins apply,
	// see layout.LoadZMKMatrix.
	Matrix    map[model.RowCol]model.RowCol
	RowOrigin int
	ColOrigin int

	now func() time.Time
	run runner
}

func NewZMKSource(portPaths []string, table layout.Table) *ZMKSource {
	return &ZMKSource{
		Ports: portPaths,
		Table: table,
		now:   time.Now,
	}
}

func (s *ZMKSource) Name() string { return "zmk" }

func (s *ZMKSource) Available() (bool, string) {
	if s.Reader != nil {
		return true, "reading ZMK console from input stream"
	}

	if len(s.Ports) > 0 {
		return true, fmt.Sprintf("ZMK ports: %v", s.Ports)
	}

	names, err := ports.GetAvailableDevices()
	if err != nil {
		return false, err.Error()
	}

	if len(names) == 0 {
		return true, "waiting for a ZMK keyboard to be connected"
	}

	return true, fmt.Sprintf("suggested devices: %v", names)
}

// Char maps a matrix event to the character at that position.
func (s *ZMKSource) Char(ev model.KeyEvent) (rune, bool) {
	pos := model.RowCol{Row: ev.Row, Col: ev.Col}

	if s.Matrix != nil {
		var ok bool
		if pos, ok = s.Matrix[pos]; !ok {
			return 0, false
		}
	}

	return s.Table.At(pos.Row-s.RowOrigin, pos.Col-s.ColOrigin)
}

func (s *ZMKSource) lines(ctx context.Context) (<-chan string, func(), error) {
	if s.Reader != nil {
		return ports.ReadFile(s.Reader), func() {}, nil
	}

	if len(s.Ports) > 0 {
		readers, err := ports.OpenAll(s.Ports, nil)
		if err != nil {
			names, errInner := ports.GetAvailableDevices()
			if errInner == nil && len(names) > 0 {
				return nil, nil, fmt.Errorf("error opening ports: %w. Maybe try instead: %+v", err, names)
			}

			return nil, nil, fmt.Errorf("error opening ports: %w", err)
		}

		ins := make([]io.Reader, len(readers))
		for i, r := range readers {
			ins[i] = r
		}

		closer := func() {
			for _, r := range readers {
				if err := r.Close(); err != nil {
					slog.WarnContext(ctx, "could not close port", "error", err)
				}
			}
		}

		return ports.ReadFiles(ins...), closer, nil
	}

	return ports.DefaultMonitor().Channel(ctx), func() {}, nil
}

func (s *ZMKSource) Start(ctx context.Context, q *Queue) error {
	if s.now == nil {
		s.now = time.Now
	}

	if s.run.running() {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)

	lines, closer, err := s.lines(runCtx)
	if err != nil {
		cancel()

		return err
	}

	err = s.run.start(runCtx, func(ctx context.Context) {
		defer cancel()
		defer closer()

		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-lines:
				if !ok {
					slog.InfoContext(ctx, "ZMK console closed")

					return
				}

				guard(s.Name(), func() { s.handleLine(line, q) })
			}
		}
	})
	if err != nil {
		cancel()
		closer()
	}

	return err
}

func (s *ZMKSource) handleLine(line string, q *Queue) {
	ev, err := parser.ParseLine(line)
	if err != nil {
		slog.DebugContext(ctx, "unparsable ZMK line", "line", line, "error", err)

		return
	}

	if ev == nil || !ev.Pressed {
		return
	}

	ch, ok := s.Char(*ev)
	if !ok {
		slog.DebugContext(ctx, "matrix position outside the layout", "row", ev.Row, "col", ev.Col)

		return
	}

	emit(q, ch, s.now())
}

func (s *ZMKSource) Stop() error {
	s.run.stop()

	return nil
}

// Running reports whether the console is still being read.
func (s *ZMKSource) Running() bool {
	return s.run.running()
}
