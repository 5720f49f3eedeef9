//go:build linux

package keylog

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// inputEvent matches the kernel input_event struct.
type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// EvdevSource reads key presses straight from /dev/input keyboards. It needs
// read access to the devices (root or the input group).
type EvdevSource struct {
	run runner
}

func NewPlatformSource() Source {
	return &EvdevSource{}
}

func (s *EvdevSource) Name() string { return "evdev" }

func (s *EvdevSource) Available() (bool, string) {
	devices, err := findKeyboardDevices()
	if err != nil {
		return false, fmt.Sprintf("cannot find keyboard devices: %v", err)
	}

	if len(devices) == 0 {
		return false, "no keyboard devices found"
	}

	for _, dev := range devices {
		f, err := os.OpenFile(dev, os.O_RDONLY, 0)
		if err == nil {
			f.Close()

			return true, fmt.Sprintf("found keyboard device: %s", dev)
		}
	}

	return false, "cannot read keyboard devices (need to be in 'input' group or run as root)"
}

func (s *EvdevSource) Start(ctx context.Context, q *Queue) error {
	if s.run.running() {
		return ErrAlreadyRunning
	}

	devices, err := findKeyboardDevices()
	if err != nil || len(devices) == 0 {
		return ErrNotAvailable
	}

	files := make([]*os.File, 0, len(devices))

	for _, dev := range devices {
		f, err := os.OpenFile(dev, os.O_RDONLY, 0)
		if err != nil {
			slog.DebugContext(ctx, "skipping keyboard device", "path", dev, "error", err)

			continue
		}

		files = append(files, f)
	}

	if len(files) == 0 {
		return fmt.Errorf("open keyboard devices: %w", ErrNotAvailable)
	}

	return s.run.start(ctx, func(ctx context.Context) {
		var wg sync.WaitGroup

		for _, f := range files {
			wg.Add(1)

			go func() {
				defer wg.Done()

				s.readDevice(ctx, f, q)
			}()
		}

		<-ctx.Done()

		// Closing unblocks the pending reads.
		for _, f := range files {
			f.Close()
		}

		wg.Wait()
	})
}

func (s *EvdevSource) readDevice(ctx context.Context, f *os.File, q *Queue) {
	buf := make([]byte, binary.Size(inputEvent{}))

	for {
		n, err := f.Read(buf)
		if err != nil {
			if ctx.Err() == nil {
				slog.WarnContext(ctx, "keyboard device read failed", "path", f.Name(), "error", err)
			}

			return
		}

		if n < len(buf) {
			continue
		}

		guard(s.Name(), func() {
			if ch, ok := pressedRune(buf); ok {
				emit(q, ch, time.Now())
			}
		})
	}
}

func (s *EvdevSource) Stop() error {
	s.run.stop()

	return nil
}

// findKeyboardDevices finds /dev/input event devices that report key capabilities.
func findKeyboardDevices() ([]string, error) {
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, fmt.Errorf("read input device list: %w", err)
	}
	defer f.Close()

	seen := make(map[string]bool)

	var (
		devices        []string
		currentHandler string
		isKeyboard     bool
	)

	add := func(dev string) {
		if !seen[dev] {
			seen[dev] = true
			devices = append(devices, dev)
		}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "H: Handlers="):
			for _, part := range strings.Fields(line) {
				if strings.HasPrefix(part, "event") {
					currentHandler = "/dev/input/" + part
				}
			}

			// Keyboards register a kbd handler next to their event node.
			isKeyboard = isKeyboard || strings.Contains(line, "kbd")
		case strings.HasPrefix(line, "B: EV="):
			ev := strings.TrimPrefix(line, "B: EV=")
			// Real keyboards report EV_SYN, EV_KEY, EV_MSC and usually EV_REP.
			isKeyboard = isKeyboard && strings.HasSuffix(ev, "13")
		case line == "":
			if isKeyboard && currentHandler != "" {
				add(currentHandler)
			}

			currentHandler = ""
			isKeyboard = false
		}
	}

	if isKeyboard && currentHandler != "" {
		add(currentHandler)
	}

	matches, _ := filepath.Glob("/dev/input/by-id/*-event-kbd")
	for _, m := range matches {
		if resolved, err := filepath.EvalSymlinks(m); err == nil {
			add(resolved)
		}
	}

	return devices, nil
}
