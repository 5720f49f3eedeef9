package ports

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dasdy/keyoverlay/logging"
	"go.bug.st/serial"
)

var ctx = logging.PackageCtx("ports")

// Opener opens a device for line reading.
type Opener func(path string) (io.ReadCloser, error)

// Open opens a ZMK serial console.
func Open(path string) (io.ReadCloser, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: 9600,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	// TODO make this configurable.
	if err := port.SetReadTimeout(10 * time.Hour); err != nil {
		slog.WarnContext(ctx, "could not set read timeout", "path", path, "error", err)
	}

	return port, nil
}

// OpenAll opens every path, closing the ones already opened on failure.
func OpenAll(paths []string, opener Opener) ([]io.ReadCloser, error) {
	if opener == nil {
		opener = Open
	}

	result := make([]io.ReadCloser, 0, len(paths))

	for _, p := range paths {
		r, err := opener(p)
		if err != nil {
			for _, opened := range result {
				opened.Close()
			}

			return nil, err
		}

		result = append(result, r)
	}

	return result, nil
}

// ReadFile reads r line by line. The channel is closed once r is exhausted.
func ReadFile(r io.Reader) <-chan string {
	return ReadFiles(r)
}

// ReadTwoFiles reads from two files at the same time line by line.
func ReadTwoFiles(f1, f2 io.Reader) <-chan string {
	return ReadFiles(f1, f2)
}

// ReadFiles merges the lines of every reader into one channel, which is
// closed when all readers are exhausted.
func ReadFiles(readers ...io.Reader) <-chan string {
	out := make(chan string)

	var wg sync.WaitGroup

	for _, r := range readers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			scanner := bufio.NewScanner(r)
			for scanner.Scan() {
				out <- scanner.Text()
			}

			if err := scanner.Err(); err != nil {
				slog.DebugContext(ctx, "reader stopped", "error", err)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// LooksLikeZMKDevice reports whether path names a serial console a ZMK
// keyboard would expose (macOS usbmodem or Linux CDC ACM).
func LooksLikeZMKDevice(path string) bool {
	base := filepath.Base(path)
	if filepath.Dir(path) != "/dev" {
		return false
	}

	return strings.HasPrefix(base, "tty.usbmodem") || strings.HasPrefix(base, "ttyACM")
}

// GetAvailableDevices lists serial ports that look like ZMK consoles.
func GetAvailableDevices() ([]string, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("could not get list of serial ports: %w", err)
	}

	result := make([]string, 0, len(names))

	for _, n := range names {
		if LooksLikeZMKDevice(n) {
			result = append(result, n)
		}
	}

	return result, nil
}
