package ports

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"slices"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Lister enumerates candidate serial ports.
type Lister func() ([]string, error)

// Monitor polls for ZMK devices and attaches each new one, merging their
// lines into a single channel. Devices that go away are dropped and picked
// up again when they reappear.
type Monitor struct {
	pathToLookup string

	devicesList map[string]io.ReadCloser
	lock        sync.RWMutex

	opener Opener
	lister Lister

	pollingInterval time.Duration
}

func DefaultMonitor() *Monitor {
	return NewMonitor("/dev/", nil, nil)
}

// NewMonitor builds a monitor over pathToLookup. A nil opener or lister
// falls back to the serial port implementations.
func NewMonitor(pathToLookup string, opener Opener, lister Lister) *Monitor {
	if opener == nil {
		opener = Open
	}

	if lister == nil {
		lister = serial.GetPortsList
	}

	return &Monitor{
		pathToLookup:    pathToLookup,
		devicesList:     make(map[string]io.ReadCloser),
		opener:          opener,
		lister:          lister,
		pollingInterval: 5 * time.Second,
	}
}

// SetPollingInterval changes how often new devices are looked for.
func (r *Monitor) SetPollingInterval(d time.Duration) {
	r.pollingInterval = d
}

func (r *Monitor) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for i, device := range r.devicesList {
		if err := device.Close(); err != nil {
			return fmt.Errorf("error closing device %s: %w", i, err)
		}

		delete(r.devicesList, i)
	}

	return nil
}

func (r *Monitor) CloseDevice(devicePath string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	device, exists := r.devicesList[devicePath]
	if !exists {
		slog.DebugContext(ctx, "Device not found in list", "path", devicePath)

		return nil
	}

	delete(r.devicesList, devicePath)

	if err := device.Close(); err != nil {
		return fmt.Errorf("error closing device %s: %w", devicePath, err)
	}

	slog.InfoContext(ctx, "Device closed and removed from list", "path", devicePath)

	return nil
}

// Devices returns the currently attached device paths.
func (r *Monitor) Devices() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	result := make([]string, 0, len(r.devicesList))
	for k := range r.devicesList {
		result = append(result, k)
	}

	slices.Sort(result)

	return result
}

func (r *Monitor) AddDevice(ctx context.Context, devicePath string, out chan<- string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, exists := r.devicesList[devicePath]; exists {
		slog.DebugContext(ctx, "Device already exists, skipping", "path", devicePath)

		return nil
	}

	device, err := r.opener(devicePath)
	if err != nil {
		return fmt.Errorf("error opening device %s: %w", devicePath, err)
	}

	r.devicesList[devicePath] = device

	go func() {
		slog.InfoContext(ctx, "Device loop started", "path", devicePath)

		for line := range ReadFile(device) {
			select {
			case out <- line:
			case <-ctx.Done():
				r.CloseDevice(devicePath)

				return
			}
		}

		slog.InfoContext(ctx, "Device disconnected", "path", devicePath)

		if err := r.CloseDevice(devicePath); err != nil {
			slog.ErrorContext(ctx, "Could not close device", "path", devicePath, "error", err)
		}
	}()

	return nil
}

func (r *Monitor) FindDevices() ([]string, error) {
	slog.DebugContext(ctx, "Finding devices in path:", "pathToLookup", r.pathToLookup)

	newDevices := make(map[string]bool)

	serialDevices, err := r.lister()
	if err != nil {
		slog.WarnContext(ctx, "could not get list of serial ports", "error", err)
	}

	for _, devicePath := range serialDevices {
		if r.shouldOpenDevice(devicePath) {
			newDevices[devicePath] = true
		}
	}

	entries, err := os.ReadDir(r.pathToLookup)
	if err != nil {
		return nil, fmt.Errorf("error reading directory %s: %w", r.pathToLookup, err)
	}

	for _, entry := range entries {
		shouldOpen, devicePath := r.shouldOpenFile(entry)
		if !shouldOpen {
			continue
		}

		newDevices[devicePath] = true
	}

	keys := make([]string, 0, len(newDevices))
	for k := range newDevices {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys, nil
}

// Channel starts polling and returns the merged line stream. Polling and
// all attached devices stop with ctx.
func (r *Monitor) Channel(ctx context.Context) <-chan string {
	slog.InfoContext(ctx, "Starting monitoring", "path", r.pathToLookup)

	outputChan := make(chan string, 5)

	go func() {
		defer slog.InfoContext(ctx, "End monitoring", "path", r.pathToLookup)

		ticker := time.NewTicker(r.pollingInterval)
		defer ticker.Stop()

		for {
			r.attachNew(ctx, outputChan)

			select {
			case <-ctx.Done():
				if err := r.Close(); err != nil {
					slog.ErrorContext(ctx, "could not close devices", "error", err)
				}

				return
			case <-ticker.C:
			}
		}
	}()

	return outputChan
}

func (r *Monitor) attachNew(ctx context.Context, out chan<- string) {
	devices, err := r.FindDevices()
	if err != nil {
		slog.ErrorContext(ctx, "Error finding devices", "error", err)

		return
	}

	for _, devicePath := range devices {
		slog.InfoContext(ctx, "Processing device", "path", devicePath)

		if err := r.AddDevice(ctx, devicePath, out); err != nil {
			slog.ErrorContext(ctx, "Could not add device", "path", devicePath, "error", err)
		}
	}
}

func (r *Monitor) shouldOpenFile(entry os.DirEntry) (bool, string) {
	if entry.IsDir() || entry.Type()&os.ModeDevice == 0 {
		return false, ""
	}

	devicePath := path.Join(r.pathToLookup, entry.Name())

	return r.shouldOpenDevice(devicePath), devicePath
}

func (r *Monitor) shouldOpenDevice(devicePath string) bool {
	if !LooksLikeZMKDevice(devicePath) {
		return false
	}

	r.lock.RLock()
	defer r.lock.RUnlock()

	_, ok := r.devicesList[devicePath]

	return !ok
}
