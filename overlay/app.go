package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/driver"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/dasdy/keyoverlay/config"
	"github.com/dasdy/keyoverlay/db"
	"github.com/dasdy/keyoverlay/keylog"
	"github.com/dasdy/keyoverlay/model"
	"github.com/dasdy/keyoverlay/platform"
	"github.com/dasdy/keyoverlay/render"
)

const (
	appID         = "io.github.dasdy.keyoverlay"
	statsBacklog  = 1024
	trayIconPerms = 0o644
)

// Options describes everything the overlay needs from the command line.
type Options struct {
	ConfigPath string
	ThemesPath string
	Sources    []keylog.Source
	Queue      *keylog.Queue
	// Storage is optional. When set, every press is also counted there.
	Storage db.Storage
	Tracker db.Tracker
	Hotkey  bool
	Verbose bool
}

// App is the fyne front end around a Controller.
type App struct {
	opts Options

	fyne     fyne.App
	window   fyne.Window
	image    *canvas.Image
	ctrl     *Controller
	painter  *render.Painter
	themes   config.Themes
	settings *Settings

	status    binding.String
	statusMu  sync.Mutex
	statusMap map[string]string

	ctx     context.Context
	cancel  context.CancelFunc
	stats   chan model.PressEvent
	workers sync.WaitGroup

	hidden    bool
	paintErr  bool
	closeOnce sync.Once
}

// Run builds the overlay and blocks until the user quits.
func Run(opts Options) error {
	a, err := New(opts)
	if err != nil {
		return err
	}

	a.window.Show()
	a.fyne.Run()
	a.shutdown()

	return nil
}

func New(opts Options) (*App, error) {
	if opts.Queue == nil {
		opts.Queue = keylog.NewQueue(keylog.DefaultQueueSize)
	}

	painter, err := render.NewPainter()
	if err != nil {
		return nil, fmt.Errorf("prepare renderer: %w", err)
	}

	cfg := config.Load(opts.ConfigPath)
	cfg.Sanitize()

	a := &App{
		opts:      opts,
		fyne:      app.NewWithID(appID),
		painter:   painter,
		themes:    config.LoadThemesOrEmpty(opts.ThemesPath),
		status:    binding.NewString(),
		statusMap: map[string]string{},
	}

	a.ctx, a.cancel = context.WithCancel(context.Background())

	if opts.Storage != nil {
		a.stats = make(chan model.PressEvent, statsBacklog)
	}

	a.ctrl = NewController(cfg, opts.Queue, platform.NewNoop(), painter, a.stats, time.Now())

	a.window = a.newOverlayWindow()
	a.settings = newSettings(a)

	a.fyne.Lifecycle().SetOnStarted(a.started)

	return a, nil
}

func (a *App) Controller() *Controller { return a.ctrl }

func (a *App) newOverlayWindow() fyne.Window {
	var w fyne.Window
	if drv, ok := a.fyne.Driver().(desktop.Driver); ok {
		w = drv.CreateSplashWindow()
	} else {
		w = a.fyne.NewWindow("Keyboard Overlay")
	}

	cfg := a.ctrl.Config()

	a.image = canvas.NewImageFromImage(nil)
	a.image.FillMode = canvas.ImageFillStretch
	a.image.ScaleMode = canvas.ImageScalePixels

	w.SetPadded(false)
	w.SetContent(newDragSurface(a.image, a.ctrl))
	w.Resize(fyne.NewSize(float32(cfg.Width), float32(cfg.Height)))
	w.SetCloseIntercept(a.Quit)

	return w
}

// started runs on the UI thread once the driver is up.
func (a *App) started() {
	a.attachShim()
	a.setupTray()
	a.startInput()
	a.watchConfig()

	if a.opts.Hotkey {
		go a.listenHotkey(a.ctx)
	}

	go a.animate(a.ctx)
}

func (a *App) attachShim() {
	nw, ok := a.window.(driver.NativeWindow)
	if !ok {
		a.setStatus("window", "Window: native controls unavailable")
		a.ctrl.ApplyGeometry()

		return
	}

	nw.RunNative(func(native any) {
		handle, ok := nativeHandle(native)
		if !ok {
			a.setStatus("window", fmt.Sprintf("Window: unsupported backend %T", native))
			a.ctrl.ApplyGeometry()

			return
		}

		shim, err := platform.Open(handle)
		if err != nil {
			slog.WarnContext(ctx, "native window controls unavailable", "error", err)
			a.setStatus("window", "Window: "+err.Error())
			a.ctrl.ApplyGeometry()

			return
		}

		a.ctrl.SetShim(shim)
		a.ctrl.ApplyGeometry()
		a.setStatus("window", "Window: "+shim.Name())
	})
}

func nativeHandle(native any) (uintptr, bool) {
	switch n := native.(type) {
	case driver.X11WindowContext:
		return n.WindowHandle, true
	case *driver.X11WindowContext:
		return n.WindowHandle, true
	case driver.WindowsWindowContext:
		return n.HWND, true
	case *driver.WindowsWindowContext:
		return n.HWND, true
	default:
		return 0, false
	}
}

func (a *App) animate(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fyne.Do(func() { a.tick(now) })
		}
	}
}

func (a *App) tick(now time.Time) {
	frame, err := a.ctrl.Tick(now)
	if err != nil {
		if !a.paintErr {
			slog.ErrorContext(ctx, "could not paint frame", "error", err)
		}

		a.paintErr = true

		return
	}

	a.paintErr = false

	if a.hidden {
		return
	}

	a.image.Image = frame
	a.image.Refresh()
}

func (a *App) startInput() {
	if a.stats != nil {
		a.workers.Add(1)

		go func() {
			defer a.workers.Done()
			keylog.StatsLoop(a.ctx, a.stats, a.opts.Storage, a.opts.Tracker, a.opts.Verbose)
		}()
	}

	if len(a.opts.Sources) == 0 {
		a.setStatus("input", "Input: no sources configured")

		return
	}

	var running []string

	for _, src := range a.opts.Sources {
		ok, detail := src.Available()
		if !ok {
			slog.WarnContext(ctx, "input source unavailable", "source", src.Name(), "reason", detail)

			continue
		}

		if err := src.Start(a.ctx, a.opts.Queue); err != nil {
			slog.WarnContext(ctx, "could not start input source", "source", src.Name(), "error", err)

			continue
		}

		slog.InfoContext(ctx, "input source started", "source", src.Name(), "detail", detail)
		running = append(running, src.Name())
	}

	if len(running) == 0 {
		a.setStatus("input", "Input: unavailable (see log)")

		return
	}

	a.setStatus("input", "Input: "+strings.Join(running, ", "))
}

func (a *App) stopInput() {
	for _, src := range a.opts.Sources {
		if err := src.Stop(); err != nil && !errors.Is(err, keylog.ErrNotAvailable) {
			slog.DebugContext(ctx, "stopping input source", "source", src.Name(), "error", err)
		}
	}
}

func (a *App) watchConfig() {
	err := config.Watch(a.ctx, a.opts.ConfigPath, func(cfg *config.Config) {
		fyne.Do(func() {
			cfg.Sanitize()

			if reflect.DeepEqual(cfg, a.ctrl.Config()) {
				return
			}

			slog.InfoContext(ctx, "settings changed on disk, reloading", "path", a.opts.ConfigPath)
			a.applyConfig(cfg)
			a.settings.load()
		})
	})
	if err != nil {
		slog.WarnContext(ctx, "settings file will not be watched", "error", err)
	}
}

// applyConfig makes cfg the live configuration. UI thread only.
func (a *App) applyConfig(cfg *config.Config) {
	a.ctrl.SetConfig(cfg)
	a.window.Resize(fyne.NewSize(float32(cfg.Width), float32(cfg.Height)))
}

func (a *App) saveConfig() error {
	if err := config.Save(a.opts.ConfigPath, a.ctrl.Config()); err != nil {
		return fmt.Errorf("save %s: %w", a.opts.ConfigPath, err)
	}

	return nil
}

func (a *App) setupTray() {
	desk, ok := a.fyne.(desktop.App)
	if !ok {
		a.setStatus("tray", "Tray: unavailable")

		return
	}

	icon, err := a.trayIcon()
	if err != nil {
		slog.WarnContext(ctx, "could not prepare tray icon", "error", err)
	}

	quit := fyne.NewMenuItem("Quit", a.Quit)
	quit.IsQuit = true

	desk.SetSystemTrayMenu(fyne.NewMenu("Keyboard Overlay",
		fyne.NewMenuItem("Settings", a.settings.Show),
		fyne.NewMenuItem("Show/Hide overlay", a.ToggleVisible),
		fyne.NewMenuItemSeparator(),
		quit,
	))

	if icon != nil {
		desk.SetSystemTrayIcon(icon)
	}

	// fyne reports no error when the desktop has no tray host.
	a.setStatus("tray", "Tray: requested")
}

// trayIcon reads the configured icon file, creating it from the built-in
// drawing when it does not exist yet.
func (a *App) trayIcon() (fyne.Resource, error) {
	path := config.ResolvePath(a.ctrl.Config().TrayIconPath)

	data, err := os.ReadFile(path)
	if err == nil {
		return fyne.NewStaticResource("tray.png", data), nil
	}

	data, err = a.painter.TrayIcon()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, data, trayIconPerms); err != nil {
		slog.DebugContext(ctx, "could not store tray icon", "path", path, "error", err)
	}

	return fyne.NewStaticResource("tray.png", data), nil
}

// ToggleVisible hides or shows the overlay window. UI thread only.
func (a *App) ToggleVisible() {
	if a.hidden {
		a.hidden = false
		a.window.Show()
		a.ctrl.ApplyGeometry()

		return
	}

	a.hidden = true
	a.window.Hide()
}

// Quit stops input, saves the settings and ends the fyne loop. A failed
// save is shown to the user before the loop ends.
func (a *App) Quit() {
	a.closeOnce.Do(func() {
		a.stopInput()
		a.cancel()

		if err := a.saveConfig(); err != nil {
			slog.ErrorContext(ctx, "could not save settings on exit", "error", err)
			a.settings.reportBlocking(err, a.fyne.Quit)

			return
		}

		a.fyne.Quit()
	})
}

func (a *App) shutdown() {
	a.Quit()
	a.workers.Wait()

	if a.opts.Storage != nil {
		a.opts.Storage.Close()
	}

	if err := a.ctrl.shim.Close(); err != nil {
		slog.DebugContext(ctx, "closing window controls", "error", err)
	}

	slog.InfoContext(ctx, "overlay stopped", "dropped_presses", a.opts.Queue.Dropped())
}

// setStatus updates one part of the status line shown in the settings window.
func (a *App) setStatus(part, text string) {
	a.statusMu.Lock()
	a.statusMap[part] = text

	parts := make([]string, 0, len(statusOrder))
	for _, p := range statusOrder {
		if s, ok := a.statusMap[p]; ok {
			parts = append(parts, s)
		}
	}
	a.statusMu.Unlock()

	if err := a.status.Set(strings.Join(parts, " | ")); err != nil {
		slog.DebugContext(ctx, "status update failed", "error", err)
	}
}

var statusOrder = []string{"tray", "input", "window", "hotkey"}
