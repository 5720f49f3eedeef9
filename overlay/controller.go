// Package overlay ties the input queue, key state, renderer and native window
// together and hosts the fyne user interface.
package overlay

import (
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/dasdy/keyoverlay/config"
	"github.com/dasdy/keyoverlay/keylog"
	"github.com/dasdy/keyoverlay/keystate"
	"github.com/dasdy/keyoverlay/layout"
	"github.com/dasdy/keyoverlay/logging"
	"github.com/dasdy/keyoverlay/model"
	"github.com/dasdy/keyoverlay/platform"
	"github.com/dasdy/keyoverlay/render"
)

var ctx = logging.PackageCtx("overlay")

const (
	// TickInterval is the animation period.
	TickInterval = 16 * time.Millisecond
	// LayoutPollInterval is how often the active input language is queried.
	LayoutPollInterval = 200 * time.Millisecond

	opacityEpsilon = 0.002
)

// Controller is the display independent part of the overlay. Everything but
// the queue it drains is only touched from the UI goroutine.
type Controller struct {
	cfg     *config.Config
	tables  *layout.Tables
	engine  *keystate.Engine
	opacity *keystate.Opacity
	queue   *keylog.Queue
	stats   chan<- model.PressEvent
	shim    platform.Shim
	painter *render.Painter

	active       layout.Name
	layoutPoll   time.Time
	appliedAlpha float64
	drag         bool
	x, y         int
}

// NewController builds a controller around cfg. stats may be nil.
func NewController(cfg *config.Config, queue *keylog.Queue, shim platform.Shim, painter *render.Painter,
	stats chan<- model.PressEvent, now time.Time,
) *Controller {
	return &Controller{
		cfg:          cfg,
		tables:       layout.DefaultTables(),
		engine:       keystate.NewEngine(now),
		opacity:      keystate.NewOpacity(cfg.MaxAlpha),
		queue:        queue,
		stats:        stats,
		shim:         shim,
		painter:      painter,
		active:       layout.English,
		appliedAlpha: -1,
	}
}

func (c *Controller) Config() *config.Config { return c.cfg }

func (c *Controller) Engine() *keystate.Engine { return c.engine }

func (c *Controller) Layout() layout.Name { return c.active }

func (c *Controller) Alpha() float64 { return c.opacity.Current }

// Position is the last origin handed to the window.
func (c *Controller) Position() (int, int) { return c.x, c.y }

// SetShim swaps the native window backend, e.g. once the window exists.
func (c *Controller) SetShim(shim platform.Shim) {
	c.shim = shim
	c.appliedAlpha = -1
}

// Tick runs one animation step and returns the frame to show.
func (c *Controller) Tick(now time.Time) (*image.RGBA, error) {
	c.pollLayout(now)
	c.drain(now)

	c.engine.Advance(now, c.cfg.KeyFadeDurationValue())
	c.stepOpacity(now)

	frame := render.Plan(c.cfg, c.tables, c.active)
	levels := render.Levels(frame, c.engine.Snapshot(), c.tables.Mapping, c.active)

	return c.painter.Paint(c.cfg, frame, levels)
}

// pollLayout follows the OS input language. Pressed keys survive a switch.
func (c *Controller) pollLayout(now time.Time) {
	if !c.layoutPoll.IsZero() && now.Sub(c.layoutPoll) < LayoutPollInterval {
		return
	}

	c.layoutPoll = now

	if detected := c.shim.DetectLayout(); detected != c.active {
		slog.DebugContext(ctx, "layout changed", "from", c.active, "to", detected)
		c.active = detected
	}
}

func (c *Controller) drain(now time.Time) {
	c.queue.Drain(func(ev model.PressEvent) {
		if ev.At.IsZero() {
			ev.At = now
		}

		c.engine.RecordPress(ev.Char, ev.At)

		if c.stats == nil {
			return
		}

		select {
		case c.stats <- ev:
		default:
			slog.DebugContext(ctx, "statistics backlog full, dropping press")
		}
	})
}

func (c *Controller) stepOpacity(now time.Time) {
	target := keystate.IdleOpacity(now, c.engine.LastActivity(), keystate.IdleParams{
		IdleTimeout:  c.cfg.IdleTimeoutDuration(),
		FadeDuration: c.cfg.FadeDurationValue(),
		MinAlpha:     c.cfg.MinAlpha,
		MaxAlpha:     c.cfg.MaxAlpha,
	})

	alpha := c.opacity.Step(target)
	if math.Abs(alpha-c.appliedAlpha) < opacityEpsilon {
		return
	}

	if err := c.shim.SetOpacity(alpha); err != nil {
		slog.DebugContext(ctx, "could not set opacity", "error", err)

		return
	}

	c.appliedAlpha = alpha
}

// ApplyGeometry moves the window to its configured place and restores
// click-through unless the user is dragging.
func (c *Controller) ApplyGeometry() {
	screenW, screenH, err := c.shim.ScreenSize()
	if err != nil {
		slog.WarnContext(ctx, "screen size unknown, assuming 1920x1080", "error", err)

		screenW, screenH = 1920, 1080
	}

	c.x, c.y = platform.Anchor(c.cfg.Position, c.cfg.CustomX, c.cfg.CustomY, screenW, screenH, c.cfg.Width, c.cfg.Height)

	if err := c.shim.SetGeometry(c.x, c.y, c.cfg.Width, c.cfg.Height); err != nil {
		slog.WarnContext(ctx, "could not place overlay", "error", err)
	}

	c.applyClickThrough()
}

func (c *Controller) applyClickThrough() {
	if err := c.shim.SetClickThrough(!c.drag); err != nil {
		slog.DebugContext(ctx, "click-through unavailable", "error", err)
	}
}

// SetConfig replaces the live settings with a sanitized cfg and reapplies
// geometry and the opacity ceiling.
func (c *Controller) SetConfig(cfg *config.Config) {
	cfg.Sanitize()

	c.cfg = cfg
	c.opacity.Cap(cfg.MaxAlpha)
	c.appliedAlpha = -1

	c.ApplyGeometry()
}

// SetDragMode turns window dragging on or off. Only DragEnd pins the window.
func (c *Controller) SetDragMode(on bool) {
	if c.drag == on {
		return
	}

	c.drag = on
	c.applyClickThrough()
}

func (c *Controller) DragMode() bool { return c.drag }

// DragBy moves the window while drag mode is on.
func (c *Controller) DragBy(dx, dy int) {
	if !c.drag {
		return
	}

	c.x += dx
	c.y += dy

	if err := c.shim.SetGeometry(c.x, c.y, c.cfg.Width, c.cfg.Height); err != nil {
		slog.DebugContext(ctx, "could not move overlay", "error", err)
	}
}

// DragEnd records the dropped position as custom coordinates.
func (c *Controller) DragEnd() {
	if !c.drag {
		return
	}

	c.cfg.SetCustom(c.x, c.y)
}

// ResetPosition forgets dragged coordinates. A custom position falls back to bottom.
func (c *Controller) ResetPosition(position config.Position) {
	if position == config.PositionCustom {
		position = config.PositionBottom
	}

	c.cfg.SetPosition(position)
	c.ApplyGeometry()
}
