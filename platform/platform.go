// Package platform hides the OS specific window and keyboard layout calls
// behind a small interface.
package platform

import (
	"errors"

	"github.com/dasdy/keyoverlay/config"
	"github.com/dasdy/keyoverlay/layout"
	"github.com/dasdy/keyoverlay/logging"
)

var ctx = logging.PackageCtx("platform")

// ErrUnsupported is returned by Open on platforms without a native shim.
var ErrUnsupported = errors.New("no native window support on this platform")

// Margin is the gap between an anchored window and the screen edge.
const Margin = 10

// Shim is the set of native window operations the overlay needs.
type Shim interface {
	Name() string
	SetGeometry(x, y, w, h int) error
	SetClickThrough(enabled bool) error
	SetOpacity(alpha float64) error
	ScreenSize() (int, int, error)
	DetectLayout() layout.Name
	Close() error
}

// Anchor computes the window origin for position. Explicit coordinates win
// when both are set.
func Anchor(position config.Position, customX, customY *int, screenW, screenH, w, h int) (int, int) {
	if customX != nil && customY != nil {
		return *customX, *customY
	}

	centreX := floorDiv(screenW-w, 2)
	centreY := floorDiv(screenH-h, 2)

	switch position {
	case config.PositionRight:
		return screenW - w - Margin, centreY
	case config.PositionLeft:
		return Margin, centreY
	case config.PositionTop:
		return centreX, Margin
	case config.PositionBottom:
		return centreX, screenH - h - Margin
	default:
		return centreX, centreY
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

// Noop is used when no native shim is available. Geometry calls are
// remembered so the caller can still query them.
type Noop struct {
	X, Y, W, H   int
	ClickThrough bool
	Alpha        float64
	Screen       [2]int
	Layout       layout.Name
}

func NewNoop() *Noop {
	return &Noop{Screen: [2]int{1920, 1080}, Layout: layout.English, Alpha: 1}
}

func (n *Noop) Name() string { return "none" }

func (n *Noop) SetGeometry(x, y, w, h int) error {
	n.X, n.Y, n.W, n.H = x, y, w, h

	return nil
}

func (n *Noop) SetClickThrough(enabled bool) error {
	n.ClickThrough = enabled

	return nil
}

func (n *Noop) SetOpacity(alpha float64) error {
	n.Alpha = alpha

	return nil
}

func (n *Noop) ScreenSize() (int, int, error) {
	return n.Screen[0], n.Screen[1], nil
}

func (n *Noop) DetectLayout() layout.Name {
	return n.Layout
}

func (n *Noop) Close() error { return nil }
