//go:build linux

package platform

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/dasdy/keyoverlay/layout"
)

// X11 drives an overlay window through the X server. Layout detection goes
// through fcitx when it is running.
type X11 struct {
	xu       *xgbutil.XUtil
	win      *xwindow.Window
	hasShape bool
	fcitx    *Fcitx
}

// Open attaches to the X11 window with the given id.
func Open(handle uintptr) (Shim, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	s := &X11{
		xu:  xu,
		win: xwindow.New(xu, xproto.Window(handle)),
	}

	if err := shape.Init(xu.Conn()); err != nil {
		slog.WarnContext(ctx, "shape extension missing, click-through disabled", "error", err)
	} else {
		s.hasShape = true
	}

	if err := ewmh.WmStateReq(xu, s.win.Id, ewmh.StateAdd, "_NET_WM_STATE_ABOVE"); err != nil {
		slog.WarnContext(ctx, "could not keep overlay above other windows", "error", err)
	}

	if err := ewmh.WmStateReq(xu, s.win.Id, ewmh.StateAdd, "_NET_WM_STATE_SKIP_TASKBAR"); err != nil {
		slog.DebugContext(ctx, "could not hide overlay from taskbar", "error", err)
	}

	s.fcitx, err = NewFcitx()
	if err != nil {
		slog.WarnContext(ctx, "no session bus, layout detection disabled", "error", err)
	}

	return s, nil
}

func (s *X11) Name() string { return "x11" }

func (s *X11) SetGeometry(x, y, w, h int) error {
	if err := s.win.WMMoveResize(x, y, w, h); err != nil {
		s.win.MoveResize(x, y, w, h)
	}

	return nil
}

// SetClickThrough empties the input region of the window so pointer events
// reach whatever is below. Disabling restores the default region.
func (s *X11) SetClickThrough(enabled bool) error {
	if !s.hasShape {
		return fmt.Errorf("click-through: %w", ErrUnsupported)
	}

	conn := s.xu.Conn()

	if enabled {
		err := shape.RectanglesChecked(conn, shape.SoSet, shape.SkInput, xproto.ClipOrderingUnsorted,
			s.win.Id, 0, 0, []xproto.Rectangle{}).Check()
		if err != nil {
			return fmt.Errorf("clear input region: %w", err)
		}

		return nil
	}

	err := shape.MaskChecked(conn, shape.SoSet, shape.SkInput, s.win.Id, 0, 0, xproto.PixmapNone).Check()
	if err != nil {
		return fmt.Errorf("restore input region: %w", err)
	}

	return nil
}

func (s *X11) SetOpacity(alpha float64) error {
	if err := ewmh.WmWindowOpacitySet(s.xu, s.win.Id, max(0, min(1, alpha))); err != nil {
		return fmt.Errorf("set window opacity: %w", err)
	}

	return nil
}

func (s *X11) ScreenSize() (int, int, error) {
	geom, err := xwindow.RawGeometry(s.xu, xproto.Drawable(s.xu.RootWin()))
	if err != nil {
		return 0, 0, fmt.Errorf("root geometry: %w", err)
	}

	return geom.Width(), geom.Height(), nil
}

func (s *X11) DetectLayout() layout.Name {
	if s.fcitx == nil {
		return layout.English
	}

	return s.fcitx.Detect()
}

func (s *X11) Close() error {
	s.xu.Conn().Close()

	return nil
}
