package platform

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dasdy/keyoverlay/layout"
	"github.com/godbus/dbus/v5"
)

const (
	fcitxService   = "org.fcitx.Fcitx5"
	fcitxPath      = dbus.ObjectPath("/controller")
	fcitxInterface = "org.fcitx.Fcitx.Controller1"
)

type caller interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Fcitx asks a running fcitx5 for the active input method over the session bus.
type Fcitx struct {
	obj    caller
	failed bool
}

func NewFcitx() (*Fcitx, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	return &Fcitx{obj: conn.Object(fcitxService, fcitxPath)}, nil
}

func (f *Fcitx) CurrentInputMethod() (string, error) {
	var name string

	if err := f.obj.Call(fcitxInterface+".CurrentInputMethod", 0).Store(&name); err != nil {
		return "", fmt.Errorf("fcitx current input method: %w", err)
	}

	return name, nil
}

// Detect returns the layout of the active input method, or English when
// fcitx can't be asked. Only the first failure is logged.
func (f *Fcitx) Detect() layout.Name {
	name, err := f.CurrentInputMethod()
	if err != nil {
		if !f.failed {
			slog.WarnContext(ctx, "layout detection unavailable, assuming en", "error", err)
		}

		f.failed = true

		return layout.English
	}

	f.failed = false

	return LayoutFromInputMethod(name)
}

// LayoutFromInputMethod maps fcitx input method names such as
// "keyboard-ru" or "keyboard-us-intl" onto a layout.
func LayoutFromInputMethod(name string) layout.Name {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "keyboard-")

	lang, _, _ := strings.Cut(name, "-")

	return layout.ParseName(lang)
}
