//go:build windows

package platform

import (
	"errors"
	"fmt"

	"github.com/dasdy/keyoverlay/layout"
	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procGetWindowLongW             = user32.NewProc("GetWindowLongW")
	procSetWindowLongW             = user32.NewProc("SetWindowLongW")
	procSetWindowPos               = user32.NewProc("SetWindowPos")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procGetSystemMetrics           = user32.NewProc("GetSystemMetrics")
	procGetKeyboardLayout          = user32.NewProc("GetKeyboardLayout")
)

const (
	wsExLayered     = 0x00080000
	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080

	swpNoActivate = 0x0010
	swpShowWindow = 0x0040

	lwaAlpha = 0x2

	smCxScreen = 0
	smCyScreen = 1
)

var (
	gwlExStyle  = int32(-20)
	hwndTopmost = ^uintptr(0)
)

// Win32 drives the overlay window through user32.
type Win32 struct {
	hwnd uintptr
}

// Open attaches to the window with the given HWND and makes it layered.
func Open(handle uintptr) (Shim, error) {
	if err := procSetLayeredWindowAttributes.Find(); err != nil {
		return nil, fmt.Errorf("user32 unavailable: %w", err)
	}

	s := &Win32{hwnd: handle}

	if err := s.updateExStyle(wsExLayered|wsExToolWindow, 0); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Win32) Name() string { return "win32" }

func (s *Win32) exStyle() uint32 {
	r, _, _ := procGetWindowLongW.Call(s.hwnd, uintptr(gwlExStyle))

	return uint32(r)
}

func (s *Win32) updateExStyle(set, clear uint32) error {
	style := (s.exStyle() | set) &^ clear

	r, _, err := procSetWindowLongW.Call(s.hwnd, uintptr(gwlExStyle), uintptr(style))
	if r == 0 && err != windows.ERROR_SUCCESS {
		return fmt.Errorf("SetWindowLongW: %w", err)
	}

	return nil
}

func (s *Win32) SetGeometry(x, y, w, h int) error {
	r, _, err := procSetWindowPos.Call(s.hwnd, hwndTopmost,
		uintptr(x), uintptr(y), uintptr(w), uintptr(h),
		swpNoActivate|swpShowWindow)
	if r == 0 {
		return fmt.Errorf("SetWindowPos: %w", err)
	}

	return nil
}

func (s *Win32) SetClickThrough(enabled bool) error {
	if enabled {
		return s.updateExStyle(wsExLayered|wsExTransparent, 0)
	}

	return s.updateExStyle(wsExLayered, wsExTransparent)
}

func (s *Win32) SetOpacity(alpha float64) error {
	a := uint8(max(0, min(1, alpha))*255 + 0.5)

	r, _, err := procSetLayeredWindowAttributes.Call(s.hwnd, 0, uintptr(a), lwaAlpha)
	if r == 0 {
		return fmt.Errorf("SetLayeredWindowAttributes: %w", err)
	}

	return nil
}

func (s *Win32) ScreenSize() (int, int, error) {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)

	if w == 0 || h == 0 {
		return 0, 0, errors.New("GetSystemMetrics returned an empty screen")
	}

	return int(w), int(h), nil
}

// DetectLayout reads the input language of the foreground window's thread.
func (s *Win32) DetectLayout() layout.Name {
	hwnd := windows.GetForegroundWindow()

	var pid uint32

	tid, err := windows.GetWindowThreadProcessId(hwnd, &pid)
	if err != nil {
		return layout.English
	}

	hkl, _, _ := procGetKeyboardLayout.Call(uintptr(tid))

	return LayoutFromLangID(uint16(hkl & 0xffff))
}

func (s *Win32) Close() error { return nil }
