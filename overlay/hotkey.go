package overlay

import (
	"context"
	"log/slog"

	"fyne.io/fyne/v2"
	"golang.design/x/hotkey"
)

// listenHotkey toggles the overlay on Ctrl+Shift+K until done is cancelled.
func (a *App) listenHotkey(done context.Context) {
	hk := hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeyK)

	if err := hk.Register(); err != nil {
		slog.WarnContext(ctx, "global hotkey unavailable", "error", err)
		a.setStatus("hotkey", "Hotkey: unavailable")

		return
	}

	defer func() {
		if err := hk.Unregister(); err != nil {
			slog.DebugContext(ctx, "could not release hotkey", "error", err)
		}
	}()

	a.setStatus("hotkey", "Hotkey: Ctrl+Shift+K")

	for {
		select {
		case <-done.Done():
			return
		case <-hk.Keydown():
			fyne.Do(a.ToggleVisible)
		}
	}
}
