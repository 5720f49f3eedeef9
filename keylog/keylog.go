package keylog

import (
	"context"
	"log/slog"

	"github.com/dasdy/keyoverlay/db"
	"github.com/dasdy/keyoverlay/model"
)

// StatsLoop records every press from events into storage and tracker until
// ctx is done or events is closed. Failed writes are logged and skipped.
func StatsLoop(ctx context.Context, events <-chan model.PressEvent, storage db.Storage, tracker db.Tracker, enableLogs bool) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				slog.InfoContext(ctx, "press stream closed, stopping statistics")

				return
			}

			if enableLogs {
				slog.DebugContext(ctx, "Event!", "char", string(ev.Char), "at", ev.At)
			}

			if err := storage.Store(ev); err != nil {
				slog.WarnContext(ctx, "could not store press", "error", err)
			}

			if tracker != nil {
				tracker.HandleKeyNow(ev.Char, enableLogs)
			}
		case <-ctx.Done():
			slog.InfoContext(ctx, "Received done, bailing out")

			return
		}
	}
}
