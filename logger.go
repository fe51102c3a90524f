package compositor

import (
	"log/slog"

	"github.com/gogpu/compositor/internal/logx"
)

// SetLogger configures the logger for the compositor and all its
// sub-packages. By default nothing is logged. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by the compositor:
//   - [slog.LevelDebug]: per-frame diagnostics (draw results, pruned passes, scroll routing)
//   - [slog.LevelInfo]: lifecycle events (activation, visibility, GPU raster status)
//   - [slog.LevelWarn]: non-fatal issues (submit failures, evicted resources)
//
// Example:
//
//	compositor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logx.Set(l)
}

// Logger returns the current logger used by the compositor.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logx.L()
}
