package zjoin

import (
	"log/slog"
	"sync/atomic"
)

var (
	discardLogger = slog.New(slog.DiscardHandler)
	packageLogger atomic.Pointer[slog.Logger]
)

// SetLogger sets the logger new models start with. Passing nil restores
// slog.Default.
func SetLogger(l *slog.Logger) {
	packageLogger.Store(l)
}

func defaultLogger() *slog.Logger {
	if l := packageLogger.Load(); l != nil {
		return l
	}
	return slog.Default().With("component", "zjoin")
}
