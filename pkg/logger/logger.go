package logger

import (
	"log"
	"log/slog"
)

// New returns a stdlib logger that forwards to slog at error level, tagged
// with the component name. http.Server.ErrorLog needs this shape.
func New(base *slog.Logger, component string) *log.Logger {
	return slog.NewLogLogger(base.With("component", component).Handler(), slog.LevelError)
}
