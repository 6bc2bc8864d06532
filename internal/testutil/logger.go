package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards everything, for test
// construction of runtimes and servers.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
