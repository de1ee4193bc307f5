package telemetry

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Options configures NewLogger the way this repository's command-line
// entry points configure their logger from log-json/log-debug/log-uid
// flags.
type Options struct {
	JSON    bool
	Debug   bool
	UID     bool
	Service string
}

// NewLogger builds a slog.Logger writing to stderr, JSON or text
// depending on opts, tagged with a service name and, optionally, a
// random request uid carried on every subsequent log line.
func NewLogger(opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.UID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}
