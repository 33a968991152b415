// Package log builds the slog loggers the rest of the application receives
// through constructors.
//
// There is no package-level logger here. Each component takes a log.Logger
// as a dependency and scopes it with With, so log output always names the
// component it came from:
//
//	logger := log.New(log.Config{JSON: true})
//	store := restaurant.NewStore(pool, logger.With("component", "store"))
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger aliases *slog.Logger so components depend on the standard type
// without importing slog everywhere the alias reads better.
type Logger = *slog.Logger

// Config selects the handler and verbosity for a new logger.
type Config struct {
	// Level is the minimum level emitted. Zero value: slog.LevelInfo.
	Level slog.Level

	// JSON switches from the text handler to the JSON handler.
	JSON bool

	// AddSource annotates records with file:line.
	AddSource bool
}

// New returns a logger writing to stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter returns a logger writing to w. Tests pass a bytes.Buffer
// here to assert on output.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewNop returns a logger that discards everything. Test use only;
// production wiring always passes a real logger.
func NewNop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
