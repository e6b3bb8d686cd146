// Package logx configures the process-wide zerolog logger. The TUI owns
// stdout, so logs go to a file; level and destination come from config.
package logx

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(io.Discard)
)

// Setup opens the log file and installs the global logger. Passing an empty
// path keeps logging disabled (the default), which suits tests.
func Setup(level, path string) (io.Closer, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	var w io.Writer = io.Discard
	var closer io.Closer
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
		closer = f
	}
	mu.Lock()
	logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()
	return closer, nil
}

// SetOutput redirects the global logger, used by tests to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	mu.Unlock()
}

// L returns the global logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}
