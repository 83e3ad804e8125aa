// Package pyhlog provides the package-wide structured logger. The reference
// client configures Python's logging module once at import time from the
// PHY_LOG environment variable; this package mirrors that with a
// slog.Logger set up the same way.
package pyhlog

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger     *slog.Logger
	loggerOnce sync.Once
)

var levelNames = map[string]slog.Level{
	"CRITICAL": slog.LevelError + 4,
	"ERROR":    slog.LevelError,
	"WARNING":  slog.LevelWarn,
	"INFO":     slog.LevelInfo,
	"DEBUG":    slog.LevelDebug,
}

// SetLogger installs a custom logger. Call it before the first call that
// would otherwise trigger the PHY_LOG-derived default, typically during
// process init.
func SetLogger(l *slog.Logger) {
	logger = l
}

// Logger returns the configured logger, building the PHY_LOG-derived
// default on first use if none was set via SetLogger.
func Logger() *slog.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = defaultLogger()
		}
	})
	return logger
}

func defaultLogger() *slog.Logger {
	level, ok := levelNames[strings.ToUpper(os.Getenv("PHY_LOG"))]
	if !ok {
		level = slog.LevelWarn
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("component", "pyhystrix")
}
