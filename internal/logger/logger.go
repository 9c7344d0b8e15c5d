package logger

import (
	"errors"
	"io"

	"github.com/aleister1102/faleproxy/internal/config"
	"github.com/rs/zerolog"
)

// Logger owns the process-wide zerolog logger and any open log files.
type Logger struct {
	zerolog zerolog.Logger
	closers []io.Closer
}

// GetZerolog returns the underlying zerolog instance
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zerolog
}

// Close releases file writers, if any
func (l *Logger) Close() error {
	var errs []error
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the logger described by cfg, writing console output to console.
// An invalid level is logged as a warning and replaced by info.
func New(cfg config.LogConfig, console io.Writer) *Logger {
	opts, err := ResolveOptions(cfg)
	l := NewLoggerBuilder(opts).WithConsoleOutput(console).Build()
	if err != nil {
		l.zerolog.Warn().Err(err).Str("log_level", cfg.LogLevel).Msg("Falling back to info level")
	}
	return l
}
