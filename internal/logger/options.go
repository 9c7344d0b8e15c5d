package logger

import (
	"strings"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"github.com/aleister1102/faleproxy/internal/config"
	"github.com/rs/zerolog"
)

// Format selects how log records are rendered.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
	FormatText    Format = "text"
)

// Options is a config.LogConfig resolved into concrete settings.
type Options struct {
	Level      zerolog.Level
	Format     Format
	FilePath   string // empty disables file output
	MaxSizeMB  int
	MaxBackups int
}

// ResolveOptions maps cfg onto Options. An unknown level falls back to info
// and is reported through the returned error alongside usable Options.
func ResolveOptions(cfg config.LogConfig) (Options, error) {
	opts := Options{
		Level:      zerolog.InfoLevel,
		Format:     parseFormat(cfg.LogFormat),
		FilePath:   strings.TrimSpace(cfg.LogFile),
		MaxSizeMB:  positiveOr(cfg.MaxLogSizeMB, config.DefaultMaxLogSizeMB),
		MaxBackups: positiveOr(cfg.MaxLogBackups, config.DefaultMaxLogBackups),
	}

	levelStr := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if levelStr == "" {
		return opts, nil
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return opts, errorwrapper.WrapError(err, "invalid log level")
	}
	opts.Level = level
	return opts, nil
}

// parseFormat treats anything unrecognised as console.
func parseFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText:
		return f
	default:
		return FormatConsole
	}
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
