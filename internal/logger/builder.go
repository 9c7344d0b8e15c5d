package logger

import (
	"io"
	stdlog "log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// LoggerBuilder assembles the process logger from resolved Options.
type LoggerBuilder struct {
	opts    Options
	console io.Writer
}

// NewLoggerBuilder creates a builder writing to stderr.
func NewLoggerBuilder(opts Options) *LoggerBuilder {
	return &LoggerBuilder{opts: opts, console: os.Stderr}
}

// WithConsoleOutput redirects console output
func (lb *LoggerBuilder) WithConsoleOutput(out io.Writer) *LoggerBuilder {
	if out != nil {
		lb.console = out
	}
	return lb
}

// Build creates the logger, sets the global level and routes the standard
// log package into it.
func (lb *LoggerBuilder) Build() *Logger {
	writers := []io.Writer{newWriter(lb.opts.Format, lb.console, isTerminal(lb.console))}
	var closers []io.Closer

	if lb.opts.FilePath != "" {
		fileWriter, closer := newFileWriter(lb.opts)
		writers = append(writers, fileWriter)
		closers = append(closers, closer)
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.opts.Level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(lb.opts.Level)
	stdlog.SetOutput(zl)
	stdlog.SetFlags(0)

	return &Logger{zerolog: zl, closers: closers}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
