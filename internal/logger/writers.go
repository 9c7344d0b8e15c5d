package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ComponentField names the part of faleproxy that emitted a record.
const ComponentField = "component"

// Component derives a sub-logger tagged with name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(ComponentField, name).Logger()
}

// newWriter renders records for out in the given format.
func newWriter(format Format, out io.Writer, color bool) io.Writer {
	switch format {
	case FormatJSON:
		return out
	case FormatText:
		return consoleWriter(out, false)
	default:
		return consoleWriter(out, color)
	}
}

// consoleWriter prints "[Component] message" so the emitting part of the
// pipeline leads each human-readable line.
func consoleWriter(out io.Writer, color bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           out,
		TimeFormat:    time.RFC3339,
		NoColor:       !color,
		FormatPrepare: prefixComponent,
	}
}

func prefixComponent(evt map[string]interface{}) error {
	component, ok := evt[ComponentField].(string)
	if !ok || component == "" {
		return nil
	}
	delete(evt, ComponentField)

	msg, _ := evt[zerolog.MessageFieldName].(string)
	evt[zerolog.MessageFieldName] = fmt.Sprintf("[%s] %s", component, msg)
	return nil
}

// newFileWriter opens a size-rotated log file. Files are never colorized.
func newFileWriter(opts Options) (io.Writer, io.Closer) {
	// a failure here surfaces from lumberjack on first write
	_ = os.MkdirAll(filepath.Dir(opts.FilePath), 0755)

	file := &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		LocalTime:  true,
	}
	return newWriter(opts.Format, file, false), file
}
