// Package logging configures the logrus logger shared by all components.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// TimestampFormat is the clock shown in front of each log line
const TimestampFormat = "15:04:05"

// New returns a logger writing to w at level. Writing to os.Stderr goes
// through a colorable writer so ANSI colors work on Windows consoles too.
func New(w io.Writer, level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)

	formatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: TimestampFormat,
	}
	if f, ok := w.(*os.File); ok && f == os.Stderr {
		logger.SetOutput(colorable.NewColorableStderr())
		formatter.ForceColors = IsTerminal(f)
	} else {
		logger.SetOutput(w)
		formatter.DisableColors = true
	}
	logger.SetFormatter(formatter)
	return logger
}

// IsTerminal reports whether f is an interactive terminal
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsTerminalWriter is IsTerminal for writers that may not be files
func IsTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && IsTerminal(f)
}
