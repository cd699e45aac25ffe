package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Logger handles leveled logging to the console with optional file output.
// Console lines are human readable; file lines are JSON.
type Logger struct {
	Verbose bool

	mu      sync.Mutex
	stdout  zerolog.Logger
	stderr  zerolog.Logger
	file    *zerolog.Logger
	fileLog *os.File
}

// New creates a new Logger writing to stdout and stderr.
func New(verbose bool) *Logger {
	return NewWithWriters(verbose, os.Stdout, os.Stderr)
}

// NewWithWriters creates a Logger writing info/debug/warn to out and errors to errOut.
func NewWithWriters(verbose bool, out, errOut io.Writer) *Logger {
	return &Logger{
		Verbose: verbose,
		stdout:  console(out),
		stderr:  console(errOut),
	}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return NewWithWriters(false, io.Discard, io.Discard)
}

func console(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "15:04:05",
	}).With().Timestamp().Logger()
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(New(false))
}

// Default returns the process-wide logger used by packages that have no
// Logger of their own, such as the field parsers.
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// SetFileLog enables logging to a file
func (l *Logger) SetFileLog(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if l.fileLog != nil {
		l.fileLog.Close()
	}
	zl := zerolog.New(f).With().Timestamp().Logger()
	l.file = &zl
	l.fileLog = f
	return nil
}

// Close closes the log file if open
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLog == nil {
		return nil
	}
	err := l.fileLog.Close()
	l.fileLog = nil
	l.file = nil
	return err
}

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(zerolog.InfoLevel, format, args...)
}

// Debug logs detailed messages only in verbose mode.
// Debug lines always reach the log file when one is set.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(zerolog.DebugLevel, format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(zerolog.WarnLevel, format, args...)
}

// Error logs error messages to stderr
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(zerolog.ErrorLevel, format, args...)
}

func (l *Logger) log(level zerolog.Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case level >= zerolog.ErrorLevel:
		l.stderr.WithLevel(level).Msgf(format, args...)
	case level > zerolog.DebugLevel || l.Verbose:
		l.stdout.WithLevel(level).Msgf(format, args...)
	}

	if l.file != nil {
		l.file.WithLevel(level).Msgf(format, args...)
	}
}
