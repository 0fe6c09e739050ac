package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/killallgit/streamir/pkg/config"
	"github.com/rs/zerolog"
)

// LogLevel is the minimum severity a Logger writes.
type LogLevel = zerolog.Level

const (
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
	LevelError = zerolog.ErrorLevel
)

// Logger writes leveled JSON lines.
//
// A Logger from the package-level WithComponent is not bound to an output:
// each call goes to whatever default logger is installed at that moment, and
// is dropped when there is none.
type Logger struct {
	zl        zerolog.Logger
	out       io.Writer
	closer    io.Closer
	bound     bool
	component string
}

var (
	mu            sync.RWMutex
	defaultLogger *Logger
)

// Init installs the default logger from the loaded config. The log file is
// resolved against the settings directory and errors are echoed to stderr.
// Calling Init again is a no-op until Close.
func Init() error {
	mu.RLock()
	ready := defaultLogger != nil
	mu.RUnlock()
	if ready {
		return nil
	}

	settings := config.Get().Logging
	l, err := New(ParseLevel(settings.Level), settings.LogFile, settings.Preserve)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	l.zl = l.zl.Output(zerolog.MultiLevelWriter(l.out, stderrErrors()))

	SetDefault(l)
	return nil
}

// New opens logFile and returns a Logger writing to it. With persist set the
// file is appended to, otherwise it is truncated.
func New(level LogLevel, logFile string, persist bool) (*Logger, error) {
	path := config.ResolvePath(logFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if persist {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWriter(level, file)
	l.closer = file
	return l, nil
}

// NewWriter returns a Logger writing to w. Close does not close w.
func NewWriter(level LogLevel, w io.Writer) *Logger {
	return &Logger{
		zl:    zerolog.New(w).Level(level).With().Timestamp().Logger(),
		out:   w,
		bound: true,
	}
}

// errorFilter passes only error lines, rendered for a terminal.
type errorFilter struct {
	zerolog.ConsoleWriter
}

func (f errorFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return f.ConsoleWriter.Write(p)
}

func stderrErrors() zerolog.LevelWriter {
	return errorFilter{zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}}
}

// ParseLevel maps a config level name to a LogLevel. Unknown names give
// LevelInfo.
func ParseLevel(name string) LogLevel {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		return LevelWarn
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return LevelInfo
	}
	return level
}

// SetDefault installs l as the package-level logger.
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// WithComponent returns a component logger bound to the default logger.
func WithComponent(name string) *Logger {
	return &Logger{component: name}
}

// WithComponent returns a copy of l tagging every line with name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl, out: l.out, bound: l.bound, component: name}
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) target() *Logger {
	if l.bound {
		return l
	}
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func (l *Logger) write(level LogLevel, format string, args ...any) {
	out := l.target()
	if out == nil {
		return
	}
	ev := out.zl.WithLevel(level)
	if ev == nil {
		return
	}
	if l.component != "" {
		ev = ev.Str("component", l.component)
	}
	ev.Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) { l.write(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.write(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.write(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.write(LevelError, format, args...) }

// SetOutput redirects the default logger, keeping its level. The installed
// Logger is replaced, never modified, since writers read it unlocked.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		return
	}
	next := *defaultLogger
	next.zl = next.zl.Output(w)
	next.out = w
	defaultLogger = &next
}

// Close closes and removes the default logger.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		return nil
	}
	err := defaultLogger.Close()
	defaultLogger = nil
	return err
}
