package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Logger defines a minimal, printf-style logging contract. Components depend
// on this interface rather than a concrete logger so tests can inject a nop
// or recording implementation.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// sink is the shared destination for every component logger.
type sink struct {
	mu    sync.Mutex
	out   *log.Logger
	level Level
}

var (
	defaultSink *sink
	defaultOnce sync.Once
)

func root() *sink {
	defaultOnce.Do(func() {
		defaultSink = &sink{
			out:   log.New(os.Stderr, "", 0),
			level: LevelInfo,
		}
	})
	return defaultSink
}

// SetLevel sets the minimum level for all component loggers.
func SetLevel(level Level) {
	s := root()
	s.mu.Lock()
	s.level = level
	s.mu.Unlock()
}

// SetOutput redirects all component loggers to w.
func SetOutput(w io.Writer) {
	s := root()
	s.mu.Lock()
	s.out = log.New(w, "", 0)
	s.mu.Unlock()
}

// componentLogger tags each line with its owning component.
type componentLogger struct {
	sink      *sink
	component string
}

// NewComponentLogger returns the default application logger scoped to a
// component. All component loggers share one sink and level.
func NewComponentLogger(component string) Logger {
	return &componentLogger{sink: root(), component: component}
}

func (l *componentLogger) log(level Level, format string, args ...any) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < s.level {
		return
	}
	component := l.component
	if component == "" {
		component = "EASEL"
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	s.out.Printf("%s [%s] [%s] %s", timestamp, level, component, message)
}

func (l *componentLogger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

func (l *componentLogger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *componentLogger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

func (l *componentLogger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}
