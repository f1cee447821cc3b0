package internal

import (
	"log"
	"os"
	"strings"
)

// LogLevel controls how chatty a Logger is
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var levelNames = map[LogLevel]string{
	LogLevelError: "ERROR",
	LogLevelWarn:  "WARN",
	LogLevelInfo:  "INFO",
	LogLevelDebug: "DEBUG",
	LogLevelTrace: "TRACE",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INFO"
}

// ParseLogLevel maps ERROR/WARN/INFO/DEBUG/TRACE (any case) to a level.
// Unknown names yield LogLevelInfo and false.
func ParseLogLevel(s string) (LogLevel, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for level, name := range levelNames {
		if name == s {
			return level, true
		}
	}
	return LogLevelInfo, false
}

// Logger writes leveled lines through the standard logger. A component name,
// when set, is printed in brackets after the level.
type Logger struct {
	level     LogLevel
	component string
}

// NewLogger creates a logger at the given level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// NewDefaultLogger reads LOG_LEVEL from the environment
func NewDefaultLogger() *Logger {
	level, _ := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	return &Logger{level: level}
}

// With returns a copy of the logger tagged with component
func (l *Logger) With(component string) *Logger {
	return &Logger{level: l.level, component: component}
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if l == nil || l.level < level {
		return
	}
	prefix := "[" + level.String() + "] "
	if l.component != "" {
		prefix += "[" + l.component + "] "
	}
	log.Printf(prefix+format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) { l.logf(LogLevelError, format, args...) }
func (l *Logger) Warn(format string, args ...interface{}) { l.logf(LogLevelWarn, format, args...) }
func (l *Logger) Info(format string, args ...interface{}) { l.logf(LogLevelInfo, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(LogLevelDebug, format, args...) }
func (l *Logger) Trace(format string, args ...interface{}) { l.logf(LogLevelTrace, format, args...) }

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// DefaultLogger is the process-wide logger
var DefaultLogger = NewDefaultLogger()
