package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

var (
	mu       sync.Mutex
	children []*log.Logger
)

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// SetLevel sets the level of Logger and every component logger from a name
// such as "debug" or "WARN". Unknown or empty names fall back to INFO.
func SetLevel(name string) {
	lvl := ParseLevel(name)

	mu.Lock()
	defer mu.Unlock()
	Logger.SetLevel(lvl)
	for _, c := range children {
		c.SetLevel(lvl)
	}
}

// ParseLevel maps a level name to a log.Level, defaulting to InfoLevel.
func ParseLevel(name string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// With returns a component logger tagged with prefix. It follows later
// SetLevel calls.
func With(prefix string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	c := Logger.WithPrefix(prefix)
	children = append(children, c)
	return c
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}
