// Package logger provides component-tagged structured logging for skybridge.
//
// Every call names the component that produced it ("skype", "poll",
// "gateway", ...) so a single log stream can be filtered per subsystem.
// Fields are passed as a plain map to keep call sites free of builder chains.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var (
	mu      sync.RWMutex
	level   = INFO
	backend = newBackend(os.Stderr)
)

func newBackend(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel sets the minimum level that is written.
func SetLevel(l LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// GetLevel returns the current minimum level.
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetOutput redirects log output. Pass os.Stderr to restore the default.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	backend = newBackend(w)
}

// SetConsole switches to zerolog's human-readable console writer.
func SetConsole(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	backend = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
}

func logMessage(l LogLevel, component, message string, fields map[string]any) {
	mu.RLock()
	if l < level {
		mu.RUnlock()
		return
	}
	b := backend
	mu.RUnlock()

	var ev *zerolog.Event
	switch l {
	case DEBUG:
		ev = b.Debug()
	case INFO:
		ev = b.Info()
	case WARN:
		ev = b.Warn()
	default:
		ev = b.Error()
	}
	if component != "" {
		ev = ev.Str("component", component)
	}
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(message)
}

func Debug(message string) { logMessage(DEBUG, "", message, nil) }

func DebugC(component, message string) { logMessage(DEBUG, component, message, nil) }

func DebugCF(component, message string, fields map[string]any) {
	logMessage(DEBUG, component, message, fields)
}

func Info(message string) { logMessage(INFO, "", message, nil) }

func InfoC(component, message string) { logMessage(INFO, component, message, nil) }

func InfoCF(component, message string, fields map[string]any) {
	logMessage(INFO, component, message, fields)
}

func WarnC(component, message string) { logMessage(WARN, component, message, nil) }

func WarnCF(component, message string, fields map[string]any) {
	logMessage(WARN, component, message, fields)
}

func Error(message string) { logMessage(ERROR, "", message, nil) }

func ErrorC(component, message string) { logMessage(ERROR, component, message, nil) }

func ErrorCF(component, message string, fields map[string]any) {
	logMessage(ERROR, component, message, fields)
}
