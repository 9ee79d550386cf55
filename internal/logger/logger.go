// Package logger provides a small leveled logger shared by all binaries.
// Output defaults to stdout with timestamps; levels below the configured
// threshold are dropped.
package logger

import (
	"io"
	"log"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Level is a log severity threshold.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var (
	debugPrintf = color.New(color.FgCyan).SprintfFunc()
	infoPrintf  = color.New(color.FgGreen).SprintfFunc()
	warnPrintf  = color.New(color.FgYellow).SprintfFunc()
	errorPrintf = color.New(color.FgRed).SprintfFunc()
)

type leveledLogger struct {
	mu     sync.Mutex
	logger *log.Logger
	level  Level
}

var defaultLogger = &leveledLogger{
	logger: log.New(os.Stdout, "", log.LstdFlags),
	level:  InfoLevel,
}

// SetLevel sets the minimum severity that will be written.
func SetLevel(level Level) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
}

// SetOutput redirects log output. Color is disabled for non-terminal writers.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.logger = log.New(w, "", log.LstdFlags)
	if f, ok := w.(*os.File); !ok || (f != os.Stdout && f != os.Stderr) {
		color.NoColor = true
	}
}

func (l *leveledLogger) printf(level Level, render func(string, ...interface{}) string, tag, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level > level {
		return
	}
	l.logger.Print(render(tag+format, v...))
}

// Debug logs fine-grained per-cycle detail.
func Debug(format string, v ...interface{}) {
	defaultLogger.printf(DebugLevel, debugPrintf, "[DEBUG] ", format, v...)
}

// Info logs normal operational events.
func Info(format string, v ...interface{}) {
	defaultLogger.printf(InfoLevel, infoPrintf, "[INFO] ", format, v...)
}

// Warn logs recoverable faults (weather fallback, publish while disconnected).
func Warn(format string, v ...interface{}) {
	defaultLogger.printf(WarnLevel, warnPrintf, "[WARN] ", format, v...)
}

// Error logs failures that drop data but keep the process alive.
func Error(format string, v ...interface{}) {
	defaultLogger.printf(ErrorLevel, errorPrintf, "[ERROR] ", format, v...)
}
