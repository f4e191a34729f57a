// Package logger is the process-wide logger. Output goes to stderr and,
// after Init, is also appended to a log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	globalLogger = newLogger(os.Stderr)
	logFile      *os.File
	mu           sync.Mutex
)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		TimestampFormat:  "15:04:05.000000",
		DisableQuote:     true,
		QuoteEmptyFields: true,
	})
	return l
}

// Init tees log output into the file at logPath.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger.SetOutput(io.MultiWriter(os.Stderr, f))

	return nil
}

// SetOutput replaces the primary sink. Tests use it to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		w = io.MultiWriter(w, logFile)
	}
	globalLogger.SetOutput(w)
}

// SetVerbose switches debug output on or off.
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()

	if verbose {
		globalLogger.SetLevel(logrus.DebugLevel)
		return
	}
	globalLogger.SetLevel(logrus.InfoLevel)
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger.SetOutput(os.Stderr)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger.Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger.Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger.Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger.Warnf(format, v...)
}
