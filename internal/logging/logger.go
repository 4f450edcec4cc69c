package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger provides structured key-value logging for the worker
type Logger struct {
	prefix string
	bound  []interface{}
	logger *log.Logger
}

// NewLogger creates a new logger with a prefix
func NewLogger(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		logger: log.New(os.Stdout, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// With returns a child logger that prepends the given key-value pairs to
// every message. Useful for binding a job ID once per task.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	child := &Logger{
		prefix: l.prefix,
		logger: l.logger,
	}
	child.bound = append(append(child.bound, l.bound...), keysAndValues...)
	return child
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	kvStr := ""
	pairs := append(append([]interface{}{}, l.bound...), keysAndValues...)
	for i := 0; i < len(pairs); i += 2 {
		if i+1 < len(pairs) {
			kvStr += fmt.Sprintf(" %v=%v", pairs[i], pairs[i+1])
		}
	}
	l.logger.Printf("[%s] %s%s", level, msg, kvStr)
}
