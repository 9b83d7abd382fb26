package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// VerboseLevel represents the verbosity level for logging
type VerboseLevel int

const (
	// VerboseQuiet suppresses everything except errors
	VerboseQuiet VerboseLevel = -1
	// VerboseSilent means no verbose output
	VerboseSilent VerboseLevel = 0
	// VerboseNormal means standard verbose output (-v)
	VerboseNormal VerboseLevel = 1
	// VerboseVery means detailed debugging output (-vv)
	VerboseVery VerboseLevel = 2
)

// Logger handles leveled output for every stage of a scan. A nil *Logger
// discards everything, so components can be used without one.
type Logger struct {
	level VerboseLevel
	out   io.Writer
	mu    sync.Mutex
}

// NewLogger creates a new logger with the specified verbosity level
func NewLogger(level int) *Logger {
	return &Logger{level: VerboseLevel(level)}
}

// SetOutput redirects log lines. A nil writer restores stderr.
func (l *Logger) SetOutput(w io.Writer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// Level returns the configured verbosity.
func (l *Logger) Level() VerboseLevel {
	if l == nil {
		return VerboseQuiet
	}
	return l.level
}

// IsVerbose returns true if verbose mode is enabled (-v or -vv)
func (l *Logger) IsVerbose() bool {
	return l != nil && l.level >= VerboseNormal
}

// IsVeryVerbose returns true if very verbose mode is enabled (-vv)
func (l *Logger) IsVeryVerbose() bool {
	return l != nil && l.level >= VerboseVery
}

func (l *Logger) quiet() bool {
	return l == nil || l.level <= VerboseQuiet
}

func (l *Logger) printf(prefix, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.out
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, prefix+format+"\n", args...)
}

// V logs a message at verbose level (-v)
func (l *Logger) V(format string, args ...interface{}) {
	if l.IsVerbose() {
		l.printf("[*] ", format, args...)
	}
}

// VV logs a message at very verbose level (-vv)
func (l *Logger) VV(format string, args ...interface{}) {
	if l.IsVeryVerbose() {
		l.printf("[VV] ", format, args...)
	}
}

// Info logs an informational message (always shown unless silent)
func (l *Logger) Info(format string, args ...interface{}) {
	if !l.quiet() {
		l.printf("[*] ", format, args...)
	}
}

// Success logs a positive outcome (always shown unless silent)
func (l *Logger) Success(format string, args ...interface{}) {
	if !l.quiet() {
		l.printf("[+] ", format, args...)
	}
}

// Warn logs a recoverable problem (always shown unless silent)
func (l *Logger) Warn(format string, args ...interface{}) {
	if !l.quiet() {
		l.printf("[!] ", format, args...)
	}
}

// Error logs an error message. Errors are shown even in silent mode.
func (l *Logger) Error(format string, args ...interface{}) {
	if l != nil {
		l.printf("[-] ", format, args...)
	}
}

// Section logs a section header
func (l *Logger) Section(title string) {
	if !l.quiet() {
		l.printf("", "\n=== %s ===", title)
	}
}

// Detail logs a detail line for very verbose mode with indentation
func (l *Logger) Detail(format string, args ...interface{}) {
	if l.IsVeryVerbose() {
		l.printf("[VV] -> ", format, args...)
	}
}
