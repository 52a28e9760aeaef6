package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ConsoleLogger writes progress to stdout and errors to stderr.
// Safe for concurrent use by multiple goroutines.
//
// Messages that start with a newline are section headers (e.g.
// "\nExecuting DROP:") and are emphasised when colour is enabled.
type ConsoleLogger struct {
	verbose   bool
	out       io.Writer
	errOut    io.Writer
	styles    styles
	errStyles styles
	mu        sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger on the process's stdout and stderr.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerStreams(os.Stdout, os.Stderr, verbose)
}

// NewConsoleLoggerTo creates a ConsoleLogger writing everything to w.
func NewConsoleLoggerTo(w io.Writer, verbose bool) *ConsoleLogger {
	return NewConsoleLoggerStreams(w, w, verbose)
}

// NewConsoleLoggerStreams creates a ConsoleLogger that writes Info and
// Verbose messages to out and Error messages to errOut.
func NewConsoleLoggerStreams(out, errOut io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{
		verbose:   verbose,
		out:       out,
		errOut:    errOut,
		styles:    newStyles(out, ColorEnabled(out)),
		errStyles: newStyles(errOut, ColorEnabled(errOut)),
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write(l.out, l.styles.verbose.Render("[VERBOSE]")+" ", format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write(l.out, "", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write(l.errOut, l.errStyles.err.Render("[ERROR]")+" ", format, args)
}

func (l *ConsoleLogger) write(w io.Writer, prefix, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	if prefix == "" && strings.HasPrefix(msg, "\n") {
		msg = "\n" + l.styles.header.Render(strings.TrimPrefix(msg, "\n"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(w, prefix+msg+"\n")
}
