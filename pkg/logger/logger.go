package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	error *log.Logger
}

func New() *Logger {
	return NewWithOutput(os.Stdout, os.Stderr)
}

// NewWithOutput writes info lines to out and warnings and errors to errOut.
func NewWithOutput(out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.LUTC
	return &Logger{
		info:  log.New(out, "[INFO] ", flags),
		warn:  log.New(errOut, "[WARN] ", flags),
		error: log.New(errOut, "[ERROR] ", flags),
	}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return NewWithOutput(io.Discard, io.Discard)
}

func (l *Logger) Info(format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.info.Output(2, fmt.Sprintf(format, v...))
}

func (l *Logger) Warn(format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.warn.Output(2, fmt.Sprintf(format, v...))
}

func (l *Logger) Error(format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.error.Output(2, fmt.Sprintf(format, v...))
}

// Writer exposes the info stream, e.g. for gin's request logger.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return l.info.Writer()
}
