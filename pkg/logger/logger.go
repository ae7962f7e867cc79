package logger

import (
	"io"
	"log"
	"os"
)

const (
	INFO = iota
	DEBUG
)

// Logger is passed explicitly to every component that reports progress.
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger
	level int
	file  *os.File
}

// New returns a logger writing every level to w.
func New(w io.Writer, level int) *Logger {
	flags := log.Ldate | log.Ltime | log.Lmsgprefix
	return &Logger{
		info:  log.New(w, "INFO: ", flags),
		warn:  log.New(w, "WARN: ", flags),
		err:   log.New(w, "ERROR: ", flags),
		debug: log.New(w, "DEBUG: ", flags),
		level: level,
	}
}

// Open returns a logger writing to stdout and, when filename is set, to that
// file in append mode. Call Close to release the file.
func Open(filename string, level int) (*Logger, error) {
	if filename == "" {
		return New(os.Stdout, level), nil
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	l := New(io.MultiWriter(os.Stdout, f), level)
	l.file = f
	return l, nil
}

// Discard is used by tests and dry components that have no logger wired.
func Discard() *Logger {
	return New(io.Discard, INFO)
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.info.Printf(format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.warn.Printf(format, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.err.Printf(format, v...)
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.level < DEBUG {
		return
	}
	l.debug.Printf(format, v...)
}
