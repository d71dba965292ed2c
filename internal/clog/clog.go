// Package clog provides the driver's internal leveled logging, used by
// connection, stage, compression, and cluster to report conditions a
// caller can't observe directly (reconnects, unprepared-statement
// recovery, compression quirks).
// Author: momentics <momentics@gmail.com>
//
// Level is read once from the LOGLEVEL environment variable at package
// init (debug, info, warn, error; default info). There is no
// structured sink here on purpose: wiring this into a JSON/otel
// exporter is a concern of whatever embeds the driver, not the driver
// itself.
package clog

import (
	"fmt"
	"io"
	"log"
	"os"
)

var (
	debugWriter io.Writer = os.Stderr
	infoWriter  io.Writer = os.Stderr
	warnWriter  io.Writer = os.Stderr
	errWriter   io.Writer = os.Stderr
)

func init() {
	SetLevel(os.Getenv("LOGLEVEL"))
}

// SetLevel adjusts which levels actually write output. Unknown values
// fall back to "info".
func SetLevel(level string) {
	debugWriter, infoWriter, warnWriter, errWriter = os.Stderr, os.Stderr, os.Stderr, os.Stderr
	switch level {
	case "debug":
	case "warn":
		debugWriter, infoWriter = io.Discard, io.Discard
	case "error":
		debugWriter, infoWriter, warnWriter = io.Discard, io.Discard, io.Discard
	default: // "info" and anything unrecognized
		debugWriter = io.Discard
	}
}

// Logger tags every line with a component name so a multi-connection,
// multi-shard driver's log output stays attributable.
type Logger struct {
	component string
}

// New returns a Logger prefixed with component, e.g. "connection",
// "stage", "compression".
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) output(w io.Writer, level, format string, v ...any) {
	if w == io.Discard {
		return
	}
	msg := fmt.Sprintf(format, v...)
	log.New(w, "", log.LstdFlags).Printf("[%s] %s: %s", level, l.component, msg)
}

func (l *Logger) Debugf(format string, v ...any) { l.output(debugWriter, "DEBUG", format, v...) }
func (l *Logger) Infof(format string, v ...any)  { l.output(infoWriter, "INFO", format, v...) }
func (l *Logger) Warnf(format string, v ...any)  { l.output(warnWriter, "WARN", format, v...) }
func (l *Logger) Errorf(format string, v ...any) { l.output(errWriter, "ERROR", format, v...) }
