// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package log

import (
	"io"
	"log"
)

// Stdlog is the default logger that satisfies the Logger interface
type Stdlog struct {
	level Level
	err   *log.Logger
	warn  *log.Logger
	info  *log.Logger
	debug *log.Logger
}

// CallDepth is the call depth value for the log.Logger's Output method
// This defaults to 2 and is only here for better readablity of the code
const CallDepth = 2

// New returns a new Stdlog type that satisfies the Logger interface
func New(output io.Writer, level Level) *Stdlog {
	lf := log.Lmsgprefix | log.LstdFlags
	return &Stdlog{
		level: level,
		err:   log.New(output, "ERROR: ", lf),
		warn:  log.New(output, " WARN: ", lf),
		info:  log.New(output, " INFO: ", lf),
		debug: log.New(output, "DEBUG: ", lf),
	}
}

// Debugf performs a Printf() on the debug logger
func (l *Stdlog) Debugf(format string, args ...interface{}) {
	if l.level >= LevelDebug {
		_ = l.debug.Output(CallDepth, formatMessage(format, args...))
	}
}

// Infof performs a Printf() on the info logger
func (l *Stdlog) Infof(format string, args ...interface{}) {
	if l.level >= LevelInfo {
		_ = l.info.Output(CallDepth, formatMessage(format, args...))
	}
}

// Warnf performs a Printf() on the warn logger
func (l *Stdlog) Warnf(format string, args ...interface{}) {
	if l.level >= LevelWarn {
		_ = l.warn.Output(CallDepth, formatMessage(format, args...))
	}
}

// Errorf performs a Printf() on the error logger
func (l *Stdlog) Errorf(format string, args ...interface{}) {
	if l.level >= LevelError {
		_ = l.err.Output(CallDepth, formatMessage(format, args...))
	}
}
