// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package log

import (
	"fmt"
	"io"
	"log/slog"
)

// JSONlog is the structured JSON logger that satisfies the Logger interface
type JSONlog struct {
	level Level
	log   *slog.Logger
}

// formatMessage renders a format string with its arguments for the
// leveled loggers
func formatMessage(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// NewJSON returns a new JSONlog type that satisfies the Logger interface
func NewJSON(output io.Writer, level Level) *JSONlog {
	logOpts := slog.HandlerOptions{}
	switch level {
	case LevelDebug:
		logOpts.Level = slog.LevelDebug
	case LevelInfo:
		logOpts.Level = slog.LevelInfo
	case LevelWarn:
		logOpts.Level = slog.LevelWarn
	case LevelError:
		logOpts.Level = slog.LevelError
	default:
		logOpts.Level = slog.LevelDebug
	}
	logHandler := slog.NewJSONHandler(output, &logOpts)
	return &JSONlog{
		level: level,
		log:   slog.New(logHandler),
	}
}

// Debugf logs a debug message via the structured JSON logger
func (l *JSONlog) Debugf(format string, args ...interface{}) {
	if l.level >= LevelDebug {
		l.log.Debug(formatMessage(format, args...))
	}
}

// Infof logs a info message via the structured JSON logger
func (l *JSONlog) Infof(format string, args ...interface{}) {
	if l.level >= LevelInfo {
		l.log.Info(formatMessage(format, args...))
	}
}

// Warnf logs a warn message via the structured JSON logger
func (l *JSONlog) Warnf(format string, args ...interface{}) {
	if l.level >= LevelWarn {
		l.log.Warn(formatMessage(format, args...))
	}
}

// Errorf logs an error message via the structured JSON logger
func (l *JSONlog) Errorf(format string, args ...interface{}) {
	if l.level >= LevelError {
		l.log.Error(formatMessage(format, args...))
	}
}
