// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

// Package log implements a leveled logger interface that is used throughout
// the mail-client packages
package log

// Level is a type wrapper for an int representing the log verbosity
type Level int

const (
	// LevelError is the lowest log level, only logging errors
	LevelError Level = iota

	// LevelWarn logs errors and warnings
	LevelWarn

	// LevelInfo logs errors, warnings and informational messages
	LevelInfo

	// LevelDebug is the highest log level, logging everything
	LevelDebug
)

// Logger is the log interface for mail-client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
