// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logger provides a leveled logger on top of the standard log
// package.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

// A Level is a logging severity.
type Level int

// Logging levels, least severe first.
const (
	Debug Level = iota
	Info
	Warn
	Error
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if Debug <= l && l <= Error {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

var ErrLevel = errors.New("logger: invalid level")

// ParseLevel parses a level name, case insensitively.  "warning" is
// accepted for Warn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return Debug, nil
	case "info", "":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return 0, fmt.Errorf("%w %q", ErrLevel, s)
}

// Logger writes messages at or above its level.  A Logger is safe for
// concurrent use.
type Logger struct {
	level  Level
	logger *log.Logger
}

// New returns a Logger writing to w with standard date and time flags.
func New(w io.Writer, level Level) *Logger {
	return &Logger{level: level, logger: log.New(w, "", log.LstdFlags)}
}

// Discard returns a Logger that writes nothing.
func Discard() *Logger { return New(io.Discard, Error+1) }

// Level returns the minimum level written.
func (l *Logger) Level() Level { return l.level }

func (l *Logger) output(level Level, format string, v []any) {
	if level < l.level {
		return
	}
	l.logger.Output(3, level.String()+": "+fmt.Sprintf(format, v...))
}

// Debugf logs a debug message.
func (l *Logger) Debugf(format string, v ...any) { l.output(Debug, format, v) }

// Infof logs an informational message.
func (l *Logger) Infof(format string, v ...any) { l.output(Info, format, v) }

// Warnf logs a warning.
func (l *Logger) Warnf(format string, v ...any) { l.output(Warn, format, v) }

// Errorf logs an error.
func (l *Logger) Errorf(format string, v ...any) { l.output(Error, format, v) }
