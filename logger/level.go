// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"errors"
	"log/slog"
	"strings"
)

// ErrInvalidLogLevel indicates an unrecognized log level.
var ErrInvalidLogLevel = errors.New("unrecognized log level")

// Level represents severity level while logging.
type Level slog.Level

const (
	// Debug level is used when logging debugging info.
	Debug = Level(slog.LevelDebug)
	// Info level is used when logging info data.
	Info = Level(slog.LevelInfo)
	// Warn level is used when logging warnings.
	Warn = Level(slog.LevelWarn)
	// Error level is used when logging errors.
	Error = Level(slog.LevelError)
)

func (lvl Level) String() string {
	return strings.ToLower(slog.Level(lvl).String())
}

// UnmarshalText parses a case insensitive level name.
func (lvl *Level) UnmarshalText(text string) error {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "debug":
		*lvl = Debug
	case "info":
		*lvl = Info
	case "warn":
		*lvl = Warn
	case "error":
		*lvl = Error
	default:
		return ErrInvalidLogLevel
	}
	return nil
}
