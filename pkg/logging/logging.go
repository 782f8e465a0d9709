// Plinth Core
// Copyright (c) 2026 The Plinth Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Plinth Core.
//
// Plinth Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Plinth Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Plinth Core.  If not, see <http://www.gnu.org/licenses/>.

// Package logging configures the global zerolog logger the way the rest of
// the library expects it: rotated file output plus any extra writers, with
// pkg/errors stack traces marshaled into error events. Crash reports from
// pkg/thread deliberately bypass this and go straight to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const LogFile = "core.log"

// Setup initializes the global logger with a rotated log file under dir and
// any extra writers (a console writer, a test buffer).
func Setup(dir string, writers ...io.Writer) error {
	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logWriters := []io.Writer{&lumberjack.Logger{
		Filename:   filepath.Join(dir, LogFile),
		MaxSize:    1,
		MaxBackups: 2,
	}}
	logWriters = append(logWriters, writers...)

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	log.Logger = log.Output(io.MultiWriter(logWriters...)).
		With().Timestamp().Caller().Logger()

	return nil
}

// ConsoleWriter returns a human-readable writer for interactive use.
func ConsoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr}
}
