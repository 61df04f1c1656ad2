// Copyright (c) 2017 OysterPack, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging standardizes the zerolog loggers used across the admin server.
package logging

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger fields
const (
	PACKAGE  = "pkg"
	TYPE     = "type"
	FUNC     = "func"
	EVENT    = "event"
	ID       = "id"
	CODE     = "code"
	STATE    = "state"
	SESSION  = "session"
	MANAGER  = "mgr"
	METHOD   = "method"
	CATEGORY = "category"
	QUEUE    = "queue"
)

// LogEventID is the unique id of a documented log event.
type LogEventID uint64

// Log adds the event id to the log event.
func (a LogEventID) Log(event *zerolog.Event) *zerolog.Event {
	return event.Uint64(EVENT, uint64(a))
}

// NewPackageLogger returns a new logger with pkg={pkg}
// where {pkg} is o's package path.
// o must be a named struct type - the pattern is to use an empty struct
func NewPackageLogger(o interface{}) zerolog.Logger {
	t := reflect.TypeOf(o)
	if t == nil || t.Kind() != reflect.Struct || t.PkgPath() == "" {
		panic("NewPackageLogger can only be created for a named struct")
	}
	return log.With().Str(PACKAGE, t.PkgPath()).Logger()
}

// NewTypeLogger returns a new logger with pkg={pkg}, type={type}
func NewTypeLogger(o interface{}) zerolog.Logger {
	t := reflect.TypeOf(o)
	if t == nil || t.Kind() != reflect.Struct || t.PkgPath() == "" {
		panic("NewTypeLogger can only be created for a named struct")
	}
	return log.With().Str(PACKAGE, t.PkgPath()).Str(TYPE, t.Name()).Logger()
}

// ParseLevel maps DEBUG, INFO, WARN, ERROR (case insensitive) to a zerolog level.
// An empty string maps to WARN.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "INFO":
		return zerolog.InfoLevel, nil
	case "", "WARN":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level : %q", level)
	}
}

// SetLevel sets the global log level
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
