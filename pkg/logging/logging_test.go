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

package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/rs/zerolog"
)

type A struct{}

func TestNewPackageLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewPackageLogger(A{}).Output(&buf)
	logging.LogEventID(0xabc).Log(logger.Info()).Msg("")

	var logEvent map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEvent); err != nil {
		t.Fatal(err)
	}
	if logEvent[logging.PACKAGE] != "github.com/oysterpack/esbadmin/pkg/logging_test" {
		t.Errorf("Package was not logged correctly : %v", buf.String())
	}
	if logEvent[logging.EVENT] != float64(0xabc) {
		t.Errorf("Event was not logged correctly : %v", buf.String())
	}
}

func TestNewTypeLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewTypeLogger(A{}).Output(&buf)
	logger.Info().Msg("")
	var logEvent map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEvent); err != nil {
		t.Fatal(err)
	}
	if logEvent[logging.TYPE] != "A" {
		t.Errorf("Type was not logged correctly : %v", buf.String())
	}
}

func TestNewPackageLogger_ForUnnamedType(t *testing.T) {
	defer func() {
		if p := recover(); p == nil {
			t.Error("logging.NewPackageLogger(1) should have panicked because a named struct is required")
		}
	}()
	logging.NewPackageLogger(1)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		level zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"", zerolog.WarnLevel},
		{"Error", zerolog.ErrorLevel},
	}
	for _, test := range tests {
		level, err := logging.ParseLevel(test.in)
		if err != nil {
			t.Errorf("%q : %v", test.in, err)
			continue
		}
		if level != test.level {
			t.Errorf("%q mapped to %v", test.in, level)
		}
	}
	if _, err := logging.ParseLevel("TRACE"); err == nil {
		t.Error("TRACE is not supported")
	}
}
