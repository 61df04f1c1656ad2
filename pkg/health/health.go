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

// Package health runs named health checks on an interval and reports their latest results.
//
// Each check is recorded under 2 gauge vectors, labeled by the check name :
//   - esbadmin_health_consecutive_failures : 0 means the last run succeeded, -1 means the check has not yet run
//   - esbadmin_health_run_seconds : how long the last run took
package health

import (
	"errors"
	"fmt"
	"time"

	"github.com/oysterpack/esbadmin/pkg/commons"
	"github.com/oysterpack/esbadmin/pkg/logging"
)

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

// log events
const (
	CHECK_FAILED     = logging.LogEventID(0xb84e1d3a6c09f275)
	CHECK_RECOVERED  = logging.LogEventID(0x9d27c5f0e3a1b864)
	CHECK_REGISTERED = logging.LogEventID(0xf4059ac7b2e81d36)
	REGISTRY_STARTED = logging.LogEventID(0xe63a0b9d4f7c2158)
	REGISTRY_STOPPED = logging.LogEventID(0xc1f8e2674d05ab93)
)

// errors
var (
	ErrNotRegistered     = errors.New("health check is not registered")
	ErrAlreadyRegistered = errors.New("health check is already registered")
	ErrTimeout           = errors.New("health check timed out")
	ErrRegistryStarted   = errors.New("health checks must be registered before the registry is started")
)

// defaults applied to a Spec when not set
const (
	DefaultRunInterval = 15 * time.Second
	DefaultTimeout     = 5 * time.Second
)

// Check runs the health check.
//   - result : the check closes the channel to signal success. If the check fails, then the error is sent on the channel.
//   - cancel : closed when the check has timed out
type Check func(result chan<- error, cancel <-chan struct{})

// CheckFunc adapts a simple func into a Check
func CheckFunc(f func() error) Check {
	return func(result chan<- error, cancel <-chan struct{}) {
		if err := f(); err != nil {
			result <- err
			return
		}
		close(result)
	}
}

// Spec names a check and how it is scheduled
type Spec struct {
	Name        string
	RunInterval time.Duration
	Timeout     time.Duration
}

func (s Spec) withDefaults() Spec {
	if s.RunInterval <= 0 {
		s.RunInterval = DefaultRunInterval
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	return s
}

// Result is the outcome of a single check run
type Result struct {
	// why the check failed
	Err error
	// when the run started
	Time time.Time
	// how long the run took
	Duration time.Duration
}

// Ran returns true if the check has run at least once
func (r Result) Ran() bool { return !r.Time.IsZero() }

// Healthy returns true if the check ran and succeeded
func (r Result) Healthy() bool { return r.Ran() && r.Err == nil }

func run(check Check, timeout time.Duration) Result {
	result := make(chan error, 1)
	cancel := make(chan struct{})
	start := time.Now()
	go func() {
		defer func() {
			if p := recover(); p != nil {
				// the check may have already closed the channel
				defer commons.IgnorePanic()
				result <- fmt.Errorf("health check panicked : %v", p)
			}
		}()
		check(result, cancel)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-result:
		return Result{Err: err, Time: start, Duration: time.Since(start)}
	case <-timer.C:
		close(cancel)
		return Result{Err: ErrTimeout, Time: start, Duration: time.Since(start)}
	}
}
