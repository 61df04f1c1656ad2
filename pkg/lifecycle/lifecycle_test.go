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

package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/oysterpack/esbadmin/pkg/lifecycle"
)

func TestServiceState_NormalLifecycle(t *testing.T) {
	var s lifecycle.ServiceState
	if state, _ := s.State(); state != lifecycle.New {
		t.Errorf("zero value should be New : %v", state)
	}
	for _, f := range []func() (bool, error){s.Starting, s.Running, s.Stopping, s.Terminated} {
		if ok, err := f(); !ok || err != nil {
			t.Fatalf("transition failed : %v : %v", ok, err)
		}
	}
	if state, _ := s.State(); !state.Stopped() {
		t.Errorf("should be stopped : %v", state)
	}
}

func TestServiceState_InvalidTransition(t *testing.T) {
	var s lifecycle.ServiceState
	_, err := s.Running()
	switch err.(type) {
	case *lifecycle.InvalidStateTransition:
	default:
		t.Errorf("New -> Running is not a valid transition : %v", err)
	}

	if ok, err := s.Starting(); !ok || err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Starting(); ok || err != nil {
		t.Errorf("setting the same state should be a no-op : %v : %v", ok, err)
	}
}

func TestServiceState_Failed(t *testing.T) {
	var s lifecycle.ServiceState
	s.Starting()
	cause := errors.New("BOOM")
	if !s.Failed(cause) {
		t.Fatal("Starting -> Failed should be valid")
	}
	if s.FailureCause() != cause {
		t.Errorf("failure cause was not recorded : %v", s.FailureCause())
	}
	if _, err := s.Running(); err == nil {
		t.Error("a failed component cannot be restarted")
	}

	var s2 lifecycle.ServiceState
	if s2.Failed(nil) {
		t.Error("New -> Failed is not a valid transition")
	}
}

func TestState_ValidTransitions(t *testing.T) {
	for _, s := range []lifecycle.State{lifecycle.Terminated, lifecycle.Failed} {
		if len(s.ValidTransitions()) != 0 {
			t.Errorf("%v is a terminal state", s)
		}
	}
	if !lifecycle.Starting.ValidTransition(lifecycle.Failed) {
		t.Error("Starting -> Failed should be valid")
	}
}
