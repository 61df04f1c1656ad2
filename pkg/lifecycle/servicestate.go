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

package lifecycle

import (
	"fmt"
	"sync"
	"time"
)

// ServiceState tracks a component's State. It is safe for concurrent use.
// The zero value is in the New state.
type ServiceState struct {
	mutex        sync.Mutex
	state        State
	failureCause error
	timestamp    time.Time
}

func (s *ServiceState) String() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.failureCause != nil {
		return fmt.Sprintf("State : %v, Timestamp : %v, FailureCause : %v", s.state, s.timestamp, s.failureCause)
	}
	return fmt.Sprintf("State : %v, Timestamp : %v", s.state, s.timestamp)
}

// State returns the current State and when it transitioned to the State
func (s *ServiceState) State() (State, time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state, s.timestamp
}

// FailureCause returns the error that caused the component to fail, or nil.
func (s *ServiceState) FailureCause() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.failureCause
}

// SetState transitions to the specified State only if it is allowed, and records the timestamp.
// If the current state matches the new desired state, then false is returned.
// If an illegal state transition is attempted, then the state is not changed and an error is returned.
func (s *ServiceState) SetState(state State) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state == state {
		return false, nil
	}
	if !s.state.ValidTransition(state) {
		return false, &InvalidStateTransition{s.state, state}
	}
	s.state = state
	s.timestamp = time.Now()
	if state == Failed && s.failureCause == nil {
		s.failureCause = UnknownFailureCause{}
	}
	return true, nil
}

// Failed transitions to Failed and records the cause.
// Returns false if Failed is not reachable from the current state.
func (s *ServiceState) Failed(err error) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != Failed && !s.state.ValidTransition(Failed) {
		return false
	}
	s.state = Failed
	s.timestamp = time.Now()
	if err == nil {
		err = UnknownFailureCause{}
	}
	s.failureCause = err
	return true
}

// Starting transitions to Starting
func (s *ServiceState) Starting() (bool, error) { return s.SetState(Starting) }

// Running transitions to Running
func (s *ServiceState) Running() (bool, error) { return s.SetState(Running) }

// Stopping transitions to Stopping
func (s *ServiceState) Stopping() (bool, error) { return s.SetState(Stopping) }

// Terminated transitions to Terminated
func (s *ServiceState) Terminated() (bool, error) { return s.SetState(Terminated) }

// InvalidStateTransition indicates an invalid transition was attempted
type InvalidStateTransition struct {
	From State
	To   State
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("InvalidStateTransition: %v -> %v", e.From, e.To)
}

// UnknownFailureCause indicates that the component is in a Failed state, but the failure cause is unknown.
type UnknownFailureCause struct{}

func (e UnknownFailureCause) Error() string {
	return "UnknownFailureCause"
}
