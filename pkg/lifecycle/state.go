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

// Package lifecycle models the start/stop state machine shared by the long running components,
// i.e., the event distributor, the lease sweeper, and the admin server.
package lifecycle

import (
	"fmt"
)

// State is an enum representing the component lifecycle state
type State int

// State enum values
// Normal life cycle : New -> Starting -> Running -> Stopping -> Terminated
// If the component fails while starting, running, or stopping, then it goes into state Failed.
// A stopped component may not be restarted.
// If there is a state transition from A -> B then A < B.
const (
	New State = iota
	Starting
	Running
	Stopping
	Terminated
	Failed
)

// Running returns true of the State is Running
func (s State) Running() bool { return s == Running }

// Stopped returns true if the component is Terminated or Failed
func (s State) Stopped() bool {
	return s == Terminated || s == Failed
}

// ValidTransitions returns the permitted State(s) that the current State is able to transition to
func (s State) ValidTransitions() []State {
	switch s {
	case New:
		return []State{Starting, Terminated}
	case Starting:
		return []State{Running, Stopping, Terminated, Failed}
	case Running:
		return []State{Stopping, Terminated, Failed}
	case Stopping:
		return []State{Terminated, Failed}
	case Terminated, Failed:
		return nil
	default:
		panic(fmt.Sprintf("Unknown State : %d", s))
	}
}

// ValidTransition returns true is the state transition is permitted
func (s State) ValidTransition(to State) bool {
	for _, validState := range s.ValidTransitions() {
		if validState == to {
			return true
		}
	}
	return false
}

func (s State) String() string {
	switch s {
	case New:
		return "New"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Terminated:
		return "Terminated"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
