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

package event_test

import (
	"testing"

	"github.com/oysterpack/esbadmin/pkg/event"
)

// collector is a Sink that records every event
type collector struct {
	events []event.Event
	accept bool
}

func (c *collector) Push(e event.Event) bool {
	c.events = append(c.events, e)
	return c.accept
}

func TestBroadcaster(t *testing.T) {
	b := &event.Broadcaster{}
	c1, c2 := &collector{accept: true}, &collector{}
	b.Subscribe(c1)
	b.Subscribe(c1)
	b.Subscribe(c2)
	b.Publish(&event.ConfigurationEvent{Name: "a"})
	if len(c1.events) != 1 || len(c2.events) != 1 {
		t.Errorf("each sink should receive the event once : %d, %d", len(c1.events), len(c2.events))
	}

	b.Unsubscribe(c1)
	b.Publish(&event.ConfigurationEvent{Name: "b"})
	if len(c1.events) != 1 || len(c2.events) != 2 {
		t.Errorf("unsubscribed sink should no longer receive events : %d, %d", len(c1.events), len(c2.events))
	}
}
