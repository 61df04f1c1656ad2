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
	"time"

	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/metrics"
	dto "github.com/prometheus/client_model/go"
)

func appEvent(guid string) event.Event {
	return &event.ApplicationLifecycleEvent{Type: event.APPLICATION_LAUNCHED, AppGUID: guid, Version: "1.0"}
}

func TestQueue_DropOnFull_FIFO(t *testing.T) {
	q := event.NewQueue("TestQueue_DropOnFull_FIFO", 2)
	e1, e2, e3 := appEvent("e1"), appEvent("e2"), appEvent("e3")
	if !q.Push(e1) || !q.Push(e2) {
		t.Fatal("e1 and e2 should have been enqueued")
	}
	if q.Push(e3) {
		t.Error("e3 should have been dropped")
	}
	if q.Len() != 2 {
		t.Errorf("the queue should retain exactly 2 events : %d", q.Len())
	}

	for _, expected := range []event.Event{e1, e2} {
		e, ok := q.TryPop()
		if !ok {
			t.Fatal("the queue should not be empty")
		}
		if e != expected {
			t.Errorf("events were not drained in FIFO order : %v", e)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("the queue should be empty")
	}

	// capacity is available again after draining
	if !q.Push(e3) {
		t.Error("e3 should be enqueued after draining")
	}
}

func TestQueue_Unbounded(t *testing.T) {
	q := event.NewQueue("TestQueue_Unbounded", event.Unbounded)
	for i := 0; i < event.DefaultQueueCapacity*2; i++ {
		if !q.Push(appEvent("e")) {
			t.Fatalf("an unbounded queue never drops : %d", i)
		}
	}
	if q.Capacity() != event.Unbounded {
		t.Errorf("capacity : %d", q.Capacity())
	}
}

func TestQueue_DefaultCapacity(t *testing.T) {
	q := event.NewQueue("TestQueue_DefaultCapacity", 0)
	if q.Capacity() != event.DefaultQueueCapacity {
		t.Errorf("capacity : %d", q.Capacity())
	}
}

func TestQueue_Pop(t *testing.T) {
	q := event.NewQueue("TestQueue_Pop", 2)

	if _, ok := q.Pop(nil, 10*time.Millisecond); ok {
		t.Error("Pop should have timed out")
	}

	cancel := make(chan struct{})
	close(cancel)
	if _, ok := q.Pop(cancel, 0); ok {
		t.Error("Pop should have been cancelled")
	}

	e := appEvent("e1")
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(e)
	}()
	popped, ok := q.Pop(nil, time.Second)
	if !ok || popped != e {
		t.Errorf("Pop should have returned the pushed event : %v", popped)
	}
}

func TestQueue_DroppedCounter(t *testing.T) {
	metrics.ResetRegistry()
	defer metrics.ResetRegistry()
	q := event.NewQueue("TestQueue_DroppedCounter", 1)
	q.Push(appEvent("e1"))
	q.Push(appEvent("e2"))
	q.Push(appEvent("e3"))

	gathered, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	family := metrics.FindMetricFamilyByName(gathered, "esbadmin_event_dropped_total")
	if family == nil {
		t.Fatal("dropped counter was not registered")
	}
	if value := counterForLabel(family, "queue", q.Name()); value != 2 {
		t.Errorf("dropped count should be 2 : %v", value)
	}
}

func counterForLabel(family *dto.MetricFamily, label, value string) float64 {
	for _, m := range family.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == label && l.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return -1
}
