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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/lifecycle"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

const awaitTimeout = 2 * time.Second

func startDistributor(t *testing.T, sources ...event.Source) *event.Distributor {
	d := event.NewDistributor(event.Settings{PollTimeout: 50 * time.Millisecond}, sources...)
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	return d
}

// assertNoMoreCallbacks waits briefly to verify that no additional callbacks are delivered
func assertNoMoreCallbacks(t *testing.T, l *recordingListener) {
	select {
	case c := <-l.received:
		t.Errorf("unexpected callback : %v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScenarioA_ApplicationStarted(t *testing.T) {
	d := startDistributor(t)
	defer d.Stop()

	l := newRecordingListener()
	d.Listeners().AddApplicationListener("H1", "EP1", "1.0", l)
	if !d.Push(&event.ApplicationLifecycleEvent{Type: event.APPLICATION_LAUNCHED, AppGUID: "EP1", Version: "1.0"}) {
		t.Fatal("event should have been accepted")
	}

	c, err := l.await(awaitTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if c.Method != "applicationStarted" || len(c.Args) != 1 || c.Args[0] != "1.0" {
		t.Errorf("unexpected callback : %v", c)
	}
	assertNoMoreCallbacks(t, l)
}

func TestScenarioB_ServiceDeployed(t *testing.T) {
	d := startDistributor(t)
	defer d.Stop()

	l2, l3 := newRecordingListener(), newRecordingListener()
	d.Listeners().AddRepositoryEventListener("H2", l2)
	d.Listeners().AddRepositoryEventListener("H3", l3)
	d.Push(&event.MicroserviceRepoEvent{Type: event.SERVICE_REGISTERED, ServiceGUID: "SVC1", Version: "2.0"})

	for _, l := range []*recordingListener{l2, l3} {
		c, err := l.await(awaitTimeout)
		if err != nil {
			t.Fatal(err)
		}
		if c.Method != "serviceDeployed" || c.Args[0] != "SVC1" || c.Args[1] != "2.0" {
			t.Errorf("unexpected callback : %v", c)
		}
		assertNoMoreCallbacks(t, l)
	}
}

func TestFanOutIsolation(t *testing.T) {
	d := startDistributor(t)
	defer d.Stop()

	l1, l2 := newRecordingListener(), newRecordingListener()
	l1.err = errors.New("BOOM")
	d.Listeners().AddApplicationListener("H1", "EP1", "1.0", l1)
	d.Listeners().AddApplicationListener("H2", "EP1", "1.0", l2)
	d.Push(appEvent("EP1"))

	for _, l := range []*recordingListener{l1, l2} {
		if _, err := l.await(awaitTimeout); err != nil {
			t.Fatal(err)
		}
		assertNoMoreCallbacks(t, l)
	}

	// the failing listener remains registered, and the reader is still alive
	if d.Listeners().Len(event.ApplicationLifecycle) != 2 {
		t.Error("a failed delivery must not remove the registration")
	}
	d.Push(appEvent("EP1"))
	if _, err := l2.await(awaitTimeout); err != nil {
		t.Error(err)
	}
}

func TestFanOutIsolation_Panic(t *testing.T) {
	d := startDistributor(t)
	defer d.Stop()

	l1 := &panickingListener{recordingListener: newRecordingListener()}
	l2 := newRecordingListener()
	d.Listeners().AddApplicationListener("H1", "EP1", "1.0", l1)
	d.Listeners().AddApplicationListener("H2", "EP1", "1.0", l2)
	d.Push(appEvent("EP1"))
	if _, err := l2.await(awaitTimeout); err != nil {
		t.Fatal(err)
	}
	if !d.Hub(event.Platform).Alive() {
		t.Error("the reader must survive a panicking listener")
	}
}

// goneListener fails every delivery with a transport error reporting that the peer is gone
type goneListener struct {
	*recordingListener
}

func (l *goneListener) ServiceDeployed(serviceGUID, version string) error {
	l.record("serviceDeployed", serviceGUID, version)
	return &rpcerr.TransportError{Target: "listener", Gone: true, Err: errors.New("no responders")}
}

func TestFanOut_GoneListenerIsPruned(t *testing.T) {
	d := startDistributor(t)
	defer d.Stop()

	gone := &goneListener{recordingListener: newRecordingListener()}
	d.Listeners().AddRepositoryEventListener("H1", gone)
	d.Listeners().AddRepositoryEventListener("H2", newRecordingListener())
	d.Push(&event.MicroserviceRepoEvent{Type: event.SERVICE_REGISTERED, ServiceGUID: "SVC1", Version: "2.0"})
	if _, err := gone.await(awaitTimeout); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(awaitTimeout)
	for d.Listeners().Len(event.MicroserviceRepo) != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if d.Listeners().Len(event.MicroserviceRepo) != 1 {
		t.Error("the gone listener should have been removed")
	}
	// registrations for other categories are removed when the session goes away, not by pruning
	if d.Listeners().Len(event.ApplicationRepo) != 2 {
		t.Errorf("only the failed registration is pruned : %d", d.Listeners().Len(event.ApplicationRepo))
	}
}

func TestDistributor_RoutesConfigurationEvents(t *testing.T) {
	d := startDistributor(t)
	defer d.Stop()

	l := newRecordingListener()
	d.Listeners().AddConfigurationRepositoryListener("H1", l)
	d.Push(&event.ConfigurationEvent{Name: "orders-db", ConfigType: "jdbc"})
	d.Push(&event.ConfigurationEvent{Deleted: true, Name: "orders-db", ConfigType: "jdbc"})

	methods := map[string]bool{}
	for i := 0; i < 2; i++ {
		c, err := l.await(awaitTimeout)
		if err != nil {
			t.Fatal(err)
		}
		methods[c.Method] = true
	}
	if !methods["configurationPersisted"] || !methods["configurationDeleted"] {
		t.Errorf("unexpected callbacks : %v", methods)
	}
	if d.Hub(event.Platform).Queue().Len() != 0 {
		t.Error("configuration events must not be routed through the platform queue")
	}
}

type testSource struct {
	mutex sync.Mutex
	sinks []event.Sink
}

func (s *testSource) Subscribe(sink event.Sink) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sinks = append(s.sinks, sink)
}

func (s *testSource) Unsubscribe(sink event.Sink) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i, v := range s.sinks {
		if v == sink {
			s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
			return
		}
	}
}

func (s *testSource) Subscribers() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.sinks)
}

func TestDistributor_Lifecycle(t *testing.T) {
	source := &testSource{}
	d := event.NewDistributor(event.Settings{}, source)
	if d.State() != lifecycle.New {
		t.Errorf("state : %v", d.State())
	}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	if source.Subscribers() != 1 {
		t.Error("the distributor should have subscribed to the source")
	}
	late := &testSource{}
	d.AddSource(late)
	if late.Subscribers() != 1 {
		t.Error("a source added while running should be subscribed immediately")
	}

	d.Listeners().AddRepositoryEventListener("H1", newRecordingListener())
	if err := d.Stop(); err != nil {
		t.Fatal(err)
	}
	if source.Subscribers() != 0 || late.Subscribers() != 0 {
		t.Error("the distributor should have unsubscribed from the sources")
	}
	if d.Listeners().Len(event.MicroserviceRepo) != 0 {
		t.Error("stop should clear the listener registrations")
	}
	if d.Hub(event.Platform).Alive() || d.Hub(event.Configuration).Alive() {
		t.Error("the readers should be stopped")
	}
	if err := d.Pool().Submit(func() {}); err != event.ErrPoolStopped {
		t.Errorf("the pool should be stopped : %v", err)
	}
	if err := d.Start(); err == nil {
		t.Error("a stopped distributor cannot be restarted")
	}
}

func TestDistributor_StopBeforeStart(t *testing.T) {
	d := event.NewDistributor(event.Settings{})
	if err := d.Stop(); err != nil {
		t.Fatal(err)
	}
	if d.State() != lifecycle.Terminated {
		t.Errorf("state : %v", d.State())
	}
}

func newHub(name string) (*event.Hub, *event.WorkerPool) {
	pool := event.NewWorkerPool(1, time.Second)
	return event.NewHub(event.NewQueue(name, 2), event.NewListenerRegistry(), pool, 0), pool
}

func TestHub_StopBeforeStart(t *testing.T) {
	hub, pool := newHub("TestHub_StopBeforeStart")
	defer pool.Stop()

	stopped := make(chan error, 1)
	go func() { stopped <- hub.Stop() }()
	select {
	case err := <-stopped:
		if err != nil {
			t.Error(err)
		}
	case <-time.After(awaitTimeout):
		t.Fatal("Stop blocked on a hub that was never started")
	}
	if hub.State() != lifecycle.Terminated || hub.Alive() {
		t.Errorf("state : %v", hub.State())
	}
	if err := hub.Start(); err == nil {
		t.Error("a terminated hub cannot be started")
	}
}

func TestHub_StartStop(t *testing.T) {
	hub, pool := newHub("TestHub_StartStop")
	defer pool.Stop()

	if err := hub.Start(); err != nil {
		t.Fatal(err)
	}
	if !hub.Alive() {
		t.Error("the reader should be running")
	}
	if err := hub.Start(); err == nil {
		t.Error("a running hub cannot be started again")
	}
	if err := hub.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := hub.Stop(); err != nil {
		t.Errorf("Stop should be idempotent : %v", err)
	}
	if hub.Alive() {
		t.Error("the reader should have exited")
	}
	switch err := hub.Start().(type) {
	case *lifecycle.InvalidStateTransition:
	default:
		t.Errorf("restarting a stopped hub should fail with InvalidStateTransition : %v", err)
	}
}
