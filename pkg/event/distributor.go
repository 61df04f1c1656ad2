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

package event

import (
	"sync"
	"time"

	"github.com/oysterpack/esbadmin/pkg/lifecycle"
)

// Sink accepts events. Push must never block.
type Sink interface {
	Push(e Event) bool
}

// Source is a collaborator that produces events. The Distributor subscribes itself on Start and unsubscribes on Stop.
type Source interface {
	Subscribe(sink Sink)
	Unsubscribe(sink Sink)
}

// Settings for the Distributor. Zero values are replaced with the defaults.
type Settings struct {
	PlatformQueueCapacity      int
	ConfigurationQueueCapacity int
	// PollTimeout bounds how long a reader waits on its queue before checking whether it should exit.
	// 0 means wait indefinitely.
	PollTimeout     time.Duration
	WorkerCoreSize  int
	WorkerKeepAlive time.Duration
}

// Distributor owns the platform Hub, the configuration Hub, the WorkerPool they share, and the ListenerRegistry.
// It implements Sink, routing each event to the hub for its category group.
type Distributor struct {
	state lifecycle.ServiceState

	listeners     *ListenerRegistry
	pool          *WorkerPool
	platform      *Hub
	configuration *Hub

	mutex   sync.Mutex
	sources []Source
}

// NewDistributor creates a new Distributor in the New state
func NewDistributor(settings Settings, sources ...Source) *Distributor {
	listeners := NewListenerRegistry()
	pool := NewWorkerPool(settings.WorkerCoreSize, settings.WorkerKeepAlive)
	return &Distributor{
		listeners:     listeners,
		pool:          pool,
		platform:      NewHub(NewQueue(Platform.String(), settings.PlatformQueueCapacity), listeners, pool, settings.PollTimeout),
		configuration: NewHub(NewQueue(Configuration.String(), settings.ConfigurationQueueCapacity), listeners, pool, settings.PollTimeout),
		sources:       sources,
	}
}

// AddSource registers an additional source. If the distributor is running, it subscribes immediately.
func (d *Distributor) AddSource(source Source) {
	d.mutex.Lock()
	d.sources = append(d.sources, source)
	d.mutex.Unlock()
	if state, _ := d.state.State(); state.Running() {
		source.Subscribe(d)
	}
}

// Listeners returns the listener registry
func (d *Distributor) Listeners() *ListenerRegistry { return d.listeners }

// Pool returns the shared worker pool
func (d *Distributor) Pool() *WorkerPool { return d.pool }

// Hub returns the hub for the group
func (d *Distributor) Hub(g Group) *Hub {
	if g == Configuration {
		return d.configuration
	}
	return d.platform
}

// Push routes the event to its hub. It never blocks. Returns false if the event was dropped.
func (d *Distributor) Push(e Event) bool {
	if e == nil {
		return false
	}
	return d.Hub(e.Category().Group()).Push(e)
}

// State returns the current lifecycle state
func (d *Distributor) State() lifecycle.State {
	state, _ := d.state.State()
	return state
}

// Start starts the readers and subscribes to the sources. A stopped Distributor cannot be restarted.
func (d *Distributor) Start() error {
	if _, err := d.state.Starting(); err != nil {
		return err
	}
	d.platform.Start()
	d.configuration.Start()
	d.mutex.Lock()
	for _, source := range d.sources {
		source.Subscribe(d)
	}
	d.mutex.Unlock()
	d.state.Running()
	DISTRIBUTOR_STARTED.Log(logger.Info()).Msg("started")
	return nil
}

// Stop unsubscribes from the sources, stops the readers, shuts down the pool, and clears all listener registrations.
func (d *Distributor) Stop() error {
	state := d.State()
	if state.Stopped() {
		return nil
	}
	if state == lifecycle.New {
		_, err := d.state.Terminated()
		return err
	}
	if _, err := d.state.Stopping(); err != nil {
		return err
	}
	d.mutex.Lock()
	for _, source := range d.sources {
		source.Unsubscribe(d)
	}
	d.mutex.Unlock()
	d.platform.Stop()
	d.configuration.Stop()
	d.pool.Stop()
	d.listeners.Clear()
	d.state.Terminated()
	DISTRIBUTOR_STOPPED.Log(logger.Info()).Msg("stopped")
	return nil
}
