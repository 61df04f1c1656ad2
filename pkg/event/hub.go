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
	"errors"
	"time"

	"github.com/oysterpack/esbadmin/pkg/lifecycle"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/metrics"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/tomb.v2"
)

// Hub drains one Queue on its own goroutine and fans each event out to the matching listeners.
type Hub struct {
	queue       *Queue
	listeners   *ListenerRegistry
	pool        *WorkerPool
	pollTimeout time.Duration

	state lifecycle.ServiceState
	tomb  tomb.Tomb

	deliveries *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

// NewHub creates a new hub. A pollTimeout of 0 means the reader waits indefinitely for the next event.
func NewHub(queue *Queue, listeners *ListenerRegistry, pool *WorkerPool, pollTimeout time.Duration) *Hub {
	return &Hub{
		queue:       queue,
		listeners:   listeners,
		pool:        pool,
		pollTimeout: pollTimeout,
		deliveries:  metrics.GetOrMustRegisterCounterVec(deliveriesCounterOpts),
		failures:    metrics.GetOrMustRegisterCounterVec(deliveryFailuresCounterOpts),
	}
}

// Push enqueues the event. It never blocks. Returns false if the event was dropped.
func (h *Hub) Push(e Event) bool {
	return h.queue.Push(e)
}

// Queue returns the hub's queue
func (h *Hub) Queue() *Queue { return h.queue }

// Start spawns the reader goroutine. A stopped Hub cannot be restarted.
func (h *Hub) Start() error {
	if starting, err := h.state.Starting(); !starting {
		return err
	}
	h.tomb.Go(h.run)
	h.state.Running()
	HUB_STARTED.Log(logger.Info()).Str(logging.QUEUE, h.queue.Name()).Msg("started")
	return nil
}

// Stop kills the reader goroutine and waits for it to exit.
// Events still in the queue are not delivered. Delivery tasks already submitted to the pool are not retracted.
// Stopping a Hub that was never started terminates it.
func (h *Hub) Stop() error {
	state := h.State()
	if state.Stopped() {
		return nil
	}
	if state == lifecycle.New {
		_, err := h.state.Terminated()
		return err
	}
	if _, err := h.state.Stopping(); err != nil {
		return err
	}
	h.tomb.Kill(nil)
	h.tomb.Wait()
	h.state.Terminated()
	HUB_STOPPED.Log(logger.Info()).Str(logging.QUEUE, h.queue.Name()).Msg("stopped")
	return nil
}

// State returns the lifecycle state
func (h *Hub) State() lifecycle.State {
	state, _ := h.state.State()
	return state
}

// Alive returns true while the reader goroutine is running
func (h *Hub) Alive() bool {
	return h.State().Running() && h.tomb.Alive()
}

func (h *Hub) run() error {
	for {
		select {
		case <-h.tomb.Dying():
			return nil
		default:
		}
		e, ok := h.queue.Pop(h.tomb.Dying(), h.pollTimeout)
		if !ok {
			continue
		}
		h.fanOut(e)
	}
}

func (h *Hub) fanOut(e Event) {
	for _, reg := range h.listeners.Match(e) {
		reg := reg
		if err := h.pool.Submit(func() { h.deliver(e, reg) }); err != nil {
			SUBMIT_FAILED.Log(logger.Warn()).
				Str(logging.QUEUE, h.queue.Name()).
				Str(logging.CATEGORY, e.Category().String()).
				Err(err).
				Msg("event not delivered")
			return
		}
	}
}

// deliver makes exactly one delivery attempt. Failures are logged and contained.
// If the transport reports that the listener is gone, then the registration is removed.
func (h *Hub) deliver(e Event, reg *Registration) {
	category := e.Category().String()
	h.deliveries.WithLabelValues(category).Inc()
	err := rpcerr.Trap(func() error { return e.Deliver(reg.Listener) }, "listener callback")
	if err == nil {
		return
	}
	h.failures.WithLabelValues(category).Inc()
	DELIVERY_FAILED.Log(logger.Warn()).
		Str(logging.CATEGORY, category).
		Str(logging.SESSION, reg.Handle).
		Str("scope", reg.ScopeKey).
		Err(err).
		Msg("listener callback failed")

	var transportErr *rpcerr.TransportError
	if errors.As(err, &transportErr) && transportErr.Gone {
		if h.listeners.remove(reg) {
			LISTENER_PRUNED.Log(logger.Info()).
				Str(logging.CATEGORY, category).
				Str(logging.SESSION, reg.Handle).
				Str("scope", reg.ScopeKey).
				Msg("listener is gone")
		}
	}
}
