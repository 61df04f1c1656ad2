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

	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// queue capacity settings
const (
	DefaultQueueCapacity = 256
	// Unbounded disables the capacity check
	Unbounded = -1
)

// Queue is a FIFO event queue with a single consumer.
// Push never blocks. When the queue holds capacity events, pushed events are dropped.
type Queue struct {
	name     string
	capacity int

	mutex  sync.Mutex
	events []Event
	// signalled when an event is pushed
	notify chan struct{}

	pushed  prometheus.Counter
	dropped prometheus.Counter
	depth   prometheus.Gauge
}

// NewQueue creates a new queue. A capacity of 0 means DefaultQueueCapacity and a negative capacity means Unbounded.
func NewQueue(name string, capacity int) *Queue {
	if capacity == 0 {
		capacity = DefaultQueueCapacity
	}
	if capacity < 0 {
		capacity = Unbounded
	}
	return &Queue{
		name:     name,
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		pushed:   metrics.GetOrMustRegisterCounterVec(pushedCounterOpts).WithLabelValues(name),
		dropped:  metrics.GetOrMustRegisterCounterVec(droppedCounterOpts).WithLabelValues(name),
		depth:    metrics.GetOrMustRegisterGaugeVec(queueDepthGaugeOpts).WithLabelValues(name),
	}
}

// Name returns the queue name
func (q *Queue) Name() string { return q.name }

// Capacity returns the capacity, or Unbounded
func (q *Queue) Capacity() int { return q.capacity }

// Push enqueues the event at the tail and returns true.
// If the queue is full, the event is dropped and false is returned.
func (q *Queue) Push(e Event) bool {
	q.mutex.Lock()
	if q.capacity != Unbounded && len(q.events) >= q.capacity {
		q.mutex.Unlock()
		q.dropped.Inc()
		EVENT_DROPPED.Log(logger.Warn()).
			Str(logging.QUEUE, q.name).
			Str(logging.CATEGORY, e.Category().String()).
			Int("capacity", q.capacity).
			Msg("queue is full")
		return false
	}
	q.events = append(q.events, e)
	depth := len(q.events)
	q.mutex.Unlock()

	q.pushed.Inc()
	q.depth.Set(float64(depth))
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// TryPop removes the head event without waiting
func (q *Queue) TryPop() (Event, bool) {
	q.mutex.Lock()
	if len(q.events) == 0 {
		q.mutex.Unlock()
		return nil, false
	}
	e := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]
	if len(q.events) == 0 {
		// release the backing array
		q.events = nil
	}
	depth := len(q.events)
	q.mutex.Unlock()
	q.depth.Set(float64(depth))
	return e, true
}

// Pop waits for the head event. It gives up when cancel is closed, or when the timeout elapses.
// A timeout of 0 means wait until an event is available or cancel is closed.
func (q *Queue) Pop(cancel <-chan struct{}, timeout time.Duration) (Event, bool) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	for {
		if e, ok := q.TryPop(); ok {
			return e, true
		}
		select {
		case <-q.notify:
		case <-cancel:
			return nil, false
		case <-expired:
			return nil, false
		}
	}
}

// Len returns the number of queued events
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.events)
}
