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
	"sync"
	"time"

	"github.com/oysterpack/esbadmin/pkg/commons"
	"github.com/oysterpack/esbadmin/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// worker pool defaults
const (
	DefaultWorkerCoreSize  = 5
	DefaultWorkerKeepAlive = 30 * time.Minute
)

// ErrPoolStopped is returned when a task is submitted after the pool was stopped
var ErrPoolStopped = errors.New("worker pool is stopped")

// WorkerPool runs delivery tasks. Up to coreSize workers live for the life of the pool. When all workers are busy,
// an additional worker is spawned for the task, i.e., the pool has no maximum size. Workers beyond the core size
// retire after being idle for keepAlive.
//
// Stop does not wait for running tasks to complete.
type WorkerPool struct {
	coreSize  int
	keepAlive time.Duration

	// unbuffered : a send only succeeds if an idle worker is ready to receive
	tasks chan func()
	stop  chan struct{}

	mutex   sync.Mutex
	workers int
	stopped bool

	workersGauge prometheus.Gauge
}

// NewWorkerPool creates a new pool. Zero values are replaced with the defaults.
func NewWorkerPool(coreSize int, keepAlive time.Duration) *WorkerPool {
	if coreSize <= 0 {
		coreSize = DefaultWorkerCoreSize
	}
	if keepAlive <= 0 {
		keepAlive = DefaultWorkerKeepAlive
	}
	return &WorkerPool{
		coreSize:     coreSize,
		keepAlive:    keepAlive,
		tasks:        make(chan func()),
		stop:         make(chan struct{}),
		workersGauge: metrics.GetOrMustRegisterGauge(workersGaugeOpts),
	}
}

// Submit runs the task on an idle worker, or on a new worker if none is idle
func (p *WorkerPool) Submit(task func()) error {
	p.mutex.Lock()
	if p.stopped {
		p.mutex.Unlock()
		return ErrPoolStopped
	}
	if p.workers < p.coreSize {
		p.spawn(task, true)
		p.mutex.Unlock()
		return nil
	}
	p.mutex.Unlock()

	select {
	case p.tasks <- task:
		return nil
	default:
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.stopped {
		return ErrPoolStopped
	}
	p.spawn(task, false)
	return nil
}

// must be called while holding the lock
func (p *WorkerPool) spawn(task func(), core bool) {
	p.workers++
	p.workersGauge.Inc()
	go p.work(task, core)
}

func (p *WorkerPool) work(task func(), core bool) {
	defer func() {
		p.mutex.Lock()
		p.workers--
		p.mutex.Unlock()
		p.workersGauge.Dec()
	}()

	for {
		p.run(task)
		if core {
			select {
			case task = <-p.tasks:
			case <-p.stop:
				return
			}
			continue
		}

		idle := time.NewTimer(p.keepAlive)
		select {
		case task = <-p.tasks:
			idle.Stop()
		case <-idle.C:
			return
		case <-p.stop:
			idle.Stop()
			return
		}
	}
}

func (p *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			WORKER_PANIC.Log(logger.Error()).Interface("panic", r).Msg("task panicked")
		}
	}()
	task()
}

// Workers returns the number of live workers
func (p *WorkerPool) Workers() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.workers
}

// Stop signals idle workers to exit and rejects further tasks. It returns immediately.
func (p *WorkerPool) Stop() {
	p.mutex.Lock()
	p.stopped = true
	p.mutex.Unlock()
	commons.CloseQuietly(p.stop)
}
