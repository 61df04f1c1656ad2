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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oysterpack/esbadmin/pkg/event"
)

func TestWorkerPool_GrowsBeyondCore(t *testing.T) {
	pool := event.NewWorkerPool(2, 50*time.Millisecond)
	defer pool.Stop()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(4)
	for i := 0; i < 4; i++ {
		if err := pool.Submit(func() {
			started.Done()
			<-release
		}); err != nil {
			t.Fatal(err)
		}
	}
	// all 4 tasks run concurrently, i.e., the pool has no maximum
	started.Wait()
	if workers := pool.Workers(); workers != 4 {
		t.Errorf("expected 4 workers : %d", workers)
	}
	close(release)

	// the 2 non-core workers retire after the keep alive
	deadline := time.Now().Add(2 * time.Second)
	for pool.Workers() != 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if workers := pool.Workers(); workers != 2 {
		t.Errorf("expected the pool to shrink back to the core size : %d", workers)
	}
}

func TestWorkerPool_ReusesIdleWorkers(t *testing.T) {
	pool := event.NewWorkerPool(1, time.Minute)
	defer pool.Stop()

	var count int32
	done := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			atomic.AddInt32(&count, 1)
			done <- struct{}{}
		})
		<-done
		// give the worker time to loop back to idle
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&count) != 10 {
		t.Errorf("all tasks should have run : %d", count)
	}
	if workers := pool.Workers(); workers != 1 {
		t.Errorf("idle workers should be reused : %d", workers)
	}
}

func TestWorkerPool_PanicIsContained(t *testing.T) {
	pool := event.NewWorkerPool(1, time.Minute)
	defer pool.Stop()

	pool.Submit(func() { panic("BOOM") })
	done := make(chan struct{})
	pool.Submit(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("the pool should keep running tasks after a task panics")
	}
}

func TestWorkerPool_Stop(t *testing.T) {
	pool := event.NewWorkerPool(0, 0)
	pool.Submit(func() {})
	pool.Stop()
	if err := pool.Submit(func() {}); err != event.ErrPoolStopped {
		t.Errorf("expected ErrPoolStopped : %v", err)
	}
	// stopping twice is harmless
	pool.Stop()
}
