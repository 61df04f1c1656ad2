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

package export

import (
	"sync"
	"time"

	"github.com/oysterpack/esbadmin/pkg/lifecycle"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"gopkg.in/tomb.v2"
)

// lease defaults
const (
	DefaultLeaseDuration = 5 * time.Minute
	DefaultSweepInterval = 30 * time.Second
)

type lease struct {
	export  *Base
	expires time.Time
}

// LeaseTable tracks the leases held by remote callers. Its sweeper withdraws exports whose lease lapsed.
type LeaseTable struct {
	duration      time.Duration
	sweepInterval time.Duration

	mutex  sync.Mutex
	leases map[string]*lease

	state lifecycle.ServiceState
	tomb  tomb.Tomb
}

// NewLeaseTable creates a new table. Zero values are replaced with the defaults.
func NewLeaseTable(duration, sweepInterval time.Duration) *LeaseTable {
	if duration <= 0 {
		duration = DefaultLeaseDuration
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &LeaseTable{
		duration:      duration,
		sweepInterval: sweepInterval,
		leases:        map[string]*lease{},
	}
}

func (t *LeaseTable) add(b *Base) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.leases[b.handle.ID] = &lease{export: b, expires: time.Now().Add(t.duration)}
}

func (t *LeaseTable) remove(id string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.leases, id)
}

// Renew extends the lease. Returns false if no lease exists for the export.
func (t *LeaseTable) Renew(id string) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	l, ok := t.leases[id]
	if !ok {
		return false
	}
	l.expires = time.Now().Add(t.duration)
	return true
}

// Len returns the number of active leases
func (t *LeaseTable) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.leases)
}

// Sweep withdraws the exports whose lease expired before now, firing their OnUnreferenced callbacks.
// Returns the number of exports withdrawn.
func (t *LeaseTable) Sweep(now time.Time) int {
	t.mutex.Lock()
	var lapsed []*Base
	for _, l := range t.leases {
		if l.expires.Before(now) {
			lapsed = append(lapsed, l.export)
		}
	}
	t.mutex.Unlock()

	for _, b := range lapsed {
		LEASE_LAPSED.Log(logger.Info()).
			Str(logging.ID, b.handle.ID).
			Str(logging.SESSION, b.session).
			Msg("lease lapsed")
		b.unreferenced()
	}
	return len(lapsed)
}

// Start runs the sweeper
func (t *LeaseTable) Start() error {
	if _, err := t.state.Starting(); err != nil {
		return err
	}
	t.tomb.Go(func() error {
		ticker := time.NewTicker(t.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-t.tomb.Dying():
				return nil
			case now := <-ticker.C:
				t.Sweep(now)
			}
		}
	})
	t.state.Running()
	return nil
}

// Stop stops the sweeper. Active leases are left in place.
func (t *LeaseTable) Stop() {
	state, _ := t.state.State()
	if state != lifecycle.Running {
		t.state.Terminated()
		return
	}
	t.state.Stopping()
	t.tomb.Kill(nil)
	t.tomb.Wait()
	t.state.Terminated()
}
