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

	"github.com/nats-io/nuid"
	"github.com/oysterpack/esbadmin/pkg/manager"
)

// LocalAddress is the address of in-process exports
const LocalAddress = "local"

// LocalExporter exports within the process. Callers look up the export by id.
type LocalExporter struct {
	leases *LeaseTable

	mutex   sync.RWMutex
	exports map[string]*Base
}

// NewLocalExporter creates a new LocalExporter. leases may be nil, in which case exports never lapse.
func NewLocalExporter(leases *LeaseTable) *LocalExporter {
	return &LocalExporter{leases: leases, exports: map[string]*Base{}}
}

// Export implements Exporter
func (e *LocalExporter) Export(target Invoker, typ manager.Type, handle string) (Export, error) {
	id := nuid.Next()
	b := NewBase(ClientHandle{ID: id, Manager: typ.String(), Address: LocalAddress}, handle, target, e.leases, func() {
		e.mutex.Lock()
		delete(e.exports, id)
		e.mutex.Unlock()
	})
	e.mutex.Lock()
	e.exports[id] = b
	e.mutex.Unlock()
	return b, nil
}

// Lookup returns the live export
func (e *LocalExporter) Lookup(h ClientHandle) (*Base, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	b, ok := e.exports[h.ID]
	return b, ok
}

// Len returns the number of live exports
func (e *LocalExporter) Len() int {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return len(e.exports)
}
