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

	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

// Base implements the transport independent part of an Export.
// Transports embed it, and call Invoke, Renew and Release as requests arrive.
type Base struct {
	handle  ClientHandle
	session string
	target  Invoker
	leases  *LeaseTable

	mutex     sync.Mutex
	callbacks []func()
	withdrawn bool
	// set when the export was withdrawn because it was unreferenced
	released bool
	// releases the transport resources, e.g., the subscription
	teardown func()
}

// NewBase creates the export and registers its lease. teardown may be nil.
func NewBase(handle ClientHandle, session string, target Invoker, leases *LeaseTable, teardown func()) *Base {
	b := &Base{
		handle:   handle,
		session:  session,
		target:   target,
		leases:   leases,
		teardown: teardown,
	}
	if leases != nil {
		leases.add(b)
	}
	EXPORTED.Log(logger.Debug()).
		Str(logging.ID, handle.ID).
		Str(logging.MANAGER, handle.Manager).
		Str(logging.SESSION, session).
		Msg("exported")
	return b
}

// SetTeardown replaces the teardown function. It is used by transports that can only subscribe once the export exists.
func (b *Base) SetTeardown(teardown func()) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.teardown = teardown
}

// ClientHandle implements Export
func (b *Base) ClientHandle() ClientHandle { return b.handle }

// Session returns the owning session handle
func (b *Base) Session() string { return b.session }

// OnUnreferenced implements Export. If the export was already unreferenced, e.g., its lease lapsed before the callback
// was registered, then f runs on its own goroutine. If the export was unexported, then f never runs.
func (b *Base) OnUnreferenced(f func()) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	switch {
	case b.released:
		go b.fire(f)
	case !b.withdrawn:
		b.callbacks = append(b.callbacks, f)
	}
}

// Withdrawn returns true once the export was unexported or unreferenced
func (b *Base) Withdrawn() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.withdrawn
}

// Invoke renews the lease and forwards the call to the target
func (b *Base) Invoke(method string, args []interface{}, info manager.AdditionalInfo) (interface{}, error) {
	if b.Withdrawn() {
		return nil, &rpcerr.SessionError{Handle: b.session, Operation: method}
	}
	b.Renew()
	return b.target.Invoke(method, args, info)
}

// Renew extends the caller's lease
func (b *Base) Renew() bool {
	if b.leases == nil {
		return !b.Withdrawn()
	}
	return b.leases.Renew(b.handle.ID)
}

// Release is called when the caller gives up its reference. It fires the OnUnreferenced callbacks.
func (b *Base) Release() {
	b.unreferenced()
}

// Unexport implements Export
func (b *Base) Unexport() {
	if _, ok := b.withdraw(false); ok {
		UNEXPORTED.Log(logger.Debug()).Str(logging.ID, b.handle.ID).Str(logging.SESSION, b.session).Msg("unexported")
	}
}

func (b *Base) unreferenced() {
	callbacks, ok := b.withdraw(true)
	if !ok {
		return
	}
	UNREFERENCED.Log(logger.Info()).
		Str(logging.ID, b.handle.ID).
		Str(logging.MANAGER, b.handle.Manager).
		Str(logging.SESSION, b.session).
		Msg("unreferenced")
	for _, f := range callbacks {
		b.fire(f)
	}
}

func (b *Base) fire(f func()) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error().Str(logging.ID, b.handle.ID).Interface("panic", p).Msg("OnUnreferenced callback panicked")
		}
	}()
	f()
}

// withdraw marks the export withdrawn, removes its lease, and tears down the transport.
// Returns false if it was already withdrawn.
func (b *Base) withdraw(unreferenced bool) ([]func(), bool) {
	b.mutex.Lock()
	if b.withdrawn {
		b.mutex.Unlock()
		return nil, false
	}
	b.withdrawn = true
	b.released = unreferenced
	callbacks := b.callbacks
	b.callbacks = nil
	teardown := b.teardown
	b.mutex.Unlock()

	if b.leases != nil {
		b.leases.remove(b.handle.ID)
	}
	if teardown != nil {
		teardown()
	}
	return callbacks, true
}
