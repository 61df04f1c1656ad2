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

// Package export exposes manager instances to remote callers and reports when no caller references them anymore.
//
// Remote callers hold a lease on every export they use. A call renews the lease. A caller may also renew it
// explicitly with a ping, or give it up with a release. When a lease is released, or lapses without being
// renewed, the export is withdrawn and its OnUnreferenced callbacks fire, exactly once. Withdrawing an export
// from the server side with Unexport does not fire the callbacks.
package export

import (
	"fmt"

	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
)

// Invoker is the generic call surface of an exported object
type Invoker interface {
	Invoke(method string, args []interface{}, info manager.AdditionalInfo) (interface{}, error)
}

// ClientHandle is what a remote caller needs to reach an export. It is comparable.
type ClientHandle struct {
	ID      string `json:"id"`
	Manager string `json:"mgr"`
	// Address is transport specific, e.g., the NATS subject the export is served on
	Address string `json:"addr"`
}

func (h ClientHandle) String() string {
	return fmt.Sprintf("%s:%s@%s", h.Manager, h.ID, h.Address)
}

// Export is a live export
type Export interface {
	ClientHandle() ClientHandle
	// OnUnreferenced registers a callback that fires once no caller references the export anymore.
	// A callback registered after the export was unreferenced still fires.
	OnUnreferenced(f func())
	// Unexport withdraws the export without firing the OnUnreferenced callbacks
	Unexport()
}

// Exporter exports an Invoker for the manager type owned by the session
type Exporter interface {
	Export(target Invoker, typ manager.Type, handle string) (Export, error)
}

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

// log events
const (
	EXPORTED     = logging.LogEventID(0xc7d93e0a51b6f248)
	UNEXPORTED   = logging.LogEventID(0x8a4f61d2b07e3c95)
	UNREFERENCED = logging.LogEventID(0xe05b2c8f3d91a674)
	LEASE_LAPSED = logging.LogEventID(0x9d3e7a0c64f85b12)
)
