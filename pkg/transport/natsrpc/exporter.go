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

package natsrpc

import (
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nuid"
	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

// Exporter implements export.Exporter. Each export is served on its own subject.
type Exporter struct {
	conn   *nats.Conn
	prefix string
	leases *export.LeaseTable

	mutex   sync.RWMutex
	exports map[string]*export.Base
}

// NewExporter creates a new Exporter. leases may be nil, in which case exports are only released explicitly.
func NewExporter(conn *nats.Conn, prefix string, leases *export.LeaseTable) *Exporter {
	return &Exporter{
		conn:    conn,
		prefix:  prefix,
		leases:  leases,
		exports: map[string]*export.Base{},
	}
}

// Export implements export.Exporter
func (e *Exporter) Export(target export.Invoker, typ manager.Type, handle string) (export.Export, error) {
	id := nuid.Next()
	subject := managerSubject(e.prefix, id)
	b := export.NewBase(export.ClientHandle{ID: id, Manager: typ.String(), Address: subject}, handle, target, e.leases, nil)
	sub, err := subscribe(e.conn, subject, func(msg *nats.Msg) { serveExport(b, msg) })
	if err != nil {
		b.Unexport()
		return nil, err
	}
	e.mutex.Lock()
	e.exports[id] = b
	e.mutex.Unlock()
	b.SetTeardown(func() {
		if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			logger.Warn().Str(logging.ID, id).Err(err).Msg("unsubscribe failed")
		}
		e.mutex.Lock()
		delete(e.exports, id)
		e.mutex.Unlock()
	})
	EXPORT_SUBSCRIBED.Log(logger.Debug()).Str(logging.ID, id).Str("subject", subject).Msg("")
	return b, nil
}

// Len returns the number of live exports
func (e *Exporter) Len() int {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return len(e.exports)
}

func serveExport(b *export.Base, msg *nats.Msg) {
	req, ok := decodeRequest(msg)
	if !ok {
		return
	}
	switch req.Method {
	case PingMethod:
		if !b.Renew() {
			respond(msg, nil, &rpcerr.SessionError{Handle: b.Session(), Operation: PingMethod})
			return
		}
		respond(msg, nil, nil)
	case ReleaseMethod:
		respond(msg, nil, nil)
		b.Release()
	default:
		result, err := b.Invoke(req.Method, req.Args, req.Info)
		respond(msg, result, err)
	}
}

// Invoker invokes an export over NATS. It implements export.Invoker, and thus can back the client stubs.
type Invoker struct {
	conn    *nats.Conn
	handle  export.ClientHandle
	timeout time.Duration
}

// NewInvoker creates an Invoker for the export
func NewInvoker(conn *nats.Conn, handle export.ClientHandle, timeout time.Duration) *Invoker {
	return &Invoker{conn: conn, handle: handle, timeout: timeout}
}

// Invoke implements export.Invoker. The result is returned as raw JSON.
func (i *Invoker) Invoke(method string, args []interface{}, info manager.AdditionalInfo) (interface{}, error) {
	result, err := request(i.conn, i.handle.Address, i.timeout, &Request{Method: method, Args: args, Info: info})
	if err != nil || result == nil {
		return nil, err
	}
	return result, nil
}

// Ping renews the lease on the export
func (i *Invoker) Ping() error {
	_, err := request(i.conn, i.handle.Address, i.timeout, &Request{Method: PingMethod})
	return err
}

// Release gives up the reference to the export
func (i *Invoker) Release() error {
	_, err := request(i.conn, i.handle.Address, i.timeout, &Request{Method: ReleaseMethod})
	return err
}

// ClientHandle returns the export's client handle
func (i *Invoker) ClientHandle() export.ClientHandle { return i.handle }
