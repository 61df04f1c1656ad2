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

package export_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

type echoInvoker struct {
	calls int32
}

func (e *echoInvoker) Invoke(method string, args []interface{}, info manager.AdditionalInfo) (interface{}, error) {
	atomic.AddInt32(&e.calls, 1)
	return method, nil
}

func TestLocalExporter_Release(t *testing.T) {
	leases := export.NewLeaseTable(time.Minute, time.Minute)
	exporter := export.NewLocalExporter(leases)
	target := &echoInvoker{}
	exp, err := exporter.Export(target, manager.Application, "H1")
	if err != nil {
		t.Fatal(err)
	}
	var fired int32
	exp.OnUnreferenced(func() { atomic.AddInt32(&fired, 1) })

	b, ok := exporter.Lookup(exp.ClientHandle())
	if !ok {
		t.Fatal("export should be registered")
	}
	if result, err := b.Invoke("listApplications", nil, nil); err != nil || result != "listApplications" {
		t.Errorf("%v : %v", result, err)
	}

	b.Release()
	b.Release()
	if atomic.LoadInt32(&fired) != 1 {
		t.Errorf("OnUnreferenced should fire exactly once : %d", fired)
	}
	if _, ok := exporter.Lookup(exp.ClientHandle()); ok {
		t.Error("export should have been removed")
	}
	if leases.Len() != 0 {
		t.Error("lease should have been removed")
	}
	_, err = b.Invoke("listApplications", nil, nil)
	if _, ok := err.(*rpcerr.SessionError); !ok {
		t.Errorf("a released export rejects calls : %v", err)
	}
}

func TestUnexport_DoesNotFireCallbacks(t *testing.T) {
	exporter := export.NewLocalExporter(export.NewLeaseTable(0, 0))
	exp, _ := exporter.Export(&echoInvoker{}, manager.Security, "H1")
	fired := false
	exp.OnUnreferenced(func() { fired = true })
	exp.Unexport()
	if fired {
		t.Error("Unexport must not fire OnUnreferenced")
	}
	if exporter.Len() != 0 {
		t.Error("export should have been removed")
	}
}

func TestOnUnreferenced_AfterRelease(t *testing.T) {
	exporter := export.NewLocalExporter(nil)
	exp, _ := exporter.Export(&echoInvoker{}, manager.SchemaReference, "H1")
	b, _ := exporter.Lookup(exp.ClientHandle())
	b.Release()

	fired := make(chan struct{})
	exp.OnUnreferenced(func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Error("a callback registered after the export was unreferenced should still fire")
	}
}

func TestOnUnreferenced_AfterUnexport(t *testing.T) {
	exporter := export.NewLocalExporter(nil)
	exp, _ := exporter.Export(&echoInvoker{}, manager.SchemaReference, "H1")
	exp.Unexport()

	fired := make(chan struct{})
	exp.OnUnreferenced(func() { close(fired) })
	select {
	case <-fired:
		t.Error("Unexport must not fire OnUnreferenced")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLeaseTable_Sweep(t *testing.T) {
	leases := export.NewLeaseTable(time.Minute, time.Minute)
	exporter := export.NewLocalExporter(leases)
	exp1, _ := exporter.Export(&echoInvoker{}, manager.Application, "H1")
	exp2, _ := exporter.Export(&echoInvoker{}, manager.Microservice, "H1")
	var fired1, fired2 bool
	exp1.OnUnreferenced(func() { fired1 = true })
	exp2.OnUnreferenced(func() { fired2 = true })

	if count := leases.Sweep(time.Now()); count != 0 {
		t.Errorf("no lease has lapsed yet : %d", count)
	}
	if count := leases.Sweep(time.Now().Add(2 * time.Minute)); count != 2 {
		t.Errorf("both leases have lapsed : %d", count)
	}
	if !fired1 || !fired2 {
		t.Error("OnUnreferenced should have fired for both exports")
	}
}

func TestLeaseTable_RenewedLeaseSurvives(t *testing.T) {
	leases := export.NewLeaseTable(100*time.Millisecond, 20*time.Millisecond)
	if err := leases.Start(); err != nil {
		t.Fatal(err)
	}
	defer leases.Stop()
	exporter := export.NewLocalExporter(leases)
	active, _ := exporter.Export(&echoInvoker{}, manager.Application, "H1")
	idle, _ := exporter.Export(&echoInvoker{}, manager.Microservice, "H1")
	lapsed := make(chan struct{})
	idle.OnUnreferenced(func() { close(lapsed) })
	active.OnUnreferenced(func() { t.Error("the renewed export should not lapse") })

	b, _ := exporter.Lookup(active.ClientHandle())
	deadline := time.After(time.Second)
	for {
		select {
		case <-lapsed:
			if exporter.Len() != 1 {
				t.Errorf("only the active export should remain : %d", exporter.Len())
			}
			active.Unexport()
			return
		case <-deadline:
			t.Fatal("the idle export lease should have lapsed")
		case <-time.After(20 * time.Millisecond):
			b.Renew()
		}
	}
}

func TestLeaseTable_StopBeforeStart(t *testing.T) {
	leases := export.NewLeaseTable(0, 0)
	leases.Stop()
	if err := leases.Start(); err == nil {
		t.Error("a stopped lease table cannot be started")
	}
}
