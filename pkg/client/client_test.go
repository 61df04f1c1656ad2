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

package client_test

import (
	"errors"
	"testing"
	"time"

	"github.com/oysterpack/esbadmin/pkg/client"
	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/inmem"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
	"github.com/oysterpack/esbadmin/pkg/session"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	users    *inmem.Users
	sessions *session.Registry
	exporter *export.LocalExporter
	handle   string
}

func newFixture(t *testing.T) *fixture {
	users, err := inmem.NewUsersWithCost(map[string]string{"admin": "secret"}, bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	collaborators := &manager.Collaborators{
		Applications:     inmem.NewApplicationController(),
		Microservices:    inmem.NewMicroserviceRepository(),
		Debugger:         inmem.NewDebugger(),
		Schemas:          inmem.NewSchemaRepository(),
		ServiceProviders: inmem.ServiceProviders{{Name: "jms", Type: "JMS", Status: "RUNNING"}},
		Security:         users,
	}
	exporter := export.NewLocalExporter(nil)
	sessions := session.NewRegistry(users, collaborators, exporter, event.NewListenerRegistry())
	handle, err := sessions.Login("admin", "secret", "test")
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{users, sessions, exporter, handle}
}

func (f *fixture) invoker(t *testing.T, typ manager.Type) client.Invoker {
	h, err := f.sessions.Manager(f.handle, typ)
	if err != nil {
		t.Fatal(err)
	}
	inv, err := client.Local(f.exporter, h)
	if err != nil {
		t.Fatal(err)
	}
	return inv
}

func domainCode(err error) string {
	var domainErr *rpcerr.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

func TestApplicationManager(t *testing.T) {
	f := newFixture(t)
	apps := &client.ApplicationManager{Invoker: f.invoker(t, manager.Application)}

	if err := apps.DeployApplication("EP1", "1.0.0", []byte("archive")); err != nil {
		t.Fatal(err)
	}
	if err := apps.LaunchApplication("EP1", "1.0.0"); err != nil {
		t.Fatal(err)
	}
	state, err := apps.ApplicationState("EP1", "1.0.0")
	if err != nil || state != manager.StateRunning {
		t.Errorf("unexpected state : %q : %v", state, err)
	}
	// the overload that takes the timeout
	if err := apps.StopApplication("EP1", "1.0.0", 2*time.Second); err != nil {
		t.Fatal(err)
	}
	if err := apps.StopApplication("EP1", "1.0.0", 0); domainCode(err) != manager.INVALID_STATE {
		t.Errorf("expected INVALID_STATE : %v", err)
	}

	infos, err := apps.ListApplications()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].GUID != "EP1" || infos[0].State != manager.StateStopped {
		t.Errorf("unexpected applications : %v", infos)
	}
	if err := apps.LaunchApplication("EP2", "1.0.0"); domainCode(err) != manager.APP_NOT_FOUND {
		t.Errorf("expected APP_NOT_FOUND : %v", err)
	}
}

func TestServiceManager_UndeployOverloads(t *testing.T) {
	f := newFixture(t)
	services := &client.ServiceManager{Invoker: f.invoker(t, manager.Microservice)}

	for _, v := range []string{"1.0.0", "1.1.0", "2.0.0"} {
		if err := services.DeployService("SVC1", v, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := services.UndeployService("SVC1", "1.0.0"); err != nil {
		t.Fatal(err)
	}
	versions, err := services.GetVersions("SVC1")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 || versions[0] != "1.1.0" {
		t.Errorf("unexpected versions : %v", versions)
	}
	if err := services.UndeployService("SVC1", ""); err != nil {
		t.Fatal(err)
	}
	if infos, _ := services.ListServices(); len(infos) != 0 {
		t.Errorf("all versions should have been undeployed : %v", infos)
	}
}

func TestUserSecurityManager_ChangePasswordOverloads(t *testing.T) {
	f := newFixture(t)
	security := &client.UserSecurityManager{Invoker: f.invoker(t, manager.Security)}

	if err := security.CreateUser("bob", "pw1"); err != nil {
		t.Fatal(err)
	}
	if err := security.ChangePassword("bob", "wrong", "pw2"); domainCode(err) != manager.BAD_CREDENTIALS {
		t.Errorf("expected BAD_CREDENTIALS : %v", err)
	}
	if err := security.ChangePassword("bob", "pw1", "pw2"); err != nil {
		t.Fatal(err)
	}
	if err := security.ResetPassword("bob", "pw3"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.users.Authenticate("bob", "pw3"); err != nil {
		t.Errorf("password should have been reset : %v", err)
	}
	users, err := security.ListUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Errorf("unexpected users : %v", users)
	}
}

func TestBreakpointManager(t *testing.T) {
	f := newFixture(t)
	breakpoints := &client.BreakpointManager{Invoker: f.invoker(t, manager.Breakpoint)}

	bp, err := breakpoints.AddBreakpoint("EP1", "1.0.0", "step-1")
	if err != nil {
		t.Fatal(err)
	}
	list, err := breakpoints.ListBreakpoints("EP1", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != bp.ID {
		t.Errorf("unexpected breakpoints : %v", list)
	}
	if err := breakpoints.RemoveBreakpoint(bp.ID); err != nil {
		t.Error(err)
	}
	if err := breakpoints.Resume("EP1", "1.0.0"); err != nil {
		t.Error(err)
	}
}

func TestSchemaAndProviderManagers(t *testing.T) {
	f := newFixture(t)
	schemas := &client.SchemaReferenceManager{Invoker: f.invoker(t, manager.SchemaReference)}
	providers := &client.ServiceProviderManager{Invoker: f.invoker(t, manager.ServiceProvider)}

	if err := schemas.RegisterSchema("order.xsd", "<schema/>"); err != nil {
		t.Fatal(err)
	}
	if content, err := schemas.GetSchema("order.xsd"); err != nil || content != "<schema/>" {
		t.Errorf("unexpected schema : %q : %v", content, err)
	}
	if names, err := schemas.ListSchemas(); err != nil || len(names) != 1 {
		t.Errorf("unexpected schemas : %v : %v", names, err)
	}
	if _, err := schemas.GetSchema("missing.xsd"); domainCode(err) != manager.SCHEMA_NOT_FOUND {
		t.Errorf("expected SCHEMA_NOT_FOUND : %v", err)
	}

	list, err := providers.ListProviders()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "jms" {
		t.Errorf("unexpected providers : %v", list)
	}
	if status, err := providers.ProviderStatus("jms"); err != nil || status != "RUNNING" {
		t.Errorf("unexpected status : %q : %v", status, err)
	}
}

func TestMissingCollaborator(t *testing.T) {
	f := newFixture(t)
	// no configuration repository was configured
	if _, err := f.sessions.Manager(f.handle, manager.Configuration); err == nil {
		t.Error("expected an error")
	}
}

func TestLocal_UnknownExport(t *testing.T) {
	f := newFixture(t)
	_, err := client.Local(f.exporter, export.ClientHandle{ID: "unknown"})
	var transportErr *rpcerr.TransportError
	if !errors.As(err, &transportErr) || !transportErr.Gone {
		t.Errorf("expected TransportError(Gone) : %v", err)
	}
}

func TestAfterLogout(t *testing.T) {
	f := newFixture(t)
	schemas := &client.SchemaReferenceManager{Invoker: f.invoker(t, manager.SchemaReference)}
	if err := f.sessions.Logout(f.handle); err != nil {
		t.Fatal(err)
	}
	_, err := schemas.ListSchemas()
	switch err.(type) {
	case *rpcerr.SessionError:
	default:
		t.Errorf("expected SessionError : %T : %v", err, err)
	}
}

func TestWithClientInfo(t *testing.T) {
	var infos []manager.AdditionalInfo
	inv := client.WithClientInfo(client.InvokerFunc(func(method string, args []interface{}, info manager.AdditionalInfo) (interface{}, error) {
		infos = append(infos, info)
		return nil, nil
	}), manager.ClientInfo{Locale: "en_US", Address: "10.0.0.1"})

	schemas := &client.SchemaReferenceManager{Invoker: inv}
	schemas.RemoveSchema("a")
	schemas.RemoveSchema("b")
	if len(infos) != 2 {
		t.Fatalf("expected 2 calls : %d", len(infos))
	}
	if infos[0].ClientInfo() != (manager.ClientInfo{Locale: "en_US", Address: "10.0.0.1"}) {
		t.Errorf("client info should be sent with the first call : %v", infos[0])
	}
	if !infos[1].ClientInfo().Empty() {
		t.Errorf("client info should only be sent with the first call : %v", infos[1])
	}
}

func TestWithClientInfo_RecordedBySession(t *testing.T) {
	f := newFixture(t)
	inv := client.WithClientInfo(f.invoker(t, manager.SchemaReference), manager.ClientInfo{Locale: "de_DE"})
	if _, err := (&client.SchemaReferenceManager{Invoker: inv}).ListSchemas(); err != nil {
		t.Fatal(err)
	}
	info, ok := f.sessions.Info(f.handle)
	if !ok {
		t.Fatal("session not found")
	}
	if info.ClientInfo.Locale != "de_DE" {
		t.Errorf("client info was not recorded : %v", info.ClientInfo)
	}
}

func TestWithRetry(t *testing.T) {
	failures := 2
	calls := 0
	flaky := client.InvokerFunc(func(method string, args []interface{}, info manager.AdditionalInfo) (interface{}, error) {
		calls++
		if calls <= failures {
			return nil, &rpcerr.TransportError{Target: method, Err: errors.New("connection closed")}
		}
		return []string{"a"}, nil
	})

	schemas := &client.SchemaReferenceManager{Invoker: client.WithRetry(flaky, 3, time.Millisecond)}
	names, err := schemas.ListSchemas()
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 || len(names) != 1 {
		t.Errorf("unexpected result : calls = %d : %v", calls, names)
	}

	calls = 0
	failures = 10
	if _, err := schemas.ListSchemas(); err == nil {
		t.Error("expected the TransportError after the last attempt")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts but was %d", calls)
	}
}

func TestWithRetry_NotRetried(t *testing.T) {
	tests := []error{
		&rpcerr.TransportError{Target: "x", Gone: true, Err: errors.New("no responders")},
		&rpcerr.TransportError{Target: "x", Delivered: true, Err: errors.New("timeout")},
		rpcerr.NewDomainError(manager.SCHEMA_NOT_FOUND, "not found"),
		&rpcerr.SessionError{Handle: "H1", Operation: "listSchemas"},
	}
	for _, expected := range tests {
		calls := 0
		inv := client.WithRetry(client.InvokerFunc(func(method string, args []interface{}, info manager.AdditionalInfo) (interface{}, error) {
			calls++
			return nil, expected
		}), 5, time.Millisecond)
		if _, err := inv.Invoke("listSchemas", nil, nil); err != expected {
			t.Errorf("unexpected error : %v", err)
		}
		if calls != 1 {
			t.Errorf("%T should not have been retried : calls = %d", expected, calls)
		}
	}
}
