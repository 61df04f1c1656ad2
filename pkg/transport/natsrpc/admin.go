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
	"github.com/oysterpack/esbadmin/pkg/admin"
	"github.com/oysterpack/esbadmin/pkg/dispatch"
	"github.com/oysterpack/esbadmin/pkg/lifecycle"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

// admin operation names
const (
	OpLogin                                 = "login"
	OpLogout                                = "logout"
	OpGetManager                            = "getManager"
	OpAddApplicationListener                = "addApplicationListener"
	OpRemoveApplicationListener             = "removeApplicationListener"
	OpAddRepositoryEventListener            = "addRepositoryEventListener"
	OpRemoveRepositoryEventListener         = "removeRepositoryEventListener"
	OpAddConfigurationRepositoryListener    = "addConfigurationRepositoryListener"
	OpRemoveConfigurationRepositoryListener = "removeConfigurationRepositoryListener"
)

// GetManagerOp returns the admin operation name for the manager type, e.g., getApplicationManager
func GetManagerOp(t manager.Type) string {
	switch t {
	case manager.Microservice:
		return "getServiceManager"
	case manager.Security:
		return "getUserSecurityManager"
	default:
		return "get" + t.String() + "Manager"
	}
}

// AdminService serves the admin surface on the admin subject
type AdminService struct {
	state lifecycle.ServiceState

	conn     *nats.Conn
	prefix   string
	timeout  time.Duration
	server   *admin.Server
	registry *dispatch.Registry

	mutex sync.Mutex
	sub   *nats.Subscription
}

// NewAdminService creates the service. timeout applies to the callbacks sent to remote listeners.
func NewAdminService(conn *nats.Conn, prefix string, timeout time.Duration, server *admin.Server) *AdminService {
	s := &AdminService{
		conn:    conn,
		prefix:  prefix,
		timeout: timeout,
		server:  server,
	}
	s.registry = dispatch.MustNewRegistry("admin", s.operations()...)
	return s
}

// Subject returns the subject the service is served on
func (s *AdminService) Subject() string { return AdminSubject(s.prefix) }

// Start subscribes to the admin subject
func (s *AdminService) Start() error {
	if _, err := s.state.Starting(); err != nil {
		return err
	}
	sub, err := subscribe(s.conn, s.Subject(), s.serve)
	if err != nil {
		s.state.Failed(err)
		return err
	}
	s.mutex.Lock()
	s.sub = sub
	s.mutex.Unlock()
	s.state.Running()
	ADMIN_SERVICE_STARTED.Log(logger.Info()).Str("subject", s.Subject()).Msg("started")
	return nil
}

// Stop unsubscribes from the admin subject
func (s *AdminService) Stop() error {
	state, _ := s.state.State()
	if state.Stopped() {
		return nil
	}
	if state == lifecycle.New {
		_, err := s.state.Terminated()
		return err
	}
	s.state.Stopping()
	s.mutex.Lock()
	sub := s.sub
	s.sub = nil
	s.mutex.Unlock()
	var err error
	if sub != nil {
		if err = sub.Unsubscribe(); err == nats.ErrConnectionClosed {
			err = nil
		}
	}
	s.state.Terminated()
	ADMIN_SERVICE_STOPPED.Log(logger.Info()).Str("subject", s.Subject()).Msg("stopped")
	return err
}

// State returns the lifecycle state
func (s *AdminService) State() lifecycle.State {
	state, _ := s.state.State()
	return state
}

func (s *AdminService) serve(msg *nats.Msg) {
	req, ok := decodeRequest(msg)
	if !ok {
		return
	}
	var result interface{}
	err := rpcerr.Trap(func() (err error) {
		paramTypes, keyed := req.Info.ParameterTypes()
		result, err = s.registry.Call(req.Method, req.Args, paramTypes, keyed)
		return
	}, req.Method)
	respond(msg, result, err)
}

func (s *AdminService) proxy(subject string) *ListenerProxy {
	return NewListenerProxy(s.conn, subject, s.timeout)
}

func (s *AdminService) operations() []dispatch.Operation {
	ops := []dispatch.Operation{
		dispatch.Op(OpLogin, func(args dispatch.Args) (interface{}, error) {
			return withStrings(args, 3, func(a []string) (interface{}, error) { return s.server.Login(a[0], a[1], a[2]) })
		}, dispatch.String, dispatch.String, dispatch.String),
		dispatch.Op(OpLogout, func(args dispatch.Args) (interface{}, error) {
			return withStrings(args, 1, func(a []string) (interface{}, error) { return nil, s.server.Logout(a[0]) })
		}, dispatch.String),
		dispatch.Op(OpGetManager, func(args dispatch.Args) (interface{}, error) {
			return withStrings(args, 2, func(a []string) (interface{}, error) {
				t, err := manager.ParseType(a[1])
				if err != nil {
					return nil, &rpcerr.DispatchError{Reason: rpcerr.InvalidArgument}
				}
				return s.server.GetManager(a[0], t)
			})
		}, dispatch.String, dispatch.String),
		dispatch.Op(OpAddApplicationListener, func(args dispatch.Args) (interface{}, error) {
			return withStrings(args, 4, func(a []string) (interface{}, error) {
				return nil, s.server.AddApplicationListener(s.proxy(a[0]), a[1], a[2], a[3])
			})
		}, dispatch.String, dispatch.String, dispatch.String, dispatch.String),
		dispatch.Op(OpRemoveApplicationListener, func(args dispatch.Args) (interface{}, error) {
			return withStrings(args, 3, func(a []string) (interface{}, error) {
				return nil, s.server.RemoveApplicationListener(a[0], a[1], a[2])
			})
		}, dispatch.String, dispatch.String, dispatch.String),
		dispatch.Op(OpAddRepositoryEventListener, func(args dispatch.Args) (interface{}, error) {
			return withStrings(args, 2, func(a []string) (interface{}, error) {
				return nil, s.server.AddRepositoryEventListener(s.proxy(a[0]), a[1])
			})
		}, dispatch.String, dispatch.String),
		dispatch.Op(OpRemoveRepositoryEventListener, func(args dispatch.Args) (interface{}, error) {
			return withStrings(args, 1, func(a []string) (interface{}, error) {
				return nil, s.server.RemoveRepositoryEventListener(a[0])
			})
		}, dispatch.String),
		dispatch.Op(OpAddConfigurationRepositoryListener, func(args dispatch.Args) (interface{}, error) {
			return withStrings(args, 2, func(a []string) (interface{}, error) {
				return nil, s.server.AddConfigurationRepositoryListener(s.proxy(a[0]), a[1])
			})
		}, dispatch.String, dispatch.String),
		dispatch.Op(OpRemoveConfigurationRepositoryListener, func(args dispatch.Args) (interface{}, error) {
			return withStrings(args, 1, func(a []string) (interface{}, error) {
				return nil, s.server.RemoveConfigurationRepositoryListener(a[0])
			})
		}, dispatch.String),
	}
	for _, t := range manager.Types {
		t := t
		ops = append(ops, dispatch.Op(GetManagerOp(t), func(args dispatch.Args) (interface{}, error) {
			return withStrings(args, 1, func(a []string) (interface{}, error) { return s.server.GetManager(a[0], t) })
		}, dispatch.String))
	}
	return ops
}

func withStrings(args dispatch.Args, n int, f func(a []string) (interface{}, error)) (interface{}, error) {
	strs := make([]string, n)
	for i := range strs {
		s, err := args.String(i)
		if err != nil {
			return nil, err
		}
		strs[i] = s
	}
	return f(strs)
}
