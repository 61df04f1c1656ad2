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

// Package admin is the client facing surface of the admin server: login and logout, manager lookup, and event
// listener subscriptions.
package admin

import (
	"errors"

	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/lifecycle"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
	"github.com/oysterpack/esbadmin/pkg/session"
)

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

// log events
const (
	SERVER_STARTED  = logging.LogEventID(0xc85e0f3b927a1d46)
	SERVER_STOPPED  = logging.LogEventID(0x97a1d4c60e3bf825)
	INTERNAL_ERROR  = logging.LogEventID(0xe2b6f9a3d7c01548)
	LISTENER_ADDED  = logging.LogEventID(0x83d0c5e7a1f94b26)
	LISTENER_REMOVE = logging.LogEventID(0xa9f4e1b8c2d63057)
)

// listener types accepted by the subscription calls
type (
	ApplicationListener             = event.ApplicationListener
	RepositoryEventListener         = event.RepositoryEventListener
	ConfigurationRepositoryListener = event.ConfigurationRepositoryListener
)

// Settings are the server's collaborators
type Settings struct {
	Authenticator session.Authenticator
	Managers      session.InstanceFactory
	Exporter      export.Exporter
	Events        *event.Distributor
	// Leases is optional. If set, the server runs its sweeper.
	Leases *export.LeaseTable
}

// Server is the admin server facade
type Server struct {
	state lifecycle.ServiceState

	sessions *session.Registry
	events   *event.Distributor
	leases   *export.LeaseTable
}

// NewServer wires the session registry to the event listener registry
func NewServer(settings Settings) (*Server, error) {
	switch {
	case settings.Authenticator == nil:
		return nil, errors.New("Authenticator is required")
	case settings.Managers == nil:
		return nil, errors.New("Managers is required")
	case settings.Exporter == nil:
		return nil, errors.New("Exporter is required")
	case settings.Events == nil:
		return nil, errors.New("Events is required")
	}
	return &Server{
		sessions: session.NewRegistry(settings.Authenticator, settings.Managers, settings.Exporter, settings.Events.Listeners()),
		events:   settings.Events,
		leases:   settings.Leases,
	}, nil
}

// Sessions returns the session registry
func (s *Server) Sessions() *session.Registry { return s.sessions }

// Events returns the event distributor
func (s *Server) Events() *event.Distributor { return s.events }

// Start starts event distribution and the lease sweeper
func (s *Server) Start() error {
	if _, err := s.state.Starting(); err != nil {
		return err
	}
	if err := s.events.Start(); err != nil {
		s.state.Failed(err)
		return err
	}
	if s.leases != nil {
		if err := s.leases.Start(); err != nil {
			s.events.Stop()
			s.state.Failed(err)
			return err
		}
	}
	s.state.Running()
	SERVER_STARTED.Log(logger.Info()).Msg("started")
	return nil
}

// Stop logs out all sessions, then stops the lease sweeper and event distribution
func (s *Server) Stop() error {
	state, _ := s.state.State()
	if state.Stopped() {
		return nil
	}
	if state == lifecycle.New {
		_, err := s.state.Terminated()
		return err
	}
	s.state.Stopping()
	s.sessions.LogoutAll()
	if s.leases != nil {
		s.leases.Stop()
	}
	err := s.events.Stop()
	s.state.Terminated()
	SERVER_STOPPED.Log(logger.Info()).Msg("stopped")
	return err
}

// State returns the server's lifecycle state
func (s *Server) State() lifecycle.State {
	state, _ := s.state.State()
	return state
}

// sanitize converts internal failures to a ServiceError, logging the original
func sanitize(operation string, err error) error {
	exposed := rpcerr.Sanitize(err)
	if exposed != nil && exposed != err {
		INTERNAL_ERROR.Log(logger.Error()).Str(logging.FUNC, operation).Err(err).Msg("internal error")
	}
	return exposed
}

// Login authenticates the user and returns the new session handle
func (s *Server) Login(user, credentials, agent string) (string, error) {
	handle, err := s.sessions.Login(user, credentials, agent)
	if err != nil {
		return "", sanitize("login", err)
	}
	return handle, nil
}

// Logout removes the session
func (s *Server) Logout(handle string) error {
	return sanitize("logout", s.sessions.Logout(handle))
}

// GetManager returns the client handle for the session's manager
func (s *Server) GetManager(handle string, t manager.Type) (export.ClientHandle, error) {
	h, err := s.sessions.Manager(handle, t)
	if err != nil {
		return export.ClientHandle{}, sanitize("get"+t.String()+"Manager", err)
	}
	return h, nil
}

// GetApplicationManager returns the session's application manager
func (s *Server) GetApplicationManager(handle string) (export.ClientHandle, error) {
	return s.GetManager(handle, manager.Application)
}

// GetServiceManager returns the session's microservice manager
func (s *Server) GetServiceManager(handle string) (export.ClientHandle, error) {
	return s.GetManager(handle, manager.Microservice)
}

// GetBreakpointManager returns the session's breakpoint manager
func (s *Server) GetBreakpointManager(handle string) (export.ClientHandle, error) {
	return s.GetManager(handle, manager.Breakpoint)
}

// GetConfigurationManager returns the session's configuration manager
func (s *Server) GetConfigurationManager(handle string) (export.ClientHandle, error) {
	return s.GetManager(handle, manager.Configuration)
}

// GetSchemaReferenceManager returns the session's schema reference manager
func (s *Server) GetSchemaReferenceManager(handle string) (export.ClientHandle, error) {
	return s.GetManager(handle, manager.SchemaReference)
}

// GetServiceProviderManager returns the session's service provider manager
func (s *Server) GetServiceProviderManager(handle string) (export.ClientHandle, error) {
	return s.GetManager(handle, manager.ServiceProvider)
}

// GetUserSecurityManager returns the session's security manager
func (s *Server) GetUserSecurityManager(handle string) (export.ClientHandle, error) {
	return s.GetManager(handle, manager.Security)
}
