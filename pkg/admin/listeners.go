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

package admin

import (
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

// subscribe registers the listener on behalf of the session. The registration is rolled back if the session was
// removed concurrently.
func (s *Server) subscribe(operation, handle string, register, unregister func()) error {
	if !s.sessions.Live(handle) {
		return &rpcerr.SessionError{Handle: handle, Operation: operation}
	}
	register()
	if !s.sessions.Live(handle) {
		unregister()
		return &rpcerr.SessionError{Handle: handle, Operation: operation}
	}
	LISTENER_ADDED.Log(logger.Debug()).Str(logging.SESSION, handle).Str(logging.FUNC, operation).Msg("")
	return nil
}

func (s *Server) unsubscribe(operation, handle string, unregister func() bool) error {
	if !s.sessions.Live(handle) {
		return &rpcerr.SessionError{Handle: handle, Operation: operation}
	}
	if unregister() {
		LISTENER_REMOVE.Log(logger.Debug()).Str(logging.SESSION, handle).Str(logging.FUNC, operation).Msg("")
	}
	return nil
}

// AddApplicationListener subscribes the listener to the lifecycle events of the application version
func (s *Server) AddApplicationListener(l ApplicationListener, appGUID, version, handle string) error {
	listeners := s.events.Listeners()
	return s.subscribe("addApplicationListener", handle,
		func() { listeners.AddApplicationListener(handle, appGUID, version, l) },
		func() { listeners.RemoveApplicationListener(handle, appGUID, version) },
	)
}

// RemoveApplicationListener unsubscribes the session's listener for the application version
func (s *Server) RemoveApplicationListener(appGUID, version, handle string) error {
	listeners := s.events.Listeners()
	return s.unsubscribe("removeApplicationListener", handle, func() bool {
		return listeners.RemoveApplicationListener(handle, appGUID, version)
	})
}

// AddRepositoryEventListener subscribes the listener to all repository events
func (s *Server) AddRepositoryEventListener(l RepositoryEventListener, handle string) error {
	listeners := s.events.Listeners()
	return s.subscribe("addRepositoryEventListener", handle,
		func() { listeners.AddRepositoryEventListener(handle, l) },
		func() { listeners.RemoveRepositoryEventListener(handle) },
	)
}

// RemoveRepositoryEventListener unsubscribes the session's repository listener
func (s *Server) RemoveRepositoryEventListener(handle string) error {
	listeners := s.events.Listeners()
	return s.unsubscribe("removeRepositoryEventListener", handle, func() bool {
		return listeners.RemoveRepositoryEventListener(handle)
	})
}

// AddConfigurationRepositoryListener subscribes the listener to all named configuration events
func (s *Server) AddConfigurationRepositoryListener(l ConfigurationRepositoryListener, handle string) error {
	listeners := s.events.Listeners()
	return s.subscribe("addConfigurationRepositoryListener", handle,
		func() { listeners.AddConfigurationRepositoryListener(handle, l) },
		func() { listeners.RemoveConfigurationRepositoryListener(handle) },
	)
}

// RemoveConfigurationRepositoryListener unsubscribes the session's configuration listener
func (s *Server) RemoveConfigurationRepositoryListener(handle string) error {
	listeners := s.events.Listeners()
	return s.unsubscribe("removeConfigurationRepositoryListener", handle, func() bool {
		return listeners.RemoveConfigurationRepositoryListener(handle)
	})
}
