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

package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/metrics"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionsCreatedOpts = &prometheus.CounterOpts{
		Namespace: metrics.METRICS_NAMESPACE,
		Subsystem: "sessions",
		Name:      "created_total",
		Help:      "The number of sessions created",
	}
	sessionsForcedOutOpts = &prometheus.CounterOpts{
		Namespace: metrics.METRICS_NAMESPACE,
		Subsystem: "sessions",
		Name:      "forced_logout_total",
		Help:      "The number of sessions reclaimed after all of their managers were unreferenced",
	}
	sessionsActiveOpts = &prometheus.GaugeOpts{
		Namespace: metrics.METRICS_NAMESPACE,
		Subsystem: "sessions",
		Name:      "active",
		Help:      "The number of live sessions",
	}
)

// DuplicateHandleError is returned when the authenticator hands out a handle that is already in use
type DuplicateHandleError struct {
	Handle string
}

func (e *DuplicateHandleError) Error() string {
	return fmt.Sprintf("session handle is already in use : %s", e.Handle)
}

// Registry is the process wide session table
type Registry struct {
	auth      Authenticator
	factory   InstanceFactory
	exporter  export.Exporter
	listeners Listeners

	mutex    sync.RWMutex
	sessions map[string]*Session

	created   prometheus.Counter
	forcedOut prometheus.Counter
	active    prometheus.Gauge
}

// NewRegistry creates a new session registry
func NewRegistry(auth Authenticator, factory InstanceFactory, exporter export.Exporter, listeners Listeners) *Registry {
	return &Registry{
		auth:      auth,
		factory:   factory,
		exporter:  exporter,
		listeners: listeners,
		sessions:  map[string]*Session{},
		created:   metrics.GetOrMustRegisterCounter(sessionsCreatedOpts),
		forcedOut: metrics.GetOrMustRegisterCounter(sessionsForcedOutOpts),
		active:    metrics.GetOrMustRegisterGauge(sessionsActiveOpts),
	}
}

// Login authenticates the user and registers a new session
func (r *Registry) Login(user, credentials, agent string) (string, error) {
	handle, err := r.auth.Authenticate(user, credentials)
	if err != nil {
		return "", err
	}
	s := &Session{
		handle:  handle,
		user:    user,
		agent:   agent,
		created: time.Now(),
		slots:   map[manager.Type]*slot{},
	}

	r.mutex.Lock()
	if _, exists := r.sessions[handle]; exists {
		r.mutex.Unlock()
		r.auth.ReleaseHandle(handle)
		return "", &DuplicateHandleError{handle}
	}
	r.sessions[handle] = s
	r.mutex.Unlock()

	r.created.Inc()
	r.active.Inc()
	SESSION_CREATED.Log(logger.Info()).
		Str(logging.SESSION, handle).
		Str("user", user).
		Str("agent", agent).
		Msg("session created")
	return handle, nil
}

func (r *Registry) session(handle string) *Session {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.sessions[handle]
}

// Manager returns the client handle for the session's manager of the specified type, creating and exporting the
// manager on first request. Repeated calls return the same client handle until the manager is unreferenced.
func (r *Registry) Manager(handle string, t manager.Type) (export.ClientHandle, error) {
	operation := fmt.Sprintf("get%sManager", t)
	s := r.session(handle)
	if s == nil {
		return export.ClientHandle{}, &rpcerr.SessionError{Handle: handle, Operation: operation}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.removed {
		return export.ClientHandle{}, &rpcerr.SessionError{Handle: handle, Operation: operation}
	}
	if existing, ok := s.slots[t]; ok {
		return existing.export.ClientHandle(), nil
	}

	instance, err := r.factory.NewInstance(t, handle, r)
	if err != nil {
		return export.ClientHandle{}, err
	}
	exp, err := r.exporter.Export(instance, t, handle)
	if err != nil {
		return export.ClientHandle{}, err
	}
	// if the lease already lapsed, the callback runs once s.mutex is released
	exp.OnUnreferenced(func() { r.onUnreferenced(s, t, exp) })
	s.slots[t] = &slot{instance: instance, export: exp}
	MANAGER_CREATED.Log(logger.Debug()).
		Str(logging.SESSION, handle).
		Str(logging.MANAGER, t.String()).
		Str(logging.ID, exp.ClientHandle().ID).
		Msg("manager created")
	return exp.ClientHandle(), nil
}

// onUnreferenced clears the manager slot and the listener registrations the manager type owns.
// If every slot is now empty, and the session was not logged out, the session is removed.
func (r *Registry) onUnreferenced(s *Session, t manager.Type, exp export.Export) {
	s.mutex.Lock()
	current, ok := s.slots[t]
	if !ok || current.export != exp {
		// the slot was already cleared, or was repopulated with a new export
		s.mutex.Unlock()
		return
	}
	delete(s.slots, t)
	forced := len(s.slots) == 0 && !s.loggedOut && !s.removed
	if forced {
		s.removed = true
	}
	s.mutex.Unlock()

	MANAGER_UNREFERENCED.Log(logger.Info()).
		Str(logging.SESSION, s.handle).
		Str(logging.MANAGER, t.String()).
		Bool("forced_logout", forced).
		Msg("manager unreferenced")
	if categories := OwnedCategories(t); len(categories) > 0 {
		r.listeners.UnregisterAllForSession(s.handle, categories...)
	}
	if forced {
		r.remove(s)
		r.forcedOut.Inc()
		SESSION_FORCED_OUT.Log(logger.Info()).Str(logging.SESSION, s.handle).Msg("all managers unreferenced")
	}
}

// Logout tears down every manager the session owns, removes its listener registrations, and removes the session.
// It takes precedence over a concurrent forced logout.
func (r *Registry) Logout(handle string) error {
	s := r.session(handle)
	if s == nil {
		return &rpcerr.SessionError{Handle: handle, Operation: "logout"}
	}

	s.mutex.Lock()
	if s.removed {
		s.mutex.Unlock()
		return nil
	}
	s.loggedOut = true
	s.removed = true
	slots := s.slots
	s.slots = map[manager.Type]*slot{}
	s.mutex.Unlock()

	for _, sl := range slots {
		sl.export.Unexport()
	}
	r.remove(s)
	SESSION_LOGGED_OUT.Log(logger.Info()).Str(logging.SESSION, handle).Msg("logged out")
	return nil
}

// remove deletes the session from the table, removes all of its listener registrations, and releases its handle
func (r *Registry) remove(s *Session) {
	r.mutex.Lock()
	removed := false
	if r.sessions[s.handle] == s {
		delete(r.sessions, s.handle)
		removed = true
	}
	r.mutex.Unlock()
	if !removed {
		return
	}
	r.active.Dec()
	r.listeners.UnregisterAllForSession(s.handle)
	r.auth.ReleaseHandle(s.handle)
}

// Live implements manager.Sessions
func (r *Registry) Live(handle string) bool {
	s := r.session(handle)
	if s == nil {
		return false
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return !s.removed
}

// SetClientInfo implements manager.Sessions. Only the first client info is recorded.
func (r *Registry) SetClientInfo(handle string, info manager.ClientInfo) {
	s := r.session(handle)
	if s == nil {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.clientInfoSet {
		s.clientInfo = info
		s.clientInfoSet = true
	}
}

// Info returns a snapshot of the session
func (r *Registry) Info(handle string) (Info, bool) {
	s := r.session(handle)
	if s == nil {
		return Info{}, false
	}
	return s.info(), true
}

// Handles returns the handles of all live sessions
func (r *Registry) Handles() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	handles := make([]string, 0, len(r.sessions))
	for h := range r.sessions {
		handles = append(handles, h)
	}
	return handles
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.sessions)
}

// LogoutAll logs out every session
func (r *Registry) LogoutAll() {
	for _, h := range r.Handles() {
		r.Logout(h)
	}
}
