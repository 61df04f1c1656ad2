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

// Package session manages authenticated sessions and the manager instances they own.
//
// A session owns at most one manager instance per manager type. Instances are created on first request, exported,
// and cached. When an export reports that no remote caller references it anymore, its slot is cleared along with
// the listener registrations that manager type owns. A session whose slots have all been cleared this way, and that
// was never explicitly logged out, is logged out by force.
package session

import (
	"sync"
	"time"

	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
)

// Authenticator is the security collaborator
type Authenticator interface {
	// Authenticate returns a new session handle
	Authenticate(user, credentials string) (string, error)
	// ReleaseHandle is called once the session is removed
	ReleaseHandle(handle string)
}

// InstanceFactory creates the manager instance for the session
type InstanceFactory interface {
	NewInstance(t manager.Type, handle string, sessions manager.Sessions) (*manager.Instance, error)
}

// Listeners is the view of the listener registry used to remove a session's registrations
type Listeners interface {
	UnregisterAllForSession(handle string, categories ...event.Category) int
}

// OwnedCategories returns the event categories whose registrations are owned by the manager type.
// They are removed when the manager is unreferenced.
func OwnedCategories(t manager.Type) []event.Category {
	switch t {
	case manager.Application:
		return []event.Category{event.ApplicationLifecycle, event.MicroserviceLifecycle}
	case manager.Microservice:
		return []event.Category{event.MicroserviceRepo, event.ApplicationRepo}
	case manager.Configuration:
		return []event.Category{event.ConfigurationPersisted, event.ConfigurationDeleted}
	default:
		return nil
	}
}

type slot struct {
	instance *manager.Instance
	export   export.Export
}

// Session is an authenticated client context
type Session struct {
	handle  string
	user    string
	agent   string
	created time.Time

	mutex         sync.Mutex
	clientInfo    manager.ClientInfo
	clientInfoSet bool
	slots         map[manager.Type]*slot
	loggedOut     bool
	removed       bool
}

// Info is a snapshot of a session
type Info struct {
	Handle     string             `json:"handle"`
	User       string             `json:"user"`
	Agent      string             `json:"agent"`
	Created    time.Time          `json:"created"`
	ClientInfo manager.ClientInfo `json:"client_info"`
	Managers   []manager.Type     `json:"managers"`
}

func (s *Session) info() Info {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	info := Info{
		Handle:     s.handle,
		User:       s.user,
		Agent:      s.agent,
		Created:    s.created,
		ClientInfo: s.clientInfo,
	}
	for _, t := range manager.Types {
		if _, ok := s.slots[t]; ok {
			info.Managers = append(info.Managers, t)
		}
	}
	return info
}

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

// log events
const (
	SESSION_CREATED      = logging.LogEventID(0xb41e7d09c3a2f586)
	SESSION_LOGGED_OUT   = logging.LogEventID(0x86c2f5a1e04d9b37)
	SESSION_FORCED_OUT   = logging.LogEventID(0xd9a03b6e72f1c458)
	MANAGER_CREATED      = logging.LogEventID(0xa2f8c6d15b09e374)
	MANAGER_UNREFERENCED = logging.LogEventID(0xf37b9e2a0c64d815)
)
