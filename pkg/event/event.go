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

// Package event distributes platform and configuration events to registered listeners.
//
// Producers push events into one of two bounded queues, grouped by category: platform events and configuration events.
// Each queue is drained by its own reader goroutine, which matches the event against the ListenerRegistry and hands one
// delivery task per matching listener to a WorkerPool that both queues share. Pushing never blocks: an event pushed to
// a full queue is dropped. A failed delivery only affects that one listener.
package event

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/oysterpack/esbadmin/pkg/logging"
)

// Category enum
type Category int

// Category enum values
const (
	ApplicationLifecycle Category = iota
	MicroserviceLifecycle
	MicroserviceRepo
	ApplicationRepo
	ConfigurationPersisted
	ConfigurationDeleted

	numCategories = int(ConfigurationDeleted) + 1
)

// Categories lists all event categories
var Categories = []Category{
	ApplicationLifecycle,
	MicroserviceLifecycle,
	MicroserviceRepo,
	ApplicationRepo,
	ConfigurationPersisted,
	ConfigurationDeleted,
}

func (c Category) String() string {
	switch c {
	case ApplicationLifecycle:
		return "ApplicationLifecycle"
	case MicroserviceLifecycle:
		return "MicroserviceLifecycle"
	case MicroserviceRepo:
		return "MicroserviceRepo"
	case ApplicationRepo:
		return "ApplicationRepo"
	case ConfigurationPersisted:
		return "ConfigurationPersisted"
	case ConfigurationDeleted:
		return "ConfigurationDeleted"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Group returns the queue group the category is routed through
func (c Category) Group() Group {
	if c == ConfigurationPersisted || c == ConfigurationDeleted {
		return Configuration
	}
	return Platform
}

// Scoped returns true if events in the category are only delivered to registrations for the event's application.
// All other categories are broadcast to every registration.
func (c Category) Scoped() bool {
	return c == ApplicationLifecycle || c == MicroserviceLifecycle
}

// Group identifies a queue
type Group int

// Group enum values
const (
	Platform Group = iota
	Configuration
)

func (g Group) String() string {
	if g == Configuration {
		return "configuration"
	}
	return "platform"
}

// Event is an immutable notification produced by a collaborator
type Event interface {
	Category() Category
	// Deliver invokes the callback on the listener that corresponds to the event.
	Deliver(listener interface{}) error
}

// ScopedEvent is implemented by the events in scoped categories
type ScopedEvent interface {
	Event
	Scope() (appGUID, version string)
}

// ApplicationListener receives the lifecycle events for one application version
type ApplicationListener interface {
	ApplicationStarted(version string) error
	ApplicationStopped(version string) error
	ServiceInstanceStarted(instance ServiceInstance) error
	ServiceInstanceStopped(instance ServiceInstance) error
}

// RepositoryEventListener receives the microservice and application repository events
type RepositoryEventListener interface {
	ServiceDeployed(serviceGUID, version string) error
	ServiceUndeployed(serviceGUID, version string) error
	ApplicationSaved(appGUID, version string) error
	ApplicationDeleted(appGUID, version string) error
}

// ConfigurationRepositoryListener receives the named configuration events
type ConfigurationRepositoryListener interface {
	ConfigurationPersisted(name, configType string) error
	ConfigurationDeleted(name, configType string) error
}

// ListenerTypeError is returned when a registered listener does not implement the callbacks for the event
type ListenerTypeError struct {
	Category
	Listener interface{}
}

func (e *ListenerTypeError) Error() string {
	return fmt.Sprintf("listener %T cannot receive %v events", e.Listener, e.Category)
}

// NormalizeVersion returns the canonical form of a semantic version, so that "1.0" and "1.0.0" match.
// Versions that are not semantic versions are returned trimmed.
func NormalizeVersion(version string) string {
	v, err := semver.NewVersion(version)
	if err != nil {
		return strings.TrimSpace(version)
	}
	return v.String()
}

// ScopeKey returns the key for an application scoped registration
func ScopeKey(handle, appGUID, version string) string {
	return handle + "$" + appGUID + "__" + NormalizeVersion(version)
}

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})
