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

package event

import "fmt"

// ApplicationLifecycleType enum
type ApplicationLifecycleType int

// ApplicationLifecycleType enum values
const (
	APPLICATION_LAUNCHED ApplicationLifecycleType = iota
	APPLICATION_STOPPED
)

// ApplicationLifecycleEvent is pushed by the application controller when an application version is launched or stopped
type ApplicationLifecycleEvent struct {
	Type    ApplicationLifecycleType
	AppGUID string
	Version string
}

// Category implements Event
func (e *ApplicationLifecycleEvent) Category() Category { return ApplicationLifecycle }

// Scope implements ScopedEvent
func (e *ApplicationLifecycleEvent) Scope() (string, string) { return e.AppGUID, e.Version }

// Deliver implements Event
func (e *ApplicationLifecycleEvent) Deliver(listener interface{}) error {
	l, ok := listener.(ApplicationListener)
	if !ok {
		return &ListenerTypeError{e.Category(), listener}
	}
	switch e.Type {
	case APPLICATION_LAUNCHED:
		return l.ApplicationStarted(e.Version)
	case APPLICATION_STOPPED:
		return l.ApplicationStopped(e.Version)
	default:
		return fmt.Errorf("unknown ApplicationLifecycleType : %d", e.Type)
	}
}

// ServiceInstance identifies a running microservice instance within an application
type ServiceInstance struct {
	ServiceGUID    string `json:"service_guid"`
	ServiceVersion string `json:"service_version"`
	InstanceName   string `json:"instance_name"`
}

// MicroserviceLifecycleType enum
type MicroserviceLifecycleType int

// MicroserviceLifecycleType enum values
const (
	SERVICE_INSTANCE_STARTED MicroserviceLifecycleType = iota
	SERVICE_INSTANCE_STOPPED
)

// MicroserviceLifecycleEvent is pushed when a service instance within an application starts or stops.
// It is scoped to the owning application.
type MicroserviceLifecycleEvent struct {
	Type     MicroserviceLifecycleType
	AppGUID  string
	Version  string
	Instance ServiceInstance
}

// Category implements Event
func (e *MicroserviceLifecycleEvent) Category() Category { return MicroserviceLifecycle }

// Scope implements ScopedEvent
func (e *MicroserviceLifecycleEvent) Scope() (string, string) { return e.AppGUID, e.Version }

// Deliver implements Event
func (e *MicroserviceLifecycleEvent) Deliver(listener interface{}) error {
	l, ok := listener.(ApplicationListener)
	if !ok {
		return &ListenerTypeError{e.Category(), listener}
	}
	switch e.Type {
	case SERVICE_INSTANCE_STARTED:
		return l.ServiceInstanceStarted(e.Instance)
	case SERVICE_INSTANCE_STOPPED:
		return l.ServiceInstanceStopped(e.Instance)
	default:
		return fmt.Errorf("unknown MicroserviceLifecycleType : %d", e.Type)
	}
}

// MicroserviceRepoType enum
type MicroserviceRepoType int

// MicroserviceRepoType enum values
const (
	SERVICE_REGISTERED MicroserviceRepoType = iota
	SERVICE_UNREGISTERED
)

// MicroserviceRepoEvent is pushed by the microservice repository when a service version is deployed or undeployed
type MicroserviceRepoEvent struct {
	Type        MicroserviceRepoType
	ServiceGUID string
	Version     string
}

// Category implements Event
func (e *MicroserviceRepoEvent) Category() Category { return MicroserviceRepo }

// Deliver implements Event
func (e *MicroserviceRepoEvent) Deliver(listener interface{}) error {
	l, ok := listener.(RepositoryEventListener)
	if !ok {
		return &ListenerTypeError{e.Category(), listener}
	}
	switch e.Type {
	case SERVICE_REGISTERED:
		return l.ServiceDeployed(e.ServiceGUID, e.Version)
	case SERVICE_UNREGISTERED:
		return l.ServiceUndeployed(e.ServiceGUID, e.Version)
	default:
		return fmt.Errorf("unknown MicroserviceRepoType : %d", e.Type)
	}
}

// ApplicationRepoType enum
type ApplicationRepoType int

// ApplicationRepoType enum values
const (
	APPLICATION_SAVED ApplicationRepoType = iota
	APPLICATION_DELETED
)

// ApplicationRepoEvent is pushed when an application version is saved to or deleted from the repository
type ApplicationRepoEvent struct {
	Type    ApplicationRepoType
	AppGUID string
	Version string
}

// Category implements Event
func (e *ApplicationRepoEvent) Category() Category { return ApplicationRepo }

// Deliver implements Event
func (e *ApplicationRepoEvent) Deliver(listener interface{}) error {
	l, ok := listener.(RepositoryEventListener)
	if !ok {
		return &ListenerTypeError{e.Category(), listener}
	}
	switch e.Type {
	case APPLICATION_SAVED:
		return l.ApplicationSaved(e.AppGUID, e.Version)
	case APPLICATION_DELETED:
		return l.ApplicationDeleted(e.AppGUID, e.Version)
	default:
		return fmt.Errorf("unknown ApplicationRepoType : %d", e.Type)
	}
}

// ConfigurationEvent is pushed by the named configuration repository
type ConfigurationEvent struct {
	Deleted    bool
	Name       string
	ConfigType string
}

// Category implements Event
func (e *ConfigurationEvent) Category() Category {
	if e.Deleted {
		return ConfigurationDeleted
	}
	return ConfigurationPersisted
}

// Deliver implements Event
func (e *ConfigurationEvent) Deliver(listener interface{}) error {
	l, ok := listener.(ConfigurationRepositoryListener)
	if !ok {
		return &ListenerTypeError{e.Category(), listener}
	}
	if e.Deleted {
		return l.ConfigurationDeleted(e.Name, e.ConfigType)
	}
	return l.ConfigurationPersisted(e.Name, e.ConfigType)
}
