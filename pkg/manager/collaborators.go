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

package manager

import "time"

// application states
const (
	StateDeployed = "DEPLOYED"
	StateRunning  = "RUNNING"
	StateStopped  = "STOPPED"
)

// ApplicationInfo describes a deployed application version
type ApplicationInfo struct {
	GUID    string `json:"guid"`
	Version string `json:"version"`
	State   string `json:"state"`
}

// ApplicationController manages the application lifecycle
type ApplicationController interface {
	ListApplications() ([]ApplicationInfo, error)
	LaunchApplication(guid, version string) error
	// StopApplication stops the application version. A zero timeout means stop immediately.
	StopApplication(guid, version string, timeout time.Duration) error
	ApplicationState(guid, version string) (string, error)
	DeployApplication(guid, version string, archive []byte) error
	DeleteApplication(guid, version string) error
}

// ServiceInfo describes a microservice in the repository
type ServiceInfo struct {
	GUID     string   `json:"guid"`
	Versions []string `json:"versions"`
}

// MicroserviceRepository manages the microservice repository
type MicroserviceRepository interface {
	ListServices() ([]ServiceInfo, error)
	GetVersions(guid string) ([]string, error)
	DeployService(guid, version string, archive []byte) error
	// UndeployService undeploys the service version. An empty version undeploys all versions.
	UndeployService(guid, version string) error
}

// BreakpointInfo is a debugger breakpoint
type BreakpointInfo struct {
	ID       string `json:"id"`
	AppGUID  string `json:"app_guid"`
	Version  string `json:"version"`
	Location string `json:"location"`
}

// Debugger manages breakpoints. Breakpoints are owned by the session that set them.
type Debugger interface {
	AddBreakpoint(handle, appGUID, version, location string) (BreakpointInfo, error)
	RemoveBreakpoint(handle, id string) error
	ListBreakpoints(handle, appGUID, version string) ([]BreakpointInfo, error)
	Resume(handle, appGUID, version string) error
}

// NamedConfiguration is a named, typed configuration object
type NamedConfiguration struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// NamedConfigurationRepository stores named configurations
type NamedConfigurationRepository interface {
	// ListConfigurations returns the names of the configurations of the type. An empty type lists all configurations.
	ListConfigurations(configType string) ([]string, error)
	GetConfiguration(name string) (NamedConfiguration, error)
	PersistConfiguration(name, configType string, data []byte) error
	DeleteConfiguration(name string) error
}

// SchemaRepository stores schema references
type SchemaRepository interface {
	ListSchemas() ([]string, error)
	GetSchema(name string) (string, error)
	RegisterSchema(name, content string) error
	RemoveSchema(name string) error
}

// ServiceProviderInfo describes a registered service provider
type ServiceProviderInfo struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// ServiceProviderRegistry exposes the registered service providers
type ServiceProviderRegistry interface {
	ListProviders() ([]ServiceProviderInfo, error)
	ProviderStatus(name string) (string, error)
}

// SecurityManager manages users
type SecurityManager interface {
	ListUsers() ([]string, error)
	CreateUser(name, password string) error
	DeleteUser(name string) error
	// ResetPassword sets the password without checking the current one
	ResetPassword(name, newPassword string) error
	ChangePassword(name, oldPassword, newPassword string) error
}

// DomainError codes
const (
	APP_NOT_FOUND        = "APP_NOT_FOUND"
	SERVICE_NOT_FOUND    = "SERVICE_NOT_FOUND"
	CONFIG_NOT_FOUND     = "CONFIG_NOT_FOUND"
	SCHEMA_NOT_FOUND     = "SCHEMA_NOT_FOUND"
	USER_EXISTS          = "USER_EXISTS"
	USER_NOT_FOUND       = "USER_NOT_FOUND"
	BAD_CREDENTIALS      = "BAD_CREDENTIALS"
	BREAKPOINT_NOT_FOUND = "BREAKPOINT_NOT_FOUND"
	PROVIDER_NOT_FOUND   = "PROVIDER_NOT_FOUND"
	INVALID_STATE        = "INVALID_STATE"
	INVALID_VERSION      = "INVALID_VERSION"
)
