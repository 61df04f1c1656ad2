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

package client

import (
	"time"

	"github.com/oysterpack/esbadmin/pkg/dispatch"
	"github.com/oysterpack/esbadmin/pkg/manager"
)

// ApplicationManager is the client stub for the application manager. It implements manager.ApplicationController.
type ApplicationManager struct {
	Invoker
}

var _ manager.ApplicationController = &ApplicationManager{}

func (m *ApplicationManager) ListApplications() ([]manager.ApplicationInfo, error) {
	result, err := call(m.Invoker, manager.OpListApplications, nil)
	if err != nil {
		return nil, err
	}
	var infos []manager.ApplicationInfo
	return infos, decode(manager.OpListApplications, result, &infos)
}

func (m *ApplicationManager) LaunchApplication(guid, version string) error {
	_, err := call(m.Invoker, manager.OpLaunchApplication, nil, guid, version)
	return err
}

// StopApplication stops the application. A positive timeout selects the overload that takes the timeout in millis.
func (m *ApplicationManager) StopApplication(guid, version string, timeout time.Duration) error {
	if timeout <= 0 {
		_, err := call(m.Invoker, manager.OpStopApplication, []string{dispatch.String, dispatch.String}, guid, version)
		return err
	}
	_, err := call(m.Invoker, manager.OpStopApplication, []string{dispatch.String, dispatch.String, dispatch.Int64},
		guid, version, int64(timeout/time.Millisecond))
	return err
}

func (m *ApplicationManager) ApplicationState(guid, version string) (string, error) {
	result, err := call(m.Invoker, manager.OpApplicationState, nil, guid, version)
	if err != nil {
		return "", err
	}
	var state string
	return state, decode(manager.OpApplicationState, result, &state)
}

func (m *ApplicationManager) DeployApplication(guid, version string, archive []byte) error {
	_, err := call(m.Invoker, manager.OpDeployApplication, nil, guid, version, archive)
	return err
}

func (m *ApplicationManager) DeleteApplication(guid, version string) error {
	_, err := call(m.Invoker, manager.OpDeleteApplication, nil, guid, version)
	return err
}

// ServiceManager is the client stub for the microservice manager. It implements manager.MicroserviceRepository.
type ServiceManager struct {
	Invoker
}

var _ manager.MicroserviceRepository = &ServiceManager{}

func (m *ServiceManager) ListServices() ([]manager.ServiceInfo, error) {
	result, err := call(m.Invoker, manager.OpListServices, nil)
	if err != nil {
		return nil, err
	}
	var infos []manager.ServiceInfo
	return infos, decode(manager.OpListServices, result, &infos)
}

func (m *ServiceManager) GetVersions(guid string) ([]string, error) {
	result, err := call(m.Invoker, manager.OpGetVersions, nil, guid)
	if err != nil {
		return nil, err
	}
	var versions []string
	return versions, decode(manager.OpGetVersions, result, &versions)
}

func (m *ServiceManager) DeployService(guid, version string, archive []byte) error {
	_, err := call(m.Invoker, manager.OpDeployService, nil, guid, version, archive)
	return err
}

// UndeployService undeploys one version, or all versions if version is blank
func (m *ServiceManager) UndeployService(guid, version string) error {
	if version == "" {
		_, err := call(m.Invoker, manager.OpUndeployService, []string{dispatch.String}, guid)
		return err
	}
	_, err := call(m.Invoker, manager.OpUndeployService, []string{dispatch.String, dispatch.String}, guid, version)
	return err
}

// BreakpointManager is the client stub for the breakpoint manager. Breakpoints belong to the session the manager
// was obtained for, so the calls carry no session handle.
type BreakpointManager struct {
	Invoker
}

func (m *BreakpointManager) AddBreakpoint(appGUID, version, location string) (manager.BreakpointInfo, error) {
	var info manager.BreakpointInfo
	result, err := call(m.Invoker, manager.OpAddBreakpoint, nil, appGUID, version, location)
	if err != nil {
		return info, err
	}
	return info, decode(manager.OpAddBreakpoint, result, &info)
}

func (m *BreakpointManager) RemoveBreakpoint(id string) error {
	_, err := call(m.Invoker, manager.OpRemoveBreakpoint, nil, id)
	return err
}

func (m *BreakpointManager) ListBreakpoints(appGUID, version string) ([]manager.BreakpointInfo, error) {
	result, err := call(m.Invoker, manager.OpListBreakpoints, nil, appGUID, version)
	if err != nil {
		return nil, err
	}
	var infos []manager.BreakpointInfo
	return infos, decode(manager.OpListBreakpoints, result, &infos)
}

func (m *BreakpointManager) Resume(appGUID, version string) error {
	_, err := call(m.Invoker, manager.OpResume, nil, appGUID, version)
	return err
}

// ConfigurationManager is the client stub for the configuration manager. It implements
// manager.NamedConfigurationRepository.
type ConfigurationManager struct {
	Invoker
}

var _ manager.NamedConfigurationRepository = &ConfigurationManager{}

func (m *ConfigurationManager) ListConfigurations(configType string) ([]string, error) {
	result, err := call(m.Invoker, manager.OpListConfigurations, nil, configType)
	if err != nil {
		return nil, err
	}
	var names []string
	return names, decode(manager.OpListConfigurations, result, &names)
}

func (m *ConfigurationManager) GetConfiguration(name string) (manager.NamedConfiguration, error) {
	var config manager.NamedConfiguration
	result, err := call(m.Invoker, manager.OpGetConfiguration, nil, name)
	if err != nil {
		return config, err
	}
	return config, decode(manager.OpGetConfiguration, result, &config)
}

func (m *ConfigurationManager) PersistConfiguration(name, configType string, data []byte) error {
	_, err := call(m.Invoker, manager.OpPersistConfiguration, nil, name, configType, data)
	return err
}

func (m *ConfigurationManager) DeleteConfiguration(name string) error {
	_, err := call(m.Invoker, manager.OpDeleteConfiguration, nil, name)
	return err
}

// SchemaReferenceManager is the client stub for the schema reference manager
type SchemaReferenceManager struct {
	Invoker
}

var _ manager.SchemaRepository = &SchemaReferenceManager{}

func (m *SchemaReferenceManager) ListSchemas() ([]string, error) {
	result, err := call(m.Invoker, manager.OpListSchemas, nil)
	if err != nil {
		return nil, err
	}
	var names []string
	return names, decode(manager.OpListSchemas, result, &names)
}

func (m *SchemaReferenceManager) GetSchema(name string) (string, error) {
	result, err := call(m.Invoker, manager.OpGetSchema, nil, name)
	if err != nil {
		return "", err
	}
	var content string
	return content, decode(manager.OpGetSchema, result, &content)
}

func (m *SchemaReferenceManager) RegisterSchema(name, content string) error {
	_, err := call(m.Invoker, manager.OpRegisterSchema, nil, name, content)
	return err
}

func (m *SchemaReferenceManager) RemoveSchema(name string) error {
	_, err := call(m.Invoker, manager.OpRemoveSchema, nil, name)
	return err
}

// ServiceProviderManager is the client stub for the service provider manager
type ServiceProviderManager struct {
	Invoker
}

var _ manager.ServiceProviderRegistry = &ServiceProviderManager{}

func (m *ServiceProviderManager) ListProviders() ([]manager.ServiceProviderInfo, error) {
	result, err := call(m.Invoker, manager.OpListProviders, nil)
	if err != nil {
		return nil, err
	}
	var providers []manager.ServiceProviderInfo
	return providers, decode(manager.OpListProviders, result, &providers)
}

func (m *ServiceProviderManager) ProviderStatus(name string) (string, error) {
	result, err := call(m.Invoker, manager.OpProviderStatus, nil, name)
	if err != nil {
		return "", err
	}
	var status string
	return status, decode(manager.OpProviderStatus, result, &status)
}

// UserSecurityManager is the client stub for the security manager. It implements manager.SecurityManager.
type UserSecurityManager struct {
	Invoker
}

var _ manager.SecurityManager = &UserSecurityManager{}

func (m *UserSecurityManager) ListUsers() ([]string, error) {
	result, err := call(m.Invoker, manager.OpListUsers, nil)
	if err != nil {
		return nil, err
	}
	var names []string
	return names, decode(manager.OpListUsers, result, &names)
}

func (m *UserSecurityManager) CreateUser(name, password string) error {
	_, err := call(m.Invoker, manager.OpCreateUser, nil, name, password)
	return err
}

func (m *UserSecurityManager) DeleteUser(name string) error {
	_, err := call(m.Invoker, manager.OpDeleteUser, nil, name)
	return err
}

// ResetPassword is the two argument changePassword overload
func (m *UserSecurityManager) ResetPassword(name, newPassword string) error {
	_, err := call(m.Invoker, manager.OpChangePassword, []string{dispatch.String, dispatch.String}, name, newPassword)
	return err
}

// ChangePassword is the three argument changePassword overload
func (m *UserSecurityManager) ChangePassword(name, oldPassword, newPassword string) error {
	_, err := call(m.Invoker, manager.OpChangePassword, []string{dispatch.String, dispatch.String, dispatch.String},
		name, oldPassword, newPassword)
	return err
}
