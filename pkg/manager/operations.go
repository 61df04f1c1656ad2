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

import (
	"fmt"
	"time"

	"github.com/oysterpack/esbadmin/pkg/dispatch"
)

// operation names
const (
	OpListApplications  = "listApplications"
	OpLaunchApplication = "launchApplication"
	OpStopApplication   = "stopApplication"
	OpApplicationState  = "applicationState"
	OpDeployApplication = "deployApplication"
	OpDeleteApplication = "deleteApplication"

	OpListServices    = "listServices"
	OpGetVersions     = "getVersions"
	OpDeployService   = "deployService"
	OpUndeployService = "undeployService"

	OpAddBreakpoint    = "addBreakpoint"
	OpRemoveBreakpoint = "removeBreakpoint"
	OpListBreakpoints  = "listBreakpoints"
	OpResume           = "resume"

	OpListConfigurations   = "listConfigurations"
	OpGetConfiguration     = "getConfiguration"
	OpPersistConfiguration = "persistConfiguration"
	OpDeleteConfiguration  = "deleteConfiguration"

	OpListSchemas    = "listSchemas"
	OpGetSchema      = "getSchema"
	OpRegisterSchema = "registerSchema"
	OpRemoveSchema   = "removeSchema"

	OpListProviders  = "listProviders"
	OpProviderStatus = "providerStatus"

	OpListUsers      = "listUsers"
	OpCreateUser     = "createUser"
	OpDeleteUser     = "deleteUser"
	OpChangePassword = "changePassword"
)

// Collaborators holds the business collaborator for each manager type
type Collaborators struct {
	Applications     ApplicationController
	Microservices    MicroserviceRepository
	Debugger         Debugger
	Configurations   NamedConfigurationRepository
	Schemas          SchemaRepository
	ServiceProviders ServiceProviderRegistry
	Security         SecurityManager
}

// CollaboratorMissingError is returned when no collaborator is configured for the manager type
type CollaboratorMissingError struct {
	Type
}

func (e *CollaboratorMissingError) Error() string {
	return fmt.Sprintf("no collaborator is configured for the %v manager", e.Type)
}

// NewInstance builds the dispatch registry for the manager type and binds it to the session
func (c *Collaborators) NewInstance(t Type, handle string, sessions Sessions) (*Instance, error) {
	ops, err := c.Operations(t, handle)
	if err != nil {
		return nil, err
	}
	registry, err := dispatch.NewRegistry(t.String(), ops...)
	if err != nil {
		return nil, err
	}
	return NewInstance(t, handle, registry, sessions), nil
}

// Operations returns the declared operations for the manager type
func (c *Collaborators) Operations(t Type, handle string) ([]dispatch.Operation, error) {
	missing := &CollaboratorMissingError{t}
	switch t {
	case Application:
		if c.Applications == nil {
			return nil, missing
		}
		return applicationOperations(c.Applications), nil
	case Microservice:
		if c.Microservices == nil {
			return nil, missing
		}
		return microserviceOperations(c.Microservices), nil
	case Breakpoint:
		if c.Debugger == nil {
			return nil, missing
		}
		return breakpointOperations(c.Debugger, handle), nil
	case Configuration:
		if c.Configurations == nil {
			return nil, missing
		}
		return configurationOperations(c.Configurations), nil
	case SchemaReference:
		if c.Schemas == nil {
			return nil, missing
		}
		return schemaOperations(c.Schemas), nil
	case ServiceProvider:
		if c.ServiceProviders == nil {
			return nil, missing
		}
		return serviceProviderOperations(c.ServiceProviders), nil
	case Security:
		if c.Security == nil {
			return nil, missing
		}
		return securityOperations(c.Security), nil
	default:
		return nil, fmt.Errorf("unknown manager type : %v", t)
	}
}

// stringArgs extracts the first n string arguments
func stringArgs(args dispatch.Args, n int) ([]string, error) {
	strs := make([]string, n)
	for i := 0; i < n; i++ {
		s, err := args.String(i)
		if err != nil {
			return nil, err
		}
		strs[i] = s
	}
	return strs, nil
}

func applicationOperations(c ApplicationController) []dispatch.Operation {
	return []dispatch.Operation{
		dispatch.Op(OpListApplications, func(args dispatch.Args) (interface{}, error) {
			return c.ListApplications()
		}),
		dispatch.Op(OpLaunchApplication, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, c.LaunchApplication(s[0], s[1])
		}, dispatch.String, dispatch.String),
		dispatch.Op(OpStopApplication, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, c.StopApplication(s[0], s[1], 0)
		}, dispatch.String, dispatch.String),
		dispatch.Op(OpStopApplication, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			timeoutMillis, err := args.Int64(2)
			if err != nil {
				return nil, err
			}
			return nil, c.StopApplication(s[0], s[1], time.Duration(timeoutMillis)*time.Millisecond)
		}, dispatch.String, dispatch.String, dispatch.Int64),
		dispatch.Op(OpApplicationState, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			return c.ApplicationState(s[0], s[1])
		}, dispatch.String, dispatch.String),
		dispatch.Op(OpDeployApplication, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			archive, err := args.Bytes(2)
			if err != nil {
				return nil, err
			}
			return nil, c.DeployApplication(s[0], s[1], archive)
		}, dispatch.String, dispatch.String, dispatch.Bytes),
		dispatch.Op(OpDeleteApplication, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, c.DeleteApplication(s[0], s[1])
		}, dispatch.String, dispatch.String),
	}
}

func microserviceOperations(c MicroserviceRepository) []dispatch.Operation {
	return []dispatch.Operation{
		dispatch.Op(OpListServices, func(args dispatch.Args) (interface{}, error) {
			return c.ListServices()
		}),
		dispatch.Op(OpGetVersions, func(args dispatch.Args) (interface{}, error) {
			guid, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return c.GetVersions(guid)
		}, dispatch.String),
		dispatch.Op(OpDeployService, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			archive, err := args.Bytes(2)
			if err != nil {
				return nil, err
			}
			return nil, c.DeployService(s[0], s[1], archive)
		}, dispatch.String, dispatch.String, dispatch.Bytes),
		dispatch.Op(OpUndeployService, func(args dispatch.Args) (interface{}, error) {
			guid, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return nil, c.UndeployService(guid, "")
		}, dispatch.String),
		dispatch.Op(OpUndeployService, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, c.UndeployService(s[0], s[1])
		}, dispatch.String, dispatch.String),
	}
}

func breakpointOperations(c Debugger, handle string) []dispatch.Operation {
	return []dispatch.Operation{
		dispatch.Op(OpAddBreakpoint, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 3)
			if err != nil {
				return nil, err
			}
			return c.AddBreakpoint(handle, s[0], s[1], s[2])
		}, dispatch.String, dispatch.String, dispatch.String),
		dispatch.Op(OpRemoveBreakpoint, func(args dispatch.Args) (interface{}, error) {
			id, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return nil, c.RemoveBreakpoint(handle, id)
		}, dispatch.String),
		dispatch.Op(OpListBreakpoints, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			return c.ListBreakpoints(handle, s[0], s[1])
		}, dispatch.String, dispatch.String),
		dispatch.Op(OpResume, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, c.Resume(handle, s[0], s[1])
		}, dispatch.String, dispatch.String),
	}
}

func configurationOperations(c NamedConfigurationRepository) []dispatch.Operation {
	return []dispatch.Operation{
		dispatch.Op(OpListConfigurations, func(args dispatch.Args) (interface{}, error) {
			configType, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return c.ListConfigurations(configType)
		}, dispatch.String),
		dispatch.Op(OpGetConfiguration, func(args dispatch.Args) (interface{}, error) {
			name, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return c.GetConfiguration(name)
		}, dispatch.String),
		dispatch.Op(OpPersistConfiguration, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			data, err := args.Bytes(2)
			if err != nil {
				return nil, err
			}
			return nil, c.PersistConfiguration(s[0], s[1], data)
		}, dispatch.String, dispatch.String, dispatch.Bytes),
		dispatch.Op(OpDeleteConfiguration, func(args dispatch.Args) (interface{}, error) {
			name, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return nil, c.DeleteConfiguration(name)
		}, dispatch.String),
	}
}

func schemaOperations(c SchemaRepository) []dispatch.Operation {
	return []dispatch.Operation{
		dispatch.Op(OpListSchemas, func(args dispatch.Args) (interface{}, error) {
			return c.ListSchemas()
		}),
		dispatch.Op(OpGetSchema, func(args dispatch.Args) (interface{}, error) {
			name, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return c.GetSchema(name)
		}, dispatch.String),
		dispatch.Op(OpRegisterSchema, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, c.RegisterSchema(s[0], s[1])
		}, dispatch.String, dispatch.String),
		dispatch.Op(OpRemoveSchema, func(args dispatch.Args) (interface{}, error) {
			name, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return nil, c.RemoveSchema(name)
		}, dispatch.String),
	}
}

func serviceProviderOperations(c ServiceProviderRegistry) []dispatch.Operation {
	return []dispatch.Operation{
		dispatch.Op(OpListProviders, func(args dispatch.Args) (interface{}, error) {
			return c.ListProviders()
		}),
		dispatch.Op(OpProviderStatus, func(args dispatch.Args) (interface{}, error) {
			name, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return c.ProviderStatus(name)
		}, dispatch.String),
	}
}

func securityOperations(c SecurityManager) []dispatch.Operation {
	return []dispatch.Operation{
		dispatch.Op(OpListUsers, func(args dispatch.Args) (interface{}, error) {
			return c.ListUsers()
		}),
		dispatch.Op(OpCreateUser, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, c.CreateUser(s[0], s[1])
		}, dispatch.String, dispatch.String),
		dispatch.Op(OpDeleteUser, func(args dispatch.Args) (interface{}, error) {
			name, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return nil, c.DeleteUser(name)
		}, dispatch.String),
		dispatch.Op(OpChangePassword, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, c.ResetPassword(s[0], s[1])
		}, dispatch.String, dispatch.String),
		dispatch.Op(OpChangePassword, func(args dispatch.Args) (interface{}, error) {
			s, err := stringArgs(args, 3)
			if err != nil {
				return nil, err
			}
			return nil, c.ChangePassword(s[0], s[1], s[2])
		}, dispatch.String, dispatch.String, dispatch.String),
	}
}
