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

package inmem

import (
	"sort"
	"sync"
	"time"

	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

type application struct {
	info    manager.ApplicationInfo
	archive []byte
}

// ApplicationController implements manager.ApplicationController.
// Lifecycle changes are published as ApplicationLifecycle events, and repository changes as ApplicationRepo events.
type ApplicationController struct {
	event.Broadcaster

	mutex sync.RWMutex
	apps  map[string]*application
	// Services are started as instances along with each application
	services []event.ServiceInstance
}

// NewApplicationController creates an empty controller. The service instances are reported as started and stopped
// along with every application.
func NewApplicationController(services ...event.ServiceInstance) *ApplicationController {
	return &ApplicationController{apps: map[string]*application{}, services: services}
}

func (c *ApplicationController) lookup(guid, version string) (*application, string, error) {
	v, err := parseVersion(version)
	if err != nil {
		return nil, "", err
	}
	app, ok := c.apps[versionKey(guid, v)]
	if !ok {
		return nil, v, rpcerr.NewDomainError(manager.APP_NOT_FOUND, "application not found : %s %s", guid, version)
	}
	return app, v, nil
}

// ListApplications implements manager.ApplicationController
func (c *ApplicationController) ListApplications() ([]manager.ApplicationInfo, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	infos := make([]manager.ApplicationInfo, 0, len(c.apps))
	for _, app := range c.apps {
		infos = append(infos, app.info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return versionKey(infos[i].GUID, infos[i].Version) < versionKey(infos[j].GUID, infos[j].Version)
	})
	return infos, nil
}

// LaunchApplication implements manager.ApplicationController
func (c *ApplicationController) LaunchApplication(guid, version string) error {
	c.mutex.Lock()
	app, _, err := c.lookup(guid, version)
	if err != nil {
		c.mutex.Unlock()
		return err
	}
	if app.info.State == manager.StateRunning {
		c.mutex.Unlock()
		return rpcerr.NewDomainError(manager.INVALID_STATE, "application is already running : %s %s", guid, version)
	}
	app.info.State = manager.StateRunning
	c.mutex.Unlock()

	c.Publish(&event.ApplicationLifecycleEvent{Type: event.APPLICATION_LAUNCHED, AppGUID: guid, Version: version})
	for _, instance := range c.services {
		c.Publish(&event.MicroserviceLifecycleEvent{Type: event.SERVICE_INSTANCE_STARTED, AppGUID: guid, Version: version, Instance: instance})
	}
	return nil
}

// StopApplication implements manager.ApplicationController. The in-memory controller stops immediately,
// regardless of the timeout.
func (c *ApplicationController) StopApplication(guid, version string, timeout time.Duration) error {
	c.mutex.Lock()
	app, _, err := c.lookup(guid, version)
	if err != nil {
		c.mutex.Unlock()
		return err
	}
	if app.info.State != manager.StateRunning {
		c.mutex.Unlock()
		return rpcerr.NewDomainError(manager.INVALID_STATE, "application is not running : %s %s", guid, version)
	}
	app.info.State = manager.StateStopped
	c.mutex.Unlock()

	for _, instance := range c.services {
		c.Publish(&event.MicroserviceLifecycleEvent{Type: event.SERVICE_INSTANCE_STOPPED, AppGUID: guid, Version: version, Instance: instance})
	}
	c.Publish(&event.ApplicationLifecycleEvent{Type: event.APPLICATION_STOPPED, AppGUID: guid, Version: version})
	return nil
}

// ApplicationState implements manager.ApplicationController
func (c *ApplicationController) ApplicationState(guid, version string) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	app, _, err := c.lookup(guid, version)
	if err != nil {
		return "", err
	}
	return app.info.State, nil
}

// DeployApplication implements manager.ApplicationController. Redeploying a running application is rejected.
func (c *ApplicationController) DeployApplication(guid, version string, archive []byte) error {
	v, err := parseVersion(version)
	if err != nil {
		return err
	}
	c.mutex.Lock()
	key := versionKey(guid, v)
	if app, ok := c.apps[key]; ok && app.info.State == manager.StateRunning {
		c.mutex.Unlock()
		return rpcerr.NewDomainError(manager.INVALID_STATE, "application is running : %s %s", guid, version)
	}
	c.apps[key] = &application{
		info:    manager.ApplicationInfo{GUID: guid, Version: v, State: manager.StateDeployed},
		archive: archive,
	}
	c.mutex.Unlock()

	c.Publish(&event.ApplicationRepoEvent{Type: event.APPLICATION_SAVED, AppGUID: guid, Version: version})
	return nil
}

// DeleteApplication implements manager.ApplicationController. A running application must be stopped first.
func (c *ApplicationController) DeleteApplication(guid, version string) error {
	c.mutex.Lock()
	app, v, err := c.lookup(guid, version)
	if err != nil {
		c.mutex.Unlock()
		return err
	}
	if app.info.State == manager.StateRunning {
		c.mutex.Unlock()
		return rpcerr.NewDomainError(manager.INVALID_STATE, "application is running : %s %s", guid, version)
	}
	delete(c.apps, versionKey(guid, v))
	c.mutex.Unlock()

	c.Publish(&event.ApplicationRepoEvent{Type: event.APPLICATION_DELETED, AppGUID: guid, Version: version})
	return nil
}
