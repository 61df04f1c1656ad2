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

	"github.com/Masterminds/semver"
	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

// MicroserviceRepository implements manager.MicroserviceRepository. Changes are published as MicroserviceRepo events.
type MicroserviceRepository struct {
	event.Broadcaster

	mutex sync.RWMutex
	// guid -> normalized version -> archive
	services map[string]map[string][]byte
}

// NewMicroserviceRepository creates an empty repository
func NewMicroserviceRepository() *MicroserviceRepository {
	return &MicroserviceRepository{services: map[string]map[string][]byte{}}
}

// sortedVersions returns the versions in semantic version order
func sortedVersions(versions map[string][]byte) []string {
	collection := make(semver.Collection, 0, len(versions))
	for v := range versions {
		if parsed, err := semver.NewVersion(v); err == nil {
			collection = append(collection, parsed)
		}
	}
	sort.Sort(collection)
	sorted := make([]string, len(collection))
	for i, v := range collection {
		sorted[i] = v.String()
	}
	return sorted
}

// ListServices implements manager.MicroserviceRepository
func (r *MicroserviceRepository) ListServices() ([]manager.ServiceInfo, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	infos := make([]manager.ServiceInfo, 0, len(r.services))
	for guid, versions := range r.services {
		infos = append(infos, manager.ServiceInfo{GUID: guid, Versions: sortedVersions(versions)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].GUID < infos[j].GUID })
	return infos, nil
}

// GetVersions implements manager.MicroserviceRepository
func (r *MicroserviceRepository) GetVersions(guid string) ([]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	versions, ok := r.services[guid]
	if !ok {
		return nil, rpcerr.NewDomainError(manager.SERVICE_NOT_FOUND, "service not found : %s", guid)
	}
	return sortedVersions(versions), nil
}

// DeployService implements manager.MicroserviceRepository
func (r *MicroserviceRepository) DeployService(guid, version string, archive []byte) error {
	v, err := parseVersion(version)
	if err != nil {
		return err
	}
	r.mutex.Lock()
	versions, ok := r.services[guid]
	if !ok {
		versions = map[string][]byte{}
		r.services[guid] = versions
	}
	versions[v] = archive
	r.mutex.Unlock()

	r.Publish(&event.MicroserviceRepoEvent{Type: event.SERVICE_REGISTERED, ServiceGUID: guid, Version: version})
	return nil
}

// UndeployService implements manager.MicroserviceRepository
func (r *MicroserviceRepository) UndeployService(guid, version string) error {
	r.mutex.Lock()
	versions, ok := r.services[guid]
	if !ok {
		r.mutex.Unlock()
		return rpcerr.NewDomainError(manager.SERVICE_NOT_FOUND, "service not found : %s", guid)
	}
	var undeployed []string
	if version == "" {
		undeployed = sortedVersions(versions)
		delete(r.services, guid)
	} else {
		v, err := parseVersion(version)
		if err != nil {
			r.mutex.Unlock()
			return err
		}
		if _, ok := versions[v]; !ok {
			r.mutex.Unlock()
			return rpcerr.NewDomainError(manager.SERVICE_NOT_FOUND, "service version not found : %s %s", guid, version)
		}
		delete(versions, v)
		if len(versions) == 0 {
			delete(r.services, guid)
		}
		undeployed = []string{version}
	}
	r.mutex.Unlock()

	for _, v := range undeployed {
		r.Publish(&event.MicroserviceRepoEvent{Type: event.SERVICE_UNREGISTERED, ServiceGUID: guid, Version: v})
	}
	return nil
}
