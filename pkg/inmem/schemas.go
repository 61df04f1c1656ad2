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

	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

// SchemaRepository implements manager.SchemaRepository
type SchemaRepository struct {
	mutex   sync.RWMutex
	schemas map[string]string
}

func NewSchemaRepository() *SchemaRepository {
	return &SchemaRepository{schemas: map[string]string{}}
}

// ListSchemas implements manager.SchemaRepository
func (r *SchemaRepository) ListSchemas() ([]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetSchema implements manager.SchemaRepository
func (r *SchemaRepository) GetSchema(name string) (string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	content, ok := r.schemas[name]
	if !ok {
		return "", rpcerr.NewDomainError(manager.SCHEMA_NOT_FOUND, "schema not found : %s", name)
	}
	return content, nil
}

// RegisterSchema implements manager.SchemaRepository. An existing schema is replaced.
func (r *SchemaRepository) RegisterSchema(name, content string) error {
	r.mutex.Lock()
	r.schemas[name] = content
	r.mutex.Unlock()
	return nil
}

// RemoveSchema implements manager.SchemaRepository
func (r *SchemaRepository) RemoveSchema(name string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.schemas[name]; !ok {
		return rpcerr.NewDomainError(manager.SCHEMA_NOT_FOUND, "schema not found : %s", name)
	}
	delete(r.schemas, name)
	return nil
}

// ServiceProviders is a static manager.ServiceProviderRegistry
type ServiceProviders []manager.ServiceProviderInfo

// ListProviders implements manager.ServiceProviderRegistry
func (p ServiceProviders) ListProviders() ([]manager.ServiceProviderInfo, error) {
	providers := make([]manager.ServiceProviderInfo, len(p))
	copy(providers, p)
	return providers, nil
}

// ProviderStatus implements manager.ServiceProviderRegistry
func (p ServiceProviders) ProviderStatus(name string) (string, error) {
	for _, provider := range p {
		if provider.Name == name {
			return provider.Status, nil
		}
	}
	return "", rpcerr.NewDomainError(manager.PROVIDER_NOT_FOUND, "service provider not found : %s", name)
}
