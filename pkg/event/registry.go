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

import (
	"sync"
)

// Registration binds a listener to a category under a scope key.
type Registration struct {
	Category Category
	ScopeKey string
	// Handle is the session that owns the registration
	Handle string
	// AppGUID and Version are only set for scoped categories. Version is normalized.
	AppGUID  string
	Version  string
	Listener interface{}
}

type table struct {
	sync.RWMutex
	registrations map[string]*Registration
}

// ListenerRegistry holds one table per category. Each table is guarded by its own lock, which makes it safe to
// mutate registrations while events are being matched.
type ListenerRegistry struct {
	tables [numCategories]*table
}

// NewListenerRegistry returns an empty registry
func NewListenerRegistry() *ListenerRegistry {
	r := &ListenerRegistry{}
	for i := range r.tables {
		r.tables[i] = &table{registrations: map[string]*Registration{}}
	}
	return r
}

func (r *ListenerRegistry) table(c Category) *table {
	if int(c) < 0 || int(c) >= numCategories {
		return nil
	}
	return r.tables[c]
}

// Register adds the registration, replacing any registration under the same category and scope key
func (r *ListenerRegistry) Register(reg *Registration) {
	t := r.table(reg.Category)
	if t == nil {
		return
	}
	t.Lock()
	t.registrations[reg.ScopeKey] = reg
	t.Unlock()
}

// Unregister removes the registration and returns true if it existed
func (r *ListenerRegistry) Unregister(c Category, scopeKey string) bool {
	t := r.table(c)
	if t == nil {
		return false
	}
	t.Lock()
	defer t.Unlock()
	if _, exists := t.registrations[scopeKey]; !exists {
		return false
	}
	delete(t.registrations, scopeKey)
	return true
}

// remove deletes the registration only if it is still the one registered under its scope key
func (r *ListenerRegistry) remove(reg *Registration) bool {
	t := r.table(reg.Category)
	if t == nil {
		return false
	}
	t.Lock()
	defer t.Unlock()
	if t.registrations[reg.ScopeKey] != reg {
		return false
	}
	delete(t.registrations, reg.ScopeKey)
	return true
}

// UnregisterAllForSession removes the session's registrations from the specified categories.
// If no categories are specified, then all categories are cleared of the session's registrations.
// Returns the number of registrations removed.
func (r *ListenerRegistry) UnregisterAllForSession(handle string, categories ...Category) int {
	if len(categories) == 0 {
		categories = Categories
	}
	count := 0
	for _, c := range categories {
		t := r.table(c)
		if t == nil {
			continue
		}
		t.Lock()
		for key, reg := range t.registrations {
			if reg.Handle == handle {
				delete(t.registrations, key)
				count++
			}
		}
		t.Unlock()
	}
	return count
}

// Match returns a snapshot of the registrations the event must be delivered to.
// Scoped events match registrations for the same application GUID and version, regardless of session.
// All other events match every registration in the category.
func (r *ListenerRegistry) Match(e Event) []*Registration {
	c := e.Category()
	t := r.table(c)
	if t == nil {
		return nil
	}
	var appGUID, version string
	scoped := false
	if se, ok := e.(ScopedEvent); ok && c.Scoped() {
		scoped = true
		appGUID, version = se.Scope()
		version = NormalizeVersion(version)
	}

	t.RLock()
	defer t.RUnlock()
	matches := make([]*Registration, 0, len(t.registrations))
	for _, reg := range t.registrations {
		if scoped && (reg.AppGUID != appGUID || reg.Version != version) {
			continue
		}
		matches = append(matches, reg)
	}
	return matches
}

// Len returns the number of registrations in the category
func (r *ListenerRegistry) Len(c Category) int {
	t := r.table(c)
	if t == nil {
		return 0
	}
	t.RLock()
	defer t.RUnlock()
	return len(t.registrations)
}

// Clear removes all registrations
func (r *ListenerRegistry) Clear() {
	for _, t := range r.tables {
		t.Lock()
		t.registrations = map[string]*Registration{}
		t.Unlock()
	}
}

// AddApplicationListener registers the listener for the application lifecycle and microservice lifecycle events of
// the application version.
func (r *ListenerRegistry) AddApplicationListener(handle, appGUID, version string, l ApplicationListener) {
	key := ScopeKey(handle, appGUID, version)
	version = NormalizeVersion(version)
	for _, c := range []Category{ApplicationLifecycle, MicroserviceLifecycle} {
		r.Register(&Registration{
			Category: c,
			ScopeKey: key,
			Handle:   handle,
			AppGUID:  appGUID,
			Version:  version,
			Listener: l,
		})
	}
}

// RemoveApplicationListener removes the session's listener for the application version
func (r *ListenerRegistry) RemoveApplicationListener(handle, appGUID, version string) bool {
	key := ScopeKey(handle, appGUID, version)
	removed := r.Unregister(ApplicationLifecycle, key)
	return r.Unregister(MicroserviceLifecycle, key) || removed
}

// AddRepositoryEventListener registers the session's repository wide listener
func (r *ListenerRegistry) AddRepositoryEventListener(handle string, l RepositoryEventListener) {
	for _, c := range []Category{MicroserviceRepo, ApplicationRepo} {
		r.Register(&Registration{Category: c, ScopeKey: handle, Handle: handle, Listener: l})
	}
}

// RemoveRepositoryEventListener removes the session's repository wide listener
func (r *ListenerRegistry) RemoveRepositoryEventListener(handle string) bool {
	removed := r.Unregister(MicroserviceRepo, handle)
	return r.Unregister(ApplicationRepo, handle) || removed
}

// AddConfigurationRepositoryListener registers the session's configuration repository listener
func (r *ListenerRegistry) AddConfigurationRepositoryListener(handle string, l ConfigurationRepositoryListener) {
	for _, c := range []Category{ConfigurationPersisted, ConfigurationDeleted} {
		r.Register(&Registration{Category: c, ScopeKey: handle, Handle: handle, Listener: l})
	}
}

// RemoveConfigurationRepositoryListener removes the session's configuration repository listener
func (r *ListenerRegistry) RemoveConfigurationRepositoryListener(handle string) bool {
	removed := r.Unregister(ConfigurationPersisted, handle)
	return r.Unregister(ConfigurationDeleted, handle) || removed
}
