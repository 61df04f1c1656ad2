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

	"github.com/nats-io/nuid"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

type breakpoint struct {
	handle string
	info   manager.BreakpointInfo
}

// Debugger implements manager.Debugger. Breakpoints are owned by the session that added them.
type Debugger struct {
	mutex       sync.Mutex
	breakpoints map[string]*breakpoint
	// ScopeKey -> number of resumes
	resumes map[string]int
}

func NewDebugger() *Debugger {
	return &Debugger{breakpoints: map[string]*breakpoint{}, resumes: map[string]int{}}
}

// AddBreakpoint implements manager.Debugger
func (d *Debugger) AddBreakpoint(handle, appGUID, version, location string) (manager.BreakpointInfo, error) {
	v, err := parseVersion(version)
	if err != nil {
		return manager.BreakpointInfo{}, err
	}
	info := manager.BreakpointInfo{ID: nuid.Next(), AppGUID: appGUID, Version: v, Location: location}
	d.mutex.Lock()
	d.breakpoints[info.ID] = &breakpoint{handle: handle, info: info}
	d.mutex.Unlock()
	return info, nil
}

// RemoveBreakpoint implements manager.Debugger. Breakpoints owned by other sessions are not visible.
func (d *Debugger) RemoveBreakpoint(handle, id string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	bp, ok := d.breakpoints[id]
	if !ok || bp.handle != handle {
		return rpcerr.NewDomainError(manager.BREAKPOINT_NOT_FOUND, "breakpoint not found : %s", id)
	}
	delete(d.breakpoints, id)
	return nil
}

// ListBreakpoints implements manager.Debugger
func (d *Debugger) ListBreakpoints(handle, appGUID, version string) ([]manager.BreakpointInfo, error) {
	v, err := parseVersion(version)
	if err != nil {
		return nil, err
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	infos := []manager.BreakpointInfo{}
	for _, bp := range d.breakpoints {
		if bp.handle == handle && bp.info.AppGUID == appGUID && bp.info.Version == v {
			infos = append(infos, bp.info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Location < infos[j].Location })
	return infos, nil
}

// Resume implements manager.Debugger
func (d *Debugger) Resume(handle, appGUID, version string) error {
	v, err := parseVersion(version)
	if err != nil {
		return err
	}
	d.mutex.Lock()
	d.resumes[versionKey(appGUID, v)]++
	d.mutex.Unlock()
	return nil
}

// Resumes returns how many times the application version was resumed
func (d *Debugger) Resumes(appGUID, version string) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.resumes[versionKey(appGUID, version)]
}

// BreakpointCount returns the total number of breakpoints
func (d *Debugger) BreakpointCount() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.breakpoints)
}

// ReleaseSession removes the breakpoints owned by the session
func (d *Debugger) ReleaseSession(handle string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	for id, bp := range d.breakpoints {
		if bp.handle == handle {
			delete(d.breakpoints, id)
		}
	}
}
