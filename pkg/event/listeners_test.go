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

package event_test

import (
	"errors"
	"sync"
	"time"

	"github.com/oysterpack/esbadmin/pkg/event"
)

type callback struct {
	Method string
	Args   []string
}

// recordingListener implements all listener interfaces and records each callback
type recordingListener struct {
	mutex     sync.Mutex
	callbacks []callback
	received  chan callback
	err       error
}

func newRecordingListener() *recordingListener {
	return &recordingListener{received: make(chan callback, 100)}
}

func (l *recordingListener) record(method string, args ...string) error {
	c := callback{method, args}
	l.mutex.Lock()
	l.callbacks = append(l.callbacks, c)
	l.mutex.Unlock()
	l.received <- c
	return l.err
}

func (l *recordingListener) Callbacks() []callback {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]callback(nil), l.callbacks...)
}

func (l *recordingListener) await(timeout time.Duration) (callback, error) {
	select {
	case c := <-l.received:
		return c, nil
	case <-time.After(timeout):
		return callback{}, errors.New("timed out waiting for callback")
	}
}

func (l *recordingListener) ApplicationStarted(version string) error {
	return l.record("applicationStarted", version)
}

func (l *recordingListener) ApplicationStopped(version string) error {
	return l.record("applicationStopped", version)
}

func (l *recordingListener) ServiceInstanceStarted(instance event.ServiceInstance) error {
	return l.record("serviceInstanceStarted", instance.ServiceGUID, instance.InstanceName)
}

func (l *recordingListener) ServiceInstanceStopped(instance event.ServiceInstance) error {
	return l.record("serviceInstanceStopped", instance.ServiceGUID, instance.InstanceName)
}

func (l *recordingListener) ServiceDeployed(serviceGUID, version string) error {
	return l.record("serviceDeployed", serviceGUID, version)
}

func (l *recordingListener) ServiceUndeployed(serviceGUID, version string) error {
	return l.record("serviceUndeployed", serviceGUID, version)
}

func (l *recordingListener) ApplicationSaved(appGUID, version string) error {
	return l.record("applicationSaved", appGUID, version)
}

func (l *recordingListener) ApplicationDeleted(appGUID, version string) error {
	return l.record("applicationDeleted", appGUID, version)
}

func (l *recordingListener) ConfigurationPersisted(name, configType string) error {
	return l.record("configurationPersisted", name, configType)
}

func (l *recordingListener) ConfigurationDeleted(name, configType string) error {
	return l.record("configurationDeleted", name, configType)
}

// panickingListener panics on every callback
type panickingListener struct {
	*recordingListener
}

func (l *panickingListener) ApplicationStarted(version string) error {
	panic("BOOM")
}
