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

package natsrpc

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oysterpack/esbadmin/pkg/dispatch"
	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

// listener callback names
const (
	CallbackApplicationStarted     = "applicationStarted"
	CallbackApplicationStopped     = "applicationStopped"
	CallbackServiceInstanceStarted = "serviceInstanceStarted"
	CallbackServiceInstanceStopped = "serviceInstanceStopped"
	CallbackServiceDeployed        = "serviceDeployed"
	CallbackServiceUndeployed      = "serviceUndeployed"
	CallbackApplicationSaved       = "applicationSaved"
	CallbackApplicationDeleted     = "applicationDeleted"
	CallbackConfigurationPersisted = "configurationPersisted"
	CallbackConfigurationDeleted   = "configurationDeleted"
)

// ServiceInstanceType is the parameter type name of an event.ServiceInstance argument
const ServiceInstanceType = "ServiceInstance"

// ListenerProxy is the server side stand-in for a remote listener. It implements event.ApplicationListener,
// event.RepositoryEventListener, and event.ConfigurationRepositoryListener. Each callback is a NATS request.
// If the remote listener is gone, the callback fails with a TransportError that is Gone, which prunes the registration.
type ListenerProxy struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

var (
	_ event.ApplicationListener             = &ListenerProxy{}
	_ event.RepositoryEventListener         = &ListenerProxy{}
	_ event.ConfigurationRepositoryListener = &ListenerProxy{}
)

// NewListenerProxy creates a proxy for the listener served on the subject
func NewListenerProxy(conn *nats.Conn, subject string, timeout time.Duration) *ListenerProxy {
	return &ListenerProxy{conn: conn, subject: subject, timeout: timeout}
}

// Subject returns the remote listener's subject
func (p *ListenerProxy) Subject() string { return p.subject }

func (p *ListenerProxy) notify(callback string, args ...interface{}) error {
	_, err := request(p.conn, p.subject, p.timeout, &Request{Method: callback, Args: args})
	return err
}

func (p *ListenerProxy) ApplicationStarted(version string) error {
	return p.notify(CallbackApplicationStarted, version)
}

func (p *ListenerProxy) ApplicationStopped(version string) error {
	return p.notify(CallbackApplicationStopped, version)
}

func (p *ListenerProxy) ServiceInstanceStarted(instance event.ServiceInstance) error {
	return p.notify(CallbackServiceInstanceStarted, instance)
}

func (p *ListenerProxy) ServiceInstanceStopped(instance event.ServiceInstance) error {
	return p.notify(CallbackServiceInstanceStopped, instance)
}

func (p *ListenerProxy) ServiceDeployed(serviceGUID, version string) error {
	return p.notify(CallbackServiceDeployed, serviceGUID, version)
}

func (p *ListenerProxy) ServiceUndeployed(serviceGUID, version string) error {
	return p.notify(CallbackServiceUndeployed, serviceGUID, version)
}

func (p *ListenerProxy) ApplicationSaved(appGUID, version string) error {
	return p.notify(CallbackApplicationSaved, appGUID, version)
}

func (p *ListenerProxy) ApplicationDeleted(appGUID, version string) error {
	return p.notify(CallbackApplicationDeleted, appGUID, version)
}

func (p *ListenerProxy) ConfigurationPersisted(name, configType string) error {
	return p.notify(CallbackConfigurationPersisted, name, configType)
}

func (p *ListenerProxy) ConfigurationDeleted(name, configType string) error {
	return p.notify(CallbackConfigurationDeleted, name, configType)
}

// serviceInstance decodes the argument, which arrives as a JSON object
func serviceInstance(args dispatch.Args, i int) (event.ServiceInstance, error) {
	var instance event.ServiceInstance
	data, err := json.Marshal(args[i])
	if err != nil {
		return instance, err
	}
	return instance, json.Unmarshal(data, &instance)
}

func twoStrings(args dispatch.Args, f func(a, b string) error) (interface{}, error) {
	a, err := args.String(0)
	if err != nil {
		return nil, err
	}
	b, err := args.String(1)
	if err != nil {
		return nil, err
	}
	return nil, f(a, b)
}

// listenerOperations returns the callbacks for each listener interface the listener implements
func listenerOperations(listener interface{}) []dispatch.Operation {
	var ops []dispatch.Operation
	if l, ok := listener.(event.ApplicationListener); ok {
		ops = append(ops,
			dispatch.Op(CallbackApplicationStarted, func(args dispatch.Args) (interface{}, error) {
				version, err := args.String(0)
				if err != nil {
					return nil, err
				}
				return nil, l.ApplicationStarted(version)
			}, dispatch.String),
			dispatch.Op(CallbackApplicationStopped, func(args dispatch.Args) (interface{}, error) {
				version, err := args.String(0)
				if err != nil {
					return nil, err
				}
				return nil, l.ApplicationStopped(version)
			}, dispatch.String),
			dispatch.Op(CallbackServiceInstanceStarted, func(args dispatch.Args) (interface{}, error) {
				instance, err := serviceInstance(args, 0)
				if err != nil {
					return nil, err
				}
				return nil, l.ServiceInstanceStarted(instance)
			}, ServiceInstanceType),
			dispatch.Op(CallbackServiceInstanceStopped, func(args dispatch.Args) (interface{}, error) {
				instance, err := serviceInstance(args, 0)
				if err != nil {
					return nil, err
				}
				return nil, l.ServiceInstanceStopped(instance)
			}, ServiceInstanceType),
		)
	}
	if l, ok := listener.(event.RepositoryEventListener); ok {
		ops = append(ops,
			dispatch.Op(CallbackServiceDeployed, func(args dispatch.Args) (interface{}, error) {
				return twoStrings(args, l.ServiceDeployed)
			}, dispatch.String, dispatch.String),
			dispatch.Op(CallbackServiceUndeployed, func(args dispatch.Args) (interface{}, error) {
				return twoStrings(args, l.ServiceUndeployed)
			}, dispatch.String, dispatch.String),
			dispatch.Op(CallbackApplicationSaved, func(args dispatch.Args) (interface{}, error) {
				return twoStrings(args, l.ApplicationSaved)
			}, dispatch.String, dispatch.String),
			dispatch.Op(CallbackApplicationDeleted, func(args dispatch.Args) (interface{}, error) {
				return twoStrings(args, l.ApplicationDeleted)
			}, dispatch.String, dispatch.String),
		)
	}
	if l, ok := listener.(event.ConfigurationRepositoryListener); ok {
		ops = append(ops,
			dispatch.Op(CallbackConfigurationPersisted, func(args dispatch.Args) (interface{}, error) {
				return twoStrings(args, l.ConfigurationPersisted)
			}, dispatch.String, dispatch.String),
			dispatch.Op(CallbackConfigurationDeleted, func(args dispatch.Args) (interface{}, error) {
				return twoStrings(args, l.ConfigurationDeleted)
			}, dispatch.String, dispatch.String),
		)
	}
	return ops
}

// ServeListener serves the listener's callbacks on the subject. The listener must implement at least one of the
// listener interfaces. The subscription is registered with the NATS server when ServeListener returns.
// Unsubscribing makes the listener gone, and the server prunes its registrations on the next event.
func ServeListener(conn *nats.Conn, subject string, listener interface{}) (*nats.Subscription, error) {
	ops := listenerOperations(listener)
	if len(ops) == 0 {
		return nil, fmt.Errorf("%T does not implement any listener interface", listener)
	}
	registry, err := dispatch.NewRegistry("listener", ops...)
	if err != nil {
		return nil, err
	}
	sub, err := subscribe(conn, subject, func(msg *nats.Msg) {
		req, ok := decodeRequest(msg)
		if !ok {
			return
		}
		err := rpcerr.Trap(func() error {
			_, err := registry.Call(req.Method, req.Args, "", false)
			return err
		}, "listener callback")
		respond(msg, nil, err)
	})
	if err != nil {
		return nil, err
	}
	LISTENER_SERVED.Log(logger.Debug()).Str("subject", subject).Str(logging.TYPE, fmt.Sprintf("%T", listener)).Msg("")
	return sub, nil
}
