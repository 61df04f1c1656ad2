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
	"sync"
	"time"

	"github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nuid"
	"github.com/oysterpack/esbadmin/pkg/client"
	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/manager"
)

// AdminClient is the remote client for the admin service.
// Listeners added through the client are served by the client on their own subjects until they are removed,
// or the session logs out.
type AdminClient struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration

	mutex sync.Mutex
	// listener key -> subscription
	listeners map[string]*listenerSub
}

type listenerSub struct {
	handle string
	sub    *nats.Subscription
}

// NewAdminClient creates a client for the admin service served under the subject prefix
func NewAdminClient(conn *nats.Conn, prefix string, timeout time.Duration) *AdminClient {
	return &AdminClient{
		conn:      conn,
		prefix:    prefix,
		timeout:   timeout,
		listeners: map[string]*listenerSub{},
	}
}

func (c *AdminClient) call(method string, args ...interface{}) (jsoniter.RawMessage, error) {
	return request(c.conn, AdminSubject(c.prefix), c.timeout, &Request{Method: method, Args: args})
}

// Login returns the session handle
func (c *AdminClient) Login(user, credentials, agent string) (string, error) {
	result, err := c.call(OpLogin, user, credentials, agent)
	if err != nil {
		return "", err
	}
	var handle string
	return handle, json.Unmarshal(result, &handle)
}

// Logout ends the session, and stops serving the session's listeners
func (c *AdminClient) Logout(handle string) error {
	_, err := c.call(OpLogout, handle)
	c.mutex.Lock()
	for key, l := range c.listeners {
		if l.handle == handle {
			l.sub.Unsubscribe()
			delete(c.listeners, key)
		}
	}
	c.mutex.Unlock()
	return err
}

// Manager returns the invoker for the session's manager
func (c *AdminClient) Manager(handle string, t manager.Type) (*Invoker, error) {
	result, err := c.call(GetManagerOp(t), handle)
	if err != nil {
		return nil, err
	}
	var h export.ClientHandle
	if err := json.Unmarshal(result, &h); err != nil {
		return nil, err
	}
	return NewInvoker(c.conn, h, c.timeout), nil
}

func (c *AdminClient) ApplicationManager(handle string) (*client.ApplicationManager, error) {
	inv, err := c.Manager(handle, manager.Application)
	if err != nil {
		return nil, err
	}
	return &client.ApplicationManager{Invoker: inv}, nil
}

func (c *AdminClient) ServiceManager(handle string) (*client.ServiceManager, error) {
	inv, err := c.Manager(handle, manager.Microservice)
	if err != nil {
		return nil, err
	}
	return &client.ServiceManager{Invoker: inv}, nil
}

func (c *AdminClient) BreakpointManager(handle string) (*client.BreakpointManager, error) {
	inv, err := c.Manager(handle, manager.Breakpoint)
	if err != nil {
		return nil, err
	}
	return &client.BreakpointManager{Invoker: inv}, nil
}

func (c *AdminClient) ConfigurationManager(handle string) (*client.ConfigurationManager, error) {
	inv, err := c.Manager(handle, manager.Configuration)
	if err != nil {
		return nil, err
	}
	return &client.ConfigurationManager{Invoker: inv}, nil
}

func (c *AdminClient) SchemaReferenceManager(handle string) (*client.SchemaReferenceManager, error) {
	inv, err := c.Manager(handle, manager.SchemaReference)
	if err != nil {
		return nil, err
	}
	return &client.SchemaReferenceManager{Invoker: inv}, nil
}

func (c *AdminClient) ServiceProviderManager(handle string) (*client.ServiceProviderManager, error) {
	inv, err := c.Manager(handle, manager.ServiceProvider)
	if err != nil {
		return nil, err
	}
	return &client.ServiceProviderManager{Invoker: inv}, nil
}

func (c *AdminClient) UserSecurityManager(handle string) (*client.UserSecurityManager, error) {
	inv, err := c.Manager(handle, manager.Security)
	if err != nil {
		return nil, err
	}
	return &client.UserSecurityManager{Invoker: inv}, nil
}

// serve starts serving the listener, replacing the listener previously served under the key
func (c *AdminClient) serve(key, handle string, listener interface{}) (string, error) {
	subject := listenerSubject(c.prefix, nuid.Next())
	sub, err := ServeListener(c.conn, subject, listener)
	if err != nil {
		return "", err
	}
	c.mutex.Lock()
	if previous, ok := c.listeners[key]; ok {
		previous.sub.Unsubscribe()
	}
	c.listeners[key] = &listenerSub{handle: handle, sub: sub}
	c.mutex.Unlock()
	return subject, nil
}

func (c *AdminClient) unserve(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if l, ok := c.listeners[key]; ok {
		l.sub.Unsubscribe()
		delete(c.listeners, key)
	}
}

// subscribe serves the listener and registers it. If the registration fails, the listener is no longer served.
func (c *AdminClient) subscribe(key, handle string, listener interface{}, method string, args ...interface{}) error {
	subject, err := c.serve(key, handle, listener)
	if err != nil {
		return err
	}
	if _, err := c.call(method, append([]interface{}{subject}, args...)...); err != nil {
		c.unserve(key)
		return err
	}
	return nil
}

func applicationListenerKey(handle, appGUID, version string) string {
	return "app:" + event.ScopeKey(handle, appGUID, version)
}

func (c *AdminClient) AddApplicationListener(l event.ApplicationListener, appGUID, version, handle string) error {
	return c.subscribe(applicationListenerKey(handle, appGUID, version), handle, l, OpAddApplicationListener, appGUID, version, handle)
}

func (c *AdminClient) RemoveApplicationListener(appGUID, version, handle string) error {
	_, err := c.call(OpRemoveApplicationListener, appGUID, version, handle)
	c.unserve(applicationListenerKey(handle, appGUID, version))
	return err
}

func (c *AdminClient) AddRepositoryEventListener(l event.RepositoryEventListener, handle string) error {
	return c.subscribe("repo:"+handle, handle, l, OpAddRepositoryEventListener, handle)
}

func (c *AdminClient) RemoveRepositoryEventListener(handle string) error {
	_, err := c.call(OpRemoveRepositoryEventListener, handle)
	c.unserve("repo:" + handle)
	return err
}

func (c *AdminClient) AddConfigurationRepositoryListener(l event.ConfigurationRepositoryListener, handle string) error {
	return c.subscribe("config:"+handle, handle, l, OpAddConfigurationRepositoryListener, handle)
}

func (c *AdminClient) RemoveConfigurationRepositoryListener(handle string) error {
	_, err := c.call(OpRemoveConfigurationRepositoryListener, handle)
	c.unserve("config:" + handle)
	return err
}

// ListenerCount returns the number of listeners the client is serving
func (c *AdminClient) ListenerCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.listeners)
}
