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
	"golang.org/x/crypto/bcrypt"
)

// Users implements session.Authenticator and manager.SecurityManager. Passwords are stored as bcrypt hashes.
type Users struct {
	cost int

	mutex     sync.RWMutex
	passwords map[string][]byte
	// session handle -> user
	handles   map[string]string
	onRelease []func(handle string)
}

// NewUsers creates a user store seeded with the given user name to password entries
func NewUsers(users map[string]string) (*Users, error) {
	return NewUsersWithCost(users, bcrypt.DefaultCost)
}

// NewUsersWithCost allows the bcrypt cost to be specified
func NewUsersWithCost(users map[string]string, cost int) (*Users, error) {
	u := &Users{
		cost:      cost,
		passwords: map[string][]byte{},
		handles:   map[string]string{},
	}
	for name, password := range users {
		if err := u.CreateUser(name, password); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (u *Users) hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), u.cost)
}

// Authenticate implements session.Authenticator. Each successful authentication issues a new handle.
func (u *Users) Authenticate(user, credentials string) (string, error) {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	hash, ok := u.passwords[user]
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(credentials)) != nil {
		return "", rpcerr.NewDomainError(manager.BAD_CREDENTIALS, "authentication failed : %s", user)
	}
	handle := nuid.Next()
	u.handles[handle] = user
	return handle, nil
}

// OnRelease registers a func that is called after a handle is released, e.g., Debugger.ReleaseSession
func (u *Users) OnRelease(f func(handle string)) {
	u.mutex.Lock()
	u.onRelease = append(u.onRelease, f)
	u.mutex.Unlock()
}

// ReleaseHandle implements session.Authenticator
func (u *Users) ReleaseHandle(handle string) {
	u.mutex.Lock()
	delete(u.handles, handle)
	hooks := u.onRelease
	u.mutex.Unlock()
	for _, f := range hooks {
		f(handle)
	}
}

// HandleCount returns the number of issued handles that have not been released
func (u *Users) HandleCount() int {
	u.mutex.RLock()
	defer u.mutex.RUnlock()
	return len(u.handles)
}

// ListUsers implements manager.SecurityManager
func (u *Users) ListUsers() ([]string, error) {
	u.mutex.RLock()
	defer u.mutex.RUnlock()
	names := make([]string, 0, len(u.passwords))
	for name := range u.passwords {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateUser implements manager.SecurityManager
func (u *Users) CreateUser(name, password string) error {
	if name == "" {
		return rpcerr.NewDomainError(manager.BAD_CREDENTIALS, "user name is blank")
	}
	hash, err := u.hash(password)
	if err != nil {
		return err
	}
	u.mutex.Lock()
	defer u.mutex.Unlock()
	if _, ok := u.passwords[name]; ok {
		return rpcerr.NewDomainError(manager.USER_EXISTS, "user already exists : %s", name)
	}
	u.passwords[name] = hash
	return nil
}

// DeleteUser implements manager.SecurityManager
func (u *Users) DeleteUser(name string) error {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	if _, ok := u.passwords[name]; !ok {
		return rpcerr.NewDomainError(manager.USER_NOT_FOUND, "user not found : %s", name)
	}
	delete(u.passwords, name)
	return nil
}

// ResetPassword implements manager.SecurityManager
func (u *Users) ResetPassword(name, newPassword string) error {
	hash, err := u.hash(newPassword)
	if err != nil {
		return err
	}
	u.mutex.Lock()
	defer u.mutex.Unlock()
	if _, ok := u.passwords[name]; !ok {
		return rpcerr.NewDomainError(manager.USER_NOT_FOUND, "user not found : %s", name)
	}
	u.passwords[name] = hash
	return nil
}

// ChangePassword implements manager.SecurityManager
func (u *Users) ChangePassword(name, oldPassword, newPassword string) error {
	hash, err := u.hash(newPassword)
	if err != nil {
		return err
	}
	u.mutex.Lock()
	defer u.mutex.Unlock()
	current, ok := u.passwords[name]
	if !ok {
		return rpcerr.NewDomainError(manager.USER_NOT_FOUND, "user not found : %s", name)
	}
	if bcrypt.CompareHashAndPassword(current, []byte(oldPassword)) != nil {
		return rpcerr.NewDomainError(manager.BAD_CREDENTIALS, "password mismatch : %s", name)
	}
	u.passwords[name] = hash
	return nil
}
