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

// Package dispatch resolves a method name, plus an optional parameter signature key, to a bound operation.
//
// A Registry is built once from a manager's declared operations and is immutable afterwards.
// An operation name declared once is keyed by its name. A name declared more than once is overloaded, and each
// overload is keyed by the name, followed by "__", followed by the colon-joined parameter type names:
//
//	stopApplication__string:string
//	stopApplication__string:string:int64
//
// Callers of an overloaded name must supply the parameter type key, i.e., "string:string:int64".
package dispatch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

// OverloadSeparator separates the operation name from its parameter types key
const OverloadSeparator = "__"

// parameter type names
const (
	String    = "string"
	Int64     = "int64"
	Float64   = "float64"
	Bool      = "bool"
	Bytes     = "[]byte"
	Strings   = "[]string"
	StringMap = "map[string]string"
)

// Func is the bound callable
type Func func(args Args) (interface{}, error)

// Operation is a declared manager operation
type Operation struct {
	Name string
	// ParamTypes is the ordered parameter signature. The number of arguments is checked against it on every call.
	ParamTypes []string
	Call       Func
}

// Op is a convenience constructor
func Op(name string, call Func, paramTypes ...string) Operation {
	return Operation{Name: name, ParamTypes: paramTypes, Call: call}
}

// Entry is a registered operation along with its dispatch key
type Entry struct {
	Key string
	Operation
}

// Registry maps dispatch keys to operations
type Registry struct {
	name    string
	entries map[string]*Entry
}

// NewRegistry builds the registry. Duplicate signatures and nil callables are rejected.
func NewRegistry(name string, ops ...Operation) (*Registry, error) {
	counts := make(map[string]int, len(ops))
	for _, op := range ops {
		if op.Name == "" {
			return nil, fmt.Errorf("%s : operation name is required", name)
		}
		if op.Call == nil {
			return nil, fmt.Errorf("%s.%s : Call is required", name, op.Name)
		}
		counts[op.Name]++
	}

	r := &Registry{name: name, entries: make(map[string]*Entry, len(ops))}
	for _, op := range ops {
		key := op.Name
		if counts[op.Name] > 1 {
			key = OverloadKey(op.Name, op.ParamTypes...)
		}
		if _, exists := r.entries[key]; exists {
			return nil, fmt.Errorf("%s : duplicate operation signature : %s", name, key)
		}
		r.entries[key] = &Entry{Key: key, Operation: op}
	}
	return r, nil
}

// MustNewRegistry panics if the registry cannot be built
func MustNewRegistry(name string, ops ...Operation) *Registry {
	r, err := NewRegistry(name, ops...)
	if err != nil {
		panic(err)
	}
	return r
}

// OverloadKey returns the dispatch key for an overloaded operation
func OverloadKey(name string, paramTypes ...string) string {
	return name + OverloadSeparator + ParamTypesKey(paramTypes...)
}

// ParamTypesKey returns the colon-joined parameter type names, i.e., the disambiguation key a caller must supply
func ParamTypesKey(paramTypes ...string) string {
	return strings.TrimSuffix(strings.Join(paramTypes, ":"), ":")
}

// Name returns the registry name, i.e., the manager type
func (r *Registry) Name() string { return r.name }

// Len returns the number of registered operations
func (r *Registry) Len() int { return len(r.entries) }

// Keys returns the sorted dispatch keys
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup resolves the method. If the method name is not registered as is, and the caller supplied a parameter types
// key, then the overload key is tried. The empty key is the key of the zero argument overload.
func (r *Registry) Lookup(method string, paramTypesKey string, keyed bool) (*Entry, bool) {
	if e, ok := r.entries[method]; ok {
		return e, true
	}
	if !keyed {
		return nil, false
	}
	e, ok := r.entries[method+OverloadSeparator+strings.TrimSuffix(paramTypesKey, ":")]
	return e, ok
}

// Call resolves the method and calls it. Resolution and argument failures are reported as a DispatchError.
// Errors returned by the callable are returned as is.
// keyed reports whether the caller supplied paramTypesKey.
func (r *Registry) Call(method string, args []interface{}, paramTypesKey string, keyed bool) (interface{}, error) {
	e, ok := r.Lookup(method, paramTypesKey, keyed)
	if !ok {
		return nil, &rpcerr.DispatchError{Manager: r.name, Method: method, Reason: rpcerr.MethodNotFound}
	}
	if len(args) != len(e.ParamTypes) {
		return nil, &rpcerr.DispatchError{Manager: r.name, Method: e.Key, Reason: rpcerr.ArgumentMismatch}
	}
	result, err := e.Call(Args(args))
	if dispatchErr, ok := err.(*rpcerr.DispatchError); ok && dispatchErr.Method == "" {
		dispatchErr.Manager = r.name
		dispatchErr.Method = e.Key
	}
	return result, err
}
