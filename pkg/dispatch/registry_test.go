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

package dispatch_test

import (
	"errors"
	"testing"

	"github.com/oysterpack/esbadmin/pkg/dispatch"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

func overloadedRegistry(t *testing.T) *dispatch.Registry {
	r, err := dispatch.NewRegistry("Test",
		dispatch.Op("f", func(args dispatch.Args) (interface{}, error) {
			return "f()", nil
		}),
		dispatch.Op("f", func(args dispatch.Args) (interface{}, error) {
			s, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return "f(" + s + ")", nil
		}, dispatch.String),
		dispatch.Op("g", func(args dispatch.Args) (interface{}, error) {
			return "g()", nil
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNewRegistry_Keys(t *testing.T) {
	r := overloadedRegistry(t)
	keys := r.Keys()
	expected := []string{"f__", "f__string", "g"}
	if len(keys) != len(expected) {
		t.Fatalf("keys : %v", keys)
	}
	for i := range keys {
		if keys[i] != expected[i] {
			t.Errorf("keys : %v", keys)
		}
	}
	if _, ok := r.Lookup("f", "", false); ok {
		t.Error("an overloaded name must not be registered under its plain name")
	}
	if e, ok := r.Lookup("f", dispatch.ParamTypesKey(), true); !ok || e.Key != "f__" {
		t.Errorf("the empty key should resolve the zero argument overload : %v", e)
	}
}

func TestOverloadKey(t *testing.T) {
	if key := dispatch.OverloadKey("stopApplication", dispatch.String, dispatch.String, dispatch.Int64); key != "stopApplication__string:string:int64" {
		t.Errorf("unexpected key : %v", key)
	}
	if key := dispatch.ParamTypesKey("string", ""); key != "string" {
		t.Errorf("trailing colon should be stripped : %v", key)
	}
}

func TestRegistry_Call_OverloadDisambiguation(t *testing.T) {
	r := overloadedRegistry(t)

	_, err := r.Call("f", []interface{}{"a"}, "", false)
	switch e := err.(type) {
	case *rpcerr.DispatchError:
		if e.Reason != rpcerr.MethodNotFound {
			t.Errorf("unexpected reason : %v", e.Reason)
		}
	default:
		t.Errorf("expected a DispatchError : %T : %v", err, err)
	}

	result, err := r.Call("f", []interface{}{"a"}, dispatch.String, true)
	if err != nil {
		t.Fatal(err)
	}
	if result != "f(a)" {
		t.Errorf("routed to the wrong overload : %v", result)
	}

	// f is overloaded, thus f() requires the key
	_, err = r.Call("f", nil, "", false)
	if e, ok := err.(*rpcerr.DispatchError); !ok || e.Reason != rpcerr.MethodNotFound {
		t.Errorf("expected a method not found DispatchError : %v", err)
	}
	if result, err = r.Call("f", nil, dispatch.ParamTypesKey(), true); err != nil || result != "f()" {
		t.Errorf("the empty key should route to f() : %v : %v", result, err)
	}

	// a trailing colon sent by the caller is tolerated
	if result, err = r.Call("f", []interface{}{"b"}, "string:", true); err != nil || result != "f(b)" {
		t.Errorf("%v : %v", result, err)
	}

	// the plain name wins when it is registered
	if result, err = r.Call("g", nil, "ignored", true); err != nil || result != "g()" {
		t.Errorf("%v : %v", result, err)
	}
}

func TestRegistry_Call_ArgumentChecks(t *testing.T) {
	r := overloadedRegistry(t)

	_, err := r.Call("f", []interface{}{"a", "b"}, dispatch.String, true)
	if e, ok := err.(*rpcerr.DispatchError); !ok || e.Reason != rpcerr.ArgumentMismatch {
		t.Errorf("expected an argument mismatch : %v", err)
	}

	_, err = r.Call("f", []interface{}{1}, dispatch.String, true)
	switch e := err.(type) {
	case *rpcerr.DispatchError:
		if e.Reason != rpcerr.InvalidArgument || e.Method != "f__string" || e.Manager != "Test" {
			t.Errorf("unexpected DispatchError : %#v", e)
		}
	default:
		t.Errorf("expected an invalid argument DispatchError : %T : %v", err, err)
	}
}

func TestRegistry_Call_PropagatesCallableErrors(t *testing.T) {
	domainErr := rpcerr.NewDomainError("X", "x")
	r := dispatch.MustNewRegistry("Test", dispatch.Op("x", func(args dispatch.Args) (interface{}, error) {
		return nil, domainErr
	}))
	if _, err := r.Call("x", nil, "", false); err != domainErr {
		t.Errorf("the callable error should be returned as is : %v", err)
	}
}

func TestNewRegistry_Invalid(t *testing.T) {
	noop := func(args dispatch.Args) (interface{}, error) { return nil, nil }
	if _, err := dispatch.NewRegistry("Test", dispatch.Op("f", noop, dispatch.String), dispatch.Op("f", noop, dispatch.String)); err == nil {
		t.Error("duplicate signatures should be rejected")
	}
	if _, err := dispatch.NewRegistry("Test", dispatch.Op("f", nil)); err == nil {
		t.Error("nil Call should be rejected")
	}
	if _, err := dispatch.NewRegistry("Test", dispatch.Op("", noop)); err == nil {
		t.Error("blank name should be rejected")
	}
}

func TestArgs_JSONCoercion(t *testing.T) {
	args := dispatch.Args{
		float64(30000),
		"aGVsbG8=",
		[]interface{}{"a", "b"},
		map[string]interface{}{"k": "v"},
		"1.0",
		1.5,
	}
	if v, err := args.Int64(0); err != nil || v != 30000 {
		t.Errorf("Int64 : %v : %v", v, err)
	}
	if v, err := args.Bytes(1); err != nil || string(v) != "hello" {
		t.Errorf("Bytes : %v : %v", v, err)
	}
	if v, err := args.Strings(2); err != nil || len(v) != 2 || v[1] != "b" {
		t.Errorf("Strings : %v : %v", v, err)
	}
	if v, err := args.StringMap(3); err != nil || v["k"] != "v" {
		t.Errorf("StringMap : %v : %v", v, err)
	}
	if v, err := args.Version(4); err != nil || v.String() != "1.0.0" {
		t.Errorf("Version : %v : %v", v, err)
	}
	if _, err := args.Int64(5); err == nil {
		t.Error("1.5 is not an int64")
	}
	if _, err := args.String(10); err == nil {
		t.Error("out of range should fail")
	}
	var dispatchErr *rpcerr.DispatchError
	if _, err := args.Bool(0); !errors.As(err, &dispatchErr) {
		t.Errorf("expected a DispatchError : %v", err)
	}
}
