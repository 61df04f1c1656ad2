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

package dispatch

import (
	"encoding/base64"
	"math"

	"github.com/Masterminds/semver"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

// Args are the call arguments.
//
// Arguments that went through a JSON transport arrive as generic JSON values, e.g., numbers as float64 and byte
// slices as base64 strings. The accessors coerce them back to the declared parameter type.
// A type mismatch is reported as a DispatchError.
type Args []interface{}

func invalidArgument() error {
	return &rpcerr.DispatchError{Reason: rpcerr.InvalidArgument}
}

// String returns the i-th argument as a string
func (a Args) String(i int) (string, error) {
	if s, ok := a.at(i).(string); ok {
		return s, nil
	}
	return "", invalidArgument()
}

// Int64 returns the i-th argument as an int64
func (a Args) Int64(i int) (int64, error) {
	switch v := a.at(i).(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int64(v), nil
		}
	}
	return 0, invalidArgument()
}

// Bool returns the i-th argument as a bool
func (a Args) Bool(i int) (bool, error) {
	if b, ok := a.at(i).(bool); ok {
		return b, nil
	}
	return false, invalidArgument()
}

// Bytes returns the i-th argument as a byte slice
func (a Args) Bytes(i int) ([]byte, error) {
	switch v := a.at(i).(type) {
	case []byte:
		return v, nil
	case string:
		if b, err := base64.StdEncoding.DecodeString(v); err == nil {
			return b, nil
		}
	case nil:
		if i < len(a) {
			return nil, nil
		}
	}
	return nil, invalidArgument()
}

// Strings returns the i-th argument as a string slice
func (a Args) Strings(i int) ([]string, error) {
	switch v := a.at(i).(type) {
	case []string:
		return v, nil
	case []interface{}:
		strs := make([]string, len(v))
		for j, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, invalidArgument()
			}
			strs[j] = s
		}
		return strs, nil
	}
	return nil, invalidArgument()
}

// StringMap returns the i-th argument as a map[string]string
func (a Args) StringMap(i int) (map[string]string, error) {
	switch v := a.at(i).(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		m := make(map[string]string, len(v))
		for k, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, invalidArgument()
			}
			m[k] = s
		}
		return m, nil
	}
	return nil, invalidArgument()
}

// Version parses the i-th argument as a semantic version
func (a Args) Version(i int) (*semver.Version, error) {
	s, err := a.String(i)
	if err != nil {
		return nil, err
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, invalidArgument()
	}
	return v, nil
}

func (a Args) at(i int) interface{} {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}
