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

// Package manager implements the session bound manager facades.
//
// Each manager type is backed by a business collaborator. The collaborator's operations are bound into a
// dispatch.Registry when the manager Instance is created, and every call is routed through Instance.Invoke.
package manager

import (
	"fmt"

	"github.com/oysterpack/esbadmin/pkg/logging"
)

// Type enum
type Type int

// Type enum values
const (
	Application Type = iota
	Microservice
	Breakpoint
	Configuration
	SchemaReference
	ServiceProvider
	Security
)

// Types lists all manager types
var Types = []Type{
	Application,
	Microservice,
	Breakpoint,
	Configuration,
	SchemaReference,
	ServiceProvider,
	Security,
}

func (t Type) String() string {
	switch t {
	case Application:
		return "Application"
	case Microservice:
		return "Microservice"
	case Breakpoint:
		return "Breakpoint"
	case Configuration:
		return "Configuration"
	case SchemaReference:
		return "SchemaReference"
	case ServiceProvider:
		return "ServiceProvider"
	case Security:
		return "Security"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType is the inverse of Type.String()
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if t.String() == s {
			return t, nil
		}
	}
	return -1, fmt.Errorf("unknown manager type : %q", s)
}

// keys recognized in the additional info sent along with a call
const (
	InfoLocale         = "locale"
	InfoAddress        = "ip"
	InfoParameterTypes = "method_parameter_types"
)

// AdditionalInfo is the out of band data sent by the client with each call
type AdditionalInfo map[string]string

// ClientInfo describes the connected client. Clients only send it with their first call.
type ClientInfo struct {
	Locale  string `json:"locale,omitempty"`
	Address string `json:"ip,omitempty"`
}

// Empty returns true if no client info is set
func (c ClientInfo) Empty() bool {
	return c.Locale == "" && c.Address == ""
}

// ClientInfo extracts the client info
func (a AdditionalInfo) ClientInfo() ClientInfo {
	return ClientInfo{Locale: a[InfoLocale], Address: a[InfoAddress]}
}

// ParameterTypes returns the overload key sent by the client. ok is false when no key was sent, which is distinct
// from the empty key of a zero argument overload.
func (a AdditionalInfo) ParameterTypes() (key string, ok bool) {
	key, ok = a[InfoParameterTypes]
	return
}

// Sessions is the view of the session registry that manager instances depend on
type Sessions interface {
	// Live returns true if the session exists and has not been removed
	Live(handle string) bool
	// SetClientInfo records the client info, unless it was already recorded for the session
	SetClientInfo(handle string, info ClientInfo)
}

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

// log events
const (
	INVOKE_FAILED = logging.LogEventID(0xfa3b0c92d64e7185)
)
