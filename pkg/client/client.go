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

// Package client provides typed stubs for the admin managers. A stub turns each call into a generic invoke on an
// Invoker, which is either an in-process export or a remote transport.
package client

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/json-iterator/go"
	"github.com/oysterpack/esbadmin/pkg/dispatch"
	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// log events
const (
	RETRY = logging.LogEventID(0xf20c8b6e1d3a5974)
)

// Invoker is the generic call surface
type Invoker = export.Invoker

// InvokerFunc adapts a func to the Invoker interface
type InvokerFunc func(method string, args []interface{}, info manager.AdditionalInfo) (interface{}, error)

// Invoke implements Invoker
func (f InvokerFunc) Invoke(method string, args []interface{}, info manager.AdditionalInfo) (interface{}, error) {
	return f(method, args, info)
}

// Local returns the Invoker for an in-process export
func Local(exporter *export.LocalExporter, h export.ClientHandle) (Invoker, error) {
	b, ok := exporter.Lookup(h)
	if !ok {
		return nil, &rpcerr.TransportError{Target: h.String(), Gone: true, Err: errors.New("export not found")}
	}
	return b, nil
}

// call invokes the method, passing the overload key when the parameter types are specified
func call(inv Invoker, method string, paramTypes []string, args ...interface{}) (interface{}, error) {
	var info manager.AdditionalInfo
	if paramTypes != nil {
		info = manager.AdditionalInfo{manager.InfoParameterTypes: dispatch.ParamTypesKey(paramTypes...)}
	}
	return inv.Invoke(method, args, info)
}

// decode converts the invoke result into out. Remote results arrive as raw JSON. Local results are converted by
// a JSON round trip unless they already have the target type.
func decode(method string, result interface{}, out interface{}) error {
	var data []byte
	switch r := result.(type) {
	case nil:
		return nil
	case jsoniter.RawMessage:
		data = r
	default:
		if assign(result, out) {
			return nil
		}
		var err error
		if data, err = json.Marshal(result); err != nil {
			return fmt.Errorf("%s : failed to encode result : %w", method, err)
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s : failed to decode result : %w", method, err)
	}
	return nil
}

func assign(result interface{}, out interface{}) bool {
	switch o := out.(type) {
	case *string:
		if v, ok := result.(string); ok {
			*o = v
			return true
		}
	case *[]string:
		if v, ok := result.([]string); ok {
			*o = v
			return true
		}
	}
	return false
}

// WithClientInfo sends the client's locale and address along with the first call only
func WithClientInfo(inv Invoker, info manager.ClientInfo) Invoker {
	var once sync.Once
	return InvokerFunc(func(method string, args []interface{}, additional manager.AdditionalInfo) (interface{}, error) {
		once.Do(func() {
			if info.Empty() {
				return
			}
			merged := manager.AdditionalInfo{}
			for k, v := range additional {
				merged[k] = v
			}
			if info.Locale != "" {
				merged[manager.InfoLocale] = info.Locale
			}
			if info.Address != "" {
				merged[manager.InfoAddress] = info.Address
			}
			additional = merged
		})
		return inv.Invoke(method, args, additional)
	})
}

// WithRetry retries calls that failed with a TransportError, unless the peer is gone or the request may have been
// delivered. A timed out call is not retried because the peer may have applied it.
// Any other error is returned immediately.
func WithRetry(inv Invoker, attempts int, backoff time.Duration) Invoker {
	if attempts < 1 {
		attempts = 1
	}
	return InvokerFunc(func(method string, args []interface{}, info manager.AdditionalInfo) (result interface{}, err error) {
		for i := 1; i <= attempts; i++ {
			result, err = inv.Invoke(method, args, info)
			var transportErr *rpcerr.TransportError
			if err == nil || !errors.As(err, &transportErr) || transportErr.Gone || transportErr.Delivered {
				return result, err
			}
			if i < attempts {
				RETRY.Log(logger.Debug()).Str(logging.METHOD, method).Int("attempt", i).Err(err).Msg("retrying")
				time.Sleep(backoff * time.Duration(i))
			}
		}
		return result, err
	})
}
