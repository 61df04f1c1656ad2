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

package rpcerr

// Wire is the transport neutral form of an exposed error
type Wire struct {
	ErrorID   ErrorID `json:"id"`
	Code      string  `json:"code,omitempty"`
	Message   string  `json:"msg,omitempty"`
	Handle    string  `json:"handle,omitempty"`
	Operation string  `json:"op,omitempty"`
	Manager   string  `json:"mgr,omitempty"`
	Method    string  `json:"method,omitempty"`
}

// Encode sanitizes the error and converts it into its wire form. nil maps to nil.
func Encode(err error) *Wire {
	switch e := Sanitize(err).(type) {
	case nil:
		return nil
	case *SessionError:
		return &Wire{ErrorID: SESSION_ERR, Handle: e.Handle, Operation: e.Operation}
	case *DispatchError:
		return &Wire{ErrorID: DISPATCH_ERR, Manager: e.Manager, Method: e.Method, Message: e.Reason}
	case *DomainError:
		return &Wire{ErrorID: DOMAIN_ERR, Code: e.Code, Message: e.Message}
	case *ServiceError:
		return &Wire{ErrorID: SERVICE_ERR, Message: e.Message}
	default:
		return &Wire{ErrorID: SERVICE_ERR, Message: ServiceErrorMessage}
	}
}

// Decode maps the wire form back to the typed error
func (w *Wire) Decode() error {
	if w == nil {
		return nil
	}
	switch w.ErrorID {
	case SESSION_ERR:
		return &SessionError{Handle: w.Handle, Operation: w.Operation}
	case DISPATCH_ERR:
		return &DispatchError{Manager: w.Manager, Method: w.Method, Reason: w.Message}
	case DOMAIN_ERR:
		return &DomainError{Code: w.Code, Message: w.Message}
	default:
		msg := w.Message
		if msg == "" {
			msg = ServiceErrorMessage
		}
		return &ServiceError{Message: msg}
	}
}
