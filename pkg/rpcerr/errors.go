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

// Package rpcerr defines the errors that may cross the session boundary.
//
// A caller only ever observes a SessionError, DispatchError, DomainError or ServiceError. Any other failure is
// replaced with a ServiceError by Sanitize. TransportError is used internally by the event fan-out and the
// client side transport to report an unreachable peer.
package rpcerr

import (
	"errors"
	"fmt"
)

// ErrorID unique error id
type ErrorID uint64

// ErrorIDs
const (
	SESSION_ERR   = ErrorID(0xd2b3c6f31a5e4b07)
	DISPATCH_ERR  = ErrorID(0x8f1e0a7c9b24d3e6)
	DOMAIN_ERR    = ErrorID(0xa47c12e9f05b8d31)
	TRANSPORT_ERR = ErrorID(0xc90d5e3b7a16f248)
	SERVICE_ERR   = ErrorID(0xe61f28b4d09a7c53)
	PANIC_ERR     = ErrorID(0xb5a38d0e6c27f194)
)

// Dispatch failure reasons
const (
	MethodNotFound   = "method not found"
	ArgumentMismatch = "argument mismatch"
	InvalidArgument  = "invalid argument"
	EncodingFailed   = "result encoding failed"
)

// ServiceErrorMessage is the only message exposed for an unexpected internal failure
const ServiceErrorMessage = "internal service error"

// SessionError indicates the session handle is missing, expired, or was logged out
type SessionError struct {
	Handle    string
	Operation string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("invalid handle, operation=%s", e.Operation)
}

// ErrorID implements Identified
func (e *SessionError) ErrorID() ErrorID { return SESSION_ERR }

// DispatchError indicates the method could not be resolved, or its arguments did not match the declared signature
type DispatchError struct {
	Manager string
	Method  string
	Reason  string
}

func (e *DispatchError) Error() string {
	if e.Manager == "" {
		return fmt.Sprintf("%s : %s", e.Reason, e.Method)
	}
	return fmt.Sprintf("%s : %s.%s", e.Reason, e.Manager, e.Method)
}

// ErrorID implements Identified
func (e *DispatchError) ErrorID() ErrorID { return DISPATCH_ERR }

// DomainError is a business rule failure raised by a collaborator. It propagates to the caller unchanged.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s : %s", e.Code, e.Message)
}

// ErrorID implements Identified
func (e *DomainError) ErrorID() ErrorID { return DOMAIN_ERR }

// NewDomainError is a convenience constructor
func NewDomainError(code string, format string, args ...interface{}) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// TransportError indicates the remote peer could not be reached.
// Gone is set when the transport knows the peer will never be reachable again, e.g., no one is subscribed on its subject.
// Delivered is set when the request may have reached the peer even though no usable reply came back, e.g., the reply
// timed out.
type TransportError struct {
	Target    string
	Gone      bool
	Delivered bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Gone {
		return fmt.Sprintf("peer is gone : %s : %v", e.Target, e.Err)
	}
	return fmt.Sprintf("peer is unreachable : %s : %v", e.Target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrorID implements Identified
func (e *TransportError) ErrorID() ErrorID { return TRANSPORT_ERR }

// ServiceError is the catch-all for unexpected failures. Its message is always safe to expose.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// ErrorID implements Identified
func (e *ServiceError) ErrorID() ErrorID { return SERVICE_ERR }

// PanicError is used to wrap any trapped panics along with a supplemental info about the context of the panic
type PanicError struct {
	Panic   interface{}
	Message string
}

func (e *PanicError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("panic: %v : %v", e.Panic, e.Message)
	}
	return fmt.Sprintf("panic: %v", e.Panic)
}

// ErrorID implements Identified
func (e *PanicError) ErrorID() ErrorID { return PANIC_ERR }

// Identified is implemented by errors that carry an ErrorID
type Identified interface {
	error
	ErrorID() ErrorID
}

// Sanitize returns the error that may be exposed to a caller.
// Session, dispatch, domain and service errors are returned as is, unwrapped if needed.
// Anything else is replaced with a ServiceError. nil maps to nil.
func Sanitize(err error) error {
	if err == nil {
		return nil
	}
	var sessionErr *SessionError
	if errors.As(err, &sessionErr) {
		return sessionErr
	}
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return dispatchErr
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return &ServiceError{Message: ServiceErrorMessage}
}

// Exposed returns true if the error may be returned to a caller as is
func Exposed(err error) bool {
	switch err.(type) {
	case *SessionError, *DispatchError, *DomainError, *ServiceError:
		return true
	default:
		return false
	}
}

// Trap runs f, converting a panic into a PanicError
func Trap(f func() error, msg string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Panic: p, Message: msg}
		}
	}()
	return f()
}
