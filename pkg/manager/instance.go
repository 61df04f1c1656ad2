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

package manager

import (
	"time"

	"github.com/oysterpack/esbadmin/pkg/dispatch"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/metrics"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	invocationsCounterOpts = &metrics.CounterVecOpts{
		CounterOpts: &prometheus.CounterOpts{
			Namespace: metrics.METRICS_NAMESPACE,
			Subsystem: "manager",
			Name:      "invocations_total",
			Help:      "The number of manager invocations by outcome",
		},
		Labels: []string{"manager", "outcome"},
	}
	invokeDurationOpts = &metrics.HistogramVecOpts{
		HistogramOpts: &prometheus.HistogramOpts{
			Namespace: metrics.METRICS_NAMESPACE,
			Subsystem: "manager",
			Name:      "invoke_duration_seconds",
			Help:      "The manager invocation latency",
			Buckets:   prometheus.DefBuckets,
		},
		Labels: []string{"manager"},
	}
)

// invocation outcomes
const (
	outcomeOK       = "ok"
	outcomeSession  = "session_error"
	outcomeDispatch = "dispatch_error"
	outcomeDomain   = "domain_error"
	outcomeService  = "service_error"
)

// Instance is a session bound manager
type Instance struct {
	typ      Type
	handle   string
	registry *dispatch.Registry
	sessions Sessions

	invocations *prometheus.CounterVec
	duration    prometheus.Observer
}

// NewInstance binds the registry to the session
func NewInstance(typ Type, handle string, registry *dispatch.Registry, sessions Sessions) *Instance {
	return &Instance{
		typ:         typ,
		handle:      handle,
		registry:    registry,
		sessions:    sessions,
		invocations: metrics.GetOrMustRegisterCounterVec(invocationsCounterOpts),
		duration:    metrics.GetOrMustRegisterHistogramVec(invokeDurationOpts).WithLabelValues(typ.String()),
	}
}

// Type returns the manager type
func (m *Instance) Type() Type { return m.typ }

// Handle returns the owning session handle
func (m *Instance) Handle() string { return m.handle }

// Registry returns the manager's dispatch registry
func (m *Instance) Registry() *dispatch.Registry { return m.registry }

// Invoke is the single entry point for all manager operations.
//
// Client info carried by info is recorded on the session the first time it is seen. The session must be live.
// The method is resolved by name, falling back to the overload key when info carries the parameter types.
// Errors returned to the caller are limited to SessionError, DispatchError, DomainError and ServiceError.
func (m *Instance) Invoke(method string, args []interface{}, info AdditionalInfo) (result interface{}, err error) {
	start := time.Now()
	defer func() {
		m.duration.Observe(time.Since(start).Seconds())
		m.invocations.WithLabelValues(m.typ.String(), outcome(err)).Inc()
	}()

	if clientInfo := info.ClientInfo(); !clientInfo.Empty() {
		m.sessions.SetClientInfo(m.handle, clientInfo)
	}

	if !m.sessions.Live(m.handle) {
		return nil, &rpcerr.SessionError{Handle: m.handle, Operation: method}
	}

	err = rpcerr.Trap(func() error {
		var callErr error
		paramTypes, keyed := info.ParameterTypes()
		result, callErr = m.registry.Call(method, args, paramTypes, keyed)
		return callErr
	}, method)
	if err == nil {
		return result, nil
	}

	exposed := rpcerr.Sanitize(err)
	if _, ok := exposed.(*rpcerr.ServiceError); ok && exposed != err {
		INVOKE_FAILED.Log(logger.Error()).
			Str(logging.MANAGER, m.typ.String()).
			Str(logging.METHOD, method).
			Str(logging.SESSION, m.handle).
			Err(err).
			Msg("internal error")
	}
	return nil, exposed
}

func outcome(err error) string {
	switch err.(type) {
	case nil:
		return outcomeOK
	case *rpcerr.SessionError:
		return outcomeSession
	case *rpcerr.DispatchError:
		return outcomeDispatch
	case *rpcerr.DomainError:
		return outcomeDomain
	default:
		return outcomeService
	}
}
