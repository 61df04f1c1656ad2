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

// Package natsrpc binds the admin server to NATS request/reply.
//
// Each exported manager is served on its own subject, <prefix>.mgr.<id>. The admin surface itself, i.e. login,
// logout, manager lookup, and the listener subscriptions, is served on <prefix>.admin. Remote event listeners
// serve their callbacks on a subject they pick, and the server reaches them through a ListenerProxy.
//
// Requests and replies are JSON encoded envelopes.
package natsrpc

import (
	"errors"
	"time"

	"github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// log events
const (
	REQUEST_DECODE_FAILED = logging.LogEventID(0xb83d1f6e0ac47259)
	REPLY_FAILED          = logging.LogEventID(0xd6a20e9c47f1b385)
	EXPORT_SUBSCRIBED     = logging.LogEventID(0x91f7c3a0d25e6b48)
	ADMIN_SERVICE_STARTED = logging.LogEventID(0xe4c59b17a3d08f62)
	ADMIN_SERVICE_STOPPED = logging.LogEventID(0xa07e6d42c9b1f35d)
	LISTENER_SERVED       = logging.LogEventID(0xc3b08f5d61e29a74)
)

// reserved methods handled by the export itself
const (
	// ReleaseMethod gives up the caller's reference to the export
	ReleaseMethod = "__release"
	// PingMethod renews the caller's lease
	PingMethod = "__ping"
)

// DefaultRequestTimeout is used when a timeout is not specified
const DefaultRequestTimeout = 5 * time.Second

// Request is the request envelope
type Request struct {
	Method string                 `json:"method"`
	Args   []interface{}          `json:"args,omitempty"`
	Info   manager.AdditionalInfo `json:"info,omitempty"`
}

// Reply is the reply envelope. Error is set if the call failed.
type Reply struct {
	Result jsoniter.RawMessage `json:"result,omitempty"`
	Error  *rpcerr.Wire        `json:"error,omitempty"`
}

// subscribe returns once the NATS server has registered the subscription, so requests sent from other
// connections are routed to it
func subscribe(conn *nats.Conn, subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := conn.Subscribe(subject, handler)
	if err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		sub.Unsubscribe()
		return nil, err
	}
	return sub, nil
}

func managerSubject(prefix, id string) string { return prefix + ".mgr." + id }

// AdminSubject is the subject the admin service is served on
func AdminSubject(prefix string) string { return prefix + ".admin" }

func listenerSubject(prefix, id string) string { return prefix + ".listener." + id }

// respond encodes the reply. Results that cannot be encoded are reported as a ServiceError.
func respond(msg *nats.Msg, result interface{}, err error) {
	if msg.Reply == "" {
		return
	}
	reply := Reply{Error: rpcerr.Encode(err)}
	if err == nil {
		data, encodeErr := json.Marshal(result)
		if encodeErr != nil {
			REPLY_FAILED.Log(logger.Error()).Str(logging.FUNC, msg.Subject).Err(encodeErr).Msg("result encoding failed")
			reply.Error = rpcerr.Encode(&rpcerr.DispatchError{Reason: rpcerr.EncodingFailed})
		} else {
			reply.Result = data
		}
	}
	data, encodeErr := json.Marshal(&reply)
	if encodeErr != nil {
		REPLY_FAILED.Log(logger.Error()).Str(logging.FUNC, msg.Subject).Err(encodeErr).Msg("reply encoding failed")
		return
	}
	if err := msg.Respond(data); err != nil {
		REPLY_FAILED.Log(logger.Warn()).Str(logging.FUNC, msg.Subject).Err(err).Msg("")
	}
}

// decodeRequest decodes the request envelope. Malformed requests are answered with a DispatchError.
func decodeRequest(msg *nats.Msg) (*Request, bool) {
	var req Request
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Method == "" {
		REQUEST_DECODE_FAILED.Log(logger.Warn()).Str(logging.FUNC, msg.Subject).Err(err).Msg("")
		respond(msg, nil, &rpcerr.DispatchError{Method: req.Method, Reason: rpcerr.InvalidArgument})
		return nil, false
	}
	return &req, true
}

// request sends the request and decodes the reply.
// No responders maps to a TransportError that is Gone. Any other NATS failure maps to a TransportError.
func request(conn *nats.Conn, subject string, timeout time.Duration, req *Request) (jsoniter.RawMessage, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	msg, err := conn.Request(subject, data, timeout)
	if err != nil {
		return nil, &rpcerr.TransportError{
			Target:    subject,
			Gone:      errors.Is(err, nats.ErrNoResponders),
			Delivered: errors.Is(err, nats.ErrTimeout),
			Err:       err,
		}
	}
	var reply Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, &rpcerr.TransportError{Target: subject, Delivered: true, Err: err}
	}
	if reply.Error != nil {
		return nil, reply.Error.Decode()
	}
	if len(reply.Result) == 0 || string(reply.Result) == "null" {
		return nil, nil
	}
	return reply.Result, nil
}
