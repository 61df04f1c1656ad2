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

package event

import "github.com/oysterpack/esbadmin/pkg/logging"

// log events
const (
	HUB_STARTED         = logging.LogEventID(0xf1a20c6b38d4e957)
	HUB_STOPPED         = logging.LogEventID(0x9b07e45d2c3f1a86)
	EVENT_DROPPED       = logging.LogEventID(0xc3e8915a0f7b2d64)
	DELIVERY_FAILED     = logging.LogEventID(0xa6d4f2038e91c5b7)
	LISTENER_PRUNED     = logging.LogEventID(0x8e5b3a17d0c69f42)
	WORKER_PANIC        = logging.LogEventID(0xd7f0c8e2914ab365)
	SUBMIT_FAILED       = logging.LogEventID(0xb2c91d7e4f3a0658)
	DISTRIBUTOR_STARTED = logging.LogEventID(0xe4a7b05c93d1f826)
	DISTRIBUTOR_STOPPED = logging.LogEventID(0x93f6d2a8c0e5b174)
)
