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

import (
	"sync"

	"github.com/oysterpack/esbadmin/pkg/logging"
)

// Broadcaster implements Source. Events are pushed to every subscribed sink.
type Broadcaster struct {
	mutex sync.RWMutex
	sinks []Sink
}

// Subscribe implements Source
func (b *Broadcaster) Subscribe(sink Sink) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, s := range b.sinks {
		if s == sink {
			return
		}
	}
	b.sinks = append(b.sinks, sink)
}

// Unsubscribe implements Source
func (b *Broadcaster) Unsubscribe(sink Sink) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for i, s := range b.sinks {
		if s == sink {
			b.sinks = append(b.sinks[:i], b.sinks[i+1:]...)
			return
		}
	}
}

// Publish pushes the event to all sinks. It never blocks.
func (b *Broadcaster) Publish(e Event) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	for _, sink := range b.sinks {
		if !sink.Push(e) {
			EVENT_DROPPED.Log(logger.Debug()).Str(logging.CATEGORY, e.Category().String()).Msg("rejected by sink")
		}
	}
}
