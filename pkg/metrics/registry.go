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

package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registration is a registered collector along with the opts it was created from
type registration struct {
	collector  prometheus.Collector
	metricType MetricType
	opts       interface{}
}

var (
	mutex sync.RWMutex

	// Registry is the global registry
	Registry = NewRegistry(true)

	registrations = map[string]*registration{}
)

// NewRegistry creates a new registry.
// If collectProcessMetrics = true, then the prometheus GoCollector and ProcessCollectors are registered.
func NewRegistry(collectProcessMetrics bool) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	if collectProcessMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return registry
}

// ResetRegistry replaces the global Registry and forgets all registrations
func ResetRegistry() {
	mutex.Lock()
	defer mutex.Unlock()
	Registry = NewRegistry(true)
	registrations = map[string]*registration{}
}

// Registered returns true if a metric is registered with the same name
func Registered(name string) bool {
	mutex.RLock()
	defer mutex.RUnlock()
	_, exists := registrations[name]
	return exists
}

// Lookup returns the registered metric by its fully qualified name, or nil
func Lookup(name string) prometheus.Collector {
	mutex.RLock()
	defer mutex.RUnlock()
	if r := registrations[name]; r != nil {
		return r.collector
	}
	return nil
}

// Handler returns the HTTP handler that exposes the global Registry
func Handler() http.Handler {
	mutex.RLock()
	defer mutex.RUnlock()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// getOrMustRegister returns the cached metric when name is already registered with matching opts.
// It panics when the name is registered as a different metric type, or with different opts.
func getOrMustRegister[C prometheus.Collector](metricType MetricType, name string, opts interface{}, match func(registered interface{}) bool, create func() C) C {
	mutex.Lock()
	defer mutex.Unlock()
	if r := registrations[name]; r != nil {
		if r.metricType != metricType {
			logger.Panic().Str(logging.FUNC, "GetOrMustRegister"+metricType.String()).
				Str("name", name).
				Str("registered", r.metricType.String()).
				Err(ErrMetricNameUsedByDifferentMetricType).
				Msg("")
		}
		if !match(r.opts) {
			logger.Panic().Str(logging.FUNC, "GetOrMustRegister"+metricType.String()).
				Str("registered", fmt.Sprintf("%v", r.opts)).
				Str("dup", fmt.Sprintf("%v", opts)).
				Err(ErrMetricAlreadyRegisteredWithDifferentOpts).
				Msg("")
		}
		return r.collector.(C)
	}

	collector := create()
	Registry.MustRegister(collector)
	registrations[name] = &registration{collector, metricType, opts}
	return collector
}

// GetOrMustRegisterCounter first checks if a counter with the same name is already registered.
// If the counter is already registered, and was registered with the same opts, then the cached counter is returned.
// If the counter is already registered, and was registered with the different opts, then a panic is triggered.
// If not such counter exists, then it is registered and cached along with its opts.
func GetOrMustRegisterCounter(opts *prometheus.CounterOpts) prometheus.Counter {
	return getOrMustRegister(COUNTER, CounterFQName(opts), opts,
		func(registered interface{}) bool { return CounterOptsMatch(opts, registered.(*prometheus.CounterOpts)) },
		func() prometheus.Counter { return prometheus.NewCounter(*opts) },
	)
}

// GetOrMustRegisterCounterVec is the CounterVec version of GetOrMustRegisterCounter
func GetOrMustRegisterCounterVec(opts *CounterVecOpts) *prometheus.CounterVec {
	return getOrMustRegister(COUNTERVEC, CounterFQName(opts.CounterOpts), opts,
		func(registered interface{}) bool { return CounterVecOptsMatch(opts, registered.(*CounterVecOpts)) },
		func() *prometheus.CounterVec { return prometheus.NewCounterVec(*opts.CounterOpts, opts.Labels) },
	)
}

// GetOrMustRegisterGauge has the same semantics as GetOrMustRegisterCounter
func GetOrMustRegisterGauge(opts *prometheus.GaugeOpts) prometheus.Gauge {
	return getOrMustRegister(GAUGE, GaugeFQName(opts), opts,
		func(registered interface{}) bool { return GaugeOptsMatch(opts, registered.(*prometheus.GaugeOpts)) },
		func() prometheus.Gauge { return prometheus.NewGauge(*opts) },
	)
}

// GetOrMustRegisterGaugeVec is the GaugeVec version of GetOrMustRegisterGauge
func GetOrMustRegisterGaugeVec(opts *GaugeVecOpts) *prometheus.GaugeVec {
	return getOrMustRegister(GAUGEVEC, GaugeFQName(opts.GaugeOpts), opts,
		func(registered interface{}) bool { return GaugeVecOptsMatch(opts, registered.(*GaugeVecOpts)) },
		func() *prometheus.GaugeVec { return prometheus.NewGaugeVec(*opts.GaugeOpts, opts.Labels) },
	)
}

// GetOrMustRegisterHistogramVec has the same semantics as GetOrMustRegisterCounter. Buckets must match as well.
func GetOrMustRegisterHistogramVec(opts *HistogramVecOpts) *prometheus.HistogramVec {
	name := prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name)
	return getOrMustRegister(HISTOGRAMVEC, name, opts,
		func(registered interface{}) bool { return HistogramVecOptsMatch(opts, registered.(*HistogramVecOpts)) },
		func() *prometheus.HistogramVec { return prometheus.NewHistogramVec(*opts.HistogramOpts, opts.Labels) },
	)
}
