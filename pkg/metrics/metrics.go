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

// Package metrics wraps a process wide prometheus registry.
//
// Metrics are registered through the GetOrMustRegister functions, which cache each metric along with the opts it was
// registered with. Asking for an already registered metric with the same opts returns the cached metric, which lets
// independent components share a metric without coordinating registration.
package metrics

import (
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// METRICS_NAMESPACE is the namespace applied to all of the admin server metrics
const METRICS_NAMESPACE = "esbadmin"

// MetricType enum
type MetricType int

// MetricType enum values
const (
	UNKNOWN MetricType = iota
	COUNTER
	COUNTERVEC
	GAUGE
	GAUGEVEC
	HISTOGRAMVEC
)

// Value returns the int value
func (a MetricType) Value() int {
	return int(a)
}

func (a MetricType) String() string {
	switch a {
	case COUNTER:
		return "Counter"
	case COUNTERVEC:
		return "CounterVec"
	case GAUGE:
		return "Gauge"
	case GAUGEVEC:
		return "GaugeVec"
	case HISTOGRAMVEC:
		return "HistogramVec"
	default:
		return "UNKNOWN"
	}
}

// CounterVecOpts is used to create a prometheus.CounterVec
type CounterVecOpts struct {
	*prometheus.CounterOpts
	Labels []string
}

// GaugeVecOpts is used to create a prometheus.GaugeVec
type GaugeVecOpts struct {
	*prometheus.GaugeOpts
	Labels []string
}

// HistogramVecOpts is used to create a prometheus.HistogramVec
type HistogramVecOpts struct {
	*prometheus.HistogramOpts
	Labels []string
}

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})
