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
	"sort"

	"github.com/oysterpack/esbadmin/pkg/commons"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// FindMetricFamilyByName finds a MetricFamily by name.
// nil is returned if no match is found
func FindMetricFamilyByName(gatheredMetrics []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, m := range gatheredMetrics {
		if m.GetName() == name {
			return m
		}
	}
	return nil
}

// CounterValue collects the current value of a counter. Used by tests and health reports.
func CounterValue(c prometheus.Collector) float64 {
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	metric := &dto.Metric{}
	if err := (<-ch).Write(metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

// GaugeValue collects the current value of a gauge
func GaugeValue(c prometheus.Collector) float64 {
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	metric := &dto.Metric{}
	if err := (<-ch).Write(metric); err != nil {
		return 0
	}
	return metric.GetGauge().GetValue()
}

// CounterFQName returns the fully qualified name for the counter.
func CounterFQName(opts *prometheus.CounterOpts) string {
	o := prometheus.Opts(*opts)
	return MetricFQName(&o)
}

// GaugeFQName returns the fully qualified name for the gauge.
func GaugeFQName(opts *prometheus.GaugeOpts) string {
	o := prometheus.Opts(*opts)
	return MetricFQName(&o)
}

// MetricFQName returns the fully qualified metric name
func MetricFQName(opts *prometheus.Opts) string {
	return prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name)
}

// CounterOptsMatch return true if the 2 opts match
func CounterOptsMatch(opts1, opts2 *prometheus.CounterOpts) bool {
	return CounterFQName(opts1) == CounterFQName(opts2) &&
		opts1.Help == opts2.Help &&
		commons.StringMapsAreEqual(opts1.ConstLabels, opts2.ConstLabels)
}

// CounterVecOptsMatch return true if the 2 opts match
func CounterVecOptsMatch(opts1, opts2 *CounterVecOpts) bool {
	if opts1 == nil || opts2 == nil {
		return opts1 == opts2
	}
	return CounterOptsMatch(opts1.CounterOpts, opts2.CounterOpts) && labelsMatch(opts1.Labels, opts2.Labels)
}

// GaugeOptsMatch return true if the 2 opts match
func GaugeOptsMatch(opts1, opts2 *prometheus.GaugeOpts) bool {
	return GaugeFQName(opts1) == GaugeFQName(opts2) &&
		opts1.Help == opts2.Help &&
		commons.StringMapsAreEqual(opts1.ConstLabels, opts2.ConstLabels)
}

// GaugeVecOptsMatch return true if the 2 opts match
func GaugeVecOptsMatch(opts1, opts2 *GaugeVecOpts) bool {
	if opts1 == nil || opts2 == nil {
		return opts1 == opts2
	}
	return GaugeOptsMatch(opts1.GaugeOpts, opts2.GaugeOpts) && labelsMatch(opts1.Labels, opts2.Labels)
}

// HistogramVecOptsMatch return true if the 2 opts match. Buckets are compared as well.
func HistogramVecOptsMatch(opts1, opts2 *HistogramVecOpts) bool {
	if opts1 == nil || opts2 == nil {
		return opts1 == opts2
	}
	o1, o2 := opts1.HistogramOpts, opts2.HistogramOpts
	if prometheus.BuildFQName(o1.Namespace, o1.Subsystem, o1.Name) != prometheus.BuildFQName(o2.Namespace, o2.Subsystem, o2.Name) ||
		o1.Help != o2.Help ||
		!commons.StringMapsAreEqual(o1.ConstLabels, o2.ConstLabels) ||
		len(o1.Buckets) != len(o2.Buckets) {
		return false
	}
	for i := range o1.Buckets {
		if o1.Buckets[i] != o2.Buckets[i] {
			return false
		}
	}
	return labelsMatch(opts1.Labels, opts2.Labels)
}

func labelsMatch(a, b []string) bool {
	a = append([]string(nil), a...)
	b = append([]string(nil), b...)
	sort.Strings(a)
	sort.Strings(b)
	return commons.StringSlicesAreEqual(a, b)
}
