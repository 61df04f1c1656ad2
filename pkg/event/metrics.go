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
	"github.com/oysterpack/esbadmin/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "event"

var (
	pushedCounterOpts = &metrics.CounterVecOpts{
		CounterOpts: &prometheus.CounterOpts{
			Namespace: metrics.METRICS_NAMESPACE,
			Subsystem: metricsSubsystem,
			Name:      "pushed_total",
			Help:      "The number of events accepted by the queue",
		},
		Labels: []string{"queue"},
	}
	droppedCounterOpts = &metrics.CounterVecOpts{
		CounterOpts: &prometheus.CounterOpts{
			Namespace: metrics.METRICS_NAMESPACE,
			Subsystem: metricsSubsystem,
			Name:      "dropped_total",
			Help:      "The number of events dropped because the queue was full",
		},
		Labels: []string{"queue"},
	}
	queueDepthGaugeOpts = &metrics.GaugeVecOpts{
		GaugeOpts: &prometheus.GaugeOpts{
			Namespace: metrics.METRICS_NAMESPACE,
			Subsystem: metricsSubsystem,
			Name:      "queue_depth",
			Help:      "The number of events waiting in the queue",
		},
		Labels: []string{"queue"},
	}
	deliveriesCounterOpts = &metrics.CounterVecOpts{
		CounterOpts: &prometheus.CounterOpts{
			Namespace: metrics.METRICS_NAMESPACE,
			Subsystem: metricsSubsystem,
			Name:      "deliveries_total",
			Help:      "The number of listener callbacks attempted",
		},
		Labels: []string{"category"},
	}
	deliveryFailuresCounterOpts = &metrics.CounterVecOpts{
		CounterOpts: &prometheus.CounterOpts{
			Namespace: metrics.METRICS_NAMESPACE,
			Subsystem: metricsSubsystem,
			Name:      "delivery_failures_total",
			Help:      "The number of listener callbacks that failed",
		},
		Labels: []string{"category"},
	}
	workersGaugeOpts = &prometheus.GaugeOpts{
		Namespace: metrics.METRICS_NAMESPACE,
		Subsystem: metricsSubsystem,
		Name:      "workers",
		Help:      "The number of live delivery workers",
	}
)
