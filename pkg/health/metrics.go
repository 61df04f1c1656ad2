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

package health

import (
	"github.com/oysterpack/esbadmin/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsSubsystem = "health"
	checkLabel       = "check"
)

var (
	failuresGaugeOpts = &metrics.GaugeVecOpts{
		GaugeOpts: &prometheus.GaugeOpts{
			Namespace: metrics.METRICS_NAMESPACE,
			Subsystem: metricsSubsystem,
			Name:      "consecutive_failures",
			Help:      "The number of consecutive health check failures. -1 means the check has not yet run",
		},
		Labels: []string{checkLabel},
	}
	runSecondsGaugeOpts = &metrics.GaugeVecOpts{
		GaugeOpts: &prometheus.GaugeOpts{
			Namespace: metrics.METRICS_NAMESPACE,
			Subsystem: metricsSubsystem,
			Name:      "run_seconds",
			Help:      "How long the last health check run took",
		},
		Labels: []string{checkLabel},
	}
)
