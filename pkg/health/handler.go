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
	"net/http"
	"time"

	"github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CheckReport is the JSON view of a check's latest Result
type CheckReport struct {
	Healthy        bool      `json:"healthy"`
	Error          string    `json:"error,omitempty"`
	Time           time.Time `json:"time"`
	DurationMillis int64     `json:"duration_ms"`
}

// Report is the JSON document served by the registry
type Report struct {
	Healthy bool                   `json:"healthy"`
	Checks  map[string]CheckReport `json:"checks"`
}

// Report summarizes the latest results. The registry is healthy only when every check's last run succeeded.
func (r *Registry) Report() Report {
	results := r.Results()
	report := Report{Healthy: true, Checks: make(map[string]CheckReport, len(results))}
	for name, result := range results {
		check := CheckReport{
			Healthy:        result.Healthy(),
			Time:           result.Time,
			DurationMillis: int64(result.Duration / time.Millisecond),
		}
		switch {
		case result.Err != nil:
			check.Error = result.Err.Error()
		case !result.Ran():
			check.Error = "not yet run"
		}
		if !check.Healthy {
			report.Healthy = false
		}
		report.Checks[name] = check
	}
	return report
}

// ServeHTTP writes the Report. The status is 503 when any check is unhealthy.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	report := r.Report()
	body, err := json.Marshal(report)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !report.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	w.Write(body)
}
