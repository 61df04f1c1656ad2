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
	"sort"
	"sync"
	"time"

	"github.com/oysterpack/esbadmin/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/tomb.v2"
)

type registeredCheck struct {
	Spec
	check Check

	// serializes scheduled and on demand runs
	mutex    sync.Mutex
	result   Result
	failures int
}

// Registry holds the registered checks. Checks are registered before Start, which schedules each check to run
// immediately and then on its RunInterval. Checks can also be run on demand at any time.
type Registry struct {
	mutex  sync.RWMutex
	checks map[string]*registeredCheck
	tomb   *tomb.Tomb

	failures   *prometheus.GaugeVec
	runSeconds *prometheus.GaugeVec
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		checks:     make(map[string]*registeredCheck),
		failures:   metrics.GetOrMustRegisterGaugeVec(failuresGaugeOpts),
		runSeconds: metrics.GetOrMustRegisterGaugeVec(runSecondsGaugeOpts),
	}
}

// Register adds the check. Zero RunInterval and Timeout are replaced by the defaults.
//
// errors
//   - ErrAlreadyRegistered
//   - ErrRegistryStarted
func (r *Registry) Register(spec Spec, check Check) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.tomb != nil {
		return ErrRegistryStarted
	}
	if _, exists := r.checks[spec.Name]; exists {
		return ErrAlreadyRegistered
	}
	spec = spec.withDefaults()
	r.checks[spec.Name] = &registeredCheck{Spec: spec, check: check}
	r.failures.WithLabelValues(spec.Name).Set(-1)
	CHECK_REGISTERED.Log(logger.Info()).
		Str(checkLabel, spec.Name).
		Dur("interval", spec.RunInterval).
		Dur("timeout", spec.Timeout).
		Msg("registered")
	return nil
}

// Names returns the registered check names, sorted
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) *registeredCheck {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.checks[name]
}

// Run runs the check on demand and returns its result.
//
// errors
//   - ErrNotRegistered
func (r *Registry) Run(name string) (Result, error) {
	c := r.lookup(name)
	if c == nil {
		return Result{}, ErrNotRegistered
	}
	return r.run(c), nil
}

func (r *Registry) run(c *registeredCheck) Result {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	result := run(c.check, c.Timeout)
	wasFailing := c.failures > 0
	if result.Err != nil {
		c.failures++
		CHECK_FAILED.Log(logger.Warn()).
			Str(checkLabel, c.Name).
			Int("failures", c.failures).
			Dur("duration", result.Duration).
			Err(result.Err).
			Msg("health check failed")
	} else {
		c.failures = 0
		if wasFailing {
			CHECK_RECOVERED.Log(logger.Info()).Str(checkLabel, c.Name).Msg("health check recovered")
		}
	}
	c.result = result
	r.failures.WithLabelValues(c.Name).Set(float64(c.failures))
	r.runSeconds.WithLabelValues(c.Name).Set(result.Duration.Seconds())
	return result
}

// Result returns the result of the check's last run. If the check has not yet run, then the zero Result is returned.
//
// errors
//   - ErrNotRegistered
func (r *Registry) Result(name string) (Result, error) {
	c := r.lookup(name)
	if c == nil {
		return Result{}, ErrNotRegistered
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.result, nil
}

// Results returns a snapshot of the latest results
func (r *Registry) Results() map[string]Result {
	r.mutex.RLock()
	checks := make([]*registeredCheck, 0, len(r.checks))
	for _, c := range r.checks {
		checks = append(checks, c)
	}
	r.mutex.RUnlock()

	results := make(map[string]Result, len(checks))
	for _, c := range checks {
		c.mutex.Lock()
		results[c.Name] = c.result
		c.mutex.Unlock()
	}
	return results
}

// Start schedules the registered checks. Calling Start more than once has no effect.
func (r *Registry) Start() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.tomb != nil {
		return
	}
	r.tomb = &tomb.Tomb{}
	// keeps the tomb alive when no checks are registered
	r.tomb.Go(func() error {
		<-r.tomb.Dying()
		return nil
	})
	for _, c := range r.checks {
		c := c
		r.tomb.Go(func() error {
			r.schedule(c)
			return nil
		})
	}
	REGISTRY_STARTED.Log(logger.Info()).Int("count", len(r.checks)).Msg("started")
}

func (r *Registry) schedule(c *registeredCheck) {
	r.run(c)
	ticker := time.NewTicker(c.RunInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.run(c)
		case <-r.tomb.Dying():
			return
		}
	}
}

// Stop stops the scheduled runs, and waits for any in flight scheduled run to complete
func (r *Registry) Stop() {
	r.mutex.RLock()
	t := r.tomb
	r.mutex.RUnlock()
	if t == nil {
		return
	}
	t.Kill(nil)
	t.Wait()
	REGISTRY_STOPPED.Log(logger.Info()).Msg("stopped")
}
