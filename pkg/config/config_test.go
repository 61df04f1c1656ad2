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

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oysterpack/esbadmin/pkg/config"
	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/health"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "WARN" {
		t.Errorf("unexpected log level : %s", cfg.LogLevel)
	}
	if cfg.Events.PlatformQueueCapacity != event.DefaultQueueCapacity || cfg.Events.WorkerCoreSize != event.DefaultWorkerCoreSize {
		t.Errorf("unexpected event defaults : %v", cfg.Events)
	}
	if cfg.Events.PollTimeout != 0 {
		t.Errorf("poll timeout should default to indefinite : %v", cfg.Events.PollTimeout)
	}
	if cfg.Sessions.LeaseDuration != export.DefaultLeaseDuration {
		t.Errorf("unexpected lease duration : %v", cfg.Sessions.LeaseDuration)
	}
	if cfg.Health.RunInterval != health.DefaultRunInterval || cfg.Health.Timeout != health.DefaultTimeout {
		t.Errorf("unexpected health defaults : %v", cfg.Health)
	}
	if len(cfg.Users) != 1 {
		t.Errorf("a default admin user should be seeded : %v", cfg.Users)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "esbadmin.yaml")
	data := []byte(`
log_level: debug
nats:
  url: nats://nats:4222
  request_timeout: 2s
health:
  run_interval: 1m
events:
  platform_queue_capacity: -1
  configuration_queue_capacity: 16
  poll_timeout: 250ms
  worker_keep_alive: 1m
users:
  ops: changeit
service_providers:
  - name: jms
    type: JMS
    status: RUNNING
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Nats.URL != "nats://nats:4222" || cfg.Nats.RequestTimeout != 2*time.Second {
		t.Errorf("unexpected nats config : %v", cfg.Nats)
	}
	if cfg.Nats.SubjectPrefix != config.DefaultSubjectPrefix {
		t.Errorf("subject prefix should have been defaulted : %q", cfg.Nats.SubjectPrefix)
	}
	if cfg.Health.RunInterval != time.Minute || cfg.Health.Timeout != health.DefaultTimeout {
		t.Errorf("unexpected health config : %v", cfg.Health)
	}
	settings := cfg.EventSettings()
	if settings.PlatformQueueCapacity != event.Unbounded || settings.ConfigurationQueueCapacity != 16 {
		t.Errorf("unexpected capacities : %v", settings)
	}
	if settings.PollTimeout != 250*time.Millisecond || settings.WorkerKeepAlive != time.Minute {
		t.Errorf("unexpected durations : %v", settings)
	}
	if cfg.Users["ops"] != "changeit" || len(cfg.Users) != 1 {
		t.Errorf("unexpected users : %v", cfg.Users)
	}
	if len(cfg.ServiceProviders) != 1 || cfg.ServiceProviders[0].Status != "RUNNING" {
		t.Errorf("unexpected service providers : %v", cfg.ServiceProviders)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "unknown: true"},
		{"log level", "log_level: TRACE"},
		{"capacity", "events:\n  platform_queue_capacity: -2"},
		{"lease", "sessions:\n  lease_duration: -1s"},
		{"health timeout", "health:\n  timeout: -1s"},
	}
	for _, test := range tests {
		if _, err := config.Parse([]byte(test.yaml)); err == nil {
			t.Errorf("%s : expected an error", test.name)
		} else {
			t.Logf("%s : %v", test.name, err)
		}
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := config.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Nats.URL != config.DefaultNatsURL {
		t.Errorf("defaults should have been applied : %v", cfg.Nats)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error")
	}
}
