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

// Package config loads the admin server configuration from a YAML file. Unset fields take their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/health"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"gopkg.in/yaml.v3"
)

// defaults
const (
	DefaultNatsURL           = "nats://127.0.0.1:4222"
	DefaultSubjectPrefix     = "esbadmin"
	DefaultRequestTimeout    = 5 * time.Second
	DefaultMetricsAddr       = ":9090"
	DefaultConfigRepoPath    = "esbadmin.db"
	DefaultLogLevel          = "WARN"
	DefaultAdminUser         = "admin"
	DefaultAdminUserPassword = "admin"
)

// Config is the complete server configuration
type Config struct {
	LogLevel         string                        `yaml:"log_level"`
	Nats             NatsConfig                    `yaml:"nats"`
	Metrics          MetricsConfig                 `yaml:"metrics"`
	Health           HealthConfig                  `yaml:"health"`
	Sessions         SessionsConfig                `yaml:"sessions"`
	Events           EventsConfig                  `yaml:"events"`
	ConfigRepository ConfigRepositoryConfig        `yaml:"config_repository"`
	Users            map[string]string             `yaml:"users,omitempty"`
	ServiceProviders []manager.ServiceProviderInfo `yaml:"service_providers,omitempty"`
}

type NatsConfig struct {
	URL            string        `yaml:"url"`
	SubjectPrefix  string        `yaml:"subject_prefix"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type MetricsConfig struct {
	// Addr is the HTTP listen address for /metrics and /health. "-" disables the endpoint.
	Addr string `yaml:"addr"`
}

type HealthConfig struct {
	RunInterval time.Duration `yaml:"run_interval"`
	Timeout     time.Duration `yaml:"timeout"`
}

type SessionsConfig struct {
	LeaseDuration time.Duration `yaml:"lease_duration"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type EventsConfig struct {
	// queue capacities : 0 means the default, -1 means unbounded
	PlatformQueueCapacity      int `yaml:"platform_queue_capacity"`
	ConfigurationQueueCapacity int `yaml:"configuration_queue_capacity"`
	// PollTimeout of 0 means the hub readers block until an event arrives
	PollTimeout     time.Duration `yaml:"poll_timeout"`
	WorkerCoreSize  int           `yaml:"worker_core_size"`
	WorkerKeepAlive time.Duration `yaml:"worker_keep_alive"`
}

type ConfigRepositoryConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is specified
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads the configuration from a YAML file. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes the YAML configuration, applies defaults, and validates it
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	// an empty document decodes to io.EOF
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Nats.URL == "" {
		c.Nats.URL = DefaultNatsURL
	}
	if c.Nats.SubjectPrefix == "" {
		c.Nats.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.Nats.RequestTimeout == 0 {
		c.Nats.RequestTimeout = DefaultRequestTimeout
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Health.RunInterval == 0 {
		c.Health.RunInterval = health.DefaultRunInterval
	}
	if c.Health.Timeout == 0 {
		c.Health.Timeout = health.DefaultTimeout
	}
	if c.Sessions.LeaseDuration == 0 {
		c.Sessions.LeaseDuration = export.DefaultLeaseDuration
	}
	if c.Sessions.SweepInterval == 0 {
		c.Sessions.SweepInterval = export.DefaultSweepInterval
	}
	if c.Events.PlatformQueueCapacity == 0 {
		c.Events.PlatformQueueCapacity = event.DefaultQueueCapacity
	}
	if c.Events.ConfigurationQueueCapacity == 0 {
		c.Events.ConfigurationQueueCapacity = event.DefaultQueueCapacity
	}
	if c.Events.WorkerCoreSize == 0 {
		c.Events.WorkerCoreSize = event.DefaultWorkerCoreSize
	}
	if c.Events.WorkerKeepAlive == 0 {
		c.Events.WorkerKeepAlive = event.DefaultWorkerKeepAlive
	}
	if c.ConfigRepository.Path == "" {
		c.ConfigRepository.Path = DefaultConfigRepoPath
	}
	if len(c.Users) == 0 {
		c.Users = map[string]string{DefaultAdminUser: DefaultAdminUserPassword}
	}
}

// InvalidConfigError reports the offending field
type InvalidConfigError struct {
	Field   string
	Message string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config : %s : %s", e.Field, e.Message)
}

// Validate checks the field values
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &InvalidConfigError{"log_level", err.Error()}
	}
	if c.Nats.RequestTimeout < 0 {
		return &InvalidConfigError{"nats.request_timeout", "must not be negative"}
	}
	if c.Health.RunInterval < 0 {
		return &InvalidConfigError{"health.run_interval", "must not be negative"}
	}
	if c.Health.Timeout < 0 {
		return &InvalidConfigError{"health.timeout", "must not be negative"}
	}
	if c.Sessions.LeaseDuration < 0 {
		return &InvalidConfigError{"sessions.lease_duration", "must not be negative"}
	}
	if c.Sessions.SweepInterval < 0 {
		return &InvalidConfigError{"sessions.sweep_interval", "must not be negative"}
	}
	if c.Events.PlatformQueueCapacity < event.Unbounded {
		return &InvalidConfigError{"events.platform_queue_capacity", "must be -1 (unbounded) or positive"}
	}
	if c.Events.ConfigurationQueueCapacity < event.Unbounded {
		return &InvalidConfigError{"events.configuration_queue_capacity", "must be -1 (unbounded) or positive"}
	}
	if c.Events.PollTimeout < 0 {
		return &InvalidConfigError{"events.poll_timeout", "must not be negative"}
	}
	if c.Events.WorkerCoreSize < 0 {
		return &InvalidConfigError{"events.worker_core_size", "must not be negative"}
	}
	if c.Events.WorkerKeepAlive < 0 {
		return &InvalidConfigError{"events.worker_keep_alive", "must not be negative"}
	}
	for name := range c.Users {
		if name == "" {
			return &InvalidConfigError{"users", "user name is blank"}
		}
	}
	return nil
}

// EventSettings maps the events section to the distributor settings
func (c *Config) EventSettings() event.Settings {
	return event.Settings{
		PlatformQueueCapacity:      c.Events.PlatformQueueCapacity,
		ConfigurationQueueCapacity: c.Events.ConfigurationQueueCapacity,
		PollTimeout:                c.Events.PollTimeout,
		WorkerCoreSize:             c.Events.WorkerCoreSize,
		WorkerKeepAlive:            c.Events.WorkerKeepAlive,
	}
}
