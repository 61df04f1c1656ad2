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

// adminserver runs the admin server over NATS.
//
//	./adminserver -config esbadmin.yaml -log-level INFO
//
// The following OS signals trigger a graceful shutdown : SIGINT, SIGTERM
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/oysterpack/esbadmin/pkg/admin"
	"github.com/oysterpack/esbadmin/pkg/commons"
	"github.com/oysterpack/esbadmin/pkg/config"
	"github.com/oysterpack/esbadmin/pkg/configrepo"
	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/export"
	"github.com/oysterpack/esbadmin/pkg/health"
	"github.com/oysterpack/esbadmin/pkg/inmem"
	"github.com/oysterpack/esbadmin/pkg/lifecycle"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/metrics"
	"github.com/oysterpack/esbadmin/pkg/transport/natsrpc"
	"github.com/rs/zerolog/log"
	"gopkg.in/tomb.v2"
)

// log events
const (
	APP_STARTED   = logging.LogEventID(0xd9c2e06b5f481a37)
	APP_STOPPING  = logging.LogEventID(0x8b3f17a4e26d05c9)
	APP_STOPPED   = logging.LogEventID(0xf05a9d3c61b7e284)
	APP_FAILED    = logging.LogEventID(0xa6e81c27d94f3b50)
	NATS_EVENT    = logging.LogEventID(0xc41d6b0f83a2e975)
	METRICS_ERROR = logging.LogEventID(0xe7b2a54c09d1f386)
)

var (
	configFile = flag.String("config", "", "YAML config file. If not specified, then the defaults are used")
	logLevel   = flag.String("log-level", "", "valid log levels [DEBUG,INFO,WARN,ERROR] : overrides the config file")
	embedNats  = flag.Bool("embedded-nats", false, "runs an embedded NATS server, listening on the configured NATS URL")
)

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return nil, err
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	return cfg, cfg.Validate()
}

func initLogging(cfg *config.Config) {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logging.SetLevel(level)
	// redirects go's std log to zerolog
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}

// app holds the running components, which are stopped in reverse order
type app struct {
	tomb.Tomb

	cfg        *config.Config
	natsServer *server.Server
	conn       *nats.Conn
	configs    *configrepo.Repository
	server     *admin.Server
	service    *natsrpc.AdminService
	health     *health.Registry
	metrics    *http.Server
}

func connect(cfg *config.Config) (*nats.Conn, error) {
	return nats.Connect(cfg.Nats.URL,
		nats.Name("esbadmin"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			NATS_EVENT.Log(log.Warn()).Err(err).Msg("disconnected")
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			NATS_EVENT.Log(log.Info()).Str("url", conn.ConnectedUrl()).Msg("reconnected")
		}),
	)
}

// runEmbeddedNats starts a NATS server listening on the host and port of the configured URL
func runEmbeddedNats(cfg *config.Config) (*server.Server, error) {
	u, err := url.Parse(cfg.Nats.URL)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return nil, fmt.Errorf("NATS URL port is required : %q", cfg.Nats.URL)
	}
	s, err := server.NewServer(&server.Options{Host: u.Hostname(), Port: port, ServerName: "esbadmin"})
	if err != nil {
		return nil, err
	}
	go s.Start()
	if !s.ReadyForConnections(10 * time.Second) {
		s.Shutdown()
		return nil, errors.New("embedded NATS server is not ready for connections")
	}
	NATS_EVENT.Log(log.Info()).Str("url", s.ClientURL()).Msg("embedded NATS server started")
	return s, nil
}

func newApp(cfg *config.Config) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.shutdown()
		}
	}()

	if *embedNats {
		if a.natsServer, err = runEmbeddedNats(cfg); err != nil {
			return
		}
	}
	if a.conn, err = connect(cfg); err != nil {
		return
	}
	if a.configs, err = configrepo.Open(cfg.ConfigRepository.Path); err != nil {
		return
	}
	users, err := inmem.NewUsers(cfg.Users)
	if err != nil {
		return
	}
	debugger := inmem.NewDebugger()
	users.OnRelease(debugger.ReleaseSession)
	applications := inmem.NewApplicationController()
	microservices := inmem.NewMicroserviceRepository()

	leases := export.NewLeaseTable(cfg.Sessions.LeaseDuration, cfg.Sessions.SweepInterval)
	a.server, err = admin.NewServer(admin.Settings{
		Authenticator: users,
		Managers: &manager.Collaborators{
			Applications:     applications,
			Microservices:    microservices,
			Debugger:         debugger,
			Configurations:   a.configs,
			Schemas:          inmem.NewSchemaRepository(),
			ServiceProviders: inmem.ServiceProviders(cfg.ServiceProviders),
			Security:         users,
		},
		Exporter: natsrpc.NewExporter(a.conn, cfg.Nats.SubjectPrefix, leases),
		Events:   event.NewDistributor(cfg.EventSettings(), applications, microservices, a.configs),
		Leases:   leases,
	})
	if err != nil {
		return
	}
	if err = a.server.Start(); err != nil {
		return
	}
	a.service = natsrpc.NewAdminService(a.conn, cfg.Nats.SubjectPrefix, cfg.Nats.RequestTimeout, a.server)
	if err = a.service.Start(); err != nil {
		return
	}
	a.health = health.NewRegistry()
	if err = a.registerHealthChecks(); err != nil {
		return
	}
	a.health.Start()
	if cfg.Metrics.Addr != "-" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", a.health)
		a.metrics = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		a.Go(func() error {
			if err := a.metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				METRICS_ERROR.Log(log.Error()).Err(err).Msg("metrics endpoint failed")
				return err
			}
			return nil
		})
	}
	return a, nil
}

func running(name string, state func() lifecycle.State) health.Check {
	return health.CheckFunc(func() error {
		if s := state(); !s.Running() {
			return fmt.Errorf("%s is %v", name, s)
		}
		return nil
	})
}

func (a *app) registerHealthChecks() error {
	spec := func(name string) health.Spec {
		return health.Spec{Name: name, RunInterval: a.cfg.Health.RunInterval, Timeout: a.cfg.Health.Timeout}
	}
	checks := map[string]health.Check{
		"nats": health.CheckFunc(func() error {
			if status := a.conn.Status(); status != nats.CONNECTED {
				return fmt.Errorf("NATS connection is %v", status)
			}
			return nil
		}),
		"config_repository": health.CheckFunc(a.configs.Ping),
		"admin_server":      running("admin server", a.server.State),
		"admin_service":     running("admin service", a.service.State),
		"event_distributor": running("event distributor", a.server.Events().State),
	}
	for name, check := range checks {
		if err := a.health.Register(spec(name), check); err != nil {
			return err
		}
	}
	return nil
}

// run blocks until a signal is received, or a component fails
func (a *app) run() error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	a.Go(func() error {
		select {
		case sig := <-sigs:
			APP_STOPPING.Log(log.Info()).Str("signal", sig.String()).Msg("stopping")
		case <-a.Dying():
		}
		a.shutdown()
		return nil
	})
	return a.Wait()
}

func (a *app) shutdown() {
	if a.health != nil {
		a.health.Stop()
	}
	if a.service != nil {
		a.service.Stop()
	}
	if a.server != nil {
		a.server.Stop()
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.metrics.Shutdown(ctx)
		cancel()
	}
	if a.configs != nil {
		commons.CloseAll(a.configs)
	}
	if a.conn != nil {
		a.conn.Drain()
	}
	if a.natsServer != nil {
		a.natsServer.Shutdown()
	}
}

func main() {
	flag.Parse()
	cfg, err := loadConfig()
	if err != nil {
		APP_FAILED.Log(log.Fatal()).Err(err).Msg("invalid config")
	}
	initLogging(cfg)

	a, err := newApp(cfg)
	if err != nil {
		APP_FAILED.Log(log.Fatal()).Err(err).Msg("failed to start")
	}
	APP_STARTED.Log(log.Info()).
		Str("nats", cfg.Nats.URL).
		Str("subject", natsrpc.AdminSubject(cfg.Nats.SubjectPrefix)).
		Str("metrics", cfg.Metrics.Addr).
		Msg("started")
	if err := a.run(); err != nil {
		APP_FAILED.Log(log.Error()).Err(err).Msg("")
		os.Exit(1)
	}
	APP_STOPPED.Log(log.Info()).Msg("stopped")
}
