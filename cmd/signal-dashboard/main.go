/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/signalradar/pkg/config"
	"github.com/carverauto/signalradar/pkg/dashboard"
	"github.com/carverauto/signalradar/pkg/ingest"
	"github.com/carverauto/signalradar/pkg/lifecycle"
	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
	"github.com/carverauto/signalradar/pkg/natsutil"
	"github.com/carverauto/signalradar/pkg/poller"
	"github.com/carverauto/signalradar/pkg/tui"
)

const (
	serviceName    = "signal-dashboard"
	defaultLogFile = "signal-dashboard.log"
	shutdownGrace  = 5 * time.Second
)

//nolint:gochecknoglobals // set via -ldflags at build time
var version = "dev"

var errFailedToLoadConfig = errors.New("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to dashboard config file (defaults are used when empty)")
	mode := flag.String("mode", "", "Operating mode override: live or simulated")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, *configPath, *mode)
	if err != nil {
		return err
	}

	logConfig := terminalSafeLogConfig(cfg.Logging)

	mainLogger, err := lifecycle.CreateComponentLogger(ctx, serviceName, logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			log.Printf("Failed to shutdown logger: %v", err)
		}
	}()

	shutdownTelemetry := setupTelemetry(ctx, cfg, mainLogger)
	defer shutdownTelemetry()

	sink, forwarder, closeNATS, err := setupForwarding(ctx, cfg, mainLogger)
	if err != nil {
		return err
	}
	defer closeNATS()

	store := dashboard.NewStore(cfg, nil, sink, lifecycle.Derive(mainLogger, "store"))

	factory := func(m models.OperatingMode) ingest.Source {
		if m == models.ModeSimulated {
			return ingest.NewSimulator(time.Duration(cfg.SimulationInterval), nil,
				uint64(time.Now().UnixNano()), lifecycle.Derive(mainLogger, "simulator"))
		}

		return ingest.NewWebSocketSource(cfg.StreamURL, time.Duration(cfg.HandshakeTimeout),
			lifecycle.Derive(mainLogger, "websocket"))
	}

	supervisor := ingest.NewSupervisor(store, factory, cfg.Mode, lifecycle.Derive(mainLogger, "supervisor"))

	var reconnector tui.Reconnector
	if cfg.ReconnectURL != "" {
		reconnector = poller.NewReconnector(cfg.ReconnectURL, nil, lifecycle.Derive(mainLogger, "reconnect"))
	}

	g, gctx := errgroup.WithContext(ctx)

	model := tui.New(gctx, store, supervisor, reconnector)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))

	statusPoller := poller.NewStatusPoller(cfg.StatusURL, time.Duration(cfg.StatusInterval), nil, nil,
		func(r models.StatusReport) { program.Send(tui.StatusMsg(r)) },
		lifecycle.Derive(mainLogger, "status"))

	g.Go(func() error { return ignoreCanceled(store.Run(gctx)) })
	g.Go(func() error { return supervisor.Run(gctx) })

	if forwarder != nil {
		g.Go(func() error { return ignoreCanceled(forwarder.Run(gctx)) })
	}

	if cfg.StatusURL != "" {
		g.Go(func() error { return ignoreCanceled(statusPoller.Run(gctx)) })
	}

	mainLogger.Info().Str("version", version).Str("mode", string(cfg.Mode)).Str("stream", cfg.StreamURL).
		Msg("Starting signal dashboard")

	g.Go(func() error {
		_, err := program.Run()
		stop()

		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}

		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	mainLogger.Info().Msg("Signal dashboard stopped")

	return nil
}

func loadConfig(ctx context.Context, path, modeOverride string) (*models.DashboardConfig, error) {
	cfg := models.DefaultDashboardConfig()

	if path != "" || os.Getenv("CONFIG_SOURCE") == "env" {
		if err := config.NewConfig(nil).LoadAndValidate(ctx, path, cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
		}
	}

	if modeOverride != "" {
		m, err := models.ParseOperatingMode(modeOverride)
		if err != nil {
			return nil, err
		}

		cfg.Mode = m
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	return cfg, nil
}

// terminalSafeLogConfig keeps log lines off stdout while the TUI owns the terminal.
func terminalSafeLogConfig(cfg *logger.Config) *logger.Config {
	out := logger.DefaultConfig()
	if cfg != nil {
		c := *cfg
		out = &c
	}

	if out.Output == "" || out.Output == "stdout" || out.Output == "stderr" {
		out.Output = defaultLogFile
	}

	return out
}

func setupTelemetry(ctx context.Context, cfg *models.DashboardConfig, log logger.Logger) func() {
	tp, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		OTel:           cfg.Telemetry,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Tracing disabled")
	}

	mp, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		OTel:           cfg.Telemetry,
	})
	if err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		log.Warn().Err(err).Msg("Metrics export disabled")
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if tp != nil {
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Failed to shutdown tracer provider")
			}
		}

		if mp != nil {
			if err := mp.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Failed to shutdown meter provider")
			}
		}
	}
}

// setupForwarding connects to JetStream when NATS is configured. The returned
// sink is nil when forwarding is off.
func setupForwarding(
	ctx context.Context, cfg *models.DashboardConfig, log logger.Logger,
) (dashboard.EventSink, *natsutil.Forwarder, func(), error) {
	if !cfg.NATS.Enabled() {
		return nil, nil, func() {}, nil
	}

	natsLogger := lifecycle.Derive(log, "nats")

	publisher, nc, err := natsutil.ConnectWithEventPublisher(ctx, cfg.NATS, natsLogger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}

	forwarder := natsutil.NewForwarder(publisher, cfg.NATS.QueueSize, natsLogger)

	closeFn := func() {
		if err := nc.Drain(); err != nil {
			natsLogger.Warn().Err(err).Msg("Failed to drain NATS connection")
		}

		natsLogger.Info().Uint64("dropped", forwarder.Dropped()).Uint64("failed", forwarder.Failed()).
			Msg("Event forwarding stopped")
	}

	return forwarder, forwarder, closeFn, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
