package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"axisim/internal/api"
	"axisim/internal/config"
	"axisim/internal/engine"
	"axisim/internal/event"
	"axisim/internal/logging"
	"axisim/internal/metrics"
	"axisim/internal/orchestrator"
	"axisim/internal/otel"
	"axisim/internal/version"
)

const (
	httpReadHeaderTimeout = 5 * time.Second
	httpShutdownTimeout   = 10 * time.Second
	eventHistorySize      = 100
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := config.ResolveConfigPath()
	settings, configErr := config.LoadSettings(configPath)

	logBuffer := logging.NewLogBuffer(logging.DefaultBufferSize)
	logger := logging.NewLogger(logBuffer, settings.Level())
	if configErr != nil {
		logger.Error("config load failed", map[string]string{
			"path":  configPath,
			"error": configErr.Error(),
		})
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := otel.SetupSDK(ctx, otel.SDKOptionsFromEnv())
	if err != nil {
		logger.Warn("otel setup failed", map[string]string{
			"error": err.Error(),
		})
	}
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	registry := metrics.Default
	sessionBus := event.NewBus[event.SessionEvent](ctx, event.BusOptions{
		Name:        "sessions",
		HistorySize: eventHistorySize,
		Registry:    registry,
	})
	stageBus := event.NewBus[event.StageEvent](ctx, event.BusOptions{
		Name:        "stages",
		HistorySize: eventHistorySize,
		Registry:    registry,
	})
	configBus := event.NewBus[event.ConfigEvent](ctx, event.BusOptions{
		Name:     "config",
		Registry: registry,
	})

	orch := orchestrator.New(orchestrator.Options{
		Engines: orchestrator.Engines{
			Analyzer:  &engine.Analyzer{Depth: settings.Simulation.AnalysisDepth},
			Simulator: &engine.Runner{},
		},
		Logger:     logger,
		Metrics:    registry,
		SessionBus: sessionBus,
		StageBus:   stageBus,
		Tunables:   settings.Tunables(),
	})

	watcher, err := config.WatchSettings(configPath, logger, configBus, func(reloaded config.Settings) {
		orch.SetTunables(reloaded.Tunables())
	})
	if err != nil {
		logger.Warn("config watcher unavailable", map[string]string{
			"path":  configPath,
			"error": err.Error(),
		})
	}
	if watcher != nil {
		defer watcher.Close()
	}

	go orch.RunReaper(ctx)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, api.RouteConfig{
		Orchestrator: orch,
		AuthToken:    settings.Server.Token,
		Logger:       logger,
		Metrics:      registry,
		SessionBus:   sessionBus,
		StageBus:     stageBus,
		ConfigBus:    configBus,
	})

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(settings.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: httpReadHeaderTimeout,
	}

	logger.Info("axisim listening", map[string]string{
		"addr":    server.Addr,
		"version": version.Version,
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", map[string]string{
				"error": err.Error(),
			})
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown failed", map[string]string{
				"error": err.Error(),
			})
		}
	}

	sessionBus.Close()
	stageBus.Close()
	configBus.Close()
	return 0
}
