package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/multidomain/config"
	"github.com/angeloszaimis/multidomain/internal/backend"
	"github.com/angeloszaimis/multidomain/internal/circuitbreaker"
	"github.com/angeloszaimis/multidomain/internal/dispatcher"
	"github.com/angeloszaimis/multidomain/internal/handler"
	"github.com/angeloszaimis/multidomain/internal/healthcheck"
	"github.com/angeloszaimis/multidomain/internal/httpserver"
	"github.com/angeloszaimis/multidomain/internal/metrics"
	"github.com/angeloszaimis/multidomain/pkg/logger"
)

const metricsBufferSize = 1000

func main() {
	if err := run(); err != nil {
		slog.Error("multidomain stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logOut := logger.Writer(logger.FileOptions{
		Filename:   cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer logOut.Close()

	log := logger.NewWithWriter(logOut, cfg.Logging.Level, true, cfg.Server.Environment)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	exporter := metrics.NewPrometheus()
	collector := metrics.NewCollector(metricsBufferSize, log, exporter)
	collector.Start(ctx)

	breakers := circuitbreaker.NewRegistry(cfg.CircuitBreaker.Threshold, cfg.CircuitBreakerTimeout())

	st := newState(log, collector, breakers)
	if err := st.apply(ctx, cfg); err != nil {
		return fmt.Errorf("build routes: %w", err)
	}
	defer st.stop()

	srv, err := httpserver.New(cfg.Server.Address, st.table, httpserver.WithTimeouts(cfg.ServerTimeouts()))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	servers := []*httpserver.Server{srv}

	if cfg.Admin.Enabled {
		admin, err := httpserver.New(cfg.Admin.Address, setupAdminRouter(st.table, collector, exporter, breakers))
		if err != nil {
			return fmt.Errorf("create admin server: %w", err)
		}
		servers = append(servers, admin)
	}

	go st.watchHangups(ctx)

	if cfg.Reload.Watch {
		if err := config.Watch(func() { st.reload(ctx, "file") }); err != nil {
			log.Warn("Config file watch disabled", slog.Any("err", err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			log.Info("Listening", slog.String("addr", s.Addr()))
			return s.Start()
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")

		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(context.Background()); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// buildDispatcher registers one route per configured domain, in file order,
// each forwarding to its backend from pool.
func buildDispatcher(cfg *config.Config, log *slog.Logger, collector *metrics.Collector, pool *backend.Pool) (*dispatcher.Dispatcher, error) {
	routes := make([]dispatcher.RouteConfig, 0, len(cfg.Routes))

	for _, rc := range cfg.Routes {
		b, err := pool.Get(rc.Backend)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", rc.Domain, err)
		}

		routes = append(routes, dispatcher.RouteConfig{
			Domain:  rc.Domain,
			Handler: handler.NewRouteHandler(log, rc.Domain, b, collector),
		})
	}

	return dispatcher.New(routes,
		dispatcher.WithNotFound(handler.NewNotFoundHandler(log, collector)),
		dispatcher.WithLogger(log),
	)
}

func startHealthChecks(ctx context.Context, backends []*backend.Backend, opts healthcheck.Options, log *slog.Logger, collector *metrics.Collector) {
	for _, b := range backends {
		name := b.URL().String()
		collector.Emit(metrics.MetricEvent{Type: metrics.EventHealthChanged, Backend: name, Healthy: b.IsHealthy()})

		go healthcheck.HealthCheck(ctx, b, opts, log, func(healthy bool) {
			collector.Emit(metrics.MetricEvent{
				Type:    metrics.EventHealthChanged,
				Backend: name,
				Healthy: healthy,
			})
		})
	}
}

func healthOptions(cfg *config.Config) healthcheck.Options {
	return healthcheck.Options{
		Interval: cfg.HealthCheckInterval(),
		Path:     cfg.HealthCheck.Path,
		Timeout:  cfg.HealthCheckTimeout(),
	}
}
