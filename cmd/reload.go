package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/angeloszaimis/multidomain/config"
	"github.com/angeloszaimis/multidomain/internal/backend"
	"github.com/angeloszaimis/multidomain/internal/circuitbreaker"
	"github.com/angeloszaimis/multidomain/internal/dispatcher"
	"github.com/angeloszaimis/multidomain/internal/metrics"
)

// state owns the live routing table and the health checkers of the backends
// it routes to. Reloads build a complete replacement before swapping it in.
type state struct {
	log        *slog.Logger
	collector  *metrics.Collector
	breakers   *circuitbreaker.Registry
	table      *dispatcher.Table
	load       func() (*config.Config, error)
	mutex      sync.Mutex
	pool       *backend.Pool
	stopChecks context.CancelFunc
}

func newState(log *slog.Logger, collector *metrics.Collector, breakers *circuitbreaker.Registry) *state {
	return &state{
		log:       log,
		collector: collector,
		breakers:  breakers,
		table:     dispatcher.NewTable(nil),
		load:      config.Load,
	}
}

// apply builds routes from cfg and installs them. On error the table being
// served is left untouched.
func (s *state) apply(ctx context.Context, cfg *config.Config) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	pool := backend.NewPool(s.breakers, s.log)
	d, err := buildDispatcher(cfg, s.log, s.collector, pool)
	if err != nil {
		return err
	}
	pool.InheritHealth(s.pool)

	checksCtx, cancel := context.WithCancel(ctx)
	startHealthChecks(checksCtx, pool.Backends(), healthOptions(cfg), s.log, s.collector)

	s.table.Swap(d)

	if s.stopChecks != nil {
		s.stopChecks()
	}
	s.stopChecks = cancel
	s.pool = pool

	if removed := s.breakers.Prune(pool.URLs()); removed > 0 {
		s.log.Info("Dropped circuit breakers of removed backends", slog.Int("count", removed))
	}

	s.log.Info("Routes installed",
		slog.Any("domains", cfg.DomainPatterns()),
		slog.Int("backends", len(pool.URLs())))

	return nil
}

// reload reads the configuration again and applies it, keeping the current
// routes if anything fails. Listener addresses and logging settings only
// change on restart.
func (s *state) reload(ctx context.Context, source string) bool {
	s.log.Warn("Configuration reload starting", slog.String("source", source))

	cfg, err := s.load()
	if err == nil {
		err = s.apply(ctx, cfg)
	}

	s.collector.Emit(metrics.MetricEvent{Type: metrics.EventConfigReloaded, Success: err == nil})

	if err != nil {
		s.log.Error("Configuration NOT reloaded, keeping current routes",
			slog.String("source", source),
			slog.Any("err", err))
		return false
	}

	s.log.Info("Configuration reloaded", slog.String("source", source))
	return true
}

func (s *state) watchHangups(ctx context.Context) {
	hups := make(chan os.Signal, 1)
	signal.Notify(hups, syscall.SIGHUP)
	defer signal.Stop(hups)

	for {
		select {
		case <-hups:
			s.reload(ctx, "sighup")
		case <-ctx.Done():
			return
		}
	}
}

func (s *state) stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.stopChecks != nil {
		s.stopChecks()
		s.stopChecks = nil
	}
}
