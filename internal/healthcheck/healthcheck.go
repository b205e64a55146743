package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/angeloszaimis/multidomain/internal/backend"
)

// Options controls how a backend is probed.
type Options struct {
	Interval time.Duration
	Path     string
	Timeout  time.Duration
}

const (
	defaultPath    = "/health"
	defaultTimeout = 5 * time.Second
)

// HealthCheck periodically sends GET requests to the backend's health path
// and updates its health status: 200 is healthy, anything else or a transport
// error is not. onChange, if set, is called on every transition. It blocks
// until ctx is cancelled.
func HealthCheck(
	ctx context.Context,
	b *backend.Backend,
	opts Options,
	logger *slog.Logger,
	onChange func(healthy bool),
) {
	if opts.Path == "" {
		opts.Path = defaultPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	client := &http.Client{
		Timeout: opts.Timeout,
	}
	healthURL := b.URL().ResolveReference(&url.URL{Path: opts.Path})

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Health check stopped",
				slog.String("server", b.URL().String()))
			return

		case <-ticker.C:
			healthy := probe(ctx, client, healthURL.String())
			if !b.SetHealthy(healthy) {
				continue
			}

			if healthy {
				logger.Info("Server is back up",
					slog.String("server", b.URL().String()))
			} else {
				logger.Warn("Server is down",
					slog.String("server", b.URL().String()))
			}

			if onChange != nil {
				onChange(healthy)
			}
		}
	}
}

func probe(ctx context.Context, client *http.Client, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}

	res, err := client.Do(req)
	if err != nil {
		return false
	}
	res.Body.Close()

	return res.StatusCode == http.StatusOK
}
