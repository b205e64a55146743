package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/angeloszaimis/multidomain/internal/circuitbreaker"
	"github.com/angeloszaimis/multidomain/internal/dispatcher"
	"github.com/angeloszaimis/multidomain/internal/metrics"
)

type routeInfo struct {
	Priority int    `json:"priority"`
	Domain   string `json:"domain"`
}

type routesResponse struct {
	Routes   []routeInfo       `json:"routes"`
	Breakers map[string]string `json:"breakers"`
}

// setupAdminRouter serves operational endpoints on the admin listener, away
// from the virtual hosts.
func setupAdminRouter(table *dispatcher.Table, collector *metrics.Collector, exporter *metrics.Prometheus, breakers *circuitbreaker.Registry) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/metrics", collector.Handler())
	r.Method(http.MethodGet, "/metrics/prometheus", exporter.Handler())
	r.Get("/routes", routesHandler(table, breakers))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}

func routesHandler(table *dispatcher.Table, breakers *circuitbreaker.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := routesResponse{
			Routes:   []routeInfo{},
			Breakers: make(map[string]string),
		}

		if d := table.Current(); d != nil {
			for i, route := range d.Routes() {
				resp.Routes = append(resp.Routes, routeInfo{Priority: i, Domain: route.Pattern.String()})
			}
		}
		for url, st := range breakers.Stats() {
			resp.Breakers[url] = st.String()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
