// Package admin mounts the ops-facing HTTP surface spec.md §9 calls
// out-of-band from the RPC protocol itself: liveness, Prometheus metrics,
// and pprof profiling, on their own listener so an operator never shares a
// port with client traffic. Grounded on the teacher's
// pkg/controlplane/api/router.go chi-router layout, trimmed to the handful
// of ops routes this service needs instead of a full admin API.
package admin

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc reports whether the service is ready to serve RPCs (e.g. the
// KVS has opened and the blob stores are reachable).
type HealthFunc func() error

// NewRouter builds the admin HTTP handler. reg is the Prometheus registry
// the Engine (and anything else) registered its collectors against; pass
// prometheus.DefaultRegisterer's backing registry in production.
func NewRouter(reg *prometheus.Registry, ready HealthFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if ready != nil {
			if err := ready(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gatherer := prometheus.Gatherer(reg)
	if reg == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/debug/pprof", func(r chi.Router) {
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Get("/{name}", func(w http.ResponseWriter, req *http.Request) {
			pprof.Handler(chi.URLParam(req, "name")).ServeHTTP(w, req)
		})
	})

	return r
}
