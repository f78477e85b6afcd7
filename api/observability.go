package api

import (
	"net/http"
	"time"

	"unified-console/core/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initObservability() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	uptime := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "console_uptime_seconds",
		Help: "Seconds since the server started.",
	}, func() float64 { return time.Since(s.startedAt).Seconds() })
	reg.MustRegister(uptime)

	if s.engine != nil {
		reg.MustRegister(s.engine.Collectors()...)
	}
	s.registry = reg
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// metricsHandler guards the scrape endpoint with a static bearer token
// when one is configured.
func (s *Server) metricsHandler() http.Handler {
	inner := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.Observability.MetricsEnabled {
			http.NotFound(w, r)
			return
		}
		if token := s.cfg.Observability.MetricsToken; token != "" {
			got := bearerToken(r)
			if got == "" || !utils.ConstantTimeEquals([]byte(got), []byte(token)) {
				writeErr(w, http.StatusUnauthorized, kindUnauthenticated, "metrics token required")
				return
			}
		}
		inner.ServeHTTP(w, r)
	})
}
