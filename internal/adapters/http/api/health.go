package api

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/millcert/pkg/metrics"
)

func metricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}

type healthResponse struct {
	Status    string `json:"status"`
	Templates int    `json:"templates"`
}

// handleHealth handles GET /healthz.
// If the Accept header asks for "application/openmetrics-text" or "text/plain"
// it returns Prometheus metrics. Otherwise, it returns JSON health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/openmetrics-text") || strings.Contains(accept, "text/plain") {
		metricsHandler().ServeHTTP(w, r)
		return
	}
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Templates: len(s.deps.Templates.List())})
}
