package httpserver

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler runs the given probes and answers 200 when all pass or 503
// with the first failure. Probes are the func(context.Context) error shape
// produced by pg.Healthcheck and redis.Healthcheck.
func HealthHandler(probes map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		for name, probe := range probes {
			if err := probe(ctx); err != nil {
				http.Error(w, name+": "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
